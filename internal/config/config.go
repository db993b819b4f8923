package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// ReportChannel describes where send-report-now delivers the daily summary.
type ReportChannel struct {
	Kind   string `json:"kind"`   // "stdout" | "webhook"
	Target string `json:"target"` // webhook URL; unused for stdout
}

// Config holds all configurable chronotap settings.
type Config struct {
	DataDir              string        `json:"data_dir"`               // override XDG data dir
	HeartbeatIntervalSec int           `json:"heartbeat_interval_sec"` // engine heartbeat period
	IdleThresholdMin     int           `json:"idle_threshold_min"`     // inactivity before idle
	DebounceSec          int           `json:"debounce_sec"`           // persistence write coalescing
	RetentionDays        int           `json:"retention_days"`         // day records older than this are deleted
	IgnorePatterns       []string      `json:"ignore_patterns"`
	Report               ReportChannel `json:"report"`
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		HeartbeatIntervalSec: 30,
		IdleThresholdMin:     3,
		DebounceSec:          5,
		RetentionDays:        90,
		IgnorePatterns:       []string{},
		Report:               ReportChannel{Kind: "stdout"},
	}
}

// HeartbeatInterval returns the heartbeat period as a duration.
func (c Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatIntervalSec) * time.Second
}

// IdleThreshold returns the idle threshold as a duration.
func (c Config) IdleThreshold() time.Duration {
	return time.Duration(c.IdleThresholdMin) * time.Minute
}

// DebounceInterval returns the persistence debounce window as a duration.
func (c Config) DebounceInterval() time.Duration {
	return time.Duration(c.DebounceSec) * time.Second
}

// ResolveDataDir returns the directory for persisted day records:
// the configured override, or $XDG_DATA_HOME/chronotap, or
// ~/.local/share/chronotap.
func (c Config) ResolveDataDir() (string, error) {
	if c.DataDir != "" {
		return c.DataDir, nil
	}
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "chronotap"), nil
}

// GlobalPath returns the path of the global config file.
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "chronotap", "config.json"), nil
}

// LoadGlobal reads the global config file.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	return loadFile(path, true)
}

// LoadProject reads .chronotapconfig in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(".chronotapconfig", false)
}

// loadFile reads and parses a JSON config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Save writes cfg to the global config file, creating the directory if needed.
func Save(cfg Config) error {
	path, err := GlobalPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	for _, c := range []*Config{global, project} {
		if c == nil {
			continue
		}
		if c.DataDir != "" {
			result.DataDir = c.DataDir
		}
		if c.HeartbeatIntervalSec > 0 {
			result.HeartbeatIntervalSec = c.HeartbeatIntervalSec
		}
		if c.IdleThresholdMin > 0 {
			result.IdleThresholdMin = c.IdleThresholdMin
		}
		if c.DebounceSec > 0 {
			result.DebounceSec = c.DebounceSec
		}
		if c.RetentionDays > 0 {
			result.RetentionDays = c.RetentionDays
		}
		if len(c.IgnorePatterns) > 0 {
			result.IgnorePatterns = c.IgnorePatterns
		}
		if c.Report.Kind != "" {
			result.Report = c.Report
		}
	}
	return result
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
