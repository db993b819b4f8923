// Package logger configures the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the shared logger instance. Packages log through the helpers
// below or derive child loggers via With.
var Logger zerolog.Logger

func init() {
	Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// Configure sets the global level and, when pretty is true, switches to the
// human-readable console writer.
func Configure(level string, pretty bool) {
	var zl zerolog.Level
	switch strings.ToLower(level) {
	case "debug":
		zl = zerolog.DebugLevel
	case "warn":
		zl = zerolog.WarnLevel
	case "error":
		zl = zerolog.ErrorLevel
	default:
		zl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(zl)

	var w io.Writer = os.Stderr
	if pretty {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	Logger = zerolog.New(w).With().Timestamp().Logger()
	log.Logger = Logger
}

// LevelFromEnv reads the DEBUG environment variable and returns the level
// name to pass to Configure.
func LevelFromEnv() string {
	debug := os.Getenv("DEBUG")
	if strings.ToLower(debug) == "true" || debug == "1" {
		return "debug"
	}
	return "info"
}

// With returns a child logger tagged with the given component name.
func With(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

func Debugf(format string, args ...interface{}) { Logger.Debug().Msgf(format, args...) }
func Infof(format string, args ...interface{})  { Logger.Info().Msgf(format, args...) }
func Warnf(format string, args ...interface{})  { Logger.Warn().Msgf(format, args...) }
func Errorf(format string, args ...interface{}) { Logger.Error().Msgf(format, args...) }
