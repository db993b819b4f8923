// Package track defines the in-memory tracking state, session types, and the
// session tracker that accumulates per-context activity. It is pure
// bookkeeping: no I/O, no timers, all time injected through Clock.
package track

import "time"

// Clock provides the current time. Production code uses SystemClock; tests
// inject a manual clock so transitions are deterministic.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Context is the project/branch/file the user is currently working in.
// Replaced wholesale on project or branch switch; StartTime is reset on every
// replacement so elapsed time is computed against the correct anchor.
type Context struct {
	Path       string    `json:"path"`
	Name       string    `json:"name"`
	Branch     string    `json:"branch"`
	RemoteURL  string    `json:"remote_url,omitempty"`
	ActiveFile string    `json:"active_file,omitempty"`
	Language   string    `json:"language,omitempty"`
	StartTime  time.Time `json:"start_time"`
}

// ContextActivity accumulates time for one (path, branch) pair within a
// session. FilesEdited is a set; insertion order is irrelevant.
type ContextActivity struct {
	Path        string                   `json:"path"`
	Name        string                   `json:"name,omitempty"`
	Branch      string                   `json:"branch"`
	RemoteURL   string                   `json:"remote_url,omitempty"`
	TimeSpent   time.Duration            `json:"time_spent"`
	FilesEdited map[string]bool          `json:"files_edited"`
	Languages   map[string]time.Duration `json:"languages"`
}

// Clone returns a deep copy so snapshots handed to persistence never alias
// the live accumulation maps.
func (a ContextActivity) Clone() ContextActivity {
	c := a
	c.FilesEdited = make(map[string]bool, len(a.FilesEdited))
	for k, v := range a.FilesEdited {
		c.FilesEdited[k] = v
	}
	c.Languages = make(map[string]time.Duration, len(a.Languages))
	for k, v := range a.Languages {
		c.Languages[k] = v
	}
	return c
}

// Session is one continuous tracking run: process start to stop or day
// rollover. Activities are snapshots in first-touched order.
type Session struct {
	ID            string            `json:"id"`
	StartTime     time.Time         `json:"start_time"`
	EndTime       *time.Time        `json:"end_time,omitempty"`
	TotalDuration time.Duration     `json:"total_duration"`
	ActiveTime    time.Duration     `json:"active_time"`
	IdleTime      time.Duration     `json:"idle_time"`
	Activities    []ContextActivity `json:"activities"`
}

// State is the engine-owned tracking state. One instance per process,
// mutated only through the engine's transition functions.
type State struct {
	Tracking      bool
	WindowFocused bool
	Idle          bool
	LastActivity  time.Time
	IdleStart     time.Time // zero unless Idle
	SessionStart  time.Time
	IdleAccum     time.Duration // closed idle intervals this session
	Current       *Context
}

// ClampDelta returns to-from, floored at zero. A system clock moved backward
// must never shrink an accumulator.
func ClampDelta(from, to time.Time) time.Duration {
	d := to.Sub(from)
	if d < 0 {
		return 0
	}
	return d
}

// DateKey formats t as the calendar-date key used for day records.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// StartOfDay returns midnight of t's calendar date in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
