package track

import (
	"time"

	"github.com/google/uuid"
)

// Tracker owns the current session and its per-context activity map.
// It is the session manager: the engine feeds it billed intervals and it
// materializes Session snapshots on demand.
type Tracker struct {
	sessionID  string
	activities map[string]*ContextActivity // key: path + "\x00" + branch
	order      []string                    // first-touched order of keys
}

// NewTracker opens a fresh session with a new id.
func NewTracker() *Tracker {
	return &Tracker{
		sessionID:  uuid.New().String(),
		activities: make(map[string]*ContextActivity),
	}
}

// SessionID returns the current session's id.
func (t *Tracker) SessionID() string { return t.sessionID }

func activityKey(path, branch string) string {
	return path + "\x00" + branch
}

// activity returns the accumulator for ctx, creating it on first touch.
func (t *Tracker) activity(ctx *Context) *ContextActivity {
	key := activityKey(ctx.Path, ctx.Branch)
	a, ok := t.activities[key]
	if !ok {
		a = &ContextActivity{
			Path:        ctx.Path,
			Name:        ctx.Name,
			Branch:      ctx.Branch,
			RemoteURL:   ctx.RemoteURL,
			FilesEdited: make(map[string]bool),
			Languages:   make(map[string]time.Duration),
		}
		t.activities[key] = a
		t.order = append(t.order, key)
	}
	return a
}

// Bill attributes an active interval to ctx's accumulator, split into the
// context total and its language bucket.
func (t *Tracker) Bill(ctx *Context, d time.Duration) {
	if ctx == nil || d <= 0 {
		return
	}
	a := t.activity(ctx)
	a.TimeSpent += d
	lang := ctx.Language
	if lang == "" {
		lang = "unknown"
	}
	a.Languages[lang] += d
}

// TouchFile records an edited file against ctx without billing time.
func (t *Tracker) TouchFile(ctx *Context, path string) {
	if ctx == nil || path == "" {
		return
	}
	t.activity(ctx).FilesEdited[path] = true
}

// ActiveSum returns the total time billed across all contexts. Never exceeds
// the session's total duration.
func (t *Tracker) ActiveSum() time.Duration {
	var sum time.Duration
	for _, a := range t.activities {
		sum += a.TimeSpent
	}
	return sum
}

// Materialize derives the current Session from state. It is pure with respect
// to the tracker: calling it twice without new events yields identical
// output. endAt is the observation point (usually the clock's now); an
// in-progress idle interval is added virtually so active+idle always equals
// the total duration.
func (t *Tracker) Materialize(st *State, endAt time.Time) Session {
	total := ClampDelta(st.SessionStart, endAt)
	idle := st.IdleAccum
	if st.Idle {
		idle += ClampDelta(st.IdleStart, endAt)
	}
	if idle > total {
		idle = total
	}

	acts := make([]ContextActivity, 0, len(t.order))
	for _, key := range t.order {
		acts = append(acts, t.activities[key].Clone())
	}

	return Session{
		ID:            t.sessionID,
		StartTime:     st.SessionStart,
		TotalDuration: total,
		ActiveTime:    total - idle,
		IdleTime:      idle,
		Activities:    acts,
	}
}

// Finalize materializes the session and closes it at endAt.
func (t *Tracker) Finalize(st *State, endAt time.Time) Session {
	s := t.Materialize(st, endAt)
	end := endAt
	s.EndTime = &end
	return s
}
