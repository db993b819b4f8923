// Package engine runs the active/idle state machine and attributes elapsed
// time to the project/branch/language context the user is working in.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nvali/chronotap/internal/identity"
	"github.com/nvali/chronotap/internal/logger"
	"github.com/nvali/chronotap/internal/store"
	"github.com/nvali/chronotap/internal/track"
)

const (
	// DefaultHeartbeatInterval is how often the engine re-evaluates idle
	// state and day rollover.
	DefaultHeartbeatInterval = 30 * time.Second
	// DefaultIdleThreshold is the inactivity gap after which the engine
	// transitions from Active to Idle. The boundary is exclusive: a gap of
	// exactly the threshold stays Active.
	DefaultIdleThreshold = 3 * time.Minute

	eventQueueSize = 256
)

// Options configure an Engine.
type Options struct {
	HeartbeatInterval time.Duration
	IdleThreshold     time.Duration
	WorkDir           string // directory being tracked; fallback identity
}

func (o *Options) fill() {
	if o.HeartbeatInterval <= 0 {
		o.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if o.IdleThreshold <= 0 {
		o.IdleThreshold = DefaultIdleThreshold
	}
}

// Engine owns the process-wide TrackingState. All mutation happens through
// its transition methods; Run serializes event and heartbeat delivery so the
// state machine is effectively single-threaded.
type Engine struct {
	clock    track.Clock
	resolver identity.Resolver
	store    *store.Store
	opts     Options
	log      zerolog.Logger

	events chan Event

	mu      sync.Mutex
	st      track.State
	tracker *track.Tracker
}

// New constructs an Engine with an injected clock, resolver, and store.
func New(clock track.Clock, resolver identity.Resolver, st *store.Store, opts Options) *Engine {
	if clock == nil {
		clock = track.SystemClock{}
	}
	opts.fill()
	return &Engine{
		clock:    clock,
		resolver: resolver,
		store:    st,
		opts:     opts,
		log:      logger.With("engine"),
		events:   make(chan Event, eventQueueSize),
	}
}

// Start transitions Stopped -> Active: initializes the state, opens a new
// session, and resolves the initial context for the tracked directory.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.st.Tracking {
		return
	}
	now := e.clock.Now()
	e.st = track.State{
		Tracking:      true,
		WindowFocused: true,
		LastActivity:  now,
		SessionStart:  now,
	}
	e.tracker = track.NewTracker()
	e.setContext(e.resolveIdentity(e.opts.WorkDir), "", now)
	e.log.Info().Str("session", e.tracker.SessionID()).Msg("tracking started")
}

// Stop finalizes the current context's time, flushes synchronously, and
// transitions to Stopped.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.st.Tracking {
		return
	}
	now := e.clock.Now()
	e.closeInterval(now)
	sess := e.tracker.Finalize(&e.st, now)
	e.store.UpsertSession(track.DateKey(e.st.SessionStart), sess)
	if err := e.store.ForceFlush(); err != nil {
		e.log.Warn().Err(err).Msg("final flush failed")
	}
	e.st.Tracking = false
	e.st.Current = nil
	e.log.Info().Str("session", sess.ID).Dur("active", sess.ActiveTime).Msg("tracking stopped")
}

// Notify enqueues an activity event. Non-blocking: if the queue is full the
// event is dropped with a warning rather than stalling the producer.
func (e *Engine) Notify(ev Event) {
	select {
	case e.events <- ev:
	default:
		e.log.Warn().Msg("event queue full, dropping activity event")
	}
}

// Run consumes events and fires heartbeats until ctx is cancelled, then
// stops tracking with a final flush.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.opts.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			e.Stop()
			return
		case ev := <-e.events:
			e.RecordActivity(ev)
		case <-ticker.C:
			e.Heartbeat()
		}
	}
}

// RecordActivity applies one activity event at the current clock time.
// While Active, the interval since the last activity is billed retroactively
// to the context that was current during it; an in-progress idle interval is
// closed instead, never billed.
func (e *Engine) RecordActivity(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.st.Tracking {
		return
	}
	now := e.clock.Now()

	switch ev.Kind {
	case EventFocus:
		e.st.WindowFocused = true
	case EventBlur:
		e.st.WindowFocused = false
	}

	e.closeInterval(now)
	e.st.LastActivity = now

	if ev.Kind == EventFileEdit && ev.Path != "" {
		id := e.resolveIdentity(ev.Path)
		if e.st.Current == nil || id.Path != e.st.Current.Path || id.Branch != e.st.Current.Branch {
			e.setContext(id, ev.Path, now)
		} else {
			e.st.Current.ActiveFile = ev.Path
			e.st.Current.Language = identity.LanguageForFile(ev.Path)
		}
		e.tracker.TouchFile(e.st.Current, ev.Path)
	}
}

// closeInterval settles the span since the last activity at now: while Idle
// it extends the idle accumulator, otherwise it bills the current context.
// Callers update LastActivity (or roll the session) afterwards.
func (e *Engine) closeInterval(now time.Time) {
	if e.st.Idle {
		e.st.IdleAccum += track.ClampDelta(e.st.IdleStart, now)
		e.st.Idle = false
		e.st.IdleStart = time.Time{}
		e.log.Debug().Msg("idle ended")
		return
	}
	e.tracker.Bill(e.st.Current, track.ClampDelta(e.st.LastActivity, now))
}

// Heartbeat re-evaluates idle state and day rollover, then recomputes the
// session and schedules a debounced persistence write. Fired every heartbeat
// interval; also callable directly.
func (e *Engine) Heartbeat() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.st.Tracking {
		return
	}
	now := e.clock.Now()

	// Idle detection first so a gap that spans midnight is split as idle,
	// not billed to a context. Strictly greater: a gap of exactly the
	// threshold stays Active.
	if !e.st.Idle && now.Sub(e.st.LastActivity) > e.opts.IdleThreshold {
		e.st.Idle = true
		e.st.IdleStart = e.st.LastActivity
		e.log.Debug().Time("since", e.st.IdleStart).Msg("idle started")
	}

	e.rollover(now)

	sess := e.tracker.Materialize(&e.st, now)
	e.store.UpsertSession(track.DateKey(e.st.SessionStart), sess)
}

// rollover closes the running session at each calendar boundary between the
// session's start date and now, opening a fresh session on the far side.
// The check is a date-key comparison, not a scheduled timer, so it
// self-corrects on the first heartbeat after any suspend/hibernate gap,
// one boundary per iteration.
func (e *Engine) rollover(now time.Time) {
	for track.DateKey(e.st.SessionStart) != track.DateKey(now) {
		boundary := track.StartOfDay(e.st.SessionStart).AddDate(0, 0, 1)
		// Activity billed after midnight but before this heartbeat belongs
		// to the old session; never cut before it.
		cut := boundary
		if e.st.LastActivity.After(cut) {
			cut = e.st.LastActivity
		}

		wasIdle := e.st.Idle
		e.closeInterval(cut)
		sess := e.tracker.Finalize(&e.st, cut)
		oldDate := track.DateKey(e.st.SessionStart)
		e.store.UpsertSession(oldDate, sess)
		if err := e.store.ForceFlush(); err != nil {
			e.log.Warn().Err(err).Str("date", oldDate).Msg("rollover flush failed")
		}

		// Fresh session anchored exactly at the cut: no overlapping or
		// missing time at the boundary.
		e.st.SessionStart = cut
		e.st.LastActivity = cut
		e.st.IdleAccum = 0
		if wasIdle {
			e.st.Idle = true
			e.st.IdleStart = cut
		}
		e.tracker = track.NewTracker()
		if e.st.Current != nil {
			c := *e.st.Current
			c.StartTime = cut
			e.st.Current = &c
		}
		e.log.Info().Str("closed", oldDate).Str("session", e.tracker.SessionID()).Msg("day rollover")
	}
}

// ResetToday discards the running session, writes an empty zero-valued
// record for today, and resumes tracking from a fresh session.
func (e *Engine) ResetToday() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.clock.Now()
	if err := e.store.ResetDay(track.DateKey(now)); err != nil {
		return err
	}
	if !e.st.Tracking {
		return nil
	}
	cur := e.st.Current
	e.st = track.State{
		Tracking:      true,
		WindowFocused: e.st.WindowFocused,
		LastActivity:  now,
		SessionStart:  now,
	}
	e.tracker = track.NewTracker()
	if cur != nil {
		c := *cur
		c.StartTime = now
		e.st.Current = &c
	}
	e.log.Info().Str("session", e.tracker.SessionID()).Msg("today reset, fresh session opened")
	return nil
}

// Snapshot returns a materialized copy of the running session and the
// current state for display. Safe to call from other goroutines.
func (e *Engine) Snapshot() (track.Session, track.State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.st.Tracking {
		return track.Session{}, e.st
	}
	return e.tracker.Materialize(&e.st, e.clock.Now()), e.st
}

// setContext finalizes nothing itself (callers settle billing first) and
// replaces the current context wholesale with a fresh start anchor.
func (e *Engine) setContext(id *identity.Identity, activeFile string, now time.Time) {
	ctx := &track.Context{
		Path:      id.Path,
		Name:      id.Name,
		Branch:    id.Branch,
		RemoteURL: id.RemoteURL,
		StartTime: now,
	}
	if activeFile != "" {
		ctx.ActiveFile = activeFile
		ctx.Language = identity.LanguageForFile(activeFile)
	}
	e.st.Current = ctx
	e.log.Debug().Str("project", ctx.Name).Str("branch", ctx.Branch).Msg("context changed")
}

// resolveIdentity resolves path through the identity provider, falling back
// to the tracked directory's workspace identity when absent or failing.
func (e *Engine) resolveIdentity(path string) *identity.Identity {
	id, err := e.resolver.Resolve(path)
	if err != nil {
		e.log.Debug().Err(err).Str("path", path).Msg("identity resolution failed")
	}
	if id == nil {
		return identity.Fallback(e.opts.WorkDir)
	}
	return id
}
