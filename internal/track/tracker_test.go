package track_test

import (
	"reflect"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/nvali/chronotap/internal/track"
)

func TestMaterializeIsIdempotent(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	tr := track.NewTracker()
	ctx := &track.Context{Path: "/work/app", Name: "app", Branch: "main", Language: "Go", StartTime: start}
	st := &track.State{Tracking: true, SessionStart: start, LastActivity: start}

	tr.Bill(ctx, 10*time.Minute)
	tr.TouchFile(ctx, "/work/app/main.go")
	st.IdleAccum = 2 * time.Minute

	at := start.Add(30 * time.Minute)
	first := tr.Materialize(st, at)
	second := tr.Materialize(st, at)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("materialize not idempotent:\n%+v\n%+v", first, second)
	}
	if first.TotalDuration != 30*time.Minute {
		t.Errorf("total: got %v, want 30m", first.TotalDuration)
	}
	if first.ActiveTime != 28*time.Minute || first.IdleTime != 2*time.Minute {
		t.Errorf("split: active %v idle %v", first.ActiveTime, first.IdleTime)
	}
}

func TestMaterializeAddsOpenIdleVirtually(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	st := &track.State{
		Tracking:     true,
		SessionStart: start,
		LastActivity: start.Add(5 * time.Minute),
		Idle:         true,
		IdleStart:    start.Add(5 * time.Minute),
		IdleAccum:    time.Minute,
	}
	tr := track.NewTracker()

	sess := tr.Materialize(st, start.Add(20*time.Minute))
	if sess.IdleTime != 16*time.Minute {
		t.Errorf("idle: got %v, want 16m (1m closed + 15m in progress)", sess.IdleTime)
	}
	if sess.ActiveTime+sess.IdleTime != sess.TotalDuration {
		t.Errorf("conservation: active %v + idle %v != total %v",
			sess.ActiveTime, sess.IdleTime, sess.TotalDuration)
	}
}

func TestSnapshotsDoNotAliasLiveMaps(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	tr := track.NewTracker()
	ctx := &track.Context{Path: "/work/app", Branch: "main", Language: "Go", StartTime: start}
	st := &track.State{Tracking: true, SessionStart: start, LastActivity: start}

	tr.Bill(ctx, time.Minute)
	sess := tr.Materialize(st, start.Add(time.Minute))

	// Mutating the tracker afterwards must not change the snapshot.
	tr.Bill(ctx, time.Hour)
	tr.TouchFile(ctx, "/work/app/new.go")

	if got := sess.Activities[0].TimeSpent; got != time.Minute {
		t.Errorf("snapshot mutated: got %v, want 1m", got)
	}
	if len(sess.Activities[0].FilesEdited) != 0 {
		t.Errorf("snapshot file set mutated: %v", sess.Activities[0].FilesEdited)
	}
}

func TestBillSplitsByBranch(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	tr := track.NewTracker()
	st := &track.State{Tracking: true, SessionStart: start, LastActivity: start}

	main := &track.Context{Path: "/work/app", Branch: "main", Language: "Go", StartTime: start}
	feat := &track.Context{Path: "/work/app", Branch: "feature/x", Language: "Go", StartTime: start}
	tr.Bill(main, 10*time.Minute)
	tr.Bill(feat, 5*time.Minute)

	sess := tr.Materialize(st, start.Add(15*time.Minute))
	if len(sess.Activities) != 2 {
		t.Fatalf("expected separate activities per branch, got %d", len(sess.Activities))
	}
	if sess.Activities[0].Branch != "main" || sess.Activities[1].Branch != "feature/x" {
		t.Errorf("activities not in first-touched order: %+v", sess.Activities)
	}
}

func TestClampDelta(t *testing.T) {
	a := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	if got := track.ClampDelta(a, a.Add(time.Second)); got != time.Second {
		t.Errorf("forward: got %v", got)
	}
	if got := track.ClampDelta(a, a.Add(-time.Second)); got != 0 {
		t.Errorf("backward must clamp to zero: got %v", got)
	}
}

// Property: however billing and idle accumulate, materialized output always
// conserves time and never bills more than the session total.
func TestTrackerConservationProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
		tr := track.NewTracker()
		st := &track.State{Tracking: true, SessionStart: start, LastActivity: start}

		elapsed := time.Duration(0)
		n := rapid.IntRange(1, 30).Draw(rt, "ops")
		for i := 0; i < n; i++ {
			d := time.Duration(rapid.Int64Range(0, 900).Draw(rt, "sec")) * time.Second
			branch := rapid.SampledFrom([]string{"main", "dev"}).Draw(rt, "branch")
			ctx := &track.Context{Path: "/work/app", Branch: branch, StartTime: start}
			if rapid.Bool().Draw(rt, "bill") {
				tr.Bill(ctx, d)
			} else {
				st.IdleAccum += d
			}
			elapsed += d
		}

		sess := tr.Materialize(st, start.Add(elapsed))
		if sess.ActiveTime+sess.IdleTime != sess.TotalDuration {
			rt.Fatalf("conservation violated: %v + %v != %v",
				sess.ActiveTime, sess.IdleTime, sess.TotalDuration)
		}
		if sess.TotalDuration != elapsed {
			rt.Fatalf("total %v != elapsed %v", sess.TotalDuration, elapsed)
		}
	})
}
