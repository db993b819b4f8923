package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nvali/chronotap/internal/engine"
)

// recorder collects events delivered by the watcher.
type recorder struct {
	mu     sync.Mutex
	events []engine.Event
}

func (r *recorder) Notify(ev engine.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Path)
	}
	return out
}

func TestIsIgnored(t *testing.T) {
	w := &Watcher{WorkDir: "/work/app", IgnorePatterns: []string{"*.log", "dist"}}
	patterns := w.IgnorePatterns

	cases := []struct {
		path string
		want bool
	}{
		{"/work/app/debug.log", true},
		{"/work/app/dist", true},
		{"/work/app/main.go", false},
		{"/work/app/sub/trace.log", true},
	}
	for _, tc := range cases {
		if got := w.isIgnored(tc.path, patterns); got != tc.want {
			t.Errorf("isIgnored(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestReadPatternFileSkipsComments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".gitignore")
	content := "# build output\ndist/\n\n*.log\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	patterns, err := readPatternFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"dist", "*.log"}
	if len(patterns) != len(want) {
		t.Fatalf("got %v, want %v", patterns, want)
	}
	for i := range want {
		if patterns[i] != want[i] {
			t.Errorf("patterns[%d] = %q, want %q", i, patterns[i], want[i])
		}
	}
}

func TestWatcherForwardsWriteEvents(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := &Watcher{WorkDir: dir, IgnorePatterns: []string{"*.tmp"}}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx, rec)
	}()

	// Give the watcher a moment to establish its watches.
	time.Sleep(100 * time.Millisecond)

	tracked := filepath.Join(dir, "main.go")
	ignored := filepath.Join(dir, "scratch.tmp")
	if err := os.WriteFile(tracked, []byte("package main\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ignored, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(2 * time.Second)
	for {
		sawTracked := false
		for _, p := range rec.paths() {
			if p == ignored {
				t.Fatalf("ignored file %q was forwarded", ignored)
			}
			if p == tracked {
				sawTracked = true
			}
		}
		if sawTracked {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("no event for %q; got %v", tracked, rec.paths())
		case <-time.After(20 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop on context cancellation")
	}
}
