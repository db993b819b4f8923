// Package watch turns filesystem write events under the tracked directory
// into activity events for the engine.
package watch

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/nvali/chronotap/internal/engine"
	"github.com/nvali/chronotap/internal/logger"
)

// Notifier is the slice of the engine the watcher needs.
type Notifier interface {
	Notify(engine.Event)
}

// Watcher recursively observes workDir and forwards Write/Create events.
type Watcher struct {
	WorkDir        string
	IgnorePatterns []string
}

// Run watches until ctx is cancelled. Newly created directories are added to
// the watch set; watcher errors are non-fatal.
func (w *Watcher) Run(ctx context.Context, sink Notifier) error {
	log := logger.With("watch")

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	patterns := w.loadPatterns()

	// Walk the tree and watch every subdirectory.
	if err := filepath.WalkDir(w.WorkDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if d.IsDir() {
			if w.isIgnored(path, patterns) {
				return filepath.SkipDir
			}
			return fw.Add(path)
		}
		return nil
	}); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if w.isIgnored(event.Name, patterns) {
				continue
			}
			sink.Notify(engine.Event{Kind: engine.EventFileEdit, Path: event.Name})

			// Watch directories as they appear.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = fw.Add(event.Name)
				}
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("watcher error")
		}
	}
}

// isIgnored reports whether path matches any pattern, checked against the
// base name, the path relative to the work dir, and the full path.
func (w *Watcher) isIgnored(path string, patterns []string) bool {
	rel := path
	if w.WorkDir != "" {
		if r, err := filepath.Rel(w.WorkDir, path); err == nil {
			rel = r
		}
	}
	base := filepath.Base(path)
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, rel); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, path); matched {
			return true
		}
	}
	return false
}

// loadPatterns merges configured patterns with .gitignore entries from the
// work dir, plus defaults that would otherwise flood the queue.
func (w *Watcher) loadPatterns() []string {
	patterns := []string{".git", ".git/*", "node_modules", "node_modules/*"}
	patterns = append(patterns, w.IgnorePatterns...)
	if extra, err := readPatternFile(filepath.Join(w.WorkDir, ".gitignore")); err == nil {
		patterns = append(patterns, extra...)
	}
	return patterns
}

// readPatternFile reads a gitignore-style file: non-empty, non-comment lines.
func readPatternFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSuffix(line, "/")
		patterns = append(patterns, line)
	}
	return patterns, scanner.Err()
}
