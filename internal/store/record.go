// Package store persists per-day activity records and computes multi-window
// totals over them. Records are one JSON file per calendar date, always
// recomputed from their session list before being written.
package store

import (
	"time"

	"github.com/nvali/chronotap/internal/track"
)

// DayKeyLayout is the calendar-date key format for record files.
const DayKeyLayout = "2006-01-02"

// RepoSummary is the per-repository rollup inside a day record, merged
// across all sessions of the day.
type RepoSummary struct {
	Path      string                   `json:"path"`
	Name      string                   `json:"name,omitempty"`
	RemoteURL string                   `json:"remote_url,omitempty"`
	TimeSpent time.Duration            `json:"time_spent"`
	Branches  map[string]time.Duration `json:"branches"`
	Files     map[string]bool          `json:"files"`
}

// DayRecord is the persisted summary for one calendar date. Everything above
// Sessions is derived: RecomputeTotals folds the session list and is the only
// way the aggregates are ever produced.
type DayRecord struct {
	Date         string                   `json:"date"`
	TotalTime    time.Duration            `json:"total_time"`
	ActiveTime   time.Duration            `json:"active_time"`
	IdleTime     time.Duration            `json:"idle_time"`
	Sessions     []track.Session          `json:"sessions"`
	Repositories map[string]*RepoSummary  `json:"repositories"`
	Languages    map[string]time.Duration `json:"languages"`
	ReportSent   bool                     `json:"report_sent"`
	ReportSentAt *time.Time               `json:"report_sent_at,omitempty"`
}

// NewDayRecord returns an empty zero-valued record for date.
func NewDayRecord(date string) *DayRecord {
	return &DayRecord{
		Date:         date,
		Sessions:     []track.Session{},
		Repositories: make(map[string]*RepoSummary),
		Languages:    make(map[string]time.Duration),
	}
}

// UpsertSession inserts or replaces a session by id and recomputes the
// record's aggregates. Calling it again with an unchanged session yields an
// identical record.
func (r *DayRecord) UpsertSession(sess track.Session) {
	replaced := false
	for i := range r.Sessions {
		if r.Sessions[i].ID == sess.ID {
			r.Sessions[i] = sess
			replaced = true
			break
		}
	}
	if !replaced {
		r.Sessions = append(r.Sessions, sess)
	}
	r.RecomputeTotals()
}

// RecomputeTotals rebuilds every derived field from the session list. The
// fold is total, never incremental, so retried upserts and partially written
// records self-heal on the next pass.
func (r *DayRecord) RecomputeTotals() {
	r.TotalTime = 0
	r.ActiveTime = 0
	r.IdleTime = 0
	r.Repositories = make(map[string]*RepoSummary)
	r.Languages = make(map[string]time.Duration)

	for _, sess := range r.Sessions {
		r.TotalTime += sess.TotalDuration
		r.ActiveTime += sess.ActiveTime
		r.IdleTime += sess.IdleTime

		for _, act := range sess.Activities {
			repo, ok := r.Repositories[act.Path]
			if !ok {
				repo = &RepoSummary{
					Path:      act.Path,
					Name:      act.Name,
					RemoteURL: act.RemoteURL,
					Branches:  make(map[string]time.Duration),
					Files:     make(map[string]bool),
				}
				r.Repositories[act.Path] = repo
			}
			repo.TimeSpent += act.TimeSpent
			repo.Branches[act.Branch] += act.TimeSpent
			for f := range act.FilesEdited {
				repo.Files[f] = true
			}
			for lang, d := range act.Languages {
				r.Languages[lang] += d
			}
		}
	}
}

// SessionCount returns the number of sessions recorded for the day.
func (r *DayRecord) SessionCount() int { return len(r.Sessions) }
