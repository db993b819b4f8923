// Package report builds the derived daily summary consumed by notification
// channels and the stats display. It formats nothing itself beyond JSON.
package report

import (
	"sort"
	"time"

	"github.com/nvali/chronotap/internal/store"
)

// RepoLine is one repository's share of the day, sorted descending by time.
type RepoLine struct {
	Path      string        `json:"path"`
	Name      string        `json:"name,omitempty"`
	TimeSpent time.Duration `json:"time_spent"`
	Branches  []string      `json:"branches"`
	FileCount int           `json:"file_count"`
}

// LanguageLine is one language's share of the day with its percentage of the
// day's total language time.
type LanguageLine struct {
	Language  string        `json:"language"`
	TimeSpent time.Duration `json:"time_spent"`
	Percent   float64       `json:"percent"`
}

// Report is the full derived view for one day.
type Report struct {
	Date         string         `json:"date"`
	TotalTime    time.Duration  `json:"total_time"`
	ActiveTime   time.Duration  `json:"active_time"`
	IdleTime     time.Duration  `json:"idle_time"`
	SessionCount int            `json:"session_count"`
	Repositories []RepoLine     `json:"repositories"`
	Languages    []LanguageLine `json:"languages"`
	Totals       store.Totals   `json:"totals"`
}

// Build derives the report for rec with the given window totals.
func Build(rec *store.DayRecord, totals store.Totals) Report {
	r := Report{
		Date:         rec.Date,
		TotalTime:    rec.TotalTime,
		ActiveTime:   rec.ActiveTime,
		IdleTime:     rec.IdleTime,
		SessionCount: rec.SessionCount(),
		Repositories: []RepoLine{},
		Languages:    []LanguageLine{},
		Totals:       totals,
	}

	for _, repo := range rec.Repositories {
		branches := make([]string, 0, len(repo.Branches))
		for b := range repo.Branches {
			branches = append(branches, b)
		}
		sort.Strings(branches)
		r.Repositories = append(r.Repositories, RepoLine{
			Path:      repo.Path,
			Name:      repo.Name,
			TimeSpent: repo.TimeSpent,
			Branches:  branches,
			FileCount: len(repo.Files),
		})
	}
	sort.Slice(r.Repositories, func(i, j int) bool {
		if r.Repositories[i].TimeSpent != r.Repositories[j].TimeSpent {
			return r.Repositories[i].TimeSpent > r.Repositories[j].TimeSpent
		}
		return r.Repositories[i].Path < r.Repositories[j].Path
	})

	var langTotal time.Duration
	for _, d := range rec.Languages {
		langTotal += d
	}
	for lang, d := range rec.Languages {
		pct := 0.0
		if langTotal > 0 {
			pct = float64(d) / float64(langTotal) * 100
		}
		r.Languages = append(r.Languages, LanguageLine{Language: lang, TimeSpent: d, Percent: pct})
	}
	sort.Slice(r.Languages, func(i, j int) bool {
		if r.Languages[i].TimeSpent != r.Languages[j].TimeSpent {
			return r.Languages[i].TimeSpent > r.Languages[j].TimeSpent
		}
		return r.Languages[i].Language < r.Languages[j].Language
	})

	return r
}
