package report_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvali/chronotap/internal/config"
	"github.com/nvali/chronotap/internal/report"
	"github.com/nvali/chronotap/internal/store"
	"github.com/nvali/chronotap/internal/track"
)

func recordWithTwoRepos() *store.DayRecord {
	rec := store.NewDayRecord("2026-03-10")
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	rec.UpsertSession(track.Session{
		ID:            "s1",
		StartTime:     start,
		TotalDuration: 90 * time.Minute,
		ActiveTime:    80 * time.Minute,
		IdleTime:      10 * time.Minute,
		Activities: []track.ContextActivity{
			{
				Path:      "/work/small",
				Name:      "small",
				Branch:    "main",
				TimeSpent: 20 * time.Minute,
				FilesEdited: map[string]bool{
					"/work/small/a.go": true,
				},
				Languages: map[string]time.Duration{"Go": 20 * time.Minute},
			},
			{
				Path:      "/work/big",
				Name:      "big",
				Branch:    "dev",
				TimeSpent: 60 * time.Minute,
				FilesEdited: map[string]bool{
					"/work/big/a.ts": true,
					"/work/big/b.ts": true,
				},
				Languages: map[string]time.Duration{"TypeScript": 60 * time.Minute},
			},
		},
	})
	return rec
}

func TestBuildSortsDescending(t *testing.T) {
	r := report.Build(recordWithTwoRepos(), store.Totals{})

	require.Len(t, r.Repositories, 2)
	assert.Equal(t, "/work/big", r.Repositories[0].Path)
	assert.Equal(t, 2, r.Repositories[0].FileCount)
	assert.Equal(t, []string{"dev"}, r.Repositories[0].Branches)
	assert.Equal(t, "/work/small", r.Repositories[1].Path)

	require.Len(t, r.Languages, 2)
	assert.Equal(t, "TypeScript", r.Languages[0].Language)
	assert.InDelta(t, 75.0, r.Languages[0].Percent, 0.01)
	assert.InDelta(t, 25.0, r.Languages[1].Percent, 0.01)

	assert.Equal(t, 1, r.SessionCount)
	assert.Equal(t, 90*time.Minute, r.TotalTime)
}

func TestBuildEmptyRecord(t *testing.T) {
	r := report.Build(store.NewDayRecord("2026-03-10"), store.Totals{})
	assert.Empty(t, r.Repositories)
	assert.Empty(t, r.Languages)
	assert.Equal(t, 0, r.SessionCount)
}

func TestStdoutChannelEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	ch, err := report.NewChannel(config.ReportChannel{Kind: "stdout"}, &buf)
	require.NoError(t, err)

	r := report.Build(recordWithTwoRepos(), store.Totals{Overall: 90 * time.Minute})
	require.NoError(t, ch.Send(r))

	var decoded report.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, r.Date, decoded.Date)
	assert.Equal(t, r.Totals.Overall, decoded.Totals.Overall)
}

func TestWebhookChannelRequiresTarget(t *testing.T) {
	_, err := report.NewChannel(config.ReportChannel{Kind: "webhook"}, nil)
	assert.Error(t, err)

	_, err = report.NewChannel(config.ReportChannel{Kind: "carrier-pigeon"}, nil)
	assert.Error(t, err)
}
