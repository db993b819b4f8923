package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nvali/chronotap/internal/logger"
	"github.com/nvali/chronotap/internal/track"
)

// DefaultRetentionDays is the horizon beyond which day records are deleted.
const DefaultRetentionDays = 90

// Store owns the day-record directory. Dirty records live in memory until the
// debounced writer (or a forced flush) persists them; reads prefer the dirty
// copy so totals reflect unflushed activity.
type Store struct {
	dir string
	loc *time.Location
	log zerolog.Logger

	mu    sync.Mutex
	dirty map[string]*DayRecord
	deb   *debouncer
}

// New creates a Store rooted at dir, creating dir/days if needed.
// Debounced writes coalesce within the given interval.
func New(dir string, debounce time.Duration, loc *time.Location) (*Store, error) {
	if loc == nil {
		loc = time.Local
	}
	s := &Store{
		dir:   dir,
		loc:   loc,
		log:   logger.With("store"),
		dirty: make(map[string]*DayRecord),
	}
	if err := os.MkdirAll(s.daysDir(), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	s.deb = newDebouncer(debounce, func() {
		if err := s.ForceFlush(); err != nil {
			s.log.Warn().Err(err).Msg("debounced flush failed; state retained in memory")
		}
	})
	return s, nil
}

func (s *Store) daysDir() string { return filepath.Join(s.dir, "days") }

func (s *Store) recordPath(date string) string {
	return filepath.Join(s.daysDir(), date+".json")
}

// LoadDay returns the record for date: the in-memory dirty copy if one
// exists, otherwise the persisted file, otherwise an empty zero-valued
// record. A corrupt or unreadable file is treated as absent.
func (s *Store) LoadDay(date string) *DayRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(date)
}

func (s *Store) loadLocked(date string) *DayRecord {
	if rec, ok := s.dirty[date]; ok {
		return rec
	}
	rec := s.readDisk(date)
	if rec == nil {
		rec = NewDayRecord(date)
	}
	return rec
}

// readDisk reads the persisted record for date, or nil when absent/corrupt.
func (s *Store) readDisk(date string) *DayRecord {
	data, err := os.ReadFile(s.recordPath(date))
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("date", date).Msg("unreadable day record, treating as empty")
		}
		return nil
	}
	var rec DayRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		s.log.Warn().Err(err).Str("date", date).Msg("corrupt day record, treating as empty")
		return nil
	}
	if rec.Date == "" {
		rec.Date = date
	}
	return &rec
}

// UpsertSession inserts or replaces sess by id in the record for date, fully
// recomputes the record's aggregates, and schedules a debounced write.
func (s *Store) UpsertSession(date string, sess track.Session) {
	s.mu.Lock()
	rec := s.loadLocked(date)
	rec.UpsertSession(sess)
	s.dirty[date] = rec
	s.mu.Unlock()
	s.deb.Trigger()
}

// ResetDay replaces the record for date with an empty zero-valued one and
// flushes synchronously.
func (s *Store) ResetDay(date string) error {
	s.mu.Lock()
	s.dirty[date] = NewDayRecord(date)
	s.mu.Unlock()
	return s.ForceFlush()
}

// MarkReportSent flags the record for date as reported and flushes.
func (s *Store) MarkReportSent(date string, at time.Time) error {
	s.mu.Lock()
	rec := s.loadLocked(date)
	rec.ReportSent = true
	rec.ReportSentAt = &at
	s.dirty[date] = rec
	s.mu.Unlock()
	return s.ForceFlush()
}

// ForceFlush cancels any pending debounce and writes all dirty records now.
// Used on stop, rollover, and reset; a write failure keeps the record dirty
// so the next successful write recovers full fidelity.
func (s *Store) ForceFlush() error {
	s.deb.Cancel()
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for date, rec := range s.dirty {
		if err := s.writeRecord(rec); err != nil {
			s.log.Warn().Err(err).Str("date", date).Msg("failed to persist day record")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		delete(s.dirty, date)
	}
	return firstErr
}

// writeRecord marshals rec and writes it atomically via temp file + rename.
func (s *Store) writeRecord(rec *DayRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling day record: %w", err)
	}
	tmp, err := os.CreateTemp(s.daysDir(), "day-*.json.tmp")
	if err != nil {
		return fmt.Errorf("writing day record: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing day record: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("writing day record: %w", err)
	}
	if err = os.Rename(tmpName, s.recordPath(rec.Date)); err != nil {
		return fmt.Errorf("writing day record: %w", err)
	}
	return nil
}

// Totals are the derived multi-window sums over day records. Never stored;
// recomputed on demand.
type Totals struct {
	Overall     time.Duration `json:"overall"`
	WeekToDate  time.Duration `json:"week_to_date"`
	MonthToDate time.Duration `json:"month_to_date"`
	YearToDate  time.Duration `json:"year_to_date"`
	Last7Days   time.Duration `json:"last_7_days"`
}

// AggregateTotals scans all persisted records plus the unflushed in-memory
// ones and sums TotalTime into the windows computed from now. Each date is
// counted once even when it is visible both on disk and in memory.
func (s *Store) AggregateTotals(now time.Time) Totals {
	s.mu.Lock()
	defer s.mu.Unlock()

	dates := make(map[string]bool)
	for _, key := range s.listDiskKeys() {
		dates[key] = true
	}
	for key := range s.dirty {
		dates[key] = true
	}

	weekStart := weekStart(now)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
	last7Start := track.StartOfDay(now).AddDate(0, 0, -6)

	var totals Totals
	for date := range dates {
		rec := s.loadLocked(date)
		day, err := time.ParseInLocation(DayKeyLayout, date, s.loc)
		if err != nil {
			continue
		}
		if day.After(now) {
			continue
		}
		totals.Overall += rec.TotalTime
		if !day.Before(weekStart) {
			totals.WeekToDate += rec.TotalTime
		}
		if !day.Before(monthStart) {
			totals.MonthToDate += rec.TotalTime
		}
		if !day.Before(yearStart) {
			totals.YearToDate += rec.TotalTime
		}
		if !day.Before(last7Start) {
			totals.Last7Days += rec.TotalTime
		}
	}
	return totals
}

// weekStart returns midnight of the most recent Monday at or before now.
func weekStart(now time.Time) time.Time {
	offset := (int(now.Weekday()) + 6) % 7
	return track.StartOfDay(now).AddDate(0, 0, -offset)
}

// Cleanup deletes persisted records whose date key parses to a date older
// than now minus retentionDays. Files whose names do not parse are left
// untouched. Returns the number of records deleted.
func (s *Store) Cleanup(now time.Time, retentionDays int) (int, error) {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	horizon := track.StartOfDay(now).AddDate(0, 0, -retentionDays)

	deleted := 0
	for _, key := range s.listDiskKeys() {
		day, err := time.ParseInLocation(DayKeyLayout, key, s.loc)
		if err != nil {
			continue
		}
		if !day.Before(horizon) {
			continue
		}
		if err := os.Remove(s.recordPath(key)); err != nil {
			s.log.Warn().Err(err).Str("date", key).Msg("failed to delete expired day record")
			continue
		}
		deleted++
	}
	return deleted, nil
}

// ListDates returns the sorted date keys of all persisted records.
func (s *Store) ListDates() []string {
	keys := s.listDiskKeys()
	sort.Strings(keys)
	return keys
}

// listDiskKeys returns the date keys of day files currently on disk.
func (s *Store) listDiskKeys() []string {
	entries, err := os.ReadDir(s.daysDir())
	if err != nil {
		s.log.Warn().Err(err).Msg("unable to list day records")
		return nil
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	return keys
}
