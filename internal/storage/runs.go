// Package storage keeps the history of pipeline runs in a badgerhold store.
package storage

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/phuslu/log"
	"github.com/timshannon/badgerhold/v4"

	"github.com/seenimoa/newsimpact/pkg/models"
)

// ErrNotFound is returned by Get for an unknown run ID.
var ErrNotFound = errors.New("storage: run not found")

// DefaultListLimit applies when List is called with a non-positive limit.
const DefaultListLimit = 20

// RunRecord is one stored run.
type RunRecord struct {
	ID        string `badgerhold:"key"`
	Ticker    string `badgerhold:"index"`
	Company   string
	CreatedAt time.Time
	Report    models.FinalReport
}

// RunStore persists FinalReports by run ID.
type RunStore struct {
	store *badgerhold.Store
	path  string
}

// Open opens (or creates) the run store in dir.
func Open(dir string) (*RunStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage: empty path")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: creating %s: %w", dir, err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = dir
	options.ValueDir = dir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("storage: opening %s: %w", dir, err)
	}
	log.Debug().Str("path", dir).Msg("run store opened")
	return &RunStore{store: store, path: dir}, nil
}

// Close releases the store.
func (s *RunStore) Close() error {
	if s == nil || s.store == nil {
		return nil
	}
	return s.store.Close()
}

// Save stores report under its RunID, replacing an earlier run with the same ID.
func (s *RunStore) Save(report *models.FinalReport) error {
	if report == nil || report.RunID == "" {
		return fmt.Errorf("storage: report without run id")
	}
	created := report.GeneratedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	rec := RunRecord{
		ID:        report.RunID,
		Ticker:    strings.ToUpper(report.Ticker),
		Company:   report.Company,
		CreatedAt: created,
		Report:    *report,
	}
	if err := s.store.Upsert(rec.ID, &rec); err != nil {
		return fmt.Errorf("storage: saving run %s: %w", rec.ID, err)
	}
	log.Debug().Str("run_id", rec.ID).Str("ticker", rec.Ticker).Msg("run saved")
	return nil
}

// Get returns the report of one run.
func (s *RunStore) Get(id string) (*models.FinalReport, error) {
	var rec RunRecord
	if err := s.store.Get(id, &rec); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("storage: loading run %s: %w", id, err)
	}
	return &rec.Report, nil
}

// List returns the most recent runs first, optionally filtered by ticker
// (case-insensitive).
func (s *RunStore) List(ticker string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := badgerhold.Where("ID").Ne("")
	if ticker = strings.ToUpper(strings.TrimSpace(ticker)); ticker != "" {
		query = badgerhold.Where("Ticker").Eq(ticker).Index("Ticker")
	}
	query = query.SortBy("CreatedAt").Reverse().Limit(limit)

	var recs []RunRecord
	if err := s.store.Find(&recs, query); err != nil {
		return nil, fmt.Errorf("storage: listing runs: %w", err)
	}
	return recs, nil
}

// Delete removes one run. Deleting an unknown run is not an error.
func (s *RunStore) Delete(id string) error {
	if err := s.store.Delete(id, RunRecord{}); err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("storage: deleting run %s: %w", id, err)
	}
	return nil
}
