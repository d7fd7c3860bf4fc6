package store

import (
	"github.com/rotisserie/eris"

	"github.com/jobtrail/jobtrail/internal/model"
)

// trackerHeader is the tracker table schema. The tracker is the terminal,
// human-facing artifact.
var trackerHeader = []string{"Company Name", "Status", "Email", "Status Updated"}

// TrackerStore is the CSV-backed application tracker. Unlike the other
// stores it is fully rewritten (never appended) each run.
type TrackerStore struct {
	path string
}

// NewTrackerStore returns a tracker backed by the CSV file at path.
func NewTrackerStore(path string) *TrackerStore {
	return &TrackerStore{path: path}
}

// Path returns the backing file path.
func (s *TrackerStore) Path() string { return s.path }

// Read returns every tracker entry in file order. A missing tracker is an
// empty tracker, not an error.
func (s *TrackerStore) Read() ([]model.TrackerEntry, error) {
	_, rows, err := readTable(s.path)
	if err != nil {
		return nil, err
	}
	entries := make([]model.TrackerEntry, 0, len(rows))
	for i, row := range rows {
		// Tolerate the three-column layout from before Status Updated existed.
		if len(row) != len(trackerHeader) && len(row) != len(trackerHeader)-1 {
			return nil, eris.Errorf("store: %s row %d has %d fields, want %d", s.path, i+1, len(row), len(trackerHeader))
		}
		entry := model.TrackerEntry{
			CompanyName: row[0],
			Status:      model.Status(row[1]),
			Email:       row[2],
		}
		if len(row) == len(trackerHeader) {
			entry.StatusUpdated = row[3]
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Replace atomically rewrites the full tracker with the given entries, in
// the given order.
func (s *TrackerStore) Replace(entries []model.TrackerEntry) error {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.CompanyName, string(e.Status), e.Email, e.StatusUpdated})
	}
	return replaceTable(s.path, trackerHeader, rows)
}
