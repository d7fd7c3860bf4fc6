package store

import (
	"github.com/rotisserie/eris"

	"github.com/jobtrail/jobtrail/internal/model"
)

// emailHeader is the Fetch Store schema. The archive shares it.
var emailHeader = []string{"MessageID", "From", "To", "Subject", "Body", "Date"}

// EmailStore is a CSV-backed store of raw EmailRecords. It backs both the
// active fetch store and its archive.
type EmailStore struct {
	path string
}

// NewEmailStore returns a store backed by the CSV file at path. The file
// need not exist; a missing file reads as empty.
func NewEmailStore(path string) *EmailStore {
	return &EmailStore{path: path}
}

// Path returns the backing file path.
func (s *EmailStore) Path() string { return s.path }

// Read returns every record in the store in file order.
func (s *EmailStore) Read() ([]model.EmailRecord, error) {
	_, rows, err := readTable(s.path)
	if err != nil {
		return nil, err
	}
	records := make([]model.EmailRecord, 0, len(rows))
	for i, row := range rows {
		if len(row) != len(emailHeader) {
			return nil, eris.Errorf("store: %s row %d has %d fields, want %d", s.path, i+1, len(row), len(emailHeader))
		}
		records = append(records, model.EmailRecord{
			MessageID: row[0],
			From:      row[1],
			To:        row[2],
			Subject:   row[3],
			Body:      row[4],
			Date:      row[5],
		})
	}
	return records, nil
}

// MessageIDs returns the set of identifiers present in the store. This is
// the dedup ledger for transitions into this store, computed fresh per run.
func (s *EmailStore) MessageIDs() (map[string]struct{}, error) {
	_, rows, err := readTable(s.path)
	if err != nil {
		return nil, err
	}
	return idSet(rows, 0), nil
}

// Append writes records to the end of the store. Callers are expected to
// have run the dedup gate first.
func (s *EmailStore) Append(records []model.EmailRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{r.MessageID, r.From, r.To, r.Subject, r.Body, r.Date})
	}
	return appendTable(s.path, emailHeader, rows)
}

// AppendNew appends only records whose MessageID is not already present and
// reports how many were added. Used for archive appends, which must stay
// idempotent across a crashed-and-retried flush.
func (s *EmailStore) AppendNew(records []model.EmailRecord) (int, error) {
	existing, err := s.MessageIDs()
	if err != nil {
		return 0, err
	}
	fresh := FilterNew(records, func(r model.EmailRecord) string { return r.MessageID }, existing)
	if err := s.Append(fresh); err != nil {
		return 0, err
	}
	return len(fresh), nil
}

// Prune atomically rewrites the store without the records whose MessageID is
// in ids. Returns the number of records removed.
func (s *EmailStore) Prune(ids map[string]struct{}) (int, error) {
	records, err := s.Read()
	if err != nil {
		return 0, err
	}
	kept := make([][]string, 0, len(records))
	removed := 0
	for _, r := range records {
		if _, ok := ids[r.MessageID]; ok {
			removed++
			continue
		}
		kept = append(kept, []string{r.MessageID, r.From, r.To, r.Subject, r.Body, r.Date})
	}
	if removed == 0 {
		return 0, nil
	}
	if err := replaceTable(s.path, emailHeader, kept); err != nil {
		return 0, err
	}
	return removed, nil
}
