package store

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/jobtrail/jobtrail/internal/model"
)

// processedHeader is the Processed Store schema: the fetch columns plus the
// composed classifier input and the normalized UTC timestamp.
var processedHeader = []string{"MessageID", "From", "To", "Subject", "Body", "Date", "text", "ParsedDate"}

// parsedDateLayout is RFC 3339; lexical order on UTC strings matches
// chronological order, which downstream sorting relies on.
const parsedDateLayout = time.RFC3339

// ProcessedStore is a CSV-backed store of ProcessedRecords. It backs both
// the active processed store and its archive.
type ProcessedStore struct {
	path string
}

// NewProcessedStore returns a store backed by the CSV file at path.
func NewProcessedStore(path string) *ProcessedStore {
	return &ProcessedStore{path: path}
}

// Path returns the backing file path.
func (s *ProcessedStore) Path() string { return s.path }

// Read returns every record in the store in file order.
func (s *ProcessedStore) Read() ([]model.ProcessedRecord, error) {
	_, rows, err := readTable(s.path)
	if err != nil {
		return nil, err
	}
	records := make([]model.ProcessedRecord, 0, len(rows))
	for i, row := range rows {
		if len(row) != len(processedHeader) {
			return nil, eris.Errorf("store: %s row %d has %d fields, want %d", s.path, i+1, len(row), len(processedHeader))
		}
		parsed, err := time.Parse(parsedDateLayout, row[7])
		if err != nil {
			return nil, eris.Wrapf(err, "store: %s row %d bad ParsedDate", s.path, i+1)
		}
		records = append(records, model.ProcessedRecord{
			MessageID:  row[0],
			From:       row[1],
			To:         row[2],
			Subject:    row[3],
			Body:       row[4],
			Date:       row[5],
			Text:       row[6],
			ParsedDate: parsed.UTC(),
		})
	}
	return records, nil
}

// MessageIDs returns the set of identifiers present in the store.
func (s *ProcessedStore) MessageIDs() (map[string]struct{}, error) {
	_, rows, err := readTable(s.path)
	if err != nil {
		return nil, err
	}
	return idSet(rows, 0), nil
}

func processedRow(r model.ProcessedRecord) []string {
	return []string{
		r.MessageID, r.From, r.To, r.Subject, r.Body, r.Date,
		r.Text, r.ParsedDate.UTC().Format(parsedDateLayout),
	}
}

// Append writes records to the end of the store in the given order.
func (s *ProcessedStore) Append(records []model.ProcessedRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, processedRow(r))
	}
	return appendTable(s.path, processedHeader, rows)
}

// AppendNew appends only records whose MessageID is not already present and
// reports how many were added.
func (s *ProcessedStore) AppendNew(records []model.ProcessedRecord) (int, error) {
	existing, err := s.MessageIDs()
	if err != nil {
		return 0, err
	}
	fresh := FilterNew(records, func(r model.ProcessedRecord) string { return r.MessageID }, existing)
	if err := s.Append(fresh); err != nil {
		return 0, err
	}
	return len(fresh), nil
}

// Prune atomically rewrites the store without the records whose MessageID is
// in ids. Returns the number of records removed.
func (s *ProcessedStore) Prune(ids map[string]struct{}) (int, error) {
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
		kept = append(kept, processedRow(r))
	}
	if removed == 0 {
		return 0, nil
	}
	if err := replaceTable(s.path, processedHeader, kept); err != nil {
		return 0, err
	}
	return removed, nil
}
