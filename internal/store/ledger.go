package store

// ledgerHeader is the failure ledger schema: one row per message that
// exhausted its fetch retries.
var ledgerHeader = []string{"MessageID"}

// FailureLedger records the identifiers of messages that could not be
// fetched, so a failed message never blocks the batch and is still visible
// after the run.
type FailureLedger struct {
	path string
}

// NewFailureLedger returns a ledger backed by the CSV file at path.
func NewFailureLedger(path string) *FailureLedger {
	return &FailureLedger{path: path}
}

// Path returns the backing file path.
func (l *FailureLedger) Path() string { return l.path }

// Read returns every recorded identifier in file order.
func (l *FailureLedger) Read() ([]string, error) {
	_, rows, err := readTable(l.path)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) > 0 {
			ids = append(ids, row[0])
		}
	}
	return ids, nil
}

// Record appends a message identifier unless it is already present, keeping
// re-runs from piling up duplicate failure rows.
func (l *FailureLedger) Record(messageID string) error {
	_, rows, err := readTable(l.path)
	if err != nil {
		return err
	}
	if _, ok := idSet(rows, 0)[messageID]; ok {
		return nil
	}
	return appendTable(l.path, ledgerHeader, [][]string{{messageID}})
}
