// Package store implements the on-disk stores the pipeline moves records
// through: CSV-backed active stores, archives, the failure ledger, and a
// sqlite run history. A missing store file is always treated as an empty
// store; full rewrites are atomic (temp file + rename) so a crash mid-write
// never leaves a truncated store.
package store

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// readTable reads an entire CSV store. A missing file yields (nil, nil, nil).
// The header row, when present, is returned separately from the data rows.
func readTable(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, eris.Wrapf(err, "store: open %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // validated by the caller per schema

	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return header, rows, nil
		}
		if err != nil {
			return nil, nil, eris.Wrapf(err, "store: read %s", path)
		}
		if first {
			first = false
			header = record
			continue
		}
		rows = append(rows, record)
	}
}

// appendTable appends rows to a CSV store, creating it (with the header row)
// when the file is missing or empty.
func appendTable(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "store: mkdir for %s", path)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return eris.Wrapf(err, "store: open %s for append", path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return eris.Wrapf(err, "store: stat %s", path)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return eris.Wrapf(err, "store: write header %s", path)
		}
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return eris.Wrapf(err, "store: write row %s", path)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "store: flush %s", path)
	}
	return nil
}

// replaceTable rewrites a CSV store in full. The new content is written to a
// temp file in the same directory and renamed over the original, so readers
// never observe a partially written store.
func replaceTable(path string, header []string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "store: mkdir for %s", path)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return eris.Wrapf(err, "store: create temp for %s", path)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	w := csv.NewWriter(tmp)
	writeErr := w.Write(header)
	for _, row := range rows {
		if writeErr != nil {
			break
		}
		writeErr = w.Write(row)
	}
	if writeErr == nil {
		w.Flush()
		writeErr = w.Error()
	}
	if writeErr == nil {
		writeErr = tmp.Sync()
	}
	if closeErr := tmp.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		return eris.Wrapf(writeErr, "store: write temp for %s", path)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return eris.Wrapf(err, "store: replace %s", path)
	}
	return nil
}

// FilterNew is the dedup gate used at every store transition: it keeps only
// the items whose identifier is absent from the downstream store's ID set.
func FilterNew[T any](items []T, id func(T) string, existing map[string]struct{}) []T {
	var fresh []T
	for _, item := range items {
		if _, ok := existing[id(item)]; ok {
			continue
		}
		fresh = append(fresh, item)
	}
	return fresh
}

func idSet(rows [][]string, col int) map[string]struct{} {
	ids := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if col < len(row) {
			ids[row[col]] = struct{}{}
		}
	}
	return ids
}
