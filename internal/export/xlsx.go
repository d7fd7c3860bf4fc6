// Package export renders the application tracker as a spreadsheet.
package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/jobtrail/jobtrail/internal/model"
)

const sheetName = "Applications"

// WriteTrackerXLSX writes the tracker entries to an XLSX workbook at path,
// one row per entry in the order given, with a header row. An existing
// file is overwritten.
func WriteTrackerXLSX(path string, entries []model.TrackerEntry) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range []string{"Company Name", "Status", "Email", "Status Updated"} {
		header.AddCell().SetString(col)
	}

	for _, entry := range entries {
		row := sheet.AddRow()
		row.AddCell().SetString(entry.CompanyName)
		row.AddCell().SetString(string(entry.Status))
		row.AddCell().SetString(entry.Email)
		row.AddCell().SetString(entry.StatusUpdated)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}
