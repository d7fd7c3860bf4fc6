package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jobtrail/jobtrail/internal/export"
	"github.com/jobtrail/jobtrail/internal/store"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the application tracker as an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		tracker := store.NewTrackerStore(cfg.Data.Resolve(cfg.Data.TrackerCSV))
		entries, err := tracker.Read()
		if err != nil {
			return err
		}

		if err := export.WriteTrackerXLSX(exportOut, entries); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Wrote %d entries to %s\n", len(entries), exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "application_tracker.xlsx", "output file path")
	rootCmd.AddCommand(exportCmd)
}
