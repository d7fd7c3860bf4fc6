package main

import (
	"github.com/spf13/cobra"

	"github.com/jobtrail/jobtrail/internal/pipeline"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch new emails into the local store",
	Long:  "Lists every Gmail message newer than the store's cursor and appends it to the email store. Messages that fail after retries are recorded in the failure ledger.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd.Context(), pipeline.StageFetch, true, false)
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
