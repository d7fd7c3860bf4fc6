package main

import (
	"github.com/spf13/cobra"

	"github.com/jobtrail/jobtrail/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: fetch, process, track",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd.Context(), pipeline.StageRun, true, true)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
