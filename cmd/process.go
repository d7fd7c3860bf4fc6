package main

import (
	"github.com/spf13/cobra"

	"github.com/jobtrail/jobtrail/internal/pipeline"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Normalize fetched emails for classification",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd.Context(), pipeline.StageProcess, false, false)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)
}
