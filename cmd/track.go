package main

import (
	"github.com/spf13/cobra"

	"github.com/jobtrail/jobtrail/internal/pipeline"
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Classify processed emails and update the tracker",
	Long:  "Classifies every processed email, folds non-irrelevant results into the application tracker, and archives the consumed records.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd.Context(), pipeline.StageTrack, false, true)
	},
}

func init() {
	rootCmd.AddCommand(trackCmd)
}
