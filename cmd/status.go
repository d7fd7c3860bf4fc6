package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jobtrail/jobtrail/internal/pipeline"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store counts and the newest fetched date",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := pipeline.New(cfg, nil, nil, nil)
		if err != nil {
			return err
		}

		summary, err := p.Status()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "pending emails\t%d\n", summary.PendingEmails)
		fmt.Fprintf(w, "failed fetches\t%d\n", summary.FailedEmails)
		fmt.Fprintf(w, "processed pending\t%d\n", summary.ProcessedPending)
		fmt.Fprintf(w, "tracker entries\t%d\n", summary.TrackerEntries)
		fmt.Fprintf(w, "archived emails\t%d\n", summary.ArchivedEmails)
		if summary.LatestFetched.IsZero() {
			fmt.Fprintf(w, "latest fetched\t-\n")
		} else {
			fmt.Fprintf(w, "latest fetched\t%s\n", summary.LatestFetched.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
