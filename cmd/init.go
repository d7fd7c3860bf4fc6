package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jobtrail/jobtrail/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config.yaml in the current directory",
	// Writing the default config must not require loading one first.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.WriteDefault("config.yaml"); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "Wrote config.yaml")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
