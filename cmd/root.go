package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "parsing-ski",
	Short: "parsing-ski scrapes Georgian ski shops into unified CSV snapshots and diffs them.",
}

// Execute runs the CLI. Any command error exits non-zero.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
