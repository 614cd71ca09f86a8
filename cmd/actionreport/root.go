package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "actionreport",
		Short: "Filter affiliate Actions reports and total their commission",
		Long: `actionreport loads an Actions report (a JSON document with an "Actions"
array, or a PostgreSQL table), keeps the actions inside a date range and/or
belonging to one creator, and prints how many matched, how many carry a
positive payout, and the total commission.

Options default from the environment (REPORT_START, REPORT_END,
REPORT_SUBJECT_ID, REPORT_SAMPLE_SIZE, ...); a .env file is read if present.`,
		SilenceUsage: true,
	}

	root.AddCommand(newRunCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "actionreport %s (commit %s, built %s)\n", Version, Commit, BuildTime)
		},
	}
}
