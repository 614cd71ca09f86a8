// Command actionreport summarizes an affiliate Actions report: it filters
// the actions by date range and creator, then totals their commission.
//
// Usage:
//
//	actionreport run actions.json --start 2025-08-11 --end 2025-09-10
//	actionreport run actions.json --subject 12345 --sample 10
//	DATABASE_URL=postgres://... actionreport run --table actions
//	actionreport version
package main

import (
	"os"
)

// Build info - set by ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
