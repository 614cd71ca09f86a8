package report

import (
	"fmt"
	"io"
	"strings"
)

// Render writes the human-readable summary of r to w.
func Render(w io.Writer, r Result) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Total actions:          %d\n", r.TotalRecords)
	fmt.Fprintf(&b, "Matched actions:        %d\n", r.MatchedRecords)
	fmt.Fprintf(&b, "Commissionable actions: %d\n", r.CommissionableCount)
	fmt.Fprintf(&b, "Total commission:       %s\n", r.Commission())

	if len(r.Sample) > 0 {
		fmt.Fprintf(&b, "\nFirst %d matched actions:\n", len(r.Sample))
		for i, rec := range r.Sample {
			fmt.Fprintf(&b, "  %d. %s date=%s payout=%s amount=%s\n",
				i+1, orDash(rec.ID), orDash(rec.EventDate), orDash(rec.Payout), orDash(rec.Amount))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
