// Package report filters action records by date range and subject and
// aggregates their commission.
//
// Every function here is pure over an already loaded slice. Malformed
// individual records never fail a run: an unparseable event date excludes
// the record from a date-filtered report, and an unparseable payout counts
// as zero.
package report

import (
	"math/big"

	"github.com/mbd888/actionreport/internal/actions"
	"github.com/mbd888/actionreport/internal/money"
)

// DefaultSampleSize is used when a non-positive sample size is requested.
const DefaultSampleSize = 5

// Result is the aggregate outcome of a report run.
type Result struct {
	TotalRecords        int
	MatchedRecords      int
	CommissionableCount int
	// TotalCommission is the exact sum of every positive payout.
	TotalCommission *big.Rat
	Sample          []actions.Record

	// SkippedDates counts records dropped because a date range was active
	// and their event date did not parse.
	SkippedDates int
	// InvalidPayouts counts matched records with a non-empty payout that did
	// not parse; they contribute zero.
	InvalidPayouts int
}

// Commission returns the total commission with two decimal places.
func (r Result) Commission() string {
	return money.FormatCents(r.TotalCommission)
}

// Filter returns the records matching c, in input order.
func Filter(records []actions.Record, c Criteria) []actions.Record {
	matched, _ := filter(records, c)
	return matched
}

func filter(records []actions.Record, c Criteria) ([]actions.Record, int) {
	matched := make([]actions.Record, 0, len(records))
	skipped := 0
	for _, rec := range records {
		if c.HasSubject && rec.SubjectID != c.SubjectID {
			continue
		}
		if c.DateRange != nil {
			at, ok := ParseEventDate(rec.EventDate)
			if !ok {
				skipped++
				continue
			}
			if !c.DateRange.Contains(at) {
				continue
			}
		}
		matched = append(matched, rec)
	}
	return matched, skipped
}

// Aggregate counts and sums the commissionable records in matched and takes
// the first sampleSize of them as a sample. TotalRecords is left as
// len(matched); Run overwrites it with the pre-filter count.
func Aggregate(matched []actions.Record, sampleSize int) Result {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}

	result := Result{
		TotalRecords:    len(matched),
		MatchedRecords:  len(matched),
		TotalCommission: new(big.Rat),
	}

	for _, rec := range matched {
		payout, ok := money.Parse(rec.Payout)
		if !ok {
			result.InvalidPayouts++
			continue
		}
		if payout.Sign() <= 0 {
			continue
		}
		result.CommissionableCount++
		result.TotalCommission.Add(result.TotalCommission, payout)
	}

	n := min(sampleSize, len(matched))
	result.Sample = make([]actions.Record, n)
	copy(result.Sample, matched[:n])

	return result
}

// Run filters records by c and aggregates the matches.
func Run(records []actions.Record, c Criteria, sampleSize int) Result {
	matched, skipped := filter(records, c)
	result := Aggregate(matched, sampleSize)
	result.TotalRecords = len(records)
	result.SkippedDates = skipped
	return result
}
