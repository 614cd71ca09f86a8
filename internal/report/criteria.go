package report

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidRange is returned when a date range ends before it starts.
var ErrInvalidRange = errors.New("date range start is after end")

// Criteria selects which records a report covers. The zero value matches
// everything.
type Criteria struct {
	DateRange  *DateRange
	SubjectID  string
	HasSubject bool
}

// WithSubject returns a copy of c that matches only subjectID.
func (c Criteria) WithSubject(subjectID string) Criteria {
	c.SubjectID = subjectID
	c.HasSubject = true
	return c
}

// DateRange is an inclusive [Start, End] window compared at whole-second
// granularity.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range. Sub-second precision
// on t is dropped first, so 23:59:59.999 matches an end of 23:59:59.
func (r DateRange) Contains(t time.Time) bool {
	t = t.Truncate(time.Second)
	return !t.Before(r.Start) && !t.After(r.End)
}

// NewDateRange builds a range from two textual bounds. A bare date as start
// means the first second of that day; a bare date as end means 23:59:59 of
// that day. Bare dates and zoneless timestamps are read in loc (UTC when
// nil). If either bound is empty the range is disabled and nil is returned.
func NewDateRange(start, end string, loc *time.Location) (*DateRange, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" || end == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}

	from, _, ok := parseIn(start, loc)
	if !ok {
		return nil, fmt.Errorf("invalid range start %q", start)
	}

	to, dateOnly, ok := parseIn(end, loc)
	if !ok {
		return nil, fmt.Errorf("invalid range end %q", end)
	}
	if dateOnly {
		to = endOfDay(to)
	}

	r := &DateRange{
		Start: from.Truncate(time.Second),
		End:   to.Truncate(time.Second),
	}
	if r.Start.After(r.End) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidRange, start, end)
	}
	return r, nil
}

func endOfDay(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, day.Location())
}
