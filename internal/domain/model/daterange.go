package model

import "time"

// EarliestAPODDate is the first day NASA published an APOD. No query may
// reach before it.
var EarliestAPODDate = time.Date(1995, time.June, 16, 0, 0, 0, 0, time.UTC)

// APODDateFormat is the wire format the APOD API uses for dates.
const APODDateFormat = "2006-01-02"

// DateRange is an inclusive span of calendar days. The zero value of either
// field means "not selected". Time-of-day components are never meaningful;
// construct values with DateOnly or ParseAPODDate.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// DateOnly strips the time-of-day component and normalizes to UTC so range
// comparisons work purely on calendar dates.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseAPODDate parses a YYYY-MM-DD string into a normalized calendar date.
func ParseAPODDate(s string) (time.Time, error) {
	return time.Parse(APODDateFormat, s)
}

// Complete reports whether both endpoints have been selected.
func (r DateRange) Complete() bool {
	return !r.Start.IsZero() && !r.End.IsZero()
}

// Days returns the inclusive count of calendar days the range spans.
// A single-day range counts as 1. Returns 0 for an incomplete range.
func (r DateRange) Days() int {
	if !r.Complete() {
		return 0
	}
	return int(DateOnly(r.End).Sub(DateOnly(r.Start)).Hours()/24) + 1
}
