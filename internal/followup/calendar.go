// Package followup implements the follow-up scheduling rules shared by
// opportunities, contacts and the summary views. Everything here is pure;
// callers pass in "today" so the rules stay deterministic and testable.
package followup

import "time"

// AddBusinessDays returns the date n business days after start. Saturdays
// and Sundays are skipped; they neither count nor terminate the walk.
// n=0 returns start unchanged, even on a weekend.
func AddBusinessDays(start time.Time, n int) time.Time {
	d := start
	for added := 0; added < n; {
		d = d.AddDate(0, 0, 1)
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			added++
		}
	}
	return d
}

// NextBusinessDay rolls a date forward off a weekend. Saturday moves to
// Monday, Sunday moves to Monday, weekdays are returned unchanged.
// Idempotent, so applying it twice is harmless.
func NextBusinessDay(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, 2)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

// IsBusinessDay reports whether d falls on a weekday
func IsBusinessDay(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
