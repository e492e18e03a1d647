package followup

import "time"

// Status labels for a follow-up date relative to today
const (
	StatusNone     = "none"
	StatusOverdue  = "overdue"
	StatusDueToday = "due_today"
	StatusUpcoming = "upcoming"
)

// Status classifies a follow-up date against today and returns the label
// plus the signed day distance. The distance is nil when there is no date.
func Status(next *time.Time, today time.Time) (string, *int) {
	if next == nil {
		return StatusNone, nil
	}
	days := int(dateOnly(*next).Sub(dateOnly(today)).Hours() / 24)
	switch {
	case days < 0:
		return StatusOverdue, &days
	case days == 0:
		return StatusDueToday, &days
	default:
		return StatusUpcoming, &days
	}
}
