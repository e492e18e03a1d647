package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountPipelineValue sums the value of the account's open opportunities.
// Won and Lost opportunities are excluded.
func AccountPipelineValue(opps []Opportunity) decimal.Decimal {
	total := decimal.Zero
	for i := range opps {
		if opps[i].Stage.IsClosed() {
			continue
		}
		total = total.Add(opps[i].Value())
	}
	return total
}

// AccountOpenOpportunityCount counts the account's opportunities that are
// not in a terminal stage.
func AccountOpenOpportunityCount(opps []Opportunity) int {
	n := 0
	for i := range opps {
		if !opps[i].Stage.IsClosed() {
			n++
		}
	}
	return n
}

// AccountLastContacted returns the most recent last-contacted date across
// the account's contacts, or nil when no contact has one.
func AccountLastContacted(contacts []Contact) *time.Time {
	var latest *time.Time
	for i := range contacts {
		lc := contacts[i].LastContacted
		if lc == nil {
			continue
		}
		if latest == nil || lc.After(*latest) {
			latest = lc
		}
	}
	return latest
}
