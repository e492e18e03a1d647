package followup

import (
	"time"

	"github.com/bidline/crm-api/internal/domain"
)

// stageFollowupDays is the cadence table for open pipeline stages.
// Won and Lost are deliberately absent; closed opportunities never get
// a follow-up date.
var stageFollowupDays = map[domain.OpportunityStage]int{
	domain.StageProspecting:   14,
	domain.StageQualification: 7,
	domain.StageNeedsAnalysis: 7,
	domain.StageProposal:      14,
	domain.StageBidSent:       14,
	domain.StageNegotiation:   7,
}

// contactFollowupDays is the default recontact interval after a touch
const contactFollowupDays = 30

// bidOverdueBusinessDays is how soon to chase a bid whose date has passed
const bidOverdueBusinessDays = 2

// NextOpportunityFollowup computes the follow-up date for an opportunity.
// Rules, in priority order:
//  1. closed stages never get a date
//  2. a bid date strictly in the past forces a chase two business days out
//  3. otherwise the stage cadence runs from last contact, or from today
//     when the opportunity has never been contacted
//
// An unrecognized stage yields nil rather than a guess.
func NextOpportunityFollowup(stage domain.OpportunityStage, lastContacted, bidDate *time.Time, today time.Time) *time.Time {
	if stage.IsClosed() {
		return nil
	}

	if bidDate != nil && dateOnly(*bidDate).Before(dateOnly(today)) {
		d := AddBusinessDays(today, bidOverdueBusinessDays)
		return &d
	}

	days, ok := stageFollowupDays[stage]
	if !ok {
		return nil
	}

	base := today
	if lastContacted != nil {
		base = *lastContacted
	}
	d := base.AddDate(0, 0, days)
	return &d
}

// ShouldRecalculate reports whether any of the follow-up inputs changed.
// Callers skip the recompute when nothing relevant moved so a manual
// follow-up date survives unrelated edits.
func ShouldRecalculate(oldStage, newStage domain.OpportunityStage, oldLC, newLC, oldBid, newBid *time.Time) bool {
	if oldStage != newStage {
		return true
	}
	if !datePtrEqual(oldLC, newLC) {
		return true
	}
	return !datePtrEqual(oldBid, newBid)
}

// NextContactFollowup computes the follow-up date after logging a touch on
// a contact. A requested meeting gets chased two business days out and the
// caller must leave last_contacted alone; any other touch restarts the
// 30-day clock from the touch date, rolled to a business day.
func NextContactFollowup(trigger domain.ActivityType, touched time.Time, today time.Time) time.Time {
	if trigger == domain.ActivityTypeMeetingRequested {
		return AddBusinessDays(today, bidOverdueBusinessDays)
	}
	return NextBusinessDay(touched.AddDate(0, 0, contactFollowupDays))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func datePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return dateOnly(*a).Equal(dateOnly(*b))
}
