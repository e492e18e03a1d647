package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bidline/crm-api/internal/domain"
	"github.com/bidline/crm-api/internal/followup"
	"github.com/bidline/crm-api/internal/repository"
	"github.com/bidline/crm-api/internal/service"
	"github.com/bidline/crm-api/tests/testutil"
)

func newOpportunityService(db *gorm.DB) *service.OpportunityService {
	logger := zap.NewNop()
	accountRepo := repository.NewAccountRepository(db)
	contactRepo := repository.NewContactRepository(db)
	opportunityRepo := repository.NewOpportunityRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	validation := service.NewValidationService(accountRepo, contactRepo, opportunityRepo, logger)
	return service.NewOpportunityService(opportunityRepo, accountRepo, activityRepo, validation, logger, db)
}

func todayUTC() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func TestCreateOpportunity_DefaultsAndSchedule(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newOpportunityService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")

	lv := "$1,250,000.50"
	dto, err := svc.Create(context.Background(), &domain.CreateOpportunityRequest{
		Name:       "Riverside Campus",
		AccountID:  account.ID,
		Owner:      "Dana Ruiz",
		LVValue:    &lv,
		BidDateTBD: true,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StageProspecting, dto.Stage)
	assert.Equal(t, 10, dto.Probability)
	require.NotNil(t, dto.LVValue)
	assert.InDelta(t, 1250000.50, *dto.LVValue, 0.001)

	// never contacted: the prospecting cadence runs from today
	var opp domain.Opportunity
	require.NoError(t, db.First(&opp, "id = ?", dto.ID).Error)
	require.NotNil(t, opp.NextFollowup)
	assert.Equal(t, todayUTC().AddDate(0, 0, 14), opp.NextFollowup.UTC())
}

func TestCreateOpportunity_BidDateRequiredUnlessTBD(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newOpportunityService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")

	_, err := svc.Create(context.Background(), &domain.CreateOpportunityRequest{
		Name:      "Riverside Campus",
		AccountID: account.ID,
		Owner:     "Dana Ruiz",
	})
	require.Error(t, err)

	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.False(t, verr.ConfirmRequired())
	assert.Contains(t, verr.Result.Errors, "Bid date is required unless marked TBD")
}

func TestCreateOpportunity_NegativeValueRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newOpportunityService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")

	bad := "-500"
	_, err := svc.Create(context.Background(), &domain.CreateOpportunityRequest{
		Name:       "Riverside Campus",
		AccountID:  account.ID,
		Owner:      "Dana Ruiz",
		BidDateTBD: true,
		LVValue:    &bad,
	})
	require.Error(t, err)

	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Result.Errors, "LV value must be a non-negative number")
}

func TestCreateOpportunity_DuplicateNameWarnsThenConfirms(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newOpportunityService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")
	testutil.CreateTestOpportunity(t, db, account.ID, "Riverside Campus", domain.StageProspecting)

	req := &domain.CreateOpportunityRequest{
		Name:       "Riverside Campus",
		AccountID:  account.ID,
		Owner:      "Dana Ruiz",
		BidDateTBD: true,
	}

	_, err := svc.Create(context.Background(), req)
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.ConfirmRequired())

	req.ConfirmWarnings = true
	dto, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Riverside Campus", dto.Name)
}

func TestUpdateStage_RecordsActivityAndReschedules(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newOpportunityService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")
	opp := testutil.CreateTestOpportunity(t, db, account.ID, "Riverside Campus", domain.StageProspecting)

	dto, err := svc.UpdateStage(context.Background(), opp.ID, &domain.UpdateStageRequest{
		Stage: domain.StageNegotiation,
		Notes: "verbal commitment on scope",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StageNegotiation, dto.Stage)
	assert.Equal(t, 90, dto.Probability)

	var updated domain.Opportunity
	require.NoError(t, db.First(&updated, "id = ?", opp.ID).Error)
	require.NotNil(t, updated.LastContacted)
	assert.Equal(t, todayUTC(), updated.LastContacted.UTC())
	require.NotNil(t, updated.NextFollowup)
	assert.Equal(t, todayUTC().AddDate(0, 0, 7), updated.NextFollowup.UTC())

	var activity domain.Activity
	require.NoError(t, db.First(&activity, "opportunity_id = ?", opp.ID).Error)
	assert.Equal(t, domain.ActivityTypeSystem, activity.ActivityType)
	assert.Equal(t, "Stage changed: Prospecting → Negotiation", activity.Subject)
	assert.Equal(t, "verbal commitment on scope", activity.Description)
}

func TestUpdateStage_SameStageIsNoop(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newOpportunityService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")
	opp := testutil.CreateTestOpportunity(t, db, account.ID, "Riverside Campus", domain.StageProposal)

	_, err := svc.UpdateStage(context.Background(), opp.ID, &domain.UpdateStageRequest{Stage: domain.StageProposal})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&domain.Activity{}).Where("opportunity_id = ?", opp.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpdateStage_ClosedStageClearsFollowup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newOpportunityService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")
	opp := testutil.CreateTestOpportunity(t, db, account.ID, "Riverside Campus", domain.StageNegotiation)
	next := todayUTC().AddDate(0, 0, 5)
	require.NoError(t, db.Model(opp).Update("next_followup", next).Error)

	_, err := svc.UpdateStage(context.Background(), opp.ID, &domain.UpdateStageRequest{Stage: domain.StageWon})
	require.NoError(t, err)

	var updated domain.Opportunity
	require.NoError(t, db.First(&updated, "id = ?", opp.ID).Error)
	assert.Nil(t, updated.NextFollowup)
	assert.Equal(t, 100, updated.Probability)
}

func TestUpdateStage_UnknownStageRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newOpportunityService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")
	opp := testutil.CreateTestOpportunity(t, db, account.ID, "Riverside Campus", domain.StageProspecting)

	_, err := svc.UpdateStage(context.Background(), opp.ID, &domain.UpdateStageRequest{Stage: "Imagined"})
	assert.ErrorIs(t, err, service.ErrInvalidStage)
}

func TestUpdate_ManualFollowupSurvivesUnrelatedEdit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newOpportunityService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")
	opp := testutil.CreateTestOpportunity(t, db, account.ID, "Riverside Campus", domain.StageProspecting)
	bidDate := todayUTC().AddDate(0, 0, 30)
	require.NoError(t, db.Model(opp).Update("bid_date", bidDate).Error)

	// pick a manual follow-up on a known weekday
	manual := followup.NextBusinessDay(todayUTC().AddDate(0, 0, 3))
	_, err := svc.Update(context.Background(), opp.ID, &domain.UpdateOpportunityRequest{
		Name:         "Riverside Campus",
		BidDate:      &bidDate,
		NextFollowup: &manual,
	})
	require.NoError(t, err)

	// editing notes without touching stage, last contact or bid date must
	// leave the hand-picked date alone
	_, err = svc.Update(context.Background(), opp.ID, &domain.UpdateOpportunityRequest{
		Name:    "Riverside Campus",
		BidDate: &bidDate,
		Notes:   "owner rep changed",
	})
	require.NoError(t, err)

	var updated domain.Opportunity
	require.NoError(t, db.First(&updated, "id = ?", opp.ID).Error)
	require.NotNil(t, updated.NextFollowup)
	assert.Equal(t, manual, updated.NextFollowup.UTC())
}

func TestUpdate_PastBidDateForcesChase(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newOpportunityService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")
	opp := testutil.CreateTestOpportunity(t, db, account.ID, "Riverside Campus", domain.StageBidSent)

	yesterday := todayUTC().AddDate(0, 0, -1)
	_, err := svc.Update(context.Background(), opp.ID, &domain.UpdateOpportunityRequest{
		Name:    "Riverside Campus",
		BidDate: &yesterday,
	})
	require.NoError(t, err)

	var updated domain.Opportunity
	require.NoError(t, db.First(&updated, "id = ?", opp.ID).Error)
	require.NotNil(t, updated.NextFollowup)
	assert.Equal(t, followup.AddBusinessDays(todayUTC(), 2), updated.NextFollowup.UTC())
}

func TestCreateOpportunity_ClosedStageGetsNoFollowup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newOpportunityService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")

	manual := followup.NextBusinessDay(todayUTC().AddDate(0, 0, 10))
	dto, err := svc.Create(context.Background(), &domain.CreateOpportunityRequest{
		Name:         "Backfilled Won Job",
		AccountID:    account.ID,
		Stage:        domain.StageWon,
		Owner:        "Dana Ruiz",
		BidDateTBD:   true,
		NextFollowup: &manual,
	})
	require.NoError(t, err)
	assert.Nil(t, dto.NextFollowup)
}

func TestUpdate_ClosedStageDropsManualFollowup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newOpportunityService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")
	opp := testutil.CreateTestOpportunity(t, db, account.ID, "Riverside Campus", domain.StageNegotiation)

	// closing the deal and picking a follow-up date in one edit: closed wins
	manual := followup.NextBusinessDay(todayUTC().AddDate(0, 0, 10))
	_, err := svc.Update(context.Background(), opp.ID, &domain.UpdateOpportunityRequest{
		Name:         "Riverside Campus",
		Stage:        domain.StageWon,
		BidDateTBD:   true,
		NextFollowup: &manual,
	})
	require.NoError(t, err)

	var updated domain.Opportunity
	require.NoError(t, db.First(&updated, "id = ?", opp.ID).Error)
	assert.Equal(t, domain.StageWon, updated.Stage)
	assert.Nil(t, updated.NextFollowup)
}

func TestLogContact_MeetingRequestedOnClosedLeavesNoFollowup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newOpportunityService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")
	opp := testutil.CreateTestOpportunity(t, db, account.ID, "Riverside Campus", domain.StageWon)

	_, err := svc.LogContact(context.Background(), opp.ID, &domain.LogContactRequest{
		ActivityType: domain.ActivityTypeMeetingRequested,
	})
	require.NoError(t, err)

	var updated domain.Opportunity
	require.NoError(t, db.First(&updated, "id = ?", opp.ID).Error)
	assert.Nil(t, updated.NextFollowup)

	// the touch is still recorded even though nothing gets scheduled
	var count int64
	require.NoError(t, db.Model(&domain.Activity{}).Where("opportunity_id = ?", opp.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestLogContact_MeetingRequestedOnlySchedulesChase(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newOpportunityService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")
	opp := testutil.CreateTestOpportunity(t, db, account.ID, "Riverside Campus", domain.StageProspecting)

	_, err := svc.LogContact(context.Background(), opp.ID, &domain.LogContactRequest{
		ActivityType: domain.ActivityTypeMeetingRequested,
	})
	require.NoError(t, err)

	var updated domain.Opportunity
	require.NoError(t, db.First(&updated, "id = ?", opp.ID).Error)
	assert.Nil(t, updated.LastContacted, "a requested meeting is not a touch")
	require.NotNil(t, updated.NextFollowup)
	assert.Equal(t, followup.AddBusinessDays(todayUTC(), 2), updated.NextFollowup.UTC())
}

func TestLogContact_CallBumpsTouchAndReschedules(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newOpportunityService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")
	opp := testutil.CreateTestOpportunity(t, db, account.ID, "Riverside Campus", domain.StageProspecting)

	dto, err := svc.LogContact(context.Background(), opp.ID, &domain.LogContactRequest{
		ActivityType: domain.ActivityTypeCall,
		Notes:        "spoke with the PM",
	})
	require.NoError(t, err)
	assert.NotNil(t, dto.LastContacted)

	var updated domain.Opportunity
	require.NoError(t, db.First(&updated, "id = ?", opp.ID).Error)
	require.NotNil(t, updated.LastContacted)
	assert.Equal(t, todayUTC(), updated.LastContacted.UTC())
	require.NotNil(t, updated.NextFollowup)
	assert.Equal(t, todayUTC().AddDate(0, 0, 14), updated.NextFollowup.UTC())

	var activity domain.Activity
	require.NoError(t, db.First(&activity, "opportunity_id = ?", opp.ID).Error)
	assert.Equal(t, domain.ActivityTypeCall, activity.ActivityType)
	assert.Equal(t, "Logged call", activity.Subject)
}

func TestLogContact_ManualDateWins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newOpportunityService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")
	opp := testutil.CreateTestOpportunity(t, db, account.ID, "Riverside Campus", domain.StageProspecting)

	manual := followup.NextBusinessDay(todayUTC().AddDate(0, 0, 45))
	_, err := svc.LogContact(context.Background(), opp.ID, &domain.LogContactRequest{
		ActivityType: domain.ActivityTypeEmail,
		NextFollowup: &manual,
	})
	require.NoError(t, err)

	var updated domain.Opportunity
	require.NoError(t, db.First(&updated, "id = ?", opp.ID).Error)
	require.NotNil(t, updated.NextFollowup)
	assert.Equal(t, manual, updated.NextFollowup.UTC())
}

func TestPipeline_GroupsOpenByStage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newOpportunityService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")
	testutil.CreateTestOpportunity(t, db, account.ID, "Job A", domain.StageProspecting)
	testutil.CreateTestOpportunity(t, db, account.ID, "Job B", domain.StageProspecting)
	testutil.CreateTestOpportunity(t, db, account.ID, "Job C", domain.StageBidSent)
	testutil.CreateTestOpportunity(t, db, account.ID, "Job D", domain.StageWon)

	pipeline, err := svc.Pipeline(context.Background())
	require.NoError(t, err)

	assert.Len(t, pipeline[domain.StageProspecting], 2)
	assert.Len(t, pipeline[domain.StageBidSent], 1)
	assert.NotContains(t, pipeline, domain.StageWon)
}

func TestDeleteOpportunity_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newOpportunityService(db)

	err := svc.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
}
