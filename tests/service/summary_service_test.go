package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bidline/crm-api/internal/domain"
	"github.com/bidline/crm-api/internal/repository"
	"github.com/bidline/crm-api/internal/service"
	"github.com/bidline/crm-api/tests/testutil"
)

func newSummaryService(db *gorm.DB) *service.SummaryService {
	logger := zap.NewNop()
	return service.NewSummaryService(
		repository.NewOpportunityRepository(db),
		repository.NewActivityRepository(db),
		repository.NewSuppressionRepository(db),
		repository.NewTaskRepository(db),
		repository.NewWeeklyNoteRepository(db),
		repository.NewUserRepository(db),
		logger,
		db,
	)
}

func TestPersonalSummary_ShowsOwnPipelineChanges(t *testing.T) {
	db := testutil.SetupTestDB(t)
	summaries := newSummaryService(db)
	opportunities := newOpportunityService(db)

	user := testutil.CreateTestUser(t, db, "dana@bidline.io", "Test Owner", domain.RoleSales)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")
	opp := testutil.CreateTestOpportunity(t, db, account.ID, "Riverside Campus", domain.StageProspecting)

	_, err := opportunities.UpdateStage(context.Background(), opp.ID, &domain.UpdateStageRequest{
		Stage: domain.StageQualification,
		Notes: "site walk scheduled",
	})
	require.NoError(t, err)

	since := time.Now().UTC().Add(-24 * time.Hour)
	summary, err := summaries.PersonalSummary(context.Background(), user.ID, since)
	require.NoError(t, err)

	require.Len(t, summary.PipelineChanges, 1)
	assert.Equal(t, opp.ID, summary.PipelineChanges[0].ID)
	assert.Equal(t, "site walk scheduled", summary.PipelineChanges[0].LastStageNote)
}

func TestPersonalSummary_ExcludesOtherOwners(t *testing.T) {
	db := testutil.SetupTestDB(t)
	summaries := newSummaryService(db)
	opportunities := newOpportunityService(db)

	user := testutil.CreateTestUser(t, db, "dana@bidline.io", "Dana Ruiz", domain.RoleSales)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")
	opp := testutil.CreateTestOpportunity(t, db, account.ID, "Riverside Campus", domain.StageProspecting)

	_, err := opportunities.UpdateStage(context.Background(), opp.ID, &domain.UpdateStageRequest{Stage: domain.StageProposal})
	require.NoError(t, err)

	since := time.Now().UTC().Add(-24 * time.Hour)
	summary, err := summaries.PersonalSummary(context.Background(), user.ID, since)
	require.NoError(t, err)

	assert.Empty(t, summary.PipelineChanges)
}

func TestSuppression_HidesUntilStageChanges(t *testing.T) {
	db := testutil.SetupTestDB(t)
	summaries := newSummaryService(db)
	opportunities := newOpportunityService(db)

	user := testutil.CreateTestUser(t, db, "dana@bidline.io", "Test Owner", domain.RoleSales)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")
	opp := testutil.CreateTestOpportunity(t, db, account.ID, "Riverside Campus", domain.StageProspecting)

	_, err := opportunities.UpdateStage(context.Background(), opp.ID, &domain.UpdateStageRequest{Stage: domain.StageQualification})
	require.NoError(t, err)

	require.NoError(t, summaries.Suppress(context.Background(), user.ID, opp.ID))

	since := time.Now().UTC().Add(-24 * time.Hour)
	summary, err := summaries.PersonalSummary(context.Background(), user.ID, since)
	require.NoError(t, err)
	assert.Empty(t, summary.PipelineChanges, "dismissed rows stay hidden")

	// another stage move reawakens the row and heals the suppression
	_, err = opportunities.UpdateStage(context.Background(), opp.ID, &domain.UpdateStageRequest{Stage: domain.StageProposal})
	require.NoError(t, err)

	summary, err = summaries.PersonalSummary(context.Background(), user.ID, since)
	require.NoError(t, err)
	require.Len(t, summary.PipelineChanges, 1)

	var count int64
	require.NoError(t, db.Model(&domain.UserSummarySuppression{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Zero(t, count, "healed suppressions are removed")
}

func TestSuppress_TwiceIsNoop(t *testing.T) {
	db := testutil.SetupTestDB(t)
	summaries := newSummaryService(db)

	user := testutil.CreateTestUser(t, db, "dana@bidline.io", "Test Owner", domain.RoleSales)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")
	opp := testutil.CreateTestOpportunity(t, db, account.ID, "Riverside Campus", domain.StageProspecting)

	require.NoError(t, summaries.Suppress(context.Background(), user.ID, opp.ID))
	require.NoError(t, summaries.Suppress(context.Background(), user.ID, opp.ID))

	var count int64
	require.NoError(t, db.Model(&domain.UserSummarySuppression{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSummary_BucketsFollowupsByUrgency(t *testing.T) {
	db := testutil.SetupTestDB(t)
	summaries := newSummaryService(db)

	user := testutil.CreateTestUser(t, db, "dana@bidline.io", "Test Owner", domain.RoleSales)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")

	overdue := testutil.CreateTestOpportunity(t, db, account.ID, "Overdue Job", domain.StageProspecting)
	past := todayUTC().AddDate(0, 0, -3)
	require.NoError(t, db.Model(overdue).Update("next_followup", past).Error)

	due := testutil.CreateTestOpportunity(t, db, account.ID, "Due Job", domain.StageProspecting)
	require.NoError(t, db.Model(due).Update("next_followup", todayUTC()).Error)

	upcoming := testutil.CreateTestOpportunity(t, db, account.ID, "Upcoming Job", domain.StageProspecting)
	future := todayUTC().AddDate(0, 0, 5)
	require.NoError(t, db.Model(upcoming).Update("next_followup", future).Error)

	// no follow-up date, belongs in no bucket
	testutil.CreateTestOpportunity(t, db, account.ID, "Quiet Job", domain.StageProspecting)

	since := time.Now().UTC().Add(-24 * time.Hour)
	summary, err := summaries.PersonalSummary(context.Background(), user.ID, since)
	require.NoError(t, err)

	require.Len(t, summary.OverdueFollowups, 1)
	assert.Equal(t, "Overdue Job", summary.OverdueFollowups[0].Name)
	require.NotNil(t, summary.OverdueFollowups[0].DaysUntilFollowup)
	assert.Equal(t, -3, *summary.OverdueFollowups[0].DaysUntilFollowup)

	require.Len(t, summary.DueTodayFollowups, 1)
	assert.Equal(t, "Due Job", summary.DueTodayFollowups[0].Name)

	require.Len(t, summary.UpcomingFollowups, 1)
	assert.Equal(t, "Upcoming Job", summary.UpcomingFollowups[0].Name)
}

func TestWeeklyNotes_UpsertAndRead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	summaries := newSummaryService(db)
	user := testutil.CreateTestUser(t, db, "dana@bidline.io", "Test Owner", domain.RoleSales)

	// a Wednesday; notes key on the Monday of its week
	wednesday := testutil.Date(2026, time.August, 26)
	monday := testutil.Date(2026, time.August, 24)

	err := summaries.SaveWeeklyNotes(context.Background(), user.ID, &domain.SaveWeeklyNotesRequest{
		WeekStart: wednesday,
		Notes:     "chase the Riverside bid",
	})
	require.NoError(t, err)

	notes, err := summaries.GetWeeklyNotes(context.Background(), user.ID, monday)
	require.NoError(t, err)
	assert.Equal(t, "chase the Riverside bid", notes)

	// saving again for the same week replaces, not duplicates
	err = summaries.SaveWeeklyNotes(context.Background(), user.ID, &domain.SaveWeeklyNotesRequest{
		WeekStart: monday,
		Notes:     "bid chased, follow up on pricing",
	})
	require.NoError(t, err)

	notes, err = summaries.GetWeeklyNotes(context.Background(), user.ID, wednesday)
	require.NoError(t, err)
	assert.Equal(t, "bid chased, follow up on pricing", notes)

	var count int64
	require.NoError(t, db.Model(&domain.WeeklySummaryNote{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestWeekStart_AlwaysMonday(t *testing.T) {
	tests := []struct {
		in   time.Time
		want time.Time
	}{
		{testutil.Date(2026, time.August, 24), testutil.Date(2026, time.August, 24)}, // Monday
		{testutil.Date(2026, time.August, 26), testutil.Date(2026, time.August, 24)}, // Wednesday
		{testutil.Date(2026, time.August, 30), testutil.Date(2026, time.August, 24)}, // Sunday
		{testutil.Date(2026, time.August, 31), testutil.Date(2026, time.August, 31)}, // next Monday
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, service.WeekStart(tt.in))
	}
}
