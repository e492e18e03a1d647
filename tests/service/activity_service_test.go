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
	"github.com/bidline/crm-api/internal/followup"
	"github.com/bidline/crm-api/internal/repository"
	"github.com/bidline/crm-api/internal/service"
	"github.com/bidline/crm-api/tests/testutil"
)

func newActivityService(db *gorm.DB) *service.ActivityService {
	return service.NewActivityService(
		repository.NewActivityRepository(db),
		repository.NewOpportunityRepository(db),
		repository.NewContactRepository(db),
		zap.NewNop(),
		db,
	)
}

func TestCreateActivity_RequiresParent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newActivityService(db)

	_, err := svc.Create(context.Background(), &domain.CreateActivityRequest{
		ActivityType: domain.ActivityTypeNote,
		Subject:      "Orphaned note",
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestCreateActivity_BumpsTouchWhenAsked(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newActivityService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")
	opp := testutil.CreateTestOpportunity(t, db, account.ID, "Riverside Campus", domain.StageProspecting)

	user := testutil.CreateTestUser(t, db, "dana@bidline.io", "Dana Ruiz", domain.RoleSales)
	ctx := testutil.UserContext(user.ID, user.Name)

	dto, err := svc.Create(ctx, &domain.CreateActivityRequest{
		OpportunityID:       &opp.ID,
		ActivityType:        domain.ActivityTypeMeeting,
		Subject:             "Kickoff walkthrough",
		UpdateLastContacted: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Dana Ruiz", dto.CreatedBy)

	var updated domain.Opportunity
	require.NoError(t, db.First(&updated, "id = ?", opp.ID).Error)
	require.NotNil(t, updated.LastContacted)
	assert.Equal(t, todayUTC(), updated.LastContacted.UTC())
	require.NotNil(t, updated.NextFollowup)
	assert.Equal(t, todayUTC().AddDate(0, 0, 14), updated.NextFollowup.UTC())
}

func TestCreateActivity_BackdatedTouchMovesDateBack(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newActivityService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")
	opp := testutil.CreateTestOpportunity(t, db, account.ID, "Riverside Campus", domain.StageQualification)
	recent := todayUTC()
	require.NoError(t, db.Model(opp).Update("last_contacted", recent).Error)

	lastWeek := time.Now().UTC().AddDate(0, 0, -7)
	_, err := svc.Create(context.Background(), &domain.CreateActivityRequest{
		OpportunityID:       &opp.ID,
		ActivityType:        domain.ActivityTypeCall,
		Subject:             "Call I forgot to log",
		OccurredAt:          &lastWeek,
		UpdateLastContacted: true,
	})
	require.NoError(t, err)

	wantDay := time.Date(lastWeek.Year(), lastWeek.Month(), lastWeek.Day(), 0, 0, 0, 0, time.UTC)
	var updated domain.Opportunity
	require.NoError(t, db.First(&updated, "id = ?", opp.ID).Error)
	require.NotNil(t, updated.LastContacted)
	assert.Equal(t, wantDay, updated.LastContacted.UTC())
	require.NotNil(t, updated.NextFollowup)
	assert.Equal(t, wantDay.AddDate(0, 0, 7), updated.NextFollowup.UTC())
}

func TestCreateActivity_FutureDateNeverBumps(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newActivityService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")
	opp := testutil.CreateTestOpportunity(t, db, account.ID, "Riverside Campus", domain.StageProspecting)

	nextWeek := time.Now().UTC().AddDate(0, 0, 7)
	_, err := svc.Create(context.Background(), &domain.CreateActivityRequest{
		OpportunityID:       &opp.ID,
		ActivityType:        domain.ActivityTypeMeeting,
		Subject:             "Scheduled site visit",
		OccurredAt:          &nextWeek,
		UpdateLastContacted: true,
	})
	require.NoError(t, err)

	var updated domain.Opportunity
	require.NoError(t, db.First(&updated, "id = ?", opp.ID).Error)
	assert.Nil(t, updated.LastContacted)
}

func TestCreateActivity_NoBumpWithoutFlag(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newActivityService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")
	opp := testutil.CreateTestOpportunity(t, db, account.ID, "Riverside Campus", domain.StageProspecting)

	_, err := svc.Create(context.Background(), &domain.CreateActivityRequest{
		OpportunityID: &opp.ID,
		ActivityType:  domain.ActivityTypeNote,
		Subject:       "Plan holder list updated",
	})
	require.NoError(t, err)

	var updated domain.Opportunity
	require.NoError(t, db.First(&updated, "id = ?", opp.ID).Error)
	assert.Nil(t, updated.LastContacted)
	assert.Nil(t, updated.NextFollowup)
}

func TestListByOpportunity_NewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newActivityService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")
	opp := testutil.CreateTestOpportunity(t, db, account.ID, "Riverside Campus", domain.StageProspecting)

	older := time.Now().UTC().Add(-2 * time.Hour)
	newer := time.Now().UTC().Add(-time.Hour)
	_, err := svc.Create(context.Background(), &domain.CreateActivityRequest{
		OpportunityID: &opp.ID,
		ActivityType:  domain.ActivityTypeNote,
		Subject:       "First note",
		OccurredAt:    &older,
	})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), &domain.CreateActivityRequest{
		OpportunityID: &opp.ID,
		ActivityType:  domain.ActivityTypeNote,
		Subject:       "Second note",
		OccurredAt:    &newer,
	})
	require.NoError(t, err)

	activities, err := svc.ListByOpportunity(context.Background(), opp.ID, 10)
	require.NoError(t, err)
	require.Len(t, activities, 2)
	assert.Equal(t, "Second note", activities[0].Subject)
	assert.Equal(t, "First note", activities[1].Subject)
}

func TestDeleteActivity_Gone(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newActivityService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")
	contact := testutil.CreateTestContact(t, db, account.ID, "Pat", "Kowalski", "pat@summit.example")

	dto, err := svc.Create(context.Background(), &domain.CreateActivityRequest{
		ContactID:    &contact.ID,
		ActivityType: domain.ActivityTypeNote,
		Subject:      "Wrong contact, logged by mistake",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), dto.ID))
	_, err = svc.GetByID(context.Background(), dto.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

// sanity-check the cadence constants the touch logic leans on
func TestStageCadence(t *testing.T) {
	touched := testutil.Date(2026, time.June, 1) // a Monday

	next := followup.NextOpportunityFollowup(domain.StageQualification, &touched, nil, touched)
	require.NotNil(t, next)
	assert.Equal(t, touched.AddDate(0, 0, 7), *next)

	next = followup.NextOpportunityFollowup(domain.StageBidSent, &touched, nil, touched)
	require.NotNil(t, next)
	assert.Equal(t, touched.AddDate(0, 0, 14), *next)

	assert.Nil(t, followup.NextOpportunityFollowup(domain.StageWon, &touched, nil, touched))
	assert.Nil(t, followup.NextOpportunityFollowup(domain.StageLost, &touched, nil, touched))
}
