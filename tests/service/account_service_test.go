package service_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bidline/crm-api/internal/domain"
	"github.com/bidline/crm-api/internal/repository"
	"github.com/bidline/crm-api/internal/service"
	"github.com/bidline/crm-api/tests/testutil"
)

func newAccountService(db *gorm.DB) *service.AccountService {
	logger := zap.NewNop()
	accountRepo := repository.NewAccountRepository(db)
	contactRepo := repository.NewContactRepository(db)
	opportunityRepo := repository.NewOpportunityRepository(db)
	validation := service.NewValidationService(accountRepo, contactRepo, opportunityRepo, logger)
	return service.NewAccountService(accountRepo, opportunityRepo, validation, logger)
}

func money(s string) decimal.NullDecimal {
	d, _ := decimal.NewFromString(s)
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func TestAccountGetByID_RollsUpPipeline(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newAccountService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")

	open := testutil.CreateTestOpportunity(t, db, account.ID, "Riverside Campus", domain.StageBidSent)
	require.NoError(t, db.Model(open).Update("lv_value", money("250000")).Error)
	second := testutil.CreateTestOpportunity(t, db, account.ID, "Airport Spur", domain.StageProspecting)
	require.NoError(t, db.Model(second).Update("hdd_value", money("100000")).Error)

	// closed opportunities stay out of the rollup
	won := testutil.CreateTestOpportunity(t, db, account.ID, "Depot Remodel", domain.StageWon)
	require.NoError(t, db.Model(won).Update("lv_value", money("999999")).Error)

	dto, err := svc.GetByID(context.Background(), account.ID)
	require.NoError(t, err)

	assert.Equal(t, 350000.0, dto.TotalPipelineValue)
	assert.Equal(t, 2, dto.OpenOpportunitiesCount)
}

func TestAccountGetByID_LastContactedFromContacts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newAccountService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")

	older := testutil.CreateTestContact(t, db, account.ID, "Pat", "Kowalski", "pat@summit.example")
	oldTouch := testutil.Date(2026, 1, 5)
	require.NoError(t, db.Model(older).Update("last_contacted", oldTouch).Error)

	newer := testutil.CreateTestContact(t, db, account.ID, "Sam", "Ortega", "sam@summit.example")
	newTouch := testutil.Date(2026, 3, 12)
	require.NoError(t, db.Model(newer).Update("last_contacted", newTouch).Error)

	dto, err := svc.GetByID(context.Background(), account.ID)
	require.NoError(t, err)

	require.NotNil(t, dto.LastContacted)
	assert.Equal(t, "2026-03-12", *dto.LastContacted)
	assert.Len(t, dto.Contacts, 2)
}

func TestCreateAccount_DuplicateNameWarnsThenConfirms(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newAccountService(db)
	testutil.CreateTestAccount(t, db, "Summit Builders")

	req := &domain.CreateAccountRequest{
		Name:        "Summit Builders",
		AccountType: domain.AccountTypeGeneralContractor,
		Industry:    "Construction",
		City:        "Boulder",
		State:       "CO",
	}
	_, err := svc.Create(context.Background(), req)
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.ConfirmRequired())

	req.ConfirmWarnings = true
	dto, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Summit Builders", dto.Name)
}

func TestListHot_OnlyFlaggedAccounts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newAccountService(db)

	hot := testutil.CreateTestAccount(t, db, "Summit Builders")
	require.NoError(t, db.Model(hot).Update("is_hot", true).Error)
	testutil.CreateTestAccount(t, db, "Sleepy Paving")

	accounts, err := svc.ListHot(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "Summit Builders", accounts[0].Name)
	assert.True(t, accounts[0].IsHot)
}
