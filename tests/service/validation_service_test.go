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

func newValidationService(db *gorm.DB) *service.ValidationService {
	logger := zap.NewNop()
	return service.NewValidationService(
		repository.NewAccountRepository(db),
		repository.NewContactRepository(db),
		repository.NewOpportunityRepository(db),
		logger,
	)
}

func TestParseMoney(t *testing.T) {
	str := func(s string) *string { return &s }

	tests := []struct {
		name    string
		input   *string
		want    string
		valid   bool
		wantErr bool
	}{
		{name: "nil means no value", input: nil},
		{name: "empty means no value", input: str("")},
		{name: "whitespace only means no value", input: str("   ")},
		{name: "plain number", input: str("1500"), want: "1500", valid: true},
		{name: "dollar sign and commas", input: str("$1,234.56"), want: "1234.56", valid: true},
		{name: "surrounding whitespace", input: str(" 42.5 "), want: "42.5", valid: true},
		{name: "zero", input: str("0"), want: "0", valid: true},
		{name: "negative rejected", input: str("-500"), wantErr: true},
		{name: "garbage rejected", input: str("about a million"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := service.ParseMoney(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.valid, got.Valid)
			if tt.valid {
				want, err := decimal.NewFromString(tt.want)
				require.NoError(t, err)
				assert.True(t, got.Decimal.Equal(want), "got %s, want %s", got.Decimal, want)
			}
		})
	}
}

func TestValidateAccount_RequiredFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newValidationService(db)

	result, err := svc.ValidateAccount(context.Background(), &service.AccountInput{}, nil)
	require.NoError(t, err)

	assert.False(t, result.IsValid())
	assert.Contains(t, result.Errors, "Account name is required")
	assert.Contains(t, result.Errors, "Industry is required")
	assert.Contains(t, result.Errors, "City is required")
	assert.Contains(t, result.Errors, "State is required")
}

func TestValidateAccount_DuplicateNameWarns(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newValidationService(db)
	testutil.CreateTestAccount(t, db, "Summit Builders")

	result, err := svc.ValidateAccount(context.Background(), &service.AccountInput{
		Name:     "summit builders",
		Industry: "Construction",
		City:     "Boulder",
		State:    "CO",
	}, nil)
	require.NoError(t, err)

	assert.True(t, result.IsValid())
	assert.Contains(t, result.Warnings, "An account named 'Summit Builders' already exists")
}

func TestValidateAccount_SameCityStateWarns(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newValidationService(db)
	testutil.CreateTestAccount(t, db, "Summit Builders") // Denver, CO

	result, err := svc.ValidateAccount(context.Background(), &service.AccountInput{
		Name:     "Front Range Mechanical",
		Industry: "Construction",
		City:     "Denver",
		State:    "CO",
	}, nil)
	require.NoError(t, err)

	assert.True(t, result.IsValid())
	assert.Contains(t, result.Warnings, "Other accounts in Denver, CO: Summit Builders")
}

func TestValidateAccount_ExcludesSelfOnUpdate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newValidationService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")

	result, err := svc.ValidateAccount(context.Background(), &service.AccountInput{
		Name:     "Summit Builders",
		Industry: "Construction",
		City:     "Denver",
		State:    "CO",
	}, &account.ID)
	require.NoError(t, err)

	assert.True(t, result.IsValid())
	assert.Empty(t, result.Warnings)
}

func TestValidateOpportunity_StageChecks(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newValidationService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")

	result, err := svc.ValidateOpportunity(context.Background(), &service.OpportunityInput{
		Name:       "Riverside Campus",
		AccountID:  account.ID,
		Stage:      "Daydreaming",
		Owner:      "Dana Ruiz",
		BidDateTBD: true,
	}, nil)
	require.NoError(t, err)

	assert.False(t, result.IsValid())
	assert.Contains(t, result.Errors, "Unknown stage 'Daydreaming'")
}

func TestValidateOpportunity_RecentDuplicateWarns(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newValidationService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")
	testutil.CreateTestOpportunity(t, db, account.ID, "Riverside Campus", domain.StageProspecting)

	result, err := svc.ValidateOpportunity(context.Background(), &service.OpportunityInput{
		Name:       "Riverside Campus",
		AccountID:  account.ID,
		Stage:      domain.StageProspecting,
		Owner:      "Dana Ruiz",
		BidDateTBD: true,
	}, nil)
	require.NoError(t, err)

	assert.True(t, result.IsValid())
	assert.Contains(t, result.Warnings, "An opportunity named 'Riverside Campus' was created for this account in the last 7 days")
}
