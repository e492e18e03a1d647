package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bidline/crm-api/internal/domain"
	"github.com/bidline/crm-api/internal/repository"
	"github.com/bidline/crm-api/internal/service"
	"github.com/bidline/crm-api/tests/testutil"
)

func newEstimateService(db *gorm.DB) *service.EstimateService {
	logger := zap.NewNop()
	estimateRepo := repository.NewEstimateRepository(db)
	opportunityRepo := repository.NewOpportunityRepository(db)
	return service.NewEstimateService(estimateRepo, opportunityRepo, logger, db)
}

func floatp(f float64) *float64 { return &f }

func TestCreateEstimate_Defaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newEstimateService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")
	opp := testutil.CreateTestOpportunity(t, db, account.ID, "Riverside Campus", domain.StageProposal)

	ctx := testutil.UserContext(account.ID, "Dana Ruiz")
	dto, err := svc.Create(ctx, &domain.CreateEstimateRequest{OpportunityID: opp.ID})
	require.NoError(t, err)

	assert.Equal(t, 1, dto.Version)
	assert.Equal(t, "Estimate v1", dto.Name)
	assert.Equal(t, domain.EstimateStatusDraft, dto.Status)
	assert.Equal(t, 20.0, dto.MarginPercent)
	assert.Equal(t, "Dana Ruiz", dto.CreatedBy)
	assert.Zero(t, dto.Total)

	second, err := svc.Create(ctx, &domain.CreateEstimateRequest{OpportunityID: opp.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)
	assert.Equal(t, "Estimate v2", second.Name)
}

func TestAddLineItem_RecomputesTotals(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newEstimateService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")
	opp := testutil.CreateTestOpportunity(t, db, account.ID, "Riverside Campus", domain.StageProposal)
	ctx := testutil.UserContext(account.ID, "Dana Ruiz")

	est, err := svc.Create(ctx, &domain.CreateEstimateRequest{OpportunityID: opp.ID})
	require.NoError(t, err)

	_, err = svc.AddLineItem(ctx, est.ID, &domain.CreateLineItemRequest{
		LineType:    domain.LineItemTypeLabor,
		Description: "Crew, 10 days",
		Quantity:    floatp(10),
		Unit:        "day",
		UnitCost:    floatp(100),
	})
	require.NoError(t, err)

	dto, err := svc.AddLineItem(ctx, est.ID, &domain.CreateLineItemRequest{
		LineType:    domain.LineItemTypeMaterial,
		Description: "Pipe",
		Quantity:    floatp(1),
		UnitCost:    floatp(500),
	})
	require.NoError(t, err)

	// 1500 subtotal at a 20% margin on price: 1500 / 0.8
	assert.Equal(t, 1000.0, dto.LaborTotal)
	assert.Equal(t, 500.0, dto.MaterialTotal)
	assert.Equal(t, 1500.0, dto.Subtotal)
	assert.Equal(t, 1875.0, dto.Total)
	assert.Equal(t, 375.0, dto.MarginAmount)
	assert.Len(t, dto.LineItems, 2)
}

func TestAddLineItem_MissingQuantityCountsAsZero(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newEstimateService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")
	opp := testutil.CreateTestOpportunity(t, db, account.ID, "Riverside Campus", domain.StageProposal)
	ctx := testutil.UserContext(account.ID, "Dana Ruiz")

	est, err := svc.Create(ctx, &domain.CreateEstimateRequest{OpportunityID: opp.ID})
	require.NoError(t, err)

	dto, err := svc.AddLineItem(ctx, est.ID, &domain.CreateLineItemRequest{
		LineType:    domain.LineItemTypeLabor,
		Description: "TBD allowance",
		UnitCost:    floatp(250),
	})
	require.NoError(t, err)

	require.Len(t, dto.LineItems, 1)
	assert.Zero(t, dto.LineItems[0].Total)
	assert.Zero(t, dto.Subtotal)
	assert.Zero(t, dto.Total)
}

func TestUpdateEstimate_MarginChangeRecomputes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newEstimateService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")
	opp := testutil.CreateTestOpportunity(t, db, account.ID, "Riverside Campus", domain.StageProposal)
	ctx := testutil.UserContext(account.ID, "Dana Ruiz")

	est, err := svc.Create(ctx, &domain.CreateEstimateRequest{OpportunityID: opp.ID})
	require.NoError(t, err)
	_, err = svc.AddLineItem(ctx, est.ID, &domain.CreateLineItemRequest{
		LineType: domain.LineItemTypeLabor,
		Quantity: floatp(10),
		UnitCost: floatp(100),
	})
	require.NoError(t, err)

	dto, err := svc.Update(ctx, est.ID, &domain.UpdateEstimateRequest{
		Name:          "Estimate v1",
		MarginPercent: floatp(50),
	})
	require.NoError(t, err)

	assert.Equal(t, 1000.0, dto.Subtotal)
	assert.Equal(t, 2000.0, dto.Total)
	assert.Equal(t, 1000.0, dto.MarginAmount)
}

func TestUpdateLineItem_Recomputes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newEstimateService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")
	opp := testutil.CreateTestOpportunity(t, db, account.ID, "Riverside Campus", domain.StageProposal)
	ctx := testutil.UserContext(account.ID, "Dana Ruiz")

	est, err := svc.Create(ctx, &domain.CreateEstimateRequest{OpportunityID: opp.ID})
	require.NoError(t, err)
	withItem, err := svc.AddLineItem(ctx, est.ID, &domain.CreateLineItemRequest{
		LineType: domain.LineItemTypeMaterial,
		Quantity: floatp(4),
		UnitCost: floatp(25),
	})
	require.NoError(t, err)
	require.Len(t, withItem.LineItems, 1)

	dto, err := svc.UpdateLineItem(ctx, withItem.LineItems[0].ID, &domain.UpdateLineItemRequest{
		Quantity: floatp(8),
		UnitCost: floatp(25),
	})
	require.NoError(t, err)
	assert.Equal(t, 200.0, dto.MaterialTotal)
	assert.Equal(t, 200.0, dto.Subtotal)
}

func TestDeleteLineItem_Recomputes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newEstimateService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")
	opp := testutil.CreateTestOpportunity(t, db, account.ID, "Riverside Campus", domain.StageProposal)
	ctx := testutil.UserContext(account.ID, "Dana Ruiz")

	est, err := svc.Create(ctx, &domain.CreateEstimateRequest{OpportunityID: opp.ID})
	require.NoError(t, err)
	withItem, err := svc.AddLineItem(ctx, est.ID, &domain.CreateLineItemRequest{
		LineType: domain.LineItemTypeLabor,
		Quantity: floatp(10),
		UnitCost: floatp(100),
	})
	require.NoError(t, err)

	dto, err := svc.DeleteLineItem(ctx, withItem.LineItems[0].ID)
	require.NoError(t, err)
	assert.Zero(t, dto.Subtotal)
	assert.Zero(t, dto.Total)
	assert.Empty(t, dto.LineItems)

	// the row itself must be gone, not just the totals
	var count int64
	require.NoError(t, db.Model(&domain.EstimateLineItem{}).Where("estimate_id = ?", est.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCopyVersion_ClonesItemsAsNewDraft(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newEstimateService(db)
	account := testutil.CreateTestAccount(t, db, "Summit Builders")
	opp := testutil.CreateTestOpportunity(t, db, account.ID, "Riverside Campus", domain.StageProposal)
	ctx := testutil.UserContext(account.ID, "Dana Ruiz")

	est, err := svc.Create(ctx, &domain.CreateEstimateRequest{
		OpportunityID: opp.ID,
		MarginPercent: floatp(25),
	})
	require.NoError(t, err)
	_, err = svc.AddLineItem(ctx, est.ID, &domain.CreateLineItemRequest{
		LineType: domain.LineItemTypeLabor,
		Quantity: floatp(10),
		UnitCost: floatp(100),
	})
	require.NoError(t, err)
	_, err = svc.Update(ctx, est.ID, &domain.UpdateEstimateRequest{
		Name:   "Estimate v1",
		Status: statusPtr(domain.EstimateStatusSent),
	})
	require.NoError(t, err)

	clone, err := svc.CopyVersion(ctx, est.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, clone.Version)
	assert.Equal(t, domain.EstimateStatusDraft, clone.Status)
	assert.NotEqual(t, est.ID, clone.ID)
	assert.Equal(t, 25.0, clone.MarginPercent)
	require.Len(t, clone.LineItems, 1)
	assert.NotEqual(t, est.LineItems, clone.LineItems)
	assert.Equal(t, 1000.0, clone.Subtotal)

	// the source version is untouched
	original, err := svc.GetByID(ctx, est.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EstimateStatusSent, original.Status)
	assert.Len(t, original.LineItems, 1)
}

func statusPtr(s domain.EstimateStatus) *domain.EstimateStatus { return &s }
