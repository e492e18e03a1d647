package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bidline/crm-api/internal/auth"
	"github.com/bidline/crm-api/internal/domain"
	"github.com/bidline/crm-api/internal/estimating"
	"github.com/bidline/crm-api/internal/mapper"
	"github.com/bidline/crm-api/internal/repository"
)

type EstimateService struct {
	estimateRepo    *repository.EstimateRepository
	opportunityRepo *repository.OpportunityRepository
	logger          *zap.Logger
	db              *gorm.DB
}

func NewEstimateService(
	estimateRepo *repository.EstimateRepository,
	opportunityRepo *repository.OpportunityRepository,
	logger *zap.Logger,
	db *gorm.DB,
) *EstimateService {
	return &EstimateService{
		estimateRepo:    estimateRepo,
		opportunityRepo: opportunityRepo,
		logger:          logger,
		db:              db,
	}
}

// recomputeTotals reloads the estimate's line items inside the transaction
// and writes the rolled-up totals back onto the estimate row. Every line
// item change and margin change runs through here before the commit. Only
// the total columns are written; saving the whole record would upsert the
// preloaded LineItems association and resurrect a row a delete just removed.
func recomputeTotals(ctx context.Context, tx *gorm.DB, estimate *domain.Estimate) error {
	items, err := repository.NewEstimateRepository(tx).ListLineItems(ctx, estimate.ID)
	if err != nil {
		return fmt.Errorf("failed to load line items: %w", err)
	}

	var labor, material []decimal.Decimal
	for i := range items {
		if items[i].LineType == domain.LineItemTypeLabor {
			labor = append(labor, items[i].Total)
		} else {
			material = append(material, items[i].Total)
		}
	}

	totals := estimating.Compute(labor, material, estimate.MarginPercent)
	estimate.LaborTotal = totals.LaborTotal
	estimate.MaterialTotal = totals.MaterialTotal
	estimate.Subtotal = totals.Subtotal
	estimate.MarginAmount = totals.MarginAmount
	estimate.Total = totals.Total

	err = tx.Model(&domain.Estimate{}).
		Where("id = ?", estimate.ID).
		Updates(map[string]interface{}{
			"labor_total":    estimate.LaborTotal,
			"material_total": estimate.MaterialTotal,
			"subtotal":       estimate.Subtotal,
			"margin_amount":  estimate.MarginAmount,
			"total":          estimate.Total,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to save estimate totals: %w", err)
	}
	return nil
}

func (s *EstimateService) Create(ctx context.Context, req *domain.CreateEstimateRequest) (*domain.EstimateDTO, error) {
	if _, err := s.opportunityRepo.GetByID(ctx, req.OpportunityID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: opportunity", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get opportunity: %w", err)
	}

	version, err := s.estimateRepo.NextVersion(ctx, req.OpportunityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get next version: %w", err)
	}

	margin := estimating.DefaultMarginPercent
	if req.MarginPercent != nil {
		margin = decimal.NewFromFloat(*req.MarginPercent)
	}

	var createdBy string
	if userCtx, ok := auth.FromContext(ctx); ok {
		createdBy = userCtx.Name
	}

	name := req.Name
	if name == "" {
		name = fmt.Sprintf("Estimate v%d", version)
	}

	estimate := &domain.Estimate{
		OpportunityID: req.OpportunityID,
		Version:       version,
		Name:          name,
		Status:        domain.EstimateStatusDraft,
		MarginPercent: margin,
		Notes:         req.Notes,
		CreatedBy:     createdBy,
	}

	if err := s.estimateRepo.Create(ctx, estimate); err != nil {
		return nil, fmt.Errorf("failed to create estimate: %w", err)
	}

	s.logger.Info("estimate created",
		zap.String("estimate_id", estimate.ID.String()),
		zap.String("opportunity_id", req.OpportunityID.String()),
		zap.Int("version", version))

	dto := mapper.ToEstimateDTO(estimate)
	return &dto, nil
}

func (s *EstimateService) GetByID(ctx context.Context, id uuid.UUID) (*domain.EstimateDTO, error) {
	estimate, err := s.estimateRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get estimate: %w", err)
	}
	dto := mapper.ToEstimateDTO(estimate)
	return &dto, nil
}

// ListByOpportunity returns all estimate versions for an opportunity
func (s *EstimateService) ListByOpportunity(ctx context.Context, opportunityID uuid.UUID) ([]domain.EstimateDTO, error) {
	estimates, err := s.estimateRepo.ListByOpportunity(ctx, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list estimates: %w", err)
	}
	dtos := make([]domain.EstimateDTO, len(estimates))
	for i := range estimates {
		dtos[i] = mapper.ToEstimateDTO(&estimates[i])
	}
	return dtos, nil
}

// Update edits an estimate's name, status, notes or margin. A margin change
// recomputes the totals inside the same transaction.
func (s *EstimateService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateEstimateRequest) (*domain.EstimateDTO, error) {
	estimate, err := s.estimateRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get estimate: %w", err)
	}

	if req.Status != nil && !req.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown estimate status %q", ErrInvalidInput, *req.Status)
	}

	if req.Name != "" {
		estimate.Name = req.Name
	}
	if req.Status != nil {
		estimate.Status = *req.Status
	}
	estimate.Notes = req.Notes

	marginChanged := false
	if req.MarginPercent != nil {
		estimate.MarginPercent = decimal.NewFromFloat(*req.MarginPercent)
		marginChanged = true
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("LineItems").Save(estimate).Error; err != nil {
			return err
		}
		if marginChanged {
			return recomputeTotals(ctx, tx, estimate)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update estimate: %w", err)
	}

	estimate, err = s.estimateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload estimate: %w", err)
	}

	dto := mapper.ToEstimateDTO(estimate)
	return &dto, nil
}

func (s *EstimateService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.estimateRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get estimate: %w", err)
	}
	if err := s.estimateRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete estimate: %w", err)
	}
	return nil
}

// AddLineItem appends a line item and recomputes the estimate's totals in
// one transaction.
func (s *EstimateService) AddLineItem(ctx context.Context, estimateID uuid.UUID, req *domain.CreateLineItemRequest) (*domain.EstimateDTO, error) {
	estimate, err := s.estimateRepo.GetByID(ctx, estimateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get estimate: %w", err)
	}

	if !req.LineType.IsValid() {
		return nil, fmt.Errorf("%w: unknown line type %q", ErrInvalidInput, req.LineType)
	}

	item := &domain.EstimateLineItem{
		EstimateID:  estimateID,
		LineType:    req.LineType,
		Description: req.Description,
		Quantity:    nullDecimalFromFloat(req.Quantity),
		Unit:        req.Unit,
		UnitCost:    nullDecimalFromFloat(req.UnitCost),
		SortOrder:   req.SortOrder,
		Notes:       req.Notes,
	}
	item.Total = estimating.LineItemTotal(item.Quantity, item.UnitCost)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewEstimateRepository(tx).CreateLineItem(ctx, item); err != nil {
			return fmt.Errorf("failed to create line item: %w", err)
		}
		return recomputeTotals(ctx, tx, estimate)
	})
	if err != nil {
		return nil, err
	}

	estimate, err = s.estimateRepo.GetByID(ctx, estimateID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload estimate: %w", err)
	}

	dto := mapper.ToEstimateDTO(estimate)
	return &dto, nil
}

// UpdateLineItem edits a line item and recomputes the estimate's totals in
// one transaction.
func (s *EstimateService) UpdateLineItem(ctx context.Context, itemID uuid.UUID, req *domain.UpdateLineItemRequest) (*domain.EstimateDTO, error) {
	item, err := s.estimateRepo.GetLineItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get line item: %w", err)
	}

	estimate, err := s.estimateRepo.GetByID(ctx, item.EstimateID)
	if err != nil {
		return nil, fmt.Errorf("failed to get estimate: %w", err)
	}

	item.Description = req.Description
	item.Quantity = nullDecimalFromFloat(req.Quantity)
	item.Unit = req.Unit
	item.UnitCost = nullDecimalFromFloat(req.UnitCost)
	item.Notes = req.Notes
	if req.SortOrder != nil {
		item.SortOrder = *req.SortOrder
	}
	item.Total = estimating.LineItemTotal(item.Quantity, item.UnitCost)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewEstimateRepository(tx).UpdateLineItem(ctx, item); err != nil {
			return fmt.Errorf("failed to save line item: %w", err)
		}
		return recomputeTotals(ctx, tx, estimate)
	})
	if err != nil {
		return nil, err
	}

	estimate, err = s.estimateRepo.GetByID(ctx, item.EstimateID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload estimate: %w", err)
	}

	dto := mapper.ToEstimateDTO(estimate)
	return &dto, nil
}

// DeleteLineItem removes a line item and recomputes the estimate's totals
// in one transaction.
func (s *EstimateService) DeleteLineItem(ctx context.Context, itemID uuid.UUID) (*domain.EstimateDTO, error) {
	item, err := s.estimateRepo.GetLineItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get line item: %w", err)
	}

	estimate, err := s.estimateRepo.GetByID(ctx, item.EstimateID)
	if err != nil {
		return nil, fmt.Errorf("failed to get estimate: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewEstimateRepository(tx).DeleteLineItem(ctx, itemID); err != nil {
			return fmt.Errorf("failed to delete line item: %w", err)
		}
		return recomputeTotals(ctx, tx, estimate)
	})
	if err != nil {
		return nil, err
	}

	estimate, err = s.estimateRepo.GetByID(ctx, item.EstimateID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload estimate: %w", err)
	}

	dto := mapper.ToEstimateDTO(estimate)
	return &dto, nil
}

// CopyVersion clones an estimate into the next version for its opportunity.
// Line items are duplicated and the totals recomputed from the copies, so a
// drifted denormalized total on the source cannot propagate.
func (s *EstimateService) CopyVersion(ctx context.Context, id uuid.UUID) (*domain.EstimateDTO, error) {
	source, err := s.estimateRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get estimate: %w", err)
	}

	version, err := s.estimateRepo.NextVersion(ctx, source.OpportunityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get next version: %w", err)
	}

	var createdBy string
	if userCtx, ok := auth.FromContext(ctx); ok {
		createdBy = userCtx.Name
	}

	clone := &domain.Estimate{
		OpportunityID: source.OpportunityID,
		Version:       version,
		Name:          fmt.Sprintf("Estimate v%d", version),
		Status:        domain.EstimateStatusDraft,
		MarginPercent: source.MarginPercent,
		Notes:         source.Notes,
		CreatedBy:     createdBy,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("LineItems").Create(clone).Error; err != nil {
			return fmt.Errorf("failed to create estimate copy: %w", err)
		}
		for i := range source.LineItems {
			src := &source.LineItems[i]
			item := &domain.EstimateLineItem{
				EstimateID:  clone.ID,
				LineType:    src.LineType,
				Description: src.Description,
				Quantity:    src.Quantity,
				Unit:        src.Unit,
				UnitCost:    src.UnitCost,
				SortOrder:   src.SortOrder,
				Notes:       src.Notes,
			}
			item.Total = estimating.LineItemTotal(item.Quantity, item.UnitCost)
			if err := repository.NewEstimateRepository(tx).CreateLineItem(ctx, item); err != nil {
				return fmt.Errorf("failed to copy line item: %w", err)
			}
		}
		return recomputeTotals(ctx, tx, clone)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("estimate version copied",
		zap.String("source_id", id.String()),
		zap.String("copy_id", clone.ID.String()),
		zap.Int("version", version))

	clone, err = s.estimateRepo.GetByID(ctx, clone.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload estimate: %w", err)
	}

	dto := mapper.ToEstimateDTO(clone)
	return &dto, nil
}

func nullDecimalFromFloat(f *float64) decimal.NullDecimal {
	if f == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: decimal.NewFromFloat(*f), Valid: true}
}
