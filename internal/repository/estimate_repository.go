package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bidline/crm-api/internal/domain"
)

type EstimateRepository struct {
	db *gorm.DB
}

func NewEstimateRepository(db *gorm.DB) *EstimateRepository {
	return &EstimateRepository{db: db}
}

func (r *EstimateRepository) Create(ctx context.Context, estimate *domain.Estimate) error {
	return r.db.WithContext(ctx).Create(estimate).Error
}

func (r *EstimateRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Estimate, error) {
	var estimate domain.Estimate
	err := r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order, created_at")
		}).
		First(&estimate, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &estimate, nil
}

// ListByOpportunity returns all estimate versions for an opportunity,
// newest version first
func (r *EstimateRepository) ListByOpportunity(ctx context.Context, opportunityID uuid.UUID) ([]domain.Estimate, error) {
	var estimates []domain.Estimate
	err := r.db.WithContext(ctx).
		Where("opportunity_id = ?", opportunityID).
		Order("version DESC").
		Find(&estimates).Error
	return estimates, err
}

func (r *EstimateRepository) Update(ctx context.Context, estimate *domain.Estimate) error {
	return r.db.WithContext(ctx).Save(estimate).Error
}

func (r *EstimateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Estimate{}, "id = ?", id).Error
}

// NextVersion returns the next unused version number for an opportunity
func (r *EstimateRepository) NextVersion(ctx context.Context, opportunityID uuid.UUID) (int, error) {
	var max int
	err := r.db.WithContext(ctx).Model(&domain.Estimate{}).
		Where("opportunity_id = ?", opportunityID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// Line item methods

func (r *EstimateRepository) CreateLineItem(ctx context.Context, item *domain.EstimateLineItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *EstimateRepository) GetLineItemByID(ctx context.Context, id uuid.UUID) (*domain.EstimateLineItem, error) {
	var item domain.EstimateLineItem
	err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *EstimateRepository) UpdateLineItem(ctx context.Context, item *domain.EstimateLineItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *EstimateRepository) DeleteLineItem(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.EstimateLineItem{}, "id = ?", id).Error
}

// ListLineItems returns an estimate's line items in display order
func (r *EstimateRepository) ListLineItems(ctx context.Context, estimateID uuid.UUID) ([]domain.EstimateLineItem, error) {
	var items []domain.EstimateLineItem
	err := r.db.WithContext(ctx).
		Where("estimate_id = ?", estimateID).
		Order("sort_order, created_at").
		Find(&items).Error
	return items, err
}
