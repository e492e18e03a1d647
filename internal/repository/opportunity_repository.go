package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bidline/crm-api/internal/domain"
)

type OpportunityRepository struct {
	db *gorm.DB
}

func NewOpportunityRepository(db *gorm.DB) *OpportunityRepository {
	return &OpportunityRepository{db: db}
}

func (r *OpportunityRepository) Create(ctx context.Context, opp *domain.Opportunity) error {
	return r.db.WithContext(ctx).Create(opp).Error
}

func (r *OpportunityRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Opportunity, error) {
	var opp domain.Opportunity
	err := r.db.WithContext(ctx).
		Preload("Account").
		Preload("PrimaryContact").
		First(&opp, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &opp, nil
}

// OpportunityFilters holds filters for listing opportunities
type OpportunityFilters struct {
	Stage     *domain.OpportunityStage
	AccountID *uuid.UUID
	Owner     string
	Search    string
	OpenOnly  bool
}

func (r *OpportunityRepository) List(ctx context.Context, page, pageSize int, filters *OpportunityFilters) ([]domain.Opportunity, int64, error) {
	var opps []domain.Opportunity
	var total int64

	offset := (page - 1) * pageSize
	query := r.db.WithContext(ctx).Model(&domain.Opportunity{})

	if filters != nil {
		if filters.Stage != nil {
			query = query.Where("stage = ?", *filters.Stage)
		}
		if filters.AccountID != nil {
			query = query.Where("account_id = ?", *filters.AccountID)
		}
		if filters.Owner != "" {
			query = query.Where("owner = ?", filters.Owner)
		}
		if filters.Search != "" {
			query = query.Where("name ILIKE ?", "%"+filters.Search+"%")
		}
		if filters.OpenOnly {
			query = query.Where("stage NOT IN ?", []domain.OpportunityStage{domain.StageWon, domain.StageLost})
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Account").
		Order("updated_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&opps).Error

	return opps, total, err
}

// ListByAccount returns all opportunities for one account
func (r *OpportunityRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Opportunity, error) {
	var opps []domain.Opportunity
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&opps).Error
	return opps, err
}

func (r *OpportunityRepository) Update(ctx context.Context, opp *domain.Opportunity) error {
	return r.db.WithContext(ctx).Save(opp).Error
}

func (r *OpportunityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Opportunity{}, "id = ?", id).Error
}

// FindRecentByNameAndAccount returns opportunities with the same name under
// the same account created after the cutoff, used for duplicate warnings.
func (r *OpportunityRepository) FindRecentByNameAndAccount(ctx context.Context, name string, accountID uuid.UUID, createdAfter time.Time, excludeID *uuid.UUID) ([]domain.Opportunity, error) {
	var opps []domain.Opportunity
	query := r.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?) AND account_id = ?", name, accountID).
		Where("created_at >= ?", createdAfter)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	err := query.Find(&opps).Error
	return opps, err
}

// ListOpenByOwner returns the owner's opportunities that are still in play
func (r *OpportunityRepository) ListOpenByOwner(ctx context.Context, owner string) ([]domain.Opportunity, error) {
	var opps []domain.Opportunity
	err := r.db.WithContext(ctx).
		Preload("Account").
		Where("owner = ?", owner).
		Where("stage NOT IN ?", []domain.OpportunityStage{domain.StageWon, domain.StageLost}).
		Order("next_followup ASC NULLS LAST").
		Find(&opps).Error
	return opps, err
}

// ListOpen returns every opportunity still in play
func (r *OpportunityRepository) ListOpen(ctx context.Context) ([]domain.Opportunity, error) {
	var opps []domain.Opportunity
	err := r.db.WithContext(ctx).
		Preload("Account").
		Where("stage NOT IN ?", []domain.OpportunityStage{domain.StageWon, domain.StageLost}).
		Order("next_followup ASC NULLS LAST").
		Find(&opps).Error
	return opps, err
}

// ListOpenForContactAccount returns open opportunities for the contact's
// account, most recently touched first. Used by email matching.
func (r *OpportunityRepository) ListOpenForContactAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Opportunity, error) {
	var opps []domain.Opportunity
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Where("stage NOT IN ?", []domain.OpportunityStage{domain.StageWon, domain.StageLost}).
		Order("updated_at DESC").
		Find(&opps).Error
	return opps, err
}
