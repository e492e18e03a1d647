package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bidline/crm-api/internal/domain"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var account domain.Account
	err := r.db.WithContext(ctx).
		Preload("Contacts").
		First(&account, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) List(ctx context.Context, page, pageSize int) ([]domain.Account, int64, error) {
	var accounts []domain.Account
	var total int64

	offset := (page - 1) * pageSize

	if err := r.db.WithContext(ctx).Model(&domain.Account{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Order("name").
		Offset(offset).
		Limit(pageSize).
		Find(&accounts).Error

	return accounts, total, err
}

func (r *AccountRepository) Update(ctx context.Context, account *domain.Account) error {
	return r.db.WithContext(ctx).Save(account).Error
}

func (r *AccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Account{}, "id = ?", id).Error
}

// Search searches accounts by name, city or industry
func (r *AccountRepository) Search(ctx context.Context, query string, limit int) ([]domain.Account, error) {
	var accounts []domain.Account
	pattern := "%" + query + "%"

	err := r.db.WithContext(ctx).
		Where("name ILIKE ? OR city ILIKE ? OR industry ILIKE ?", pattern, pattern, pattern).
		Order("name").
		Limit(limit).
		Find(&accounts).Error

	return accounts, err
}

// FindByName returns accounts whose name matches case-insensitively,
// excluding the given ID when editing an existing record.
func (r *AccountRepository) FindByName(ctx context.Context, name string, excludeID *uuid.UUID) ([]domain.Account, error) {
	var accounts []domain.Account
	query := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	err := query.Find(&accounts).Error
	return accounts, err
}

// FindByCityState returns accounts in the same city and state with a
// different name, used for possible-duplicate warnings.
func (r *AccountRepository) FindByCityState(ctx context.Context, city, state, excludeName string, excludeID *uuid.UUID) ([]domain.Account, error) {
	var accounts []domain.Account
	query := r.db.WithContext(ctx).
		Where("LOWER(city) = LOWER(?) AND LOWER(state) = LOWER(?)", city, state).
		Where("LOWER(name) <> LOWER(?)", excludeName)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	err := query.Limit(5).Find(&accounts).Error
	return accounts, err
}

// ListHot returns accounts flagged as hot prospects
func (r *AccountRepository) ListHot(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	err := r.db.WithContext(ctx).
		Where("is_hot = ?", true).
		Order("name").
		Find(&accounts).Error
	return accounts, err
}
