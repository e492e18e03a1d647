package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bidline/crm-api/internal/domain"
)

type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	return r.db.WithContext(ctx).Create(contact).Error
}

func (r *ContactRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Contact, error) {
	var contact domain.Contact
	err := r.db.WithContext(ctx).
		Preload("Account").
		First(&contact, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *ContactRepository) List(ctx context.Context, page, pageSize int) ([]domain.Contact, int64, error) {
	var contacts []domain.Contact
	var total int64

	offset := (page - 1) * pageSize

	if err := r.db.WithContext(ctx).Model(&domain.Contact{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Preload("Account").
		Order("last_name, first_name").
		Offset(offset).
		Limit(pageSize).
		Find(&contacts).Error

	return contacts, total, err
}

// ListByAccount returns the account's contacts ordered by name
func (r *ContactRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Contact, error) {
	var contacts []domain.Contact
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("last_name, first_name").
		Find(&contacts).Error
	return contacts, err
}

func (r *ContactRepository) Update(ctx context.Context, contact *domain.Contact) error {
	return r.db.WithContext(ctx).Save(contact).Error
}

func (r *ContactRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Contact{}, "id = ?", id).Error
}

// FindByEmail finds contacts by email case-insensitively, excluding the
// given ID when editing an existing record. Email is unique across all
// accounts so more than zero matches blocks a save.
func (r *ContactRepository) FindByEmail(ctx context.Context, email string, excludeID *uuid.UUID) ([]domain.Contact, error) {
	var contacts []domain.Contact
	query := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	err := query.Find(&contacts).Error
	return contacts, err
}

// FindByNameInAccount returns contacts with the same first and last name
// under the same account, used for possible-duplicate warnings.
func (r *ContactRepository) FindByNameInAccount(ctx context.Context, firstName, lastName string, accountID uuid.UUID, excludeID *uuid.UUID) ([]domain.Contact, error) {
	var contacts []domain.Contact
	query := r.db.WithContext(ctx).
		Where("LOWER(first_name) = LOWER(?) AND LOWER(last_name) = LOWER(?)", firstName, lastName).
		Where("account_id = ?", accountID)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	err := query.Find(&contacts).Error
	return contacts, err
}

// Search searches contacts by name or email
func (r *ContactRepository) Search(ctx context.Context, query string, limit int) ([]domain.Contact, error) {
	var contacts []domain.Contact
	pattern := "%" + query + "%"

	err := r.db.WithContext(ctx).
		Where("first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?",
			pattern, pattern, pattern).
		Order("last_name, first_name").
		Limit(limit).
		Find(&contacts).Error

	return contacts, err
}

// ListDueForFollowup returns contacts whose follow-up date is on or before
// the given day
func (r *ContactRepository) ListDueForFollowup(ctx context.Context, asOf time.Time) ([]domain.Contact, error) {
	var contacts []domain.Contact
	err := r.db.WithContext(ctx).
		Preload("Account").
		Where("next_followup IS NOT NULL AND next_followup <= ?", asOf).
		Order("next_followup").
		Find(&contacts).Error
	return contacts, err
}
