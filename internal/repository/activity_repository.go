package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bidline/crm-api/internal/domain"
)

// StageChangeSubjectPrefix is the subject prefix written when an opportunity
// changes stage. The summary suppression heal looks for it.
const StageChangeSubjectPrefix = "Stage changed"

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *ActivityRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Activity, error) {
	var activity domain.Activity
	err := r.db.WithContext(ctx).First(&activity, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

func (r *ActivityRepository) Update(ctx context.Context, activity *domain.Activity) error {
	return r.db.WithContext(ctx).Save(activity).Error
}

func (r *ActivityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Activity{}, "id = ?", id).Error
}

// ListByOpportunity returns an opportunity's activities newest first
func (r *ActivityRepository) ListByOpportunity(ctx context.Context, opportunityID uuid.UUID, limit int) ([]domain.Activity, error) {
	var activities []domain.Activity
	query := r.db.WithContext(ctx).
		Where("opportunity_id = ?", opportunityID).
		Order("occurred_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&activities).Error
	return activities, err
}

// ListByContact returns a contact's activities newest first
func (r *ActivityRepository) ListByContact(ctx context.Context, contactID uuid.UUID, limit int) ([]domain.Activity, error) {
	var activities []domain.Activity
	query := r.db.WithContext(ctx).
		Where("contact_id = ?", contactID).
		Order("occurred_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&activities).Error
	return activities, err
}

// HasStageChangeSince reports whether the opportunity's stage changed after
// the given instant. This is the signal that clears a summary suppression.
func (r *ActivityRepository) HasStageChangeSince(ctx context.Context, opportunityID uuid.UUID, since time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Activity{}).
		Where("opportunity_id = ?", opportunityID).
		Where("subject LIKE ?", StageChangeSubjectPrefix+"%").
		Where("occurred_at > ?", since).
		Count(&count).Error
	return count > 0, err
}

// FindEmailActivity looks up an email activity by its natural key so the
// sync job never records the same message twice.
func (r *ActivityRepository) FindEmailActivity(ctx context.Context, opportunityID uuid.UUID, subject string, occurredAt time.Time) (*domain.Activity, error) {
	var activity domain.Activity
	err := r.db.WithContext(ctx).
		Where("opportunity_id = ? AND activity_type = ? AND subject = ? AND occurred_at = ?",
			opportunityID, domain.ActivityTypeEmail, subject, occurredAt).
		First(&activity).Error
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

// ListRecentStageChanges returns stage-change activities since the cutoff,
// newest first. The summary views build their pipeline section from these.
func (r *ActivityRepository) ListRecentStageChanges(ctx context.Context, since time.Time) ([]domain.Activity, error) {
	var activities []domain.Activity
	err := r.db.WithContext(ctx).
		Where("subject LIKE ?", StageChangeSubjectPrefix+"%").
		Where("occurred_at >= ?", since).
		Order("occurred_at DESC").
		Find(&activities).Error
	return activities, err
}
