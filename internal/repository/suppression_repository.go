package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bidline/crm-api/internal/domain"
)

// SuppressionRepository stores per-user summary suppressions. A suppression
// hides one opportunity from that user's personal summary until its stage
// changes again; the pair is unique so repeated suppression is a no-op.
type SuppressionRepository struct {
	db *gorm.DB
}

func NewSuppressionRepository(db *gorm.DB) *SuppressionRepository {
	return &SuppressionRepository{db: db}
}

// Suppress records a suppression, idempotently. Re-suppressing keeps the
// original suppressed_at so an already-dismissed row cannot be refreshed
// past a later stage change.
func (r *SuppressionRepository) Suppress(ctx context.Context, userID, opportunityID uuid.UUID) error {
	s := domain.UserSummarySuppression{
		UserID:        userID,
		OpportunityID: opportunityID,
		SuppressedAt:  time.Now().UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "opportunity_id"}},
			DoNothing: true,
		}).
		Create(&s).Error
}

// ListByUser returns all of a user's suppressions
func (r *SuppressionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.UserSummarySuppression, error) {
	var suppressions []domain.UserSummarySuppression
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&suppressions).Error
	return suppressions, err
}

// Delete removes one suppression row
func (r *SuppressionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.UserSummarySuppression{}, "id = ?", id).Error
}
