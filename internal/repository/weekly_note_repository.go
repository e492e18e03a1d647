package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bidline/crm-api/internal/domain"
)

type WeeklyNoteRepository struct {
	db *gorm.DB
}

func NewWeeklyNoteRepository(db *gorm.DB) *WeeklyNoteRepository {
	return &WeeklyNoteRepository{db: db}
}

// Upsert saves a user's notes for one summary week, replacing any
// existing notes for that week.
func (r *WeeklyNoteRepository) Upsert(ctx context.Context, note *domain.WeeklySummaryNote) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "week_start"}},
			DoUpdates: clause.AssignmentColumns([]string{"notes", "updated_at"}),
		}).
		Create(note).Error
}

// Get returns a user's notes for one summary week, or nil when none exist
func (r *WeeklyNoteRepository) Get(ctx context.Context, userID uuid.UUID, weekStart time.Time) (*domain.WeeklySummaryNote, error) {
	var note domain.WeeklySummaryNote
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND week_start = ?", userID, weekStart).
		First(&note).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &note, nil
}
