package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bidline/crm-api/internal/auth"
	"github.com/bidline/crm-api/internal/domain"
	"github.com/bidline/crm-api/internal/mapper"
	"github.com/bidline/crm-api/internal/repository"
)

type ActivityService struct {
	activityRepo    *repository.ActivityRepository
	opportunityRepo *repository.OpportunityRepository
	contactRepo     *repository.ContactRepository
	logger          *zap.Logger
	db              *gorm.DB
}

func NewActivityService(
	activityRepo *repository.ActivityRepository,
	opportunityRepo *repository.OpportunityRepository,
	contactRepo *repository.ContactRepository,
	logger *zap.Logger,
	db *gorm.DB,
) *ActivityService {
	return &ActivityService{
		activityRepo:    activityRepo,
		opportunityRepo: opportunityRepo,
		contactRepo:     contactRepo,
		logger:          logger,
		db:              db,
	}
}

// Create records an activity against an opportunity or a contact. When the
// caller asks for it and the activity happened today or earlier, the touch
// also bumps the opportunity's last_contacted and recomputes its follow-up.
// Backdated bumps move the date backwards too, matching how users correct
// a touch they forgot to log; future-dated activities never count as touches.
func (s *ActivityService) Create(ctx context.Context, req *domain.CreateActivityRequest) (*domain.ActivityDTO, error) {
	if !req.ActivityType.IsValid() {
		return nil, fmt.Errorf("%w: unknown activity type %q", ErrInvalidInput, req.ActivityType)
	}
	if req.OpportunityID == nil && req.ContactID == nil {
		return nil, fmt.Errorf("%w: activity needs an opportunity or a contact", ErrInvalidInput)
	}

	var opp *domain.Opportunity
	if req.OpportunityID != nil {
		var err error
		opp, err = s.opportunityRepo.GetByID(ctx, *req.OpportunityID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: opportunity", ErrNotFound)
			}
			return nil, fmt.Errorf("failed to get opportunity: %w", err)
		}
	}
	if req.ContactID != nil {
		if _, err := s.contactRepo.GetByID(ctx, *req.ContactID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: contact", ErrNotFound)
			}
			return nil, fmt.Errorf("failed to get contact: %w", err)
		}
	}

	occurredAt := time.Now().UTC()
	if req.OccurredAt != nil {
		occurredAt = *req.OccurredAt
	}

	var createdBy string
	if userCtx, ok := auth.FromContext(ctx); ok {
		createdBy = userCtx.Name
	}

	activity := &domain.Activity{
		OpportunityID: req.OpportunityID,
		ContactID:     req.ContactID,
		ActivityType:  req.ActivityType,
		Subject:       req.Subject,
		Description:   req.Description,
		OccurredAt:    occurredAt,
		CreatedBy:     createdBy,
	}

	asOf := today()
	occurredDay := time.Date(occurredAt.Year(), occurredAt.Month(), occurredAt.Day(), 0, 0, 0, 0, time.UTC)
	bumpTouch := req.UpdateLastContacted && opp != nil && !occurredDay.After(asOf)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(activity).Error; err != nil {
			return fmt.Errorf("failed to create activity: %w", err)
		}
		if bumpTouch {
			opp.LastContacted = &occurredDay
			refreshFollowup(opp, asOf)
			if err := tx.Save(opp).Error; err != nil {
				return fmt.Errorf("failed to update opportunity: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := mapper.ToActivityDTO(activity)
	return &dto, nil
}

func (s *ActivityService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ActivityDTO, error) {
	activity, err := s.activityRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	dto := mapper.ToActivityDTO(activity)
	return &dto, nil
}

func (s *ActivityService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateActivityRequest) (*domain.ActivityDTO, error) {
	activity, err := s.activityRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}

	if !req.ActivityType.IsValid() {
		return nil, fmt.Errorf("%w: unknown activity type %q", ErrInvalidInput, req.ActivityType)
	}

	activity.ActivityType = req.ActivityType
	activity.Subject = req.Subject
	activity.Description = req.Description
	if req.OccurredAt != nil {
		activity.OccurredAt = *req.OccurredAt
	}

	if err := s.activityRepo.Update(ctx, activity); err != nil {
		return nil, fmt.Errorf("failed to update activity: %w", err)
	}

	dto := mapper.ToActivityDTO(activity)
	return &dto, nil
}

func (s *ActivityService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.activityRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get activity: %w", err)
	}
	if err := s.activityRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	return nil
}

// ListByOpportunity returns an opportunity's activities newest first
func (s *ActivityService) ListByOpportunity(ctx context.Context, opportunityID uuid.UUID, limit int) ([]domain.ActivityDTO, error) {
	activities, err := s.activityRepo.ListByOpportunity(ctx, opportunityID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	dtos := make([]domain.ActivityDTO, len(activities))
	for i := range activities {
		dtos[i] = mapper.ToActivityDTO(&activities[i])
	}
	return dtos, nil
}

// ListByContact returns a contact's activities newest first
func (s *ActivityService) ListByContact(ctx context.Context, contactID uuid.UUID, limit int) ([]domain.ActivityDTO, error) {
	activities, err := s.activityRepo.ListByContact(ctx, contactID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	dtos := make([]domain.ActivityDTO, len(activities))
	for i := range activities {
		dtos[i] = mapper.ToActivityDTO(&activities[i])
	}
	return dtos, nil
}
