package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bidline/crm-api/internal/domain"
	"github.com/bidline/crm-api/internal/followup"
	"github.com/bidline/crm-api/internal/mapper"
	"github.com/bidline/crm-api/internal/repository"
)

// SummaryService builds the personal and team pipeline summaries and owns
// the per-user suppression list that hides dismissed rows from them.
type SummaryService struct {
	opportunityRepo *repository.OpportunityRepository
	activityRepo    *repository.ActivityRepository
	suppressionRepo *repository.SuppressionRepository
	taskRepo        *repository.TaskRepository
	weeklyNoteRepo  *repository.WeeklyNoteRepository
	userRepo        *repository.UserRepository
	logger          *zap.Logger
	db              *gorm.DB
}

func NewSummaryService(
	opportunityRepo *repository.OpportunityRepository,
	activityRepo *repository.ActivityRepository,
	suppressionRepo *repository.SuppressionRepository,
	taskRepo *repository.TaskRepository,
	weeklyNoteRepo *repository.WeeklyNoteRepository,
	userRepo *repository.UserRepository,
	logger *zap.Logger,
	db *gorm.DB,
) *SummaryService {
	return &SummaryService{
		opportunityRepo: opportunityRepo,
		activityRepo:    activityRepo,
		suppressionRepo: suppressionRepo,
		taskRepo:        taskRepo,
		weeklyNoteRepo:  weeklyNoteRepo,
		userRepo:        userRepo,
		logger:          logger,
		db:              db,
	}
}

// Suppress hides an opportunity from the user's personal summary until its
// stage changes again. Suppressing twice is a no-op.
func (s *SummaryService) Suppress(ctx context.Context, userID, opportunityID uuid.UUID) error {
	if _, err := s.opportunityRepo.GetByID(ctx, opportunityID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get opportunity: %w", err)
	}
	if err := s.suppressionRepo.Suppress(ctx, userID, opportunityID); err != nil {
		return fmt.Errorf("failed to suppress opportunity: %w", err)
	}
	s.logger.Debug("opportunity suppressed",
		zap.String("user_id", userID.String()),
		zap.String("opportunity_id", opportunityID.String()))
	return nil
}

// ActiveSuppressions returns the opportunity IDs the user has dismissed and
// that have not changed stage since. Rows whose stage moved after the
// suppression are deleted on the way through, so a dismissed opportunity
// reappears the moment something happens to it. The read and the heal run
// in one transaction.
func (s *SummaryService) ActiveSuppressions(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	active := make(map[uuid.UUID]struct{})

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		suppressions := repository.NewSuppressionRepository(tx)
		activities := repository.NewActivityRepository(tx)

		rows, err := suppressions.ListByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to load suppressions: %w", err)
		}

		for _, sup := range rows {
			changed, err := activities.HasStageChangeSince(ctx, sup.OpportunityID, sup.SuppressedAt)
			if err != nil {
				return fmt.Errorf("failed to check stage changes: %w", err)
			}
			if changed {
				if err := suppressions.Delete(ctx, sup.ID); err != nil {
					return fmt.Errorf("failed to clear suppression: %w", err)
				}
				continue
			}
			active[sup.OpportunityID] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return active, nil
}

// PersonalSummary builds one user's view: their pipeline changes since the
// cutoff minus anything they dismissed, their open follow-ups bucketed by
// urgency, their open tasks, and their notes for the current week.
func (s *SummaryService) PersonalSummary(ctx context.Context, userID uuid.UUID, since time.Time) (*domain.SummaryDTO, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	suppressed, err := s.ActiveSuppressions(ctx, userID)
	if err != nil {
		return nil, err
	}

	changes, err := s.pipelineChanges(ctx, since, func(opp *domain.Opportunity) bool {
		if opp.Owner != user.Name {
			return false
		}
		_, hidden := suppressed[opp.ID]
		return !hidden
	})
	if err != nil {
		return nil, err
	}

	opps, err := s.opportunityRepo.ListOpenByOwner(ctx, user.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to list open opportunities: %w", err)
	}

	summary := &domain.SummaryDTO{
		Since:           since.Format("2006-01-02"),
		PipelineChanges: changes,
	}
	bucketFollowups(summary, opps)

	tasks, err := s.taskRepo.ListOpenByAssignee(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list open tasks: %w", err)
	}
	summary.OpenTasks = make([]domain.TaskDTO, len(tasks))
	for i := range tasks {
		summary.OpenTasks[i] = mapper.ToTaskDTO(&tasks[i])
	}

	note, err := s.weeklyNoteRepo.Get(ctx, userID, WeekStart(time.Now().UTC()))
	if err != nil {
		return nil, fmt.Errorf("failed to load weekly notes: %w", err)
	}
	if note != nil {
		summary.WeeklyNotes = note.Notes
	}

	return summary, nil
}

// TeamSummary builds the whole team's view. Nothing is suppressed here;
// dismissals are personal.
func (s *SummaryService) TeamSummary(ctx context.Context, since time.Time) (*domain.SummaryDTO, error) {
	changes, err := s.pipelineChanges(ctx, since, func(*domain.Opportunity) bool { return true })
	if err != nil {
		return nil, err
	}

	opps, err := s.opportunityRepo.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list open opportunities: %w", err)
	}

	summary := &domain.SummaryDTO{
		Since:           since.Format("2006-01-02"),
		PipelineChanges: changes,
	}
	bucketFollowups(summary, opps)
	return summary, nil
}

// pipelineChanges collects the opportunities whose stage moved since the
// cutoff, one row per opportunity with its latest transition.
func (s *SummaryService) pipelineChanges(ctx context.Context, since time.Time, include func(*domain.Opportunity) bool) ([]domain.SummaryOpportunityDTO, error) {
	activities, err := s.activityRepo.ListRecentStageChanges(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list stage changes: %w", err)
	}

	asOf := today()
	seen := make(map[uuid.UUID]bool)
	changes := make([]domain.SummaryOpportunityDTO, 0, len(activities))
	for i := range activities {
		act := &activities[i]
		if act.OpportunityID == nil || seen[*act.OpportunityID] {
			continue
		}
		seen[*act.OpportunityID] = true

		opp, err := s.opportunityRepo.GetByID(ctx, *act.OpportunityID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to get opportunity: %w", err)
		}
		if !include(opp) {
			continue
		}

		changes = append(changes, domain.SummaryOpportunityDTO{
			OpportunityDTO: mapper.ToOpportunityDTO(opp, asOf),
			StageChangedAt: act.OccurredAt.Format("2006-01-02T15:04:05Z"),
			LastStageNote:  act.Description,
		})
	}
	return changes, nil
}

// bucketFollowups splits open opportunities into overdue, due-today and
// upcoming sections by their follow-up status.
func bucketFollowups(summary *domain.SummaryDTO, opps []domain.Opportunity) {
	asOf := today()
	for i := range opps {
		dto := mapper.ToOpportunityDTO(&opps[i], asOf)
		switch dto.FollowupStatus {
		case followup.StatusOverdue:
			summary.OverdueFollowups = append(summary.OverdueFollowups, dto)
		case followup.StatusDueToday:
			summary.DueTodayFollowups = append(summary.DueTodayFollowups, dto)
		case followup.StatusUpcoming:
			summary.UpcomingFollowups = append(summary.UpcomingFollowups, dto)
		}
	}
}

// SaveWeeklyNotes upserts the user's notes for the week containing the
// given date. The week is keyed by its Monday.
func (s *SummaryService) SaveWeeklyNotes(ctx context.Context, userID uuid.UUID, req *domain.SaveWeeklyNotesRequest) error {
	note := &domain.WeeklySummaryNote{
		UserID:    userID,
		WeekStart: WeekStart(req.WeekStart),
		Notes:     req.Notes,
	}
	if err := s.weeklyNoteRepo.Upsert(ctx, note); err != nil {
		return fmt.Errorf("failed to save weekly notes: %w", err)
	}
	return nil
}

// GetWeeklyNotes returns the user's notes for the week containing the given
// date, or empty when none were saved.
func (s *SummaryService) GetWeeklyNotes(ctx context.Context, userID uuid.UUID, week time.Time) (string, error) {
	note, err := s.weeklyNoteRepo.Get(ctx, userID, WeekStart(week))
	if err != nil {
		return "", fmt.Errorf("failed to load weekly notes: %w", err)
	}
	if note == nil {
		return "", nil
	}
	return note.Notes, nil
}

// WeekStart returns the Monday of the week containing t, at midnight UTC
func WeekStart(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}
