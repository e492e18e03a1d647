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
	"github.com/bidline/crm-api/internal/followup"
	"github.com/bidline/crm-api/internal/mapper"
	"github.com/bidline/crm-api/internal/repository"
)

type OpportunityService struct {
	opportunityRepo *repository.OpportunityRepository
	accountRepo     *repository.AccountRepository
	activityRepo    *repository.ActivityRepository
	validation      *ValidationService
	logger          *zap.Logger
	db              *gorm.DB
}

func NewOpportunityService(
	opportunityRepo *repository.OpportunityRepository,
	accountRepo *repository.AccountRepository,
	activityRepo *repository.ActivityRepository,
	validation *ValidationService,
	logger *zap.Logger,
	db *gorm.DB,
) *OpportunityService {
	return &OpportunityService{
		opportunityRepo: opportunityRepo,
		accountRepo:     accountRepo,
		activityRepo:    activityRepo,
		validation:      validation,
		logger:          logger,
		db:              db,
	}
}

// refreshFollowup is the single place an opportunity's follow-up date is
// recomputed. Every stage change, contact log and bid date edit funnels
// through here so the scheduling rules cannot drift apart.
func refreshFollowup(opp *domain.Opportunity, today time.Time) {
	opp.NextFollowup = followup.NextOpportunityFollowup(opp.Stage, opp.LastContacted, opp.BidDate, today)
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *OpportunityService) Create(ctx context.Context, req *domain.CreateOpportunityRequest) (*domain.OpportunityDTO, error) {
	stage := req.Stage
	if stage == "" {
		stage = domain.StageProspecting
	}

	input := &OpportunityInput{
		Name:       req.Name,
		AccountID:  req.AccountID,
		Stage:      stage,
		Owner:      req.Owner,
		LVValue:    req.LVValue,
		HDDValue:   req.HDDValue,
		BidDate:    req.BidDate,
		BidDateTBD: req.BidDateTBD,
	}
	result, err := s.validation.ValidateOpportunity(ctx, input, nil)
	if err != nil {
		return nil, err
	}
	if err := gate(result, req.ConfirmWarnings); err != nil {
		return nil, err
	}

	if _, err := s.accountRepo.GetByID(ctx, req.AccountID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: account", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	lvValue, err := ParseMoney(req.LVValue)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	hddValue, err := ParseMoney(req.HDDValue)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	opp := &domain.Opportunity{
		Name:                req.Name,
		AccountID:           req.AccountID,
		Stage:               stage,
		Probability:         domain.StageProbabilities[stage],
		LVValue:             lvValue,
		HDDValue:            hddValue,
		BidDate:             req.BidDate,
		BidDateTBD:          req.BidDateTBD,
		Owner:               req.Owner,
		AssignedEstimatorID: req.AssignedEstimatorID,
		PrimaryContactID:    req.PrimaryContactID,
		Source:              req.Source,
		QuickLinks:          req.QuickLinks,
		Notes:               req.Notes,
	}

	if req.NextFollowup != nil {
		d := followup.NextBusinessDay(*req.NextFollowup)
		opp.NextFollowup = &d
	} else {
		refreshFollowup(opp, today())
	}
	if opp.Stage.IsClosed() {
		opp.NextFollowup = nil
	}

	if err := s.opportunityRepo.Create(ctx, opp); err != nil {
		return nil, fmt.Errorf("failed to create opportunity: %w", err)
	}

	s.logger.Info("opportunity created",
		zap.String("opportunity_id", opp.ID.String()),
		zap.String("name", opp.Name),
		zap.String("stage", string(opp.Stage)))

	opp, err = s.opportunityRepo.GetByID(ctx, opp.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload opportunity: %w", err)
	}

	dto := mapper.ToOpportunityDTO(opp, today())
	return &dto, nil
}

func (s *OpportunityService) GetByID(ctx context.Context, id uuid.UUID) (*domain.OpportunityDTO, error) {
	opp, err := s.opportunityRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get opportunity: %w", err)
	}
	dto := mapper.ToOpportunityDTO(opp, today())
	return &dto, nil
}

func (s *OpportunityService) List(ctx context.Context, page, pageSize int, filters *repository.OpportunityFilters) (*domain.PaginatedResponse, error) {
	opps, total, err := s.opportunityRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list opportunities: %w", err)
	}

	asOf := today()
	dtos := make([]domain.OpportunityDTO, len(opps))
	for i := range opps {
		dtos[i] = mapper.ToOpportunityDTO(&opps[i], asOf)
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// ListByAccount returns all opportunities for one account
func (s *OpportunityService) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.OpportunityDTO, error) {
	opps, err := s.opportunityRepo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list opportunities: %w", err)
	}
	asOf := today()
	dtos := make([]domain.OpportunityDTO, len(opps))
	for i := range opps {
		dtos[i] = mapper.ToOpportunityDTO(&opps[i], asOf)
	}
	return dtos, nil
}

// Pipeline returns open opportunities grouped by stage, in pipeline order
func (s *OpportunityService) Pipeline(ctx context.Context) (map[domain.OpportunityStage][]domain.OpportunityDTO, error) {
	opps, err := s.opportunityRepo.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list open opportunities: %w", err)
	}

	asOf := today()
	grouped := make(map[domain.OpportunityStage][]domain.OpportunityDTO)
	for i := range opps {
		dto := mapper.ToOpportunityDTO(&opps[i], asOf)
		grouped[opps[i].Stage] = append(grouped[opps[i].Stage], dto)
	}
	return grouped, nil
}

func (s *OpportunityService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateOpportunityRequest) (*domain.OpportunityDTO, error) {
	opp, err := s.opportunityRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get opportunity: %w", err)
	}

	stage := req.Stage
	if stage == "" {
		stage = opp.Stage
	}

	input := &OpportunityInput{
		Name:       req.Name,
		AccountID:  opp.AccountID,
		Stage:      stage,
		Owner:      req.Owner,
		LVValue:    req.LVValue,
		HDDValue:   req.HDDValue,
		BidDate:    req.BidDate,
		BidDateTBD: req.BidDateTBD,
	}
	if input.Owner == "" {
		input.Owner = opp.Owner
	}
	result, err := s.validation.ValidateOpportunity(ctx, input, &id)
	if err != nil {
		return nil, err
	}
	if err := gate(result, req.ConfirmWarnings); err != nil {
		return nil, err
	}

	lvValue, err := ParseMoney(req.LVValue)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	hddValue, err := ParseMoney(req.HDDValue)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	oldStage := opp.Stage
	oldBidDate := opp.BidDate

	opp.Name = req.Name
	opp.Stage = stage
	opp.LVValue = lvValue
	opp.HDDValue = hddValue
	opp.BidDate = req.BidDate
	opp.BidDateTBD = req.BidDateTBD
	opp.StalledReason = req.StalledReason
	opp.AssignedEstimatorID = req.AssignedEstimatorID
	opp.PrimaryContactID = req.PrimaryContactID
	opp.Source = req.Source
	opp.QuickLinks = req.QuickLinks
	opp.Notes = req.Notes
	if req.Owner != "" {
		opp.Owner = req.Owner
	}
	if stage != oldStage {
		opp.Probability = domain.StageProbabilities[stage]
	}

	switch {
	case req.NextFollowup != nil:
		d := followup.NextBusinessDay(*req.NextFollowup)
		opp.NextFollowup = &d
	case followup.ShouldRecalculate(oldStage, stage, opp.LastContacted, opp.LastContacted, oldBidDate, req.BidDate):
		refreshFollowup(opp, today())
	}
	// a closed opportunity never carries a follow-up, manual date or not
	if opp.Stage.IsClosed() {
		opp.NextFollowup = nil
	}

	if err := s.opportunityRepo.Update(ctx, opp); err != nil {
		return nil, fmt.Errorf("failed to update opportunity: %w", err)
	}

	opp, err = s.opportunityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload opportunity: %w", err)
	}

	dto := mapper.ToOpportunityDTO(opp, today())
	return &dto, nil
}

// UpdateStage moves an opportunity to a new pipeline stage. The move writes
// a stage-change activity, counts as a touch and recomputes the follow-up
// date, so closed stages drop off the schedule immediately.
func (s *OpportunityService) UpdateStage(ctx context.Context, id uuid.UUID, req *domain.UpdateStageRequest) (*domain.OpportunityDTO, error) {
	if !req.Stage.IsValid() {
		return nil, ErrInvalidStage
	}

	opp, err := s.opportunityRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get opportunity: %w", err)
	}

	if opp.Stage == req.Stage {
		dto := mapper.ToOpportunityDTO(opp, today())
		return &dto, nil
	}

	var createdBy string
	if userCtx, ok := auth.FromContext(ctx); ok {
		createdBy = userCtx.Name
	}

	oldStage := opp.Stage
	now := time.Now().UTC()
	asOf := today()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		opp.Stage = req.Stage
		opp.Probability = domain.StageProbabilities[req.Stage]
		opp.LastContacted = &asOf
		refreshFollowup(opp, asOf)

		if err := tx.Save(opp).Error; err != nil {
			return fmt.Errorf("failed to update opportunity: %w", err)
		}

		activity := &domain.Activity{
			OpportunityID: &opp.ID,
			ActivityType:  domain.ActivityTypeSystem,
			Subject:       fmt.Sprintf("%s: %s → %s", repository.StageChangeSubjectPrefix, oldStage, req.Stage),
			Description:   req.Notes,
			OccurredAt:    now,
			CreatedBy:     createdBy,
		}
		if err := tx.Create(activity).Error; err != nil {
			return fmt.Errorf("failed to record stage change: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("opportunity stage changed",
		zap.String("opportunity_id", id.String()),
		zap.String("from", string(oldStage)),
		zap.String("to", string(req.Stage)))

	opp, err = s.opportunityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload opportunity: %w", err)
	}

	dto := mapper.ToOpportunityDTO(opp, asOf)
	return &dto, nil
}

// LogContact records an outreach touch on an opportunity. The touch stamps
// last_contacted (except for a requested meeting, which only schedules the
// chase) and recomputes the follow-up date; a manually supplied date wins.
func (s *OpportunityService) LogContact(ctx context.Context, id uuid.UUID, req *domain.LogContactRequest) (*domain.OpportunityDTO, error) {
	if !req.ActivityType.IsValid() {
		return nil, fmt.Errorf("%w: unknown activity type %q", ErrInvalidInput, req.ActivityType)
	}

	opp, err := s.opportunityRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get opportunity: %w", err)
	}

	var createdBy string
	if userCtx, ok := auth.FromContext(ctx); ok {
		createdBy = userCtx.Name
	}

	subject := req.Subject
	if subject == "" {
		subject = fmt.Sprintf("Logged %s", req.ActivityType)
	}

	now := time.Now().UTC()
	asOf := today()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		activity := &domain.Activity{
			OpportunityID: &opp.ID,
			ActivityType:  req.ActivityType,
			Subject:       subject,
			Description:   req.Notes,
			OccurredAt:    now,
			CreatedBy:     createdBy,
		}
		if err := tx.Create(activity).Error; err != nil {
			return fmt.Errorf("failed to create activity: %w", err)
		}

		if req.ActivityType == domain.ActivityTypeMeetingRequested {
			d := followup.AddBusinessDays(asOf, 2)
			opp.NextFollowup = &d
		} else {
			opp.LastContacted = &asOf
			refreshFollowup(opp, asOf)
		}
		if req.NextFollowup != nil {
			d := followup.NextBusinessDay(*req.NextFollowup)
			opp.NextFollowup = &d
		}
		if opp.Stage.IsClosed() {
			opp.NextFollowup = nil
		}

		if err := tx.Save(opp).Error; err != nil {
			return fmt.Errorf("failed to update opportunity: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	opp, err = s.opportunityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload opportunity: %w", err)
	}

	dto := mapper.ToOpportunityDTO(opp, asOf)
	return &dto, nil
}

func (s *OpportunityService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.opportunityRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get opportunity: %w", err)
	}
	if err := s.opportunityRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete opportunity: %w", err)
	}
	s.logger.Info("opportunity deleted", zap.String("opportunity_id", id.String()))
	return nil
}
