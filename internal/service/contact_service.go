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

type ContactService struct {
	contactRepo  *repository.ContactRepository
	activityRepo *repository.ActivityRepository
	validation   *ValidationService
	logger       *zap.Logger
	db           *gorm.DB
}

func NewContactService(
	contactRepo *repository.ContactRepository,
	activityRepo *repository.ActivityRepository,
	validation *ValidationService,
	logger *zap.Logger,
	db *gorm.DB,
) *ContactService {
	return &ContactService{
		contactRepo:  contactRepo,
		activityRepo: activityRepo,
		validation:   validation,
		logger:       logger,
		db:           db,
	}
}

func (s *ContactService) Create(ctx context.Context, req *domain.CreateContactRequest) (*domain.ContactDTO, error) {
	input := &ContactInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Mobile:    req.Mobile,
		AccountID: req.AccountID,
	}
	result, err := s.validation.ValidateContact(ctx, input, nil)
	if err != nil {
		return nil, err
	}
	if err := gate(result, req.ConfirmWarnings); err != nil {
		return nil, err
	}

	contact := &domain.Contact{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Title:     req.Title,
		Email:     req.Email,
		Phone:     req.Phone,
		Mobile:    req.Mobile,
		AccountID: req.AccountID,
		Notes:     req.Notes,
	}
	if req.NextFollowup != nil {
		d := followup.NextBusinessDay(*req.NextFollowup)
		contact.NextFollowup = &d
	}

	if err := s.contactRepo.Create(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	s.logger.Info("contact created",
		zap.String("contact_id", contact.ID.String()),
		zap.String("name", contact.FullName()))

	contact, err = s.contactRepo.GetByID(ctx, contact.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload contact: %w", err)
	}

	dto := mapper.ToContactDTO(contact)
	return &dto, nil
}

func (s *ContactService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ContactDTO, error) {
	contact, err := s.contactRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	dto := mapper.ToContactDTO(contact)
	return &dto, nil
}

func (s *ContactService) List(ctx context.Context, page, pageSize int) (*domain.PaginatedResponse, error) {
	contacts, total, err := s.contactRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	dtos := make([]domain.ContactDTO, len(contacts))
	for i := range contacts {
		dtos[i] = mapper.ToContactDTO(&contacts[i])
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

// ListByAccount returns the account's contacts
func (s *ContactService) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.ContactDTO, error) {
	contacts, err := s.contactRepo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	dtos := make([]domain.ContactDTO, len(contacts))
	for i := range contacts {
		dtos[i] = mapper.ToContactDTO(&contacts[i])
	}
	return dtos, nil
}

func (s *ContactService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateContactRequest) (*domain.ContactDTO, error) {
	contact, err := s.contactRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	input := &ContactInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Mobile:    req.Mobile,
		AccountID: req.AccountID,
	}
	result, err := s.validation.ValidateContact(ctx, input, &id)
	if err != nil {
		return nil, err
	}
	if err := gate(result, req.ConfirmWarnings); err != nil {
		return nil, err
	}

	contact.FirstName = req.FirstName
	contact.LastName = req.LastName
	contact.Title = req.Title
	contact.Email = req.Email
	contact.Phone = req.Phone
	contact.Mobile = req.Mobile
	contact.AccountID = req.AccountID
	contact.Notes = req.Notes
	if req.NextFollowup != nil {
		d := followup.NextBusinessDay(*req.NextFollowup)
		contact.NextFollowup = &d
	}

	if err := s.contactRepo.Update(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}

	contact, err = s.contactRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload contact: %w", err)
	}

	dto := mapper.ToContactDTO(contact)
	return &dto, nil
}

func (s *ContactService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.contactRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get contact: %w", err)
	}
	if err := s.contactRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	return nil
}

// Search returns contacts matching the query by name or email
func (s *ContactService) Search(ctx context.Context, query string, limit int) ([]domain.ContactDTO, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	contacts, err := s.contactRepo.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search contacts: %w", err)
	}
	dtos := make([]domain.ContactDTO, len(contacts))
	for i := range contacts {
		dtos[i] = mapper.ToContactDTO(&contacts[i])
	}
	return dtos, nil
}

// LogContact records an outreach touch on a contact and moves its follow-up
// date. A manually supplied date always wins, rolled to a business day. When
// the date is left to the policy, a requested meeting schedules a chase two
// business days out without bumping last_contacted; any other touch restarts
// the 30-day clock and stamps last_contacted. The auto-calc only fires when
// the trigger type differs from the previous touch, so re-logging the same
// kind of touch leaves a hand-picked date alone.
func (s *ContactService) LogContact(ctx context.Context, id uuid.UUID, req *domain.LogContactRequest) (*domain.ContactDTO, error) {
	contact, err := s.contactRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	if !req.ActivityType.IsValid() {
		return nil, fmt.Errorf("%w: unknown activity type %q", ErrInvalidInput, req.ActivityType)
	}

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var previousTrigger domain.ActivityType
	recent, err := s.activityRepo.ListByContact(ctx, id, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent activity: %w", err)
	}
	if len(recent) > 0 {
		previousTrigger = recent[0].ActivityType
	}

	subject := req.Subject
	if subject == "" {
		subject = fmt.Sprintf("Logged %s with %s", req.ActivityType, contact.FullName())
	}

	var createdBy string
	if userCtx, ok := auth.FromContext(ctx); ok {
		createdBy = userCtx.Name
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		activity := &domain.Activity{
			ContactID:    &contact.ID,
			ActivityType: req.ActivityType,
			Subject:      subject,
			Description:  req.Notes,
			OccurredAt:   now,
			CreatedBy:    createdBy,
		}
		if err := tx.Create(activity).Error; err != nil {
			return fmt.Errorf("failed to create activity: %w", err)
		}

		switch {
		case req.NextFollowup != nil:
			d := followup.NextBusinessDay(*req.NextFollowup)
			contact.NextFollowup = &d
		case previousTrigger != req.ActivityType:
			d := followup.NextContactFollowup(req.ActivityType, today, today)
			contact.NextFollowup = &d
		}

		if req.ActivityType != domain.ActivityTypeMeetingRequested {
			contact.LastContacted = &today
		}

		if err := tx.Save(contact).Error; err != nil {
			return fmt.Errorf("failed to update contact: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("contact touch logged",
		zap.String("contact_id", id.String()),
		zap.String("activity_type", string(req.ActivityType)))

	contact, err = s.contactRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload contact: %w", err)
	}

	dto := mapper.ToContactDTO(contact)
	return &dto, nil
}

// ListDueForFollowup returns contacts whose follow-up date has arrived
func (s *ContactService) ListDueForFollowup(ctx context.Context) ([]domain.ContactDTO, error) {
	contacts, err := s.contactRepo.ListDueForFollowup(ctx, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list due contacts: %w", err)
	}
	dtos := make([]domain.ContactDTO, len(contacts))
	for i := range contacts {
		dtos[i] = mapper.ToContactDTO(&contacts[i])
	}
	return dtos, nil
}
