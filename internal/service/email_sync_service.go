package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bidline/crm-api/internal/domain"
	"github.com/bidline/crm-api/internal/followup"
	"github.com/bidline/crm-api/internal/repository"
)

// EmailMessage is one inbound email as seen by the sync
type EmailMessage struct {
	From       string
	Subject    string
	Body       string
	ReceivedAt time.Time
}

// MessageSource supplies inbound messages newer than a cutoff. The concrete
// mailbox transport lives behind this interface so the sync logic does not
// care whether messages come from IMAP, a webhook queue or a test fixture.
type MessageSource interface {
	FetchSince(ctx context.Context, since time.Time) ([]EmailMessage, error)
}

// EmailSyncService turns inbound email into CRM touches. A message from a
// known contact becomes an email activity on the most recently worked open
// opportunity for that contact's account, counts as a touch, and moves the
// follow-up date through the same policy as every other touch.
type EmailSyncService struct {
	source          MessageSource
	contactRepo     *repository.ContactRepository
	opportunityRepo *repository.OpportunityRepository
	activityRepo    *repository.ActivityRepository
	maxBodyChars    int
	logger          *zap.Logger
	db              *gorm.DB

	lastSync time.Time
}

func NewEmailSyncService(
	source MessageSource,
	contactRepo *repository.ContactRepository,
	opportunityRepo *repository.OpportunityRepository,
	activityRepo *repository.ActivityRepository,
	maxBodyChars int,
	logger *zap.Logger,
	db *gorm.DB,
) *EmailSyncService {
	return &EmailSyncService{
		source:          source,
		contactRepo:     contactRepo,
		opportunityRepo: opportunityRepo,
		activityRepo:    activityRepo,
		maxBodyChars:    maxBodyChars,
		logger:          logger,
		db:              db,
	}
}

// SyncOnce fetches new messages and records the ones it can attribute.
// It returns how many activities were created. Messages without a matching
// contact, or whose contact has no open opportunity, are skipped quietly;
// a re-fetched message dedups on its natural key and is skipped too.
func (s *EmailSyncService) SyncOnce(ctx context.Context) (int, error) {
	since := s.lastSync
	if since.IsZero() {
		since = time.Now().UTC().Add(-24 * time.Hour)
	}
	started := time.Now().UTC()

	messages, err := s.source.FetchSince(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch messages: %w", err)
	}

	created := 0
	for _, msg := range messages {
		ok, err := s.recordMessage(ctx, msg)
		if err != nil {
			s.logger.Warn("failed to record inbound email",
				zap.String("from", msg.From),
				zap.String("subject", msg.Subject),
				zap.Error(err))
			continue
		}
		if ok {
			created++
		}
	}

	s.lastSync = started
	if created > 0 {
		s.logger.Info("email sync completed",
			zap.Int("messages", len(messages)),
			zap.Int("recorded", created))
	}
	return created, nil
}

func (s *EmailSyncService) recordMessage(ctx context.Context, msg EmailMessage) (bool, error) {
	contacts, err := s.contactRepo.FindByEmail(ctx, msg.From, nil)
	if err != nil {
		return false, fmt.Errorf("failed to match sender: %w", err)
	}
	if len(contacts) == 0 || contacts[0].AccountID == nil {
		return false, nil
	}
	contact := &contacts[0]

	opps, err := s.opportunityRepo.ListOpenForContactAccount(ctx, *contact.AccountID)
	if err != nil {
		return false, fmt.Errorf("failed to find open opportunity: %w", err)
	}
	if len(opps) == 0 {
		return false, nil
	}
	opp := &opps[0]

	occurredAt := msg.ReceivedAt.UTC()
	existing, err := s.activityRepo.FindEmailActivity(ctx, opp.ID, msg.Subject, occurredAt)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("failed to check for duplicate: %w", err)
	}
	if existing != nil {
		return false, nil
	}

	body := msg.Body
	if s.maxBodyChars > 0 && len(body) > s.maxBodyChars {
		body = body[:s.maxBodyChars]
	}

	day := time.Date(occurredAt.Year(), occurredAt.Month(), occurredAt.Day(), 0, 0, 0, 0, time.UTC)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		activity := &domain.Activity{
			OpportunityID: &opp.ID,
			ContactID:     &contact.ID,
			ActivityType:  domain.ActivityTypeEmail,
			Subject:       msg.Subject,
			Description:   body,
			OccurredAt:    occurredAt,
			CreatedBy:     "email-sync",
		}
		if err := tx.Create(activity).Error; err != nil {
			return fmt.Errorf("failed to create email activity: %w", err)
		}

		// last_contacted only moves forward; a delayed fetch of an old
		// message must not roll a fresher touch back.
		if opp.LastContacted == nil || opp.LastContacted.Before(day) {
			opp.LastContacted = &day
			opp.NextFollowup = followup.NextOpportunityFollowup(opp.Stage, opp.LastContacted, opp.BidDate, today())
			if err := tx.Save(opp).Error; err != nil {
				return fmt.Errorf("failed to update opportunity: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
