package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bidline/crm-api/internal/domain"
	"github.com/bidline/crm-api/internal/repository"
)

// duplicateOpportunityWindow is how far back to look for a same-named
// opportunity on the same account before warning about a duplicate.
const duplicateOpportunityWindow = 7 * 24 * time.Hour

// ValidationService runs data-quality checks before accounts, contacts and
// opportunities are saved. Errors block the save; warnings let it through
// once the caller confirms them.
type ValidationService struct {
	accountRepo     *repository.AccountRepository
	contactRepo     *repository.ContactRepository
	opportunityRepo *repository.OpportunityRepository
	logger          *zap.Logger
}

func NewValidationService(
	accountRepo *repository.AccountRepository,
	contactRepo *repository.ContactRepository,
	opportunityRepo *repository.OpportunityRepository,
	logger *zap.Logger,
) *ValidationService {
	return &ValidationService{
		accountRepo:     accountRepo,
		contactRepo:     contactRepo,
		opportunityRepo: opportunityRepo,
		logger:          logger,
	}
}

// AccountInput is the subset of account fields the checks look at
type AccountInput struct {
	Name     string
	Industry string
	City     string
	State    string
}

// ContactInput is the subset of contact fields the checks look at
type ContactInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Mobile    string
	AccountID *uuid.UUID
}

// OpportunityInput is the subset of opportunity fields the checks look at.
// LVValue and HDDValue arrive as the raw strings users type, commas and all.
type OpportunityInput struct {
	Name       string
	AccountID  uuid.UUID
	Stage      domain.OpportunityStage
	Owner      string
	LVValue    *string
	HDDValue   *string
	BidDate    *time.Time
	BidDateTBD bool
}

// ValidateAccount checks an account before create or update. Pass the
// record's ID on update so it does not collide with itself.
func (s *ValidationService) ValidateAccount(ctx context.Context, input *AccountInput, existingID *uuid.UUID) (*domain.ValidationResult, error) {
	result := &domain.ValidationResult{}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		result.AddError("Account name is required")
	}
	if strings.TrimSpace(input.Industry) == "" {
		result.AddError("Industry is required")
	}
	city := strings.TrimSpace(input.City)
	state := strings.TrimSpace(input.State)
	if city == "" {
		result.AddError("City is required")
	}
	if state == "" {
		result.AddError("State is required")
	}

	if name != "" {
		matches, err := s.accountRepo.FindByName(ctx, name, existingID)
		if err != nil {
			return nil, fmt.Errorf("failed to check account name: %w", err)
		}
		if len(matches) > 0 {
			result.AddWarning(fmt.Sprintf("An account named '%s' already exists", matches[0].Name))
		}
	}

	if city != "" && state != "" {
		nearby, err := s.accountRepo.FindByCityState(ctx, city, state, name, existingID)
		if err != nil {
			return nil, fmt.Errorf("failed to check account location: %w", err)
		}
		if len(nearby) > 0 {
			names := make([]string, len(nearby))
			for i, a := range nearby {
				names[i] = a.Name
			}
			result.AddWarning(fmt.Sprintf("Other accounts in %s, %s: %s", city, state, strings.Join(names, ", ")))
		}
	}

	return result, nil
}

// ValidateContact checks a contact before create or update
func (s *ValidationService) ValidateContact(ctx context.Context, input *ContactInput, existingID *uuid.UUID) (*domain.ValidationResult, error) {
	result := &domain.ValidationResult{}

	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	if firstName == "" {
		result.AddError("First name is required")
	}
	if lastName == "" {
		result.AddError("Last name is required")
	}
	if input.AccountID == nil {
		result.AddError("Contact must belong to an account")
	}

	email := strings.TrimSpace(input.Email)
	if email == "" && strings.TrimSpace(input.Phone) == "" && strings.TrimSpace(input.Mobile) == "" {
		result.AddError("At least one contact method (email, phone or mobile) is required")
	}

	if email != "" {
		matches, err := s.contactRepo.FindByEmail(ctx, email, existingID)
		if err != nil {
			return nil, fmt.Errorf("failed to check contact email: %w", err)
		}
		if len(matches) > 0 {
			result.AddError(fmt.Sprintf("A contact with email '%s' already exists: %s", email, matches[0].FullName()))
		}
	}

	if firstName != "" && lastName != "" && input.AccountID != nil {
		matches, err := s.contactRepo.FindByNameInAccount(ctx, firstName, lastName, *input.AccountID, existingID)
		if err != nil {
			return nil, fmt.Errorf("failed to check contact name: %w", err)
		}
		if len(matches) > 0 {
			result.AddWarning(fmt.Sprintf("A contact named %s %s already exists on this account", firstName, lastName))
		}
	}

	return result, nil
}

// ValidateOpportunity checks an opportunity before create or update
func (s *ValidationService) ValidateOpportunity(ctx context.Context, input *OpportunityInput, existingID *uuid.UUID) (*domain.ValidationResult, error) {
	result := &domain.ValidationResult{}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		result.AddError("Opportunity name is required")
	}
	if input.AccountID == uuid.Nil {
		result.AddError("Opportunity must belong to an account")
	}
	if input.Stage == "" {
		result.AddError("Stage is required")
	} else if !input.Stage.IsValid() {
		result.AddError(fmt.Sprintf("Unknown stage '%s'", input.Stage))
	}
	if strings.TrimSpace(input.Owner) == "" {
		result.AddError("Owner is required")
	}
	if input.BidDate == nil && !input.BidDateTBD {
		result.AddError("Bid date is required unless marked TBD")
	}

	if _, err := ParseMoney(input.LVValue); err != nil {
		result.AddError("LV value must be a non-negative number")
	}
	if _, err := ParseMoney(input.HDDValue); err != nil {
		result.AddError("HDD value must be a non-negative number")
	}

	if name != "" && input.AccountID != uuid.Nil {
		cutoff := time.Now().UTC().Add(-duplicateOpportunityWindow)
		matches, err := s.opportunityRepo.FindRecentByNameAndAccount(ctx, name, input.AccountID, cutoff, existingID)
		if err != nil {
			return nil, fmt.Errorf("failed to check opportunity name: %w", err)
		}
		if len(matches) > 0 {
			result.AddWarning(fmt.Sprintf("An opportunity named '%s' was created for this account in the last 7 days", name))
		}
	}

	return result, nil
}

// ParseMoney parses a user-entered currency value. Commas, dollar signs and
// surrounding whitespace are tolerated; empty or nil means no value. Negative
// amounts are rejected.
func ParseMoney(raw *string) (decimal.NullDecimal, error) {
	if raw == nil {
		return decimal.NullDecimal{}, nil
	}
	cleaned := strings.TrimSpace(*raw)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimPrefix(cleaned, "$")
	if cleaned == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid amount %q: %w", *raw, err)
	}
	if d.IsNegative() {
		return decimal.NullDecimal{}, fmt.Errorf("amount %q is negative", *raw)
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}

// gate converts a validation result into the error the handlers expect: a
// blocking error always fails, warnings fail unless the caller confirmed them.
func gate(result *domain.ValidationResult, confirmed bool) error {
	if !result.IsValid() {
		return NewValidationError(result)
	}
	if result.HasWarnings() && !confirmed {
		return NewValidationError(result)
	}
	return nil
}
