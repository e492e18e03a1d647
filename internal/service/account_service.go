package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bidline/crm-api/internal/domain"
	"github.com/bidline/crm-api/internal/mapper"
	"github.com/bidline/crm-api/internal/repository"
)

type AccountService struct {
	accountRepo     *repository.AccountRepository
	opportunityRepo *repository.OpportunityRepository
	validation      *ValidationService
	logger          *zap.Logger
}

func NewAccountService(
	accountRepo *repository.AccountRepository,
	opportunityRepo *repository.OpportunityRepository,
	validation *ValidationService,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{
		accountRepo:     accountRepo,
		opportunityRepo: opportunityRepo,
		validation:      validation,
		logger:          logger,
	}
}

func (s *AccountService) Create(ctx context.Context, req *domain.CreateAccountRequest) (*domain.AccountDTO, error) {
	input := &AccountInput{
		Name:     req.Name,
		Industry: req.Industry,
		City:     req.City,
		State:    req.State,
	}
	result, err := s.validation.ValidateAccount(ctx, input, nil)
	if err != nil {
		return nil, err
	}
	if err := gate(result, req.ConfirmWarnings); err != nil {
		return nil, err
	}

	account := &domain.Account{
		Name:        req.Name,
		AccountType: req.AccountType,
		Industry:    req.Industry,
		Address:     req.Address,
		City:        req.City,
		State:       req.State,
		ZipCode:     req.ZipCode,
		Phone:       req.Phone,
		Website:     req.Website,
		Notes:       req.Notes,
		IsHot:       req.IsHot,
		NextAction:  req.NextAction,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.Info("account created",
		zap.String("account_id", account.ID.String()),
		zap.String("name", account.Name))

	dto := mapper.ToAccountDTO(account, nil)
	return &dto, nil
}

func (s *AccountService) GetByID(ctx context.Context, id uuid.UUID) (*domain.AccountDTO, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	opps, err := s.opportunityRepo.ListByAccount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load account opportunities: %w", err)
	}

	dto := mapper.ToAccountDTO(account, opps)
	return &dto, nil
}

func (s *AccountService) List(ctx context.Context, page, pageSize int) (*domain.PaginatedResponse, error) {
	accounts, total, err := s.accountRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	dtos := make([]domain.AccountDTO, len(accounts))
	for i := range accounts {
		dtos[i] = mapper.ToAccountDTO(&accounts[i], nil)
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

func (s *AccountService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateAccountRequest) (*domain.AccountDTO, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	input := &AccountInput{
		Name:     req.Name,
		Industry: req.Industry,
		City:     req.City,
		State:    req.State,
	}
	result, err := s.validation.ValidateAccount(ctx, input, &id)
	if err != nil {
		return nil, err
	}
	if err := gate(result, req.ConfirmWarnings); err != nil {
		return nil, err
	}

	account.Name = req.Name
	account.AccountType = req.AccountType
	account.Industry = req.Industry
	account.Address = req.Address
	account.City = req.City
	account.State = req.State
	account.ZipCode = req.ZipCode
	account.Phone = req.Phone
	account.Website = req.Website
	account.Notes = req.Notes
	account.NextAction = req.NextAction
	if req.IsHot != nil {
		account.IsHot = *req.IsHot
	}

	if err := s.accountRepo.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}

	opps, err := s.opportunityRepo.ListByAccount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load account opportunities: %w", err)
	}

	dto := mapper.ToAccountDTO(account, opps)
	return &dto, nil
}

func (s *AccountService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.accountRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get account: %w", err)
	}
	if err := s.accountRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	s.logger.Info("account deleted", zap.String("account_id", id.String()))
	return nil
}

// Search returns accounts matching the query across name, city and industry
func (s *AccountService) Search(ctx context.Context, query string, limit int) ([]domain.AccountDTO, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	accounts, err := s.accountRepo.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search accounts: %w", err)
	}
	dtos := make([]domain.AccountDTO, len(accounts))
	for i := range accounts {
		dtos[i] = mapper.ToAccountDTO(&accounts[i], nil)
	}
	return dtos, nil
}

// ListHot returns accounts flagged as hot prospects
func (s *AccountService) ListHot(ctx context.Context) ([]domain.AccountDTO, error) {
	accounts, err := s.accountRepo.ListHot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list hot accounts: %w", err)
	}
	dtos := make([]domain.AccountDTO, len(accounts))
	for i := range accounts {
		dtos[i] = mapper.ToAccountDTO(&accounts[i], nil)
	}
	return dtos, nil
}
