package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bidline/crm-api/internal/domain"
	"github.com/bidline/crm-api/internal/service"
)

// AccountHandler handles HTTP requests for accounts
type AccountHandler struct {
	accountService *service.AccountService
	contactService *service.ContactService
	logger         *zap.Logger
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountService *service.AccountService, contactService *service.ContactService, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		contactService: contactService,
		logger:         logger,
	}
}

// ListAccounts godoc
// @Summary List accounts
// @Description Get paginated list of accounts
// @Tags Accounts
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page" default(20)
// @Success 200 {object} domain.PaginatedResponse
// @Security BearerAuth
// @Router /accounts [get]
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)

	result, err := h.accountService.List(r.Context(), page, pageSize)
	if err != nil {
		h.logger.Error("failed to list accounts", zap.Error(err))
		respondServiceError(w, err, "Failed to list accounts")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetAccount godoc
// @Summary Get account
// @Description Get one account with its contacts and pipeline rollups
// @Tags Accounts
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} domain.AccountDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /accounts/{id} [get]
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid account ID")
		return
	}

	account, err := h.accountService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "Failed to get account")
		return
	}
	respondJSON(w, http.StatusOK, account)
}

// CreateAccount godoc
// @Summary Create account
// @Description Create a new account. Returns 422 with warnings when the
// @Description data needs a confirmed resubmit.
// @Tags Accounts
// @Accept json
// @Produce json
// @Param body body domain.CreateAccountRequest true "Account"
// @Success 201 {object} domain.AccountDTO
// @Failure 422 {object} domain.APIError
// @Security BearerAuth
// @Router /accounts [post]
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	account, err := h.accountService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err, "Failed to create account")
		return
	}
	respondJSON(w, http.StatusCreated, account)
}

// UpdateAccount godoc
// @Summary Update account
// @Tags Accounts
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param body body domain.UpdateAccountRequest true "Account"
// @Success 200 {object} domain.AccountDTO
// @Failure 422 {object} domain.APIError
// @Security BearerAuth
// @Router /accounts/{id} [put]
func (h *AccountHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid account ID")
		return
	}

	var req domain.UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	account, err := h.accountService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err, "Failed to update account")
		return
	}
	respondJSON(w, http.StatusOK, account)
}

// DeleteAccount godoc
// @Summary Delete account
// @Tags Accounts
// @Param id path string true "Account ID"
// @Success 204
// @Security BearerAuth
// @Router /accounts/{id} [delete]
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid account ID")
		return
	}

	if err := h.accountService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err, "Failed to delete account")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchAccounts godoc
// @Summary Search accounts
// @Tags Accounts
// @Produce json
// @Param q query string true "Search query"
// @Param limit query int false "Max results" default(20)
// @Success 200 {array} domain.AccountDTO
// @Security BearerAuth
// @Router /accounts/search [get]
func (h *AccountHandler) SearchAccounts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	accounts, err := h.accountService.Search(r.Context(), query, limit)
	if err != nil {
		h.logger.Error("failed to search accounts", zap.Error(err))
		respondServiceError(w, err, "Failed to search accounts")
		return
	}
	respondJSON(w, http.StatusOK, accounts)
}

// ListHotAccounts godoc
// @Summary List hot accounts
// @Tags Accounts
// @Produce json
// @Success 200 {array} domain.AccountDTO
// @Security BearerAuth
// @Router /accounts/hot [get]
func (h *AccountHandler) ListHotAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountService.ListHot(r.Context())
	if err != nil {
		respondServiceError(w, err, "Failed to list hot accounts")
		return
	}
	respondJSON(w, http.StatusOK, accounts)
}

// ListAccountContacts godoc
// @Summary List account contacts
// @Tags Accounts
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {array} domain.ContactDTO
// @Security BearerAuth
// @Router /accounts/{id}/contacts [get]
func (h *AccountHandler) ListAccountContacts(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid account ID")
		return
	}

	contacts, err := h.contactService.ListByAccount(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "Failed to list contacts")
		return
	}
	respondJSON(w, http.StatusOK, contacts)
}

// pagination reads the shared page/pageSize query parameters
func pagination(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 200 {
		pageSize = 200
	}
	return page, pageSize
}
