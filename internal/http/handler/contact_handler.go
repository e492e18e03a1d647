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

// ContactHandler handles HTTP requests for contacts
type ContactHandler struct {
	contactService  *service.ContactService
	activityService *service.ActivityService
	logger          *zap.Logger
}

// NewContactHandler creates a new ContactHandler
func NewContactHandler(contactService *service.ContactService, activityService *service.ActivityService, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{
		contactService:  contactService,
		activityService: activityService,
		logger:          logger,
	}
}

// ListContacts godoc
// @Summary List contacts
// @Description Get paginated list of contacts
// @Tags Contacts
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page" default(20)
// @Success 200 {object} domain.PaginatedResponse
// @Security BearerAuth
// @Router /contacts [get]
func (h *ContactHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)

	result, err := h.contactService.List(r.Context(), page, pageSize)
	if err != nil {
		h.logger.Error("failed to list contacts", zap.Error(err))
		respondServiceError(w, err, "Failed to list contacts")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetContact godoc
// @Summary Get contact
// @Tags Contacts
// @Produce json
// @Param id path string true "Contact ID"
// @Success 200 {object} domain.ContactDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /contacts/{id} [get]
func (h *ContactHandler) GetContact(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid contact ID")
		return
	}

	contact, err := h.contactService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "Failed to get contact")
		return
	}
	respondJSON(w, http.StatusOK, contact)
}

// CreateContact godoc
// @Summary Create contact
// @Description Create a new contact. Returns 422 with warnings when the
// @Description data needs a confirmed resubmit.
// @Tags Contacts
// @Accept json
// @Produce json
// @Param body body domain.CreateContactRequest true "Contact"
// @Success 201 {object} domain.ContactDTO
// @Failure 422 {object} domain.APIError
// @Security BearerAuth
// @Router /contacts [post]
func (h *ContactHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	contact, err := h.contactService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err, "Failed to create contact")
		return
	}
	respondJSON(w, http.StatusCreated, contact)
}

// UpdateContact godoc
// @Summary Update contact
// @Tags Contacts
// @Accept json
// @Produce json
// @Param id path string true "Contact ID"
// @Param body body domain.UpdateContactRequest true "Contact"
// @Success 200 {object} domain.ContactDTO
// @Failure 422 {object} domain.APIError
// @Security BearerAuth
// @Router /contacts/{id} [put]
func (h *ContactHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid contact ID")
		return
	}

	var req domain.UpdateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	contact, err := h.contactService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err, "Failed to update contact")
		return
	}
	respondJSON(w, http.StatusOK, contact)
}

// DeleteContact godoc
// @Summary Delete contact
// @Tags Contacts
// @Param id path string true "Contact ID"
// @Success 204
// @Security BearerAuth
// @Router /contacts/{id} [delete]
func (h *ContactHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid contact ID")
		return
	}

	if err := h.contactService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err, "Failed to delete contact")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchContacts godoc
// @Summary Search contacts
// @Tags Contacts
// @Produce json
// @Param q query string true "Search query"
// @Param limit query int false "Max results" default(20)
// @Success 200 {array} domain.ContactDTO
// @Security BearerAuth
// @Router /contacts/search [get]
func (h *ContactHandler) SearchContacts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	contacts, err := h.contactService.Search(r.Context(), query, limit)
	if err != nil {
		respondServiceError(w, err, "Failed to search contacts")
		return
	}
	respondJSON(w, http.StatusOK, contacts)
}

// LogContact godoc
// @Summary Log a touch on a contact
// @Description Record an outreach touch and move the contact's follow-up date
// @Tags Contacts
// @Accept json
// @Produce json
// @Param id path string true "Contact ID"
// @Param body body domain.LogContactRequest true "Touch"
// @Success 200 {object} domain.ContactDTO
// @Security BearerAuth
// @Router /contacts/{id}/log-contact [post]
func (h *ContactHandler) LogContact(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid contact ID")
		return
	}

	var req domain.LogContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	contact, err := h.contactService.LogContact(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err, "Failed to log contact")
		return
	}
	respondJSON(w, http.StatusOK, contact)
}

// ListContactActivities godoc
// @Summary List contact activities
// @Tags Contacts
// @Produce json
// @Param id path string true "Contact ID"
// @Param limit query int false "Max results"
// @Success 200 {array} domain.ActivityDTO
// @Security BearerAuth
// @Router /contacts/{id}/activities [get]
func (h *ContactHandler) ListContactActivities(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid contact ID")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	activities, err := h.activityService.ListByContact(r.Context(), id, limit)
	if err != nil {
		respondServiceError(w, err, "Failed to list activities")
		return
	}
	respondJSON(w, http.StatusOK, activities)
}

// ListDueContacts godoc
// @Summary List contacts due for follow-up
// @Tags Contacts
// @Produce json
// @Success 200 {array} domain.ContactDTO
// @Security BearerAuth
// @Router /contacts/due [get]
func (h *ContactHandler) ListDueContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.contactService.ListDueForFollowup(r.Context())
	if err != nil {
		respondServiceError(w, err, "Failed to list due contacts")
		return
	}
	respondJSON(w, http.StatusOK, contacts)
}
