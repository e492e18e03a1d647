package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bidline/crm-api/internal/domain"
	"github.com/bidline/crm-api/internal/repository"
	"github.com/bidline/crm-api/internal/service"
)

// OpportunityHandler handles HTTP requests for opportunities
type OpportunityHandler struct {
	opportunityService *service.OpportunityService
	activityService    *service.ActivityService
	estimateService    *service.EstimateService
	taskService        *service.TaskService
	logger             *zap.Logger
}

// NewOpportunityHandler creates a new OpportunityHandler
func NewOpportunityHandler(
	opportunityService *service.OpportunityService,
	activityService *service.ActivityService,
	estimateService *service.EstimateService,
	taskService *service.TaskService,
	logger *zap.Logger,
) *OpportunityHandler {
	return &OpportunityHandler{
		opportunityService: opportunityService,
		activityService:    activityService,
		estimateService:    estimateService,
		taskService:        taskService,
		logger:             logger,
	}
}

// ListOpportunities godoc
// @Summary List opportunities
// @Description Get paginated opportunities with optional filters
// @Tags Opportunities
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page" default(20)
// @Param stage query string false "Filter by stage"
// @Param accountId query string false "Filter by account"
// @Param owner query string false "Filter by owner"
// @Param search query string false "Search by name"
// @Param open query bool false "Only open opportunities"
// @Success 200 {object} domain.PaginatedResponse
// @Security BearerAuth
// @Router /opportunities [get]
func (h *OpportunityHandler) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)

	filters := &repository.OpportunityFilters{
		Owner:  r.URL.Query().Get("owner"),
		Search: r.URL.Query().Get("search"),
	}
	if stage := r.URL.Query().Get("stage"); stage != "" {
		st := domain.OpportunityStage(stage)
		if !st.IsValid() {
			respondWithError(w, http.StatusBadRequest, "Invalid stage")
			return
		}
		filters.Stage = &st
	}
	if accountID := r.URL.Query().Get("accountId"); accountID != "" {
		id, err := uuid.Parse(accountID)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid accountId: must be a valid UUID")
			return
		}
		filters.AccountID = &id
	}
	if open, _ := strconv.ParseBool(r.URL.Query().Get("open")); open {
		filters.OpenOnly = true
	}

	result, err := h.opportunityService.List(r.Context(), page, pageSize, filters)
	if err != nil {
		h.logger.Error("failed to list opportunities", zap.Error(err))
		respondServiceError(w, err, "Failed to list opportunities")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetOpportunity godoc
// @Summary Get opportunity
// @Tags Opportunities
// @Produce json
// @Param id path string true "Opportunity ID"
// @Success 200 {object} domain.OpportunityDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /opportunities/{id} [get]
func (h *OpportunityHandler) GetOpportunity(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid opportunity ID")
		return
	}

	opp, err := h.opportunityService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "Failed to get opportunity")
		return
	}
	respondJSON(w, http.StatusOK, opp)
}

// GetPipeline godoc
// @Summary Pipeline view
// @Description Open opportunities grouped by stage
// @Tags Opportunities
// @Produce json
// @Success 200 {object} map[string][]domain.OpportunityDTO
// @Security BearerAuth
// @Router /opportunities/pipeline [get]
func (h *OpportunityHandler) GetPipeline(w http.ResponseWriter, r *http.Request) {
	pipeline, err := h.opportunityService.Pipeline(r.Context())
	if err != nil {
		respondServiceError(w, err, "Failed to build pipeline")
		return
	}
	respondJSON(w, http.StatusOK, pipeline)
}

// CreateOpportunity godoc
// @Summary Create opportunity
// @Description Create a new opportunity. Returns 422 with warnings when the
// @Description data needs a confirmed resubmit.
// @Tags Opportunities
// @Accept json
// @Produce json
// @Param body body domain.CreateOpportunityRequest true "Opportunity"
// @Success 201 {object} domain.OpportunityDTO
// @Failure 422 {object} domain.APIError
// @Security BearerAuth
// @Router /opportunities [post]
func (h *OpportunityHandler) CreateOpportunity(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOpportunityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	opp, err := h.opportunityService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err, "Failed to create opportunity")
		return
	}
	respondJSON(w, http.StatusCreated, opp)
}

// UpdateOpportunity godoc
// @Summary Update opportunity
// @Tags Opportunities
// @Accept json
// @Produce json
// @Param id path string true "Opportunity ID"
// @Param body body domain.UpdateOpportunityRequest true "Opportunity"
// @Success 200 {object} domain.OpportunityDTO
// @Failure 422 {object} domain.APIError
// @Security BearerAuth
// @Router /opportunities/{id} [put]
func (h *OpportunityHandler) UpdateOpportunity(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid opportunity ID")
		return
	}

	var req domain.UpdateOpportunityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	opp, err := h.opportunityService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err, "Failed to update opportunity")
		return
	}
	respondJSON(w, http.StatusOK, opp)
}

// UpdateStage godoc
// @Summary Change opportunity stage
// @Description Move an opportunity to a new stage. Writes a stage-change
// @Description activity and recomputes the follow-up date.
// @Tags Opportunities
// @Accept json
// @Produce json
// @Param id path string true "Opportunity ID"
// @Param body body domain.UpdateStageRequest true "Stage"
// @Success 200 {object} domain.OpportunityDTO
// @Security BearerAuth
// @Router /opportunities/{id}/stage [put]
func (h *OpportunityHandler) UpdateStage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid opportunity ID")
		return
	}

	var req domain.UpdateStageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	opp, err := h.opportunityService.UpdateStage(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err, "Failed to update stage")
		return
	}
	respondJSON(w, http.StatusOK, opp)
}

// LogContact godoc
// @Summary Log a touch on an opportunity
// @Tags Opportunities
// @Accept json
// @Produce json
// @Param id path string true "Opportunity ID"
// @Param body body domain.LogContactRequest true "Touch"
// @Success 200 {object} domain.OpportunityDTO
// @Security BearerAuth
// @Router /opportunities/{id}/log-contact [post]
func (h *OpportunityHandler) LogContact(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid opportunity ID")
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

	opp, err := h.opportunityService.LogContact(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err, "Failed to log contact")
		return
	}
	respondJSON(w, http.StatusOK, opp)
}

// DeleteOpportunity godoc
// @Summary Delete opportunity
// @Tags Opportunities
// @Param id path string true "Opportunity ID"
// @Success 204
// @Security BearerAuth
// @Router /opportunities/{id} [delete]
func (h *OpportunityHandler) DeleteOpportunity(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid opportunity ID")
		return
	}

	if err := h.opportunityService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err, "Failed to delete opportunity")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListOpportunityActivities godoc
// @Summary List opportunity activities
// @Tags Opportunities
// @Produce json
// @Param id path string true "Opportunity ID"
// @Param limit query int false "Max results"
// @Success 200 {array} domain.ActivityDTO
// @Security BearerAuth
// @Router /opportunities/{id}/activities [get]
func (h *OpportunityHandler) ListOpportunityActivities(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid opportunity ID")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	activities, err := h.activityService.ListByOpportunity(r.Context(), id, limit)
	if err != nil {
		respondServiceError(w, err, "Failed to list activities")
		return
	}
	respondJSON(w, http.StatusOK, activities)
}

// ListOpportunityEstimates godoc
// @Summary List opportunity estimates
// @Tags Opportunities
// @Produce json
// @Param id path string true "Opportunity ID"
// @Success 200 {array} domain.EstimateDTO
// @Security BearerAuth
// @Router /opportunities/{id}/estimates [get]
func (h *OpportunityHandler) ListOpportunityEstimates(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid opportunity ID")
		return
	}

	estimates, err := h.estimateService.ListByOpportunity(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "Failed to list estimates")
		return
	}
	respondJSON(w, http.StatusOK, estimates)
}

// ListOpportunityTasks godoc
// @Summary List opportunity tasks
// @Tags Opportunities
// @Produce json
// @Param id path string true "Opportunity ID"
// @Success 200 {array} domain.TaskDTO
// @Security BearerAuth
// @Router /opportunities/{id}/tasks [get]
func (h *OpportunityHandler) ListOpportunityTasks(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid opportunity ID")
		return
	}

	tasks, err := h.taskService.ListByOpportunity(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "Failed to list tasks")
		return
	}
	respondJSON(w, http.StatusOK, tasks)
}
