package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/bidline/crm-api/internal/auth"
	"github.com/bidline/crm-api/internal/domain"
	"github.com/bidline/crm-api/internal/service"
)

// defaultSummaryWindow is how far back a summary looks when the caller does
// not say
const defaultSummaryWindow = 7 * 24 * time.Hour

// SummaryHandler handles HTTP requests for the pipeline summaries
type SummaryHandler struct {
	summaryService *service.SummaryService
	logger         *zap.Logger
}

// NewSummaryHandler creates a new SummaryHandler
func NewSummaryHandler(summaryService *service.SummaryService, logger *zap.Logger) *SummaryHandler {
	return &SummaryHandler{summaryService: summaryService, logger: logger}
}

func sinceParam(r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("since")
	if raw == "" {
		return time.Now().UTC().Add(-defaultSummaryWindow), true
	}
	since, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return since, true
}

// PersonalSummary godoc
// @Summary Personal pipeline summary
// @Description The caller's pipeline changes (minus dismissed rows),
// @Description follow-ups by urgency, open tasks and weekly notes
// @Tags Summary
// @Produce json
// @Param since query string false "Cutoff date (YYYY-MM-DD), defaults to 7 days ago"
// @Success 200 {object} domain.SummaryDTO
// @Security BearerAuth
// @Router /summary/me [get]
func (h *SummaryHandler) PersonalSummary(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	since, ok := sinceParam(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid since date, use YYYY-MM-DD")
		return
	}

	summary, err := h.summaryService.PersonalSummary(r.Context(), userCtx.UserID, since)
	if err != nil {
		h.logger.Error("failed to build personal summary", zap.Error(err))
		respondServiceError(w, err, "Failed to build summary")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// TeamSummary godoc
// @Summary Team pipeline summary
// @Description The whole team's pipeline changes and follow-ups. Personal
// @Description dismissals do not apply here.
// @Tags Summary
// @Produce json
// @Param since query string false "Cutoff date (YYYY-MM-DD), defaults to 7 days ago"
// @Success 200 {object} domain.SummaryDTO
// @Security BearerAuth
// @Router /summary/team [get]
func (h *SummaryHandler) TeamSummary(w http.ResponseWriter, r *http.Request) {
	since, ok := sinceParam(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid since date, use YYYY-MM-DD")
		return
	}

	summary, err := h.summaryService.TeamSummary(r.Context(), since)
	if err != nil {
		h.logger.Error("failed to build team summary", zap.Error(err))
		respondServiceError(w, err, "Failed to build summary")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// SuppressOpportunity godoc
// @Summary Dismiss an opportunity from my summary
// @Description Hide an opportunity from the caller's personal summary until
// @Description its stage changes again
// @Tags Summary
// @Accept json
// @Param body body domain.SuppressOpportunityRequest true "Opportunity"
// @Success 204
// @Security BearerAuth
// @Router /summary/suppress [post]
func (h *SummaryHandler) SuppressOpportunity(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req domain.SuppressOpportunityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	if err := h.summaryService.Suppress(r.Context(), userCtx.UserID, req.OpportunityID); err != nil {
		respondServiceError(w, err, "Failed to suppress opportunity")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaveWeeklyNotes godoc
// @Summary Save weekly notes
// @Tags Summary
// @Accept json
// @Param body body domain.SaveWeeklyNotesRequest true "Notes"
// @Success 204
// @Security BearerAuth
// @Router /summary/notes [put]
func (h *SummaryHandler) SaveWeeklyNotes(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req domain.SaveWeeklyNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	if err := h.summaryService.SaveWeeklyNotes(r.Context(), userCtx.UserID, &req); err != nil {
		respondServiceError(w, err, "Failed to save notes")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
