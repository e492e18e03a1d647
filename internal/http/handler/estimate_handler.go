package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bidline/crm-api/internal/domain"
	"github.com/bidline/crm-api/internal/service"
)

// EstimateHandler handles HTTP requests for estimates and their line items
type EstimateHandler struct {
	estimateService *service.EstimateService
	logger          *zap.Logger
}

// NewEstimateHandler creates a new EstimateHandler
func NewEstimateHandler(estimateService *service.EstimateService, logger *zap.Logger) *EstimateHandler {
	return &EstimateHandler{estimateService: estimateService, logger: logger}
}

// CreateEstimate godoc
// @Summary Create estimate
// @Description Create a new estimate version for an opportunity
// @Tags Estimates
// @Accept json
// @Produce json
// @Param body body domain.CreateEstimateRequest true "Estimate"
// @Success 201 {object} domain.EstimateDTO
// @Security BearerAuth
// @Router /estimates [post]
func (h *EstimateHandler) CreateEstimate(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateEstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	estimate, err := h.estimateService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err, "Failed to create estimate")
		return
	}
	respondJSON(w, http.StatusCreated, estimate)
}

// GetEstimate godoc
// @Summary Get estimate
// @Tags Estimates
// @Produce json
// @Param id path string true "Estimate ID"
// @Success 200 {object} domain.EstimateDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /estimates/{id} [get]
func (h *EstimateHandler) GetEstimate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid estimate ID")
		return
	}

	estimate, err := h.estimateService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "Failed to get estimate")
		return
	}
	respondJSON(w, http.StatusOK, estimate)
}

// UpdateEstimate godoc
// @Summary Update estimate
// @Description Edit name, status, notes or margin. A margin change
// @Description recomputes the totals.
// @Tags Estimates
// @Accept json
// @Produce json
// @Param id path string true "Estimate ID"
// @Param body body domain.UpdateEstimateRequest true "Estimate"
// @Success 200 {object} domain.EstimateDTO
// @Security BearerAuth
// @Router /estimates/{id} [put]
func (h *EstimateHandler) UpdateEstimate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid estimate ID")
		return
	}

	var req domain.UpdateEstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	estimate, err := h.estimateService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err, "Failed to update estimate")
		return
	}
	respondJSON(w, http.StatusOK, estimate)
}

// DeleteEstimate godoc
// @Summary Delete estimate
// @Tags Estimates
// @Param id path string true "Estimate ID"
// @Success 204
// @Security BearerAuth
// @Router /estimates/{id} [delete]
func (h *EstimateHandler) DeleteEstimate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid estimate ID")
		return
	}

	if err := h.estimateService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err, "Failed to delete estimate")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CopyEstimate godoc
// @Summary Copy estimate to a new version
// @Tags Estimates
// @Produce json
// @Param id path string true "Estimate ID"
// @Success 201 {object} domain.EstimateDTO
// @Security BearerAuth
// @Router /estimates/{id}/copy [post]
func (h *EstimateHandler) CopyEstimate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid estimate ID")
		return
	}

	estimate, err := h.estimateService.CopyVersion(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "Failed to copy estimate")
		return
	}
	respondJSON(w, http.StatusCreated, estimate)
}

// AddLineItem godoc
// @Summary Add line item
// @Description Append a line item; the estimate's totals are recomputed
// @Tags Estimates
// @Accept json
// @Produce json
// @Param id path string true "Estimate ID"
// @Param body body domain.CreateLineItemRequest true "Line item"
// @Success 200 {object} domain.EstimateDTO
// @Security BearerAuth
// @Router /estimates/{id}/line-items [post]
func (h *EstimateHandler) AddLineItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid estimate ID")
		return
	}

	var req domain.CreateLineItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	estimate, err := h.estimateService.AddLineItem(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err, "Failed to add line item")
		return
	}
	respondJSON(w, http.StatusOK, estimate)
}

// UpdateLineItem godoc
// @Summary Update line item
// @Tags Estimates
// @Accept json
// @Produce json
// @Param itemId path string true "Line item ID"
// @Param body body domain.UpdateLineItemRequest true "Line item"
// @Success 200 {object} domain.EstimateDTO
// @Security BearerAuth
// @Router /estimates/line-items/{itemId} [put]
func (h *EstimateHandler) UpdateLineItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid line item ID")
		return
	}

	var req domain.UpdateLineItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	estimate, err := h.estimateService.UpdateLineItem(r.Context(), itemID, &req)
	if err != nil {
		respondServiceError(w, err, "Failed to update line item")
		return
	}
	respondJSON(w, http.StatusOK, estimate)
}

// DeleteLineItem godoc
// @Summary Delete line item
// @Tags Estimates
// @Produce json
// @Param itemId path string true "Line item ID"
// @Success 200 {object} domain.EstimateDTO
// @Security BearerAuth
// @Router /estimates/line-items/{itemId} [delete]
func (h *EstimateHandler) DeleteLineItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid line item ID")
		return
	}

	estimate, err := h.estimateService.DeleteLineItem(r.Context(), itemID)
	if err != nil {
		respondServiceError(w, err, "Failed to delete line item")
		return
	}
	respondJSON(w, http.StatusOK, estimate)
}
