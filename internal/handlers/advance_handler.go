package handlers

import (
	"net/http"

	"garment-backend/internal/models"
	"garment-backend/internal/services"
	"garment-backend/pkg/utils"
)

type AdvanceHandler struct {
	Service *services.AdvanceService
}

func NewAdvanceHandler(s *services.AdvanceService) *AdvanceHandler {
	return &AdvanceHandler{Service: s}
}

func (h *AdvanceHandler) RecordAdvance(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAdvanceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	advance, err := h.Service.RecordAdvance(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusCreated, advance)
}

func (h *AdvanceHandler) ListByEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	advances, err := h.Service.ListByEmployee(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if advances == nil {
		advances = []models.Advance{}
	}
	utils.JSON(w, http.StatusOK, advances)
}

// Unsettled returns what a settlement with deduction would consume right now
func (h *AdvanceHandler) Unsettled(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	summary, err := h.Service.Summary(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, summary)
}
