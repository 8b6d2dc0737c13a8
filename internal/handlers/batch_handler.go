package handlers

import (
	"net/http"

	"garment-backend/internal/models"
	"garment-backend/internal/services"
	"garment-backend/pkg/utils"
)

type BatchHandler struct {
	Service  *services.BatchService
	Progress ProgressNotifier
}

func NewBatchHandler(s *services.BatchService, progress ProgressNotifier) *BatchHandler {
	return &BatchHandler{Service: s, Progress: progress}
}

func (h *BatchHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBatchRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	batch, err := h.Service.CreateBatch(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusCreated, batch)
}

func (h *BatchHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	batch, err := h.Service.GetBatch(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, batch)
}

func (h *BatchHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.Service.ListBatches(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, batches)
}

// CompleteCutting freezes the cut quantity of a batch
func (h *BatchHandler) CompleteCutting(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.CompleteCuttingRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	batch, update, err := h.Service.CompleteCutting(r.Context(), id, req.CutQuantity)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	notifyProgress(h.Progress, update)
	utils.JSON(w, http.StatusOK, batch)
}

func (h *BatchHandler) GetCapacity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	capacity, err := h.Service.Capacity(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, capacity)
}

func (h *BatchHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	entries, err := h.Service.ListEntries(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, entries)
}
