package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"garment-backend/internal/models"
	"garment-backend/internal/services"
	"garment-backend/pkg/utils"
)

type SettlementHandler struct {
	Service  *services.SettlementService
	Slips    *services.SlipService
	Export   *services.ExportService
	Progress ProgressNotifier
}

func NewSettlementHandler(s *services.SettlementService, slips *services.SlipService, export *services.ExportService, progress ProgressNotifier) *SettlementHandler {
	return &SettlementHandler{Service: s, Slips: slips, Export: export, Progress: progress}
}

// Settle commits a settlement. Every rejected row is returned at once with 422.
func (h *SettlementHandler) Settle(w http.ResponseWriter, r *http.Request) {
	var req models.SettleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	detail, err := h.Service.Settle(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	notifyProgress(h.Progress, detail.ProgressUpdates...)
	utils.JSON(w, http.StatusCreated, detail)
}

// Preview validates and prices a request without writing anything
func (h *SettlementHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req models.SettleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	preview, err := h.Service.Preview(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, preview)
}

func (h *SettlementHandler) GetSettlement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	detail, err := h.Service.GetSettlement(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, detail)
}

func (h *SettlementHandler) ListByEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	settlements, err := h.Service.ListByEmployee(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, settlements)
}

// ReverseSettlement undoes a settlement: entries removed, advances released
func (h *SettlementHandler) ReverseSettlement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	reversed, updates, err := h.Service.ReverseSettlement(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	notifyProgress(h.Progress, updates...)
	utils.JSON(w, http.StatusOK, reversed)
}

func (h *SettlementHandler) DownloadSlip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	file, err := h.Slips.Slip(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", file.Name))
	w.Write(file.Body)
}

func (h *SettlementHandler) VerifySlip(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		utils.Error(w, http.StatusBadRequest, "token parameter is required")
		return
	}

	result, err := h.Slips.Verify(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, result)
}

func (h *SettlementHandler) ExportEmployeeSettlements(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var buf bytes.Buffer
	employee, err := h.Export.EmployeeSettlements(r.Context(), id, &buf)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", services.ExportFileName(employee)))
	w.Write(buf.Bytes())
}
