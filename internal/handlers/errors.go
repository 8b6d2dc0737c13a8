package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"garment-backend/internal/config"
	"garment-backend/internal/middleware"
	"garment-backend/internal/services"
	"garment-backend/internal/slips"
	"garment-backend/pkg/utils"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// It writes the 400 response itself and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := utils.ValidateStruct(dst); err != nil {
		utils.JSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "validation failed",
			"fields": utils.ProcessValidationErrors(err),
		})
		return false
	}
	return true
}

// pathID parses a positive integer mux variable
func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || id <= 0 {
		utils.Error(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// writeServiceError maps service errors to HTTP status codes
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *services.ValidationError
	var storageErr *services.StorageFailureError

	switch {
	case errors.As(err, &verr):
		utils.JSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error": "settlement rejected",
			"rows":  verr.Rows,
		})
	case errors.Is(err, services.ErrConcurrentModification):
		utils.Error(w, http.StatusConflict, err.Error())
	case errors.As(err, &storageErr):
		logFailure(r, err)
		w.Header().Set("Retry-After", "1")
		utils.Error(w, http.StatusServiceUnavailable, "storage unavailable, nothing was saved; retry")
	case errors.Is(err, services.ErrEmployeeNotFound),
		errors.Is(err, services.ErrBatchNotFound),
		errors.Is(err, services.ErrSettlementNotFound):
		utils.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidRow),
		errors.Is(err, services.ErrInvalidInput):
		utils.Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrEmployeeInUse),
		errors.Is(err, services.ErrDuplicateBatch),
		errors.Is(err, services.ErrCuttingAlreadyComplete):
		utils.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, slips.ErrInvalidToken):
		utils.Error(w, http.StatusBadRequest, "invalid slip token")
	case errors.Is(err, slips.ErrSigningDisabled):
		utils.Error(w, http.StatusNotImplemented, err.Error())
	default:
		logFailure(r, err)
		utils.Error(w, http.StatusInternalServerError, "internal error")
	}
}

func logFailure(r *http.Request, err error) {
	config.LogError(config.GetLogger(), "handlers", r.Method+" "+r.URL.Path, "request failed", logrus.Fields{
		"request_id": middleware.RequestID(r.Context()),
	}, err)
}
