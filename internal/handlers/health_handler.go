package handlers

import (
	"net/http"

	"garment-backend/internal/health"
	"garment-backend/pkg/utils"
)

type HealthHandler struct {
	checker *health.HealthChecker
	clients func() int
}

// NewHealthHandler takes a func reporting live websocket clients; it may be nil
func NewHealthHandler(checker *health.HealthChecker, clients func() int) *HealthHandler {
	return &HealthHandler{checker: checker, clients: clients}
}

// BasicHealth - for Kubernetes liveness probe
func (h *HealthHandler) BasicHealth(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadinessHealth - for Kubernetes readiness probe
func (h *HealthHandler) ReadinessHealth(w http.ResponseWriter, r *http.Request) {
	status := h.checker.CheckBasic()
	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	utils.JSON(w, code, status)
}

// DetailedHealth - for monitoring dashboard
func (h *HealthHandler) DetailedHealth(w http.ResponseWriter, r *http.Request) {
	clients := 0
	if h.clients != nil {
		clients = h.clients()
	}
	utils.JSON(w, http.StatusOK, h.checker.CheckDetailed(clients))
}
