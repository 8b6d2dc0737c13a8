package http

import (
	"net/http"

	"garment-backend/internal/handlers"
	"garment-backend/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(
	employeeHandler *handlers.EmployeeHandler,
	batchHandler *handlers.BatchHandler,
	advanceHandler *handlers.AdvanceHandler,
	settlementHandler *handlers.SettlementHandler,
	healthHandler *handlers.HealthHandler,
	progressStream http.HandlerFunc,
) *mux.Router {
	r := mux.NewRouter()
	// Runs after route matching so the path template is known
	r.Use(middleware.MetricsMiddleware)

	api := r.PathPrefix("/api").Subrouter()

	// Employees
	api.HandleFunc("/employees", employeeHandler.ListEmployees).Methods("GET")
	api.HandleFunc("/employees", employeeHandler.CreateEmployee).Methods("POST")
	api.HandleFunc("/employees/{id}", employeeHandler.GetEmployee).Methods("GET")
	api.HandleFunc("/employees/{id}", employeeHandler.UpdateEmployee).Methods("PUT")
	api.HandleFunc("/employees/{id}", employeeHandler.DeleteEmployee).Methods("DELETE")

	// Employee ledger views
	api.HandleFunc("/employees/{id}/advances", advanceHandler.ListByEmployee).Methods("GET")
	api.HandleFunc("/employees/{id}/advances/unsettled", advanceHandler.Unsettled).Methods("GET")
	api.HandleFunc("/employees/{id}/settlements", settlementHandler.ListByEmployee).Methods("GET")
	api.HandleFunc("/employees/{id}/settlements/export", settlementHandler.ExportEmployeeSettlements).Methods("GET")

	// Batches
	api.HandleFunc("/batches", batchHandler.ListBatches).Methods("GET")
	api.HandleFunc("/batches", batchHandler.CreateBatch).Methods("POST")
	api.HandleFunc("/batches/{id}", batchHandler.GetBatch).Methods("GET")
	api.HandleFunc("/batches/{id}/cutting-complete", batchHandler.CompleteCutting).Methods("POST")
	api.HandleFunc("/batches/{id}/capacity", batchHandler.GetCapacity).Methods("GET")
	api.HandleFunc("/batches/{id}/entries", batchHandler.ListEntries).Methods("GET")

	// Advances
	api.HandleFunc("/advances", advanceHandler.RecordAdvance).Methods("POST")

	// Settlements
	api.HandleFunc("/settlements", settlementHandler.Settle).Methods("POST")
	api.HandleFunc("/settlements/preview", settlementHandler.Preview).Methods("POST")
	api.HandleFunc("/settlements/{id}", settlementHandler.GetSettlement).Methods("GET")
	api.HandleFunc("/settlements/{id}", settlementHandler.ReverseSettlement).Methods("DELETE")
	api.HandleFunc("/settlements/{id}/slip", settlementHandler.DownloadSlip).Methods("GET")
	api.HandleFunc("/slips/verify", settlementHandler.VerifySlip).Methods("GET")

	// Live batch progress
	if progressStream != nil {
		r.HandleFunc("/ws/batch-progress", progressStream)
	}

	// Health endpoints (for K8s probes and monitoring)
	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", healthHandler.DetailedHealth).Methods("GET")

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	return r
}
