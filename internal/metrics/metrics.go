package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "garment_http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "garment_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	SettlementsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "garment_settlements_total",
		Help: "Settlements committed",
	})

	// SettlementRejections counts failed settle calls by reason:
	// validation, concurrent_modification, storage_failure
	SettlementRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "garment_settlement_rejections_total",
		Help: "Settle calls that committed nothing, by reason",
	}, []string{"reason"})

	SettlementReversals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "garment_settlement_reversals_total",
		Help: "Settlements deleted and reversed",
	})

	PiecesSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "garment_pieces_settled_total",
		Help: "Pieces paid for through settlements, by department",
	}, []string{"department"})

	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "garment_progress_ws_clients",
		Help: "Connected batch progress websocket clients",
	})
)
