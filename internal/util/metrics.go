package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BagsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bags_created_total",
		Help: "Total number of bags of hope created",
	})

	BagTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bag_transitions_total",
		Help: "Total number of bag status transitions",
	}, []string{"from", "to"})

	BagTransitionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bag_transitions_rejected_total",
		Help: "Total number of bag status transitions rejected by the transition table",
	}, []string{"from", "to"})

	PicksCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "picks_completed_total",
		Help: "Total number of completed bag pick lists",
	})

	PickItemsRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pick_items_recorded_total",
		Help: "Total number of pick transactions written to the ledger",
	})

	PicksFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "picks_failed_total",
		Help: "Total number of failed pick completions",
	}, []string{"reason"})

	InventoryTransactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_transactions_total",
		Help: "Total number of inventory ledger transactions",
	}, []string{"type"})

	InsufficientInventoryTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "insufficient_inventory_total",
		Help: "Total number of picks rejected for insufficient on-hand quantity",
	})

	BatchesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "batches_created_total",
		Help: "Total number of shipping batches created",
	})

	BatchCascadesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "batch_cascades_total",
		Help: "Total number of batch status cascades applied to member bags",
	}, []string{"to"})

	BatchCascadeBagsUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "batch_cascade_bags_updated_total",
		Help: "Total number of member bags updated by batch cascades",
	})

	LowStockAlertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "low_stock_alerts_total",
		Help: "Total number of low stock alerts raised",
	})

	PickLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pick_completion_latency_seconds",
		Help:    "Latency of pick completion transactions",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
