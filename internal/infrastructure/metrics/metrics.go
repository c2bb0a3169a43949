package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Sequence metrics
	SequenceAllocations *prometheus.CounterVec
	SequenceAnomalies   *prometheus.CounterVec

	// Ledger metrics
	BalanceChanges      *prometheus.CounterVec
	BalanceChangeAmount prometheus.Histogram
	LedgerViolations    prometheus.Counter

	// Commerce metrics
	CommerceRecords *prometheus.CounterVec

	// Movement metrics
	MovementSyncs    *prometheus.CounterVec
	MovementsCreated *prometheus.CounterVec

	// Treasury metrics
	TreasuryPostings   *prometheus.CounterVec
	TreasuryRejections *prometheus.CounterVec
	TreasuryAmount     prometheus.Histogram

	// Transaction metrics
	OperationDuration *prometheus.HistogramVec
	StorageRetries    prometheus.Counter

	// API metrics
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	HTTPInFlight       prometheus.Gauge
	RateLimitHits      prometheus.Counter
	IdempotencyReplays prometheus.Counter
}

// New creates and registers all Prometheus metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Sequence metrics
		SequenceAllocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oilledger_sequence_allocations_total",
				Help: "Total identifiers allocated by prefix",
			},
			[]string{"prefix"},
		),
		SequenceAnomalies: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oilledger_sequence_anomalies_total",
				Help: "Counters seeded from an unparseable identifier",
			},
			[]string{"prefix"},
		),

		// Ledger metrics
		BalanceChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oilledger_balance_changes_total",
				Help: "Total balance mutations by subject type",
			},
			[]string{"subject_type"},
		),
		BalanceChangeAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "oilledger_balance_change_amount",
			Help:    "Absolute balance change amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		LedgerViolations: factory.NewCounter(prometheus.CounterOpts{
			Name: "oilledger_ledger_violations_total",
			Help: "Balance change log chain violations found by reconciliation",
		}),

		// Commerce metrics
		CommerceRecords: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oilledger_commerce_records_total",
				Help: "Sales and purchases written by kind and action",
			},
			[]string{"kind", "action"},
		),

		// Movement metrics
		MovementSyncs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oilledger_movement_syncs_total",
				Help: "Movement synchronization runs by direction and outcome",
			},
			[]string{"direction", "outcome"},
		),
		MovementsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oilledger_movements_created_total",
				Help: "Vehicle movements created by type",
			},
			[]string{"type"},
		),

		// Treasury metrics
		TreasuryPostings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oilledger_treasury_postings_total",
				Help: "Treasury movements posted by source and type",
			},
			[]string{"source", "type"},
		),
		TreasuryRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oilledger_treasury_rejections_total",
				Help: "Treasury postings rejected by reason",
			},
			[]string{"reason"},
		),
		TreasuryAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "oilledger_treasury_amount",
			Help:    "Treasury posting amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),

		// Transaction metrics
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oilledger_operation_duration_seconds",
				Help:    "Duration of core ledger operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		StorageRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "oilledger_storage_retries_total",
			Help: "Operations retried after a transient storage failure",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oilledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oilledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "oilledger_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),
		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "oilledger_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		}),
		IdempotencyReplays: factory.NewCounter(prometheus.CounterOpts{
			Name: "oilledger_idempotency_replays_total",
			Help: "Responses served from the idempotency store",
		}),
	}
}
