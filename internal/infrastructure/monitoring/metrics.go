package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type LedgerMetrics struct {
	OperationsTotal    *prometheus.CounterVec
	AccessDeniedTotal  *prometheus.CounterVec
	CustomersTotal     prometheus.Gauge
	TotalBalance       prometheus.Gauge
	NegativeBalances   prometheus.Gauge
	CustomersCreated   prometheus.Counter
	LastAuditTimestamp prometheus.Gauge
}

var (
	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "customer_ledger_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Ledger = LedgerMetrics{
		OperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "customer_ledger_operations_total",
				Help: "Total number of ledger operations by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		AccessDeniedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "customer_ledger_access_denied_total",
				Help: "Total number of administrative requests rejected by the role gate.",
			},
			[]string{"operation"},
		),
		CustomersTotal: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "customer_ledger_customers",
				Help: "Number of live customer records seen by the last balance audit.",
			},
		),
		TotalBalance: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "customer_ledger_balance_total",
				Help: "Sum of all customer balances seen by the last balance audit.",
			},
		),
		NegativeBalances: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "customer_ledger_negative_balances",
				Help: "Number of customer records with a negative balance in the last audit.",
			},
		),
		CustomersCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "customer_ledger_customers_created_total",
				Help: "Total number of customers successfully created.",
			},
		),
		LastAuditTimestamp: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "customer_ledger_last_audit_timestamp_seconds",
				Help: "Unix time of the last completed balance audit.",
			},
		),
	}
)

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordLedgerOperation(operation, outcome string) {
	Ledger.OperationsTotal.WithLabelValues(operation, outcome).Inc()
}

func RecordAccessDenied(operation string) {
	Ledger.AccessDeniedTotal.WithLabelValues(operation).Inc()
}

func RecordCustomerCreated() {
	Ledger.CustomersCreated.Inc()
}

func RecordAudit(customers int, totalBalance float64, negative int, at time.Time) {
	Ledger.CustomersTotal.Set(float64(customers))
	Ledger.TotalBalance.Set(totalBalance)
	Ledger.NegativeBalances.Set(float64(negative))
	Ledger.LastAuditTimestamp.Set(float64(at.Unix()))
}
