// Package observability holds the Prometheus metrics for the ledger engine.
//
// A nil *LedgerMetrics is valid and records nothing, so tests and tools can
// run the engine without a registry.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "parts"
	ledgerSubsystem  = "ledger"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type LedgerMetrics struct {
	// OperationsTotal counts engine operations.
	// Labels: operation (create_part, check_out, ...), status (success, error)
	OperationsTotal *prometheus.CounterVec

	// UnitsMovedTotal counts stock units moved by direction (in, out).
	UnitsMovedTotal *prometheus.CounterVec

	// AlertsOpenedTotal counts alerts opened by reconciliation.
	AlertsOpenedTotal prometheus.Counter

	// ReconcileFailuresTotal counts reconciliation passes that failed after a
	// committed mutation.
	ReconcileFailuresTotal prometheus.Counter
}

func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	factory := promauto.With(reg)
	return &LedgerMetrics{
		OperationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: ledgerSubsystem,
			Name:      "operations_total",
			Help:      "Ledger engine operations by operation and status.",
		}, []string{"operation", "status"}),
		UnitsMovedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: ledgerSubsystem,
			Name:      "units_moved_total",
			Help:      "Stock units added or checked out.",
		}, []string{"direction"}),
		AlertsOpenedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: ledgerSubsystem,
			Name:      "alerts_opened_total",
			Help:      "Low-stock alerts opened by reconciliation.",
		}),
		ReconcileFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: ledgerSubsystem,
			Name:      "reconcile_failures_total",
			Help:      "Alert reconciliation passes that failed.",
		}),
	}
}

func (m *LedgerMetrics) RecordOperation(operation string, err error) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.OperationsTotal.WithLabelValues(operation, status).Inc()
}

func (m *LedgerMetrics) RecordUnits(delta int) {
	if m == nil || delta == 0 {
		return
	}
	if delta > 0 {
		m.UnitsMovedTotal.WithLabelValues("in").Add(float64(delta))
		return
	}
	m.UnitsMovedTotal.WithLabelValues("out").Add(float64(-delta))
}

func (m *LedgerMetrics) RecordAlertsOpened(n int) {
	if m == nil || n == 0 {
		return
	}
	m.AlertsOpenedTotal.Add(float64(n))
}

func (m *LedgerMetrics) RecordReconcileFailure() {
	if m == nil {
		return
	}
	m.ReconcileFailuresTotal.Inc()
}
