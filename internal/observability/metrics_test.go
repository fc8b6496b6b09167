package observability

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestLedgerMetrics_Record(t *testing.T) {
	m := NewLedgerMetrics(prometheus.NewRegistry())

	m.RecordOperation("check_out", nil)
	m.RecordOperation("check_out", errors.New("boom"))
	m.RecordOperation("check_out", nil)
	m.RecordUnits(5)
	m.RecordUnits(-3)
	m.RecordAlertsOpened(2)
	m.RecordReconcileFailure()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("check_out", StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("check_out", StatusError)))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.UnitsMovedTotal.WithLabelValues("in")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.UnitsMovedTotal.WithLabelValues("out")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AlertsOpenedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReconcileFailuresTotal))
}

func TestLedgerMetrics_NilIsNoop(t *testing.T) {
	var m *LedgerMetrics
	assert.NotPanics(t, func() {
		m.RecordOperation("x", nil)
		m.RecordUnits(1)
		m.RecordAlertsOpened(1)
		m.RecordReconcileFailure()
	})
}
