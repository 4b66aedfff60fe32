package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveOperation(t *testing.T) {
	m := New()

	m.ObserveOperation("add_machine", nil)
	m.ObserveOperation("add_machine", nil)
	m.ObserveOperation("add_machine", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("add_machine", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("add_machine", ResultError)))
}

func TestInterventionCost(t *testing.T) {
	m := New()

	m.AddInterventionCost(decimal.RequireFromString("150.00"))
	m.AddInterventionCost(decimal.Zero)

	assert.Equal(t, 150.0, testutil.ToFloat64(m.interventionCost))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveOperation("list_machines", nil)
		m.ObserveDeleteStep("idle")
		m.AddInterventionCost(decimal.NewFromInt(1))
		m.RecordRateLimitHit("/api/v1/machines")
		m.ObserveNotification("maintenance:reminder", nil)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveDeleteStep("pending_confirm")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `ledger_delete_steps_total{state="pending_confirm"} 1`))
}
