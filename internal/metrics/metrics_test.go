package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valuagent/valuagent/internal/model"
	"github.com/valuagent/valuagent/internal/validation"
)

func scrape(t *testing.T, reg *prometheus.Registry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	Init(reg)
	Init(reg)
	require.NotNil(t, validationsTotal)

	report := &validation.DocumentReport{
		Type: model.ProfitAndLoss,
		Columns: []validation.Report{{Results: []validation.RuleResult{
			{Status: validation.StatusPassed},
			{Status: validation.StatusPassed},
			{Status: validation.StatusFailed},
		}}},
	}
	ObserveValidation("vzz", report, 2*time.Millisecond)
	report.IsValid = true
	ObserveValidation("vzz", report, time.Millisecond)
	ObserveValidation("", nil, time.Millisecond)
	IncExport("xlsx", nil)
	IncExport("pdf", errors.New("boom"))

	body := scrape(t, reg)
	assert.Contains(t, body, `valuagent_validations_total{result="invalid",statement_type="vzz"} 1`)
	assert.Contains(t, body, `valuagent_validations_total{result="valid",statement_type="vzz"} 1`)
	assert.Contains(t, body, `valuagent_validations_total{result="error",statement_type="unknown"} 1`)
	assert.Contains(t, body, `valuagent_rule_results_total{statement_type="vzz",status="passed"} 4`)
	assert.Contains(t, body, `valuagent_rule_results_total{statement_type="vzz",status="failed"} 2`)
	assert.Contains(t, body, `valuagent_exports_total{format="pdf",result="error"} 1`)
	assert.Contains(t, body, `valuagent_validation_latency_seconds_count{statement_type="vzz"} 2`)
}
