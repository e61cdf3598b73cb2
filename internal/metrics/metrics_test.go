package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.SessionsStarted.Inc()
	m.PointsAwarded.Add(45)
	m.Evaluations.WithLabelValues(OutcomeCorrect).Inc()

	assert.Equal(t, 45.0, testutil.ToFloat64(m.PointsAwarded))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "ella_reading_sessions_started_total 1"))
	assert.True(t, strings.Contains(body, `ella_pronunciation_evaluations_total{outcome="correct"} 1`))
}
