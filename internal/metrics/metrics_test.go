package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_CountAndServe(t *testing.T) {
	m := New()
	m.HealthComputations.WithLabelValues("self", "good").Inc()
	m.HealthComputations.WithLabelValues("self", "good").Inc()
	m.DefusalPlans.WithLabelValues("critical").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HealthComputations.WithLabelValues("self", "good")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DefusalPlans.WithLabelValues("critical")))

	rec := httptest.NewRecorder()
	m.Handler(logrus.New()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `finhealth_health_computations_total{category="good",view="self"} 2`)
}
