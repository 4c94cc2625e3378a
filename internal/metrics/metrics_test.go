package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCounters(t *testing.T) {
	r := NewRegistry()

	r.UpstreamFailure("shopify")
	r.UpstreamFailure("shopify")
	r.IngestSkip("sellerdynamics", 3)
	r.IngestSkip("sellerdynamics", 0)
	r.RecordRun("auto-restock", map[string]int{"critical": 2, "high": 1}, 123.45)
	r.CountRun("generate-alerts")
	r.ObserveFetch("shopify", 250*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.UpstreamFailures.WithLabelValues("shopify")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.IngestSkipped.WithLabelValues("sellerdynamics")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.Recommendations.WithLabelValues("critical")))
	assert.Equal(t, 123.45, testutil.ToFloat64(r.EstimatedCost))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Runs.WithLabelValues("generate-alerts")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := NewRegistry()
	r.UpstreamFailure("sellerdynamics")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `restock_upstream_failures_total{source="sellerdynamics"} 1`)
}
