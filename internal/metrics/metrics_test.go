package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObservePipelineRun(t *testing.T) {
	before := testutil.ToFloat64(pipelineRuns.WithLabelValues("completed"))
	ObservePipelineRun("completed", time.Second)
	assert.Equal(t, before+1, testutil.ToFloat64(pipelineRuns.WithLabelValues("completed")))
}

func TestObserveHTTPRequestGroupsStatus(t *testing.T) {
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/api/v1/chat", "POST", "4xx"))
	ObserveHTTPRequest("/api/v1/chat", "POST", 404, time.Millisecond)
	ObserveHTTPRequest("/api/v1/chat", "POST", 409, time.Millisecond)
	assert.Equal(t, before+2, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/api/v1/chat", "POST", "4xx")))
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(200))
	assert.Equal(t, "3xx", statusClass(302))
	assert.Equal(t, "4xx", statusClass(499))
	assert.Equal(t, "5xx", statusClass(502))
}

func TestSetStuckDocuments(t *testing.T) {
	SetStuckDocuments(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(stuckDocuments))
	CaptureDependency("storage", time.Millisecond, errors.New("x"))
}
