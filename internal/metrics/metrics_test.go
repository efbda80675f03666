package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/recommend", "404"))
	RecordAPIRequest("GET", "/recommend", 404, 5*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/recommend", "404"))
	assert.Equal(t, before+1, after)
}

func TestTrackActiveRequest(t *testing.T) {
	start := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	assert.Equal(t, start+1, testutil.ToFloat64(APIActiveRequests))
	TrackActiveRequest(false)
	assert.Equal(t, start, testutil.ToFloat64(APIActiveRequests))
}

func TestRecordIngest(t *testing.T) {
	before := testutil.ToFloat64(StoreIngestedItems.WithLabelValues("metrics-test"))
	RecordIngest("metrics-test", 7)
	assert.Equal(t, before+7, testutil.ToFloat64(StoreIngestedItems.WithLabelValues("metrics-test")))
}

func TestRecordPipelineItems_IgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(PipelineItems.WithLabelValues("skipped"))
	RecordPipelineItems("skipped", 0)
	RecordPipelineItems("skipped", 2)
	assert.Equal(t, before+2, testutil.ToFloat64(PipelineItems.WithLabelValues("skipped")))
}

func TestGauges(t *testing.T) {
	SetCircuitBreakerState("store-test", 2)
	assert.Equal(t, 2.0, testutil.ToFloat64(CircuitBreakerState.WithLabelValues("store-test")))
	SetEvaluationScore("recall", 10, 0.42)
	assert.Equal(t, 0.42, testutil.ToFloat64(EvaluationScore.WithLabelValues("recall", "10")))
	RecordStoreOperation("get", "ok")
	RecordStage("build", time.Second)
}
