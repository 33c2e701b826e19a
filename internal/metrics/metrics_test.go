package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_ObserveOperation(t *testing.T) {
	r := New()

	r.ObserveOperation("kinship", nil, 2*time.Millisecond)
	r.ObserveOperation("kinship", nil, time.Millisecond)
	r.ObserveOperation("kinship", errors.New("unknown individual"), time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.operations.WithLabelValues("kinship", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.operations.WithLabelValues("kinship", OutcomeError)))
	assert.Equal(t, 1, testutil.CollectAndCount(r.duration))
}

func TestRecorder_CacheAndEdges(t *testing.T) {
	r := New()

	r.CacheLookup(true)
	r.CacheLookup(false)
	r.CacheLookup(false)
	r.DroppedEdge("unknown-target")
	r.GraphBuilt(12, 20)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.droppedEdges.WithLabelValues("unknown-target")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.graphSize))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveOperation("layout", nil, time.Second)
		r.CacheLookup(true)
		r.DroppedEdge("self-spouse")
		r.GraphBuilt(1, 1)
	})
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.ObserveOperation("path", nil, time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `kintrace_operations_total{operation="path",outcome="ok"} 1`)
}
