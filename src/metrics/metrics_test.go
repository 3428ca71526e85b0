package metrics

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	m := New()

	m.RecordUpsert()
	m.RecordUpsert()
	m.RecordSnapshot()
	m.RecordPruned(5)
	m.RecordPruned(0)
	m.RecordSaveFailure(errors.New("disk full"))
	m.RecordCycle(CycleCompleted, time.Second)
	m.RecordCycle(CycleSkipped, 0)
	m.RecordUpstreamFailure("btcusdt")
	m.RecordCacheLookup(true)
	m.RecordCacheLookup(false)
	m.RecordCacheLookup(false)
	m.SetWSClients(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.QuotesUpserted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SnapshotsInserted))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.SnapshotsPruned))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SaveFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PollCycles.WithLabelValues(CycleCompleted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PollCycles.WithLabelValues(CycleSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamFailures.WithLabelValues("btcusdt")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.WSClients))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordUpsert()
		m.RecordCycle(CycleTimedOut, time.Second)
		m.RecordHTTPRequest("GET", "/api/quotes", 200, time.Millisecond)
		m.SetWSClients(1)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordUpsert()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "quote_observer_quotes_upserted_total 1")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
