package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestRecordCacheLookup(t *testing.T) {
	hits := counterValue(t, CacheLookups.WithLabelValues("forecast", "hit"))
	misses := counterValue(t, CacheLookups.WithLabelValues("forecast", "miss"))

	RecordCacheLookup("forecast", true)
	RecordCacheLookup("forecast", false)
	RecordCacheLookup("forecast", false)

	assert.Equal(t, hits+1, counterValue(t, CacheLookups.WithLabelValues("forecast", "hit")))
	assert.Equal(t, misses+2, counterValue(t, CacheLookups.WithLabelValues("forecast", "miss")))
}

func TestPredictionsTotal(t *testing.T) {
	before := counterValue(t, PredictionsTotal.WithLabelValues(OutcomeRanked))

	PredictionsTotal.WithLabelValues(OutcomeRanked).Inc()

	assert.Equal(t, before+1, counterValue(t, PredictionsTotal.WithLabelValues(OutcomeRanked)))
}
