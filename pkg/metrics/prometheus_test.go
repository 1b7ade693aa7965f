package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	r := NewWithRegisterer(prometheus.NewRegistry())

	r.RecordPrediction("ntc", "lstm", "ok")
	r.RecordPrediction("ntc", "lstm", "ok")
	r.RecordError("storage")
	r.RecordLastForecast("ntc", "arima", 512.5)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.predictions.WithLabelValues("ntc", "lstm", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("storage")))
	assert.Equal(t, 512.5, testutil.ToFloat64(r.lastForecast.WithLabelValues("ntc", "arima")))
}
