package usecase

import (
	"context"
	"testing"

	"StockX/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafkaObservationsHandler(t *testing.T) {
	series := &memSeries{data: map[string]models.TimeSeries{"ntc": history(5)}}
	uc, m := newUseCase(t, series, newEntry("ntc", 3, fixedSequence{rows: 3, cols: 5, out: 1}, &countingStat{out: 2}))
	h := NewKafkaObservationsHandler("stockx.observations", uc, m)
	assert.Equal(t, "stockx.observations", h.Topic())

	t.Run("key supplies the symbol", func(t *testing.T) {
		body := `{"Date":"2024-01-06","Open":1,"High":2,"Low":0.5,"Close":1.5,"Volume":0}`
		require.NoError(t, h.Handle(context.Background(), []byte("NTC"), []byte(body)))
		assert.Len(t, series.data["ntc"], 6)
	})

	t.Run("malformed json", func(t *testing.T) {
		err := h.Handle(context.Background(), []byte("ntc"), []byte(`{"Date":`))
		require.Error(t, err)
		assert.Equal(t, 1, m.errors["consumer_unmarshal"])
	})

	t.Run("missing field", func(t *testing.T) {
		body := `{"company":"ntc","Date":"2024-01-07","Open":1,"High":2,"Low":0.5,"Volume":3}`
		err := h.Handle(context.Background(), nil, []byte(body))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Close is required")
		assert.Equal(t, 1, m.errors["consumer_validation"])
	})

	t.Run("domain errors are returned", func(t *testing.T) {
		body := `{"company":"nabil","Date":"2024-01-07","Open":1,"High":2,"Low":0.5,"Close":1,"Volume":3}`
		err := h.Handle(context.Background(), nil, []byte(body))
		var unknown *models.UnknownInstrumentError
		assert.ErrorAs(t, err, &unknown)
	})
}
