package registry

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"StockX/internal/domain/models"
	domsvc "StockX/internal/domain/service"
	"StockX/internal/repository"
	"StockX/internal/services/features"
	"StockX/pkg/config"
	applogger "StockX/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

type shapeOnly struct{ rows, cols int }

func (s shapeOnly) InputShape() (int, int) { return s.rows, s.cols }

func (s shapeOnly) Predict(context.Context, *mat.Dense) (float64, error) { return 0, nil }

func writeJSON(t *testing.T, path string, v interface{}) {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o644))
}

func fixture(t *testing.T, symbols ...string) (*config.Config, *repository.FileStateStore) {
	t.Helper()
	dir := t.TempDir()
	states := repository.NewFileStateStore(func(s string) string { return filepath.Join(dir, "arima_"+s+".json") })

	cfg := &config.Config{}
	for _, sym := range symbols {
		scaler := filepath.Join(dir, "scaler_X_"+sym+".json")
		writeJSON(t, scaler, features.ScalerParams{
			Kind:  features.KindMinMax,
			Min:   []float64{0, 0, 0, 0, 0},
			Scale: []float64{1, 1, 1, 1, 1},
		})
		target := filepath.Join(dir, "scaler_y_"+sym+".json")
		writeJSON(t, target, features.ScalerParams{Kind: features.KindMinMax, Min: []float64{0}, Scale: []float64{0.5}})
		require.NoError(t, states.Save(context.Background(), sym, &models.ARIMAState{AR: []float64{0.5}, History: []float64{1, 2, 3}}))

		cfg.Instruments = append(cfg.Instruments, config.Instrument{
			Symbol:       sym,
			Window:       3,
			Features:     []string{"open", "high", "low", "close", "volume"},
			Target:       "close",
			Derivations:  map[string]string{"Volume": "log1p"},
			Scaler:       scaler,
			TargetScaler: target,
		})
	}
	return cfg, states
}

func shapeFactory(rows, cols int) SequenceFactory {
	return func(config.Instrument) (domsvc.SequenceForecaster, error) {
		return shapeOnly{rows, cols}, nil
	}
}

func TestLoadAndLookup(t *testing.T) {
	cfg, states := fixture(t, "ntc", "asian")
	r, err := Load(context.Background(), cfg, states, shapeFactory(3, 5), applogger.NewNop())
	require.NoError(t, err)

	e, err := r.Get(" NTC ")
	require.NoError(t, err)
	assert.Equal(t, "ntc", e.Instrument.Symbol)
	assert.Equal(t, models.DeriveLog1p, e.Instrument.Derivations["volume"])
	assert.Equal(t, 3, e.Statistical.HistoryLen())

	v, err := e.Scaler.Inverse(0.5)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	ins := r.Instruments()
	require.Len(t, ins, 2)
	assert.Equal(t, "asian", ins[0].Symbol)

	_, err = r.Get("nabil")
	var unknown *models.UnknownInstrumentError
	assert.ErrorAs(t, err, &unknown)
}

func TestLoadRejectsShapeMismatch(t *testing.T) {
	cfg, states := fixture(t, "ntc")
	_, err := Load(context.Background(), cfg, states, shapeFactory(90, 5), applogger.NewNop())
	var shape *models.ShapeMismatchError
	assert.ErrorAs(t, err, &shape)
}

func TestLoadRejectsMissingState(t *testing.T) {
	cfg, _ := fixture(t, "ntc")
	dir := t.TempDir()
	empty := repository.NewFileStateStore(func(s string) string { return filepath.Join(dir, s+".json") })
	_, err := Load(context.Background(), cfg, empty, shapeFactory(3, 5), applogger.NewNop())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestLoadRejectsBadDerivation(t *testing.T) {
	cfg, states := fixture(t, "ntc")
	cfg.Instruments[0].Derivations = map[string]string{"close": "sqrt"}
	_, err := Load(context.Background(), cfg, states, shapeFactory(3, 5), applogger.NewNop())
	assert.Error(t, err)
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New(&Entry{Instrument: models.Instrument{Symbol: "NTC"}}, &Entry{Instrument: models.Instrument{Symbol: "ntc"}})
	assert.Error(t, err)
}
