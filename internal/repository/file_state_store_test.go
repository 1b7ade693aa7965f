package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"StockX/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStateStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, ext := range []string{".msgpack", ".json"} {
		t.Run(ext, func(t *testing.T) {
			s := NewFileStateStore(func(symbol string) string { return filepath.Join(dir, "arima_"+symbol+ext) })
			ctx := context.Background()
			st := &models.ARIMAState{Symbol: "ankhu", D: 1, Const: 0.2, AR: []float64{0.5}, MA: []float64{-0.3}, History: []float64{1, 2, 4}, Updates: 7}

			require.NoError(t, s.Save(ctx, "ankhu", st))
			got, err := s.Load(ctx, "ankhu")
			require.NoError(t, err)
			assert.Equal(t, st, got)
		})
	}
}

func TestFileStateStoreMissing(t *testing.T) {
	s := NewFileStateStore(func(symbol string) string { return filepath.Join(t.TempDir(), symbol) })
	_, err := s.Load(context.Background(), "ntc")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestFileStateStoreSaveFailure(t *testing.T) {
	s := NewFileStateStore(func(symbol string) string { return filepath.Join(t.TempDir(), "missing-dir", symbol) })
	err := s.Save(context.Background(), "ntc", &models.ARIMAState{History: []float64{1}})
	require.Error(t, err)
	assert.True(t, models.IsStorageError(err))
}

func TestFileStateStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arima_ntc.msgpack")
	require.NoError(t, os.WriteFile(path, []byte{0xc1}, 0o644))
	s := NewFileStateStore(func(string) string { return path })
	_, err := s.Load(context.Background(), "ntc")
	assert.True(t, models.IsStorageError(err))
}
