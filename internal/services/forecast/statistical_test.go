package forecast

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"StockX/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nan() float64 { return math.NaN() }

type memStateStore struct {
	mu      sync.Mutex
	states  map[string]*models.ARIMAState
	saveErr error
	saves   int
}

func newMemStateStore(states ...*models.ARIMAState) *memStateStore {
	s := &memStateStore{states: map[string]*models.ARIMAState{}}
	for _, st := range states {
		s.states[st.Symbol] = st.Clone()
	}
	return s
}

func (s *memStateStore) Load(_ context.Context, symbol string) (*models.ARIMAState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[symbol]
	if !ok {
		return nil, models.ErrNotFound
	}
	return st.Clone(), nil
}

func (s *memStateStore) Save(_ context.Context, symbol string, st *models.ARIMAState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.states[symbol] = st.Clone()
	return nil
}

func TestStatisticalPersistsExtension(t *testing.T) {
	ctx := context.Background()
	store := newMemStateStore(ar1State())
	sf, err := LoadStatistical(ctx, "asian", store)
	require.NoError(t, err)

	f, err := sf.AppendAndForecast(ctx, 150.0)
	require.NoError(t, err)
	assert.InDelta(t, 76.0, f, 1e-12)
	assert.Equal(t, 3, sf.HistoryLen())

	persisted, err := store.Load(ctx, "asian")
	require.NoError(t, err)
	assert.Len(t, persisted.History, 3)
	assert.Equal(t, 150.0, persisted.History[2])
	assert.Equal(t, int64(1), persisted.Updates)
	assert.Equal(t, []float64{0.5}, persisted.AR)
}

func TestStatisticalKeepsStateOnPersistFailure(t *testing.T) {
	ctx := context.Background()
	store := newMemStateStore(ar1State())
	sf, err := LoadStatistical(ctx, "asian", store)
	require.NoError(t, err)

	store.saveErr = errors.New("disk full")
	_, err = sf.AppendAndForecast(ctx, 10)
	require.Error(t, err)
	assert.True(t, models.IsStorageError(err))
	assert.Equal(t, 2, sf.HistoryLen())

	store.saveErr = nil
	f, err := sf.AppendAndForecast(ctx, 6)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, f, 1e-12)
	assert.Equal(t, 3, sf.HistoryLen())
}

func TestStatisticalRejectsNonFiniteValue(t *testing.T) {
	ctx := context.Background()
	store := newMemStateStore(ar1State())
	sf, err := LoadStatistical(ctx, "asian", store)
	require.NoError(t, err)

	_, err = sf.AppendAndForecast(ctx, math.Inf(1))
	require.Error(t, err)
	assert.False(t, models.IsStorageError(err))
	assert.Equal(t, 0, store.saves)
}

func TestLoadStatisticalMissingState(t *testing.T) {
	_, err := LoadStatistical(context.Background(), "sahas", newMemStateStore())
	assert.ErrorIs(t, err, models.ErrNotFound)
}
