package forecast

import (
	"context"
	"fmt"
	"sync"

	"StockX/internal/domain/models"
	domrepo "StockX/internal/domain/repository"
	domsvc "StockX/internal/domain/service"
)

// Statistical wraps one instrument's online ARIMA model and its state store.
// Every accepted update is persisted before it becomes visible.
type Statistical struct {
	symbol string
	store  domrepo.StateStore

	mu    sync.RWMutex
	model *ARIMA
}

func NewStatistical(symbol string, model *ARIMA, store domrepo.StateStore) *Statistical {
	return &Statistical{symbol: symbol, model: model, store: store}
}

// LoadStatistical reads the persisted state for symbol and binds its capability.
func LoadStatistical(ctx context.Context, symbol string, store domrepo.StateStore) (*Statistical, error) {
	st, err := store.Load(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("load state %s: %w", symbol, err)
	}
	m, err := NewARIMA(st)
	if err != nil {
		return nil, fmt.Errorf("state %s: %w", symbol, err)
	}
	return NewStatistical(symbol, m, store), nil
}

// AppendAndForecast extends the model with value, forecasts one step and
// persists the extended state. On any failure the in-memory model is unchanged.
func (s *Statistical) AppendAndForecast(ctx context.Context, value float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.model.Clone()
	if err := next.Update(value); err != nil {
		return 0, fmt.Errorf("update: %w", err)
	}
	f, err := next.Forecast(1)
	if err != nil {
		return 0, fmt.Errorf("forecast: %w", err)
	}
	if err := s.store.Save(ctx, s.symbol, next.State()); err != nil {
		if !models.IsStorageError(err) {
			err = &models.StorageError{Op: "save state", Err: err}
		}
		return 0, fmt.Errorf("persist %s: %w", s.symbol, err)
	}
	s.model = next
	return f, nil
}

// HistoryLen returns the number of values the model has observed.
func (s *Statistical) HistoryLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model.Len()
}

// Capability returns the extension capability bound at load time.
func (s *Statistical) Capability() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model.Capability()
}

var _ domsvc.StatisticalForecaster = (*Statistical)(nil)
