package repository

import (
	"context"

	"StockX/internal/domain/models"
)

// SeriesStore owns the persisted observation series, one per instrument.
type SeriesStore interface {
	// Upsert inserts or replaces the row for obs.Date, persists the whole
	// series and returns it in ascending date order. Returns
	// models.ErrNotFound when the instrument has no persisted series.
	Upsert(ctx context.Context, symbol string, obs models.Observation) (models.TimeSeries, error)
	Close() error
}

// StateStore persists statistical model state blobs.
type StateStore interface {
	Load(ctx context.Context, symbol string) (*models.ARIMAState, error)
	Save(ctx context.Context, symbol string, st *models.ARIMAState) error
}

// PredictionPublisher fans successful predictions out to external sinks.
type PredictionPublisher interface {
	PublishPrediction(ctx context.Context, p *models.Prediction) error
}

type Metrics interface {
	RecordPrediction(symbol, model, outcome string)
	RecordError(kind string)
	RecordLastForecast(symbol, model string, value float64)
	RecordLatency(op string, seconds float64)
}

// SeriesImporter bulk-loads a series into a database-backed SeriesStore.
type SeriesImporter interface {
	Import(ctx context.Context, symbol string, series models.TimeSeries) error
}
