package service

import (
	"context"

	"gonum.org/v1/gonum/mat"
)

// FeatureScaler applies fitted, read-only scaling parameters.
type FeatureScaler interface {
	// Forward scales a (window x features) matrix.
	Forward(m *mat.Dense) (*mat.Dense, error)
	// Inverse maps one scaled model output back to the target's physical units.
	Inverse(scaled float64) (float64, error)
}

// SequenceForecaster maps a scaled window to a scaled next-close prediction.
type SequenceForecaster interface {
	InputShape() (rows, cols int)
	Predict(ctx context.Context, window *mat.Dense) (float64, error)
}

// StatisticalForecaster appends one observed value to an online model and
// returns its one-step-ahead forecast. The updated state is persisted before
// the call returns.
type StatisticalForecaster interface {
	AppendAndForecast(ctx context.Context, value float64) (float64, error)
	HistoryLen() int
}
