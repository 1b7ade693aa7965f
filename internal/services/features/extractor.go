package features

import (
	"fmt"
	"math"

	"StockX/internal/domain/models"

	"gonum.org/v1/gonum/mat"
)

// Extract returns the last `window` rows of series as a (window x len(features))
// matrix in ascending date order, with per-column derivations applied.
// It does not scale or impute.
func Extract(series models.TimeSeries, window int, features []string, derivations map[string]models.Derivation) (*mat.Dense, error) {
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive, got %d", window)
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("feature list is empty")
	}
	if len(series) < window {
		return nil, &models.InsufficientHistoryError{Required: window, Available: len(series)}
	}

	tail := series[len(series)-window:]
	out := mat.NewDense(window, len(features), nil)
	for r, obs := range tail {
		for c, f := range features {
			v, ok := obs.Value(f)
			if !ok {
				return nil, fmt.Errorf("unknown feature %q", f)
			}
			dv, err := Derive(derivations[f], v)
			if err != nil {
				return nil, fmt.Errorf("derive %s on %s: %w", f, obs.Date.Format("2006-01-02"), err)
			}
			out.Set(r, c, dv)
		}
	}
	return out, nil
}

// Derive applies a named monotonic transform. An empty derivation is the identity.
func Derive(d models.Derivation, v float64) (float64, error) {
	switch d {
	case "", models.DeriveNone:
		return v, nil
	case models.DeriveLog:
		if v <= 0 {
			return 0, fmt.Errorf("log of non-positive value %v", v)
		}
		return math.Log(v), nil
	case models.DeriveLog1p:
		if v <= -1 {
			return 0, fmt.Errorf("log1p of value %v", v)
		}
		return math.Log1p(v), nil
	default:
		return 0, fmt.Errorf("unsupported derivation %q", d)
	}
}

// Underive inverts Derive. The target column is predicted in derived space
// and must be mapped back before it is reported.
func Underive(d models.Derivation, v float64) (float64, error) {
	switch d {
	case "", models.DeriveNone:
		return v, nil
	case models.DeriveLog:
		return math.Exp(v), nil
	case models.DeriveLog1p:
		return math.Expm1(v), nil
	default:
		return 0, fmt.Errorf("unsupported derivation %q", d)
	}
}

// ValidDerivation reports whether d is a known derivation name.
func ValidDerivation(d models.Derivation) bool {
	switch d {
	case "", models.DeriveNone, models.DeriveLog, models.DeriveLog1p:
		return true
	default:
		return false
	}
}
