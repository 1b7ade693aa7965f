package features

import (
	"encoding/json"
	"fmt"
	"os"

	"StockX/internal/domain/models"
	domsvc "StockX/internal/domain/service"

	"gonum.org/v1/gonum/mat"
)

// Scaler kinds, named after the fitted estimators whose attributes they read.
const (
	KindMinMax   = "minmax"
	KindStandard = "standard"
)

// ScalerParams is the on-disk form of a fitted scaler. Attribute names follow
// the fitting library: minmax uses min_/scale_ (x*scale_ + min_), standard
// uses mean_/scale_ ((x - mean_) / scale_).
type ScalerParams struct {
	Kind    string    `json:"kind"`
	Columns []string  `json:"columns,omitempty"`
	Min     []float64 `json:"min_,omitempty"`
	Mean    []float64 `json:"mean_,omitempty"`
	Scale   []float64 `json:"scale_"`
}

// Scaler is a fitted per-column affine transform x' = x*mul + add.
type Scaler struct {
	mul []float64
	add []float64
}

// NewScaler builds a Scaler from fitted parameters.
func NewScaler(p ScalerParams) (*Scaler, error) {
	n := len(p.Scale)
	if n == 0 {
		return nil, fmt.Errorf("scaler: scale_ is empty")
	}
	s := &Scaler{mul: make([]float64, n), add: make([]float64, n)}
	switch p.Kind {
	case KindMinMax:
		if len(p.Min) != n {
			return nil, fmt.Errorf("scaler: min_ has %d entries, scale_ has %d", len(p.Min), n)
		}
		for i := 0; i < n; i++ {
			s.mul[i] = p.Scale[i]
			s.add[i] = p.Min[i]
		}
	case KindStandard:
		if len(p.Mean) != n {
			return nil, fmt.Errorf("scaler: mean_ has %d entries, scale_ has %d", len(p.Mean), n)
		}
		for i := 0; i < n; i++ {
			if p.Scale[i] == 0 {
				return nil, fmt.Errorf("scaler: zero scale_ at column %d", i)
			}
			s.mul[i] = 1 / p.Scale[i]
			s.add[i] = -p.Mean[i] / p.Scale[i]
		}
	default:
		return nil, fmt.Errorf("scaler: unsupported kind %q", p.Kind)
	}
	for i, m := range s.mul {
		if m == 0 {
			return nil, fmt.Errorf("scaler: column %d is not invertible", i)
		}
	}
	return s, nil
}

// LoadScaler reads fitted parameters from a JSON file.
func LoadScaler(path string) (*Scaler, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scaler: %w", err)
	}
	var p ScalerParams
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse scaler %s: %w", path, err)
	}
	return NewScaler(p)
}

// Dim returns the fitted dimensionality.
func (s *Scaler) Dim() int { return len(s.mul) }

// Transform scales every row of m. m must have Dim() columns.
func (s *Scaler) Transform(m *mat.Dense) (*mat.Dense, error) {
	r, c := m.Dims()
	if c != s.Dim() {
		return nil, &models.ShapeMismatchError{What: "scaler", WantRows: r, WantCols: s.Dim(), GotRows: r, GotCols: c}
	}
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return v*s.mul[j] + s.add[j]
	}, m)
	return out, nil
}

// InverseRow maps one scaled row back to fitted feature space.
func (s *Scaler) InverseRow(row []float64) ([]float64, error) {
	if len(row) != s.Dim() {
		return nil, &models.ShapeMismatchError{What: "scaler inverse", WantRows: 1, WantCols: s.Dim(), GotRows: 1, GotCols: len(row)}
	}
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.add[j]) / s.mul[j]
	}
	return out, nil
}

// FeatureScaler pairs the feature scaler with the way model outputs are
// mapped back: a dedicated single-column target scaler when one was fitted,
// otherwise the joint feature scaler with the target at its fitted column.
type FeatureScaler struct {
	x      *Scaler
	y      *Scaler
	target int
}

// NewFeatureScaler builds a FeatureScaler. y may be nil.
func NewFeatureScaler(x, y *Scaler, target int) (*FeatureScaler, error) {
	if x == nil {
		return nil, fmt.Errorf("feature scaler is required")
	}
	if y != nil && y.Dim() != 1 {
		return nil, fmt.Errorf("target scaler must be fitted on one column, got %d", y.Dim())
	}
	if y == nil && (target < 0 || target >= x.Dim()) {
		return nil, fmt.Errorf("target column %d outside fitted width %d", target, x.Dim())
	}
	return &FeatureScaler{x: x, y: y, target: target}, nil
}

func (f *FeatureScaler) Forward(m *mat.Dense) (*mat.Dense, error) {
	return f.x.Transform(m)
}

func (f *FeatureScaler) Inverse(scaled float64) (float64, error) {
	if f.y != nil {
		row, err := f.y.InverseRow([]float64{scaled})
		if err != nil {
			return 0, err
		}
		return row[0], nil
	}
	full := make([]float64, f.x.Dim())
	full[f.target] = scaled
	row, err := f.x.InverseRow(full)
	if err != nil {
		return 0, err
	}
	return row[f.target], nil
}

var _ domsvc.FeatureScaler = (*FeatureScaler)(nil)
