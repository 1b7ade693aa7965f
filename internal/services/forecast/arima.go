package forecast

import (
	"errors"
	"fmt"
	"math"

	"StockX/internal/domain/models"
)

// Extension capability names.
const (
	CapabilityAppend = "append"
	CapabilityExtend = "extend"
)

var errMultiStep = errors.New("only one-step-ahead forecasts are supported")

// Extender grows an ARIMA state by one observation without touching its
// coefficients. Implementations are behavior-equivalent: after Extend the
// history is one longer and the forecast is the same.
type Extender interface {
	Name() string
	Extend(st *models.ARIMAState, value float64) error
}

// appendExtender updates the innovation buffer incrementally. It requires a
// buffer aligned with the differenced history.
type appendExtender struct{}

func (appendExtender) Name() string { return CapabilityAppend }

func (appendExtender) Extend(st *models.ARIMAState, value float64) error {
	if !hasInnovations(st) {
		return fmt.Errorf("append: innovation buffer not aligned with history (%d vs %d)", len(st.Residuals), diffLen(st))
	}
	y := append(st.History, value)
	if t := len(y) - 1; t >= st.D {
		w := differenced(st.History, st.D)
		e := predictDiff(st, w, st.Residuals)
		st.Residuals = append(st.Residuals, diffAt(y, t, st.D)-e)
	}
	st.History = y
	st.Updates++
	return nil
}

// extendExtender serves states persisted without an innovation buffer: it
// only grows the history and refilters innovations when a forecast needs them.
type extendExtender struct{}

func (extendExtender) Name() string { return CapabilityExtend }

func (extendExtender) Extend(st *models.ARIMAState, value float64) error {
	st.History = append(st.History, value)
	st.Residuals = nil
	st.Updates++
	return nil
}

// SelectExtender picks the capability the loaded state supports.
func SelectExtender(st *models.ARIMAState) Extender {
	if hasInnovations(st) {
		return appendExtender{}
	}
	return extendExtender{}
}

// ARIMA is an online ARIMA(p,d,q) model with fixed coefficients.
type ARIMA struct {
	state *models.ARIMAState
	ext   Extender
}

// NewARIMA validates st and binds the extension capability it supports.
// The model takes ownership of st.
func NewARIMA(st *models.ARIMAState) (*ARIMA, error) {
	if st == nil {
		return nil, fmt.Errorf("arima: nil state")
	}
	if st.D < 0 || st.D > 2 {
		return nil, fmt.Errorf("arima: unsupported differencing order %d", st.D)
	}
	if len(st.History) <= st.D {
		return nil, fmt.Errorf("arima: history of %d values too short for d=%d", len(st.History), st.D)
	}
	for _, c := range append(append([]float64{st.Const}, st.AR...), st.MA...) {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("arima: non-finite coefficient")
		}
	}
	return &ARIMA{state: st, ext: SelectExtender(st)}, nil
}

// Capability returns the extension capability chosen at load time.
func (m *ARIMA) Capability() string { return m.ext.Name() }

// State exposes the current state for persistence.
func (m *ARIMA) State() *models.ARIMAState { return m.state }

// Len returns the number of observed values.
func (m *ARIMA) Len() int { return len(m.state.History) }

// Clone returns an independent copy sharing the capability.
func (m *ARIMA) Clone() *ARIMA {
	return &ARIMA{state: m.state.Clone(), ext: m.ext}
}

// Update appends one observed value without re-estimating coefficients.
func (m *ARIMA) Update(value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("arima: non-finite observation %v", value)
	}
	return m.ext.Extend(m.state, value)
}

// Forecast returns the forecast `steps` ahead in original units. Only steps=1 is supported.
func (m *ARIMA) Forecast(steps int) (float64, error) {
	if steps != 1 {
		return 0, errMultiStep
	}
	st := m.state
	w := differenced(st.History, st.D)
	e := st.Residuals
	if !hasInnovations(st) {
		e = innovations(st, w)
	}
	wNext := predictDiff(st, w, e)

	// invert the differencing: y_n = w_n - sum_{k=1..d} C(d,k)(-1)^k y_{n-k}
	y := st.History
	n := len(y)
	out := wNext
	for k := 1; k <= st.D; k++ {
		out -= binom(st.D, k) * sign(k) * y[n-k]
	}
	return out, nil
}

// predictDiff is the conditional one-step prediction of the next differenced
// value given w and innovations e (same length). Lags before the sample are zero.
func predictDiff(st *models.ARIMAState, w, e []float64) float64 {
	n := len(w)
	out := st.Const
	for i, phi := range st.AR {
		if j := n - 1 - i; j >= 0 {
			out += phi * w[j]
		}
	}
	for i, theta := range st.MA {
		if j := n - 1 - i; j >= 0 && j < len(e) {
			out += theta * e[j]
		}
	}
	return out
}

// innovations filters w with the fixed coefficients.
func innovations(st *models.ARIMAState, w []float64) []float64 {
	e := make([]float64, 0, len(w))
	for t := range w {
		e = append(e, w[t]-predictDiff(st, w[:t], e))
	}
	return e
}

func hasInnovations(st *models.ARIMAState) bool {
	return st.Residuals != nil && len(st.Residuals) == diffLen(st)
}

func diffLen(st *models.ARIMAState) int {
	if n := len(st.History) - st.D; n > 0 {
		return n
	}
	return 0
}

func differenced(y []float64, d int) []float64 {
	if len(y) <= d {
		return nil
	}
	out := make([]float64, 0, len(y)-d)
	for t := d; t < len(y); t++ {
		out = append(out, diffAt(y, t, d))
	}
	return out
}

// diffAt is the d-th difference of y at t: sum_{k=0..d} C(d,k)(-1)^k y_{t-k}.
func diffAt(y []float64, t, d int) float64 {
	out := 0.0
	for k := 0; k <= d; k++ {
		out += binom(d, k) * sign(k) * y[t-k]
	}
	return out
}

func binom(n, k int) float64 {
	r := 1.0
	for i := 1; i <= k; i++ {
		r = r * float64(n-k+i) / float64(i)
	}
	return r
}

func sign(k int) float64 {
	if k%2 == 0 {
		return 1
	}
	return -1
}
