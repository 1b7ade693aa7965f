package models

import "time"

// Model names used in prediction error notes and metrics labels.
const (
	ModelNeural      = "lstm"
	ModelStatistical = "arima"
)

// Prediction carries both next-close forecasts for one instrument.
// A nil forecast means the model produced no usable (finite) value.
// Note: no transport (json/http) concerns here.
type Prediction struct {
	Symbol      string
	Date        time.Time
	Timestamp   time.Time
	Neural      *float64
	Statistical *float64
	Errors      map[string]string
}

// Partial reports whether at least one model failed or was sanitized away.
func (p *Prediction) Partial() bool {
	return p.Neural == nil || p.Statistical == nil
}
