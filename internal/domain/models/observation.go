package models

import (
	"strings"
	"time"
)

// Feature column names, in the order the sequence models were fitted on.
const (
	FeatureOpen   = "open"
	FeatureHigh   = "high"
	FeatureLow    = "low"
	FeatureClose  = "close"
	FeatureVolume = "volume"
)

// DefaultFeatures is the OHLCV column order used when an instrument does not override it.
var DefaultFeatures = []string{FeatureOpen, FeatureHigh, FeatureLow, FeatureClose, FeatureVolume}

// Observation represents one daily OHLCV bar.
type Observation struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Value returns the named feature of the observation.
func (o Observation) Value(feature string) (float64, bool) {
	switch strings.ToLower(feature) {
	case FeatureOpen:
		return o.Open, true
	case FeatureHigh:
		return o.High, true
	case FeatureLow:
		return o.Low, true
	case FeatureClose:
		return o.Close, true
	case FeatureVolume:
		return o.Volume, true
	default:
		return 0, false
	}
}

// TimeSeries is ordered by Date ascending and holds at most one observation per date.
type TimeSeries []Observation

// Len returns the number of observations.
func (s TimeSeries) Len() int { return len(s) }

// Last returns the most recent observation.
func (s TimeSeries) Last() (Observation, bool) {
	if len(s) == 0 {
		return Observation{}, false
	}
	return s[len(s)-1], true
}

// DayKey truncates t to its calendar day in UTC; series rows are keyed by it.
func DayKey(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
