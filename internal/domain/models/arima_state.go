package models

// ARIMAState is the persisted statistical model: fixed coefficients plus the
// observed history the one-step forecast is conditioned on.
//
// The model is w_t = Const + sum(AR[i]*w_{t-1-i}) + sum(MA[j]*e_{t-1-j}) + e_t
// where w is the D-times differenced History. Residuals, when present, holds
// e aligned with w (len(History)-D entries).
type ARIMAState struct {
	Symbol    string    `msgpack:"symbol" json:"symbol"`
	D         int       `msgpack:"d" json:"d"`
	Const     float64   `msgpack:"const" json:"const"`
	AR        []float64 `msgpack:"ar" json:"ar"`
	MA        []float64 `msgpack:"ma" json:"ma"`
	History   []float64 `msgpack:"history" json:"history"`
	Residuals []float64 `msgpack:"residuals,omitempty" json:"residuals,omitempty"`
	Updates   int64     `msgpack:"updates" json:"updates"`
}

// Clone returns a deep copy.
func (s *ARIMAState) Clone() *ARIMAState {
	out := *s
	out.AR = append([]float64(nil), s.AR...)
	out.MA = append([]float64(nil), s.MA...)
	out.History = append([]float64(nil), s.History...)
	if s.Residuals != nil {
		out.Residuals = append([]float64(nil), s.Residuals...)
	}
	return &out
}
