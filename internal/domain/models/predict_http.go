package models

import "strings"

// Requests for prediction endpoints. Defined in domain for reuse by the Kafka handler.

// PredictRequest is the /predict_next body. Numeric fields are pointers so a
// missing value is distinguishable from zero.
type PredictRequest struct {
	Company string   `json:"company" validate:"required"`
	Date    string   `json:"Date" validate:"required,datetime=2006-01-02"`
	Open    *float64 `json:"Open" validate:"required"`
	High    *float64 `json:"High" validate:"required"`
	Low     *float64 `json:"Low" validate:"required"`
	Close   *float64 `json:"Close" validate:"required"`
	Volume  *float64 `json:"Volume" validate:"required,gte=0"`
}

// PredictResponse is the transport view of a Prediction.
type PredictResponse struct {
	Company             string            `json:"company"`
	Date                string            `json:"date"`
	LSTMPredictedClose  *float64          `json:"lstm_predicted_close"`
	ARIMAPredictedClose *float64          `json:"arima_predicted_close"`
	Errors              map[string]string `json:"errors,omitempty"`
}

// NewPredictResponse renders p for transport. The company is upper-cased.
func NewPredictResponse(p *Prediction) PredictResponse {
	return PredictResponse{
		Company:             strings.ToUpper(p.Symbol),
		Date:                p.Date.Format("2006-01-02"),
		LSTMPredictedClose:  p.Neural,
		ARIMAPredictedClose: p.Statistical,
		Errors:              p.Errors,
	}
}

// InstrumentInfo is returned by the instruments listing endpoint.
type InstrumentInfo struct {
	Symbol   string   `json:"symbol"`
	Window   int      `json:"window"`
	Features []string `json:"features"`
	Target   string   `json:"target"`
}
