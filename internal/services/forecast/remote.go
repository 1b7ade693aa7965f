package forecast

import (
	"context"
	"fmt"

	"StockX/internal/domain/models"
	domsvc "StockX/internal/domain/service"

	"gonum.org/v1/gonum/mat"
)

// HTTPSequenceForecaster delegates inference to a model server that hosts the
// trained network. The input shape is checked locally before any request.
type HTTPSequenceForecaster struct {
	base       *HTTPServiceBase
	symbol     string
	rows, cols int
}

func NewHTTPSequenceForecaster(base *HTTPServiceBase, symbol string, rows, cols int) *HTTPSequenceForecaster {
	return &HTTPSequenceForecaster{base: base, symbol: symbol, rows: rows, cols: cols}
}

type sequenceReq struct {
	Symbol string      `json:"symbol"`
	Window [][]float64 `json:"window"`
}

type sequenceResp struct {
	Prediction *float64 `json:"prediction"`
	Model      string   `json:"model,omitempty"`
}

func (f *HTTPSequenceForecaster) InputShape() (int, int) { return f.rows, f.cols }

func (f *HTTPSequenceForecaster) Predict(ctx context.Context, window *mat.Dense) (float64, error) {
	r, c := window.Dims()
	if r != f.rows || c != f.cols {
		return 0, &models.ShapeMismatchError{What: "sequence model", WantRows: f.rows, WantCols: f.cols, GotRows: r, GotCols: c}
	}
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = mat.Row(nil, i, window)
	}

	var sr sequenceResp
	if err := f.base.PostJSON(ctx, "/sequence/predict", sequenceReq{Symbol: f.symbol, Window: rows}, &sr); err != nil {
		return 0, fmt.Errorf("remote sequence %s: %w", f.symbol, err)
	}
	if sr.Prediction == nil {
		return 0, fmt.Errorf("remote sequence %s: empty prediction", f.symbol)
	}
	return *sr.Prediction, nil
}

var _ domsvc.SequenceForecaster = (*HTTPSequenceForecaster)(nil)
