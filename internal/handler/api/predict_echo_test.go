package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"StockX/internal/domain/models"
	"StockX/internal/services/registry"
	"StockX/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

type stubSeries struct {
	rows map[string]int
	err  error
}

func (s *stubSeries) Upsert(_ context.Context, symbol string, obs models.Observation) (models.TimeSeries, error) {
	if s.err != nil {
		return nil, s.err
	}
	n, ok := s.rows[symbol]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := make(models.TimeSeries, n)
	for i := range out {
		out[i] = models.Observation{Date: obs.Date.AddDate(0, 0, i-n+1), Open: 1, High: 1, Low: 1, Close: 1, Volume: 1}
	}
	out[n-1] = obs
	return out, nil
}

func (s *stubSeries) Close() error { return nil }

type identity struct{}

func (identity) Forward(m *mat.Dense) (*mat.Dense, error) { return m, nil }
func (identity) Inverse(v float64) (float64, error) { return v, nil }

type constSeq struct{ v float64 }

func (constSeq) InputShape() (int, int) { return 2, 5 }
func (c constSeq) Predict(context.Context, *mat.Dense) (float64, error) { return c.v, nil }

type constStat struct{ v float64 }

func (c constStat) AppendAndForecast(context.Context, float64) (float64, error) { return c.v, nil }
func (constStat) HistoryLen() int { return 0 }

func newTestEcho(t *testing.T, series *stubSeries) *echo.Echo {
	t.Helper()
	reg, err := registry.New(&registry.Entry{
		Instrument:  models.Instrument{Symbol: "ntc", Window: 2, Features: models.DefaultFeatures, Target: "close"},
		Scaler:      identity{},
		Sequence:    constSeq{v: 512.25},
		Statistical: constStat{v: 510},
	})
	require.NoError(t, err)

	e := echo.New()
	NewPredictEchoHandler(nil, usecase.NewPredictionUseCase(reg, series, nil, nil), nil).RegisterRoutes(e)
	return e
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type apiError struct {
	Code   string                 `json:"code"`
	Field  string                 `json:"field"`
	Params map[string]interface{} `json:"params"`
}

func do(t *testing.T, e *echo.Echo, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	assert.Equal(t, rec.Code, env.Status)
	return rec, env
}

func errorsOf(t *testing.T, env envelope) []apiError {
	t.Helper()
	var out []apiError
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.NotEmpty(t, out)
	return out
}

const validBody = `{"company":"ntc","Date":"2024-02-01","Open":500,"High":515,"Low":498,"Close":511,"Volume":12000}`

func TestPredictNextSuccess(t *testing.T) {
	e := newTestEcho(t, &stubSeries{rows: map[string]int{"ntc": 10}})
	rec, env := do(t, e, http.MethodPost, "/predict_next", validBody)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.PredictResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "NTC", got.Company)
	assert.Equal(t, "2024-02-01", got.Date)
	require.NotNil(t, got.LSTMPredictedClose)
	require.NotNil(t, got.ARIMAPredictedClose)
	assert.Equal(t, 512.25, *got.LSTMPredictedClose)
	assert.Equal(t, 510.0, *got.ARIMAPredictedClose)
	assert.Empty(t, got.Errors)
}

func TestPredictNextErrors(t *testing.T) {
	tests := []struct {
		name   string
		series *stubSeries
		body   string
		status int
		code   string
		check  func(t *testing.T, e apiError)
	}{
		{
			name:   "unknown instrument",
			series: &stubSeries{rows: map[string]int{"ntc": 10}},
			body:   strings.Replace(validBody, `"ntc"`, `"NABIL"`, 1),
			status: http.StatusNotFound,
			code:   ErrCodeUnknownInstrument,
		},
		{
			name:   "dataset missing",
			series: &stubSeries{rows: map[string]int{}},
			body:   validBody,
			status: http.StatusServiceUnavailable,
			code:   ErrCodeDatasetMissing,
		},
		{
			name:   "insufficient history",
			series: &stubSeries{rows: map[string]int{"ntc": 1}},
			body:   validBody,
			status: http.StatusUnprocessableEntity,
			code:   ErrCodeInsufficientHistory,
			check: func(t *testing.T, e apiError) {
				assert.Equal(t, float64(2), e.Params["required"])
				assert.Equal(t, float64(1), e.Params["available"])
			},
		},
		{
			name:   "storage failure",
			series: &stubSeries{err: &models.StorageError{Op: "write series", Err: errors.New("disk full")}},
			body:   validBody,
			status: http.StatusInternalServerError,
			code:   ErrCodeStorage,
		},
		{
			name:   "missing close",
			series: &stubSeries{rows: map[string]int{"ntc": 10}},
			body:   `{"company":"ntc","Date":"2024-02-01","Open":500,"High":515,"Low":498,"Volume":12000}`,
			status: http.StatusBadRequest,
			code:   "ERR_REQUIRED",
			check: func(t *testing.T, e apiError) {
				assert.Equal(t, "Close", e.Field)
			},
		},
		{
			name:   "bad date",
			series: &stubSeries{rows: map[string]int{"ntc": 10}},
			body:   strings.Replace(validBody, "2024-02-01", "01/02/2024", 1),
			status: http.StatusBadRequest,
			code:   "ERR_DATETIME",
		},
		{
			name:   "malformed body",
			series: &stubSeries{rows: map[string]int{"ntc": 10}},
			body:   `{"company":`,
			status: http.StatusBadRequest,
			code:   "ERR_UNKNOWN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho(t, tt.series)
			rec, env := do(t, e, http.MethodPost, "/predict_next", tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			errs := errorsOf(t, env)
			assert.Equal(t, tt.code, errs[0].Code)
			if tt.check != nil {
				tt.check(t, errs[0])
			}
		})
	}
}

func TestInstrumentsAndHealth(t *testing.T) {
	e := newTestEcho(t, &stubSeries{})

	rec, env := do(t, e, http.MethodGet, "/instruments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var ins []models.InstrumentInfo
	require.NoError(t, json.Unmarshal(env.Data, &ins))
	require.Len(t, ins, 1)
	assert.Equal(t, "ntc", ins[0].Symbol)
	assert.Equal(t, 2, ins[0].Window)

	rec, _ = do(t, e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStreamRouteIsOptional(t *testing.T) {
	e := newTestEcho(t, &stubSeries{})
	req := httptest.NewRequest(http.MethodGet, "/ws/predictions", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
