package api

import (
	"errors"
	"net/http"

	"StockX/internal/domain/models"
	"StockX/internal/usecase"
	xhttp "StockX/pkg/http"
	xlogger "StockX/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Error codes returned in the response envelope.
const (
	ErrCodeUnknownInstrument   = "ERR_UNKNOWN_INSTRUMENT"
	ErrCodeDatasetMissing      = "ERR_DATASET_MISSING"
	ErrCodeInsufficientHistory = "ERR_INSUFFICIENT_HISTORY"
	ErrCodeStorage             = "ERR_STORAGE"
)

// PredictEchoHandler serves the prediction API.
type PredictEchoHandler struct {
	logger *xlogger.Logger
	uc     *usecase.PredictionUseCase
	stream http.Handler
}

// NewPredictEchoHandler builds the handler. stream may be nil, in which case
// /ws/predictions is not registered.
func NewPredictEchoHandler(logger *xlogger.Logger, uc *usecase.PredictionUseCase, stream http.Handler) *PredictEchoHandler {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	return &PredictEchoHandler{logger: logger, uc: uc, stream: stream}
}

func (h *PredictEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/predict_next", h.PredictNext)
	e.GET("/instruments", h.Instruments)
	e.GET("/health", h.Health)
	if h.stream != nil {
		e.GET("/ws/predictions", echo.WrapHandler(h.stream))
	}
}

func (h *PredictEchoHandler) PredictNext(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	p, err := h.uc.HandleRequest(c.Request().Context(), *req)
	if err != nil {
		appErr := toAppError(err)
		if appErr.Status >= http.StatusInternalServerError {
			h.logger.Error("predict usecase error",
				xlogger.String("company", req.Company),
				xlogger.Error(err),
			)
		}
		return xhttp.AppErrorResponse(c, appErr)
	}
	return xhttp.SuccessResponse(c, models.NewPredictResponse(p))
}

func (h *PredictEchoHandler) Instruments(c echo.Context) error {
	ins := h.uc.Instruments()
	out := make([]models.InstrumentInfo, 0, len(ins))
	for _, in := range ins {
		out = append(out, models.InstrumentInfo{
			Symbol:   in.Symbol,
			Window:   in.Window,
			Features: in.Features,
			Target:   in.Target,
		})
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *PredictEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// toAppError maps domain errors onto response codes.
func toAppError(err error) *xhttp.AppError {
	var (
		unknown *models.UnknownInstrumentError
		missing *models.DatasetMissingError
		short   *models.InsufficientHistoryError
	)
	switch {
	case errors.As(err, &unknown):
		return xhttp.NotFoundError(ErrCodeUnknownInstrument, unknown.Error()).
			WithParam("company", unknown.Symbol).WithError(err)
	case errors.As(err, &missing):
		return xhttp.UnavailableError(ErrCodeDatasetMissing, missing.Error()).
			WithParam("company", missing.Symbol).WithError(err)
	case errors.As(err, &short):
		return xhttp.UnprocessableError(ErrCodeInsufficientHistory, short.Error()).
			WithParams(map[string]interface{}{
				"required":  short.Required,
				"available": short.Available,
			}).WithError(err)
	case models.IsStorageError(err):
		appErr := xhttp.InternalError("failed to persist update").WithError(err)
		appErr.Code = ErrCodeStorage
		return appErr
	default:
		return xhttp.InternalError("prediction failed").WithError(err)
	}
}
