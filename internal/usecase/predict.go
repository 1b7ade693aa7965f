package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"StockX/internal/domain/models"
	domrepo "StockX/internal/domain/repository"
	"StockX/internal/services/features"
	"StockX/internal/services/registry"
	applogger "StockX/pkg/logger"
	"StockX/pkg/util"

	"gonum.org/v1/gonum/mat"
)

// Prediction outcomes used as metric labels.
const (
	outcomeOK     = "ok"
	outcomeAbsent = "absent"
	outcomeError  = "error"
)

// PredictionUseCase runs one observation through the series store and both
// forecasters of its instrument.
type PredictionUseCase struct {
	registry   *registry.Registry
	series     domrepo.SeriesStore
	metrics    domrepo.Metrics
	log        *applogger.Logger
	publishers []domrepo.PredictionPublisher
}

func NewPredictionUseCase(reg *registry.Registry, series domrepo.SeriesStore, metrics domrepo.Metrics, l *applogger.Logger) *PredictionUseCase {
	if l == nil {
		l = applogger.NewNop()
	}
	return &PredictionUseCase{
		registry: reg,
		series:   series,
		metrics:  metrics,
		log:      l,
	}
}

// AddPublisher registers a sink for successful predictions. Not safe for use
// once Handle is being called.
func (uc *PredictionUseCase) AddPublisher(p domrepo.PredictionPublisher) {
	if p != nil {
		uc.publishers = append(uc.publishers, p)
	}
}

// Instruments lists the configured instruments.
func (uc *PredictionUseCase) Instruments() []models.Instrument {
	return uc.registry.Instruments()
}

// HandleRequest converts a validated request body and handles it.
func (uc *PredictionUseCase) HandleRequest(ctx context.Context, req models.PredictRequest) (*models.Prediction, error) {
	obs, err := ObservationFromRequest(req)
	if err != nil {
		return nil, err
	}
	return uc.Handle(ctx, req.Company, obs)
}

// ObservationFromRequest builds an observation from a request body.
func ObservationFromRequest(req models.PredictRequest) (models.Observation, error) {
	d, err := util.ParseDate(req.Date)
	if err != nil {
		return models.Observation{}, err
	}
	if req.Open == nil || req.High == nil || req.Low == nil || req.Close == nil || req.Volume == nil {
		return models.Observation{}, fmt.Errorf("open, high, low, close and volume are required")
	}
	return models.Observation{
		Date:   d,
		Open:   *req.Open,
		High:   *req.High,
		Low:    *req.Low,
		Close:  *req.Close,
		Volume: *req.Volume,
	}, nil
}

// Handle merges obs into the instrument's series and returns both forecasts.
// A failure of one model is noted in Prediction.Errors; storage failures,
// unknown instruments, missing datasets and short histories fail the call.
// Once the instrument is resolved the call ignores cancellation of ctx; the
// remote sequence call is bounded by its client timeout.
func (uc *PredictionUseCase) Handle(ctx context.Context, symbol string, obs models.Observation) (*models.Prediction, error) {
	start := time.Now()
	defer func() { uc.recordLatency("predict", start) }()

	entry, err := uc.registry.Get(symbol)
	if err != nil {
		uc.recordError("unknown_instrument")
		return nil, err
	}
	in := entry.Instrument
	obs.Date = models.DayKey(obs.Date)

	ctx = context.WithoutCancel(ctx)

	p, err := uc.predictLocked(ctx, entry, obs)
	if err != nil {
		uc.log.Warn("prediction failed",
			applogger.String("symbol", in.Symbol),
			applogger.String("date", util.FormatDate(obs.Date)),
			applogger.Error(err),
		)
		return nil, err
	}

	uc.log.Info("prediction served",
		applogger.String("symbol", p.Symbol),
		applogger.String("date", util.FormatDate(p.Date)),
		applogger.Bool("partial", p.Partial()),
		applogger.Duration("elapsed", time.Since(start)),
	)
	uc.publish(ctx, p)
	return p, nil
}

func (uc *PredictionUseCase) predictLocked(ctx context.Context, entry *registry.Entry, obs models.Observation) (*models.Prediction, error) {
	entry.Lock()
	defer entry.Unlock()
	in := entry.Instrument

	t := time.Now()
	series, err := uc.series.Upsert(ctx, in.Symbol, obs)
	uc.recordLatency("upsert", t)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			uc.recordError("dataset_missing")
			return nil, &models.DatasetMissingError{Symbol: in.Symbol, Err: err}
		}
		uc.recordError("storage")
		return nil, fmt.Errorf("upsert %s: %w", in.Symbol, err)
	}

	window, err := features.Extract(series, in.Window, in.Features, in.Derivations)
	if err != nil {
		var short *models.InsufficientHistoryError
		if errors.As(err, &short) {
			uc.recordError("insufficient_history")
			return nil, err
		}
		uc.recordError("extract")
		return nil, fmt.Errorf("extract %s: %w", in.Symbol, err)
	}

	res := &models.Prediction{
		Symbol:    in.Symbol,
		Date:      obs.Date,
		Timestamp: time.Now(),
		Errors:    map[string]string{},
	}

	type item struct {
		name string
		val  float64
		err  error
	}
	ch := make(chan item, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.Now()
		v, err := uc.neural(ctx, entry, window)
		uc.recordLatency("neural", t)
		ch <- item{models.ModelNeural, v, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.Now()
		v, err := entry.Statistical.AppendAndForecast(ctx, obs.Close)
		uc.recordLatency("statistical", t)
		ch <- item{models.ModelStatistical, v, err}
	}()

	go func() { wg.Wait(); close(ch) }()

	var hard error
	for it := range ch {
		if it.err != nil {
			uc.recordPrediction(in.Symbol, it.name, outcomeError)
			if models.IsStorageError(it.err) {
				hard = it.err
			}
			res.Errors[it.name] = it.err.Error()
			continue
		}
		v := features.Sanitize(it.val)
		if v == nil {
			uc.recordPrediction(in.Symbol, it.name, outcomeAbsent)
			res.Errors[it.name] = "non-finite forecast discarded"
			continue
		}
		uc.recordPrediction(in.Symbol, it.name, outcomeOK)
		if uc.metrics != nil {
			uc.metrics.RecordLastForecast(in.Symbol, it.name, *v)
		}
		switch it.name {
		case models.ModelNeural:
			res.Neural = v
		case models.ModelStatistical:
			res.Statistical = v
		}
	}
	if hard != nil {
		uc.recordError("storage")
		return nil, hard
	}

	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	return res, nil
}

// neural runs forward scaling, inference and the inverse mapping of the target.
func (uc *PredictionUseCase) neural(ctx context.Context, entry *registry.Entry, window *mat.Dense) (float64, error) {
	scaled, err := entry.Scaler.Forward(window)
	if err != nil {
		return 0, fmt.Errorf("scale: %w", err)
	}
	out, err := entry.Sequence.Predict(ctx, scaled)
	if err != nil {
		return 0, fmt.Errorf("predict: %w", err)
	}
	v, err := entry.Scaler.Inverse(out)
	if err != nil {
		return 0, fmt.Errorf("inverse scale: %w", err)
	}
	in := entry.Instrument
	return features.Underive(in.Derivations[in.Target], v)
}

func (uc *PredictionUseCase) publish(ctx context.Context, p *models.Prediction) {
	for _, pub := range uc.publishers {
		if err := pub.PublishPrediction(ctx, p); err != nil {
			uc.recordError("publish")
			uc.log.Warn("publish prediction failed",
				applogger.String("symbol", p.Symbol),
				applogger.String("publisher", fmt.Sprintf("%T", pub)),
				applogger.Error(err),
			)
		}
	}
}

func (uc *PredictionUseCase) recordLatency(op string, start time.Time) {
	if uc.metrics != nil {
		uc.metrics.RecordLatency(op, time.Since(start).Seconds())
	}
}

func (uc *PredictionUseCase) recordError(kind string) {
	if uc.metrics != nil {
		uc.metrics.RecordError(kind)
	}
}

func (uc *PredictionUseCase) recordPrediction(symbol, model, outcome string) {
	if uc.metrics != nil {
		uc.metrics.RecordPrediction(symbol, model, outcome)
	}
}
