package di

import (
	"context"
	"fmt"
	"time"

	"StockX/internal/domain/repository"
	domsvc "StockX/internal/domain/service"
	"StockX/internal/handler/api"
	internalrepo "StockX/internal/repository"
	"StockX/internal/service/stream"
	"StockX/internal/services/forecast"
	"StockX/internal/services/registry"
	"StockX/internal/usecase"
	pkgch "StockX/pkg/clickhouse"
	"StockX/pkg/config"
	xhttp "StockX/pkg/http"
	pkgkafka "StockX/pkg/kafka"
	applogger "StockX/pkg/logger"
	"StockX/pkg/metrics"
	"StockX/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("service", "stockx"), applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and its schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, pkgch.SeriesSchema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideSeriesStore opens the configured series backend.
func ProvideSeriesStore(cfg *config.Config, l *applogger.Logger) (repository.SeriesStore, func(), error) {
	switch cfg.Storage.SeriesBackend {
	case config.SeriesSQLite:
		db, err := internalrepo.OpenSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		store, err := internalrepo.NewSQLiteSeriesStore(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		store.SetLogger(l)
		return store, closeWith(l, "sqlite", store.Close), nil

	case config.SeriesClickHouse:
		client, err := ProvideClickHouseClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		store := internalrepo.NewCHSeriesStore(client, cfg.ClickHouse.Database)
		store.SetLogger(l)
		return store, closeWith(l, "clickhouse", client.Close), nil

	default:
		paths := make(map[string]string, len(cfg.Instruments))
		for _, in := range cfg.Instruments {
			paths[in.Symbol] = cfg.DatasetPath(in)
		}
		store := internalrepo.NewCSVSeriesStore(func(symbol string) string {
			if p, ok := paths[symbol]; ok {
				return p
			}
			return fmt.Sprintf(cfg.Storage.DatasetPattern, symbol)
		})
		store.SetLogger(l)
		return store, func() {}, nil
	}
}

// ProvideStateStore opens the configured statistical state backend.
func ProvideStateStore(cfg *config.Config, l *applogger.Logger) (repository.StateStore, func(), error) {
	if cfg.Storage.StateBackend == config.StateRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return internalrepo.NewRedisStateStore(client, cfg.Redis.KeyPrefix), closeWith(l, "redis", client.Close), nil
	}

	paths := make(map[string]string, len(cfg.Instruments))
	for _, in := range cfg.Instruments {
		paths[in.Symbol] = cfg.StatePath(in)
	}
	return internalrepo.NewFileStateStore(func(symbol string) string {
		if p, ok := paths[symbol]; ok {
			return p
		}
		return cfg.StatePath(config.Instrument{Symbol: symbol})
	}), func() {}, nil
}

// ProvideSequenceFactory selects the native or remote sequence backend.
func ProvideSequenceFactory(cfg *config.Config) registry.SequenceFactory {
	if cfg.Sequence.Backend == config.SequenceRemote {
		base := forecast.NewHTTPServiceBase(cfg.Sequence.ServerURL, cfg.Sequence.Timeout)
		return func(in config.Instrument) (domsvc.SequenceForecaster, error) {
			return forecast.NewHTTPSequenceForecaster(base, in.Symbol, in.Window, len(in.Features)), nil
		}
	}
	return func(in config.Instrument) (domsvc.SequenceForecaster, error) {
		n, err := forecast.LoadLSTMNetwork(in.Model)
		if err != nil {
			return nil, err
		}
		return n, nil
	}
}

// ProvideRegistry loads every configured instrument.
func ProvideRegistry(cfg *config.Config, states repository.StateStore, seq registry.SequenceFactory, l *applogger.Logger) (*registry.Registry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return registry.Load(ctx, cfg, states, seq, l)
}

// ProvideStreamHub creates the WebSocket prediction hub.
func ProvideStreamHub(l *applogger.Logger) (*stream.Hub, func()) {
	hub := stream.NewHub(l)
	return hub, closeWith(l, "websocket hub", hub.Close)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, closeWith(l, "kafka producer", producer.Close), nil
}

// ProvidePredictionUseCase creates the orchestrator and attaches its sinks.
func ProvidePredictionUseCase(
	reg *registry.Registry,
	series repository.SeriesStore,
	m repository.Metrics,
	l *applogger.Logger,
	hub *stream.Hub,
	producer *pkgkafka.Producer,
	cfg *config.Config,
) *usecase.PredictionUseCase {
	uc := usecase.NewPredictionUseCase(reg, series, m, l)
	uc.AddPublisher(hub)
	if producer != nil {
		uc.AddPublisher(internalrepo.NewKafkaPredictionPublisher(producer, cfg.Kafka.PredictionsTopic))
	}
	return uc
}

// ProvideKafkaConsumer creates the observations consumer, or nil when Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger, uc *usecase.PredictionUseCase, m repository.Metrics) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.TraceHook())
	consumer.RegisterHandler(usecase.NewKafkaObservationsHandler(cfg.Kafka.ObservationsTopic, uc, m))
	return consumer, nil
}

// ProvideHTTPServer creates the echo server with the prediction routes.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, uc *usecase.PredictionUseCase, hub *stream.Hub) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(
		[]xhttp.Handler{api.NewPredictEchoHandler(l, uc, hub)},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, l *applogger.Logger, srv *xhttp.Server, consumer *pkgkafka.Consumer) *server.App {
	return server.New(cfg, l, srv, consumer)
}

// SeedSeries copies each instrument's csv dataset into the configured
// database backend.
func SeedSeries(ctx context.Context, cfg *config.Config, l *applogger.Logger) error {
	store, cleanup, err := ProvideSeriesStore(cfg, l)
	if err != nil {
		return err
	}
	defer cleanup()

	importer, ok := store.(repository.SeriesImporter)
	if !ok {
		return fmt.Errorf("series backend %q does not support import", cfg.Storage.SeriesBackend)
	}
	for _, in := range cfg.Instruments {
		path := cfg.DatasetPath(in)
		series, err := internalrepo.ReadCSVSeries(path)
		if err != nil {
			return fmt.Errorf("seed %s: %w", in.Symbol, err)
		}
		if err := importer.Import(ctx, in.Symbol, series); err != nil {
			return fmt.Errorf("seed %s: %w", in.Symbol, err)
		}
		l.Info("series seeded",
			applogger.String("symbol", in.Symbol),
			applogger.String("source", path),
			applogger.Int("rows", series.Len()),
		)
	}
	return nil
}

func closeWith(l *applogger.Logger, name string, closeFn func() error) func() {
	return func() {
		if err := closeFn(); err != nil {
			l.Warn("close error", applogger.String("resource", name), applogger.Error(err))
		}
	}
}

var _ repository.SeriesImporter = (*internalrepo.SQLiteSeriesStore)(nil)
var _ repository.SeriesImporter = (*internalrepo.CHSeriesStore)(nil)
