//go:build wireinject
// +build wireinject

package di

import (
	"StockX/pkg/config"
	"StockX/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Storage
		ProvideSeriesStore,
		ProvideStateStore,

		// Models
		ProvideSequenceFactory,
		ProvideRegistry,

		// Sinks
		ProvideStreamHub,
		ProvideKafkaProducer,

		// Use cases and transports
		ProvidePredictionUseCase,
		ProvideKafkaConsumer,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
