//go:build wireinject
// +build wireinject

package di

import (
	"SmartFlow/pkg/config"
	"SmartFlow/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideDisclosureStore,
		ProvideSignalStore,
		ProvideDisclosurePublisher,
		ProvideSignalPublisher,

		// Services
		ProvideRedisCache,
		ProvideAlertQueue,
		ProvidePriceProvider,
		ProvideAlertDispatcher,

		// Use cases
		ProvideDisclosureHandler,
		ProvideScanner,
		ProvideBacktester,
		ProvideIngestPipeline,
		ProvideWhaleCollector,

		// HTTP
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
