//go:build wireinject
// +build wireinject

package di

import (
	"NSEScan/pkg/config"
	"NSEScan/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Repositories and adapters
		ProvideScanCache,
		ProvideSignalStore,
		ProvideCandleArchive,
		ProvideEventPublisher,
		ProvideMarketData,

		// Use cases
		ProvideScanner,
		ProvideBacktestRunner,

		// Transport
		ProvideRateLimiter,
		ProvideScreenerHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
