//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"FinCast/pkg/config"
	"FinCast/pkg/server"
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
		ProvideKafkaConsumer,
		ProvideHTTPClient,

		// Repositories
		ProvideSourceCache,
		ProvideCandleArchive,
		ProvideEventPublisher,
		ProvideProviderChain,

		// Use cases
		ProvideCascade,
		ProvideProfiles,
		ProvideForecasters,
		ProvideRunner,
		ProvideSymbolCatalog,
		ProvideStatsAnalyzer,
		ProvidePrefetchHandler,

		// Transport
		ProvideRateLimiter,
		ProvideHandlers,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}

// InitializeToolkit wires the data and forecasting use cases for the CLI.
func InitializeToolkit(cfg *config.Config) (*Toolkit, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideRedisCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideHTTPClient,
		ProvideSourceCache,
		ProvideCandleArchive,
		ProvideEventPublisher,
		ProvideProviderChain,
		ProvideCascade,
		ProvideProfiles,
		ProvideForecasters,
		ProvideRunner,
		ProvideSymbolCatalog,
		ProvideStatsAnalyzer,
		ProvideToolkit,
	)
	return &Toolkit{}, nil
}
