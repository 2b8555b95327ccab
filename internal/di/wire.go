//go:build wireinject
// +build wireinject

package di

import (
	"CosmicOptic/pkg/config"
	"CosmicOptic/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideClickHouseClient,
		ProvideCache,
		ProvideMetrics,

		// Repositories
		ProvideCatalogSource,
		ProvideCatalog,
		ProvideResultCache,
		ProvideResultPublisher,

		// Core services
		ProvideGenerator,
		ProvideClassifier,
		ProvideExplainer,

		// Use cases
		ProvidePredictionService,
		ProvideKafkaConsumer,
		ProvideKafkaPredictHandler,

		// HTTP
		ProvideRateLimiter,
		ProvidePredictionHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
