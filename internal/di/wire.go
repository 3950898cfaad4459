//go:build wireinject
// +build wireinject

package di

import (
	"github.com/Kagemann/brondby-stock-tracker/pkg/config"
	"github.com/Kagemann/brondby-stock-tracker/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisClient,

		// Engine tuning
		ProvideThresholds,

		// Repositories
		ProvideMarketStore,
		ProvideNewsStore,
		ProvideResultStore,
		ProvideAlertLog,
		ProvideQueryCache,
		ProvideNotifier,

		// Market data polling
		ProvideQuoteSource,
		ProvidePriceCollector,

		// Use cases
		ProvideAnalyzeUseCase,
		ProvideQueriesUseCase,
		ProvideKafkaNewsHandler,
		ProvideScheduler,

		// HTTP layer
		ProvideStreamHub,
		ProvideAnalysisHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
