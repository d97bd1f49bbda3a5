//go:build wireinject
// +build wireinject

package di

import (
	"VolPosture/pkg/config"
	"VolPosture/pkg/server"

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
		ProvideBytesCache,
		ProvideRollingCache,

		// Repositories and providers
		ProvideRecordsRepository,
		ProvideResultPublisher,
		ProvideVIXProvider,
		ProvideFetcher,
		ProvideIVTermsProvider,
		ProvideDeltaOIProvider,

		// Use cases
		ProvideAnalyzer,
		ProvideRecordsUseCase,
		ProvideTaskManager,

		// HTTP surface
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
