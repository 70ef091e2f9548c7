//go:build wireinject
// +build wireinject

package di

import (
	"UMKMForecast/pkg/config"
	"UMKMForecast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,
		ProvideViewMetrics,

		// Infrastructure clients
		ProvideRedisCache,
		ProvideCache,
		ProvideKafkaProducer,
		ProvideJobQueue,

		// Repositories
		ProvideSessionStore,
		ProvideHub,
		ProvideEventPublisher,

		// Services and use cases
		ProvideForecastBackend,
		ProvideWorkflow,
		ProvideRateLimiter,

		// Transport and application
		ProvideHTTPServer,
		ProvideApp,
	)
	return &server.App{}, nil
}
