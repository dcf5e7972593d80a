//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"TradeForge/pkg/config"
	"TradeForge/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application
// with a cleanup that releases them in reverse order.
func InitializeApp(ctx context.Context, cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Observability
		ProvideRegistry,
		ProvideMetrics,
		ProvideKafkaProducer,
		ProvideLogger,

		// Collaborators
		ProvideEventPublisher,
		ProvideStore,
		ProvideTradeJournal,
		ProvideCache,
		ProvideLocker,
		ProvideReportCache,
		ProvideSectorSource,
		ProvideRNG,

		// Use cases
		ProvideSectorRegistry,
		ProvideAssembler,
		ProvidePipeline,
		ProvideGenerator,
		ProvideMarketReport,
		ProvideTradeLog,

		// Delivery
		ProvideTradeConsumer,
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}
