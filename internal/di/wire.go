//go:build wireinject
// +build wireinject

package di

import (
	"github.com/volatiq/volatiq/pkg/config"
	"github.com/volatiq/volatiq/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Model artifacts
		ProvideModelHandle,

		// Serving components
		ProvideValidator,
		ProvideRateLimiter,
		ProvideAuditRecorder,
		ProvidePredictor,
		ProvideExplainer,
		ProvideHealthService,

		// HTTP surface
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
