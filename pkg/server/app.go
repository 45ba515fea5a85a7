package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/volatiq/volatiq/internal/service/audit"
	"github.com/volatiq/volatiq/pkg/config"
	xhttp "github.com/volatiq/volatiq/pkg/http"
	applogger "github.com/volatiq/volatiq/pkg/logger"
)

// App encapsulates the serving process lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	handler    xhttp.Handler
	auditor    *audit.Recorder
	httpServer *xhttp.Server
}

// New creates the application with all dependencies.
func New(cfg *config.Config, logger *applogger.Logger, handler xhttp.Handler, auditor *audit.Recorder) *App {
	return &App{
		cfg:     cfg,
		logger:  logger,
		handler: handler,
		auditor: auditor,
	}
}

// Run starts the HTTP server and blocks until interrupted.
func (a *App) Run() error {
	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithHost(a.cfg.Server.Host),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(a.cfg.Metrics.Path),
	)

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("serving",
		applogger.String("host", a.cfg.Server.Host),
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("environment", a.cfg.Environment),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.auditor != nil {
		if err := a.auditor.Close(); err != nil {
			a.logger.Warn("audit close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
