package di

import (
	"fmt"

	"github.com/volatiq/volatiq/internal/domain/repository"
	domsvc "github.com/volatiq/volatiq/internal/domain/service"
	"github.com/volatiq/volatiq/internal/handler/api"
	"github.com/volatiq/volatiq/internal/model"
	"github.com/volatiq/volatiq/internal/service/audit"
	"github.com/volatiq/volatiq/internal/service/explain"
	"github.com/volatiq/volatiq/internal/service/features"
	"github.com/volatiq/volatiq/internal/service/ratelimit"
	"github.com/volatiq/volatiq/internal/usecase"
	pkgch "github.com/volatiq/volatiq/pkg/clickhouse"
	"github.com/volatiq/volatiq/pkg/config"
	xhttp "github.com/volatiq/volatiq/pkg/http"
	pkgkafka "github.com/volatiq/volatiq/pkg/kafka"
	applogger "github.com/volatiq/volatiq/pkg/logger"
	"github.com/volatiq/volatiq/pkg/metrics"
	"github.com/volatiq/volatiq/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideModelHandle loads the trained artifacts. A load failure is not
// fatal: the process starts and reports unhealthy until redeployed, which
// keeps the failure observable through /health.
func ProvideModelHandle(cfg *config.Config, logger *applogger.Logger) *model.Handle {
	handle := model.NewHandle()
	if err := handle.Load(cfg.Model.Path, cfg.Model.ScalerPath); err != nil {
		logger.Error("model load failed, serving unhealthy",
			applogger.String("model_path", cfg.Model.Path),
			applogger.String("scaler_path", cfg.Model.ScalerPath),
			applogger.Error(err),
		)
		return handle
	}
	logger.Info("model and scaler loaded",
		applogger.String("version", handle.Version()),
		applogger.String("model_path", cfg.Model.Path),
	)
	return handle
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideValidator creates the feature validator.
func ProvideValidator() *features.Validator {
	return features.NewValidator()
}

// ProvideRateLimiter builds the limiter over the configured store. Returns
// nil when rate limiting is disabled.
func ProvideRateLimiter(cfg *config.Config) (*ratelimit.Limiter, error) {
	if !cfg.RateLimit.Enabled {
		return nil, nil
	}

	limits := ratelimit.Limits{
		DefaultPerDay:  cfg.RateLimit.DefaultPerDay,
		DefaultPerHour: cfg.RateLimit.DefaultPerHour,
		PredictPerHour: cfg.RateLimit.PredictPerHour,
		ExplainPerHour: cfg.RateLimit.ExplainPerHour,
	}

	switch cfg.RateLimit.Store {
	case "redis":
		store, err := ratelimit.NewRedisStore(ratelimit.RedisStoreConfig{
			Addr:     cfg.RateLimit.Redis.Addr,
			Password: cfg.RateLimit.Redis.Password,
			DB:       cfg.RateLimit.Redis.DB,
			Prefix:   cfg.RateLimit.Redis.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("ratelimit redis store: %w", err)
		}
		return ratelimit.New(store, limits), nil
	default:
		return ratelimit.New(ratelimit.NewMemoryStore(), limits), nil
	}
}

// ProvideAuditRecorder builds the audit pipeline for the configured backend.
func ProvideAuditRecorder(cfg *config.Config, m repository.Metrics, logger *applogger.Logger) (*audit.Recorder, error) {
	var sink repository.AuditSink

	switch cfg.Audit.Backend {
	case "kafka":
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Audit.Kafka.Brokers),
			pkgkafka.WithCompression(cfg.Audit.Kafka.Compression),
			pkgkafka.WithRequiredAcks(cfg.Audit.Kafka.RequiredAcks),
			pkgkafka.WithTimeouts(cfg.Audit.Kafka.WriteTimeout, cfg.Audit.Kafka.ReadTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("audit kafka producer: %w", err)
		}
		sink = audit.NewKafkaSink(producer, cfg.Audit.Kafka.Topic)
	case "clickhouse":
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.Audit.ClickHouse.Host),
			pkgch.WithPort(cfg.Audit.ClickHouse.Port),
			pkgch.WithDatabase(cfg.Audit.ClickHouse.Database),
			pkgch.WithCredentials(cfg.Audit.ClickHouse.User, cfg.Audit.ClickHouse.Password),
			pkgch.WithTimeouts(cfg.Audit.ClickHouse.DialTimeout, cfg.Audit.ClickHouse.ReadTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("audit clickhouse client: %w", err)
		}
		sink, err = audit.NewClickHouseSink(client, cfg.Audit.ClickHouse.Database, cfg.Audit.ClickHouse.Table)
		if err != nil {
			return nil, err
		}
	default:
		sink = audit.NoopSink{}
	}

	return audit.NewRecorder(sink, m, logger, cfg.Audit.BufferSize), nil
}

// ProvidePredictor creates the inference gateway.
func ProvidePredictor(handle *model.Handle, m repository.Metrics, logger *applogger.Logger) domsvc.Predictor {
	return usecase.NewPredictService(handle, m, logger)
}

// ProvideExplainer creates the attribution engine.
func ProvideExplainer(handle *model.Handle, m repository.Metrics, logger *applogger.Logger) domsvc.Explainer {
	return explain.NewShapleyExplainer(handle, m, logger)
}

// ProvideHealthService creates the health/metrics reporter.
func ProvideHealthService(handle *model.Handle) *usecase.HealthService {
	return usecase.NewHealthService(handle)
}

// ProvideHandler assembles the HTTP handler.
func ProvideHandler(
	cfg *config.Config,
	logger *applogger.Logger,
	validator *features.Validator,
	predictor domsvc.Predictor,
	explainer domsvc.Explainer,
	health *usecase.HealthService,
	limiter *ratelimit.Limiter,
	auditor *audit.Recorder,
	m repository.Metrics,
) xhttp.Handler {
	return api.NewVolatilityHandler(
		logger, validator, predictor, explainer, health, limiter, auditor, m,
		cfg.Model.MaxPredictionBatch,
		cfg.Model.MaxExplanationBatch,
		api.Limits{
			DefaultPerDay:  cfg.RateLimit.DefaultPerDay,
			DefaultPerHour: cfg.RateLimit.DefaultPerHour,
			PredictPerHour: cfg.RateLimit.PredictPerHour,
			ExplainPerHour: cfg.RateLimit.ExplainPerHour,
		},
	)
}

// ProvideApp assembles the application.
func ProvideApp(cfg *config.Config, logger *applogger.Logger, handler xhttp.Handler, auditor *audit.Recorder) *server.App {
	return server.New(cfg, logger, handler, auditor)
}
