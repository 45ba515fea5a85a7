package api

import (
	"fmt"
	"time"

	"github.com/volatiq/volatiq/internal/domain/models"
	"github.com/volatiq/volatiq/internal/domain/repository"
	domsvc "github.com/volatiq/volatiq/internal/domain/service"
	"github.com/volatiq/volatiq/internal/service/audit"
	"github.com/volatiq/volatiq/internal/service/features"
	"github.com/volatiq/volatiq/internal/service/ratelimit"
	"github.com/volatiq/volatiq/internal/usecase"
	xhttp "github.com/volatiq/volatiq/pkg/http"
	applogger "github.com/volatiq/volatiq/pkg/logger"

	"github.com/labstack/echo/v4"
)

// APIVersion is the public version string reported by the info and health
// endpoints.
const APIVersion = "1.0.0"

// IdentityFunc extracts the client identity used to scope rate limits.
// The default keys budgets by the requester's network address.
type IdentityFunc func(c echo.Context) string

// DefaultIdentity returns the request's real IP.
func DefaultIdentity(c echo.Context) string { return c.RealIP() }

// Limits is the handler's view of the configured rate budgets, echoed on
// GET / and used for nothing else.
type Limits struct {
	DefaultPerDay  int
	DefaultPerHour int
	PredictPerHour int
	ExplainPerHour int
}

// VolatilityHandler serves the prediction/explanation API.
type VolatilityHandler struct {
	logger    *applogger.Logger
	validator *features.Validator
	predictor domsvc.Predictor
	explainer domsvc.Explainer
	health    *usecase.HealthService
	limiter   *ratelimit.Limiter
	audit     *audit.Recorder
	metrics   repository.Metrics
	identity  IdentityFunc

	maxPredictBatch int
	maxExplainBatch int
	limits          Limits
}

// NewVolatilityHandler wires the serving components into an HTTP handler.
// limiter may be nil when rate limiting is disabled.
func NewVolatilityHandler(
	logger *applogger.Logger,
	validator *features.Validator,
	predictor domsvc.Predictor,
	explainer domsvc.Explainer,
	health *usecase.HealthService,
	limiter *ratelimit.Limiter,
	auditor *audit.Recorder,
	metrics repository.Metrics,
	maxPredictBatch, maxExplainBatch int,
	limits Limits,
) *VolatilityHandler {
	return &VolatilityHandler{
		logger:          logger,
		validator:       validator,
		predictor:       predictor,
		explainer:       explainer,
		health:          health,
		limiter:         limiter,
		audit:           auditor,
		metrics:         metrics,
		identity:        DefaultIdentity,
		maxPredictBatch: maxPredictBatch,
		maxExplainBatch: maxExplainBatch,
		limits:          limits,
	}
}

// SetIdentityFunc swaps the client identity extraction scheme.
func (h *VolatilityHandler) SetIdentityFunc(fn IdentityFunc) {
	if fn != nil {
		h.identity = fn
	}
}

// RegisterRoutes implements pkg/http.Handler.
func (h *VolatilityHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Info, h.rateLimit(""))
	e.GET("/health", h.Health, h.rateLimit(""))
	e.POST("/predict", h.Predict, h.rateLimit(ratelimit.RoutePredict))
	e.POST("/explain", h.Explain, h.rateLimit(ratelimit.RouteExplain))
	e.GET("/metrics", h.Metrics, h.rateLimit(""))
}

// rateLimit consumes the client's budgets before any validation or model
// work. Consume-then-execute is deliberate: a request that later times out
// has already spent its quota.
func (h *VolatilityHandler) rateLimit(route ratelimit.RouteClass) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if h.limiter == nil {
				return next(c)
			}

			verdict, err := h.limiter.CheckAndConsume(c.Request().Context(), h.identity(c), route)
			if err != nil {
				// Store outage: serve rather than reject, but make it visible.
				h.logger.Warn("rate limit store unavailable", applogger.Error(err))
				h.metrics.RecordError("ratelimit_store")
				return next(c)
			}
			if !verdict.Allowed {
				h.metrics.RecordRateLimited(c.Path())
				return xhttp.AppErrorResponse(c, xhttp.RateLimitError(verdict.RetryAfter))
			}
			return next(c)
		}
	}
}

// Info handles GET /.
func (h *VolatilityHandler) Info(c echo.Context) error {
	return xhttp.SuccessResponse(c, models.APIInfoResponse{
		Message: "Welcome to the VolatiQ API!",
		Version: APIVersion,
		Status:  "operational",
		Endpoints: map[string]string{
			"/":        "API info",
			"/health":  "Health check",
			"/predict": `POST: Predict volatility (expects JSON {"features": [[...], ...]})`,
			"/explain": `POST: Get SHAP feature attributions (expects JSON {"features": [[...], ...]})`,
			"/metrics": "GET: Model performance metrics",
		},
		RateLimits: map[string]string{
			"default": fmt.Sprintf("%d per day, %d per hour", h.limits.DefaultPerDay, h.limits.DefaultPerHour),
			"predict": fmt.Sprintf("%d per hour", h.limits.PredictPerHour),
			"explain": fmt.Sprintf("%d per hour", h.limits.ExplainPerHour),
		},
	})
}

// Health handles GET /health.
func (h *VolatilityHandler) Health(c echo.Context) error {
	st := h.health.Check(c.Request().Context())

	status := "healthy"
	code := 200
	if !st.Healthy {
		status = "unhealthy"
		code = 503
	}
	return c.JSON(code, models.HealthResponse{
		Status:            status,
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
		ModelLoaded:       st.ModelLoaded,
		PredictionWorking: st.PredictionWorking,
		Version:           APIVersion,
	})
}

// Predict handles POST /predict.
func (h *VolatilityHandler) Predict(c echo.Context) error {
	req := new(models.FeaturesRequest)
	if err := c.Bind(req); err != nil {
		return xhttp.AppErrorResponse(c, xhttp.MissingFieldError("features"))
	}

	batch, err := h.validator.ValidatePayload(req.Features, h.maxPredictBatch)
	if err != nil {
		h.logger.Warn("invalid prediction request", applogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	res, err := h.predictor.Predict(c.Request().Context(), batch)
	if err != nil {
		h.recordAudit(c, "predict", batch.Rows(), 0, "", err)
		return xhttp.AppErrorResponse(c, err)
	}
	h.recordAudit(c, "predict", batch.Rows(), res.Duration, res.ModelVersion, nil)

	return xhttp.SuccessResponse(c, models.PredictResponse{
		Predictions:    res.Predictions,
		Timestamp:      res.Timestamp.Format(time.RFC3339),
		ProcessingTime: res.Duration.Seconds(),
		ModelVersion:   res.ModelVersion,
		NumPredictions: len(res.Predictions),
	})
}

// Explain handles POST /explain.
func (h *VolatilityHandler) Explain(c echo.Context) error {
	req := new(models.FeaturesRequest)
	if err := c.Bind(req); err != nil {
		return xhttp.AppErrorResponse(c, xhttp.MissingFieldError("features"))
	}

	batch, err := h.validator.ValidatePayload(req.Features, h.maxExplainBatch)
	if err != nil {
		h.logger.Warn("invalid explanation request", applogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	res, err := h.explainer.Explain(c.Request().Context(), batch)
	if err != nil {
		h.recordAudit(c, "explain", batch.Rows(), 0, "", err)
		return xhttp.AppErrorResponse(c, err)
	}
	h.recordAudit(c, "explain", batch.Rows(), res.Duration, res.ModelVersion, nil)

	return xhttp.SuccessResponse(c, models.ExplainResponse{
		Predictions:    res.Predictions,
		ShapValues:     res.Attributions,
		FeatureNames:   models.FeatureNames,
		Timestamp:      res.Timestamp.Format(time.RFC3339),
		ProcessingTime: res.Duration.Seconds(),
	})
}

// Metrics handles GET /metrics.
func (h *VolatilityHandler) Metrics(c echo.Context) error {
	return xhttp.SuccessResponse(c, models.MetricsResponse{
		ModelInfo:  h.health.ModelInfo(),
		SystemInfo: h.health.SystemInfo(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *VolatilityHandler) recordAudit(c echo.Context, route string, rows int, dur time.Duration, version string, err error) {
	if h.audit == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	h.audit.Record(&repository.AuditEvent{
		Timestamp:    time.Now().UTC(),
		Route:        route,
		ClientID:     h.identity(c),
		NumRows:      rows,
		Duration:     dur,
		Status:       status,
		ModelVersion: version,
	})
}
