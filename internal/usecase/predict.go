package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/volatiq/volatiq/internal/domain/models"
	"github.com/volatiq/volatiq/internal/domain/repository"
	domsvc "github.com/volatiq/volatiq/internal/domain/service"
	"github.com/volatiq/volatiq/internal/model"
	xhttp "github.com/volatiq/volatiq/pkg/http"
	applogger "github.com/volatiq/volatiq/pkg/logger"
)

// PredictService is the inference gateway: it feeds validated batches
// through the fitted scaler and the model's forward pass, preserving input
// row order, and measures the wall-clock span of the numeric work.
// Safe for concurrent use; the handle is read-only and every call works on
// its own buffers.
type PredictService struct {
	handle  *model.Handle
	metrics repository.Metrics
	logger  *applogger.Logger
}

// NewPredictService creates the gateway over a loaded model handle.
func NewPredictService(handle *model.Handle, metrics repository.Metrics, logger *applogger.Logger) *PredictService {
	return &PredictService{handle: handle, metrics: metrics, logger: logger}
}

// Predict implements service.Predictor.
func (s *PredictService) Predict(_ context.Context, batch models.FeatureBatch) (*models.PredictionResult, error) {
	start := time.Now()

	scaled, err := s.handle.Scale(batch)
	if err != nil {
		return nil, s.mapModelErr("prediction", err)
	}
	preds, err := s.handle.Forward(scaled)
	if err != nil {
		return nil, s.mapModelErr("prediction", err)
	}

	dur := time.Since(start)
	s.metrics.RecordPrediction("predict", len(preds))
	s.metrics.RecordLatency("predict", dur.Seconds())
	s.logger.Info("prediction successful",
		applogger.Int("num_predictions", len(preds)),
		applogger.Duration("duration_ms", dur),
	)

	return &models.PredictionResult{
		Predictions:  preds,
		Timestamp:    start.UTC(),
		Duration:     dur,
		ModelVersion: s.handle.Version(),
	}, nil
}

func (s *PredictService) mapModelErr(op string, err error) error {
	if errors.Is(err, model.ErrNotReady) {
		s.metrics.RecordError("model_unavailable")
		return xhttp.ModelUnavailableError()
	}
	s.metrics.RecordError("inference")
	s.logger.Error(op+" failed", applogger.Error(err))
	return xhttp.InferenceError(op, err)
}

var _ domsvc.Predictor = (*PredictService)(nil)
