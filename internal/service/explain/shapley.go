package explain

import (
	"context"
	"errors"
	"math/bits"
	"time"

	"github.com/volatiq/volatiq/internal/domain/models"
	"github.com/volatiq/volatiq/internal/domain/repository"
	domsvc "github.com/volatiq/volatiq/internal/domain/service"
	"github.com/volatiq/volatiq/internal/model"
	xhttp "github.com/volatiq/volatiq/pkg/http"
	applogger "github.com/volatiq/volatiq/pkg/logger"
)

// ShapleyExplainer computes exact Shapley attributions by evaluating the
// model on every feature coalition (2^n rows per sample, n == FeatureCount).
// The background is the zero vector in scaled space, i.e. the feature means,
// so attributions of a row sum to its prediction minus the background
// prediction exactly, up to float error.
//
// The full coalition is the plain prediction, so no separate model call is
// made for the reported predictions.
type ShapleyExplainer struct {
	handle  *model.Handle
	metrics repository.Metrics
	logger  *applogger.Logger

	weights []float64 // Shapley weight by coalition size, index |S|
}

// NewShapleyExplainer creates the engine over a loaded model handle.
func NewShapleyExplainer(handle *model.Handle, metrics repository.Metrics, logger *applogger.Logger) *ShapleyExplainer {
	return &ShapleyExplainer{
		handle:  handle,
		metrics: metrics,
		logger:  logger,
		weights: shapleyWeights(models.FeatureCount),
	}
}

// shapleyWeights returns w[s] = s!(n-s-1)!/n! for coalitions of size s that
// exclude the feature being attributed.
func shapleyWeights(n int) []float64 {
	fact := make([]float64, n+1)
	fact[0] = 1
	for i := 1; i <= n; i++ {
		fact[i] = fact[i-1] * float64(i)
	}
	w := make([]float64, n)
	for s := 0; s < n; s++ {
		w[s] = fact[s] * fact[n-s-1] / fact[n]
	}
	return w
}

// Explain implements service.Explainer.
func (e *ShapleyExplainer) Explain(_ context.Context, batch models.FeatureBatch) (*models.ExplanationResult, error) {
	start := time.Now()

	scaled, err := e.handle.Scale(batch)
	if err != nil {
		return nil, e.mapModelErr(err)
	}

	n := models.FeatureCount
	numCoalitions := 1 << n

	preds := make([]float64, len(scaled))
	attributions := make([][]float64, len(scaled))
	for i, row := range scaled {
		// One perturbed variant per coalition: features in the mask come
		// from the row, the rest from the (zero) background.
		variants := make([][]float64, numCoalitions)
		for mask := 0; mask < numCoalitions; mask++ {
			variant := make([]float64, n)
			for j := 0; j < n; j++ {
				if mask&(1<<j) != 0 {
					variant[j] = row[j]
				}
			}
			variants[mask] = variant
		}

		outs, err := e.handle.Forward(variants)
		if err != nil {
			return nil, e.mapModelErr(err)
		}

		phi := make([]float64, n)
		for j := 0; j < n; j++ {
			bit := 1 << j
			for mask := 0; mask < numCoalitions; mask++ {
				if mask&bit != 0 {
					continue
				}
				phi[j] += e.weights[bits.OnesCount(uint(mask))] * (outs[mask|bit] - outs[mask])
			}
		}
		attributions[i] = phi
		preds[i] = outs[numCoalitions-1]
	}

	dur := time.Since(start)
	e.metrics.RecordPrediction("explain", len(preds))
	e.metrics.RecordLatency("explain", dur.Seconds())
	e.logger.Info("explanation successful",
		applogger.Int("num_explanations", len(preds)),
		applogger.Duration("duration_ms", dur),
	)

	return &models.ExplanationResult{
		Predictions:  preds,
		Attributions: attributions,
		Timestamp:    start.UTC(),
		Duration:     dur,
		ModelVersion: e.handle.Version(),
	}, nil
}

func (e *ShapleyExplainer) mapModelErr(err error) error {
	if errors.Is(err, model.ErrNotReady) {
		e.metrics.RecordError("model_unavailable")
		return xhttp.ModelUnavailableError()
	}
	e.metrics.RecordError("inference")
	e.logger.Error("explanation failed", applogger.Error(err))
	return xhttp.InferenceError("explanation", err)
}

var _ domsvc.Explainer = (*ShapleyExplainer)(nil)
