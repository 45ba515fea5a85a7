package service

import (
	"context"

	"github.com/volatiq/volatiq/internal/domain/models"
)

// Predictor is the opaque model capability: one volatility estimate per
// input row, in input order. Implementations must be safe for concurrent
// use and must not retain the input slice.
type Predictor interface {
	Predict(ctx context.Context, batch models.FeatureBatch) (*models.PredictionResult, error)
}

// Explainer computes per-feature attribution values for a small batch.
// Attribution rows align with models.FeatureNames and satisfy additivity:
// the values of a row sum to that row's prediction minus the background
// prediction, up to float error.
type Explainer interface {
	Explain(ctx context.Context, batch models.FeatureBatch) (*models.ExplanationResult, error)
}
