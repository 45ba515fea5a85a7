package models

import "time"

// FeatureCount is the width of every feature vector the model was trained on.
const FeatureCount = 5

// FeatureNames lists the model's input features in training order.
// The order is part of the API contract: feature matrices and attribution
// vectors are both aligned to it.
var FeatureNames = []string{"log_return", "volatility", "ma_5", "ma_10", "rsi"}

// FeatureBatch is an ordered set of feature vectors, one row per sample.
// Rows are always FeatureCount wide and contain only finite values once they
// pass validation.
type FeatureBatch [][]float64

// Rows returns the number of samples in the batch.
func (b FeatureBatch) Rows() int { return len(b) }

// PredictionResult holds model outputs for one batch, one scalar per input
// row in input order.
type PredictionResult struct {
	Predictions  []float64
	Timestamp    time.Time
	Duration     time.Duration
	ModelVersion string
}

// ExplanationResult pairs per-row attribution vectors with the plain
// predictions for the same batch. Attributions[i] explains Predictions[i]
// and is FeatureCount wide, aligned to FeatureNames.
type ExplanationResult struct {
	Predictions  []float64
	Attributions [][]float64
	Timestamp    time.Time
	Duration     time.Duration
	ModelVersion string
}
