package models

import "encoding/json"

// Requests and responses for the serving HTTP endpoints. Defined in domain
// for consistency and reuse; field names are part of the client contract.

// FeaturesRequest is the shared body of POST /predict and POST /explain.
// Features is kept raw on purpose: shape and value checks happen in the
// feature validator so that clients get specific error messages instead of
// a generic bind failure.
type FeaturesRequest struct {
	Features json.RawMessage `json:"features"`
}

// PredictResponse is the success body of POST /predict.
type PredictResponse struct {
	Predictions    []float64 `json:"predictions"`
	Timestamp      string    `json:"timestamp"`
	ProcessingTime float64   `json:"processing_time_seconds"`
	ModelVersion   string    `json:"model_version"`
	NumPredictions int       `json:"num_predictions"`
}

// ExplainResponse is the success body of POST /explain.
type ExplainResponse struct {
	Predictions    []float64   `json:"predictions"`
	ShapValues     [][]float64 `json:"shap_values"`
	FeatureNames   []string    `json:"feature_names"`
	Timestamp      string      `json:"timestamp"`
	ProcessingTime float64     `json:"processing_time_seconds"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status            string `json:"status"`
	Timestamp         string `json:"timestamp"`
	ModelLoaded       bool   `json:"model_loaded"`
	PredictionWorking bool   `json:"prediction_working"`
	Version           string `json:"version"`
}

// MetricsResponse is the body of GET /metrics.
type MetricsResponse struct {
	ModelInfo  ModelInfo  `json:"model_info"`
	SystemInfo SystemInfo `json:"system_info"`
	Timestamp  string     `json:"timestamp"`
}

// ModelInfo describes the served model. Static metadata only, no live state.
type ModelInfo struct {
	ModelType       string   `json:"model_type"`
	Framework       string   `json:"framework"`
	Version         string   `json:"version"`
	Features        []string `json:"features"`
	Target          string   `json:"target"`
	TrainingHorizon string   `json:"training_horizon"`
}

// SystemInfo describes the serving process.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	ModelLoaded  bool   `json:"model_loaded"`
	ScalerLoaded bool   `json:"scaler_loaded"`
}

// APIInfoResponse is the body of GET /.
type APIInfoResponse struct {
	Message    string            `json:"message"`
	Version    string            `json:"version"`
	Status     string            `json:"status"`
	Endpoints  map[string]string `json:"endpoints"`
	RateLimits map[string]string `json:"rate_limits"`
}
