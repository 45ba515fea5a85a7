package usecase

import (
	"context"
	"runtime"

	"github.com/volatiq/volatiq/internal/domain/models"
	"github.com/volatiq/volatiq/internal/model"
)

// smokeTestRow is a fixed, known-good input used to verify the scaler+model
// path end to end.
var smokeTestRow = []float64{0.01, 0.02, 100.0, 101.0, 50.0}

// HealthStatus is the outcome of a readiness probe.
type HealthStatus struct {
	Healthy           bool
	ModelLoaded       bool
	PredictionWorking bool
}

// HealthService probes model and scaler readiness and reports static model
// metadata. Side-effect free apart from the smoke-test inference in Check.
type HealthService struct {
	handle *model.Handle
}

// NewHealthService creates the reporter over the shared model handle.
func NewHealthService(handle *model.Handle) *HealthService {
	return &HealthService{handle: handle}
}

// Check reports liveness. Healthy requires a loaded handle and a successful
// smoke-test prediction.
func (s *HealthService) Check(_ context.Context) HealthStatus {
	st := HealthStatus{ModelLoaded: s.handle.Ready()}
	if st.ModelLoaded {
		st.PredictionWorking = s.smokeTest()
	}
	st.Healthy = st.ModelLoaded && st.PredictionWorking
	return st
}

func (s *HealthService) smokeTest() bool {
	scaled, err := s.handle.Scale([][]float64{smokeTestRow})
	if err != nil {
		return false
	}
	_, err = s.handle.Forward(scaled)
	return err == nil
}

// ModelInfo returns static metadata about the served model.
func (s *HealthService) ModelInfo() models.ModelInfo {
	return models.ModelInfo{
		ModelType:       "Feed-forward neural network",
		Framework:       "gonum",
		Version:         s.handle.Version(),
		Features:        models.FeatureNames,
		Target:          "future_realized_volatility",
		TrainingHorizon: "5 days",
	}
}

// SystemInfo returns process-level metadata. No live secrets.
func (s *HealthService) SystemInfo() models.SystemInfo {
	loaded := s.handle.Ready()
	return models.SystemInfo{
		GoVersion:    runtime.Version(),
		ModelLoaded:  loaded,
		ScalerLoaded: loaded,
	}
}
