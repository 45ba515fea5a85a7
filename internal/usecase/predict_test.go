package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/volatiq/volatiq/internal/domain/models"
	"github.com/volatiq/volatiq/internal/model"
	xhttp "github.com/volatiq/volatiq/pkg/http"
	applogger "github.com/volatiq/volatiq/pkg/logger"
)

type stubMetrics struct {
	predictions int
	errors      []string
}

func (m *stubMetrics) RecordPrediction(_ string, rows int) { m.predictions += rows }
func (m *stubMetrics) RecordError(kind string)             { m.errors = append(m.errors, kind) }
func (m *stubMetrics) RecordRateLimited(string)            {}
func (m *stubMetrics) RecordLatency(string, float64)       {}

func newTestLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func readyHandle(t *testing.T) *model.Handle {
	t.Helper()
	h := model.NewHandle()
	if err := h.Load("../model/testdata/volatility_model.json", "../model/testdata/scaler.json"); err != nil {
		t.Fatalf("load model: %v", err)
	}
	return h
}

func TestPredictBatch(t *testing.T) {
	m := &stubMetrics{}
	svc := NewPredictService(readyHandle(t), m, newTestLogger(t))

	batch := models.FeatureBatch{
		{0.001, 0.02, 150.5, 149.8, 65.2},
		{-0.004, 0.031, 142.1, 143.9, 38.4},
	}
	res, err := svc.Predict(context.Background(), batch)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(res.Predictions) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(res.Predictions))
	}
	if res.ModelVersion != "1.0.0" {
		t.Fatalf("unexpected model version %q", res.ModelVersion)
	}
	if res.Duration < 0 {
		t.Fatalf("negative duration %v", res.Duration)
	}
	if m.predictions != 2 {
		t.Fatalf("metrics saw %d predictions", m.predictions)
	}
}

func TestPredictModelNotReady(t *testing.T) {
	m := &stubMetrics{}
	svc := NewPredictService(model.NewHandle(), m, newTestLogger(t))

	_, err := svc.Predict(context.Background(), models.FeatureBatch{{1, 2, 3, 4, 5}})
	var appErr *xhttp.AppError
	if !errors.As(err, &appErr) || appErr.Code != xhttp.CodeModelUnavailable {
		t.Fatalf("expected model unavailable, got %v", err)
	}
	if len(m.errors) != 1 || m.errors[0] != "model_unavailable" {
		t.Fatalf("unexpected error metrics %v", m.errors)
	}
}

func TestHealthCheck(t *testing.T) {
	svc := NewHealthService(readyHandle(t))

	st := svc.Check(context.Background())
	if !st.Healthy || !st.ModelLoaded || !st.PredictionWorking {
		t.Fatalf("expected healthy status, got %+v", st)
	}
}

func TestHealthCheckUnloadedModel(t *testing.T) {
	svc := NewHealthService(model.NewHandle())

	st := svc.Check(context.Background())
	if st.Healthy || st.ModelLoaded || st.PredictionWorking {
		t.Fatalf("expected unhealthy status, got %+v", st)
	}
}

func TestModelInfo(t *testing.T) {
	svc := NewHealthService(readyHandle(t))

	info := svc.ModelInfo()
	if info.Version != "1.0.0" {
		t.Fatalf("unexpected version %q", info.Version)
	}
	if len(info.Features) != models.FeatureCount {
		t.Fatalf("unexpected feature list %v", info.Features)
	}
}
