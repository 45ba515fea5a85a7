package explain

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/volatiq/volatiq/internal/domain/models"
	"github.com/volatiq/volatiq/internal/model"
	xhttp "github.com/volatiq/volatiq/pkg/http"
	applogger "github.com/volatiq/volatiq/pkg/logger"
)

type stubMetrics struct {
	errors []string
}

func (m *stubMetrics) RecordPrediction(string, int)  {}
func (m *stubMetrics) RecordError(kind string)       { m.errors = append(m.errors, kind) }
func (m *stubMetrics) RecordRateLimited(string)      {}
func (m *stubMetrics) RecordLatency(string, float64) {}

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
	if err := h.Load("../../model/testdata/volatility_model.json", "../../model/testdata/scaler.json"); err != nil {
		t.Fatalf("load model: %v", err)
	}
	return h
}

func TestExplainAdditivity(t *testing.T) {
	h := readyHandle(t)
	e := NewShapleyExplainer(h, &stubMetrics{}, newTestLogger(t))

	batch := models.FeatureBatch{
		{0.001, 0.02, 150.5, 149.8, 65.2},
		{-0.004, 0.031, 142.1, 143.9, 38.4},
		{0.0, 0.0, 0.0, 0.0, 0.0},
	}
	res, err := e.Explain(context.Background(), batch)
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if len(res.Predictions) != len(batch) || len(res.Attributions) != len(batch) {
		t.Fatalf("result shape mismatch: %d preds, %d attributions", len(res.Predictions), len(res.Attributions))
	}

	// Background prediction: all features at their means (zero in scaled space).
	base, err := h.Forward([][]float64{make([]float64, models.FeatureCount)})
	if err != nil {
		t.Fatalf("background forward: %v", err)
	}

	for i, phi := range res.Attributions {
		if len(phi) != models.FeatureCount {
			t.Fatalf("row %d: %d attributions", i, len(phi))
		}
		sum := base[0]
		for _, v := range phi {
			sum += v
		}
		if math.Abs(sum-res.Predictions[i]) > 1e-9 {
			t.Fatalf("row %d: attributions sum to %v, prediction is %v", i, sum, res.Predictions[i])
		}
	}
}

func TestExplainPredictionsMatchPlainForward(t *testing.T) {
	h := readyHandle(t)
	e := NewShapleyExplainer(h, &stubMetrics{}, newTestLogger(t))

	batch := models.FeatureBatch{{0.001, 0.02, 150.5, 149.8, 65.2}}
	res, err := e.Explain(context.Background(), batch)
	if err != nil {
		t.Fatalf("explain: %v", err)
	}

	scaled, _ := h.Scale(batch)
	plain, err := h.Forward(scaled)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	if res.Predictions[0] != plain[0] {
		t.Fatalf("explain prediction %v != plain prediction %v", res.Predictions[0], plain[0])
	}
}

func TestExplainModelNotReady(t *testing.T) {
	h := model.NewHandle()
	m := &stubMetrics{}
	e := NewShapleyExplainer(h, m, newTestLogger(t))

	_, err := e.Explain(context.Background(), models.FeatureBatch{{1, 2, 3, 4, 5}})
	var appErr *xhttp.AppError
	if !errors.As(err, &appErr) || appErr.Code != xhttp.CodeModelUnavailable {
		t.Fatalf("expected model unavailable, got %v", err)
	}
	if len(m.errors) != 1 || m.errors[0] != "model_unavailable" {
		t.Fatalf("unexpected error metrics %v", m.errors)
	}
}

func TestShapleyWeightsSumToOne(t *testing.T) {
	// Summed over all coalitions excluding one feature, the weights form a
	// probability distribution: sum over s of C(n-1,s) * w[s] == 1.
	n := models.FeatureCount
	w := shapleyWeights(n)

	total := 0.0
	for mask := 0; mask < 1<<(n-1); mask++ {
		size := 0
		for j := 0; j < n-1; j++ {
			if mask&(1<<j) != 0 {
				size++
			}
		}
		total += w[size]
	}
	if math.Abs(total-1) > 1e-12 {
		t.Fatalf("weights sum to %v", total)
	}
}
