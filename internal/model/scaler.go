package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// Scaler applies a fitted standard scaling transform: (x - mean) / scale.
// Parameters come from the training pipeline's artifact; the transform is
// deterministic and stateless once loaded.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// LoadScaler reads a fitted scaler artifact from disk.
func LoadScaler(path string) (*Scaler, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scaler: %w", err)
	}

	var s Scaler
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse scaler: %w", err)
	}
	if len(s.Mean) == 0 || len(s.Mean) != len(s.Scale) {
		return nil, fmt.Errorf("scaler artifact malformed: %d means, %d scales", len(s.Mean), len(s.Scale))
	}
	for i, v := range s.Scale {
		if v == 0 {
			return nil, fmt.Errorf("scaler artifact malformed: zero scale at index %d", i)
		}
	}
	return &s, nil
}

// Dim returns the feature dimensionality the scaler was fitted on.
func (s *Scaler) Dim() int { return len(s.Mean) }

// Transform scales a batch row by row into a freshly allocated matrix.
// Inputs are never mutated and no buffers are shared across calls.
func (s *Scaler) Transform(batch [][]float64) ([][]float64, error) {
	out := make([][]float64, len(batch))
	for i, row := range batch {
		if len(row) != len(s.Mean) {
			return nil, fmt.Errorf("scaler expects %d features, row %d has %d", len(s.Mean), i, len(row))
		}
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = (v - s.Mean[j]) / s.Scale[j]
		}
		out[i] = scaled
	}
	return out, nil
}
