package features

import (
	"encoding/json"
	"math"

	"github.com/volatiq/volatiq/internal/domain/models"
	xhttp "github.com/volatiq/volatiq/pkg/http"
)

// Validator checks shape, type and range of incoming feature matrices.
// It is a pure function of the payload and the configured limit; checks run
// in a fixed order and short-circuit on the first failure.
type Validator struct {
	expected int
}

// NewValidator returns a validator for the model's feature width.
func NewValidator() *Validator {
	return &Validator{expected: models.FeatureCount}
}

// ValidatePayload decodes and validates the raw "features" field of a
// request body. A nil payload means the field was absent.
func (v *Validator) ValidatePayload(raw json.RawMessage, maxBatch int) (models.FeatureBatch, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, xhttp.MissingFieldError("features")
	}

	var batch [][]float64
	if err := json.Unmarshal(raw, &batch); err != nil {
		return nil, xhttp.ShapeError("Features must be a 2D array")
	}

	if err := v.Validate(batch, maxBatch); err != nil {
		return nil, err
	}
	return batch, nil
}

// Validate checks an already-decoded feature matrix.
func (v *Validator) Validate(batch [][]float64, maxBatch int) error {
	for _, row := range batch {
		if len(row) != v.expected {
			return xhttp.FeatureCountError(v.expected, len(row))
		}
	}

	if len(batch) == 0 {
		return xhttp.EmptyBatchError()
	}
	if len(batch) > maxBatch {
		return xhttp.BatchSizeError(maxBatch)
	}

	for i, row := range batch {
		for j, val := range row {
			if math.IsNaN(val) || math.IsInf(val, 0) {
				return xhttp.InvalidValueError(i, j)
			}
		}
	}
	return nil
}
