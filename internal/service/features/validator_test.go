package features

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	xhttp "github.com/volatiq/volatiq/pkg/http"
)

func appErrCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *xhttp.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	return appErr.Code
}

func TestValidatePayloadMissingField(t *testing.T) {
	v := NewValidator()

	if _, err := v.ValidatePayload(nil, 1000); appErrCode(t, err) != xhttp.CodeMissingField {
		t.Fatalf("unexpected code for nil payload: %v", err)
	}
	if _, err := v.ValidatePayload(json.RawMessage("null"), 1000); appErrCode(t, err) != xhttp.CodeMissingField {
		t.Fatalf("unexpected code for null payload: %v", err)
	}
}

func TestValidatePayloadShape(t *testing.T) {
	v := NewValidator()

	for _, raw := range []string{`[1, 2, 3]`, `"abc"`, `42`, `{"a": 1}`, `[["x"]]`} {
		if _, err := v.ValidatePayload(json.RawMessage(raw), 1000); appErrCode(t, err) != xhttp.CodeShape {
			t.Fatalf("payload %s: unexpected error %v", raw, err)
		}
	}
}

func TestValidateFeatureCount(t *testing.T) {
	v := NewValidator()

	err := v.Validate([][]float64{{1, 2, 3}}, 1000)
	if appErrCode(t, err) != xhttp.CodeFeatureCount {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(err.Error(), "got 3") {
		t.Fatalf("message should name the offending row count: %v", err)
	}

	// Feature count is checked before batch size, so a too-large batch of
	// short rows still reports the row problem.
	long := make([][]float64, 2000)
	for i := range long {
		long[i] = []float64{1, 2}
	}
	if appErrCode(t, v.Validate(long, 1000)) != xhttp.CodeFeatureCount {
		t.Fatalf("feature count should win over batch size")
	}
}

func TestValidateBatchSize(t *testing.T) {
	v := NewValidator()

	if appErrCode(t, v.Validate([][]float64{}, 1000)) != xhttp.CodeBatchSize {
		t.Fatalf("empty batch should be rejected")
	}

	row := []float64{0.001, 0.02, 150.5, 149.8, 65.2}
	exact := make([][]float64, 1000)
	for i := range exact {
		exact[i] = row
	}
	if err := v.Validate(exact, 1000); err != nil {
		t.Fatalf("batch at the limit should pass: %v", err)
	}

	over := append(exact, row)
	err := v.Validate(over, 1000)
	if appErrCode(t, err) != xhttp.CodeBatchSize {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(err.Error(), "1000") {
		t.Fatalf("message should echo the configured limit: %v", err)
	}
}

func TestValidateNonFinite(t *testing.T) {
	v := NewValidator()

	cases := []struct {
		name string
		val  float64
	}{
		{"nan", math.NaN()},
		{"+inf", math.Inf(1)},
		{"-inf", math.Inf(-1)},
	}
	for _, tc := range cases {
		batch := [][]float64{
			{0.001, 0.02, 150.5, 149.8, 65.2},
			{0.001, 0.02, tc.val, 149.8, 65.2},
		}
		err := v.Validate(batch, 1000)
		if appErrCode(t, err) != xhttp.CodeInvalidValue {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if !strings.Contains(err.Error(), "row 1") || !strings.Contains(err.Error(), "column 2") {
			t.Fatalf("%s: message should identify row/column: %v", tc.name, err)
		}
	}
}

func TestValidatePayloadAccepts(t *testing.T) {
	v := NewValidator()

	batch, err := v.ValidatePayload(json.RawMessage(`[[0.001, 0.02, 150.5, 149.8, 65.2]]`), 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch.Rows() != 1 || len(batch[0]) != 5 {
		t.Fatalf("unexpected batch %v", batch)
	}
}
