package errors

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"data format", NewDataFormatError(3, "Age", "not a number"), CodeDataFormat},
		{"invalid argument", NewInvalidArgumentError("testFraction", "must be in (0,1)", 1.5), CodeInvalidArgument},
		{"not trained", NewModelNotTrainedError("predict"), CodeModelNotTrained},
		{"training failure", NewTrainingFailureError("single class", nil), CodeTrainingFailure},
		{"dimension", NewDimensionError("Model.Predict", 4, 3), CodeDimensionMismatch},
		{"wrapped", Wrap(NewInvalidArgumentError("x", "bad", 1), "context"), CodeInvalidArgument},
		{"plain", New("boom"), CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Code(tt.err))
		})
	}
}

func TestTrainingFailureWrapsCause(t *testing.T) {
	cause := NewInvalidArgumentError("targetLabel", "unknown", "Foo")
	err := NewTrainingFailureError("pipeline fit", cause)

	var trainErr *TrainingFailureError
	require.True(t, As(err, &trainErr))
	assert.Equal(t, "pipeline fit", trainErr.Reason)
	// The outermost structured type wins when classifying.
	assert.Equal(t, CodeTrainingFailure, Code(err))
	assert.Contains(t, err.Error(), "targetLabel")
}

func TestDataFormatErrorMessage(t *testing.T) {
	assert.Equal(t, `loanml: data format: line 4, column "Age": not a number`,
		(&DataFormatError{Line: 4, Column: "Age", Reason: "not a number"}).Error())
	assert.Equal(t, "loanml: data format: line 1: missing header",
		(&DataFormatError{Line: 1, Reason: "missing header"}).Error())
	assert.Equal(t, "loanml: data format: no records",
		(&DataFormatError{Reason: "no records"}).Error())
}

func TestErrorsCarryStack(t *testing.T) {
	err := NewModelNotTrainedError("predict")
	formatted := fmt.Sprintf("%+v", err)
	assert.True(t, strings.Contains(formatted, "errors_test.go"), "expected stack trace in %q", formatted)
}

func TestRecoverable(t *testing.T) {
	assert.True(t, Recoverable(NewModelNotTrainedError("predict")))
	assert.False(t, Recoverable(New("corrupted artifact")))
	assert.False(t, Recoverable(nil))
}

func TestCheckFinite(t *testing.T) {
	require.NoError(t, CheckFinite("scores", []float64{0, 1, -2.5}, 0))

	err := CheckFinite("scores", []float64{0, 1, nan()}, 7)
	var numErr *NumericalInstabilityError
	require.True(t, As(err, &numErr))
	assert.Equal(t, 7, numErr.Iteration)
}

func nan() float64 {
	zero := 0.0
	return zero / zero
}
