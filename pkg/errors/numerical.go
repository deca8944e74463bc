package errors

import (
	"fmt"
	"math"

	"github.com/cockroachdb/errors"
)

// NumericalInstabilityError reports NaN or Inf values produced during training.
type NumericalInstabilityError struct {
	Operation string
	Iteration int
	Value     float64
}

func (e *NumericalInstabilityError) Error() string {
	return fmt.Sprintf("loanml: numerical instability in %s at iteration %d: %v",
		e.Operation, e.Iteration, e.Value)
}

// NewNumericalInstabilityError creates a NumericalInstabilityError with a stack trace.
func NewNumericalInstabilityError(operation string, iteration int, value float64) error {
	return errors.WithStack(&NumericalInstabilityError{Operation: operation, Iteration: iteration, Value: value})
}

// CheckFinite returns a NumericalInstabilityError for the first NaN or Inf in values.
func CheckFinite(operation string, values []float64, iteration int) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewNumericalInstabilityError(operation, iteration, v)
		}
	}
	return nil
}
