// Package errors provides the error taxonomy of the loan model engine.
//
// Every error the engine reports to an automated caller is one of a small set of
// structured types. Each type carries a stack trace (cockroachdb/errors), implements
// zerolog.LogObjectMarshaler for structured logs, and maps to a stable string code
// through Code so callers can branch without parsing messages.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Error codes
//
// ===========================================================================

// Stable machine-readable codes surfaced to callers.
const (
	CodeDataFormat        = "DATA_FORMAT"
	CodeInvalidArgument   = "INVALID_ARGUMENT"
	CodeModelNotTrained   = "MODEL_NOT_TRAINED"
	CodeTrainingFailure   = "TRAINING_FAILURE"
	CodeDimensionMismatch = "DIMENSION_MISMATCH"
	CodeInternal          = "INTERNAL"
)

// ===========================================================================
//
//	Structured error types
//
// ===========================================================================

// DataFormatError reports a malformed or unparseable dataset header or row.
// Line is 1-based and counts the header; zero means the position is unknown.
type DataFormatError struct {
	Line   int
	Column string
	Reason string
}

func (e *DataFormatError) Error() string {
	switch {
	case e.Line > 0 && e.Column != "":
		return fmt.Sprintf("loanml: data format: line %d, column %q: %s", e.Line, e.Column, e.Reason)
	case e.Line > 0:
		return fmt.Sprintf("loanml: data format: line %d: %s", e.Line, e.Reason)
	default:
		return fmt.Sprintf("loanml: data format: %s", e.Reason)
	}
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *DataFormatError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("line", e.Line).
		Str("column", e.Column).
		Str("reason", e.Reason).
		Str("type", "DataFormatError")
}

// NewDataFormatError creates a DataFormatError with a stack trace.
func NewDataFormatError(line int, column, reason string) error {
	return errors.WithStack(&DataFormatError{Line: line, Column: column, Reason: reason})
}

// InvalidArgumentError reports a caller-supplied value that the engine refuses to use.
type InvalidArgumentError struct {
	Param  string
	Reason string
	Value  interface{}
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("loanml: invalid argument '%s': %s (got: %v)", e.Param, e.Reason, e.Value)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *InvalidArgumentError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param", e.Param).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "InvalidArgumentError")
}

// NewInvalidArgumentError creates an InvalidArgumentError with a stack trace.
func NewInvalidArgumentError(param, reason string, value interface{}) error {
	return errors.WithStack(&InvalidArgumentError{Param: param, Reason: reason, Value: value})
}

// ModelNotTrainedError is returned when a prediction is requested before any model
// has been trained. It is recoverable: the caller is expected to train and retry.
type ModelNotTrainedError struct {
	Operation string
}

func (e *ModelNotTrainedError) Error() string {
	return fmt.Sprintf("loanml: %s: no model has been trained yet, create a model first", e.Operation)
}

// Suggestion is the machine-readable instruction attached to the failure.
func (e *ModelNotTrainedError) Suggestion() string {
	return "call create_model before " + e.Operation
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *ModelNotTrainedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Operation).
		Str("suggestion", e.Suggestion()).
		Str("type", "ModelNotTrainedError")
}

// NewModelNotTrainedError creates a ModelNotTrainedError with a stack trace.
func NewModelNotTrainedError(operation string) error {
	return errors.WithStack(&ModelNotTrainedError{Operation: operation})
}

// TrainingFailureError reports that the classifier (or the pipeline feeding it)
// refused to fit. The previously trained artifact, if any, is left untouched.
type TrainingFailureError struct {
	Reason string
	Err    error
}

func (e *TrainingFailureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("loanml: training failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("loanml: training failed: %s", e.Reason)
}

func (e *TrainingFailureError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *TrainingFailureError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("reason", e.Reason).
		Str("type", "TrainingFailureError")
	if e.Err != nil {
		event.Str("cause", e.Err.Error())
	}
}

// NewTrainingFailureError creates a TrainingFailureError with a stack trace.
func NewTrainingFailureError(reason string, cause error) error {
	return errors.WithStack(&TrainingFailureError{Reason: reason, Err: cause})
}

// DimensionError reports a feature-vector width that differs from the fitted one.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("loanml: %s: dimension mismatch. Expected %d features, got %d", e.Op, e.Expected, e.Got)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace.
func NewDimensionError(op string, expected, got int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got})
}

// ===========================================================================
//
//	Classification
//
// ===========================================================================

// Code returns the stable code for err, or CodeInternal for anything outside the
// taxonomy. A nil error has no code.
func Code(err error) string {
	if err == nil {
		return ""
	}
	var (
		dataErr    *DataFormatError
		argErr     *InvalidArgumentError
		notTrained *ModelNotTrainedError
		trainErr   *TrainingFailureError
		dimErr     *DimensionError
	)
	switch {
	case errors.As(err, &notTrained):
		return CodeModelNotTrained
	case errors.As(err, &trainErr):
		return CodeTrainingFailure
	case errors.As(err, &argErr):
		return CodeInvalidArgument
	case errors.As(err, &dataErr):
		return CodeDataFormat
	case errors.As(err, &dimErr):
		return CodeDimensionMismatch
	default:
		return CodeInternal
	}
}

// Recoverable reports whether err belongs to the structured taxonomy, i.e. it can be
// handed back to the caller instead of aborting the process.
func Recoverable(err error) bool {
	return err != nil && Code(err) != CodeInternal
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap annotates err with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf annotates err with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates an error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates err with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ErrEmptyData is returned when an operation receives no records.
var ErrEmptyData = New("empty data")
