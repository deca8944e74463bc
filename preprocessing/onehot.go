package preprocessing

import (
	"github.com/YuminosukeSato/loanml/core/model"
	"github.com/YuminosukeSato/loanml/pkg/errors"
)

// OneHotEncoder maps the categories of one field to indicator dimensions. The
// vocabulary is learned at Fit in order of first appearance; a category not in the
// vocabulary encodes to an all-zero block.
type OneHotEncoder struct {
	state *model.StateManager

	// Field names the encoded column, used in feature names and errors.
	Field string

	vocabulary []string
	index      map[string]int
}

// NewOneHotEncoder returns an unfitted encoder for field.
func NewOneHotEncoder(field string) *OneHotEncoder {
	return &OneHotEncoder{
		state: model.NewStateManager(),
		Field: field,
	}
}

// Fit learns the vocabulary from values.
func (e *OneHotEncoder) Fit(values []string) error {
	if len(values) == 0 {
		return errors.NewTrainingFailureError("OneHotEncoder.Fit: "+e.Field, errors.ErrEmptyData)
	}
	index := make(map[string]int)
	var vocabulary []string
	for _, v := range values {
		if _, ok := index[v]; !ok {
			index[v] = len(vocabulary)
			vocabulary = append(vocabulary, v)
		}
	}
	e.vocabulary = vocabulary
	e.index = index
	e.state.SetFitted()
	return nil
}

// Width returns the number of indicator dimensions.
func (e *OneHotEncoder) Width() int {
	return len(e.vocabulary)
}

// Vocabulary returns the learned categories in dimension order.
func (e *OneHotEncoder) Vocabulary() []string {
	return append([]string(nil), e.vocabulary...)
}

// Known reports whether v was seen at Fit.
func (e *OneHotEncoder) Known(v string) bool {
	_, ok := e.index[v]
	return ok
}

// EncodeInto writes the indicator block for v into dst, which must be Width() long.
func (e *OneHotEncoder) EncodeInto(v string, dst []float64) error {
	if err := e.state.RequireFitted("OneHotEncoder.Encode"); err != nil {
		return err
	}
	if len(dst) != len(e.vocabulary) {
		return errors.NewDimensionError("OneHotEncoder.Encode", len(e.vocabulary), len(dst))
	}
	for i := range dst {
		dst[i] = 0
	}
	if i, ok := e.index[v]; ok {
		dst[i] = 1
	}
	return nil
}

// Encode returns the indicator block for v.
func (e *OneHotEncoder) Encode(v string) ([]float64, error) {
	out := make([]float64, len(e.vocabulary))
	if err := e.EncodeInto(v, out); err != nil {
		return nil, err
	}
	return out, nil
}

// IsFitted reports whether Fit has completed.
func (e *OneHotEncoder) IsFitted() bool {
	return e.state.IsFitted()
}
