package lifecycle

import (
	"math"

	"github.com/YuminosukeSato/loanml/lightgbm"
	"github.com/YuminosukeSato/loanml/pkg/errors"
)

// Hyperparameters are the caller-tunable knobs of the boosted-tree classifier.
type Hyperparameters struct {
	NumberOfLeaves     int     `json:"numberOfLeaves" mapstructure:"number_of_leaves"`
	NumberOfIterations int     `json:"numberOfIterations" mapstructure:"number_of_iterations"`
	MinExamplesPerLeaf int     `json:"minExamplesPerLeaf" mapstructure:"min_examples_per_leaf"`
	LearningRate       float64 `json:"learningRate" mapstructure:"learning_rate"`
}

// DefaultHyperparameters returns 31 leaves, 100 iterations, 20 examples per leaf and
// a learning rate of 0.1.
func DefaultHyperparameters() Hyperparameters {
	return Hyperparameters{
		NumberOfLeaves:     31,
		NumberOfIterations: 100,
		MinExamplesPerLeaf: 20,
		LearningRate:       0.1,
	}
}

// WithDefaults replaces zero-valued fields with their defaults.
func (h Hyperparameters) WithDefaults() Hyperparameters {
	d := DefaultHyperparameters()
	if h.NumberOfLeaves == 0 {
		h.NumberOfLeaves = d.NumberOfLeaves
	}
	if h.NumberOfIterations == 0 {
		h.NumberOfIterations = d.NumberOfIterations
	}
	if h.MinExamplesPerLeaf == 0 {
		h.MinExamplesPerLeaf = d.MinExamplesPerLeaf
	}
	if h.LearningRate == 0 {
		h.LearningRate = d.LearningRate
	}
	return h
}

// Override returns h with every non-zero field of o written over it.
func (h Hyperparameters) Override(o Hyperparameters) Hyperparameters {
	if o.NumberOfLeaves != 0 {
		h.NumberOfLeaves = o.NumberOfLeaves
	}
	if o.NumberOfIterations != 0 {
		h.NumberOfIterations = o.NumberOfIterations
	}
	if o.MinExamplesPerLeaf != 0 {
		h.MinExamplesPerLeaf = o.MinExamplesPerLeaf
	}
	if o.LearningRate != 0 {
		h.LearningRate = o.LearningRate
	}
	return h
}

// Validate reports the first out-of-range value as an InvalidArgumentError.
func (h Hyperparameters) Validate() error {
	switch {
	case h.NumberOfLeaves < 2:
		return errors.NewInvalidArgumentError("numberOfLeaves", "must be at least 2", h.NumberOfLeaves)
	case h.NumberOfIterations < 1:
		return errors.NewInvalidArgumentError("numberOfIterations", "must be at least 1", h.NumberOfIterations)
	case h.MinExamplesPerLeaf < 1:
		return errors.NewInvalidArgumentError("minExamplesPerLeaf", "must be at least 1", h.MinExamplesPerLeaf)
	case !(h.LearningRate > 0) || math.IsInf(h.LearningRate, 0):
		return errors.NewInvalidArgumentError("learningRate", "must be a positive finite number", h.LearningRate)
	}
	return nil
}

func (h Hyperparameters) trainingParams() lightgbm.TrainingParams {
	params := lightgbm.DefaultParams()
	params.NumLeaves = h.NumberOfLeaves
	params.NumIterations = h.NumberOfIterations
	params.MinDataInLeaf = h.MinExamplesPerLeaf
	params.LearningRate = h.LearningRate
	return params
}
