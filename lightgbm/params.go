package lightgbm

import (
	"math"

	"github.com/YuminosukeSato/loanml/pkg/errors"
)

// TrainingParams contains the training hyperparameters.
type TrainingParams struct {
	// Basic parameters
	NumIterations int     `json:"num_iterations"`
	LearningRate  float64 `json:"learning_rate"`
	NumLeaves     int     `json:"num_leaves"`
	MaxDepth      int     `json:"max_depth"` // <= 0 means unlimited
	MinDataInLeaf int     `json:"min_data_in_leaf"`

	// Regularization
	MinSumHessianInLeaf float64 `json:"min_sum_hessian_in_leaf"`
	Lambda              float64 `json:"lambda_l2"`
	MinGainToSplit      float64 `json:"min_gain_to_split"`

	// Histogram parameters
	MaxBin int `json:"max_bin"`

	// Objective
	Objective string  `json:"objective"`
	Sigmoid   float64 `json:"sigmoid"`

	// Verbosity > 0 enables per-iteration debug logs.
	Verbosity int `json:"verbosity"`
}

// DefaultParams returns the LightGBM defaults for binary classification.
func DefaultParams() TrainingParams {
	return TrainingParams{
		NumIterations:       100,
		LearningRate:        0.1,
		NumLeaves:           31,
		MaxDepth:            -1,
		MinDataInLeaf:       20,
		MinSumHessianInLeaf: 1e-3,
		Lambda:              0,
		MinGainToSplit:      0,
		MaxBin:              255,
		Objective:           string(BinaryLogistic),
		Sigmoid:             1.0,
	}
}

// withDefaults fills zero-valued fields from DefaultParams.
func (p TrainingParams) withDefaults() TrainingParams {
	d := DefaultParams()
	if p.NumIterations == 0 {
		p.NumIterations = d.NumIterations
	}
	if p.LearningRate == 0 {
		p.LearningRate = d.LearningRate
	}
	if p.NumLeaves == 0 {
		p.NumLeaves = d.NumLeaves
	}
	if p.MinDataInLeaf == 0 {
		p.MinDataInLeaf = d.MinDataInLeaf
	}
	if p.MinSumHessianInLeaf == 0 {
		p.MinSumHessianInLeaf = d.MinSumHessianInLeaf
	}
	if p.MaxBin == 0 {
		p.MaxBin = d.MaxBin
	}
	if p.Objective == "" {
		p.Objective = d.Objective
	}
	if p.Sigmoid == 0 {
		p.Sigmoid = d.Sigmoid
	}
	return p
}

// Validate reports the first out-of-range parameter as an InvalidArgumentError.
func (p TrainingParams) Validate() error {
	switch {
	case p.NumIterations < 1:
		return errors.NewInvalidArgumentError("num_iterations", "must be at least 1", p.NumIterations)
	case !(p.LearningRate > 0) || math.IsInf(p.LearningRate, 0):
		return errors.NewInvalidArgumentError("learning_rate", "must be a positive finite number", p.LearningRate)
	case p.NumLeaves < 2:
		return errors.NewInvalidArgumentError("num_leaves", "must be at least 2", p.NumLeaves)
	case p.MinDataInLeaf < 1:
		return errors.NewInvalidArgumentError("min_data_in_leaf", "must be at least 1", p.MinDataInLeaf)
	case p.MinSumHessianInLeaf < 0:
		return errors.NewInvalidArgumentError("min_sum_hessian_in_leaf", "must not be negative", p.MinSumHessianInLeaf)
	case p.Lambda < 0:
		return errors.NewInvalidArgumentError("lambda_l2", "must not be negative", p.Lambda)
	case p.MinGainToSplit < 0:
		return errors.NewInvalidArgumentError("min_gain_to_split", "must not be negative", p.MinGainToSplit)
	case p.MaxBin < 2 || p.MaxBin > math.MaxUint16:
		return errors.NewInvalidArgumentError("max_bin", "must be between 2 and 65535", p.MaxBin)
	case !(p.Sigmoid > 0):
		return errors.NewInvalidArgumentError("sigmoid", "must be positive", p.Sigmoid)
	}
	return nil
}
