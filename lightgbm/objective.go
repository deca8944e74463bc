package lightgbm

import (
	"math"

	"github.com/YuminosukeSato/loanml/pkg/errors"
)

// ObjectiveFunction defines the loss being minimized. Predictions are raw scores.
type ObjectiveFunction interface {
	// CalculateGradient returns the first derivative of the loss for one sample.
	CalculateGradient(prediction, target float64) float64

	// CalculateHessian returns the second derivative of the loss for one sample.
	CalculateHessian(prediction, target float64) float64

	// CalculateLoss returns the loss for one sample.
	CalculateLoss(prediction, target float64) float64

	// GetInitScore returns the constant raw score the ensemble starts from.
	GetInitScore(targets []float64) float64

	// Name returns the objective name.
	Name() string
}

// ObjectiveType names an objective.
type ObjectiveType string

// BinaryLogistic is binary cross-entropy over a sigmoid link.
const BinaryLogistic ObjectiveType = "binary"

const probEpsilon = 1e-15

// BinaryLogloss is the binary log loss with p = 1/(1+exp(-Sigmoid*score)).
type BinaryLogloss struct {
	Sigmoid float64
}

// NewBinaryLogloss returns the objective with the given sigmoid slope.
func NewBinaryLogloss(sigmoid float64) *BinaryLogloss {
	return &BinaryLogloss{Sigmoid: sigmoid}
}

func (o *BinaryLogloss) prob(score float64) float64 {
	return sigmoid(o.Sigmoid * score)
}

func (o *BinaryLogloss) CalculateGradient(prediction, target float64) float64 {
	return o.Sigmoid * (o.prob(prediction) - target)
}

func (o *BinaryLogloss) CalculateHessian(prediction, target float64) float64 {
	p := o.prob(prediction)
	return o.Sigmoid * o.Sigmoid * p * (1 - p)
}

func (o *BinaryLogloss) CalculateLoss(prediction, target float64) float64 {
	p := clampProb(o.prob(prediction))
	return -(target*math.Log(p) + (1-target)*math.Log(1-p))
}

// GetInitScore returns the log-odds of the mean label, scaled by 1/Sigmoid.
func (o *BinaryLogloss) GetInitScore(targets []float64) float64 {
	if len(targets) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range targets {
		sum += t
	}
	mean := clampProb(sum / float64(len(targets)))
	return math.Log(mean/(1-mean)) / o.Sigmoid
}

func (o *BinaryLogloss) Name() string {
	return string(BinaryLogistic)
}

// CreateObjectiveFunction returns the objective registered under name.
func CreateObjectiveFunction(name string, params *TrainingParams) (ObjectiveFunction, error) {
	switch ObjectiveType(name) {
	case BinaryLogistic, "binary_logloss", "cross_entropy":
		return NewBinaryLogloss(params.Sigmoid), nil
	default:
		return nil, errors.NewInvalidArgumentError("objective", "unsupported objective", name)
	}
}

func clampProb(p float64) float64 {
	return math.Min(math.Max(p, probEpsilon), 1-probEpsilon)
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
