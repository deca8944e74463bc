// Package metrics scores binary classifiers on held-out data.
//
// Labels are 0/1 values and scores are positive-class probabilities, both passed as
// gonum vectors of equal length.
package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/loanml/pkg/errors"
)

const logLossEpsilon = 1e-15

// DefaultThreshold is the probability above which a score counts as positive.
const DefaultThreshold = 0.5

func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewInvalidArgumentError(op, "nil vector", nil)
	}
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewInvalidArgumentError(op, "empty vector", n)
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len())
	}
	return n, nil
}

func checkBinary(op string, yTrue *mat.VecDense) error {
	for i := 0; i < yTrue.Len(); i++ {
		if v := yTrue.AtVec(i); v != 0 && v != 1 {
			return errors.NewInvalidArgumentError(op, "labels must be 0 or 1", v)
		}
	}
	return nil
}

// AUC returns the area under the ROC curve. Tied scores share their average rank.
// With a single class present the AUC is undefined and 0.5 is returned.
func AUC(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("AUC", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := checkBinary("AUC", yTrue); err != nil {
		return 0, err
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return yPred.AtVec(order[a]) < yPred.AtVec(order[b])
	})

	// Mann-Whitney U over average ranks.
	rankSumPos := 0.0
	nPos := 0
	for i := 0; i < n; {
		j := i
		for j+1 < n && yPred.AtVec(order[j+1]) == yPred.AtVec(order[i]) {
			j++
		}
		avgRank := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			if yTrue.AtVec(order[k]) == 1 {
				rankSumPos += avgRank
				nPos++
			}
		}
		i = j + 1
	}

	nNeg := n - nPos
	if nPos == 0 || nNeg == 0 {
		return 0.5, nil
	}
	u := rankSumPos - float64(nPos*(nPos+1))/2
	return u / float64(nPos*nNeg), nil
}

// BinaryLogLoss returns the mean cross-entropy of probabilities yPred against 0/1
// labels. Probabilities are clipped away from 0 and 1.
func BinaryLogLoss(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("BinaryLogLoss", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := checkBinary("BinaryLogLoss", yTrue); err != nil {
		return 0, err
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		p := math.Min(math.Max(yPred.AtVec(i), logLossEpsilon), 1-logLossEpsilon)
		y := yTrue.AtVec(i)
		sum -= y*math.Log(p) + (1-y)*math.Log(1-p)
	}
	return sum / float64(n), nil
}

// Accuracy returns the fraction of positions where yPred equals yTrue.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ConfusionMatrix counts binary outcomes with 1 as the positive class.
type ConfusionMatrix struct {
	TruePositive  int `json:"true_positive"`
	FalsePositive int `json:"false_positive"`
	TrueNegative  int `json:"true_negative"`
	FalseNegative int `json:"false_negative"`
}

// NewConfusionMatrix tallies 0/1 predicted labels against 0/1 true labels.
func NewConfusionMatrix(yTrue, yPred *mat.VecDense) (ConfusionMatrix, error) {
	n, err := checkPair("ConfusionMatrix", yTrue, yPred)
	if err != nil {
		return ConfusionMatrix{}, err
	}
	if err := checkBinary("ConfusionMatrix", yTrue); err != nil {
		return ConfusionMatrix{}, err
	}
	if err := checkBinary("ConfusionMatrix", yPred); err != nil {
		return ConfusionMatrix{}, err
	}

	var cm ConfusionMatrix
	for i := 0; i < n; i++ {
		actual, predicted := yTrue.AtVec(i) == 1, yPred.AtVec(i) == 1
		switch {
		case actual && predicted:
			cm.TruePositive++
		case !actual && predicted:
			cm.FalsePositive++
		case !actual && !predicted:
			cm.TrueNegative++
		default:
			cm.FalseNegative++
		}
	}
	return cm, nil
}

// Total is the number of tallied samples.
func (cm ConfusionMatrix) Total() int {
	return cm.TruePositive + cm.FalsePositive + cm.TrueNegative + cm.FalseNegative
}

// Accuracy is (TP+TN)/total, or 0 for an empty matrix.
func (cm ConfusionMatrix) Accuracy() float64 {
	return ratio(cm.TruePositive+cm.TrueNegative, cm.Total())
}

// Precision is TP/(TP+FP), or 0 when nothing was predicted positive.
func (cm ConfusionMatrix) Precision() float64 {
	return ratio(cm.TruePositive, cm.TruePositive+cm.FalsePositive)
}

// Recall is TP/(TP+FN), or 0 when no sample is positive.
func (cm ConfusionMatrix) Recall() float64 {
	return ratio(cm.TruePositive, cm.TruePositive+cm.FalseNegative)
}

// F1 is the harmonic mean of precision and recall.
func (cm ConfusionMatrix) F1() float64 {
	p, r := cm.Precision(), cm.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Report summarizes a binary classifier on one dataset.
type Report struct {
	Samples   int             `json:"samples"`
	Accuracy  float64         `json:"accuracy"`
	Precision float64         `json:"precision"`
	Recall    float64         `json:"recall"`
	F1        float64         `json:"f1"`
	AUC       float64         `json:"auc"`
	LogLoss   float64         `json:"log_loss"`
	Confusion ConfusionMatrix `json:"confusion"`
}

// Evaluate scores probabilities against 0/1 labels. A probability strictly above
// threshold counts as a positive prediction.
func Evaluate(yTrue, proba *mat.VecDense, threshold float64) (Report, error) {
	n, err := checkPair("Evaluate", yTrue, proba)
	if err != nil {
		return Report{}, err
	}

	predicted := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		if proba.AtVec(i) > threshold {
			predicted.SetVec(i, 1)
		}
	}

	cm, err := NewConfusionMatrix(yTrue, predicted)
	if err != nil {
		return Report{}, err
	}
	auc, err := AUC(yTrue, proba)
	if err != nil {
		return Report{}, err
	}
	logLoss, err := BinaryLogLoss(yTrue, proba)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Samples:   n,
		Accuracy:  cm.Accuracy(),
		Precision: cm.Precision(),
		Recall:    cm.Recall(),
		F1:        cm.F1(),
		AUC:       auc,
		LogLoss:   logLoss,
		Confusion: cm,
	}, nil
}
