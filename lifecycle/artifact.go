package lifecycle

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/loanml/core/model"
	"github.com/YuminosukeSato/loanml/pipeline"
	"github.com/YuminosukeSato/loanml/pkg/errors"
	"github.com/YuminosukeSato/loanml/schema"
)

// PredictionResult is the outcome of scoring one record.
type PredictionResult struct {
	Label       bool    `json:"value"`
	Probability float64 `json:"probability"`
}

// Artifact is a fitted pipeline plus the classifier trained on its output. It is
// immutable once Train returns it, so a caller holding one keeps getting the same
// answers after a retrain replaces it.
type Artifact struct {
	ID              uuid.UUID
	TargetLabel     string
	Hyperparameters Hyperparameters
	TrainedAt       time.Time
	TrainingSamples int
	// Trees is the number of boosting rounds kept; early stopping or a time limit
	// can leave it below Hyperparameters.NumberOfIterations.
	Trees int
	// TrainingLoss is the training log loss after each kept round.
	TrainingLoss []float64

	pipeline   *pipeline.Fitted
	classifier model.BinaryClassifier
}

// FinalLoss returns the training log loss after the last round, or NaN when no
// round was kept.
func (a *Artifact) FinalLoss() float64 {
	if len(a.TrainingLoss) == 0 {
		return math.NaN()
	}
	return a.TrainingLoss[len(a.TrainingLoss)-1]
}

// Pipeline returns the fitted feature pipeline.
func (a *Artifact) Pipeline() *pipeline.Fitted { return a.pipeline }

// FeatureNames names each dimension of the classifier input.
func (a *Artifact) FeatureNames() []string { return a.pipeline.FeatureNames() }

// Predict transforms rec and scores it. The record's label is ignored.
func (a *Artifact) Predict(rec schema.LoanRecord) (PredictionResult, error) {
	x, err := a.pipeline.Transform(rec)
	if err != nil {
		return PredictionResult{}, err
	}
	if len(x) != a.classifier.NumFeatures() {
		return PredictionResult{}, errors.NewDimensionError("Artifact.Predict", a.classifier.NumFeatures(), len(x))
	}
	p := a.classifier.PredictProba(x)
	return PredictionResult{Label: a.classifier.PredictRaw(x) > 0, Probability: p}, nil
}

// PredictProbaBatch transforms records and returns the positive-class probability
// of each, in order.
func (a *Artifact) PredictProbaBatch(records []schema.LoanRecord) (*mat.VecDense, error) {
	X, err := a.pipeline.TransformAll(records)
	if err != nil {
		return nil, err
	}
	return a.classifier.PredictProbaBatch(X)
}

// FeatureImportance pairs one importance value with a feature dimension.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// FeatureImportance returns importances of the given kind ("split" or "gain"),
// highest first. Ties keep feature-vector order.
func (a *Artifact) FeatureImportance(kind string) []FeatureImportance {
	reporter, ok := a.classifier.(model.ImportanceReporter)
	if !ok {
		return nil
	}
	values := reporter.FeatureImportance(kind)
	names := a.FeatureNames()

	out := make([]FeatureImportance, len(values))
	for i, v := range values {
		out[i] = FeatureImportance{Feature: names[i], Importance: v}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Importance > out[j].Importance })
	return out
}
