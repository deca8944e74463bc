package model

import "gonum.org/v1/gonum/mat"

// BinaryClassifier scores feature vectors.
type BinaryClassifier interface {
	// PredictRaw returns the untransformed score (log-odds).
	PredictRaw(x []float64) float64

	// PredictProba returns the calibrated probability of the positive class.
	PredictProba(x []float64) float64

	// PredictProbaBatch returns the positive-class probability of every row of X.
	PredictProbaBatch(X mat.Matrix) (*mat.VecDense, error)

	// NumFeatures returns the feature-vector width the classifier was trained on.
	NumFeatures() int
}

// ImportanceReporter exposes per-feature importances aligned with feature columns.
type ImportanceReporter interface {
	FeatureImportance(kind string) []float64
}
