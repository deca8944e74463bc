package model

import "gonum.org/v1/gonum/mat"

// Transformer learns parameters from a feature matrix and applies them.
type Transformer interface {
	// Fit learns the transformation parameters from X.
	Fit(X mat.Matrix) error

	// Transform applies the learned parameters to X.
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform runs Fit followed by Transform.
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// VectorTransformer applies learned parameters to a single feature vector in place.
type VectorTransformer interface {
	TransformVector(x []float64) error
}
