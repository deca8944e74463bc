// Package preprocessing provides the feature pipeline stages: one-hot encoding of
// categorical fields, concatenation into a fixed-layout vector, and min-max scaling.
package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/loanml/core/model"
	"github.com/YuminosukeSato/loanml/pkg/errors"
)

// MinMaxScaler rescales every column to FeatureRange using the minimum and maximum
// learned at Fit. Values outside the fitted range are extrapolated linearly, never
// clamped. A constant column gets a scale of 1, so it maps to FeatureRange[0] plus its
// offset from the fitted constant.
type MinMaxScaler struct {
	model.BaseEstimator

	// DataMin is the per-column minimum seen at Fit.
	DataMin []float64

	// DataMax is the per-column maximum seen at Fit.
	DataMax []float64

	// Scale is DataMax - DataMin, or 1 for constant columns.
	Scale []float64

	// NFeatures is the number of columns seen at Fit.
	NFeatures int

	// FeatureRange is the target interval [min, max].
	FeatureRange [2]float64
}

// NewMinMaxScaler returns an unfitted scaler targeting featureRange.
//
// Example:
//
//	scaler := preprocessing.NewMinMaxScaler([2]float64{0.0, 1.0})
//	err := scaler.Fit(X)
//	XScaled, err := scaler.Transform(X)
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{
		FeatureRange: featureRange,
	}
}

// NewMinMaxScalerDefault returns a scaler targeting [0, 1].
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0.0, 1.0})
}

// Fit learns per-column minimum and maximum from X.
func (m *MinMaxScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewTrainingFailureError("MinMaxScaler.Fit: empty data", errors.ErrEmptyData)
	}
	if m.FeatureRange[1] <= m.FeatureRange[0] {
		return errors.NewInvalidArgumentError("feature_range", "upper bound must exceed lower bound", m.FeatureRange)
	}

	m.Reset()
	m.NFeatures = c
	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		lo, hi := X.At(0, j), X.At(0, j)
		for i := 1; i < r; i++ {
			v := X.At(i, j)
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		m.DataMin[j] = lo
		m.DataMax[j] = hi

		if dataRange := hi - lo; math.Abs(dataRange) < 1e-12 {
			m.Scale[j] = 1.0
		} else {
			m.Scale[j] = dataRange
		}
	}

	m.SetFitted()
	return nil
}

// Transform returns a scaled copy of X.
func (m *MinMaxScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !m.IsFitted() {
		return nil, errors.NewModelNotTrainedError("MinMaxScaler.Transform")
	}
	r, c := X.Dims()
	if c != m.NFeatures {
		return nil, errors.NewDimensionError("MinMaxScaler.Transform", m.NFeatures, c)
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(_, j int, v float64) float64 {
		return m.scale(j, v)
	}, X)
	return result, nil
}

// TransformVector scales a single feature vector in place.
func (m *MinMaxScaler) TransformVector(x []float64) error {
	if !m.IsFitted() {
		return errors.NewModelNotTrainedError("MinMaxScaler.TransformVector")
	}
	if len(x) != m.NFeatures {
		return errors.NewDimensionError("MinMaxScaler.TransformVector", m.NFeatures, len(x))
	}
	for j, v := range x {
		x[j] = m.scale(j, v)
	}
	return nil
}

func (m *MinMaxScaler) scale(j int, v float64) float64 {
	featureRange := m.FeatureRange[1] - m.FeatureRange[0]
	return (v-m.DataMin[j])/m.Scale[j]*featureRange + m.FeatureRange[0]
}

// FitTransform fits on X and returns X scaled.
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

func (m *MinMaxScaler) String() string {
	if !m.IsFitted() {
		return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f])",
			m.FeatureRange[0], m.FeatureRange[1])
	}
	return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f], n_features=%d)",
		m.FeatureRange[0], m.FeatureRange[1], m.NFeatures)
}

var (
	_ model.Transformer       = (*MinMaxScaler)(nil)
	_ model.VectorTransformer = (*MinMaxScaler)(nil)
)
