package pipeline

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/loanml/preprocessing"
	"github.com/YuminosukeSato/loanml/schema"
)

// Fitted is a fitted pipeline. It is never mutated after Fit returns and is safe for
// concurrent use.
type Fitted struct {
	spec   *Spec
	concat *preprocessing.Concatenator
	scaler *preprocessing.MinMaxScaler
}

// Spec returns the description this pipeline was fitted from.
func (f *Fitted) Spec() *Spec { return f.spec }

// Width returns the feature-vector length.
func (f *Fitted) Width() int { return f.concat.Width() }

// FeatureNames names each dimension of the feature vector.
func (f *Fitted) FeatureNames() []string { return f.concat.FeatureNames() }

// Transform maps one record to its normalized feature vector. The label is ignored.
func (f *Fitted) Transform(rec schema.LoanRecord) ([]float64, error) {
	x, err := f.concat.Assemble(&rec)
	if err != nil {
		return nil, err
	}
	if err := f.scaler.TransformVector(x); err != nil {
		return nil, err
	}
	return x, nil
}

// TransformAll maps records to a matrix with one normalized row per record.
func (f *Fitted) TransformAll(records []schema.LoanRecord) (*mat.Dense, error) {
	if len(records) == 0 {
		return &mat.Dense{}, nil
	}
	out := mat.NewDense(len(records), f.Width(), nil)
	for r := range records {
		row := out.RawRowView(r)
		if err := f.concat.AssembleInto(&records[r], row); err != nil {
			return nil, err
		}
		if err := f.scaler.TransformVector(row); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UnseenCategories lists the categorical values of rec missing from the fitted
// vocabularies.
func (f *Fitted) UnseenCategories(rec schema.LoanRecord) []string {
	return f.concat.UnseenCategories(&rec)
}
