// Package pipeline composes the feature stages into a fittable pipeline: one-hot
// encode the selected categorical fields, concatenate them after the selected numeric
// fields, then min-max scale the whole vector.
package pipeline

import (
	"context"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/loanml/pkg/errors"
	"github.com/YuminosukeSato/loanml/pkg/log"
	"github.com/YuminosukeSato/loanml/preprocessing"
	"github.com/YuminosukeSato/loanml/schema"
)

// Spec is an unfitted pipeline description. It is immutable and may be fitted any
// number of times.
type Spec struct {
	numeric     []schema.Field
	categorical []schema.Field
}

// Build validates the requested feature names against the schema and returns a Spec.
// Names are matched case-insensitively and re-ordered into schema order, so the vector
// layout never depends on the order the caller listed them in.
func Build(numerical, categorical []string) (*Spec, error) {
	if len(numerical)+len(categorical) == 0 {
		return nil, errors.NewInvalidArgumentError("features", "at least one feature is required", 0)
	}
	seen := make(map[string]bool)
	numeric, err := resolve("numericalFeatures", numerical, schema.KindNumeric, seen)
	if err != nil {
		return nil, err
	}
	categ, err := resolve("categoricalFeatures", categorical, schema.KindCategorical, seen)
	if err != nil {
		return nil, err
	}
	return &Spec{numeric: numeric, categorical: categ}, nil
}

func resolve(param string, names []string, kind schema.Kind, seen map[string]bool) ([]schema.Field, error) {
	out := make([]schema.Field, 0, len(names))
	for _, name := range names {
		f, ok := schema.Lookup(name)
		if !ok {
			return nil, errors.NewInvalidArgumentError(param, "unknown field", name)
		}
		if f.Kind == schema.KindLabel {
			return nil, errors.NewInvalidArgumentError(param, "the label cannot be used as a feature", name)
		}
		if f.Kind != kind {
			return nil, errors.NewInvalidArgumentError(param, "field is "+f.Kind.String()+", not "+kind.String(), name)
		}
		key := strings.ToLower(f.Name)
		if seen[key] {
			return nil, errors.NewInvalidArgumentError(param, "duplicate feature", name)
		}
		seen[key] = true
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Column < out[j].Column })
	return out, nil
}

// NumericalFeatures returns the numeric field names in schema order.
func (s *Spec) NumericalFeatures() []string { return names(s.numeric) }

// CategoricalFeatures returns the categorical field names in schema order.
func (s *Spec) CategoricalFeatures() []string { return names(s.categorical) }

func names(fields []schema.Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

// Fit learns the encoder vocabularies and the scaler bounds from records.
func (s *Spec) Fit(ctx context.Context, records []schema.LoanRecord) (*Fitted, error) {
	if len(records) == 0 {
		return nil, errors.NewTrainingFailureError("pipeline fit", errors.ErrEmptyData)
	}
	logger := log.GetLoggerWithName("pipeline")

	encoders := make([]*preprocessing.OneHotEncoder, len(s.categorical))
	column := make([]string, len(records))
	for i, f := range s.categorical {
		for r := range records {
			column[r] = records[r].CategoricalAt(f.Index)
		}
		enc := preprocessing.NewOneHotEncoder(f.Name)
		if err := enc.Fit(column); err != nil {
			return nil, err
		}
		encoders[i] = enc
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.NewTrainingFailureError("pipeline fit cancelled", err)
	}

	concat, err := preprocessing.NewConcatenator(s.numeric, s.categorical, encoders)
	if err != nil {
		return nil, err
	}

	raw := mat.NewDense(len(records), concat.Width(), nil)
	for r := range records {
		if err := concat.AssembleInto(&records[r], raw.RawRowView(r)); err != nil {
			return nil, err
		}
	}

	scaler := preprocessing.NewMinMaxScalerDefault()
	if err := scaler.Fit(raw); err != nil {
		return nil, err
	}

	logger.Debug("Pipeline fitted",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhasePreprocessing,
		log.SamplesKey, len(records),
		log.FeaturesKey, concat.Width(),
	)
	return &Fitted{spec: s, concat: concat, scaler: scaler}, nil
}
