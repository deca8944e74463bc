package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/loanml/internal/fixtures"
	"github.com/YuminosukeSato/loanml/pkg/errors"
	"github.com/YuminosukeSato/loanml/schema"
)

func TestBuildValidation(t *testing.T) {
	tests := []struct {
		name        string
		numerical   []string
		categorical []string
	}{
		{"no features", nil, nil},
		{"unknown numeric", []string{"Salary"}, nil},
		{"categorical listed as numeric", []string{"LoanPurpose"}, nil},
		{"numeric listed as categorical", nil, []string{"Age"}},
		{"label as feature", []string{"LoanApproved"}, nil},
		{"duplicate", []string{"Age", "age"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.numerical, tt.categorical)
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidArgument, errors.Code(err))
		})
	}
}

func TestBuildReordersIntoSchemaOrder(t *testing.T) {
	spec, err := Build(
		[]string{"Age", "creditscore", "LoanAmount"},
		[]string{"EmployerType", "EmploymentStatus"},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{schema.CreditScore, schema.LoanAmount, schema.Age}, spec.NumericalFeatures())
	assert.Equal(t, []string{schema.EmploymentStatusField, schema.EmployerType}, spec.CategoricalFeatures())
}

func TestFitTransform(t *testing.T) {
	records := fixtures.Separable(60, 11)
	spec, err := Build([]string{schema.CreditScore, schema.Age}, []string{schema.MaritalStatusField})
	require.NoError(t, err)

	fitted, err := spec.Fit(context.Background(), records)
	require.NoError(t, err)

	marital := 0
	seen := map[string]bool{}
	for _, r := range records {
		v, _ := r.Categorical(schema.MaritalStatusField)
		if !seen[v] {
			seen[v] = true
			marital++
		}
	}
	assert.Equal(t, 2+marital, fitted.Width())
	names := fitted.FeatureNames()
	require.Len(t, names, fitted.Width())
	assert.Equal(t, schema.CreditScore, names[0])
	assert.Equal(t, schema.Age, names[1])

	X, err := fitted.TransformAll(records)
	require.NoError(t, err)
	rows, cols := X.Dims()
	assert.Equal(t, 60, rows)
	assert.Equal(t, fitted.Width(), cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			assert.GreaterOrEqual(t, X.At(i, j), 0.0)
			assert.LessOrEqual(t, X.At(i, j), 1.0)
		}
	}

	t.Run("single transform matches batch", func(t *testing.T) {
		x, err := fitted.Transform(records[7])
		require.NoError(t, err)
		assert.Equal(t, X.RawRowView(7), x)
	})

	t.Run("label is ignored", func(t *testing.T) {
		rec := records[3]
		a, _ := fitted.Transform(rec)
		rec.SetLabel(!rec.Label())
		b, _ := fitted.Transform(rec)
		assert.Equal(t, a, b)
	})

	t.Run("refit on the same data is identical", func(t *testing.T) {
		again, err := spec.Fit(context.Background(), records)
		require.NoError(t, err)
		X2, err := again.TransformAll(records)
		require.NoError(t, err)
		assert.Equal(t, X.RawMatrix().Data, X2.RawMatrix().Data)
		assert.Equal(t, names, again.FeatureNames())
	})
}

func TestUnseenCategoryEncodesToZeroBlock(t *testing.T) {
	records := fixtures.Separable(10, 12)
	for i := range records {
		records[i].SetEducationLevel(schema.Bachelor)
		if i%2 == 1 {
			records[i].SetEducationLevel(schema.Master)
		}
	}
	spec, err := Build([]string{schema.CreditScore}, []string{schema.EducationLevelField})
	require.NoError(t, err)
	fitted, err := spec.Fit(context.Background(), records)
	require.NoError(t, err)
	require.Equal(t, 3, fitted.Width())

	rec := records[0]
	rec.SetEducationLevel(schema.Doctorate)
	x, err := fitted.Transform(rec)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, x[1:])
	assert.Equal(t, []string{"EducationLevel=Doctorate"}, fitted.UnseenCategories(rec))
}

func TestFitErrors(t *testing.T) {
	spec, err := Build([]string{schema.Age}, nil)
	require.NoError(t, err)

	_, err = spec.Fit(context.Background(), nil)
	assert.Equal(t, errors.CodeTrainingFailure, errors.Code(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = spec.Fit(ctx, fixtures.Separable(4, 1))
	assert.Equal(t, errors.CodeTrainingFailure, errors.Code(err))
}
