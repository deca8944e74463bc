package sample

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/loanml/pkg/errors"
	"github.com/YuminosukeSato/loanml/schema"
)

func ptr[T any](v T) *T { return &v }

func TestDefault(t *testing.T) {
	rec := Default()

	score, err := rec.Numeric(schema.CreditScore)
	require.NoError(t, err)
	assert.Equal(t, 700.0, score)
	assert.Equal(t, schema.Employed, rec.EmploymentStatus())
	assert.Equal(t, schema.Single, rec.MaritalStatus())
	assert.Equal(t, schema.Bachelor, rec.EducationLevel())

	purpose, err := rec.Categorical(schema.LoanPurpose)
	require.NoError(t, err)
	assert.Equal(t, "Home Improvement", purpose)

	for _, f := range schema.NumericFields() {
		_, ok := defaultNumeric[f.Name]
		assert.True(t, ok, "no default for %s", f.Name)
	}
}

func TestStateUpdate(t *testing.T) {
	s := NewDefaultState()

	snap, err := s.Update(Update{
		CreditScore:      ptr(750.0),
		EmploymentStatus: ptr("Self-Employed"),
		Age:              ptr(35.0),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{schema.CreditScore, schema.EmploymentStatusField}, snap.Changed)
	assert.Equal(t, map[string]any{
		schema.CreditScore:           750.0,
		schema.Age:                   35.0,
		schema.EmploymentStatusField: "Self-Employed",
	}, snap.Updates)

	current := s.Current()
	score, _ := current.Numeric(schema.CreditScore)
	assert.Equal(t, 750.0, score)
	assert.Equal(t, schema.SelfEmployed, current.EmploymentStatus())
	assert.Equal(t, snap.Sample, current)
}

func TestStateUpdateIdempotent(t *testing.T) {
	s := NewDefaultState()
	u := Update{LoanAmount: ptr(90000.0), MaritalStatus: ptr("Married")}

	first, err := s.Update(u)
	require.NoError(t, err)
	second, err := s.Update(u)
	require.NoError(t, err)

	assert.Equal(t, first.Sample, second.Sample)
	assert.Equal(t, first.Updates, second.Updates)
	assert.Empty(t, second.Changed)
	assert.NotNil(t, second.Changed)
}

func TestStateUpdateRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		u    Update
	}{
		{name: "unknown employment status", u: Update{CreditScore: ptr(800.0), EmploymentStatus: ptr("Freelancer")}},
		{name: "case mismatch", u: Update{EducationLevel: ptr("bachelor")}},
		{name: "nan", u: Update{AnnualIncome: ptr(math.NaN())}},
		{name: "infinity", u: Update{Age: ptr(math.Inf(1)), MaritalStatus: ptr("Married")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewDefaultState()
			before := s.Current()

			_, err := s.Update(tt.u)
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidArgument, errors.Code(err))
			assert.Equal(t, before, s.Current(), "nothing may be applied")
		})
	}
}

func TestStateOverlay(t *testing.T) {
	s := NewDefaultState()

	rec, err := s.Overlay(Update{CreditScore: ptr(500.0)})
	require.NoError(t, err)
	score, _ := rec.Numeric(schema.CreditScore)
	assert.Equal(t, 500.0, score)

	current := s.Current()
	score, _ = current.Numeric(schema.CreditScore)
	assert.Equal(t, 700.0, score, "overlay must not touch the state")

	_, err = s.Overlay(Update{MaritalStatus: ptr("It's complicated")})
	assert.Error(t, err)
}

func TestUpdateValues(t *testing.T) {
	assert.True(t, Update{}.IsEmpty())
	assert.False(t, Update{Age: ptr(0.0)}.IsEmpty())
}

func TestStateConcurrentAccess(t *testing.T) {
	s := NewDefaultState()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(v float64) {
			defer wg.Done()
			_, err := s.Update(Update{CreditScore: ptr(v)})
			assert.NoError(t, err)
		}(float64(600 + i))
		go func() {
			defer wg.Done()
			_, err := s.Overlay(Update{Age: ptr(40.0)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	current := s.Current()
	age, _ := current.Numeric(schema.Age)
	assert.Equal(t, 35.0, age)
}

func TestStateReset(t *testing.T) {
	s := NewDefaultState()
	_, err := s.Update(Update{CreditScore: ptr(400.0)})
	require.NoError(t, err)

	s.Reset(Default())
	assert.Equal(t, Default(), s.Current())
}
