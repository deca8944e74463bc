package schema

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lerrors "github.com/YuminosukeSato/loanml/pkg/errors"
)

func TestFieldTableLayout(t *testing.T) {
	all := Fields()
	require.Len(t, all, NumColumns)
	assert.Len(t, NumericFields(), NumNumeric)
	assert.Len(t, CategoricalFields(), NumCategorical)

	for i, f := range all {
		assert.Equal(t, i, f.Column, f.Name)
	}
	assert.Equal(t, CreditScore, all[0].Name)
	assert.Equal(t, LoanApproved, all[50].Name)
	assert.Equal(t, KindLabel, LabelField().Kind)
	assert.Equal(t, 50, LabelField().Column)

	enums := EnumeratedFields()
	require.Len(t, enums, 3)
	assert.Equal(t, []string{EmploymentStatusField, MaritalStatusField, EducationLevelField},
		[]string{enums[0].Name, enums[1].Name, enums[2].Name})
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name   string
		want   string
		kind   Kind
		wantOK bool
	}{
		{"CreditScore", CreditScore, KindNumeric, true},
		{"creditscore", CreditScore, KindNumeric, true},
		{" LoanPurpose ", LoanPurpose, KindCategorical, true},
		{"loanapproved", LoanApproved, KindLabel, true},
		{"Salary", "", KindNumeric, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := Lookup(tt.name)
			assert.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.want, f.Name)
			assert.Equal(t, tt.kind, f.Kind)
		})
	}
}

func TestFieldsReturnsCopies(t *testing.T) {
	f, ok := Lookup(LoanPurpose)
	require.True(t, ok)
	f.Values[0] = "mutated"

	again, _ := Lookup(LoanPurpose)
	assert.Equal(t, "Home", again.Values[0])
}

func TestEnumParseAndString(t *testing.T) {
	e, err := ParseEmploymentStatus("Self-Employed")
	require.NoError(t, err)
	assert.Equal(t, SelfEmployed, e)
	assert.Equal(t, "Self-Employed", e.String())

	m, err := ParseMaritalStatus("Widowed")
	require.NoError(t, err)
	assert.Equal(t, Widowed, m)

	d, err := ParseEducationLevel("High School")
	require.NoError(t, err)
	assert.Equal(t, HighSchool, d)

	_, err = ParseEducationLevel("high school")
	require.Error(t, err)
	assert.Equal(t, lerrors.CodeInvalidArgument, lerrors.Code(err))

	assert.Equal(t, "MaritalStatus(9)", MaritalStatus(9).String())
}

func TestEnumValuesMatchFieldTable(t *testing.T) {
	f, _ := Lookup(EmploymentStatusField)
	for i, v := range f.Values {
		assert.Equal(t, v, EmploymentStatus(i).String())
	}
	f, _ = Lookup(EducationLevelField)
	for i, v := range f.Values {
		assert.Equal(t, v, EducationLevel(i).String())
	}
}

func TestRecordAccessors(t *testing.T) {
	r := NewRecord()
	require.NoError(t, r.SetNumeric(CreditScore, 712))
	require.NoError(t, r.SetNumeric("age", 41))
	require.NoError(t, r.SetCategorical(LoanPurpose, "Debt Consolidation"))
	r.SetMaritalStatus(Married)
	r.SetLabel(true)

	v, err := r.Numeric(CreditScore)
	require.NoError(t, err)
	assert.Equal(t, 712.0, v)
	assert.Equal(t, 41.0, r.NumericAt(4))

	s, err := r.Categorical(MaritalStatusField)
	require.NoError(t, err)
	assert.Equal(t, "Married", s)
	assert.Equal(t, "Debt Consolidation", r.CategoricalAt(4))
	assert.True(t, r.Label())

	t.Run("rejects non-finite numerics", func(t *testing.T) {
		assert.Error(t, r.SetNumeric(Age, math.NaN()))
		assert.Error(t, r.SetNumeric(Age, math.Inf(1)))
	})
	t.Run("rejects values outside the closed set", func(t *testing.T) {
		err := r.SetCategorical(HomeOwnershipStatus, "Castle")
		require.Error(t, err)
		assert.Equal(t, lerrors.CodeInvalidArgument, lerrors.Code(err))
	})
	t.Run("rejects kind mismatch", func(t *testing.T) {
		assert.Error(t, r.SetNumeric(LoanPurpose, 1))
		_, err := r.Categorical(CreditScore)
		assert.Error(t, err)
	})
}

func TestRecordValueSemantics(t *testing.T) {
	r := NewRecord()
	require.NoError(t, r.SetNumeric(Age, 30))
	snapshot := r
	require.NoError(t, r.SetNumeric(Age, 31))
	r.SetEmploymentStatus(Retired)

	v, _ := snapshot.Numeric(Age)
	assert.Equal(t, 30.0, v)
	assert.Equal(t, Employed, snapshot.EmploymentStatus())
	assert.Equal(t, []string{Age, EmploymentStatusField}, snapshot.Diff(&r))
}

func TestRecordJSON(t *testing.T) {
	r := NewRecord()
	require.NoError(t, r.SetNumeric(InterestRate, 0.05))
	r.SetEducationLevel(Master)

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var generic map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.Len(t, generic, NumColumns)
	assert.Equal(t, "Master", generic[EducationLevelField])
	assert.Equal(t, 0.05, generic[InterestRate])
	assert.Equal(t, false, generic[LoanApproved])

	var back LoanRecord
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, r, back)

	err = json.Unmarshal([]byte(`{"EducationLevel":"PhD"}`), &back)
	assert.Error(t, err)
	err = json.Unmarshal([]byte(`{"Nickname":"x"}`), &back)
	assert.Error(t, err)
	assert.Equal(t, Master, back.EducationLevel(), "failed decode leaves record untouched")
}
