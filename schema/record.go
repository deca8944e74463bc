package schema

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	lerrors "github.com/YuminosukeSato/loanml/pkg/errors"
)

// LoanRecord is one loan application. Categorical values are stored as positions in
// their field's closed value set, so a record can never hold a value outside it.
//
// LoanRecord has value semantics: assigning it copies every field, which is how
// snapshots are taken.
type LoanRecord struct {
	numeric     [NumNumeric]float64
	categorical [NumCategorical]uint8
	label       bool
}

// NewRecord returns a record with zero numerics and the first declared value of each
// categorical field.
func NewRecord() LoanRecord {
	return LoanRecord{}
}

// NumericAt returns the i-th numeric field in schema order.
func (r *LoanRecord) NumericAt(i int) float64 {
	return r.numeric[i]
}

// CategoricalAt returns the i-th categorical field in schema order.
func (r *LoanRecord) CategoricalAt(i int) string {
	return fields[categ[i]].Values[r.categorical[i]]
}

// Numeric returns the value of the named numeric field.
func (r *LoanRecord) Numeric(name string) (float64, error) {
	f, err := fieldOfKind(name, KindNumeric)
	if err != nil {
		return 0, err
	}
	return r.numeric[f.Index], nil
}

// SetNumeric assigns a finite value to the named numeric field.
func (r *LoanRecord) SetNumeric(name string, v float64) error {
	f, err := fieldOfKind(name, KindNumeric)
	if err != nil {
		return err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return lerrors.NewInvalidArgumentError(f.Name, "must be a finite number", v)
	}
	r.numeric[f.Index] = v
	return nil
}

// Categorical returns the value of the named categorical field.
func (r *LoanRecord) Categorical(name string) (string, error) {
	f, err := fieldOfKind(name, KindCategorical)
	if err != nil {
		return "", err
	}
	return f.Values[r.categorical[f.Index]], nil
}

// SetCategorical assigns the named categorical field. The value must be an exact
// member of the field's closed set.
func (r *LoanRecord) SetCategorical(name, v string) error {
	f, err := fieldOfKind(name, KindCategorical)
	if err != nil {
		return err
	}
	i := f.valueIndex(v)
	if i < 0 {
		return lerrors.NewInvalidArgumentError(f.Name, "value outside the declared set", v)
	}
	r.categorical[f.Index] = uint8(i)
	return nil
}

// Label returns whether the loan was approved.
func (r *LoanRecord) Label() bool { return r.label }

// SetLabel sets the approval label.
func (r *LoanRecord) SetLabel(approved bool) { r.label = approved }

// EmploymentStatus returns the typed employment status.
func (r *LoanRecord) EmploymentStatus() EmploymentStatus {
	return EmploymentStatus(r.categorical[employmentSlot])
}

// SetEmploymentStatus sets the employment status.
func (r *LoanRecord) SetEmploymentStatus(v EmploymentStatus) {
	r.categorical[employmentSlot] = uint8(v)
}

// MaritalStatus returns the typed marital status.
func (r *LoanRecord) MaritalStatus() MaritalStatus {
	return MaritalStatus(r.categorical[maritalSlot])
}

// SetMaritalStatus sets the marital status.
func (r *LoanRecord) SetMaritalStatus(v MaritalStatus) {
	r.categorical[maritalSlot] = uint8(v)
}

// EducationLevel returns the typed education level.
func (r *LoanRecord) EducationLevel() EducationLevel {
	return EducationLevel(r.categorical[educationSlot])
}

// SetEducationLevel sets the education level.
func (r *LoanRecord) SetEducationLevel(v EducationLevel) {
	r.categorical[educationSlot] = uint8(v)
}

// Diff returns the names of the fields whose values differ between r and other, in
// column order.
func (r *LoanRecord) Diff(other *LoanRecord) []string {
	var out []string
	for _, f := range fields {
		switch f.Kind {
		case KindNumeric:
			if r.numeric[f.Index] != other.numeric[f.Index] {
				out = append(out, f.Name)
			}
		case KindCategorical:
			if r.categorical[f.Index] != other.categorical[f.Index] {
				out = append(out, f.Name)
			}
		case KindLabel:
			if r.label != other.label {
				out = append(out, f.Name)
			}
		}
	}
	return out
}

// MarshalJSON encodes the record as an object keyed by field name in column order.
// Categorical values are written as their string labels.
func (r LoanRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(f.Name))
		buf.WriteByte(':')
		switch f.Kind {
		case KindNumeric:
			buf.WriteString(strconv.FormatFloat(r.numeric[f.Index], 'f', -1, 64))
		case KindCategorical:
			b, err := json.Marshal(f.Values[r.categorical[f.Index]])
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		case KindLabel:
			buf.WriteString(strconv.FormatBool(r.label))
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object produced by MarshalJSON. Keys are matched
// case-insensitively; absent keys leave the current value in place.
func (r *LoanRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return lerrors.Wrap(err, "decode loan record")
	}
	next := *r
	for key, msg := range raw {
		f, ok := Lookup(key)
		if !ok {
			return lerrors.NewInvalidArgumentError(key, "unknown field", string(msg))
		}
		switch f.Kind {
		case KindNumeric:
			var v float64
			if err := json.Unmarshal(msg, &v); err != nil {
				return lerrors.NewInvalidArgumentError(f.Name, "must be a number", string(msg))
			}
			if err := next.SetNumeric(f.Name, v); err != nil {
				return err
			}
		case KindCategorical:
			var v string
			if err := json.Unmarshal(msg, &v); err != nil {
				return lerrors.NewInvalidArgumentError(f.Name, "must be a string", string(msg))
			}
			if err := next.SetCategorical(f.Name, v); err != nil {
				return err
			}
		case KindLabel:
			var v bool
			if err := json.Unmarshal(msg, &v); err != nil {
				return lerrors.NewInvalidArgumentError(f.Name, "must be a boolean", string(msg))
			}
			next.label = v
		}
	}
	*r = next
	return nil
}

func fieldOfKind(name string, kind Kind) (Field, error) {
	i, ok := byName[normalize(name)]
	if !ok {
		return Field{}, lerrors.NewInvalidArgumentError("field", "unknown field", name)
	}
	f := fields[i]
	if f.Kind != kind {
		return Field{}, lerrors.NewInvalidArgumentError(f.Name, "field is "+f.Kind.String()+", not "+kind.String(), name)
	}
	return f, nil
}
