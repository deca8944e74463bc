// Package sample holds the applicant currently under discussion and applies partial
// updates to it.
package sample

import (
	"sync"

	"github.com/YuminosukeSato/loanml/pkg/errors"
	"github.com/YuminosukeSato/loanml/schema"
)

// Update carries the fields a caller may change. Nil fields are left as they are.
// Enumerated fields accept only the exact string labels of their closed set.
type Update struct {
	CreditScore      *float64 `json:"creditScore,omitempty"`
	AnnualIncome     *float64 `json:"annualIncome,omitempty"`
	LoanAmount       *float64 `json:"loanAmount,omitempty"`
	LoanDuration     *float64 `json:"loanDuration,omitempty"`
	Age              *float64 `json:"age,omitempty"`
	EmploymentStatus *string  `json:"employmentStatus,omitempty"`
	MaritalStatus    *string  `json:"maritalStatus,omitempty"`
	EducationLevel   *string  `json:"educationLevel,omitempty"`
}

// IsEmpty reports whether u sets no field.
func (u Update) IsEmpty() bool {
	return len(u.Values()) == 0
}

// Values returns the provided fields keyed by schema field name.
func (u Update) Values() map[string]any {
	out := make(map[string]any)
	for _, n := range u.numeric() {
		if n.value != nil {
			out[n.field] = *n.value
		}
	}
	for _, e := range u.enumerated() {
		if e.value != nil {
			out[e.field] = *e.value
		}
	}
	return out
}

type numericUpdate struct {
	field string
	value *float64
}

type enumUpdate struct {
	field string
	value *string
}

func (u Update) numeric() []numericUpdate {
	return []numericUpdate{
		{schema.CreditScore, u.CreditScore},
		{schema.AnnualIncome, u.AnnualIncome},
		{schema.LoanAmount, u.LoanAmount},
		{schema.LoanDuration, u.LoanDuration},
		{schema.Age, u.Age},
	}
}

func (u Update) enumerated() []enumUpdate {
	return []enumUpdate{
		{schema.EmploymentStatusField, u.EmploymentStatus},
		{schema.MaritalStatusField, u.MaritalStatus},
		{schema.EducationLevelField, u.EducationLevel},
	}
}

// ApplyTo overwrites the provided fields of rec. Every value is checked before any is
// written, so rec is unchanged when an error is returned.
func (u Update) ApplyTo(rec *schema.LoanRecord) error {
	next := *rec
	for _, n := range u.numeric() {
		if n.value == nil {
			continue
		}
		if err := next.SetNumeric(n.field, *n.value); err != nil {
			return err
		}
	}

	for _, e := range u.enumerated() {
		if e.value == nil {
			continue
		}
		if err := setEnum(&next, e.field, *e.value); err != nil {
			return err
		}
	}
	*rec = next
	return nil
}

func setEnum(rec *schema.LoanRecord, field, value string) error {
	switch field {
	case schema.EmploymentStatusField:
		v, err := schema.ParseEmploymentStatus(value)
		if err != nil {
			return err
		}
		rec.SetEmploymentStatus(v)
	case schema.MaritalStatusField:
		v, err := schema.ParseMaritalStatus(value)
		if err != nil {
			return err
		}
		rec.SetMaritalStatus(v)
	case schema.EducationLevelField:
		v, err := schema.ParseEducationLevel(value)
		if err != nil {
			return err
		}
		rec.SetEducationLevel(v)
	default:
		return errors.NewInvalidArgumentError(field, "not an updatable field", value)
	}
	return nil
}

// Snapshot is the record after an update, the values that were provided and the
// names of the fields whose value actually changed.
type Snapshot struct {
	Sample  schema.LoanRecord `json:"sample"`
	Updates map[string]any    `json:"updates"`
	Changed []string          `json:"changed"`
}

// State is the current applicant. It is safe for concurrent use.
type State struct {
	mu      sync.RWMutex
	current schema.LoanRecord
}

// NewState creates a State holding initial.
func NewState(initial schema.LoanRecord) *State {
	return &State{current: initial}
}

// NewDefaultState creates a State holding Default().
func NewDefaultState() *State {
	return NewState(Default())
}

// Current returns a copy of the held record.
func (s *State) Current() schema.LoanRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update applies u to the held record. Nothing is applied when any value is invalid.
func (s *State) Update(u Update) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current
	if err := u.ApplyTo(&next); err != nil {
		return Snapshot{}, err
	}
	changed := s.current.Diff(&next)
	if changed == nil {
		changed = []string{}
	}
	s.current = next
	return Snapshot{Sample: next, Updates: u.Values(), Changed: changed}, nil
}

// Overlay returns a copy of the held record with u applied. The state is unchanged.
func (s *State) Overlay(u Update) (schema.LoanRecord, error) {
	rec := s.Current()
	if err := u.ApplyTo(&rec); err != nil {
		return schema.LoanRecord{}, err
	}
	return rec, nil
}

// Reset replaces the held record with rec.
func (s *State) Reset(rec schema.LoanRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = rec
}
