package schema

import (
	"fmt"

	lerrors "github.com/YuminosukeSato/loanml/pkg/errors"
)

// EmploymentStatus is the applicant's employment situation.
type EmploymentStatus uint8

const (
	Employed EmploymentStatus = iota
	SelfEmployed
	Unemployed
	Retired
	Student
)

var employmentStatusNames = [...]string{"Employed", "Self-Employed", "Unemployed", "Retired", "Student"}

func (e EmploymentStatus) String() string {
	if int(e) < len(employmentStatusNames) {
		return employmentStatusNames[e]
	}
	return fmt.Sprintf("EmploymentStatus(%d)", uint8(e))
}

// ParseEmploymentStatus maps an exact label such as "Self-Employed" to its value.
func ParseEmploymentStatus(s string) (EmploymentStatus, error) {
	i, err := parseLabel(EmploymentStatusField, employmentStatusNames[:], s)
	return EmploymentStatus(i), err
}

// MaritalStatus is the applicant's marital status.
type MaritalStatus uint8

const (
	Single MaritalStatus = iota
	Married
	Divorced
	Widowed
)

var maritalStatusNames = [...]string{"Single", "Married", "Divorced", "Widowed"}

func (m MaritalStatus) String() string {
	if int(m) < len(maritalStatusNames) {
		return maritalStatusNames[m]
	}
	return fmt.Sprintf("MaritalStatus(%d)", uint8(m))
}

// ParseMaritalStatus maps an exact label such as "Married" to its value.
func ParseMaritalStatus(s string) (MaritalStatus, error) {
	i, err := parseLabel(MaritalStatusField, maritalStatusNames[:], s)
	return MaritalStatus(i), err
}

// EducationLevel is the applicant's highest completed education.
type EducationLevel uint8

const (
	HighSchool EducationLevel = iota
	Associate
	Bachelor
	Master
	Doctorate
)

var educationLevelNames = [...]string{"High School", "Associate", "Bachelor", "Master", "Doctorate"}

func (e EducationLevel) String() string {
	if int(e) < len(educationLevelNames) {
		return educationLevelNames[e]
	}
	return fmt.Sprintf("EducationLevel(%d)", uint8(e))
}

// ParseEducationLevel maps an exact label such as "High School" to its value.
func ParseEducationLevel(s string) (EducationLevel, error) {
	i, err := parseLabel(EducationLevelField, educationLevelNames[:], s)
	return EducationLevel(i), err
}

func parseLabel(field string, names []string, s string) (int, error) {
	for i, n := range names {
		if n == s {
			return i, nil
		}
	}
	return 0, lerrors.NewInvalidArgumentError(field, fmt.Sprintf("must be one of %q", names), s)
}

// Slots of the enum-backed fields among the categorical fields.
const (
	employmentSlot = 0
	maritalSlot    = 1
	educationSlot  = 2
)
