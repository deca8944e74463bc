// Package schema declares the fixed layout of a loan application record.
//
// The field table is the single source of truth for column order. The dataset loader
// reads columns in this order and the feature pipeline concatenates numerics and
// categorical blocks in this order, so a fitted pipeline reproduces the same vector
// layout at training and inference time.
package schema

import (
	"slices"
	"strings"
)

// Kind is the semantic type of a field.
type Kind int

const (
	KindNumeric Kind = iota
	KindCategorical
	KindLabel
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindCategorical:
		return "categorical"
	case KindLabel:
		return "label"
	default:
		return "unknown"
	}
}

// Field describes one column of the record.
type Field struct {
	// Name is the column header, matched case-insensitively by Lookup.
	Name string
	Kind Kind
	// Column is the 0-based position in a dataset row.
	Column int
	// Index is the position among fields of the same kind.
	Index int
	// Values is the closed value set of a categorical field, in declaration order.
	Values []string
	// Enumerated marks the categorical fields backed by a typed enum and accepted by
	// sample updates.
	Enumerated bool
}

// Allows reports whether v belongs to the field's closed value set.
func (f Field) Allows(v string) bool {
	return f.valueIndex(v) >= 0
}

func (f Field) valueIndex(v string) int {
	for i, allowed := range f.Values {
		if allowed == v {
			return i
		}
	}
	return -1
}

// Field names.
const (
	CreditScore                = "CreditScore"
	AnnualIncome               = "AnnualIncome"
	LoanAmount                 = "LoanAmount"
	LoanDuration               = "LoanDuration"
	Age                        = "Age"
	EmploymentStatusField      = "EmploymentStatus"
	MaritalStatusField         = "MaritalStatus"
	NumberOfDependents         = "NumberOfDependents"
	EducationLevelField        = "EducationLevel"
	HomeOwnershipStatus        = "HomeOwnershipStatus"
	MonthlyDebtPayments        = "MonthlyDebtPayments"
	CreditCardUtilizationRate  = "CreditCardUtilizationRate"
	NumberOfOpenCreditLines    = "NumberOfOpenCreditLines"
	NumberOfCreditInquiries    = "NumberOfCreditInquiries"
	DebtToIncomeRatio          = "DebtToIncomeRatio"
	BankruptcyHistory          = "BankruptcyHistory"
	LoanPurpose                = "LoanPurpose"
	PreviousLoanDefaults       = "PreviousLoanDefaults"
	InterestRate               = "InterestRate"
	PaymentHistory             = "PaymentHistory"
	SavingsAccountBalance      = "SavingsAccountBalance"
	CheckingAccountBalance     = "CheckingAccountBalance"
	InvestmentAccountBalance   = "InvestmentAccountBalance"
	RetirementAccountBalance   = "RetirementAccountBalance"
	EmergencyFundBalance       = "EmergencyFundBalance"
	TotalAssets                = "TotalAssets"
	TotalLiabilities           = "TotalLiabilities"
	NetWorth                   = "NetWorth"
	LengthOfCreditHistory      = "LengthOfCreditHistory"
	MortgageBalance            = "MortgageBalance"
	RentPayments               = "RentPayments"
	AutoLoanBalance            = "AutoLoanBalance"
	PersonalLoanBalance        = "PersonalLoanBalance"
	StudentLoanBalance         = "StudentLoanBalance"
	UtilityBillsPaymentHistory = "UtilityBillsPaymentHistory"
	HealthInsuranceStatus      = "HealthInsuranceStatus"
	LifeInsuranceStatus        = "LifeInsuranceStatus"
	CarInsuranceStatus         = "CarInsuranceStatus"
	HomeInsuranceStatus        = "HomeInsuranceStatus"
	OtherInsurancePolicies     = "OtherInsurancePolicies"
	EmployerType               = "EmployerType"
	JobTenure                  = "JobTenure"
	MonthlySavings             = "MonthlySavings"
	AnnualBonuses              = "AnnualBonuses"
	AnnualExpenses             = "AnnualExpenses"
	MonthlyHousingCosts        = "MonthlyHousingCosts"
	MonthlyTransportationCosts = "MonthlyTransportationCosts"
	MonthlyFoodCosts           = "MonthlyFoodCosts"
	MonthlyHealthcareCosts     = "MonthlyHealthcareCosts"
	MonthlyEntertainmentCosts  = "MonthlyEntertainmentCosts"
	LoanApproved               = "LoanApproved"
)

// Layout sizes.
const (
	NumNumeric     = 40
	NumCategorical = 10
	NumColumns     = NumNumeric + NumCategorical + 1
)

var (
	homeOwnershipValues = []string{"Own", "Rent", "Mortgage", "Other"}
	loanPurposeValues   = []string{"Home", "Home Improvement", "Debt Consolidation", "Education", "Auto", "Medical", "Business", "Personal", "Other"}
	insuranceValues     = []string{"Insured", "Uninsured"}
	employerTypeValues  = []string{"Private", "Public", "Government", "Self-Employed", "Non-Profit", "Other"}
)

type column struct {
	name   string
	kind   Kind
	values []string
	enum   bool
}

func num(name string) column { return column{name: name, kind: KindNumeric} }

func cat(name string, values []string) column {
	return column{name: name, kind: KindCategorical, values: values}
}

func enum(name string, values []string) column {
	return column{name: name, kind: KindCategorical, values: values, enum: true}
}

var columns = []column{
	num(CreditScore),
	num(AnnualIncome),
	num(LoanAmount),
	num(LoanDuration),
	num(Age),
	enum(EmploymentStatusField, employmentStatusNames[:]),
	enum(MaritalStatusField, maritalStatusNames[:]),
	num(NumberOfDependents),
	enum(EducationLevelField, educationLevelNames[:]),
	cat(HomeOwnershipStatus, homeOwnershipValues),
	num(MonthlyDebtPayments),
	num(CreditCardUtilizationRate),
	num(NumberOfOpenCreditLines),
	num(NumberOfCreditInquiries),
	num(DebtToIncomeRatio),
	num(BankruptcyHistory),
	cat(LoanPurpose, loanPurposeValues),
	num(PreviousLoanDefaults),
	num(InterestRate),
	num(PaymentHistory),
	num(SavingsAccountBalance),
	num(CheckingAccountBalance),
	num(InvestmentAccountBalance),
	num(RetirementAccountBalance),
	num(EmergencyFundBalance),
	num(TotalAssets),
	num(TotalLiabilities),
	num(NetWorth),
	num(LengthOfCreditHistory),
	num(MortgageBalance),
	num(RentPayments),
	num(AutoLoanBalance),
	num(PersonalLoanBalance),
	num(StudentLoanBalance),
	num(UtilityBillsPaymentHistory),
	cat(HealthInsuranceStatus, insuranceValues),
	cat(LifeInsuranceStatus, insuranceValues),
	cat(CarInsuranceStatus, insuranceValues),
	cat(HomeInsuranceStatus, insuranceValues),
	num(OtherInsurancePolicies),
	cat(EmployerType, employerTypeValues),
	num(JobTenure),
	num(MonthlySavings),
	num(AnnualBonuses),
	num(AnnualExpenses),
	num(MonthlyHousingCosts),
	num(MonthlyTransportationCosts),
	num(MonthlyFoodCosts),
	num(MonthlyHealthcareCosts),
	num(MonthlyEntertainmentCosts),
	{name: LoanApproved, kind: KindLabel},
}

var (
	fields  []Field
	byName  map[string]int
	numeric []int
	categ   []int
	label   int
)

func init() {
	fields = make([]Field, len(columns))
	byName = make(map[string]int, len(columns))
	for i, c := range columns {
		f := Field{Name: c.name, Kind: c.kind, Column: i, Values: c.values, Enumerated: c.enum}
		switch c.kind {
		case KindNumeric:
			f.Index = len(numeric)
			numeric = append(numeric, i)
		case KindCategorical:
			f.Index = len(categ)
			categ = append(categ, i)
		case KindLabel:
			label = i
		}
		fields[i] = f
		byName[strings.ToLower(c.name)] = i
	}
	if len(numeric) != NumNumeric || len(categ) != NumCategorical || len(fields) != NumColumns {
		panic("schema: field table does not match layout sizes")
	}
}

func clone(f Field) Field {
	f.Values = slices.Clone(f.Values)
	return f
}

// Fields returns every field in column order.
func Fields() []Field {
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = clone(f)
	}
	return out
}

// Lookup finds a field by name, ignoring case.
func Lookup(name string) (Field, bool) {
	i, ok := byName[normalize(name)]
	if !ok {
		return Field{}, false
	}
	return clone(fields[i]), true
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NumericFields returns the numeric fields in column order.
func NumericFields() []Field { return pick(numeric) }

// CategoricalFields returns the categorical fields in column order.
func CategoricalFields() []Field { return pick(categ) }

// EnumeratedFields returns the enum-backed categorical fields in column order.
func EnumeratedFields() []Field {
	var out []Field
	for _, i := range categ {
		if fields[i].Enumerated {
			out = append(out, clone(fields[i]))
		}
	}
	return out
}

// LabelField returns the label field.
func LabelField() Field { return clone(fields[label]) }

// Header returns the column names in order, as a dataset header row.
func Header() []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

func pick(idx []int) []Field {
	out := make([]Field, len(idx))
	for j, i := range idx {
		out[j] = clone(fields[i])
	}
	return out
}
