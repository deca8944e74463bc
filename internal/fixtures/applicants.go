// Package fixtures generates synthetic loan applicants for tests and local runs.
package fixtures

import (
	"math/rand/v2"

	"github.com/YuminosukeSato/loanml/schema"
)

// ApprovalThreshold is the credit score at and above which Separable approves.
const ApprovalThreshold = 650

// Separable returns n applicants whose approval is decided by credit score alone:
// approved iff CreditScore >= ApprovalThreshold. Scores keep a margin of 20 points
// around the threshold. Other fields carry seeded noise and every categorical value
// is drawn from its full closed set.
func Separable(n int, seed uint64) []schema.LoanRecord {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]schema.LoanRecord, n)
	for i := range out {
		rec := schema.NewRecord()
		for _, f := range schema.NumericFields() {
			mustSet(rec.SetNumeric(f.Name, r.Float64()*1000))
		}
		for _, f := range schema.CategoricalFields() {
			mustSet(rec.SetCategorical(f.Name, f.Values[r.IntN(len(f.Values))]))
		}
		approved := i%2 == 0
		score := ApprovalThreshold - 20 - r.Float64()*300
		if approved {
			score = ApprovalThreshold + 20 + r.Float64()*130
		}
		mustSet(rec.SetNumeric(schema.CreditScore, score))
		rec.SetLabel(approved)
		out[i] = rec
	}
	return out
}

// Applicant returns one unlabeled record with the given credit score and seeded noise
// in every other field.
func Applicant(creditScore float64, seed uint64) schema.LoanRecord {
	rec := Separable(1, seed)[0]
	mustSet(rec.SetNumeric(schema.CreditScore, creditScore))
	rec.SetLabel(false)
	return rec
}

func mustSet(err error) {
	if err != nil {
		panic(err)
	}
}
