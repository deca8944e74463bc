// Package dataset loads labeled loan records from delimited text and splits them into
// training and test subsets.
package dataset

import (
	"github.com/YuminosukeSato/loanml/schema"
)

// Dataset is an ordered, immutable collection of labeled records.
type Dataset struct {
	records []schema.LoanRecord
}

// New wraps a copy of records.
func New(records []schema.LoanRecord) *Dataset {
	cp := make([]schema.LoanRecord, len(records))
	copy(cp, records)
	return &Dataset{records: cp}
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// At returns a copy of the i-th record.
func (d *Dataset) At(i int) schema.LoanRecord {
	return d.records[i]
}

// Records returns a copy of all records in order.
func (d *Dataset) Records() []schema.LoanRecord {
	out := make([]schema.LoanRecord, len(d.records))
	copy(out, d.records)
	return out
}

// Labels returns the label of each record as 0 or 1.
func (d *Dataset) Labels() []float64 {
	out := make([]float64, len(d.records))
	for i := range d.records {
		if d.records[i].Label() {
			out[i] = 1
		}
	}
	return out
}

// Positives returns the number of approved records.
func (d *Dataset) Positives() int {
	n := 0
	for i := range d.records {
		if d.records[i].Label() {
			n++
		}
	}
	return n
}

// subset returns the records at idx, in the order given.
func (d *Dataset) subset(idx []int) *Dataset {
	out := make([]schema.LoanRecord, len(idx))
	for j, i := range idx {
		out[j] = d.records[i]
	}
	return &Dataset{records: out}
}
