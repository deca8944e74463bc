package dataset

import (
	"encoding/csv"
	"io"
	"strconv"

	lerrors "github.com/YuminosukeSato/loanml/pkg/errors"
	"github.com/YuminosukeSato/loanml/schema"
)

// Write encodes ds as delimited text with a header row, in the layout Read accepts.
// Labels are written as 0 or 1.
func Write(w io.Writer, ds *Dataset, delimiter rune) error {
	if delimiter == 0 {
		delimiter = ','
	}
	cw := csv.NewWriter(w)
	cw.Comma = delimiter
	if err := cw.Write(schema.Header()); err != nil {
		return lerrors.Wrap(err, "write header")
	}

	fields := schema.Fields()
	row := make([]string, len(fields))
	for i := 0; i < ds.Len(); i++ {
		rec := ds.At(i)
		for _, f := range fields {
			switch f.Kind {
			case schema.KindNumeric:
				row[f.Column] = strconv.FormatFloat(rec.NumericAt(f.Index), 'f', -1, 64)
			case schema.KindCategorical:
				row[f.Column] = rec.CategoricalAt(f.Index)
			case schema.KindLabel:
				row[f.Column] = "0"
				if rec.Label() {
					row[f.Column] = "1"
				}
			}
		}
		if err := cw.Write(row); err != nil {
			return lerrors.Wrapf(err, "write row %d", i)
		}
	}
	cw.Flush()
	return lerrors.Wrap(cw.Error(), "flush dataset")
}
