package dataset

import (
	"bufio"
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	lerrors "github.com/YuminosukeSato/loanml/pkg/errors"
	"github.com/YuminosukeSato/loanml/pkg/log"
	"github.com/YuminosukeSato/loanml/schema"
)

// Options controls how a delimited file is parsed.
type Options struct {
	Delimiter rune
	HasHeader bool
}

// DefaultOptions returns comma-separated input with a header row.
func DefaultOptions() Options {
	return Options{Delimiter: ',', HasHeader: true}
}

// Load reads a dataset file. Any malformed header or row aborts the load with a
// DataFormatError naming the line and column; I/O failures are returned wrapped.
func Load(path string, opts Options) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, lerrors.Wrapf(err, "open dataset %s", path)
	}
	defer file.Close()

	ds, err := Read(bufio.NewReader(file), opts)
	if err != nil {
		return nil, err
	}
	log.GetLoggerWithName("dataset").Info("Dataset loaded",
		log.OperationKey, log.OperationLoad,
		log.PathKey, path,
		log.SamplesKey, ds.Len(),
		log.PositivesKey, ds.Positives(),
	)
	return ds, nil
}

// Read parses a dataset from r.
func Read(r io.Reader, opts Options) (*Dataset, error) {
	if !opts.HasHeader {
		return nil, lerrors.NewDataFormatError(0, "", "a header row is required")
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}

	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, lerrors.NewDataFormatError(1, "", "empty input, header row missing")
	}
	if err != nil {
		return nil, csvError(err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	fields := schema.Fields()
	var records []schema.LoanRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}
		line, _ := reader.FieldPos(0)
		if isBlank(row) {
			continue
		}
		rec, err := parseRow(fields, row, line)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, lerrors.NewDataFormatError(0, "", "dataset has no data rows")
	}
	return &Dataset{records: records}, nil
}

func checkHeader(header []string) error {
	want := schema.Header()
	if len(header) != len(want) {
		return lerrors.NewDataFormatError(1, "", "header has "+strconv.Itoa(len(header))+" columns, expected "+strconv.Itoa(len(want)))
	}
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if !strings.EqualFold(name, want[i]) {
			return lerrors.NewDataFormatError(1, want[i], "unexpected header name "+strconv.Quote(name))
		}
	}
	return nil
}

func parseRow(fields []schema.Field, row []string, line int) (schema.LoanRecord, error) {
	rec := schema.NewRecord()
	if len(row) != len(fields) {
		return rec, lerrors.NewDataFormatError(line, "", "row has "+strconv.Itoa(len(row))+" columns, expected "+strconv.Itoa(len(fields)))
	}
	for _, f := range fields {
		raw := strings.TrimSpace(row[f.Column])
		switch f.Kind {
		case schema.KindNumeric:
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return rec, lerrors.NewDataFormatError(line, f.Name, "not a number: "+strconv.Quote(raw))
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return rec, lerrors.NewDataFormatError(line, f.Name, "not a finite number: "+strconv.Quote(raw))
			}
			if err := rec.SetNumeric(f.Name, v); err != nil {
				return rec, lerrors.NewDataFormatError(line, f.Name, err.Error())
			}
		case schema.KindCategorical:
			if err := rec.SetCategorical(f.Name, raw); err != nil {
				return rec, lerrors.NewDataFormatError(line, f.Name, "value "+strconv.Quote(raw)+" outside the declared set")
			}
		case schema.KindLabel:
			approved, err := parseLabel(raw)
			if err != nil {
				return rec, lerrors.NewDataFormatError(line, f.Name, err.Error())
			}
			rec.SetLabel(approved)
		}
	}
	return rec, nil
}

// parseLabel accepts 0/1 (including "0.0"/"1.0") and boolean literals.
func parseLabel(raw string) (bool, error) {
	if b, err := strconv.ParseBool(raw); err == nil {
		return b, nil
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		switch v {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
	}
	return false, lerrors.Newf("label must be 0, 1, true or false, got %q", raw)
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func csvError(err error) error {
	var pe *csv.ParseError
	if lerrors.As(err, &pe) {
		return lerrors.NewDataFormatError(pe.Line, "", pe.Err.Error())
	}
	return lerrors.NewDataFormatError(0, "", err.Error())
}
