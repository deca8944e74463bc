package dataset

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/loanml/internal/fixtures"
	lerrors "github.com/YuminosukeSato/loanml/pkg/errors"
	"github.com/YuminosukeSato/loanml/schema"
)

func encode(t *testing.T, records []schema.LoanRecord, delim rune) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, New(records), delim))
	return buf.String()
}

func TestReadRoundTrip(t *testing.T) {
	records := fixtures.Separable(20, 1)
	for _, delim := range []rune{',', ';', '\t'} {
		ds, err := Read(strings.NewReader(encode(t, records, delim)), Options{Delimiter: delim, HasHeader: true})
		require.NoError(t, err)
		require.Equal(t, 20, ds.Len())
		assert.Equal(t, records, ds.Records())
		assert.Equal(t, 10, ds.Positives())
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loans.csv")
	require.NoError(t, os.WriteFile(path, []byte(encode(t, fixtures.Separable(12, 2), ',')), 0o600))

	ds, err := Load(path, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 12, ds.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.csv"), DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.NotEqual(t, lerrors.CodeDataFormat, lerrors.Code(err))
	assert.Contains(t, err.Error(), "missing.csv")
}

func TestReadRejectsMalformedInput(t *testing.T) {
	valid := encode(t, fixtures.Separable(3, 3), ',')
	lines := strings.Split(strings.TrimSpace(valid), "\n")
	header, row := lines[0], lines[1]
	cells := strings.Split(row, ",")

	replace := func(col int, v string) string {
		c := append([]string(nil), cells...)
		c[col] = v
		return strings.Join(c, ",")
	}

	tests := []struct {
		name   string
		input  string
		opts   Options
		column string
	}{
		{"header not declared", valid, Options{Delimiter: ',', HasHeader: false}, ""},
		{"empty input", "", DefaultOptions(), ""},
		{"header too short", "CreditScore,AnnualIncome\n", DefaultOptions(), ""},
		{"header renamed", strings.Replace(header, "AnnualIncome", "Income", 1) + "\n" + row + "\n", DefaultOptions(), schema.AnnualIncome},
		{"no data rows", header + "\n", DefaultOptions(), ""},
		{"short row", header + "\n" + strings.Join(cells[:10], ",") + "\n", DefaultOptions(), ""},
		{"numeric not a number", header + "\n" + replace(0, "abc") + "\n", DefaultOptions(), schema.CreditScore},
		{"numeric not finite", header + "\n" + replace(1, "NaN") + "\n", DefaultOptions(), schema.AnnualIncome},
		{"categorical outside set", header + "\n" + replace(5, "Astronaut") + "\n", DefaultOptions(), schema.EmploymentStatusField},
		{"enum case mismatch", header + "\n" + replace(6, "married") + "\n", DefaultOptions(), schema.MaritalStatusField},
		{"bad label", header + "\n" + replace(50, "maybe") + "\n", DefaultOptions(), schema.LoanApproved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input), tt.opts)
			require.Error(t, err)
			assert.Equal(t, lerrors.CodeDataFormat, lerrors.Code(err))
			var dfe *lerrors.DataFormatError
			require.True(t, lerrors.As(err, &dfe))
			assert.Equal(t, tt.column, dfe.Column)
		})
	}
}

func TestReadReportsLineNumber(t *testing.T) {
	valid := encode(t, fixtures.Separable(3, 4), ',')
	lines := strings.Split(strings.TrimSpace(valid), "\n")
	cells := strings.Split(lines[2], ",")
	cells[3] = "soon"
	lines[2] = strings.Join(cells, ",")

	_, err := Read(strings.NewReader(strings.Join(lines, "\n")), DefaultOptions())
	var dfe *lerrors.DataFormatError
	require.True(t, lerrors.As(err, &dfe))
	assert.Equal(t, 3, dfe.Line)
	assert.Equal(t, schema.LoanDuration, dfe.Column)
}

func TestLabelLiterals(t *testing.T) {
	for raw, want := range map[string]bool{"0": false, "1": true, "true": true, "FALSE": false, "1.0": true} {
		got, err := parseLabel(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
	_, err := parseLabel("2")
	assert.Error(t, err)
}

func TestSplit(t *testing.T) {
	ds := New(fixtures.Separable(100, 5))

	train, test, err := Split(ds, 0.2, 42)
	require.NoError(t, err)
	assert.Equal(t, 80, train.Len())
	assert.Equal(t, 20, test.Len())

	t.Run("deterministic for a seed", func(t *testing.T) {
		train2, test2, err := Split(ds, 0.2, 42)
		require.NoError(t, err)
		assert.Equal(t, train.Records(), train2.Records())
		assert.Equal(t, test.Records(), test2.Records())
	})

	t.Run("different seed gives a different partition", func(t *testing.T) {
		_, test3, err := Split(ds, 0.2, 43)
		require.NoError(t, err)
		assert.NotEqual(t, test.Records(), test3.Records())
	})

	t.Run("disjoint and exhaustive", func(t *testing.T) {
		seen := map[float64]int{}
		for _, subset := range []*Dataset{train, test} {
			for _, rec := range subset.Records() {
				v, _ := rec.Numeric(schema.CreditScore)
				seen[v]++
			}
		}
		assert.Len(t, seen, 100)
		for _, c := range seen {
			assert.Equal(t, 1, c)
		}
	})

	t.Run("subsets keep dataset order", func(t *testing.T) {
		pos := map[float64]int{}
		for i, rec := range ds.Records() {
			v, _ := rec.Numeric(schema.CreditScore)
			pos[v] = i
		}
		last := -1
		for _, rec := range test.Records() {
			v, _ := rec.Numeric(schema.CreditScore)
			assert.Greater(t, pos[v], last)
			last = pos[v]
		}
	})
}

func TestSplitBounds(t *testing.T) {
	ds := New(fixtures.Separable(3, 6))

	train, test, err := Split(ds, 0.01, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, test.Len())
	assert.Equal(t, 2, train.Len())

	train, test, err = Split(ds, 0.99, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, test.Len())
	assert.Equal(t, 1, train.Len())

	for _, f := range []float64{0, 1, -0.5, 1.5} {
		_, _, err := Split(ds, f, 1)
		require.Error(t, err, f)
		assert.Equal(t, lerrors.CodeInvalidArgument, lerrors.Code(err))
	}

	_, _, err = Split(New(fixtures.Separable(1, 7)), 0.5, 1)
	assert.Error(t, err)
}

func TestRepository(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loans.csv")
	require.NoError(t, os.WriteFile(path, []byte(encode(t, fixtures.Separable(50, 8), ',')), 0o600))

	repo, err := Open(path, DefaultOptions(), 0.2, 7)
	require.NoError(t, err)
	assert.Equal(t, 50, repo.Full().Len())
	assert.Equal(t, 40, repo.Train().Len())
	assert.Equal(t, 10, repo.Test().Len())
	assert.Equal(t, 0.2, repo.TestFraction())
	assert.Equal(t, uint64(7), repo.Seed())
	assert.Same(t, repo.Train(), repo.Train())

	_, err = NewRepository(repo.Full(), 1.2, 7)
	assert.Error(t, err)
}
