package lightgbm

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Histogram accumulates gradient statistics for one bin.
type Histogram struct {
	Count   int
	SumGrad float64
	SumHess float64
}

// binnedData stores each feature column as bin indices. A value v falls into the first
// bin b with v <= upper[b]; the last upper bound is +Inf.
type binnedData struct {
	rows  int
	cols  int
	bins  [][]uint16
	upper [][]float64
}

func newBinnedData(X mat.Matrix, maxBin int) *binnedData {
	rows, cols := X.Dims()
	d := &binnedData{
		rows:  rows,
		cols:  cols,
		bins:  make([][]uint16, cols),
		upper: make([][]float64, cols),
	}
	column := make([]float64, rows)
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			column[i] = X.At(i, j)
		}
		d.upper[j] = findBinBoundaries(column, maxBin)
		bins := make([]uint16, rows)
		for i, v := range column {
			bins[i] = uint16(sort.SearchFloat64s(d.upper[j], v))
		}
		d.bins[j] = bins
	}
	return d
}

// numBins returns the bin count of feature j.
func (d *binnedData) numBins(j int) int {
	return len(d.upper[j])
}

// threshold returns the split value separating bins <= b from bins > b.
func (d *binnedData) threshold(j, b int) float64 {
	return d.upper[j][b]
}

// findBinBoundaries returns ascending bin upper bounds for values. Distinct values get
// their own bin when there are at most maxBin of them; otherwise bins are filled to
// roughly equal frequency without splitting a run of equal values. Bounds between
// bins are midpoints of the adjacent distinct values, so unseen values at prediction
// time route to the nearer side.
func findBinBoundaries(values []float64, maxBin int) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	distinct := make([]float64, 0, len(sorted))
	counts := make([]int, 0, len(sorted))
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			distinct = append(distinct, v)
			counts = append(counts, 0)
		}
		counts[len(counts)-1]++
	}

	var bounds []float64
	if len(distinct) <= maxBin {
		for k := 0; k+1 < len(distinct); k++ {
			bounds = append(bounds, (distinct[k]+distinct[k+1])/2)
		}
		return append(bounds, math.Inf(1))
	}

	perBin := float64(len(sorted)) / float64(maxBin)
	filled := 0
	for k := 0; k+1 < len(distinct) && len(bounds) < maxBin-1; k++ {
		filled += counts[k]
		if float64(filled) >= perBin*float64(len(bounds)+1) {
			bounds = append(bounds, (distinct[k]+distinct[k+1])/2)
		}
	}
	return append(bounds, math.Inf(1))
}
