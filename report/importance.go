// Package report renders charts of a trained model.
package report

import (
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/loanml/lifecycle"
	"github.com/YuminosukeSato/loanml/pkg/errors"
)

// Chart size per bar and minimum height.
const (
	chartWidth   = 6 * vg.Inch
	barHeight    = 0.3 * vg.Inch
	minHeight    = 2 * vg.Inch
	defaultTitle = "Feature importance"
)

// ImportancePlot builds a horizontal bar chart with the most important feature on
// top. importance is expected highest first, as lifecycle returns it.
func ImportancePlot(importance []lifecycle.FeatureImportance, title string) (*plot.Plot, error) {
	if len(importance) == 0 {
		return nil, errors.NewInvalidArgumentError("importance", "nothing to plot", 0)
	}
	if title == "" {
		title = defaultTitle
	}

	n := len(importance)
	values := make(plotter.Values, n)
	names := make([]string, n)
	for i, fi := range importance {
		// Bars are drawn bottom-up, so the first entry goes last.
		values[n-1-i] = fi.Importance
		names[n-1-i] = fi.Feature
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "share of total"
	p.X.Min = 0

	bars, err := plotter.NewBarChart(values, barHeight*0.8)
	if err != nil {
		return nil, errors.Wrap(err, "build bar chart")
	}
	bars.Horizontal = true
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalY(names...)
	return p, nil
}

func chartHeight(bars int) vg.Length {
	h := vg.Length(bars)*barHeight + vg.Inch
	if h < minHeight {
		return minHeight
	}
	return h
}

// WriteImportance renders the chart to w in format ("png", "svg", "pdf", ...).
func WriteImportance(w io.Writer, importance []lifecycle.FeatureImportance, title, format string) error {
	p, err := ImportancePlot(importance, title)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(chartWidth, chartHeight(len(importance)), format)
	if err != nil {
		return errors.NewInvalidArgumentError("format", err.Error(), format)
	}
	_, err = wt.WriteTo(w)
	return errors.Wrap(err, "write importance chart")
}

// SaveImportance writes the chart to path; the extension selects the format.
func SaveImportance(path string, importance []lifecycle.FeatureImportance, title string) error {
	p, err := ImportancePlot(importance, title)
	if err != nil {
		return err
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return errors.NewInvalidArgumentError("path", "file extension selects the image format", path)
	}
	if err := p.Save(chartWidth, chartHeight(len(importance)), path); err != nil {
		return errors.Wrapf(err, "save importance chart to %s", path)
	}
	return nil
}
