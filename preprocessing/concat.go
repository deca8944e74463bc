package preprocessing

import (
	"github.com/YuminosukeSato/loanml/pkg/errors"
	"github.com/YuminosukeSato/loanml/schema"
)

// Concatenator assembles a record into one feature vector: the selected numeric
// fields in schema order, then the one-hot block of each selected categorical field
// in schema order.
type Concatenator struct {
	numeric     []schema.Field
	categorical []schema.Field
	encoders    []*OneHotEncoder
	width       int
}

// NewConcatenator builds a Concatenator. numeric and categorical must already be in
// schema order, and encoders[i] must be fitted for categorical[i].
func NewConcatenator(numeric, categorical []schema.Field, encoders []*OneHotEncoder) (*Concatenator, error) {
	if len(encoders) != len(categorical) {
		return nil, errors.NewDimensionError("NewConcatenator", len(categorical), len(encoders))
	}
	width := len(numeric)
	for i, enc := range encoders {
		if !enc.IsFitted() {
			return nil, errors.NewModelNotTrainedError("NewConcatenator: encoder " + categorical[i].Name)
		}
		width += enc.Width()
	}
	return &Concatenator{
		numeric:     append([]schema.Field(nil), numeric...),
		categorical: append([]schema.Field(nil), categorical...),
		encoders:    append([]*OneHotEncoder(nil), encoders...),
		width:       width,
	}, nil
}

// Width returns the length of every assembled vector.
func (c *Concatenator) Width() int {
	return c.width
}

// FeatureNames names each dimension: the field name for numerics and
// "Field=Value" for indicator dimensions.
func (c *Concatenator) FeatureNames() []string {
	names := make([]string, 0, c.width)
	for _, f := range c.numeric {
		names = append(names, f.Name)
	}
	for i, f := range c.categorical {
		for _, v := range c.encoders[i].Vocabulary() {
			names = append(names, f.Name+"="+v)
		}
	}
	return names
}

// AssembleInto writes the feature vector of rec into dst, which must be Width() long.
func (c *Concatenator) AssembleInto(rec *schema.LoanRecord, dst []float64) error {
	if len(dst) != c.width {
		return errors.NewDimensionError("Concatenator.Assemble", c.width, len(dst))
	}
	pos := 0
	for _, f := range c.numeric {
		dst[pos] = rec.NumericAt(f.Index)
		pos++
	}
	for i, f := range c.categorical {
		w := c.encoders[i].Width()
		if err := c.encoders[i].EncodeInto(rec.CategoricalAt(f.Index), dst[pos:pos+w]); err != nil {
			return err
		}
		pos += w
	}
	return nil
}

// Assemble returns the feature vector of rec.
func (c *Concatenator) Assemble(rec *schema.LoanRecord) ([]float64, error) {
	out := make([]float64, c.width)
	if err := c.AssembleInto(rec, out); err != nil {
		return nil, err
	}
	return out, nil
}

// UnseenCategories returns the "Field=Value" pairs of rec that fall outside the
// learned vocabularies and therefore encode to zero blocks.
func (c *Concatenator) UnseenCategories(rec *schema.LoanRecord) []string {
	var out []string
	for i, f := range c.categorical {
		if v := rec.CategoricalAt(f.Index); !c.encoders[i].Known(v) {
			out = append(out, f.Name+"="+v)
		}
	}
	return out
}
