package dataset

// Repository owns the full dataset and its train/test partition for the lifetime of
// the process. All accessors return the same immutable Datasets.
type Repository struct {
	full  *Dataset
	train *Dataset
	test  *Dataset

	testFraction float64
	seed         uint64
}

// NewRepository splits ds once with the given fraction and seed.
func NewRepository(ds *Dataset, testFraction float64, seed uint64) (*Repository, error) {
	train, test, err := Split(ds, testFraction, seed)
	if err != nil {
		return nil, err
	}
	return &Repository{
		full:         ds,
		train:        train,
		test:         test,
		testFraction: testFraction,
		seed:         seed,
	}, nil
}

// Open loads path and splits it.
func Open(path string, opts Options, testFraction float64, seed uint64) (*Repository, error) {
	ds, err := Load(path, opts)
	if err != nil {
		return nil, err
	}
	return NewRepository(ds, testFraction, seed)
}

// Full returns the whole dataset.
func (r *Repository) Full() *Dataset { return r.full }

// Train returns the training subset.
func (r *Repository) Train() *Dataset { return r.train }

// Test returns the held-out subset.
func (r *Repository) Test() *Dataset { return r.test }

// TestFraction returns the fraction used for the split.
func (r *Repository) TestFraction() float64 { return r.testFraction }

// Seed returns the seed used for the split.
func (r *Repository) Seed() uint64 { return r.seed }
