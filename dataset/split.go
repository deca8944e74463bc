package dataset

import (
	"math"
	"math/rand/v2"
	"sort"

	lerrors "github.com/YuminosukeSato/loanml/pkg/errors"
	"github.com/YuminosukeSato/loanml/pkg/log"
)

// Split partitions ds into disjoint training and test subsets whose union is ds. The
// test subset holds round(testFraction*n) records, clamped to [1, n-1] when n >= 2.
// The same seed always produces the same partition, and both subsets keep the order
// of ds.
func Split(ds *Dataset, testFraction float64, seed uint64) (train, test *Dataset, err error) {
	if math.IsNaN(testFraction) || testFraction <= 0 || testFraction >= 1 {
		return nil, nil, lerrors.NewInvalidArgumentError("testFraction", "must be strictly between 0 and 1", testFraction)
	}
	n := ds.Len()
	if n < 2 {
		return nil, nil, lerrors.NewInvalidArgumentError("dataset", "at least two records are required to split", n)
	}

	nTest := int(math.Round(testFraction * float64(n)))
	if nTest < 1 {
		nTest = 1
	}
	if nTest > n-1 {
		nTest = n - 1
	}

	r := rand.New(rand.NewPCG(seed, seed))
	perm := r.Perm(n)
	testIdx := append([]int(nil), perm[:nTest]...)
	trainIdx := append([]int(nil), perm[nTest:]...)
	sort.Ints(testIdx)
	sort.Ints(trainIdx)

	train, test = ds.subset(trainIdx), ds.subset(testIdx)
	log.GetLoggerWithName("dataset").Debug("Dataset split",
		log.OperationKey, log.OperationSplit,
		log.RandomSeedKey, seed,
		"train", train.Len(),
		"test", test.Len(),
	)
	return train, test, nil
}
