package lightgbm

import (
	"context"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/loanml/core/parallel"
	"github.com/YuminosukeSato/loanml/pkg/errors"
	"github.com/YuminosukeSato/loanml/pkg/log"
)

// parallelFeatureThreshold is the feature count above which split search fans out.
const parallelFeatureThreshold = 8

// SplitInfo describes the best split found for one leaf.
type SplitInfo struct {
	Feature   int
	Bin       int
	Threshold float64
	Gain      float64
	LeftCount int
	LeftGrad  float64
	LeftHess  float64
	valid     bool
}

// leaf is a growing leaf of the current tree.
type leaf struct {
	node    int
	indices []int
	sumGrad float64
	sumHess float64
	depth   int
	best    SplitInfo
}

// Trainer implements leaf-wise gradient boosting for the binary objective.
type Trainer struct {
	params    TrainingParams
	callbacks []Callback
	logger    log.Logger
}

// NewTrainer creates a trainer. Zero-valued parameters take their defaults.
func NewTrainer(params TrainingParams) *Trainer {
	return &Trainer{params: params.withDefaults()}
}

// WithCallbacks registers callbacks run after every iteration.
func (t *Trainer) WithCallbacks(callbacks ...Callback) *Trainer {
	t.callbacks = append(t.callbacks, callbacks...)
	return t
}

// WithLogger overrides the component logger.
func (t *Trainer) WithLogger(logger log.Logger) *Trainer {
	t.logger = logger
	return t
}

// Params returns the effective training parameters.
func (t *Trainer) Params() TrainingParams {
	return t.params
}

// Fit trains a model on the rows of X with 0/1 labels in y. The context is checked
// before every boosting iteration; a cancelled fit returns no model.
func (t *Trainer) Fit(ctx context.Context, X mat.Matrix, y []float64) (*Model, error) {
	if err := t.params.Validate(); err != nil {
		return nil, err
	}
	if t.logger == nil {
		t.logger = log.GetLoggerWithName("lightgbm.trainer")
	}

	rows, cols := X.Dims()
	if err := validateTrainingData(X, y, rows, cols); err != nil {
		return nil, err
	}

	objective, err := CreateObjectiveFunction(t.params.Objective, &t.params)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	data := newBinnedData(X, t.params.MaxBin)
	initScore := objective.GetInitScore(y)

	m := &Model{
		Objective:    ObjectiveType(objective.Name()),
		LearningRate: t.params.LearningRate,
		NumLeaves:    t.params.NumLeaves,
		MaxDepth:     t.params.MaxDepth,
		NumFeature:   cols,
		InitScore:    initScore,
		Sigmoid:      t.params.Sigmoid,
		Params:       t.params,
	}

	callbacks := t.callbacks
	if t.params.Verbosity > 0 {
		callbacks = append(callbacks, LogEvaluation(t.logger, 1))
	}
	cbList := NewCallbackList(callbacks...)

	scores := make([]float64, rows)
	for i := range scores {
		scores[i] = initScore
	}
	grad := make([]float64, rows)
	hess := make([]float64, rows)
	all := make([]int, rows)
	for i := range all {
		all[i] = i
	}

	bestLoss := math.Inf(1)
	for iter := 0; iter < t.params.NumIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewTrainingFailureError(fmt.Sprintf("cancelled at iteration %d", iter), err)
		}
		cbList.BeforeIteration(iter, m)

		for i := range scores {
			grad[i] = objective.CalculateGradient(scores[i], y[i])
			hess[i] = objective.CalculateHessian(scores[i], y[i])
		}

		tree, leaves := t.growTree(data, grad, hess, all)
		if tree.NumLeaves < 2 {
			t.logger.Debug("No further split improves the loss", log.IterationKey, iter)
			break
		}
		tree.TreeIndex = len(m.Trees)
		m.Trees = append(m.Trees, tree)

		for _, l := range leaves {
			delta := t.params.LearningRate * tree.Nodes[l.node].LeafValue
			for _, i := range l.indices {
				scores[i] += delta
			}
		}

		loss := 0.0
		for i := range scores {
			loss += objective.CalculateLoss(scores[i], y[i])
		}
		loss /= float64(rows)
		if err := errors.CheckFinite("lightgbm.Fit", []float64{loss}, iter); err != nil {
			return nil, errors.NewTrainingFailureError("training loss diverged", err)
		}
		if loss < bestLoss {
			bestLoss = loss
			m.BestIteration = iter
		}

		if err := cbList.AfterIteration(iter, m, map[string]float64{MetricTrainingLogloss: loss}); err != nil {
			return nil, errors.NewTrainingFailureError(fmt.Sprintf("callback failed at iteration %d", iter), err)
		}
		if cbList.ShouldStop() {
			break
		}
	}
	m.NumIteration = len(m.Trees)

	t.logger.Info("GBDT training completed",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.TreesKey, len(m.Trees),
		log.LossKey, bestLoss,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return m, nil
}

func validateTrainingData(X mat.Matrix, y []float64, rows, cols int) error {
	if rows == 0 || cols == 0 {
		return errors.NewTrainingFailureError("no training data", errors.ErrEmptyData)
	}
	if len(y) != rows {
		return errors.NewDimensionError("lightgbm.Fit", rows, len(y))
	}

	positives := 0
	for i, label := range y {
		switch label {
		case 1:
			positives++
		case 0:
		default:
			return errors.NewInvalidArgumentError(fmt.Sprintf("y[%d]", i), "label must be 0 or 1", label)
		}
	}
	if positives == 0 || positives == rows {
		return errors.NewTrainingFailureError(
			fmt.Sprintf("training labels contain a single class (%d of %d positive)", positives, rows), nil)
	}

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := X.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.NewInvalidArgumentError(fmt.Sprintf("X[%d][%d]", i, j), "feature must be finite", v)
			}
		}
	}
	return nil
}

// growTree grows one tree leaf-wise: the leaf with the largest gain is split until
// NumLeaves is reached or no leaf has a valid split. Ties go to the earliest leaf.
func (t *Trainer) growTree(data *binnedData, grad, hess []float64, indices []int) (Tree, []*leaf) {
	sumGrad, sumHess := 0.0, 0.0
	for _, i := range indices {
		sumGrad += grad[i]
		sumHess += hess[i]
	}

	tree := Tree{
		NumLeaves:     1,
		ShrinkageRate: t.params.LearningRate,
		Nodes: []Node{{
			NodeID:     0,
			ParentID:   -1,
			LeftChild:  -1,
			RightChild: -1,
			LeafValue:  t.leafValue(sumGrad, sumHess),
			LeafCount:  len(indices),
		}},
	}

	root := &leaf{node: 0, indices: indices, sumGrad: sumGrad, sumHess: sumHess}
	root.best = t.findBestSplit(data, root, grad, hess)
	leaves := []*leaf{root}

	for len(leaves) < t.params.NumLeaves {
		k := -1
		for i, l := range leaves {
			if l.best.valid && (k < 0 || l.best.Gain > leaves[k].best.Gain) {
				k = i
			}
		}
		if k < 0 {
			break
		}

		left, right := t.splitLeaf(&tree, data, leaves[k])
		left.best = t.findBestSplit(data, left, grad, hess)
		right.best = t.findBestSplit(data, right, grad, hess)

		leaves = append(leaves, nil)
		copy(leaves[k+2:], leaves[k+1:])
		leaves[k] = left
		leaves[k+1] = right

		if left.depth > tree.MaxDepth {
			tree.MaxDepth = left.depth
		}
	}
	tree.NumLeaves = len(leaves)
	return tree, leaves
}

// splitLeaf turns l's node into an internal node and returns its two children.
func (t *Trainer) splitLeaf(tree *Tree, data *binnedData, l *leaf) (*leaf, *leaf) {
	split := l.best
	bins := data.bins[split.Feature]

	leftIdx := make([]int, 0, split.LeftCount)
	rightIdx := make([]int, 0, len(l.indices)-split.LeftCount)
	for _, i := range l.indices {
		if int(bins[i]) <= split.Bin {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}

	rightGrad := l.sumGrad - split.LeftGrad
	rightHess := l.sumHess - split.LeftHess

	leftID := len(tree.Nodes)
	rightID := leftID + 1
	tree.Nodes = append(tree.Nodes,
		Node{
			NodeID: leftID, ParentID: l.node, LeftChild: -1, RightChild: -1,
			LeafValue: t.leafValue(split.LeftGrad, split.LeftHess), LeafCount: len(leftIdx),
		},
		Node{
			NodeID: rightID, ParentID: l.node, LeftChild: -1, RightChild: -1,
			LeafValue: t.leafValue(rightGrad, rightHess), LeafCount: len(rightIdx),
		},
	)

	parent := &tree.Nodes[l.node]
	parent.LeftChild = leftID
	parent.RightChild = rightID
	parent.SplitFeature = split.Feature
	parent.Threshold = split.Threshold
	parent.DefaultLeft = true
	parent.Gain = split.Gain
	parent.LeafValue = 0

	left := &leaf{node: leftID, indices: leftIdx, sumGrad: split.LeftGrad, sumHess: split.LeftHess, depth: l.depth + 1}
	right := &leaf{node: rightID, indices: rightIdx, sumGrad: rightGrad, sumHess: rightHess, depth: l.depth + 1}
	return left, right
}

// findBestSplit scans every feature histogram of l in parallel. The per-feature
// results are reduced in feature order so the chosen split does not depend on
// scheduling.
func (t *Trainer) findBestSplit(data *binnedData, l *leaf, grad, hess []float64) SplitInfo {
	if t.params.MaxDepth > 0 && l.depth >= t.params.MaxDepth {
		return SplitInfo{}
	}
	if len(l.indices) < 2*t.params.MinDataInLeaf {
		return SplitInfo{}
	}

	candidates := parallel.Map(data.cols, parallelFeatureThreshold, func(j int) SplitInfo {
		return t.findBestSplitForFeature(data, j, l, grad, hess)
	})

	var best SplitInfo
	for _, c := range candidates {
		if c.valid && (!best.valid || c.Gain > best.Gain) {
			best = c
		}
	}
	return best
}

func (t *Trainer) findBestSplitForFeature(data *binnedData, j int, l *leaf, grad, hess []float64) SplitInfo {
	nBins := data.numBins(j)
	if nBins < 2 {
		return SplitInfo{}
	}

	hist := make([]Histogram, nBins)
	bins := data.bins[j]
	for _, i := range l.indices {
		h := &hist[bins[i]]
		h.Count++
		h.SumGrad += grad[i]
		h.SumHess += hess[i]
	}

	var best SplitInfo
	total := len(l.indices)
	leftCount, leftGrad, leftHess := 0, 0.0, 0.0
	for b := 0; b < nBins-1; b++ {
		leftCount += hist[b].Count
		leftGrad += hist[b].SumGrad
		leftHess += hist[b].SumHess
		if hist[b].Count == 0 {
			continue
		}

		rightCount := total - leftCount
		if leftCount < t.params.MinDataInLeaf {
			continue
		}
		if rightCount < t.params.MinDataInLeaf {
			break
		}
		rightGrad := l.sumGrad - leftGrad
		rightHess := l.sumHess - leftHess
		if leftHess < t.params.MinSumHessianInLeaf || rightHess < t.params.MinSumHessianInLeaf {
			continue
		}

		gain := t.calculateGain(leftGrad, leftHess, rightGrad, rightHess, l.sumGrad, l.sumHess)
		if gain > t.params.MinGainToSplit && (!best.valid || gain > best.Gain) {
			best = SplitInfo{
				Feature:   j,
				Bin:       b,
				Threshold: data.threshold(j, b),
				Gain:      gain,
				LeftCount: leftCount,
				LeftGrad:  leftGrad,
				LeftHess:  leftHess,
				valid:     true,
			}
		}
	}
	return best
}

// calculateGain returns the loss reduction of splitting a leaf into left and right.
func (t *Trainer) calculateGain(leftGrad, leftHess, rightGrad, rightHess, totalGrad, totalHess float64) float64 {
	lambda := t.params.Lambda
	leftScore := leftGrad * leftGrad / (leftHess + lambda)
	rightScore := rightGrad * rightGrad / (rightHess + lambda)
	parentScore := totalGrad * totalGrad / (totalHess + lambda)
	return 0.5 * (leftScore + rightScore - parentScore)
}

// leafValue is the Newton step -G/(H+lambda).
func (t *Trainer) leafValue(sumGrad, sumHess float64) float64 {
	denom := sumHess + t.params.Lambda
	if denom <= 0 {
		return 0
	}
	return -sumGrad / denom
}
