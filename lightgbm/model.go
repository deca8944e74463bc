package lightgbm

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/loanml/core/model"
	"github.com/YuminosukeSato/loanml/pkg/errors"
)

// Node is one node of a decision tree. Internal nodes send x[SplitFeature] <=
// Threshold to LeftChild; leaves carry LeafValue.
type Node struct {
	NodeID     int
	ParentID   int // -1 for the root
	LeftChild  int // -1 for leaves
	RightChild int // -1 for leaves

	SplitFeature int
	Threshold    float64
	DefaultLeft  bool // direction for NaN inputs
	Gain         float64

	LeafValue float64
	LeafCount int
}

// IsLeaf reports whether n is a terminal node.
func (n *Node) IsLeaf() bool {
	return n.LeftChild == -1 && n.RightChild == -1
}

// Tree is one boosting round. Its output is LeafValue scaled by ShrinkageRate.
type Tree struct {
	TreeIndex     int
	NumLeaves     int
	MaxDepth      int
	ShrinkageRate float64
	Nodes         []Node
}

// Predict returns the shrunk leaf value x falls into.
func (t *Tree) Predict(features []float64) float64 {
	return t.Nodes[t.leafIndex(features)].LeafValue * t.ShrinkageRate
}

func (t *Tree) leafIndex(features []float64) int {
	nodeID := 0
	for {
		node := &t.Nodes[nodeID]
		if node.IsLeaf() {
			return nodeID
		}
		v := features[node.SplitFeature]
		switch {
		case math.IsNaN(v):
			if node.DefaultLeft {
				nodeID = node.LeftChild
			} else {
				nodeID = node.RightChild
			}
		case v <= node.Threshold:
			nodeID = node.LeftChild
		default:
			nodeID = node.RightChild
		}
	}
}

// Importance types accepted by Model.FeatureImportance.
const (
	ImportanceSplit = "split"
	ImportanceGain  = "gain"
)

// Model is a trained binary GBDT ensemble. It is immutable once returned by Fit.
type Model struct {
	Objective     ObjectiveType
	NumIteration  int
	LearningRate  float64
	NumLeaves     int
	MaxDepth      int
	Trees         []Tree
	NumFeature    int
	InitScore     float64
	Sigmoid       float64
	BestIteration int
	Params        TrainingParams
}

var (
	_ model.BinaryClassifier   = (*Model)(nil)
	_ model.ImportanceReporter = (*Model)(nil)
)

// NumFeatures returns the feature-vector width the model was trained on.
func (m *Model) NumFeatures() int {
	return m.NumFeature
}

// PredictRaw returns the raw score (log-odds scaled by 1/Sigmoid) for x.
func (m *Model) PredictRaw(x []float64) float64 {
	score := m.InitScore
	for i := range m.Trees {
		score += m.Trees[i].Predict(x)
	}
	return score
}

// PredictProba returns the probability that x belongs to the positive class.
func (m *Model) PredictProba(x []float64) float64 {
	return sigmoid(m.Sigmoid * m.PredictRaw(x))
}

// Predict returns the predicted class, true when the probability exceeds 0.5.
func (m *Model) Predict(x []float64) bool {
	return m.PredictRaw(x) > 0
}

// PredictProbaBatch scores every row of X.
func (m *Model) PredictProbaBatch(X mat.Matrix) (*mat.VecDense, error) {
	rows, cols := X.Dims()
	if cols != m.NumFeature {
		return nil, errors.NewDimensionError("Model.PredictProbaBatch", m.NumFeature, cols)
	}
	out := mat.NewVecDense(rows, nil)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, X)
		out.SetVec(i, m.PredictProba(row))
	}
	return out, nil
}

// FeatureImportance returns per-feature importance normalized to sum to 1: the share
// of splits using each feature for ImportanceSplit, or the share of total split gain
// for ImportanceGain. Any other kind is treated as ImportanceSplit.
func (m *Model) FeatureImportance(kind string) []float64 {
	importance := make([]float64, m.NumFeature)
	for _, tree := range m.Trees {
		for _, node := range tree.Nodes {
			if node.IsLeaf() {
				continue
			}
			if kind == ImportanceGain {
				importance[node.SplitFeature] += node.Gain
			} else {
				importance[node.SplitFeature]++
			}
		}
	}

	total := 0.0
	for _, v := range importance {
		total += v
	}
	if total > 0 {
		for i := range importance {
			importance[i] /= total
		}
	}
	return importance
}
