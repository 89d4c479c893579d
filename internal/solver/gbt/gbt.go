// Package gbt trains gradient-boosted regression trees with a binary logistic
// objective, using second-order (gradient and hessian) split gains.
package gbt

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrNoSamples    = errors.New("gbt: no samples")
	ErrShape        = errors.New("gbt: samples and labels differ in shape")
	ErrInvalidLabel = errors.New("gbt: labels must be 0 or 1")
	ErrInvalidParam = errors.New("gbt: invalid parameter")
)

type Params struct {
	NumTrees     int
	MaxDepth     int
	LearningRate float64
	// Lambda is the L2 penalty on leaf weights.
	Lambda float64
	// MinChildWeight is the smallest hessian sum a child may hold.
	MinChildWeight float64
}

// DefaultParams mirrors the usual xgboost defaults.
func DefaultParams() Params {
	return Params{NumTrees: 100, MaxDepth: 3, LearningRate: 0.1, Lambda: 1, MinChildWeight: 1}
}

// Node is a split or a leaf of a regression tree.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      *Node   `json:"left,omitempty"`
	Right     *Node   `json:"right,omitempty"`
	Weight    float64 `json:"weight"`
	Leaf      bool    `json:"leaf"`
}

// Eval returns the leaf weight reached by x.
func (n *Node) Eval(x []float64) float64 {
	for !n.Leaf {
		if x[n.Feature] < n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Weight
}

// Depth is the number of edges on the longest root-to-leaf path.
func (n *Node) Depth() int {
	if n.Leaf {
		return 0
	}
	return 1 + max(n.Left.Depth(), n.Right.Depth())
}

// Leaves counts the leaves under n.
func (n *Node) Leaves() int {
	if n.Leaf {
		return 1
	}
	return n.Left.Leaves() + n.Right.Leaves()
}

// Model is an additive ensemble of trees on the logit scale.
type Model struct {
	Trees        []*Node
	LearningRate float64
	BaseMargin   float64
}

// Margin sums the first k trees of the ensemble; k < 0 uses all of them.
func (m *Model) Margin(x []float64, k int) float64 {
	if k < 0 || k > len(m.Trees) {
		k = len(m.Trees)
	}
	sum := m.BaseMargin
	for _, t := range m.Trees[:k] {
		sum += m.LearningRate * t.Eval(x)
	}
	return sum
}

// Predict returns the probability of class 1 using the first k trees.
func (m *Model) Predict(x []float64, k int) float64 {
	return sigmoid(m.Margin(x, k))
}

func sigmoid(v float64) float64 { return 1 / (1 + math.Exp(-v)) }

// Train fits p.NumTrees trees to samples x with labels y in {0, 1}. The base
// prediction is 0.5, so the base margin is 0.
func Train(ctx context.Context, x [][]float64, y []float64, p Params) (*Model, error) {
	if len(x) == 0 {
		return nil, ErrNoSamples
	}
	if len(y) != len(x) {
		return nil, fmt.Errorf("%w: %d samples, %d labels", ErrShape, len(x), len(y))
	}
	for i, label := range y {
		if label != 0 && label != 1 {
			return nil, fmt.Errorf("%w: label %v at %d", ErrInvalidLabel, label, i)
		}
	}
	if p.NumTrees < 1 || p.MaxDepth < 1 || p.LearningRate <= 0 {
		return nil, fmt.Errorf("%w: %+v", ErrInvalidParam, p)
	}

	m := &Model{LearningRate: p.LearningRate}
	margins := make([]float64, len(x))
	grad := make([]float64, len(x))
	hess := make([]float64, len(x))
	all := make([]int, len(x))
	for i := range all {
		all[i] = i
	}

	for range p.NumTrees {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i := range x {
			prob := sigmoid(margins[i])
			grad[i] = prob - y[i]
			hess[i] = prob * (1 - prob)
		}
		b := builder{x: x, grad: grad, hess: hess, p: p}
		tree := b.grow(all, 0)
		m.Trees = append(m.Trees, tree)
		for i := range x {
			margins[i] += p.LearningRate * tree.Eval(x[i])
		}
	}
	return m, nil
}

// Residuals returns label minus predicted probability for every sample,
// using the first k trees.
func (m *Model) Residuals(x [][]float64, y []float64, k int) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		out[i] = y[i] - m.Predict(x[i], k)
	}
	return out
}

type builder struct {
	x          [][]float64
	grad, hess []float64
	p          Params
}

func (b builder) sums(idx []int) (g, h float64) {
	for _, i := range idx {
		g += b.grad[i]
		h += b.hess[i]
	}
	return g, h
}

func (b builder) score(g, h float64) float64 { return g * g / (h + b.p.Lambda) }

func (b builder) grow(idx []int, depth int) *Node {
	g, h := b.sums(idx)
	leaf := &Node{Leaf: true, Weight: -g / (h + b.p.Lambda)}
	if depth >= b.p.MaxDepth || len(idx) < 2 {
		return leaf
	}

	bestGain, bestFeature, bestThreshold := 0.0, -1, 0.0
	parent := b.score(g, h)
	for f := range len(b.x[idx[0]]) {
		sorted := slices.Clone(idx)
		slices.SortStableFunc(sorted, func(i, j int) int { return cmp.Compare(b.x[i][f], b.x[j][f]) })

		var gl, hl float64
		for k := 0; k < len(sorted)-1; k++ {
			gl += b.grad[sorted[k]]
			hl += b.hess[sorted[k]]
			lo, hi := b.x[sorted[k]][f], b.x[sorted[k+1]][f]
			if lo == hi {
				continue
			}
			gr, hr := g-gl, h-hl
			if hl < b.p.MinChildWeight || hr < b.p.MinChildWeight {
				continue
			}
			gain := (b.score(gl, hl) + b.score(gr, hr) - parent) / 2
			if gain > bestGain {
				bestGain, bestFeature, bestThreshold = gain, f, (lo+hi)/2
			}
		}
	}
	if bestFeature < 0 {
		return leaf
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][bestFeature] < bestThreshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &Node{
		Feature:   bestFeature,
		Threshold: bestThreshold,
		Left:      b.grow(left, depth+1),
		Right:     b.grow(right, depth+1),
		Weight:    leaf.Weight,
	}
}

// Accuracy is the share of samples whose rounded prediction matches the label.
func (m *Model) Accuracy(x [][]float64, y []float64) float64 {
	hits := make([]float64, len(x))
	for i := range x {
		if math.Round(m.Predict(x[i], -1)) == y[i] {
			hits[i] = 1
		}
	}
	return floats.Sum(hits) / float64(len(x))
}
