// Package smo trains a binary support vector machine with the simplified
// sequential minimal optimisation algorithm.
package smo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrNoSamples    = errors.New("smo: no samples")
	ErrShape        = errors.New("smo: samples and labels differ in shape")
	ErrInvalidLabel = errors.New("smo: labels must be -1 or 1")
)

// Kernel measures the similarity of two samples.
type Kernel interface {
	Eval(a, b []float64) float64
}

// Linear is the dot product.
type Linear struct{}

func (Linear) Eval(a, b []float64) float64 { return floats.Dot(a, b) }

// RBF is the Gaussian kernel exp(-‖a-b‖² / 2σ²).
type RBF struct {
	Sigma float64
}

func (k RBF) Eval(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return math.Exp(-d * d / (2 * k.Sigma * k.Sigma))
}

type Options struct {
	C             float64
	Tol           float64
	AlphaTol      float64
	MaxPasses     int
	MaxIterations int
	Kernel        Kernel
	// Rand picks the second multiplier. Training is deterministic for a given source.
	Rand *rand.Rand
}

// DefaultOptions returns C=10, tol=1e-6, 100 passes and 10000 iterations
// with a linear kernel.
func DefaultOptions() Options {
	return Options{
		C:             10,
		Tol:           1e-6,
		AlphaTol:      1e-6,
		MaxPasses:     100,
		MaxIterations: 10000,
		Kernel:        Linear{},
	}
}

// Model is a trained classifier.
type Model struct {
	Alphas     []float64
	Bias       float64
	Iterations int

	kernel  Kernel
	samples [][]float64
	labels  []float64
	tol     float64
}

// Train fits a model to samples x with labels y in {-1, 1}.
func Train(ctx context.Context, x [][]float64, y []float64, opts Options) (*Model, error) {
	n := len(x)
	if n == 0 {
		return nil, ErrNoSamples
	}
	if len(y) != n {
		return nil, fmt.Errorf("%w: %d samples, %d labels", ErrShape, n, len(y))
	}
	for i, label := range y {
		if label != 1 && label != -1 {
			return nil, fmt.Errorf("%w: label %v at %d", ErrInvalidLabel, label, i)
		}
	}
	if opts.Kernel == nil {
		opts.Kernel = Linear{}
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(1))
	}

	gram := mat.NewSymDense(n, nil)
	for i := range n {
		for j := i; j < n; j++ {
			gram.SetSym(i, j, opts.Kernel.Eval(x[i], x[j]))
		}
	}

	alphas := make([]float64, n)
	var b float64
	scratch := make([]float64, n)
	margin := func(i int) float64 {
		// Σ αₖ yₖ K(k, i) + b
		floats.MulTo(scratch, alphas, y)
		return floats.Dot(scratch, mat.Row(nil, i, gram)) + b
	}

	passes, iter := 0, 0
	for passes < opts.MaxPasses && iter < opts.MaxIterations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		changed := 0
		for i := range n {
			ei := margin(i) - y[i]
			if !((y[i]*ei < -opts.Tol && alphas[i] < opts.C) || (y[i]*ei > opts.Tol && alphas[i] > 0)) {
				continue
			}
			if n < 2 {
				break
			}
			j := opts.Rand.Intn(n - 1)
			if j >= i {
				j++
			}
			ej := margin(j) - y[j]

			ai, aj := alphas[i], alphas[j]
			var lo, hi float64
			if y[i] != y[j] {
				lo, hi = math.Max(0, aj-ai), math.Min(opts.C, opts.C+aj-ai)
			} else {
				lo, hi = math.Max(0, ai+aj-opts.C), math.Min(opts.C, ai+aj)
			}
			if lo == hi {
				continue
			}
			kii, kjj, kij := gram.At(i, i), gram.At(j, j), gram.At(i, j)
			eta := 2*kij - kii - kjj
			if eta >= 0 {
				continue
			}

			newJ := aj - y[j]*(ei-ej)/eta
			newJ = math.Max(lo, math.Min(hi, newJ))
			if math.Abs(newJ-aj) < 1e-5 {
				continue
			}
			newI := ai + y[i]*y[j]*(aj-newJ)
			alphas[i], alphas[j] = newI, newJ

			b1 := b - ei - y[i]*(newI-ai)*kii - y[j]*(newJ-aj)*kij
			b2 := b - ej - y[i]*(newI-ai)*kij - y[j]*(newJ-aj)*kjj
			switch {
			case newI > 0 && newI < opts.C:
				b = b1
			case newJ > 0 && newJ < opts.C:
				b = b2
			default:
				b = (b1 + b2) / 2
			}
			changed++
		}
		iter++
		if changed == 0 {
			passes++
		} else {
			passes = 0
		}
	}

	return &Model{
		Alphas:     alphas,
		Bias:       b,
		Iterations: iter,
		kernel:     opts.Kernel,
		samples:    x,
		labels:     y,
		tol:        opts.AlphaTol,
	}, nil
}

// SupportVectors returns the indices of samples with a non-zero multiplier.
func (m *Model) SupportVectors() []int {
	var out []int
	for i, a := range m.Alphas {
		if a > m.tol {
			out = append(out, i)
		}
	}
	return out
}

// Margin is the signed decision value of x.
func (m *Model) Margin(x []float64) float64 {
	sum := m.Bias
	for i, a := range m.Alphas {
		if a > m.tol {
			sum += a * m.labels[i] * m.kernel.Eval(m.samples[i], x)
		}
	}
	return sum
}

// Predict classifies x as -1 or 1.
func (m *Model) Predict(x []float64) float64 {
	if m.Margin(x) < 0 {
		return -1
	}
	return 1
}
