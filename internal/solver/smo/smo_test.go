package smo

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func separable(r *rand.Rand, n int) ([][]float64, []float64) {
	var x [][]float64
	var y []float64
	for range n {
		x = append(x, []float64{r.Float64()*2 + 0, r.Float64()*2 + 0})
		y = append(y, -1)
		x = append(x, []float64{r.Float64()*2 + 4, r.Float64()*2 + 4})
		y = append(y, 1)
	}
	return x, y
}

func TestTrain_LinearSeparable(t *testing.T) {
	x, y := separable(rand.New(rand.NewSource(1)), 10)
	m, err := Train(context.Background(), x, y, DefaultOptions())
	require.NoError(t, err)

	for i := range x {
		assert.Equal(t, y[i], m.Predict(x[i]), "sample %d", i)
	}
	sv := m.SupportVectors()
	assert.NotEmpty(t, sv)
	assert.Less(t, len(sv), len(x))
	assert.Equal(t, -1.0, m.Predict([]float64{-3, -3}))
	assert.Equal(t, 1.0, m.Predict([]float64{9, 9}))
}

func TestTrain_RBFRing(t *testing.T) {
	var x [][]float64
	var y []float64
	for i := range 16 {
		a := float64(i) / 16 * 2 * math.Pi
		x = append(x, []float64{math.Cos(a), math.Sin(a)})
		y = append(y, -1)
		x = append(x, []float64{4 * math.Cos(a), 4 * math.Sin(a)})
		y = append(y, 1)
	}
	opts := DefaultOptions()
	opts.Kernel = RBF{Sigma: 1}
	m, err := Train(context.Background(), x, y, opts)
	require.NoError(t, err)

	assert.Equal(t, -1.0, m.Predict([]float64{0, 0}))
	assert.Equal(t, 1.0, m.Predict([]float64{0, 4}))
}

func TestTrain_Deterministic(t *testing.T) {
	x, y := separable(rand.New(rand.NewSource(3)), 8)
	train := func() *Model {
		opts := DefaultOptions()
		opts.Rand = rand.New(rand.NewSource(42))
		m, err := Train(context.Background(), x, y, opts)
		require.NoError(t, err)
		return m
	}
	a, b := train(), train()
	assert.Equal(t, a.Alphas, b.Alphas)
	assert.Equal(t, a.Bias, b.Bias)
}

func TestTrain_Invalid(t *testing.T) {
	_, err := Train(context.Background(), nil, nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrNoSamples)

	_, err = Train(context.Background(), [][]float64{{1}}, []float64{1, -1}, DefaultOptions())
	assert.ErrorIs(t, err, ErrShape)

	_, err = Train(context.Background(), [][]float64{{1}}, []float64{0}, DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidLabel)
}

func TestTrain_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	x, y := separable(rand.New(rand.NewSource(1)), 3)
	_, err := Train(ctx, x, y, DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}
