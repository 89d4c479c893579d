package svm

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/aretw0/mlens/internal/solver/smo"
	"github.com/aretw0/mlens/pkg/domain"
)

// RBFSigma is the width of the Gaussian kernel, in scene units.
const RBFSigma = 15

// Train fits the solver to cfg. The solver is seeded from cfg.Seed.
func Train(ctx context.Context, cfg Config) (*smo.Model, error) {
	opts := smo.DefaultOptions()
	opts.Rand = rand.New(rand.NewSource(cfg.Seed))
	switch cfg.Kernel {
	case KernelLinear:
		opts.Kernel = smo.Linear{}
	case KernelRBF, "":
		opts.Kernel = smo.RBF{Sigma: RBFSigma}
	default:
		return nil, fmt.Errorf("svm: %w: unknown kernel %q", domain.ErrConfiguration, cfg.Kernel)
	}

	x := make([][]float64, len(cfg.Points))
	y := make([]float64, len(cfg.Points))
	for i, p := range cfg.Points {
		x[i] = []float64{p.Coords.X, p.Coords.Y}
		y[i] = float64(p.Label)
	}
	m, err := smo.Train(ctx, x, y, opts)
	if err != nil {
		return nil, fmt.Errorf("svm: %w: %w", domain.ErrConfiguration, err)
	}
	return m, nil
}

// Simulate trains the model, then slices the result into three frames:
// the empty model, its support vectors and the decision regions.
func Simulate(ctx context.Context, cfg Config) ([]domain.Frame[State], error) {
	m, err := Train(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var support []DataPoint
	var alphas []float64
	for _, i := range m.SupportVectors() {
		support = append(support, cfg.Points[i])
		alphas = append(alphas, m.Alphas[i])
	}

	region := make([]RegionSample, 0, GridSize*GridSize)
	for i := range GridSize {
		for j := range GridSize {
			x := float64(i) / (GridSize - 1) * BoundaryScale
			y := float64(j) / (GridSize - 1) * BoundaryScale
			region = append(region, RegionSample{X: x, Y: y, Prediction: int(m.Predict([]float64{x, y}))})
		}
	}

	return []domain.Frame[State]{
		{Type: StepInitializeModel, State: State{}},
		{Type: StepFindSupportVectors, State: State{SupportVectors: support, Alphas: alphas, Bias: m.Bias}},
		{Type: StepCalculateDecisionBoundary, State: State{SupportVectors: support, Alphas: alphas, Bias: m.Bias, RegionData: region}},
	}, nil
}
