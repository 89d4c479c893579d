package linreg

import (
	"context"
	"math"

	"github.com/aretw0/mlens/pkg/domain"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Simulate fits the line in four phases. It is a single pass with no iteration.
func Simulate(ctx context.Context, cfg Config) ([]domain.Frame[State], error) {
	if len(cfg.Points) == 0 {
		return nil, ErrNoPoints
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	xs, ys, zs := columns(cfg.Points)
	means := domain.Coords3D{X: stat.Mean(xs, nil), Y: stat.Mean(ys, nil), Z: stat.Mean(zs, nil)}

	coef, err := Fit(xs, ys, zs)
	if err != nil {
		return nil, err
	}

	line := Line{Start: coef.At(floats.Min(xs)), End: coef.At(floats.Max(xs))}
	sse := SumOfSquaredErrors(cfg.Points, coef)

	return []domain.Frame[State]{
		{Type: StepCalculateMeans, State: State{Means: &means}},
		{Type: StepCalculateCoefficients, State: State{Means: &means, Coefficients: &coef}},
		{Type: StepUpdateLine, State: State{Means: &means, Coefficients: &coef, PredictionLine: &line}},
		{Type: StepCalculateSumOfSquaredErrors, State: State{Means: &means, Coefficients: &coef, PredictionLine: &line, SumOfSquaredErrors: &sse}},
	}, nil
}

// Fit computes the OLS slope and intercept of y and z against x.
func Fit(xs, ys, zs []float64) (Coefficients, error) {
	if len(xs) == 0 {
		return Coefficients{}, ErrNoPoints
	}
	if floats.Min(xs) == floats.Max(xs) {
		return Coefficients{}, ErrZeroVariance
	}
	interceptY, slopeXY := stat.LinearRegression(xs, ys, nil, false)
	interceptZ, slopeXZ := stat.LinearRegression(xs, zs, nil, false)
	for _, v := range []float64{slopeXY, slopeXZ, interceptY, interceptZ} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Coefficients{}, ErrZeroVariance
		}
	}
	return Coefficients{SlopeXY: slopeXY, SlopeXZ: slopeXZ, InterceptY: interceptY, InterceptZ: interceptZ}, nil
}

// SumOfSquaredErrors adds the squared y and z residuals of every point.
func SumOfSquaredErrors(points []DataPoint, c Coefficients) float64 {
	var sum float64
	for _, p := range points {
		pred := c.At(p.Coords.X)
		sum += math.Pow(p.Coords.Y-pred.Y, 2) + math.Pow(p.Coords.Z-pred.Z, 2)
	}
	return sum
}

func columns(points []DataPoint) (xs, ys, zs []float64) {
	xs = make([]float64, len(points))
	ys = make([]float64, len(points))
	zs = make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i], zs[i] = p.Coords.X, p.Coords.Y, p.Coords.Z
	}
	return xs, ys, zs
}
