// Package linreg traces an ordinary-least-squares fit of a 3D line, regressing
// y and z on x.
package linreg

import (
	"context"
	"fmt"
	"math"

	"github.com/aretw0/mlens/pkg/domain"
	"github.com/aretw0/mlens/pkg/params"
)

// Step types.
const (
	StepCalculateMeans              domain.StepType = "calculateMeans"
	StepCalculateCoefficients       domain.StepType = "calculateCoefficients"
	StepUpdateLine                  domain.StepType = "updateLine"
	StepCalculateSumOfSquaredErrors domain.StepType = "calculateSumOfSquaredErrors"
)

var (
	// ErrNoPoints is returned for an empty data set.
	ErrNoPoints = fmt.Errorf("linreg: %w: no points to fit", domain.ErrConfiguration)
	// ErrZeroVariance is returned when every x is equal and the slope is undefined.
	ErrZeroVariance = fmt.Errorf("linreg: %w: independent variable has zero variance", domain.ErrDegenerate)
)

// DataPoint is a sample of the noisy line.
type DataPoint struct {
	ID     string          `json:"id"`
	Coords domain.Coords3D `json:"coords"`
}

// Config is immutable once built.
type Config struct {
	Points []DataPoint `json:"points"`
	Noise  float64     `json:"noise"`
}

// Coefficients of y = slopeXY*x + interceptY and z = slopeXZ*x + interceptZ.
type Coefficients struct {
	SlopeXY    float64 `json:"slopeXY"`
	SlopeXZ    float64 `json:"slopeXZ"`
	InterceptY float64 `json:"interceptY"`
	InterceptZ float64 `json:"interceptZ"`
}

// At evaluates the fitted line at x.
func (c Coefficients) At(x float64) domain.Coords3D {
	return domain.Coords3D{X: x, Y: c.SlopeXY*x + c.InterceptY, Z: c.SlopeXZ*x + c.InterceptZ}
}

// Line is the fitted segment across the x range of the data.
type Line struct {
	Start domain.Coords3D `json:"start"`
	End   domain.Coords3D `json:"end"`
}

// State fields fill in as the fit progresses.
type State struct {
	Means              *domain.Coords3D `json:"means,omitempty"`
	Coefficients       *Coefficients    `json:"coefficients,omitempty"`
	PredictionLine     *Line            `json:"predictionLine,omitempty"`
	SumOfSquaredErrors *float64         `json:"sumOfSquaredErrors,omitempty"`
}

// Params are the user-tunable parameters.
type Params struct {
	Points      int     `mapstructure:"points"`
	Noise       float64 `mapstructure:"noise"`
	HeightScale float64 `mapstructure:"heightScale"`
}

// Definition implements ports.Definition for linear regression.
type Definition struct{}

// New returns the linear regression definition.
func New() Definition { return Definition{} }

func (Definition) Meta() domain.Meta {
	return domain.Meta{
		Slug:             "linear-regression",
		Title:            "Linear Regression",
		ShortDescription: "Fit the best straight line through a cloud of points.",
		Description: "Linear regression is a supervised learning algorithm that finds the best-fitting " +
			"line through a set of points. It works by minimizing the sum of squared distances between " +
			"the predicted line and the actual data points.",
		Synonyms:   []string{"linreg", "ols", "regression"},
		Dimensions: domain.Scene3D,
	}
}

func (Definition) Params() params.Schema {
	return params.Schema{
		params.Slider("points", "Number of Points", "The number of data points to fit.", 20, 3, 100, 1),
		params.Slider("noise", "Noise Level", "Amount of random variation in the data points.", 0.3, 0, 1, 0.1),
		params.Slider("heightScale", "Height Scale", "Controls how much the line rises vertically.", 80, 0, 200, 1),
	}
}

// Config lays points along a line from the origin. Without noise the points
// are exactly collinear; with noise every axis is jittered upwards and
// truncated to an integer.
func (Definition) Config(values params.Values, src *domain.Source) (Config, error) {
	var p Params
	if err := params.Decode(values, &p); err != nil {
		return Config{}, err
	}
	if p.Points < 2 {
		return Config{}, fmt.Errorf("linreg: %w: need at least 2 points, got %d", domain.ErrConfiguration, p.Points)
	}

	jitter := func(v float64) float64 {
		if p.Noise == 0 {
			return v
		}
		return math.Floor(v + src.Rand.Float64()*60*p.Noise)
	}

	points := make([]DataPoint, p.Points)
	for i := range points {
		t := float64(i) / float64(p.Points-1)
		points[i] = DataPoint{
			ID: src.IDs.Next("point"),
			Coords: domain.Coords3D{
				X: jitter(t * 100),
				Y: jitter(t * p.HeightScale),
				Z: jitter(t * 60),
			},
		}
	}
	return Config{Points: points, Noise: p.Noise}, nil
}

func (Definition) InitialStep(Config) domain.Step[State] {
	return domain.Step[State]{
		Type: domain.StepInitial,
		Narration: domain.Narration{
			Title: "Initial State",
			Description: "We want to fit a linear regression line that captures the nature of our data " +
				"and helps us predict future values. We demonstrate the Ordinary Least Squares method " +
				"(OLS), which works well for manageable datasets.",
		},
	}
}

func (Definition) Steps(ctx context.Context, cfg Config, initial domain.Step[State]) ([]domain.Step[State], error) {
	frames, err := Simulate(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return domain.Narrate(initial, frames, narrate), nil
}
