// Package svm narrates a support vector machine fit on 2D data. The fit
// itself is delegated to the SMO solver.
package svm

import (
	"context"
	"fmt"
	"math"

	"github.com/aretw0/mlens/pkg/domain"
	"github.com/aretw0/mlens/pkg/params"
)

// Step types.
const (
	StepInitializeModel           domain.StepType = "initializeModel"
	StepFindSupportVectors        domain.StepType = "findSupportVectors"
	StepCalculateDecisionBoundary domain.StepType = "calculateDecisionBoundary"
)

const (
	GridSize      = 50
	BoundaryScale = 150

	minCoordinate = 20
	linearRange   = 40

	radialCenterX     = 60
	radialCenterY     = 60
	radialInnerRadius = 15
	radialOuterMin    = 30
	radialOuterMax    = 45
)

// Kernel selects the similarity function of the classifier.
type Kernel string

const (
	KernelRBF    Kernel = "rbf"
	KernelLinear Kernel = "linear"
)

// DataPoint is a training point labelled 1 or -1.
type DataPoint struct {
	ID     string          `json:"id"`
	Coords domain.Coords2D `json:"coords"`
	Label  int             `json:"label"`
}

// RegionSample is one cell of the decision-region grid.
type RegionSample struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Prediction int     `json:"prediction"`
}

// Config is immutable once built.
type Config struct {
	Points     []DataPoint `json:"points"`
	Kernel     Kernel      `json:"kernelType"`
	RadialData bool        `json:"hasRadialData"`
	Seed       int64       `json:"seed"`
}

// State is the snapshot carried by every step.
type State struct {
	SupportVectors []DataPoint    `json:"supportVectors,omitempty"`
	Alphas         []float64      `json:"alphas,omitempty"`
	Bias           float64        `json:"bias"`
	RegionData     []RegionSample `json:"regionData,omitempty"`
}

// Params are the user-tunable parameters.
type Params struct {
	Points             int    `mapstructure:"points"`
	GenerateRadialData bool   `mapstructure:"generateRadialData"`
	KernelType         string `mapstructure:"kernelType"`
}

// Definition implements ports.Definition for SVM.
type Definition struct{}

// New returns the SVM definition.
func New() Definition { return Definition{} }

func (Definition) Meta() domain.Meta {
	return domain.Meta{
		Slug:             "svm",
		Title:            "Support Vector Machine",
		ShortDescription: "Separate two classes with the widest possible margin.",
		Description: "A support vector machine looks for the boundary that separates two classes " +
			"with the widest margin. Only the points closest to the boundary, the support vectors, " +
			"decide where it lies. Kernels let the boundary bend.",
		Synonyms:   []string{"support-vector-machine"},
		Dimensions: domain.Scene2D,
	}
}

func (Definition) Params() params.Schema {
	return params.Schema{
		params.Slider("points", "Number of Points", "The number of data points to generate for each class.", 20, 5, 100, 1),
		params.Switch("generateRadialData", "Generate Radial Data",
			"Whether to generate radial data. If true, you most likely want to use a non linear kernel.", false),
		params.Select("kernelType", "Kernel Type", "The kernel type to use for the SVM.",
			string(KernelRBF), string(KernelRBF), string(KernelLinear)),
	}
}

// Config generates points per class: two squares for linear data, or an
// inner disc and an outer ring for radial data.
func (Definition) Config(values params.Values, src *domain.Source) (Config, error) {
	var p Params
	if err := params.Decode(values, &p); err != nil {
		return Config{}, err
	}
	r := src.Rand
	point := func(x, y float64, label int) DataPoint {
		return DataPoint{ID: src.IDs.Next("point"), Coords: domain.Coords2D{X: x, Y: y}, Label: label}
	}

	var points []DataPoint
	for range p.Points {
		if p.GenerateRadialData {
			a, d := r.Float64()*2*math.Pi, math.Sqrt(r.Float64())*radialInnerRadius
			points = append(points, point(radialCenterX+d*math.Cos(a), radialCenterY+d*math.Sin(a), -1))
			a, d = r.Float64()*2*math.Pi, radialOuterMin+r.Float64()*(radialOuterMax-radialOuterMin)
			points = append(points, point(radialCenterX+d*math.Cos(a), radialCenterY+d*math.Sin(a), 1))
			continue
		}
		points = append(points,
			point(r.Float64()*linearRange+minCoordinate, r.Float64()*linearRange+minCoordinate, -1))
		points = append(points,
			point(r.Float64()*linearRange+minCoordinate+linearRange, r.Float64()*linearRange+minCoordinate+linearRange, 1))
	}

	return Config{
		Points:     points,
		Kernel:     Kernel(p.KernelType),
		RadialData: p.GenerateRadialData,
		Seed:       r.Int63(),
	}, nil
}

func (Definition) InitialStep(cfg Config) domain.Step[State] {
	shape := "two separate groups"
	if cfg.RadialData {
		shape = "an inner disc surrounded by a ring"
	}
	return domain.Step[State]{
		Type: domain.StepInitial,
		Narration: domain.Narration{
			Title:       "Initial State",
			Description: fmt.Sprintf("We have **%d** points of two classes forming %s.", len(cfg.Points), shape),
		},
	}
}

func (Definition) Steps(ctx context.Context, cfg Config, initial domain.Step[State]) ([]domain.Step[State], error) {
	frames, err := Simulate(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return domain.Narrate(initial, frames, narrate(cfg)), nil
}
