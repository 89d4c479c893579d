// Package xgboost narrates a gradient-boosted tree ensemble learning a 2D
// binary classification. The numeric fit is delegated to a Booster.
package xgboost

import (
	"context"
	"fmt"
	"math"

	"github.com/aretw0/mlens/pkg/domain"
	"github.com/aretw0/mlens/pkg/params"
)

// Step types.
const (
	StepCalculateResiduals domain.StepType = "calculateResiduals"
	StepBuildTree          domain.StepType = "buildTree"
	StepAfterOneIteration  domain.StepType = "afterOneIteration"
	StepShowFinalResult    domain.StepType = "showFinalResult"
)

const (
	BoundaryScale = 150
	gridDivisions = 50
)

// DataPoint is a labelled training point. Label is 1 or -1.
type DataPoint struct {
	ID     string          `json:"id"`
	Coords domain.Coords2D `json:"coords"`
	Label  int             `json:"label"`
}

// Prediction is the probability of the positive class at a grid position.
type Prediction struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Prediction float64 `json:"prediction"`
}

// Config is immutable once built.
type Config struct {
	TrainingPoints []DataPoint `json:"trainingPoints"`
	LearningRate   float64     `json:"learningRate"`
	MaxDepth       int         `json:"maxDepth"`
	NumTrees       int         `json:"numTrees"`
}

// State is the snapshot carried by every step.
type State struct {
	Residuals           []float64    `json:"residuals,omitempty"`
	Tree                *TreeNode    `json:"tree,omitempty"`
	Trees               int          `json:"trees,omitempty"`
	BoundaryPredictions []Prediction `json:"boundaryPredictions,omitempty"`
}

// Params are the user-tunable parameters.
type Params struct {
	Points       int     `mapstructure:"points"`
	LearningRate float64 `mapstructure:"learningRate"`
	MaxDepth     int     `mapstructure:"maxDepth"`
	NumTrees     int     `mapstructure:"numTrees"`
}

type cluster struct {
	x, y   float64
	label  int
	spread float64
}

// Three positive and three negative clusters, one negative cluster sitting
// in the top right corner beyond the positives.
var clusters = []cluster{
	{BoundaryScale * 0.7, BoundaryScale * 0.7, 1, 15},
	{BoundaryScale * 0.3, BoundaryScale * 0.8, 1, 20},
	{BoundaryScale * 0.8, BoundaryScale * 0.3, 1, 25},
	{BoundaryScale * 0.2, BoundaryScale * 0.2, -1, 30},
	{BoundaryScale * 0.6, BoundaryScale * 0.4, -1, 18},
	{BoundaryScale * 0.9, BoundaryScale * 0.9, -1, 20},
}

// Definition implements ports.Definition for gradient boosting.
type Definition struct {
	booster Booster
}

// Option configures a Definition.
type Option func(*Definition)

// WithBooster replaces the local solver, for example with a RemoteBooster.
func WithBooster(b Booster) Option {
	return func(d *Definition) {
		if b != nil {
			d.booster = b
		}
	}
}

// New returns the definition with the local booster unless overridden.
func New(opts ...Option) Definition {
	d := Definition{booster: LocalBooster{}}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// CacheNamespace keeps traces of different boosters apart in a shared cache.
func (d Definition) CacheNamespace() string { return BoosterID(d.booster) }

func (Definition) Meta() domain.Meta {
	return domain.Meta{
		Slug:             "xgboost",
		Title:            "XGBoost",
		ShortDescription: "Stack small decision trees, each correcting the last.",
		Description: "Gradient boosting builds an ensemble of shallow decision trees. Every new tree " +
			"is fitted to the residual errors of the trees before it and added with a small " +
			"learning rate, slowly carving out the decision boundary.",
		Synonyms:   []string{"gradient-boosting", "gbt", "boosting"},
		Dimensions: domain.Scene2D,
	}
}

func (Definition) Params() params.Schema {
	return params.Schema{
		params.Slider("points", "Number of Points", "The number of data points to generate.", 50, 10, 200, 1),
		params.Slider("learningRate", "Learning Rate",
			"How much each tree contributes to the final prediction (smaller values = more conservative learning).",
			0.1, 0.01, 0.3, 0.01),
		params.Slider("maxDepth", "Max Tree Depth",
			"Maximum depth of each decision tree (controls model complexity).", 3, 2, 10, 1),
		params.Slider("numTrees", "Number of Trees", "Total number of trees to build in the ensemble.", 100, 10, 200, 5),
	}
}

// Config scatters ceil(points/6) samples uniformly over the disc of every cluster.
func (Definition) Config(values params.Values, src *domain.Source) (Config, error) {
	var p Params
	if err := params.Decode(values, &p); err != nil {
		return Config{}, err
	}
	perCluster := int(math.Ceil(float64(p.Points) / float64(len(clusters))))

	var points []DataPoint
	for _, c := range clusters {
		for range perCluster {
			angle := src.Rand.Float64() * 2 * math.Pi
			radius := math.Sqrt(src.Rand.Float64()) * c.spread
			points = append(points, DataPoint{
				ID:     src.IDs.Next("point"),
				Coords: domain.Coords2D{X: c.x + radius*math.Cos(angle), Y: c.y + radius*math.Sin(angle)},
				Label:  c.label,
			})
		}
	}
	return Config{
		TrainingPoints: points,
		LearningRate:   p.LearningRate,
		MaxDepth:       p.MaxDepth,
		NumTrees:       p.NumTrees,
	}, nil
}

func (Definition) InitialStep(cfg Config) domain.Step[State] {
	return domain.Step[State]{
		Type: domain.StepInitial,
		Narration: domain.Narration{
			Title: "Initial State",
			Description: fmt.Sprintf("We have **%d** points in two classes. Boosting starts from the same "+
				"prediction everywhere and improves it one tree at a time.", len(cfg.TrainingPoints)),
		},
	}
}

func (d Definition) Steps(ctx context.Context, cfg Config, initial domain.Step[State]) ([]domain.Step[State], error) {
	frames, err := Simulate(ctx, cfg, d.booster)
	if err != nil {
		return nil, err
	}
	return domain.Narrate(initial, frames, narrate(cfg)), nil
}

// BoundaryGrid samples [0, BoundaryScale]² every BoundaryScale/50 units,
// both ends included.
func BoundaryGrid() []domain.Coords2D {
	step := float64(BoundaryScale) / gridDivisions
	grid := make([]domain.Coords2D, 0, (gridDivisions+1)*(gridDivisions+1))
	for i := 0; i <= gridDivisions; i++ {
		for j := 0; j <= gridDivisions; j++ {
			grid = append(grid, domain.Coords2D{X: float64(i) * step, Y: float64(j) * step})
		}
	}
	return grid
}

// Simulate fits the ensemble and slices the result into four frames.
func Simulate(ctx context.Context, cfg Config, b Booster) ([]domain.Frame[State], error) {
	if len(cfg.TrainingPoints) == 0 {
		return nil, fmt.Errorf("xgboost: %w: no training points", domain.ErrConfiguration)
	}
	res, err := b.Boost(ctx, Request{
		TrainingPoints: cfg.TrainingPoints,
		Boundary:       BoundaryGrid(),
		MaxDepth:       cfg.MaxDepth,
		LearningRate:   cfg.LearningRate,
		NumTrees:       cfg.NumTrees,
	})
	if err != nil {
		return nil, fmt.Errorf("xgboost: %w: %w", domain.ErrBuild, err)
	}

	first := res.FirstRound
	if first == nil {
		first = res.Boundary
	}
	return []domain.Frame[State]{
		{Type: StepCalculateResiduals, State: State{Residuals: res.Residuals}},
		{Type: StepBuildTree, State: State{Residuals: res.Residuals, Tree: res.FirstTree, Trees: 1}},
		{Type: StepAfterOneIteration, State: State{Tree: res.FirstTree, Trees: 1, BoundaryPredictions: first}},
		{Type: StepShowFinalResult, State: State{Trees: cfg.NumTrees, BoundaryPredictions: res.Boundary}},
	}, nil
}
