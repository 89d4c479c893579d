// Package kmeans traces Lloyd's K-Means clustering on a random 3D point cloud.
package kmeans

import (
	"context"
	"fmt"

	"github.com/aretw0/mlens/internal/sampling"
	"github.com/aretw0/mlens/pkg/domain"
	"github.com/aretw0/mlens/pkg/params"
)

// Step types.
const (
	StepInitializeCentroids    domain.StepType = "initializeCentroids"
	StepAssignPointsToClusters domain.StepType = "assignPointsToClusters"
	StepUpdateCentroids        domain.StepType = "updateCentroids"
	StepCheckConvergence       domain.StepType = "checkConvergence"
)

const (
	spaceSize  = 100
	minSpacing = 10
)

// ErrInsufficientPoints is returned when there are fewer points than clusters.
var ErrInsufficientPoints = fmt.Errorf("kmeans: %w: not enough points to pick centroids", domain.ErrConfiguration)

// Unassigned is the group of a point before the first assignment.
var Unassigned = domain.Group{Label: "Unassigned", Index: -1}

// Point is a data point or a centroid.
type Point struct {
	ID     string          `json:"id"`
	Coords domain.Coords3D `json:"coords"`
	Group  domain.Group    `json:"group"`
}

// Config is immutable once built. Seed drives centroid initialisation.
type Config struct {
	Points        []Point `json:"points"`
	K             int     `json:"k"`
	MaxIterations int     `json:"maxIterations"`
	Seed          int64   `json:"seed"`
}

// State is the snapshot carried by every step.
type State struct {
	Points    []Point `json:"points"`
	Centroids []Point `json:"centroids"`
	Iteration int     `json:"iteration"`
	Converged bool    `json:"converged,omitempty"`
}

// Params are the user-tunable parameters.
type Params struct {
	Points        int `mapstructure:"points"`
	K             int `mapstructure:"k"`
	MaxIterations int `mapstructure:"maxIterations"`
}

// Definition implements ports.Definition for K-Means.
type Definition struct{}

// New returns the K-Means definition.
func New() Definition { return Definition{} }

func (Definition) Meta() domain.Meta {
	return domain.Meta{
		Slug:             "kmeans",
		Title:            "K-Means",
		ShortDescription: "Partition data into clusters based on similarity.",
		Description: "K-Means is an unsupervised algorithm that partitions a dataset into K clusters. " +
			"It alternates between assigning every point to its nearest centroid and moving each " +
			"centroid to the mean of its points.",
		Synonyms:   []string{"k-means", "clustering"},
		Dimensions: domain.Scene3D,
	}
}

func (Definition) Params() params.Schema {
	return params.Schema{
		params.Slider("points", "Number of Points", "The number of points to cluster.", 30, 3, 100, 1),
		params.Slider("k", "K", "The number of clusters to create.", 3, 2, 10, 1),
		params.Slider("maxIterations", "Max Iterations", "Maximum number of iterations.", 10, 1, 50, 1),
	}
}

// Config places the points. Centroids are chosen while stepping, from cfg.Seed.
func (Definition) Config(values params.Values, src *domain.Source) (Config, error) {
	var p Params
	if err := params.Decode(values, &p); err != nil {
		return Config{}, err
	}

	coords, err := sampling.Sampler[domain.Coords3D]{
		Rand:        src.Rand,
		MinDistance: minSpacing,
		Generate:    sampling.GridCoords3D(spaceSize),
		Distance:    sampling.Distance3D,
	}.Sample(p.Points)
	if err != nil {
		return Config{}, fmt.Errorf("kmeans: %w", err)
	}

	points := make([]Point, len(coords))
	for i, c := range coords {
		points[i] = Point{ID: src.IDs.Next("point"), Coords: c, Group: Unassigned}
	}
	return Config{
		Points:        points,
		K:             p.K,
		MaxIterations: p.MaxIterations,
		Seed:          src.Rand.Int63(),
	}, nil
}

func (Definition) InitialStep(cfg Config) domain.Step[State] {
	return domain.Step[State]{
		Type: domain.StepInitial,
		Narration: domain.Narration{
			Title:       "Initial State",
			Description: fmt.Sprintf("We will cluster **%d** points into **k = %d** groups with K-Means.", len(cfg.Points), cfg.K),
		},
		State: State{Points: cfg.Points, Centroids: []Point{}, Iteration: 0},
	}
}

func (Definition) Steps(ctx context.Context, cfg Config, initial domain.Step[State]) ([]domain.Step[State], error) {
	frames, err := Simulate(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return domain.Narrate(initial, frames, narrate), nil
}
