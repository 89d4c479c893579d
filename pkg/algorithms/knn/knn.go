// Package knn traces the classification of a query point by its k nearest
// neighbours.
package knn

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/aretw0/mlens/internal/sampling"
	"github.com/aretw0/mlens/pkg/domain"
	"github.com/aretw0/mlens/pkg/params"
)

// Step types.
const (
	StepCalculateDistance      domain.StepType = "calculateDistance"
	StepUpdateNearestNeighbors domain.StepType = "updateNearestNeighbors"
	StepUpdateQueryPoint       domain.StepType = "updateQueryPoint"
)

const (
	spaceSize  = 100
	minSpacing = 10
)

// ErrNoNeighbors is returned when there is nothing to vote with.
var ErrNoNeighbors = fmt.Errorf("knn: %w: no labelled points to vote", domain.ErrConfiguration)

// QueryGroup labels the query point until it is classified.
var QueryGroup = domain.Group{Label: "Current", Index: -1}

// DataPoint is a labelled point.
type DataPoint struct {
	ID     string          `json:"id"`
	Coords domain.Coords3D `json:"coords"`
	Group  domain.Group    `json:"group"`
}

// Distance pairs a point with its distance to the query.
type Distance struct {
	Point    DataPoint `json:"point"`
	Distance float64   `json:"distance"`
}

// Config holds the labelled points and the query. It is immutable once built.
type Config struct {
	Points []DataPoint    `json:"points"`
	Groups []domain.Group `json:"groups"`
	K      int            `json:"k"`
	Query  DataPoint      `json:"query"`
}

// State is the snapshot carried by every step.
type State struct {
	CurrentIndex     int         `json:"currentIndex"`
	Distances        []Distance  `json:"distances"`
	NearestNeighbors []DataPoint `json:"nearestNeighbors"`
	QueryPoint       DataPoint   `json:"queryPoint"`
}

// Params are the user-tunable parameters.
type Params struct {
	Points int `mapstructure:"points"`
	Groups int `mapstructure:"groups"`
	K      int `mapstructure:"k"`
}

// Definition implements ports.Definition for KNN.
type Definition struct{}

// New returns the KNN definition.
func New() Definition { return Definition{} }

func (Definition) Meta() domain.Meta {
	return domain.Meta{
		Slug:             "knn",
		Title:            "K-Nearest Neighbors",
		ShortDescription: "Classify a point by the labels of its closest neighbours.",
		Description: "KNN is a supervised, non-parametric classifier. A new point receives the " +
			"most common label among the k training points closest to it.",
		Synonyms:   []string{"k-nearest-neighbors", "k-nn", "nearest-neighbors"},
		Dimensions: domain.Scene3D,
	}
}

func (Definition) Params() params.Schema {
	return params.Schema{
		params.Slider("points", "Number of Points", "The number of points in the dataset.", 10, 3, 50, 1),
		params.Slider("groups", "Number of Groups", "The number of groups in the dataset.", 3, 3, 10, 1),
		params.Slider("k", "K", "The number of nearest neighbors to consider.", 3, 1, 10, 1),
	}
}

func (Definition) Config(values params.Values, src *domain.Source) (Config, error) {
	var p Params
	if err := params.Decode(values, &p); err != nil {
		return Config{}, err
	}

	groups := make([]domain.Group, p.Groups)
	for i := range groups {
		groups[i] = domain.Group{Label: fmt.Sprintf("Group %d", i+1), Index: i}
	}

	type candidate struct {
		coords domain.Coords3D
		group  domain.Group
	}
	drawn, err := sampling.Sampler[candidate]{
		Rand:        src.Rand,
		MinDistance: minSpacing,
		Generate: func(r *rand.Rand) candidate {
			g := groups[r.Intn(len(groups))]
			return candidate{
				group: g,
				coords: domain.Coords3D{
					X: float64(r.Intn(spaceSize) + 1),
					Y: float64(r.Intn(spaceSize) + 1),
					Z: float64(r.Intn(spaceSize) + 1),
				},
			}
		},
		Distance: func(a, b candidate) float64 { return a.coords.Distance(b.coords) },
	}.Sample(p.Points)
	if err != nil {
		return Config{}, fmt.Errorf("knn: %w", err)
	}

	points := make([]DataPoint, len(drawn))
	for i, c := range drawn {
		points[i] = DataPoint{ID: src.IDs.Next("point"), Coords: c.coords, Group: c.group}
	}
	return Config{
		Points: points,
		Groups: groups,
		K:      p.K,
		Query: DataPoint{
			ID:     "query",
			Coords: domain.Coords3D{X: 50, Y: 50, Z: 50},
			Group:  QueryGroup,
		},
	}, nil
}

func (Definition) InitialStep(cfg Config) domain.Step[State] {
	return domain.Step[State]{
		Type: domain.StepInitial,
		Narration: domain.Narration{
			Title:       "Initial State",
			Description: "We want to determine which group the query point belongs to.",
		},
		State: State{
			Distances:        []Distance{},
			NearestNeighbors: []DataPoint{},
			QueryPoint:       cfg.Query,
		},
	}
}

func (Definition) Steps(ctx context.Context, cfg Config, initial domain.Step[State]) ([]domain.Step[State], error) {
	frames, err := Simulate(ctx, cfg, initial.State.QueryPoint)
	if err != nil {
		return nil, err
	}
	return domain.Narrate(initial, frames, narrate(cfg)), nil
}
