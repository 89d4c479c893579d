package knn

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/aretw0/mlens/pkg/domain"
)

// Simulate measures every point against the query in order, keeping the k
// closest seen so far, then classifies the query by majority vote.
func Simulate(ctx context.Context, cfg Config, query DataPoint) ([]domain.Frame[State], error) {
	if cfg.K < 1 {
		return nil, fmt.Errorf("knn: %w: k must be at least 1", domain.ErrConfiguration)
	}
	if len(cfg.Points) == 0 {
		return nil, ErrNoNeighbors
	}

	frames := make([]domain.Frame[State], 0, 2*len(cfg.Points)+1)
	distances := make([]Distance, 0, len(cfg.Points))
	nearest := []DataPoint{}

	for i, p := range cfg.Points {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		distances = append(distances, Distance{Point: p, Distance: query.Coords.Distance(p.Coords)})
		seen := slices.Clip(distances)

		frames = append(frames, domain.Frame[State]{
			Type:  StepCalculateDistance,
			State: State{CurrentIndex: i, Distances: seen, NearestNeighbors: nearest, QueryPoint: query},
		})

		nearest = Nearest(seen, cfg.K)
		frames = append(frames, domain.Frame[State]{
			Type:  StepUpdateNearestNeighbors,
			State: State{CurrentIndex: i, Distances: seen, NearestNeighbors: nearest, QueryPoint: query},
		})
	}

	winner, ok := Vote(nearest, cfg.Groups)
	if !ok {
		return nil, ErrNoNeighbors
	}
	classified := query
	classified.Group = winner

	frames = append(frames, domain.Frame[State]{
		Type: StepUpdateQueryPoint,
		State: State{
			CurrentIndex:     len(cfg.Points) - 1,
			Distances:        distances,
			NearestNeighbors: nearest,
			QueryPoint:       classified,
		},
	})
	return frames, nil
}

// Nearest returns the k points with the lowest distance. The sort is stable,
// so equal distances keep their measuring order.
func Nearest(distances []Distance, k int) []DataPoint {
	sorted := slices.Clone(distances)
	slices.SortStableFunc(sorted, func(a, b Distance) int { return cmp.Compare(a.Distance, b.Distance) })
	n := min(k, len(sorted))
	out := make([]DataPoint, n)
	for i := range n {
		out[i] = sorted[i].Point
	}
	return out
}

// Vote returns the most common group among neighbours. Ties go to the group
// listed first in groups.
func Vote(neighbours []DataPoint, groups []domain.Group) (domain.Group, bool) {
	counts := make(map[string]int, len(groups))
	for _, n := range neighbours {
		counts[n.Group.Label]++
	}
	var (
		best  domain.Group
		found bool
		top   int
	)
	for _, g := range groups {
		if c := counts[g.Label]; c > top {
			best, top, found = g, c, true
		}
	}
	return best, found
}
