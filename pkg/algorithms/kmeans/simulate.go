package kmeans

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/aretw0/mlens/pkg/domain"
)

// Simulate runs K-Means and returns one frame per phase.
//
// The first iteration starts with initializeCentroids; every iteration then
// emits assignPointsToClusters, updateCentroids and checkConvergence. It stops
// when no centroid moved (exact equality) or after MaxIterations iterations.
func Simulate(ctx context.Context, cfg Config) ([]domain.Frame[State], error) {
	if cfg.MaxIterations < 1 {
		return nil, fmt.Errorf("kmeans: %w: maxIterations must be at least 1", domain.ErrConfiguration)
	}

	centroids, err := pickCentroids(cfg.Points, cfg.K, rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		return nil, err
	}

	frames := []domain.Frame[State]{{
		Type:  StepInitializeCentroids,
		State: State{Points: cfg.Points, Centroids: centroids, Iteration: 0},
	}}

	for iteration := 0; iteration < cfg.MaxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		assigned := assign(cfg.Points, centroids)
		frames = append(frames, domain.Frame[State]{
			Type:  StepAssignPointsToClusters,
			State: State{Points: assigned, Centroids: centroids, Iteration: iteration},
		})

		updated := update(assigned, centroids)
		frames = append(frames, domain.Frame[State]{
			Type:  StepUpdateCentroids,
			State: State{Points: assigned, Centroids: updated, Iteration: iteration},
		})

		done := converged(centroids, updated)
		frames = append(frames, domain.Frame[State]{
			Type:  StepCheckConvergence,
			State: State{Points: assigned, Centroids: updated, Iteration: iteration + 1, Converged: done},
		})

		if done {
			break
		}
		centroids = updated
	}
	return frames, nil
}

// pickCentroids draws k distinct points without replacement.
func pickCentroids(points []Point, k int, r *rand.Rand) ([]Point, error) {
	if k < 1 || len(points) < k {
		return nil, fmt.Errorf("%w: have %d points, need %d", ErrInsufficientPoints, len(points), k)
	}
	available := make([]Point, len(points))
	copy(available, points)

	centroids := make([]Point, 0, k)
	for i := 0; i < k; i++ {
		j := r.Intn(len(available))
		centroids = append(centroids, Point{
			ID:     fmt.Sprintf("centroid-%d", i),
			Coords: available[j].Coords,
			Group:  domain.Group{Label: fmt.Sprintf("Group %d", i+1), Index: i},
		})
		available = append(available[:j], available[j+1:]...)
	}
	return centroids, nil
}

// assign labels each point with its nearest centroid. Ties go to the first centroid.
func assign(points, centroids []Point) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		best := 0
		bestDist := p.Coords.Distance(centroids[0].Coords)
		for j := 1; j < len(centroids); j++ {
			if d := p.Coords.Distance(centroids[j].Coords); d < bestDist {
				best, bestDist = j, d
			}
		}
		p.Group = centroids[best].Group
		out[i] = p
	}
	return out
}

// update moves each centroid to the mean of its points. A centroid without
// points keeps its position.
func update(points, centroids []Point) []Point {
	type acc struct {
		sum domain.Coords3D
		n   int
	}
	sums := make([]acc, len(centroids))
	for _, p := range points {
		a := &sums[p.Group.Index]
		a.sum.X += p.Coords.X
		a.sum.Y += p.Coords.Y
		a.sum.Z += p.Coords.Z
		a.n++
	}

	out := make([]Point, len(centroids))
	for i, c := range centroids {
		if a := sums[i]; a.n > 0 {
			n := float64(a.n)
			c.Coords = domain.Coords3D{X: a.sum.X / n, Y: a.sum.Y / n, Z: a.sum.Z / n}
		}
		out[i] = c
	}
	return out
}

func converged(before, after []Point) bool {
	for i := range before {
		if before[i].Coords.Distance(after[i].Coords) != 0 {
			return false
		}
	}
	return true
}

// EmptyClusters returns the labels of centroids that own no point.
func EmptyClusters(s State) []string {
	owned := make(map[int]bool, len(s.Centroids))
	for _, p := range s.Points {
		owned[p.Group.Index] = true
	}
	var empty []string
	for _, c := range s.Centroids {
		if !owned[c.Group.Index] {
			empty = append(empty, c.Group.Label)
		}
	}
	return empty
}
