package kmeans_test

import (
	"context"
	"testing"

	"github.com/aretw0/mlens/pkg/algorithms/kmeans"
	"github.com/aretw0/mlens/pkg/domain"
	"github.com/aretw0/mlens/pkg/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, values params.Values, seed int64) (kmeans.Config, []domain.Step[kmeans.State]) {
	t.Helper()
	def := kmeans.New()
	resolved, err := def.Params().Resolve(values)
	require.NoError(t, err)
	cfg, err := def.Config(resolved, domain.NewSource(seed))
	require.NoError(t, err)
	steps, err := def.Steps(context.Background(), cfg, def.InitialStep(cfg))
	require.NoError(t, err)
	return cfg, steps
}

func TestKMeans_Deterministic(t *testing.T) {
	_, a := build(t, nil, 11)
	_, b := build(t, nil, 11)
	assert.Equal(t, a, b)
}

func TestKMeans_HeadAndShape(t *testing.T) {
	cfg, steps := build(t, nil, 3)
	require.NotEmpty(t, steps)
	require.NoError(t, domain.ValidateTrace(steps))

	assert.Len(t, cfg.Points, 30)
	assert.Empty(t, steps[0].State.Centroids)
	assert.Equal(t, kmeans.StepInitializeCentroids, steps[1].Type)
	assert.Len(t, steps[1].State.Centroids, 3)

	for i := 2; i < len(steps); i += 3 {
		assert.Equal(t, kmeans.StepAssignPointsToClusters, steps[i].Type)
		assert.Equal(t, kmeans.StepUpdateCentroids, steps[i+1].Type)
		assert.Equal(t, kmeans.StepCheckConvergence, steps[i+2].Type)
	}
}

func TestKMeans_Termination(t *testing.T) {
	for _, tc := range []struct {
		points, k, maxIter int
	}{
		{3, 3, 1}, {30, 3, 10}, {100, 10, 50}, {12, 2, 2}, {50, 7, 5},
	} {
		for seed := int64(1); seed <= 5; seed++ {
			_, steps := build(t, params.Values{"points": tc.points, "k": tc.k, "maxIterations": tc.maxIter}, seed)
			assert.LessOrEqual(t, len(steps), 4*tc.maxIter+2)

			last := steps[len(steps)-1]
			require.Equal(t, kmeans.StepCheckConvergence, last.Type)
			prev := steps[len(steps)-2]
			require.Equal(t, kmeans.StepUpdateCentroids, prev.Type)

			if last.State.Converged {
				// The centroids entering the last iteration did not move.
				assert.Equal(t, steps[len(steps)-3].State.Centroids, last.State.Centroids)
				assert.Equal(t, prev.State.Centroids, last.State.Centroids)
			} else {
				assert.Equal(t, tc.maxIter, last.State.Iteration)
			}
		}
	}
}

func TestKMeans_AssignsNearest(t *testing.T) {
	_, steps := build(t, nil, 9)
	for _, s := range steps {
		if s.Type != kmeans.StepAssignPointsToClusters {
			continue
		}
		for _, p := range s.State.Points {
			own := s.State.Centroids[p.Group.Index]
			for _, c := range s.State.Centroids {
				assert.LessOrEqual(t, p.Coords.Distance(own.Coords), p.Coords.Distance(c.Coords))
			}
		}
	}
}

func TestKMeans_InsufficientPoints(t *testing.T) {
	def := kmeans.New()
	cfg := kmeans.Config{
		Points:        []kmeans.Point{{ID: "a"}, {ID: "b"}},
		K:             3,
		MaxIterations: 5,
	}
	_, err := def.Steps(context.Background(), cfg, def.InitialStep(cfg))
	assert.ErrorIs(t, err, kmeans.ErrInsufficientPoints)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestKMeans_EmptyClusterKeepsPosition(t *testing.T) {
	// Two identical points: whichever centroid is picked second owns nothing
	// after assignment because ties go to the first centroid.
	cfg := kmeans.Config{
		Points: []kmeans.Point{
			{ID: "a", Coords: domain.Coords3D{X: 1, Y: 1, Z: 1}, Group: kmeans.Unassigned},
			{ID: "b", Coords: domain.Coords3D{X: 1, Y: 1, Z: 1}, Group: kmeans.Unassigned},
		},
		K:             2,
		MaxIterations: 3,
		Seed:          1,
	}
	frames, err := kmeans.Simulate(context.Background(), cfg)
	require.NoError(t, err)

	update := frames[2]
	require.Equal(t, kmeans.StepUpdateCentroids, update.Type)
	for _, c := range update.State.Centroids {
		assert.Equal(t, domain.Coords3D{X: 1, Y: 1, Z: 1}, c.Coords, "no NaN for an empty cluster")
	}
	assert.Equal(t, []string{"Group 2"}, kmeans.EmptyClusters(update.State))
	assert.True(t, frames[len(frames)-1].State.Converged)
}

func TestKMeans_ConfigIdentifiersArePerConfig(t *testing.T) {
	a, _ := build(t, params.Values{"points": 5}, 1)
	b, _ := build(t, params.Values{"points": 5}, 2)
	assert.Equal(t, "point-0", a.Points[0].ID)
	assert.Equal(t, "point-0", b.Points[0].ID)
}
