package knn_test

import (
	"context"
	"testing"

	"github.com/aretw0/mlens/pkg/algorithms/knn"
	"github.com/aretw0/mlens/pkg/domain"
	"github.com/aretw0/mlens/pkg/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	groupA = domain.Group{Label: "A", Index: 0}
	groupB = domain.Group{Label: "B", Index: 1}
)

func TestKNN_MajorityVote(t *testing.T) {
	def := knn.New()
	cfg := knn.Config{
		Points: []knn.DataPoint{
			{ID: "0", Coords: domain.Coords3D{}, Group: groupA},
			{ID: "1", Coords: domain.Coords3D{X: 1}, Group: groupA},
			{ID: "2", Coords: domain.Coords3D{X: 10, Y: 10, Z: 10}, Group: groupB},
		},
		Groups: []domain.Group{groupA, groupB},
		K:      2,
		Query:  knn.DataPoint{ID: "query", Group: knn.QueryGroup},
	}

	steps, err := def.Steps(context.Background(), cfg, def.InitialStep(cfg))
	require.NoError(t, err)
	require.Len(t, steps, 1+2*3+1)

	last := steps[len(steps)-1]
	assert.Equal(t, knn.StepUpdateQueryPoint, last.Type)
	assert.Equal(t, "A", last.State.QueryPoint.Group.Label)
	assert.Equal(t, []string{"0", "1"}, ids(last.State.NearestNeighbors))
	assert.Contains(t, last.Description, "**A**")
}

func TestKNN_StepPairs(t *testing.T) {
	def := knn.New()
	values, err := def.Params().Resolve(params.Values{"points": 8, "k": 3})
	require.NoError(t, err)
	cfg, err := def.Config(values, domain.NewSource(4))
	require.NoError(t, err)

	steps, err := def.Steps(context.Background(), cfg, def.InitialStep(cfg))
	require.NoError(t, err)
	require.NoError(t, domain.ValidateTrace(steps))
	require.Len(t, steps, 2*len(cfg.Points)+2)

	for i := range cfg.Points {
		calc, upd := steps[1+2*i], steps[2+2*i]
		assert.Equal(t, knn.StepCalculateDistance, calc.Type)
		assert.Equal(t, knn.StepUpdateNearestNeighbors, upd.Type)
		assert.Equal(t, i, calc.State.CurrentIndex)
		assert.Len(t, calc.State.Distances, i+1)
		assert.Len(t, upd.State.NearestNeighbors, min(3, i+1))
	}

	// Earlier snapshots are not touched by later steps.
	assert.Len(t, steps[1].State.Distances, 1)
	assert.Equal(t, knn.QueryGroup, steps[1].State.QueryPoint.Group)
	assert.NotEqual(t, knn.QueryGroup, steps[len(steps)-1].State.QueryPoint.Group)
}

func TestKNN_ConfigCoordsAreChecked(t *testing.T) {
	def := knn.New()
	values, err := def.Params().Resolve(params.Values{"points": 50})
	require.NoError(t, err)
	cfg, err := def.Config(values, domain.NewSource(1))
	require.NoError(t, err)

	for i := range cfg.Points {
		c := cfg.Points[i].Coords
		assert.GreaterOrEqual(t, c.X, 1.0)
		assert.LessOrEqual(t, c.X, 100.0)
		for j := i + 1; j < len(cfg.Points); j++ {
			assert.GreaterOrEqual(t, c.Distance(cfg.Points[j].Coords), 10.0)
		}
	}
	assert.Equal(t, domain.Coords3D{X: 50, Y: 50, Z: 50}, cfg.Query.Coords)
}

func TestNearest_StableTies(t *testing.T) {
	ds := []knn.Distance{
		{Point: knn.DataPoint{ID: "a"}, Distance: 2},
		{Point: knn.DataPoint{ID: "b"}, Distance: 1},
		{Point: knn.DataPoint{ID: "c"}, Distance: 1},
	}
	assert.Equal(t, []string{"b", "c"}, ids(knn.Nearest(ds, 2)))
	assert.Len(t, knn.Nearest(ds, 10), 3)
}

func TestVote_TieGoesToFirstGroup(t *testing.T) {
	neighbours := []knn.DataPoint{{Group: groupB}, {Group: groupA}}
	g, ok := knn.Vote(neighbours, []domain.Group{groupA, groupB})
	require.True(t, ok)
	assert.Equal(t, groupA, g)

	_, ok = knn.Vote(nil, []domain.Group{groupA})
	assert.False(t, ok)
}

func TestKNN_NoPoints(t *testing.T) {
	def := knn.New()
	cfg := knn.Config{K: 1, Groups: []domain.Group{groupA}}
	_, err := def.Steps(context.Background(), cfg, def.InitialStep(cfg))
	assert.ErrorIs(t, err, knn.ErrNoNeighbors)
}

func ids(points []knn.DataPoint) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = p.ID
	}
	return out
}
