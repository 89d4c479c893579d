package xgboost_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/mlens/pkg/algorithms/xgboost"
	"github.com/aretw0/mlens/pkg/domain"
	"github.com/aretw0/mlens/pkg/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func config(t *testing.T, def xgboost.Definition) xgboost.Config {
	t.Helper()
	values, err := def.Params().Resolve(params.Values{"points": 30, "numTrees": 20, "learningRate": 0.3})
	require.NoError(t, err)
	cfg, err := def.Config(values, domain.NewSource(5))
	require.NoError(t, err)
	return cfg
}

func TestXGBoost_LocalTrace(t *testing.T) {
	def := xgboost.New()
	cfg := config(t, def)
	require.Len(t, cfg.TrainingPoints, 30)

	steps, err := def.Steps(context.Background(), cfg, def.InitialStep(cfg))
	require.NoError(t, err)
	require.NoError(t, domain.ValidateTrace(steps))
	require.Len(t, steps, 5)

	assert.Equal(t, xgboost.StepCalculateResiduals, steps[1].Type)
	assert.Len(t, steps[1].State.Residuals, 30)
	for i, r := range steps[1].State.Residuals {
		if cfg.TrainingPoints[i].Label == 1 {
			assert.Equal(t, 0.5, r)
		} else {
			assert.Equal(t, -0.5, r)
		}
	}

	assert.Equal(t, xgboost.StepBuildTree, steps[2].Type)
	require.NotNil(t, steps[2].State.Tree)
	assert.LessOrEqual(t, steps[2].State.Tree.Depth(), cfg.MaxDepth)

	final := steps[4].State.BoundaryPredictions
	require.Len(t, final, 51*51)
	assert.Equal(t, 150.0, final[len(final)-1].X)
	for _, p := range final {
		assert.GreaterOrEqual(t, p.Prediction, 0.0)
		assert.LessOrEqual(t, p.Prediction, 1.0)
	}
	assert.NotEqual(t, steps[3].State.BoundaryPredictions, final)
}

func TestXGBoost_FitsClusterCentres(t *testing.T) {
	def := xgboost.New()
	cfg := config(t, def)
	frames, err := xgboost.Simulate(context.Background(), cfg, xgboost.LocalBooster{})
	require.NoError(t, err)

	at := func(x, y float64) float64 {
		for _, p := range frames[3].State.BoundaryPredictions {
			if p.X == x && p.Y == y {
				return p.Prediction
			}
		}
		t.Fatalf("no grid sample at %v,%v", x, y)
		return 0
	}
	assert.Greater(t, at(105, 105), 0.5)
	assert.Less(t, at(30, 30), 0.5)
}

func TestRemoteBooster_RoundTrip(t *testing.T) {
	var got xgboost.WireRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		req, err := xgboost.Decode(got)
		require.NoError(t, err)
		res, err := xgboost.LocalBooster{}.Boost(r.Context(), req)
		require.NoError(t, err)
		_ = json.NewEncoder(w).Encode(xgboost.WireResponse{DecisionBoundary: res.Boundary})
	}))
	defer srv.Close()

	def := xgboost.New(xgboost.WithBooster(xgboost.NewRemoteBooster(srv.URL)))
	cfg := config(t, def)
	steps, err := def.Steps(context.Background(), cfg, def.InitialStep(cfg))
	require.NoError(t, err)

	assert.Len(t, got.TrainingPoints, 30)
	assert.Equal(t, 0, got.TrainingPoints[0].ID)
	assert.Len(t, got.BoundaryPoints, 51*51)
	assert.Equal(t, 20, got.NumTrees)

	assert.Nil(t, steps[1].State.Residuals)
	assert.Nil(t, steps[2].State.Tree)
	assert.Equal(t, steps[4].State.BoundaryPredictions, steps[3].State.BoundaryPredictions)
	assert.Len(t, steps[4].State.BoundaryPredictions, 51*51)
}

func TestRemoteBooster_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Failed to process XGBoost model", http.StatusInternalServerError)
	}))
	defer srv.Close()

	def := xgboost.New(xgboost.WithBooster(xgboost.NewRemoteBooster(srv.URL)))
	cfg := config(t, def)
	_, err := def.Steps(context.Background(), cfg, def.InitialStep(cfg))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBuild)
	assert.Contains(t, err.Error(), "500")
}

func TestDecode_Malformed(t *testing.T) {
	_, err := xgboost.Decode(xgboost.WireRequest{BoundaryPoints: []xgboost.WireBoundaryPoint{{Coords: []float64{1}}}})
	assert.ErrorIs(t, err, xgboost.ErrBadWireRequest)
}

func TestBoundaryGrid(t *testing.T) {
	grid := xgboost.BoundaryGrid()
	require.Len(t, grid, 51*51)
	assert.Equal(t, domain.Coords2D{}, grid[0])
	assert.Equal(t, domain.Coords2D{X: 0, Y: 3}, grid[1])
	assert.Equal(t, domain.Coords2D{X: 150, Y: 150}, grid[len(grid)-1])
}

func TestDefinition_CacheNamespace(t *testing.T) {
	assert.Equal(t, "local", xgboost.New().CacheNamespace())
	assert.Equal(t, "remote=http://a/api/xgboost",
		xgboost.New(xgboost.WithBooster(xgboost.NewRemoteBooster("http://a/api/xgboost"))).CacheNamespace())
	assert.NotEqual(t,
		xgboost.New(xgboost.WithBooster(xgboost.NewRemoteBooster("http://a"))).CacheNamespace(),
		xgboost.New(xgboost.WithBooster(xgboost.NewRemoteBooster("http://b"))).CacheNamespace())
}
