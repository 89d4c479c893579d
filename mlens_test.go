package mlens_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/mlens"
	"github.com/aretw0/mlens/pkg/adapters/memory"
	"github.com/aretw0/mlens/pkg/algorithms/xgboost"
	"github.com/aretw0/mlens/pkg/domain"
	"github.com/aretw0/mlens/pkg/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Catalog(t *testing.T) {
	eng := mlens.New()
	defer eng.Close()

	assert.Len(t, eng.Algorithms(), 7)
	alg, err := eng.Algorithm("Clustering")
	require.NoError(t, err)
	assert.Equal(t, "kmeans", alg.Meta().Slug)

	_, err = eng.Algorithm("random-forest")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEngine_SessionLifecycle(t *testing.T) {
	var ready int
	eng := mlens.New(
		mlens.WithCache(memory.NewCache()),
		mlens.WithTickInterval(time.Millisecond),
		mlens.WithLifecycleHooks(domain.LifecycleHooks{
			OnTraceReady: func(context.Context, *domain.TraceEvent) { ready++ },
		}),
	)
	defer eng.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	h, err := eng.NewSession("knn", params.Values{"k": 2}, 3)
	require.NoError(t, err)
	assert.Len(t, eng.Sessions(), 1)

	h.Session.Start(ctx)
	require.NoError(t, h.Session.Wait(ctx))
	assert.Equal(t, domain.StatusRunning, h.Session.View().Status)
	assert.Equal(t, 1, ready)

	got, err := eng.Session(h.ID)
	require.NoError(t, err)
	assert.Equal(t, h.ID, got.ID)

	require.NoError(t, eng.CloseSession(ctx, h.ID))
	_, err = eng.Session(h.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEngine_TraceMatchesSession(t *testing.T) {
	eng := mlens.New()
	defer eng.Close()
	ctx := context.Background()

	steps, err := eng.Trace(ctx, "linear-regression", nil, 5)
	require.NoError(t, err)

	h, err := eng.NewSession("linear-regression", nil, 5)
	require.NoError(t, err)
	h.Session.Start(ctx)
	require.NoError(t, h.Session.Wait(ctx))
	assert.Equal(t, steps, h.Session.Trace())
}

type constBooster struct{ p float64 }

func (b constBooster) Boost(_ context.Context, req xgboost.Request) (xgboost.Result, error) {
	out := make([]xgboost.Prediction, len(req.Boundary))
	for i, c := range req.Boundary {
		out[i] = xgboost.Prediction{X: c.X, Y: c.Y, Prediction: b.p}
	}
	return xgboost.Result{Boundary: out}, nil
}

func TestEngine_SharedCacheSeparatesBoosters(t *testing.T) {
	cache := memory.NewCache()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	final := func(eng *mlens.Engine) xgboost.State {
		t.Helper()
		h, err := eng.NewSession("xgboost", nil, 7)
		require.NoError(t, err)
		h.Session.Start(ctx)
		require.NoError(t, h.Session.Wait(ctx))
		trace := h.Session.Trace()
		state, ok := trace[len(trace)-1].State.(xgboost.State)
		require.True(t, ok)
		return state
	}

	local := mlens.New(mlens.WithCache(cache))
	defer local.Close()
	final(local)

	custom := mlens.New(mlens.WithCache(cache), mlens.WithBooster(constBooster{p: 0.123}))
	defer custom.Close()
	got := final(custom)
	require.NotEmpty(t, got.BoundaryPredictions)
	assert.Equal(t, 0.123, got.BoundaryPredictions[0].Prediction)

	keys, err := cache.List(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestEngine_UnknownAlgorithm(t *testing.T) {
	eng := mlens.New()
	defer eng.Close()

	_, err := eng.NewSession("nope", nil, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = eng.Trace(context.Background(), "nope", nil, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
