package session_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/mlens/pkg/algorithms/kmeans"
	"github.com/aretw0/mlens/pkg/domain"
	"github.com/aretw0/mlens/pkg/navigator"
	"github.com/aretw0/mlens/pkg/params"
	"github.com/aretw0/mlens/pkg/ports"
	"github.com/aretw0/mlens/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *session.Manager {
	t.Helper()
	n := 0
	mgr := session.NewManager(session.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("s-%d", n)
	}))
	t.Cleanup(mgr.Close)
	return mgr
}

func TestManager_CreateGetDelete(t *testing.T) {
	mgr := newManager(t)
	ctx := context.Background()

	h, err := mgr.Create(navigator.Bind(kmeans.New()), nil, ports.SessionConfig{Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, "s-1", h.ID)
	assert.Equal(t, "kmeans", h.Algorithm)
	assert.Equal(t, domain.StatusConfiguring, h.Session.View().Status)

	got, err := mgr.Get(h.ID)
	require.NoError(t, err)
	assert.Same(t, h.Session, got.Session)

	require.NoError(t, mgr.Delete(ctx, h.ID))
	_, err = mgr.Get(h.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, mgr.Delete(ctx, h.ID), domain.ErrNotFound)
}

func TestManager_CreateRejectsBadParams(t *testing.T) {
	mgr := newManager(t)
	_, err := mgr.Create(navigator.Bind(kmeans.New()), params.Values{"k": 99}, ports.SessionConfig{})
	assert.ErrorIs(t, err, params.ErrOutOfRange)
	assert.Zero(t, mgr.Len())
}

func TestManager_ListOrder(t *testing.T) {
	mgr := newManager(t)
	alg := navigator.Bind(kmeans.New())
	for i := 0; i < 3; i++ {
		_, err := mgr.Create(alg, nil, ports.SessionConfig{Seed: int64(i)})
		require.NoError(t, err)
	}

	var ids []string
	for _, h := range mgr.List() {
		ids = append(ids, h.ID)
	}
	assert.Equal(t, []string{"s-1", "s-2", "s-3"}, ids)
}

func TestManager_SessionsAreIndependent(t *testing.T) {
	mgr := newManager(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	alg := navigator.Bind(kmeans.New())
	a, err := mgr.Create(alg, nil, ports.SessionConfig{Seed: 1})
	require.NoError(t, err)
	b, err := mgr.Create(alg, nil, ports.SessionConfig{Seed: 1})
	require.NoError(t, err)

	for _, h := range []session.Handle{a, b} {
		h.Session.Start(ctx)
		require.NoError(t, h.Session.Wait(ctx))
	}

	a.Session.Forward()
	a.Session.Forward()
	assert.Equal(t, 2, a.Session.View().Index)
	assert.Equal(t, 0, b.Session.View().Index)
	assert.Equal(t, a.Session.Trace(), b.Session.Trace())
}

func TestManager_WithLockSerializes(t *testing.T) {
	mgr := newManager(t)
	ctx := context.Background()
	h, err := mgr.Create(navigator.Bind(kmeans.New()), nil, ports.SessionConfig{Seed: 1})
	require.NoError(t, err)

	var (
		wg     sync.WaitGroup
		inside int
		peak   int
		mu     sync.Mutex
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := mgr.WithLock(ctx, h.ID, func(ctx context.Context, h session.Handle) error {
				mu.Lock()
				inside++
				peak = max(peak, inside)
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, peak)
}

func TestManager_CloseRejectsCreate(t *testing.T) {
	mgr := session.NewManager()
	_, err := mgr.Create(navigator.Bind(kmeans.New()), nil, ports.SessionConfig{})
	require.NoError(t, err)

	mgr.Close()
	assert.Zero(t, mgr.Len())

	_, err = mgr.Create(navigator.Bind(kmeans.New()), nil, ports.SessionConfig{})
	assert.ErrorIs(t, err, domain.ErrClosed)
}
