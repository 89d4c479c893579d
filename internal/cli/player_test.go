package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/mlens"
	"github.com/aretw0/mlens/internal/presentation/tui"
	"github.com/aretw0/mlens/pkg/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer lets the test read output while the player writes it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newPlayer(t *testing.T, w io.Writer, opts ...mlens.Option) *Player {
	t.Helper()
	engine := mlens.New(opts...)
	t.Cleanup(engine.Close)

	handle, err := engine.NewSession("kmeans", params.Values{"points": 12, "k": 2}, 7)
	require.NoError(t, err)
	return NewPlayer(handle.Session, tui.NewPlainPrinter(w), nil)
}

func TestPlayer_Commands(t *testing.T) {
	var out bytes.Buffer
	p := newPlayer(t, &out)
	ctx := context.Background()

	require.NoError(t, p.Load(ctx))
	require.NoError(t, p.Run(ctx, strings.NewReader("n\nb\ng 3\nx\nq\nn\n"), false))

	got := out.String()
	assert.Equal(t, 2, strings.Count(got, "Initial State\n"), "shown on load and after going back")
	assert.Equal(t, 1, strings.Count(got, "Initialize Centroids\n"))
	assert.Contains(t, got, "Assign Points to Clusters\n")
	assert.Contains(t, got, `>>> unknown command: "x"`)
	assert.Equal(t, 2, p.View().Index, "input after quit is ignored")
}

func TestPlayer_EndOfInputQuits(t *testing.T) {
	var out bytes.Buffer
	p := newPlayer(t, &out)
	ctx := context.Background()

	require.NoError(t, p.Load(ctx))
	require.NoError(t, p.Run(ctx, strings.NewReader("g 1000\n"), false))

	v := p.View()
	assert.True(t, v.AtEnd(), "goto past the end clamps to the last step")
	assert.Contains(t, out.String(), "(end)")
}

func TestPlayer_Headless(t *testing.T) {
	var out bytes.Buffer
	p := newPlayer(t, &out)
	ctx := context.Background()

	require.NoError(t, p.Load(ctx))
	require.NoError(t, p.RunHeadless(ctx))

	v := p.View()
	require.True(t, v.AtEnd())
	assert.Equal(t, v.Total, strings.Count(out.String(), "[kmeans] step "), "every step printed once")
}

func TestPlayer_Play(t *testing.T) {
	out := &syncBuffer{}
	p := newPlayer(t, out, mlens.WithTickInterval(2*time.Millisecond))
	ctx := context.Background()
	require.NoError(t, p.Load(ctx))

	in, feed := io.Pipe()
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, in, true) }()

	require.Eventually(t, func() bool {
		v := p.View()
		return v.AtEnd() && !v.Playing
	}, 5*time.Second, 5*time.Millisecond)

	_, err := io.WriteString(feed, "q\n")
	require.NoError(t, err)
	require.NoError(t, <-done)

	assert.Contains(t, out.String(), "▶ playing")
	assert.Contains(t, out.String(), "Check Convergence")
}

func TestPlayer_ContextCancel(t *testing.T) {
	p := newPlayer(t, io.Discard)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, p.Load(ctx))

	in, w := io.Pipe()
	defer w.Close()
	cancel()
	assert.ErrorIs(t, p.Run(ctx, in, false), context.Canceled)
}
