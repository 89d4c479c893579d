package loam

import (
	"context"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/mlens/internal/testutils"
	"github.com/aretw0/mlens/pkg/domain"
	"github.com/aretw0/mlens/pkg/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, files map[string]string) *Loader {
	t.Helper()
	_, repo := testutils.SetupPresetRepo(t, files)
	return New(loam.NewTypedRepository[PresetMetadata](repo))
}

func TestLoader_Get(t *testing.T) {
	loader := seed(t, map[string]string{
		"blobs.md": `---
algorithm: kmeans
title: Four blobs
seed: 7
params:
  k: 4
  points: 60
play: true
---
Four well separated blobs.`,
	})

	p, err := loader.Get(context.Background(), "blobs")
	require.NoError(t, err)
	assert.Equal(t, "blobs", p.Name)
	assert.Equal(t, "kmeans", p.Algorithm)
	assert.Equal(t, "Four blobs", p.Title)
	assert.EqualValues(t, 7, p.Seed)
	assert.True(t, p.Play)
	assert.Equal(t, "Four well separated blobs.", p.Intro)

	// Parameter values must resolve regardless of how the repository typed them.
	var schema = params.Schema{
		params.Slider("k", "K", "", 3, 2, 10, 1),
		params.Slider("points", "Points", "", 30, 3, 100, 1),
	}
	resolved, err := schema.Resolve(p.Params)
	require.NoError(t, err)
	assert.Equal(t, params.Values{"k": 4.0, "points": 60.0}, resolved)
}

func TestLoader_List_SortsAndNormalizes(t *testing.T) {
	loader := seed(t, map[string]string{
		"zeta.md": `---
algorithm: svm
---
`,
		"alpha.json": `{"algorithm": "knn", "seed": 2}`,
	})

	presets, err := loader.List(context.Background())
	require.NoError(t, err)
	require.Len(t, presets, 2)
	assert.Equal(t, "alpha", presets[0].Name)
	assert.Equal(t, "knn", presets[0].Algorithm)
	assert.Equal(t, "zeta", presets[1].Name)
}

func TestLoader_List_DetectsCollisions(t *testing.T) {
	loader := seed(t, map[string]string{
		"foo.md": `---
algorithm: kmeans
---
`,
		"foo.json": `{"algorithm": "knn"}`,
	})

	_, err := loader.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision detected")
}

func TestLoader_InvalidPreset(t *testing.T) {
	loader := seed(t, map[string]string{
		"empty.md": `---
title: nothing to run
---
`,
	})

	_, err := loader.Get(context.Background(), "empty")
	assert.ErrorIs(t, err, ErrInvalidPreset)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestLoader_Missing(t *testing.T) {
	loader := seed(t, nil)
	_, err := loader.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
