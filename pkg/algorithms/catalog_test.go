package algorithms_test

import (
	"context"
	"testing"

	"github.com/aretw0/mlens/pkg/algorithms"
	"github.com/aretw0/mlens/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_EveryAlgorithmBuilds(t *testing.T) {
	r := algorithms.Default()
	assert.Equal(t, []string{"autoencoder", "ffnn", "kmeans", "knn", "linear-regression", "svm", "xgboost"}, r.Slugs())

	for _, alg := range r.List() {
		t.Run(alg.Meta().Slug, func(t *testing.T) {
			for _, p := range alg.Params() {
				assert.NotEmpty(t, p.Label, p.Name)
				assert.NotNil(t, p.Default, p.Name)
			}

			a, err := alg.BuildTrace(context.Background(), nil, 42)
			require.NoError(t, err)
			require.NoError(t, domain.ValidateTrace(a))
			assert.Greater(t, len(a), 1)
			for _, s := range a {
				assert.NotEmpty(t, s.Title, "step %s has a title", s.Type)
			}

			b, err := alg.BuildTrace(context.Background(), nil, 42)
			require.NoError(t, err)
			assert.Equal(t, a, b, "same seed, same trace")
		})
	}
}

func TestCatalog_Synonyms(t *testing.T) {
	r := algorithms.Default()
	a, err := r.Get("k-means")
	require.NoError(t, err)
	assert.Equal(t, "kmeans", a.Meta().Slug)
}
