package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/mlens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	got := run(t, "version")
	assert.Equal(t, "mlens version "+strings.TrimSpace(mlens.Version)+"\n", got)
}

func TestListCommand(t *testing.T) {
	got := run(t, "list")
	for _, slug := range []string{"kmeans", "knn", "linear-regression", "ffnn", "autoencoder", "svm", "xgboost"} {
		assert.Contains(t, got, slug)
	}
}

func TestTraceCommand(t *testing.T) {
	got := run(t, "trace", "kmeans", "--seed", "4", "-p", "k=2", "--log-level", "error")

	var doc struct {
		Algorithm string `json:"algorithm"`
		Seed      int64  `json:"seed"`
		Steps     []struct {
			Type  string `json:"type"`
			Title string `json:"title"`
		} `json:"steps"`
	}
	require.NoError(t, json.Unmarshal([]byte(got), &doc))
	assert.Equal(t, "kmeans", doc.Algorithm)
	assert.EqualValues(t, 4, doc.Seed)
	require.NotEmpty(t, doc.Steps)
	assert.Equal(t, "initial", doc.Steps[0].Type)
	assert.Equal(t, "Initialize Centroids", doc.Steps[1].Title)
}
