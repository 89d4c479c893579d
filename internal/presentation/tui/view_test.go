package tui

import (
	"bytes"
	"testing"

	"github.com/aretw0/mlens/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestPrinter_Step(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlainPrinter(&buf)

	p.Step(domain.View{
		Algorithm:    "kmeans",
		Status:       domain.StatusRunning,
		Index:        1,
		Total:        5,
		CanGoForward: true,
		Step: domain.Step[any]{
			Type:      "initializeCentroids",
			Narration: domain.Narration{Title: "Initialize Centroids", Description: "Pick **3** points."},
		},
	})

	assert.Equal(t, "Initialize Centroids\nPick **3** points.\n[kmeans] step 2/5 running\n", buf.String())
}

func TestPrinter_Status(t *testing.T) {
	p := NewPlainPrinter(&bytes.Buffer{})

	assert.Equal(t, "[knn] configuring", p.Status(domain.View{Algorithm: "knn", Status: domain.StatusConfiguring}))
	assert.Equal(t, "[knn] step 3/3 running (end)", p.Status(domain.View{Algorithm: "knn", Status: domain.StatusRunning, Index: 2, Total: 3}))
	assert.Equal(t, "[knn] step 1/3 running ▶ playing", p.Status(domain.View{
		Algorithm: "knn", Status: domain.StatusRunning, Total: 3, Playing: true, CanGoForward: true,
	}))
}

func TestPrinter_Error(t *testing.T) {
	var buf bytes.Buffer
	NewPlainPrinter(&buf).Step(domain.View{Status: domain.StatusError, Error: "boom"})
	assert.Equal(t, "error: boom\n", buf.String())
}

func TestNewPrinter_NonTerminal(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, IsTerminal(&buf))

	p := NewPrinter(&buf)
	p.Message("Session %q active.", "abc")
	assert.Equal(t, ">>> Session \"abc\" active.\n", buf.String())
}

func TestPrintBanner_Plain(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|_| |_| |_|_|")
}
