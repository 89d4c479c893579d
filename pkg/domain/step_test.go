package domain_test

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/mlens/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterState struct {
	N int `json:"n"`
}

func TestNarrate(t *testing.T) {
	initial := domain.Step[counterState]{Type: domain.StepInitial, Narration: domain.Narration{Title: "Start"}}
	frames := []domain.Frame[counterState]{
		{Type: "tick", State: counterState{N: 1}},
		{Type: "tick", State: counterState{N: 2}},
	}

	steps := domain.Narrate(initial, frames, func(f domain.Frame[counterState]) domain.Narration {
		return domain.Narration{Title: fmt.Sprintf("Tick %d", f.State.N)}
	})

	require.Len(t, steps, 3)
	assert.Equal(t, domain.StepInitial, steps[0].Type)
	assert.Equal(t, "Tick 2", steps[2].Title)
	assert.Equal(t, 2, steps[2].State.N)
	assert.NoError(t, domain.ValidateTrace(steps))
}

func TestValidateTrace(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		err := domain.ValidateTrace([]domain.Step[counterState]{})
		assert.ErrorIs(t, err, domain.ErrInvalidTrace)
	})

	t.Run("Wrong Head", func(t *testing.T) {
		err := domain.ValidateTrace([]domain.Step[counterState]{{Type: "tick"}})
		assert.ErrorIs(t, err, domain.ErrInvalidTrace)
	})
}

func TestStep_JSONShape(t *testing.T) {
	step := domain.Step[counterState]{
		Type:      "tick",
		Narration: domain.Narration{Title: "T", Description: "D"},
		State:     counterState{N: 7},
	}

	data, err := json.Marshal(step)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"tick","title":"T","description":"D","state":{"n":7}}`, string(data))

	var back domain.Step[counterState]
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, step, back)
}

func TestLastOfType(t *testing.T) {
	steps := []domain.Step[counterState]{{Type: domain.StepInitial}, {Type: "a"}, {Type: "b"}, {Type: "a"}}
	assert.Equal(t, 3, domain.LastOfType(steps, "a"))
	assert.Equal(t, 2, domain.LastOfType(steps, "b"))
	assert.Equal(t, -1, domain.LastOfType(steps, "c"))
	assert.Equal(t, map[domain.StepType]int{domain.StepInitial: 1, "a": 2, "b": 1}, domain.CountTypes(steps))
}

func TestSequence_Independent(t *testing.T) {
	a := domain.NewSequence()
	b := domain.NewSequence()

	assert.Equal(t, "point-0", a.Next("point"))
	assert.Equal(t, "point-1", a.Next("point"))
	assert.Equal(t, "centroid-0", a.Next("centroid"))
	assert.Equal(t, "point-0", b.Next("point"), "sequences must not share counters")
}

func TestSequence_Concurrent(t *testing.T) {
	seq := domain.NewSequence()
	seen := sync.Map{}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := seq.Next("n")
			_, dup := seen.LoadOrStore(id, true)
			assert.False(t, dup, "duplicate id %s", id)
		}()
	}
	wg.Wait()
}

func TestSource_Deterministic(t *testing.T) {
	a := domain.NewSource(42)
	b := domain.NewSource(42)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Rand.Float64(), b.Rand.Float64())
	}
}

func TestDistance(t *testing.T) {
	assert.InDelta(t, 5.0, domain.Coords2D{X: 0, Y: 0}.Distance(domain.Coords2D{X: 3, Y: 4}), 1e-12)
	assert.InDelta(t, 3.0, domain.Coords3D{}.Distance(domain.Coords3D{X: 1, Y: 2, Z: 2}), 1e-12)
}

func TestMeta_Matches(t *testing.T) {
	m := domain.Meta{Slug: "kmeans", Synonyms: []string{"k-means"}}
	assert.True(t, m.Matches("kmeans"))
	assert.True(t, m.Matches("k-means"))
	assert.False(t, m.Matches("knn"))
}
