// Package loam reads algorithm presets from a directory of Markdown (or JSON
// and YAML) documents managed by Loam.
//
// A preset is a parameter set worth showing, e.g.
//
//	---
//	algorithm: kmeans
//	seed: 7
//	params:
//	  k: 4
//	  points: 60
//	---
//	Four well separated blobs.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/mlens/pkg/domain"
	"github.com/aretw0/mlens/pkg/params"
)

// ErrInvalidPreset is returned for a preset without an algorithm.
var ErrInvalidPreset = fmt.Errorf("%w: invalid preset", domain.ErrConfiguration)

// Preset is a named, reproducible session configuration.
type Preset struct {
	Name      string        `json:"name" yaml:"name"`
	Algorithm string        `json:"algorithm" yaml:"algorithm"`
	Title     string        `json:"title,omitempty" yaml:"title,omitempty"`
	Seed      int64         `json:"seed" yaml:"seed"`
	Params    params.Values `json:"params,omitempty" yaml:"params,omitempty"`
	Play      bool          `json:"play,omitempty" yaml:"play,omitempty"`
	Intro     string        `json:"intro,omitempty" yaml:"intro,omitempty"`
}

// Loader adapts a Loam repository to a preset catalogue.
type Loader struct {
	Repo *loam.TypedRepository[PresetMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[PresetMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initialises a read-only Loam repository at dir.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	// Strict mode keeps numbers as json.Number so large seeds survive.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[PresetMetadata](repo)), nil
}

// Get retrieves a preset by name. The extension may be omitted.
func (l *Loader) Get(ctx context.Context, name string) (Preset, error) {
	doc, err := l.Repo.Get(ctx, name)
	if err != nil {
		return Preset{}, fmt.Errorf("preset %q: %w: %v", name, domain.ErrNotFound, err)
	}
	return toPreset(doc.ID, doc.Data, doc.Content)
}

// List returns every preset, sorted by name.
func (l *Loader) List(ctx context.Context) ([]Preset, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	presets := make([]Preset, 0, len(docs))
	for _, doc := range docs {
		p, err := toPreset(doc.ID, doc.Data, doc.Content)
		if err != nil {
			return nil, err
		}
		// Collision Detection
		if existing, ok := seen[p.Name]; ok {
			return nil, fmt.Errorf("collision detected: preset '%s' is defined in both '%s' and '%s'", p.Name, existing, doc.ID)
		}
		seen[p.Name] = doc.ID
		presets = append(presets, p)
	}

	slices.SortFunc(presets, func(a, b Preset) int { return strings.Compare(a.Name, b.Name) })
	return presets, nil
}

func toPreset(docID string, meta PresetMetadata, content string) (Preset, error) {
	rawID := meta.ID
	if rawID == "" {
		rawID = docID
	}
	name := trimExtension(rawID)
	if meta.Algorithm == "" {
		return Preset{}, fmt.Errorf("%w: %s has no algorithm", ErrInvalidPreset, name)
	}
	return Preset{
		Name:      name,
		Algorithm: meta.Algorithm,
		Title:     meta.Title,
		Seed:      meta.Seed,
		Params:    params.Values(meta.Params),
		Play:      meta.Play,
		Intro:     strings.TrimSpace(content),
	}, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
