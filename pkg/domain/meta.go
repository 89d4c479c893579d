package domain

import "slices"

// Dimensions of the scene an algorithm is rendered in.
type Dimensions int

const (
	Scene2D Dimensions = 2
	Scene3D Dimensions = 3
)

// Meta describes an algorithm plug-in.
type Meta struct {
	Slug             string     `json:"slug" yaml:"slug"`
	Title            string     `json:"title" yaml:"title"`
	ShortDescription string     `json:"shortDescription" yaml:"shortDescription"`
	Description      string     `json:"description" yaml:"description"`
	Synonyms         []string   `json:"synonyms,omitempty" yaml:"synonyms,omitempty"`
	Dimensions       Dimensions `json:"dimensions" yaml:"dimensions"`
}

// Matches reports whether name is the slug or one of the synonyms.
func (m Meta) Matches(name string) bool {
	return m.Slug == name || slices.Contains(m.Synonyms, name)
}
