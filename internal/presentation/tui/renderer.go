package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Renderer turns a Markdown narration into terminal output.
type Renderer func(markdown string) (string, error)

// NewRenderer returns a Renderer backed by glamour.
// If glamour cannot be initialised the Markdown is printed as is.
func NewRenderer() Renderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return PlainRenderer
	}
	return r.Render
}

// PlainRenderer returns the Markdown untouched. Used for pipes and tests.
func PlainRenderer(markdown string) (string, error) {
	return strings.TrimSpace(markdown) + "\n", nil
}
