package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the mlens ASCII art banner to w.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	// Teal to blue, one shade per row.
	lines := []struct{ text, color string }{
		{"            _                ", "#2dd4bf"},
		{"  _ __ ___ | | ___ _ __  ___ ", "#22d3ee"},
		{" | '_ ` _ \\| |/ _ \\ '_ \\/ __|", "#38bdf8"},
		{" | | | | | | |  __/ | | \\__ \\", "#60a5fa"},
		{" |_| |_| |_|_|\\___|_| |_|___/", "#818cf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
