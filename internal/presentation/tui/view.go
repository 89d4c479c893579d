package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/mlens/pkg/domain"
	"github.com/muesli/termenv"
)

// Printer writes navigator views to a terminal or a plain stream.
type Printer struct {
	w      io.Writer
	out    *termenv.Output
	render Renderer
}

// NewPrinter detects colour support from w. Non-terminals get the Ascii
// profile and unrendered Markdown.
func NewPrinter(w io.Writer) *Printer {
	if !IsTerminal(w) {
		return NewPlainPrinter(w)
	}
	return &Printer{w: w, out: termenv.NewOutput(w), render: NewRenderer()}
}

// NewPlainPrinter never emits escape sequences.
func NewPlainPrinter(w io.Writer) *Printer {
	return &Printer{
		w:      w,
		out:    termenv.NewOutput(w, termenv.WithProfile(termenv.Ascii)),
		render: PlainRenderer,
	}
}

// Writer returns the underlying stream.
func (p *Printer) Writer() io.Writer {
	return p.w
}

// Step prints the title and narration of the current step followed by the
// status line.
func (p *Printer) Step(v domain.View) {
	if v.Status == domain.StatusError {
		fmt.Fprintln(p.w, p.out.String("error: "+v.Error).Foreground(p.out.Color("#f87171")))
		return
	}

	title := v.Step.Title
	if title == "" {
		title = string(v.Step.Type)
	}
	fmt.Fprintln(p.w, p.out.String(title).Bold())

	if desc := strings.TrimSpace(v.Step.Description); desc != "" {
		rendered, err := p.render(desc)
		if err != nil {
			rendered = desc + "\n"
		}
		fmt.Fprint(p.w, rendered)
	}
	fmt.Fprintln(p.w, p.Status(v))
}

// Status renders a one-line summary: position, status and playback.
func (p *Printer) Status(v domain.View) string {
	var b strings.Builder
	b.WriteString(p.out.String(fmt.Sprintf("[%s]", v.Algorithm)).Foreground(p.out.Color("#22d3ee")).String())
	if v.Total > 0 {
		fmt.Fprintf(&b, " step %d/%d", v.Index+1, v.Total)
	}
	b.WriteString(" ")
	b.WriteString(p.statusLabel(v))
	if v.Playing {
		b.WriteString(" ")
		b.WriteString(p.out.String("▶ playing").Foreground(p.out.Color("#4ade80")).String())
	}
	if v.AtEnd() {
		b.WriteString(" ")
		b.WriteString(p.out.String("(end)").Faint().String())
	}
	return b.String()
}

func (p *Printer) statusLabel(v domain.View) string {
	color := "#a3a3a3"
	switch v.Status {
	case domain.StatusRunning:
		color = "#4ade80"
	case domain.StatusLoading:
		color = "#facc15"
	case domain.StatusError:
		color = "#f87171"
	}
	return p.out.String(string(v.Status)).Foreground(p.out.Color(color)).String()
}

// Message prints a system message.
func (p *Printer) Message(format string, args ...any) {
	fmt.Fprintf(p.w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// Help lists the interactive keys.
func (p *Printer) Help() {
	fmt.Fprintln(p.w, p.out.String("keys: [enter|n] forward  [b] back  [g N] goto  [p] play  [s] pause  [r] reset  [q] quit").Faint())
}

// Line prints s on its own line.
func (p *Printer) Line(s string) {
	fmt.Fprintln(p.w, s)
}

// Markdown renders a free-standing Markdown block such as a preset intro.
func (p *Printer) Markdown(md string) {
	rendered, err := p.render(md)
	if err != nil {
		rendered = md + "\n"
	}
	fmt.Fprint(p.w, rendered)
}
