package cli

import (
	"bufio"
	"context"
	"io"
	"log/slog"

	"github.com/aretw0/mlens/internal/logging"
	"github.com/aretw0/mlens/internal/presentation/tui"
	"github.com/aretw0/mlens/pkg/domain"
	"github.com/aretw0/mlens/pkg/ports"
)

// Player drives a session from a line-oriented terminal.
type Player struct {
	session ports.Session
	printer *tui.Printer
	logger  *slog.Logger

	shown bool
	last  domain.View
}

// NewPlayer wraps a session in the configuring state.
func NewPlayer(s ports.Session, printer *tui.Printer, logger *slog.Logger) *Player {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Player{session: s, printer: printer, logger: logger}
}

// Load builds the trace and prints the first step.
func (p *Player) Load(ctx context.Context) error {
	p.session.Start(ctx)
	if err := p.session.Wait(ctx); err != nil {
		p.show(p.session.View())
		return err
	}
	p.show(p.session.View())
	return nil
}

// Run reads commands from in until quit, end of input or ctx is done.
// Auto-play ticks are printed as they happen.
func (p *Player) Run(ctx context.Context, in io.Reader, play bool) error {
	views, cancel := p.session.Subscribe()
	defer cancel()

	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go pump(in, lines, done)

	p.printer.Help()
	if play {
		p.apply(Command{Action: ActionPlay})
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-views:
			if !ok {
				return nil
			}
			// Views may be stale by the time they arrive; always print the latest.
			p.show(p.session.View())
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			cmd, err := ParseCommand(line)
			if err != nil {
				p.printer.Message("%v", err)
				continue
			}
			if cmd.Action == ActionQuit {
				return nil
			}
			p.apply(cmd)
		}
	}
}

// RunHeadless prints every remaining step without waiting for input or ticks.
func (p *Player) RunHeadless(ctx context.Context) error {
	for !p.session.View().AtEnd() {
		if err := ctx.Err(); err != nil {
			return err
		}
		before := p.session.View().Index
		p.session.Forward()
		v := p.session.View()
		if v.Index == before {
			// Not navigable.
			return nil
		}
		p.show(v)
	}
	return nil
}

// View returns the session's current view.
func (p *Player) View() domain.View {
	return p.session.View()
}

func (p *Player) apply(cmd Command) {
	p.logger.Debug("Player command", "action", cmd.Action, "step", cmd.Step)
	switch cmd.Action {
	case ActionForward:
		p.session.Forward()
	case ActionBackward:
		p.session.Backward()
	case ActionGoto:
		p.session.Goto(cmd.Step - 1)
	case ActionPlay:
		p.session.Play()
	case ActionPause:
		p.session.Pause()
	case ActionReset:
		p.session.Reset()
	case ActionHelp:
		p.printer.Help()
		return
	}
	p.show(p.session.View())
}

// show prints v when it differs from what was printed last: the whole step
// when the position or status moved, the status line when only playback did.
func (p *Player) show(v domain.View) {
	switch {
	case !p.shown || v.Index != p.last.Index || v.Status != p.last.Status:
		p.printer.Step(v)
	case v.Playing != p.last.Playing:
		p.printer.Line(p.printer.Status(v))
	default:
		return
	}
	p.shown = true
	p.last = v
}

// pump forwards input lines until EOF or until done is closed. A read that
// is already blocked on a terminal stays blocked until the next line.
func pump(in io.Reader, out chan<- string, done <-chan struct{}) {
	defer close(out)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		select {
		case out <- scanner.Text():
		case <-done:
			return
		}
	}
}
