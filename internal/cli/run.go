package cli

import (
	"context"
	"fmt"
	"io"
	"maps"
	"time"

	"github.com/aretw0/mlens/internal/config"
	"github.com/aretw0/mlens/internal/presentation/tui"
	"github.com/aretw0/mlens/pkg/adapters/loam"
	"github.com/aretw0/mlens/pkg/observability"
	"github.com/aretw0/mlens/pkg/params"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	Config    config.Config
	Algorithm string
	Params    []string // k=v assignments
	Seed      *int64   // nil picks the preset seed or a fresh one
	Preset    string
	Play      bool
	Interval  time.Duration
	Headless  bool

	// Presets overrides the catalogue opened from Config.Presets.Dir.
	Presets PresetSource
}

// PresetSource looks presets up by name.
type PresetSource interface {
	Get(ctx context.Context, name string) (loam.Preset, error)
}

// sessionSpec is what Execute resolves from flags and presets.
type sessionSpec struct {
	algorithm string
	values    params.Values
	seed      int64
	play      bool
	intro     string
}

// Execute handles the 'run' command: it builds one session and hands it to
// the interactive player, or prints the whole trace in headless mode.
func Execute(ctx context.Context, opts RunOptions, in io.Reader, out io.Writer) error {
	spec, err := resolve(ctx, opts)
	if err != nil {
		return err
	}

	cfg := opts.Config
	if opts.Interval > 0 {
		cfg.Server.TickInterval = opts.Interval
	}
	logger := createLogger(cfg.Log.Level, cfg.Log.Format)

	engine, cleanup, err := NewEngine(cfg, EngineOptions{
		Logger: logger,
		Hooks:  observability.LogHooks(logger),
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := cleanup(); err != nil {
			logger.Warn("Failed to release engine", "err", err)
		}
	}()

	printer := tui.NewPrinter(out)
	if opts.Headless {
		printer = tui.NewPlainPrinter(out)
	} else if tui.IsTerminal(out) {
		tui.PrintBanner(out)
	}

	handle, err := engine.NewSession(spec.algorithm, spec.values, spec.seed)
	if err != nil {
		return fmt.Errorf("error creating session: %w", err)
	}
	logger.Info("Session Created", "session_id", handle.ID, "algorithm", handle.Algorithm, "seed", spec.seed)
	if !opts.Headless {
		printer.Message("%s, seed %d. Replay with --seed %d.", handle.Session.Meta().Title, spec.seed, spec.seed)
	}
	if spec.intro != "" {
		printer.Markdown(spec.intro)
	}

	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()

	player := NewPlayer(handle.Session, printer, logger)
	runErr := player.Load(sigCtx)
	if runErr == nil {
		if opts.Headless {
			runErr = player.RunHeadless(sigCtx)
		} else {
			runErr = player.Run(sigCtx, in, spec.play)
		}
	}
	if sigCtx.Err() != nil && runErr == nil {
		runErr = sigCtx.Err()
	}

	if !opts.Headless {
		logCompletion(printer, player.View(), runErr, sigCtx.Signal())
	}
	return handleExecutionError(runErr)
}

// resolve merges a preset with the command line. Flags win over the preset.
func resolve(ctx context.Context, opts RunOptions) (sessionSpec, error) {
	spec := sessionSpec{algorithm: opts.Algorithm, values: params.Values{}, play: opts.Play}

	if opts.Preset != "" {
		source := opts.Presets
		if source == nil {
			dir := opts.Config.Presets.Dir
			if dir == "" {
				dir = "."
			}
			loader, err := loam.Open(dir)
			if err != nil {
				return sessionSpec{}, fmt.Errorf("error opening presets: %w", err)
			}
			source = loader
		}
		preset, err := source.Get(ctx, opts.Preset)
		if err != nil {
			return sessionSpec{}, err
		}
		if spec.algorithm == "" {
			spec.algorithm = preset.Algorithm
		} else if spec.algorithm != preset.Algorithm {
			return sessionSpec{}, fmt.Errorf("preset %q is for %s, not %s", preset.Name, preset.Algorithm, spec.algorithm)
		}
		maps.Copy(spec.values, preset.Params)
		spec.seed = preset.Seed
		spec.play = spec.play || preset.Play
		spec.intro = preset.Intro
	} else {
		spec.seed = time.Now().UnixNano()
	}

	if spec.algorithm == "" {
		return sessionSpec{}, fmt.Errorf("no algorithm given")
	}

	flags, err := params.ParseAssignments(opts.Params)
	if err != nil {
		return sessionSpec{}, err
	}
	maps.Copy(spec.values, flags)

	if opts.Seed != nil {
		spec.seed = *opts.Seed
	}
	return spec, nil
}
