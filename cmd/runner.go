package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dlx/internal/arena"
	"github.com/desertthunder/dlx/internal/catalog"
	"github.com/desertthunder/dlx/internal/engine"
	"github.com/desertthunder/dlx/internal/history"
	"github.com/desertthunder/dlx/internal/jobs"
	"github.com/desertthunder/dlx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	engine  engine.Engine
	catalog *catalog.Catalog
	logger  *log.Logger
	output  io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Engine engine.Engine
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Engine == nil {
		opts.Engine = engine.NewYTDLP(opts.Config.Engine.Binary, opts.Logger)
	}

	return &Runner{
		config:  opts.Config,
		engine:  opts.Engine,
		catalog: catalog.New(opts.Engine, opts.Logger),
		logger:  opts.Logger,
		output:  opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, infoCommand, fetchCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// checkEngine verifies the fetch engine is usable before any job work
// starts. Engines without a preflight check pass trivially.
func (r *Runner) checkEngine() error {
	checker, ok := r.engine.(interface{ CheckBinary() error })
	if !ok {
		return nil
	}
	if err := checker.CheckBinary(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrEngineUnavailable, err)
	}
	return nil
}

// stack bundles the per-invocation orchestration dependencies.
type stack struct {
	orch    *jobs.Orchestrator
	gateway *jobs.Gateway
	store   *history.Store
}

// buildStack wires an orchestrator, gateway, and history store from the
// loaded configuration. The history store is optional: a failure to open it
// degrades to no history, not a fatal error.
func (r *Runner) buildStack() *stack {
	ar := arena.New(r.config.Storage.ScratchDir, r.logger)

	var store *history.Store
	if r.config.Storage.HistoryPath != "" {
		s, err := history.Open(r.config.Storage.HistoryPath)
		if err != nil {
			r.logger.Warn("history disabled", "error", err)
		} else {
			store = s
		}
	}

	var recorder jobs.Recorder
	if store != nil {
		recorder = store
	}

	orch := jobs.NewOrchestrator(jobs.Opts{
		Engine:   r.engine,
		Arena:    ar,
		Recorder: recorder,
		Logger:   r.logger,
		Conf:     r.config.Engine,
	})

	return &stack{
		orch:    orch,
		gateway: jobs.NewGateway(orch.Tracker(), ar, r.logger),
		store:   store,
	}
}

func (s *stack) close() {
	s.orch.Arena().SweepAll()
	if s.store != nil {
		s.store.Close()
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	out, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	r.output.Write(out)
	r.output.Write([]byte("\n"))
	return nil
}

func (r *Runner) writePlain(format string, args ...any) {
	fmt.Fprintf(r.output, format, args...)
}
