package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kingrea/assignflow/internal/config"
	"github.com/kingrea/assignflow/internal/logbook"
	"github.com/kingrea/assignflow/internal/logging"
	"github.com/kingrea/assignflow/internal/tui"
	"github.com/kingrea/assignflow/internal/workflow/selector"
	"github.com/kingrea/assignflow/internal/workflow/state"
)

// app carries the I/O and settings shared by every command.
type app struct {
	v      *viper.Viper
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	clock  func() time.Time
	// terminal reports whether both ends are attached to a TTY.
	terminal func() bool
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{
		v:        viper.New(),
		in:       in,
		out:      out,
		errOut:   errOut,
		clock:    time.Now,
		terminal: func() bool { return isTerminal(in) && isTerminal(out) },
	}
}

func isTerminal(stream any) bool {
	f, ok := stream.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "assignflow",
		Short: "Work out where each assignment stands and which one to resume",
		Long: `assignflow reads the artifacts inside each assignment directory and derives
where the assignment is in its lifecycle:

  brainstorm -> breakdown -> implementation -> review -> capture

Nothing is tracked separately: the files are the state. When no assignment is
named, the most urgent one is chosen; assignments that are equally urgent and
were touched within the ambiguity window are offered for an interactive choice
(or reported, with exit code 2, when there is no terminal).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	a.v.SetEnvPrefix("ASSIGNFLOW")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	flags := root.PersistentFlags()
	flags.StringP("project", "p", ".", "project directory containing .assignflow/")
	flags.StringP("assignment", "a", "", "assignment name, 5-digit id or label")
	flags.Bool("json", false, "output JSON")
	flags.String("interactive", "", "resolve ties interactively: auto, always or never (default from config)")
	for _, name := range []string{"project", "assignment", "json", "interactive"} {
		_ = a.v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(
		initCmd(a),
		statusCmd(a),
		resumeCmd(a),
		listCmd(a),
		reviseCmd(a),
		stampCmd(a),
		migrateCmd(a),
		logCmd(a),
	)
	return root
}

// env is what a command needs once the project configuration is loaded.
type env struct {
	cfg      *config.Config
	logger   *logging.Logger
	book     *logbook.Logbook
	detector *state.Detector
	selector *selector.Selector
}

func (e *env) Close() error {
	return e.logger.Close()
}

// withEnv loads the project configuration, opens the logs and runs fn.
func (a *app) withEnv(ctx context.Context, fn func(ctx context.Context, e *env) error) error {
	cfg, err := config.Load(a.v.GetString("project"))
	if err != nil {
		return err
	}
	if mode := a.v.GetString("interactive"); mode != "" {
		if err := cfg.SetInteractiveMode(mode); err != nil {
			return err
		}
	}
	logger, err := logging.New(cfg.LogsDir(), cfg.LogLevel())
	if err != nil {
		return err
	}
	book, err := logbook.New(filepath.Join(cfg.LogsDir(), logbook.FileName), logbook.WithClock(a.clock))
	if err != nil {
		logger.Close()
		return fmt.Errorf("logbook: %w", err)
	}
	detector := state.New(
		state.WithMinContentBytes(cfg.MinContentBytes()),
		state.WithLogger(logger.Zap()),
	)
	e := &env{
		cfg:      cfg,
		logger:   logger,
		book:     book,
		detector: detector,
		selector: selector.New(cfg.AssignmentsDir(),
			selector.WithDetector(detector),
			selector.WithStrategy(a.strategy(cfg)),
			selector.WithWindow(cfg.AmbiguityWindow()),
			selector.WithClock(a.clock),
			selector.WithLogger(logger.Zap()),
		),
	}
	defer e.Close()
	return fn(ctx, e)
}

// strategy picks the interactive picker only when a human can answer.
// JSON output never shares its stream with the picker.
func (a *app) strategy(cfg *config.Config) selector.Strategy {
	if a.v.GetBool("json") {
		return selector.Refuse{}
	}
	interactive := false
	switch cfg.InteractiveMode() {
	case config.InteractiveAlways:
		interactive = true
	case config.InteractiveAuto:
		interactive = a.terminal()
	}
	if !interactive {
		return selector.Refuse{}
	}
	return tui.NewPicker(tui.WithClock(a.clock), tui.WithIO(a.in, a.out))
}

// query returns the positional assignment argument or the --assignment flag.
func (a *app) query(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return a.v.GetString("assignment")
}
