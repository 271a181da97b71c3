package cli

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mastower/pkg/buildinfo"
	"github.com/matzehuels/mastower/pkg/config"
	"github.com/matzehuels/mastower/pkg/mas"
	"github.com/matzehuels/mastower/pkg/observability"
	"github.com/matzehuels/mastower/pkg/task"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "mastower"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Mastower builds merge-and-shrink abstraction heuristics",
		Long:         `Mastower builds merge-and-shrink abstraction heuristics for finite-domain planning tasks, merging factors along the strongly connected components of the causal graph and scoring merge candidates by saturated cost partitioning.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.buildCommand())
	root.AddCommand(c.evalCommand())
	root.AddCommand(c.sccsCommand())
	root.AddCommand(c.dotCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Loading
// =============================================================================

// loadTask reads a task file and reports it to the task hooks.
func loadTask(cmd *cobra.Command, path string) (*task.Task, error) {
	start := time.Now()
	t, err := task.Load(path)
	vars, ops := 0, 0
	if t != nil {
		vars, ops = t.NumVariables(), t.NumOperators()
	}
	observability.Task().OnTaskLoad(cmd.Context(), path, vars, ops, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	loggerFromContext(cmd.Context()).Debug("loaded task", "path", path, "variables", vars, "operators", ops)
	return t, nil
}

// loadConfig reads the configuration at path, or the default configuration
// if path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// engineLog creates the engine log on the CLI logger. Debug logging raises
// the verbosity to at least verbose.
func (c *CLI) engineLog(v mas.Verbosity) *mas.Log {
	if c.Logger.GetLevel() <= log.DebugLevel && v < mas.Verbose {
		v = mas.Verbose
	}
	return mas.NewLog(c.Logger, v)
}

// openOutput returns stdout for an empty path and the created file otherwise.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
