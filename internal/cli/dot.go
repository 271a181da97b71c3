package cli

import (
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mastower/pkg/errors"
	"github.com/matzehuels/mastower/pkg/mas"
	"github.com/matzehuels/mastower/pkg/mas/algorithm"
	"github.com/matzehuels/mastower/pkg/render/dot"
	"github.com/matzehuels/mastower/pkg/task"
)

// dotOpts holds the flags of the dot command.
type dotOpts struct {
	variable   string
	final      bool
	configPath string
	output     string
}

// dotCommand creates the dot command.
func (c *CLI) dotCommand() *cobra.Command {
	var opts dotOpts

	cmd := &cobra.Command{
		Use:   "dot <task>",
		Short: "Export the causal graph or a transition system as DOT or SVG",
		Long: `Export a graph of the task in Graphviz DOT format.

By default the causal graph is exported. --var selects the atomic transition
system of a variable (by name or index), --final the first factor of the
constructed heuristic. An output file ending in .svg is rendered with
Graphviz; any other output is DOT source.`,
		Example: `  # Causal graph to stdout
  mastower dot examples/tasks/logistics.toml

  # Atomic transition system of a variable as SVG
  mastower dot examples/tasks/logistics.toml --var truck -o truck.svg

  # Final abstraction
  mastower dot examples/tasks/logistics.toml --final -o final.dot`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDot(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.variable, "var", "", "export the atomic transition system of this variable")
	cmd.Flags().BoolVar(&opts.final, "final", false, "export the first factor of the constructed heuristic")
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "configuration file for --final")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (.svg or .dot, default stdout)")
	cmd.MarkFlagsMutuallyExclusive("var", "final")

	return cmd
}

func (c *CLI) runDot(cmd *cobra.Command, path string, opts dotOpts) error {
	t, err := loadTask(cmd, path)
	if err != nil {
		return err
	}

	var src string
	switch {
	case opts.variable != "":
		v, err := lookupVariable(t, opts.variable)
		if err != nil {
			return err
		}
		fts := mas.CreateAtomicFTS(t, false, false, mas.SilentLog())
		src = dot.TransitionSystem(fts.TransitionSystem(v))
	case opts.final:
		cfg, err := loadConfig(opts.configPath)
		if err != nil {
			return err
		}
		algOpts, err := cfg.Build(mas.SilentLog())
		if err != nil {
			return err
		}
		res, err := algorithm.Build(cmd.Context(), t, algOpts, mas.SilentLog())
		if err != nil {
			return err
		}
		if len(res.Factors) > 1 {
			printWarning("The heuristic has %d factors; exporting factor %d", len(res.Factors), res.Factors[0].Index)
		}
		src = dot.TransitionSystem(res.Factors[0].TransitionSystem)
	default:
		src = dot.CausalGraph(t)
	}

	data := []byte(src)
	if strings.EqualFold(filepath.Ext(opts.output), ".svg") {
		if data, err = dot.RenderSVG(cmd.Context(), src); err != nil {
			return err
		}
	}

	w, err := openOutput(opts.output)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", opts.output)
	}
	defer w.Close()
	if _, err := w.Write(data); err != nil {
		return err
	}
	if opts.output != "" {
		printFile(opts.output)
	}
	return nil
}

// lookupVariable resolves a variable name or index.
func lookupVariable(t *task.Task, name string) (int, error) {
	if i := slices.IndexFunc(t.Variables, func(v task.Variable) bool { return v.Name == name }); i >= 0 {
		return i, nil
	}
	if i, err := strconv.Atoi(name); err == nil && i >= 0 && i < t.NumVariables() {
		return i, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidInput, "unknown variable %q", name)
}
