package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mastower/pkg/config"
	"github.com/matzehuels/mastower/pkg/mas"
	"github.com/matzehuels/mastower/pkg/mas/algorithm"
	"github.com/matzehuels/mastower/pkg/observability"
	"github.com/matzehuels/mastower/pkg/task"
)

// buildOpts holds the flags of the build command.
type buildOpts struct {
	configPath  string
	maxStates   int
	orderOfSCCs string
	allClusters bool
	metrics     bool
}

// buildCommand creates the build command.
func (c *CLI) buildCommand() *cobra.Command {
	var opts buildOpts

	cmd := &cobra.Command{
		Use:   "build <task>",
		Short: "Build the merge-and-shrink heuristic for a task",
		Long: `Build the merge-and-shrink heuristic for a planning task.

The task is read from a TOML or YAML file. Without --config the SCC merge
strategy with cost-partitioning scoring and bisimulation shrinking is used.`,
		Example: `  # Default configuration
  mastower build examples/tasks/logistics.toml

  # Custom configuration with a tighter state limit
  mastower build examples/tasks/logistics.toml -c examples/configs/dfp.yaml --max-states 1000

  # Work on one SCC cluster at a time and report metrics
  mastower build examples/tasks/logistics.toml --all-clusters=false --metrics`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBuild(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "configuration file (.toml, .yaml, .yml)")
	cmd.Flags().IntVar(&opts.maxStates, "max-states", 0, "maximum factor size (overrides the configuration)")
	cmd.Flags().StringVar(&opts.orderOfSCCs, "order-of-sccs", "", "SCC order: topological, reverse_topological, decreasing, increasing")
	cmd.Flags().BoolVar(&opts.allClusters, "all-clusters", true, "select merges among all SCC clusters")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "collect Prometheus metrics and print them")

	return cmd
}

// runBuild loads task and configuration, runs the construction and prints
// the result.
func (c *CLI) runBuild(cmd *cobra.Command, path string, opts buildOpts) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if err := applyOverrides(cfg, cmd, opts); err != nil {
		return err
	}

	var metrics *metricsHooks
	if opts.metrics {
		metrics = newMetricsHooks()
		observability.SetBuildHooks(metrics)
		observability.SetTaskHooks(metrics)
		defer observability.Reset()
	}

	t, err := loadTask(cmd, path)
	if err != nil {
		return err
	}

	verbosity, _ := mas.ParseVerbosity(cfg.Verbosity)
	mlog := c.engineLog(verbosity)
	algOpts, err := cfg.Build(mlog)
	if err != nil {
		return err
	}

	var spinner *Spinner
	if !mlog.IsAtLeastNormal() {
		spinner = newSpinnerWithContext(cmd.Context(), "Building abstraction...")
		spinner.Start()
	}
	prog := newProgress(loggerFromContext(cmd.Context()))
	res, err := algorithm.Build(cmd.Context(), t, algOpts, mlog)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		printError("Build failed: %v", err)
		return err
	}
	prog.done(fmt.Sprintf("Built %d factor(s)", len(res.Factors)))

	printResult(t, res)
	if metrics != nil {
		printNewline()
		if err := metrics.print(); err != nil {
			return err
		}
	}
	return nil
}

// applyOverrides applies the command-line overrides to cfg and validates
// the result.
func applyOverrides(cfg *config.Config, cmd *cobra.Command, opts buildOpts) error {
	if opts.maxStates > 0 {
		cfg.MaxStates = opts.maxStates
		cfg.MaxStatesBeforeMerge = min(cfg.MaxStatesBeforeMerge, opts.maxStates)
		cfg.ThresholdBeforeMerge = min(cfg.ThresholdBeforeMerge, opts.maxStates)
	}
	if opts.orderOfSCCs != "" {
		cfg.Merge.OrderOfSCCs = opts.orderOfSCCs
	}
	if cmd.Flags().Changed("all-clusters") {
		all := opts.allClusters
		cfg.Merge.AllowWorkingOnAllClusters = &all
	}
	return cfg.Validate()
}

// printResult prints the summary and the factor table of a construction.
func printResult(t *task.Task, res *algorithm.Result) {
	if res.Unsolvable {
		printWarning("The initial state is a dead end: the task is unsolvable")
	} else {
		printSuccess("h(init) = %s", StyleNumber.Render(strconv.Itoa(res.InitialHeuristic())))
	}
	if res.Stats.OutOfTime {
		printWarning("The main loop ran out of time; %d factors remain", len(res.Factors))
	}

	printKeyValue("Run", res.RunID.String())
	printKeyValue("Merges", strconv.Itoa(res.Stats.Merges))
	printKeyValue("Shrinks", strconv.Itoa(res.Stats.Shrinks))
	printKeyValue("Reductions", strconv.Itoa(res.Stats.LabelReductions))
	printKeyValue("Max size", strconv.Itoa(res.Stats.MaxIntermediateSize))
	printKeyValue("Time", res.Stats.Duration.Round(time.Millisecond).String())
	printNewline()
	fmt.Println(renderTable([]string{"#", "Variables", "States", "h(init)"}, factorRows(t, res.Factors)))
}

// factorRows formats one table row per factor.
func factorRows(t *task.Task, factors []algorithm.Factor) [][]string {
	rows := make([][]string, len(factors))
	for i, f := range factors {
		rows[i] = []string{
			strconv.Itoa(f.Index),
			variableNames(t, f.Variables),
			strconv.Itoa(f.Size),
			formatH(f.InitH),
		}
	}
	return rows
}

// variableNames joins the names of vars.
func variableNames(t *task.Task, vars []int) string {
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = t.Variables[v].Name
	}
	return strings.Join(names, ", ")
}

// formatH formats a heuristic value, writing infinity as "inf".
func formatH(h int) string {
	if h == mas.Inf {
		return "inf"
	}
	return strconv.Itoa(h)
}
