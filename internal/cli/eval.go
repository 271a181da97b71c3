package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/mastower/pkg/config"
	"github.com/matzehuels/mastower/pkg/errors"
	"github.com/matzehuels/mastower/pkg/mas"
	"github.com/matzehuels/mastower/pkg/mas/algorithm"
	"github.com/matzehuels/mastower/pkg/task"
)

// evalRun is one configuration of an eval command.
type evalRun struct {
	name string
	cfg  *config.Config
}

// evalOutcome is the result of one evalRun.
type evalOutcome struct {
	name     string
	result   *algorithm.Result
	err      error
	duration time.Duration
}

// evalCommand creates the eval command.
func (c *CLI) evalCommand() *cobra.Command {
	var configPaths []string

	cmd := &cobra.Command{
		Use:   "eval <task>",
		Short: "Compare configurations on a task",
		Long: `Build the heuristic for a task once per configuration and compare the
results. The constructions run concurrently and independently of each
other. Without --config the default configuration is evaluated.`,
		Example: `  mastower eval examples/tasks/logistics.toml -c examples/configs/default.toml -c examples/configs/dfp.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := evalRuns(configPaths)
			if err != nil {
				return err
			}
			t, err := loadTask(cmd, args[0])
			if err != nil {
				return err
			}

			spinner := newSpinnerWithContext(cmd.Context(), fmt.Sprintf("Building 0/%d configurations...", len(runs)))
			spinner.Start()
			outcomes, err := runEval(cmd.Context(), t, runs, func(done int) {
				spinner.SetMessage(fmt.Sprintf("Building %d/%d configurations...", done, len(runs)))
			})
			if err != nil {
				spinner.StopWithError("Evaluation aborted")
				return err
			}
			spinner.StopWithSuccess(fmt.Sprintf("Built %d configurations", len(runs)))

			fmt.Println(renderTable(
				[]string{"Configuration", "h(init)", "Factors", "Merges", "Max size", "Time", "Status"},
				evalRows(outcomes),
			))
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&configPaths, "config", "c", nil, "configuration file (repeatable)")

	return cmd
}

// evalRuns loads the configurations to compare.
func evalRuns(paths []string) ([]evalRun, error) {
	if len(paths) == 0 {
		return []evalRun{{name: "default", cfg: config.Default()}}, nil
	}
	runs := make([]evalRun, len(paths))
	for i, path := range paths {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		runs[i] = evalRun{name: filepath.Base(path), cfg: cfg}
	}
	return runs, nil
}

// runEval builds all runs concurrently and calls progress with the number
// of finished runs. Each construction has its own engine state; only a
// fatal error aborts the evaluation.
func runEval(ctx context.Context, t *task.Task, runs []evalRun, progress func(done int)) ([]evalOutcome, error) {
	outcomes := make([]evalOutcome, len(runs))
	var finished atomic.Int32

	g, gCtx := errgroup.WithContext(ctx)
	for i, run := range runs {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					f, ok := errors.AsFatal(r)
					if !ok {
						panic(r)
					}
					err = f
				}
			}()

			start := time.Now()
			outcomes[i] = evalOutcome{name: run.name}
			opts, err := run.cfg.Build(mas.SilentLog())
			if err != nil {
				outcomes[i].err = err
				return nil
			}
			outcomes[i].result, outcomes[i].err = algorithm.Build(gCtx, t, opts, mas.SilentLog())
			outcomes[i].duration = time.Since(start)
			if progress != nil {
				progress(int(finished.Add(1)))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// evalRows formats one table row per outcome.
func evalRows(outcomes []evalOutcome) [][]string {
	rows := make([][]string, len(outcomes))
	for i, o := range outcomes {
		if o.err != nil {
			rows[i] = []string{o.name, "-", "-", "-", "-", "-", errors.UserMessage(o.err)}
			continue
		}
		status := "ok"
		switch {
		case o.result.Unsolvable:
			status = "unsolvable"
		case o.result.Stats.OutOfTime:
			status = "out of time"
		}
		rows[i] = []string{
			o.name,
			formatH(o.result.InitialHeuristic()),
			strconv.Itoa(len(o.result.Factors)),
			strconv.Itoa(o.result.Stats.Merges),
			strconv.Itoa(o.result.Stats.MaxIntermediateSize),
			o.duration.Round(time.Millisecond).String(),
			status,
		}
	}
	return rows
}
