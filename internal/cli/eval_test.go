package cli

import (
	"context"
	"path/filepath"
	"slices"
	"testing"

	"github.com/matzehuels/mastower/pkg/config"
	"github.com/matzehuels/mastower/pkg/errors"
	"github.com/matzehuels/mastower/pkg/task"
)

func TestEvalRunsDefault(t *testing.T) {
	runs, err := evalRuns(nil)
	if err != nil {
		t.Fatalf("evalRuns(nil) error = %v", err)
	}
	if len(runs) != 1 || runs[0].name != "default" {
		t.Errorf("evalRuns(nil) = %v, want the default run", runs)
	}
}

func TestEvalRunsInvalid(t *testing.T) {
	path := writeFile(t, "bad.toml", "max_states = -3\n")
	if _, err := evalRuns([]string{path}); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("evalRuns() error = %v, want %s", err, errors.ErrCodeInvalidConfig)
	}
}

func TestRunEval(t *testing.T) {
	tk, err := task.Parse([]byte(chainTaskTOML), task.FormatTOML)
	if err != nil {
		t.Fatal(err)
	}
	random := config.Default()
	random.Shrink.Strategy = "random"
	tight := config.Default()
	tight.MaxStates, tight.MaxStatesBeforeMerge, tight.ThresholdBeforeMerge = 1, 1, 1
	runs := []evalRun{
		{name: "default", cfg: config.Default()},
		{name: "random", cfg: random},
		{name: "tight", cfg: tight},
	}

	var done []int
	progress := make(chan int, len(runs))
	outcomes, err := runEval(context.Background(), tk, runs, func(n int) { progress <- n })
	if err != nil {
		t.Fatalf("runEval() error = %v", err)
	}
	close(progress)
	for n := range progress {
		done = append(done, n)
	}
	slices.Sort(done)
	if !slices.Equal(done, []int{1, 2, 3}) {
		t.Errorf("progress calls = %v, want [1 2 3]", done)
	}

	wantH := map[string]int{"default": 2, "random": 2}
	for _, o := range outcomes {
		if o.err != nil {
			t.Errorf("run %s error = %v", o.name, o.err)
			continue
		}
		if want, ok := wantH[o.name]; ok {
			if got := o.result.InitialHeuristic(); got != want {
				t.Errorf("run %s h(init) = %d, want %d", o.name, got, want)
			}
		}
		if got := o.result.InitialHeuristic(); got > 2 {
			t.Errorf("run %s h(init) = %d exceeds the optimal cost 2", o.name, got)
		}
	}

	rows := evalRows(outcomes)
	if len(rows) != len(runs) {
		t.Fatalf("evalRows() has %d rows, want %d", len(rows), len(runs))
	}
	for i, row := range rows {
		if row[0] != runs[i].name || row[len(row)-1] != "ok" {
			t.Errorf("evalRows()[%d] = %v", i, row)
		}
	}
}

func TestRunEvalCancelled(t *testing.T) {
	tk, err := task.Parse([]byte(chainTaskTOML), task.FormatTOML)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes, err := runEval(ctx, tk, []evalRun{{name: "default", cfg: config.Default()}}, nil)
	if err != nil {
		t.Fatalf("runEval() error = %v", err)
	}
	if !errors.Is(outcomes[0].err, errors.ErrCodeTimeout) {
		t.Errorf("outcome error = %v, want %s", outcomes[0].err, errors.ErrCodeTimeout)
	}
	row := evalRows(outcomes)[0]
	if row[1] != "-" {
		t.Errorf("evalRows() for a failed run = %v", row)
	}
}

func TestEvalCommand(t *testing.T) {
	taskPath := writeFile(t, "task.toml", chainTaskTOML)
	a := writeFile(t, "a.toml", "[shrink]\nstrategy = \"random\"\n")
	b := writeFile(t, "b.yaml", "merge:\n  strategy: stateless\n  scoring:\n    - name: dfp\n    - name: total_order\n")
	if err := execute(t, "eval", taskPath, "-c", a, "-c", filepath.Clean(b)); err != nil {
		t.Errorf("eval error = %v", err)
	}
}
