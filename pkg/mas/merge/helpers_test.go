package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/mastower/pkg/errors"
	"github.com/matzehuels/mastower/pkg/task"
)

func requireFatal(t *testing.T, code errors.ExitCode, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		f, ok := errors.AsFatal(r)
		require.True(t, ok, "expected fatal exit, got %v", r)
		assert.Equal(t, code, f.Exit)
	}()
	fn()
}

func boolVars(names ...string) []task.Variable {
	vars := make([]task.Variable, len(names))
	for i, n := range names {
		vars[i] = task.Variable{Name: n, DomainSize: 2}
	}
	return vars
}

// flip is an operator of cost 1 setting v from 0 to 1.
func flip(name string, v int) task.Operator {
	return task.Operator{
		Name:          name,
		Cost:          1,
		Preconditions: []task.Fact{{Var: v, Value: 0}},
		Effects:       []task.Fact{{Var: v, Value: 1}},
	}
}

// link is an operator of cost 1 that needs from=1 to set to=1.
func link(name string, from, to int) task.Operator {
	return task.Operator{
		Name:          name,
		Cost:          1,
		Preconditions: []task.Fact{{Var: from, Value: 1}},
		Effects:       []task.Fact{{Var: to, Value: 1}},
	}
}

// twoBooleans: V1 and V2 flipped independently by a and b, both goals.
func twoBooleans(goals ...task.Fact) *task.Task {
	if goals == nil {
		goals = []task.Fact{{Var: 0, Value: 1}, {Var: 1, Value: 1}}
	}
	return &task.Task{
		Variables: boolVars("V1", "V2"),
		Operators: []task.Operator{flip("a", 0), flip("b", 1)},
		Initial:   []int{0, 0},
		Goal:      goals,
	}
}

// chainTask has the causal graph 5 -> {0,1} -> {2,3,4} -> 6.
func chainTask() *task.Task {
	return &task.Task{
		Variables: boolVars("v0", "v1", "v2", "v3", "v4", "v5", "v6"),
		Operators: []task.Operator{
			flip("start", 5),
			link("o50", 5, 0),
			link("o01", 0, 1),
			link("o10", 1, 0),
			link("o12", 1, 2),
			link("o23", 2, 3),
			link("o34", 3, 4),
			link("o42", 4, 2),
			link("o46", 4, 6),
		},
		Initial: make([]int, 7),
		Goal:    []task.Fact{{Var: 6, Value: 1}},
	}
}
