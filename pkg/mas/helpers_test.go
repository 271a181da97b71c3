package mas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/mastower/pkg/errors"
	"github.com/matzehuels/mastower/pkg/task"
)

type testGroup struct {
	labels      []int
	transitions []Transition
}

// newTestTS builds a transition system over one variable from explicit
// label groups.
func newTestTS(labels *Labels, variable, numStates int, goals []int, init int, groups ...testGroup) *TransitionSystem {
	globalToLocal := make([]int, labels.MaxNumLabels())
	for i := range globalToLocal {
		globalToLocal[i] = -1
	}
	var infos []LocalLabelInfo
	for i, g := range groups {
		cost := Inf
		for _, l := range g.labels {
			globalToLocal[l] = i
			cost = min(cost, labels.Cost(l))
		}
		infos = append(infos, NewLocalLabelInfo(append(LabelGroup(nil), g.labels...), g.transitions, cost))
	}
	goalStates := make([]bool, numStates)
	for _, g := range goals {
		goalStates[g] = true
	}
	return NewTransitionSystem(4, []int{variable}, labels, globalToLocal, infos, numStates, goalStates, init)
}

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

// twoBooleansTask has variables V1 and V2 with goal value 1 each; operator
// a sets V1 from 0 to 1 and operator b sets V2 from 0 to 1.
func twoBooleansTask() *task.Task {
	return &task.Task{
		Variables: []task.Variable{{Name: "V1", DomainSize: 2}, {Name: "V2", DomainSize: 2}},
		Operators: []task.Operator{
			{Name: "a", Cost: 1, Preconditions: []task.Fact{{Var: 0, Value: 0}}, Effects: []task.Fact{{Var: 0, Value: 1}}},
			{Name: "b", Cost: 1, Preconditions: []task.Fact{{Var: 1, Value: 0}}, Effects: []task.Fact{{Var: 1, Value: 1}}},
		},
		Initial: []int{0, 0},
		Goal:    []task.Fact{{Var: 0, Value: 1}, {Var: 1, Value: 1}},
	}
}

func transitionsOf(ts *TransitionSystem, label int) []Transition {
	return ts.LocalLabel(label).Transitions()
}
