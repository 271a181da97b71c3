package mas

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/mastower/pkg/errors"
	"github.com/matzehuels/mastower/pkg/task"
)

func TestCreateAtomicFTS(t *testing.T) {
	fts := CreateAtomicFTS(twoBooleansTask(), true, true, nil)

	assert.Equal(t, 2, fts.Size())
	assert.Equal(t, 2, fts.NumActive())
	assert.Equal(t, 3, fts.Labels().MaxNumLabels())
	assert.Equal(t, []int{0, 1}, slices.Collect(fts.Active()))

	ts0 := fts.TransitionSystem(0)
	require.True(t, ts0.IsValid())
	assert.Equal(t, []bool{false, true}, ts0.GoalStates())
	assert.Equal(t, []Transition{{0, 1}}, transitionsOf(ts0, 0))
	assert.Equal(t, []Transition{{0, 0}, {1, 1}}, transitionsOf(ts0, 1))
	assert.Equal(t, []int{1, 0}, fts.Distances(0).GoalDistances())
	assert.Equal(t, []int{0, 1}, fts.Distances(0).InitDistances())
}

func TestCreateAtomicFTSTransitions(t *testing.T) {
	tk := &task.Task{
		Variables: []task.Variable{{Name: "x", DomainSize: 3}, {Name: "y", DomainSize: 2}},
		Operators: []task.Operator{
			{Name: "set", Cost: 2, Effects: []task.Fact{{Var: 0, Value: 2}}},
			{Name: "prevail", Cost: 1, Preconditions: []task.Fact{{Var: 0, Value: 1}}, Effects: []task.Fact{{Var: 1, Value: 1}}},
			{Name: "other", Cost: 1, Effects: []task.Fact{{Var: 1, Value: 0}}},
		},
		Initial: []int{0, 0},
		Goal:    []task.Fact{{Var: 1, Value: 1}},
	}
	require.NoError(t, tk.Validate())

	fts := CreateAtomicFTS(tk, false, true, nil)
	x := fts.TransitionSystem(0)
	assert.Equal(t, []Transition{{0, 2}, {1, 2}, {2, 2}}, transitionsOf(x, 0))
	assert.Equal(t, []Transition{{1, 1}}, transitionsOf(x, 1))
	assert.Equal(t, []Transition{{0, 0}, {1, 1}, {2, 2}}, transitionsOf(x, 2))
	assert.Equal(t, []bool{true, true, true}, x.GoalStates())
	assert.False(t, fts.Distances(0).AreInitDistancesComputed())

	y := fts.TransitionSystem(1)
	assert.Equal(t, []Transition{{0, 0}, {1, 0}}, transitionsOf(y, 2))
	// "set" loops on every value of y, like an irrelevant operator
	assert.Equal(t, []Transition{{0, 0}, {1, 1}}, transitionsOf(y, 0))

	assert.True(t, fts.IsFactorTrivial(0))
	assert.False(t, fts.IsFactorTrivial(1))
}

func TestCreateAtomicFTSLocallyEquivalent(t *testing.T) {
	tk := &task.Task{
		Variables: []task.Variable{{Name: "x", DomainSize: 2}, {Name: "y", DomainSize: 2}},
		Operators: []task.Operator{
			{Name: "a", Cost: 1, Effects: []task.Fact{{Var: 1, Value: 1}}},
			{Name: "b", Cost: 1, Effects: []task.Fact{{Var: 1, Value: 0}}},
		},
		Initial: []int{0, 0},
	}
	fts := CreateAtomicFTS(tk, false, false, nil)
	x := fts.TransitionSystem(0)
	assert.Equal(t, x.LocalLabelIndex(0), x.LocalLabelIndex(1))
	assert.Equal(t, 1, x.NumLocalLabels())
}

func TestFTSMerge(t *testing.T) {
	fts := CreateAtomicFTS(twoBooleansTask(), true, true, nil)

	index := fts.Merge(0, 1, nil)
	assert.Equal(t, 2, index)
	assert.Equal(t, 3, fts.Size())
	assert.Equal(t, 1, fts.NumActive())
	assert.False(t, fts.IsActive(0))
	assert.False(t, fts.IsActive(1))
	assert.True(t, fts.IsActive(2))

	assert.Equal(t, []int{2, 1, 1, 0}, fts.Distances(index).GoalDistances())
	assert.Equal(t, []int{0, 1, 1, 2}, fts.Distances(index).InitDistances())
	assert.True(t, fts.IsFactorSolvable(index))

	rep, dist := fts.ExtractFactor(index)
	assert.Equal(t, 0, fts.NumActive())
	rep.SetDistances(dist)
	assert.Equal(t, 2, rep.Value([]int{0, 0}))
	assert.Equal(t, 1, rep.Value([]int{0, 1}))
	assert.Equal(t, 0, rep.Value([]int{1, 1}))
}

func TestFTSMergeInactive(t *testing.T) {
	fts := CreateAtomicFTS(twoBooleansTask(), true, true, nil)
	fts.Merge(0, 1, nil)
	requireFatal(t, errors.ExitSearchCriticalError, func() {
		fts.Merge(0, 2, nil)
	})
}

func TestFTSApplyAbstraction(t *testing.T) {
	fts := CreateAtomicFTS(twoBooleansTask(), true, true, nil)
	index := fts.Merge(0, 1, nil)

	assert.False(t, fts.ApplyAbstraction(index, StateEquivalenceRelation{{0}, {1}, {2}, {3}}, nil))

	changed := fts.ApplyAbstraction(index, StateEquivalenceRelation{{0}, {1, 2}, {3}}, nil)
	require.True(t, changed)
	assert.Equal(t, 3, fts.TransitionSystem(index).Size())
	assert.Equal(t, []int{2, 1, 0}, fts.Distances(index).GoalDistances())
	assert.Equal(t, 3, fts.Representation(index).DomainSize())
	assert.Equal(t, 1, fts.Representation(index).Value([]int{1, 0}))
}

func TestAbstractionMapping(t *testing.T) {
	got := AbstractionMapping(5, StateEquivalenceRelation{{4, 0}, {2}})
	assert.Equal(t, []int{0, PrunedState, 1, PrunedState, 0}, got)
}

func TestFTSApplyLabelMappingMismatch(t *testing.T) {
	fts := CreateAtomicFTS(twoBooleansTask(), false, false, nil)
	requireFatal(t, errors.ExitSearchCriticalError, func() {
		fts.ApplyLabelMapping(LabelMapping{{New: 7, Old: []int{0, 1}}}, 0)
	})
}
