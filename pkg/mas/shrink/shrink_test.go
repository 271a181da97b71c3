package shrink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/mastower/pkg/mas"
	"github.com/matzehuels/mastower/pkg/task"
)

// deadEndTask: x in {0..3} with 0 -a-> 1 and 2 -b-> 3, goal x=1; y in {0,1}
// with c setting y=1.
func deadEndTask() *task.Task {
	return &task.Task{
		Variables: []task.Variable{{Name: "x", DomainSize: 4}, {Name: "y", DomainSize: 2}},
		Operators: []task.Operator{
			{Name: "a", Cost: 1, Preconditions: []task.Fact{{Var: 0, Value: 0}}, Effects: []task.Fact{{Var: 0, Value: 1}}},
			{Name: "b", Cost: 1, Preconditions: []task.Fact{{Var: 0, Value: 2}}, Effects: []task.Fact{{Var: 0, Value: 3}}},
			{Name: "c", Cost: 1, Effects: []task.Fact{{Var: 1, Value: 1}}},
		},
		Initial: []int{0, 0},
		Goal:    []task.Fact{{Var: 0, Value: 1}},
	}
}

func TestComputeShrinkSizes(t *testing.T) {
	tests := []struct {
		name                 string
		size1, size2         int
		maxBefore, maxStates int
		want1, want2         int
	}{
		{"within limits", 10, 10, 100, 100, 10, 10},
		{"clamped before merge", 5, 5, 4, 100, 4, 4},
		{"both balanced", 10, 10, 100, 50, 7, 7},
		{"small first kept", 3, 100, 200, 50, 3, 16},
		{"small second kept", 100, 3, 200, 50, 16, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got1, got2 := ComputeShrinkSizes(tt.size1, tt.size2, tt.maxBefore, tt.maxStates)
			assert.Equal(t, tt.want1, got1)
			assert.Equal(t, tt.want2, got2)
		})
	}
}

func TestPruneStep(t *testing.T) {
	fts := mas.CreateAtomicFTS(deadEndTask(), true, true, nil)
	require.Equal(t, []int{0, 1, mas.Inf, mas.Inf}, fts.Distances(0).InitDistances())

	require.True(t, PruneStep(fts, 0, true, true, nil))
	assert.Equal(t, 2, fts.TransitionSystem(0).Size())
	assert.Equal(t, mas.PrunedState, fts.Representation(0).Value([]int{2, 0}))
	assert.Equal(t, 1, fts.Representation(0).Value([]int{1, 0}))

	assert.False(t, PruneStep(fts, 0, true, true, nil), "nothing left to prune")
	assert.False(t, PruneStep(fts, 1, true, true, nil))
}

func TestPruneStepDisabled(t *testing.T) {
	fts := mas.CreateAtomicFTS(deadEndTask(), true, true, nil)
	assert.False(t, PruneStep(fts, 0, false, false, nil))
	assert.Equal(t, 4, fts.TransitionSystem(0).Size())
}

func TestShrinkFactor(t *testing.T) {
	fts := mas.CreateAtomicFTS(deadEndTask(), true, true, nil)
	strategy := &Random{Seed: 1}

	assert.False(t, ShrinkFactor(fts, 0, 10, 10, strategy, nil), "below limit and threshold")
	assert.True(t, ShrinkFactor(fts, 0, 2, 10, strategy, mas.SilentLog()))
	assert.Equal(t, 2, fts.TransitionSystem(0).Size())

	assert.True(t, ShrinkFactor(fts, 0, 1, 10, strategy, nil))
	assert.Equal(t, 1, fts.TransitionSystem(0).Size())
}

func TestShrinkBeforeMerge(t *testing.T) {
	fts := mas.CreateAtomicFTS(deadEndTask(), true, true, nil)
	limits := Limits{MaxStates: 4, MaxStatesBeforeMerge: 4, ThresholdBeforeMerge: 4}

	shrunk1, shrunk2 := ShrinkBeforeMerge(fts, 0, 1, &Random{Seed: 7}, limits, nil)
	assert.True(t, shrunk1)
	assert.False(t, shrunk2)
	assert.Equal(t, 2, fts.TransitionSystem(0).Size())
	assert.Equal(t, 2, fts.TransitionSystem(1).Size())
}

func TestShrinkBeforeMergeExternally(t *testing.T) {
	fts := mas.CreateAtomicFTS(deadEndTask(), true, true, nil)
	limits := Limits{MaxStates: 4, MaxStatesBeforeMerge: 4, ThresholdBeforeMerge: 4}

	product := ShrinkBeforeMergeExternally(fts, 0, 1, &Random{Seed: 7}, limits, nil)
	require.NotNil(t, product)
	assert.Equal(t, 4, product.Size())
	assert.True(t, product.IsValid())
	assert.Equal(t, []int{0, 1}, product.IncorporatedVariables())

	assert.Equal(t, 4, fts.TransitionSystem(0).Size(), "factors are left untouched")
	assert.Equal(t, 2, fts.TransitionSystem(1).Size())
	assert.Equal(t, 2, fts.NumActive())
}

func TestShrinkBeforeMergeExternallyWithoutShrinking(t *testing.T) {
	fts := mas.CreateAtomicFTS(deadEndTask(), true, true, nil)
	limits := Limits{MaxStates: 100, MaxStatesBeforeMerge: 100, ThresholdBeforeMerge: 100}

	product := ShrinkBeforeMergeExternally(fts, 0, 1, &Bisimulation{}, limits, nil)
	assert.Equal(t, 8, product.Size())
}
