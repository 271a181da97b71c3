package mas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeafRepresentation(t *testing.T) {
	r := NewLeafRepresentation(1, 3)
	assert.Equal(t, 3, r.DomainSize())
	assert.True(t, r.IsTotal())
	assert.Equal(t, 2, r.Value([]int{0, 2}))

	r.ApplyAbstraction([]int{0, PrunedState, 1})
	assert.Equal(t, 2, r.DomainSize())
	assert.False(t, r.IsTotal())
	assert.Equal(t, PrunedState, r.Value([]int{0, 1}))
	assert.Equal(t, 1, r.Value([]int{0, 2}))
}

func TestMergeRepresentation(t *testing.T) {
	left := NewLeafRepresentation(0, 2)
	right := NewLeafRepresentation(1, 3)
	r := NewMergeRepresentation(left, right)

	assert.Equal(t, 6, r.DomainSize())
	assert.True(t, r.IsTotal())
	assert.Equal(t, 1*3+2, r.Value([]int{1, 2}))

	r.ApplyAbstraction([]int{0, 0, 1, 1, 2, PrunedState})
	assert.Equal(t, 3, r.DomainSize())
	assert.False(t, r.IsTotal())
	assert.Equal(t, 0, r.Value([]int{0, 1}))
	assert.Equal(t, 2, r.Value([]int{1, 1}))
	assert.Equal(t, PrunedState, r.Value([]int{1, 2}))
}

func TestMergeRepresentationPrunedChild(t *testing.T) {
	left := NewLeafRepresentation(0, 2)
	left.ApplyAbstraction([]int{PrunedState, 0})
	r := NewMergeRepresentation(left, NewLeafRepresentation(1, 2))

	assert.False(t, r.IsTotal())
	assert.Equal(t, PrunedState, r.Value([]int{0, 1}))
	assert.Equal(t, 1, r.Value([]int{1, 1}))
}

func TestRepresentationSetDistances(t *testing.T) {
	ts := chainTS()
	d := NewDistances(ts)
	d.ComputeDistances(false, true, nil)

	r := NewLeafRepresentation(0, 4)
	clone := r.Clone()
	r.SetDistances(d)

	assert.Equal(t, 4, r.Value([]int{0}))
	assert.Equal(t, 0, r.Value([]int{2}))
	assert.Equal(t, Inf, r.Value([]int{3}))
	assert.Equal(t, 3, clone.Value([]int{3}), "clone is independent")
}
