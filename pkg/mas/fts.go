package mas

import (
	"iter"

	"github.com/matzehuels/mastower/pkg/errors"
)

// FactoredTransitionSystem is the set of live factors during
// merge-and-shrink construction.
//
// Every index holds a transition system with its representation and
// distances; merged or extracted indices are retired and hold nil. New
// factors are appended, so an index is never reused.
type FactoredTransitionSystem struct {
	labels      *Labels
	tss         []*TransitionSystem
	reps        []Representation
	dists       []*Distances
	computeInit bool
	computeGoal bool
	numActive   int
}

// NewFactoredTransitionSystem assembles a factored transition system. The
// three slices are indexed alike. Distances are computed as requested and
// kept up to date by all mutating operations.
func NewFactoredTransitionSystem(
	labels *Labels,
	tss []*TransitionSystem,
	reps []Representation,
	dists []*Distances,
	computeInit, computeGoal bool,
	log *Log,
) *FactoredTransitionSystem {
	if len(tss) != len(reps) || len(tss) != len(dists) {
		errors.ExitWith(errors.ExitSearchCriticalError,
			"factored transition system with %d transition systems, %d representations and %d distances",
			len(tss), len(reps), len(dists))
	}
	fts := &FactoredTransitionSystem{
		labels:      labels,
		tss:         tss,
		reps:        reps,
		dists:       dists,
		computeInit: computeInit,
		computeGoal: computeGoal,
	}
	for i, ts := range tss {
		if ts == nil {
			continue
		}
		fts.numActive++
		fts.dists[i].ComputeDistances(computeInit, computeGoal, log)
	}
	return fts
}

// Labels returns the shared label registry.
func (f *FactoredTransitionSystem) Labels() *Labels { return f.labels }

// Size returns the number of indices ever used, including retired ones.
func (f *FactoredTransitionSystem) Size() int { return len(f.tss) }

// NumActive returns the number of live factors.
func (f *FactoredTransitionSystem) NumActive() int { return f.numActive }

// IsActive reports whether index holds a live factor.
func (f *FactoredTransitionSystem) IsActive(index int) bool {
	return index >= 0 && index < len(f.tss) && f.tss[index] != nil
}

// Active yields the indices of live factors in increasing order.
func (f *FactoredTransitionSystem) Active() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i, ts := range f.tss {
			if ts != nil && !yield(i) {
				return
			}
		}
	}
}

// TransitionSystem returns the transition system at index.
func (f *FactoredTransitionSystem) TransitionSystem(index int) *TransitionSystem {
	return f.tss[index]
}

// Distances returns the distances of the factor at index.
func (f *FactoredTransitionSystem) Distances(index int) *Distances { return f.dists[index] }

// Representation returns the state mapping of the factor at index.
func (f *FactoredTransitionSystem) Representation(index int) Representation {
	return f.reps[index]
}

// ComputesInitDistances reports whether init distances are maintained.
func (f *FactoredTransitionSystem) ComputesInitDistances() bool { return f.computeInit }

// ComputesGoalDistances reports whether goal distances are maintained.
func (f *FactoredTransitionSystem) ComputesGoalDistances() bool { return f.computeGoal }

// IsFactorSolvable reports whether the factor at index can reach a goal
// from its initial state.
func (f *FactoredTransitionSystem) IsFactorSolvable(index int) bool {
	return f.tss[index].IsSolvable(f.dists[index])
}

// IsFactorTrivial reports whether the factor at index carries no
// information: its mapping is total and all of its states are goals.
func (f *FactoredTransitionSystem) IsFactorTrivial(index int) bool {
	if !f.reps[index].IsTotal() {
		return false
	}
	for _, goal := range f.tss[index].GoalStates() {
		if !goal {
			return false
		}
	}
	return true
}

func (f *FactoredTransitionSystem) assertActive(index int) {
	if !f.IsActive(index) {
		errors.ExitWith(errors.ExitSearchCriticalError, "factor %d is not active", index)
	}
}

// Merge replaces the factors at index1 and index2 by their product and
// returns the index of the product.
func (f *FactoredTransitionSystem) Merge(index1, index2 int, log *Log) int {
	f.assertActive(index1)
	f.assertActive(index2)

	product := Merge(f.labels, f.tss[index1], f.tss[index2], log)
	rep := NewMergeRepresentation(f.reps[index1], f.reps[index2])
	for _, i := range [2]int{index1, index2} {
		f.tss[i], f.reps[i], f.dists[i] = nil, nil, nil
	}

	dist := NewDistances(product)
	dist.ComputeDistances(f.computeInit, f.computeGoal, log)

	f.tss = append(f.tss, product)
	f.reps = append(f.reps, rep)
	f.dists = append(f.dists, dist)
	f.numActive--
	return len(f.tss) - 1
}

// ApplyAbstraction shrinks the factor at index to the classes of relation.
// It reports false and changes nothing if relation has as many classes as
// the factor has states.
func (f *FactoredTransitionSystem) ApplyAbstraction(index int, relation StateEquivalenceRelation, log *Log) bool {
	f.assertActive(index)
	ts := f.tss[index]
	if len(relation) == ts.Size() {
		return false
	}

	mapping := AbstractionMapping(ts.Size(), relation)
	ts.ApplyAbstraction(relation, mapping, log)
	f.reps[index].ApplyAbstraction(mapping)

	d := f.dists[index]
	d.ClearDistances()
	d.ComputeDistances(f.computeInit, f.computeGoal, log)
	return true
}

// AbstractionMapping maps every state to the index of its class in
// relation, or to [PrunedState] if it is in no class.
func AbstractionMapping(numStates int, relation StateEquivalenceRelation) []int {
	mapping := make([]int, numStates)
	for i := range mapping {
		mapping[i] = PrunedState
	}
	for class, states := range relation {
		for _, s := range states {
			mapping[s] = class
		}
	}
	return mapping
}

// ApplyLabelMapping reduces the label registry and every live transition
// system by mapping. The factor at combinableIndex receives the general
// reduction; for every other factor the reduced labels are known to be
// locally equivalent.
func (f *FactoredTransitionSystem) ApplyLabelMapping(mapping LabelMapping, combinableIndex int) {
	for _, entry := range mapping {
		if got := f.labels.ReduceLabels(entry.Old); got != entry.New {
			errors.ExitWith(errors.ExitSearchCriticalError,
				"label reduction created label %d, mapping expects %d", got, entry.New)
		}
	}
	for i := range f.Active() {
		f.tss[i].ApplyLabelReduction(mapping, i != combinableIndex)
	}
}

// ExtractFactor retires the factor at index and returns its
// representation and distances.
func (f *FactoredTransitionSystem) ExtractFactor(index int) (Representation, *Distances) {
	f.assertActive(index)
	rep, dist := f.reps[index], f.dists[index]
	f.tss[index], f.reps[index], f.dists[index] = nil, nil, nil
	f.numActive--
	return rep, dist
}

// Statistics writes the statistics of the factor at index.
func (f *FactoredTransitionSystem) Statistics(index int, log *Log) {
	f.tss[index].Statistics(log)
	f.dists[index].Statistics(log)
}
