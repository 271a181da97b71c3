// Package shrink bounds the size of factors: it computes state equivalence
// relations (bisimulation, random grouping), prunes unreachable and
// irrelevant states, and shrinks the two factors of a merge so that their
// product respects the configured size limits.
package shrink

import (
	"math"

	"github.com/matzehuels/mastower/pkg/mas"
)

// Strategy computes an equivalence relation over the states of a
// transition system with at most targetSize classes where possible.
type Strategy interface {
	Name() string
	ComputeEquivalenceRelation(ts *mas.TransitionSystem, d *mas.Distances, targetSize int, log *mas.Log) mas.StateEquivalenceRelation
	RequiresInitDistances() bool
	RequiresGoalDistances() bool
}

// Limits bounds factor sizes during construction.
type Limits struct {
	// MaxStates bounds the size of any product.
	MaxStates int
	// MaxStatesBeforeMerge bounds each factor before it is merged.
	MaxStatesBeforeMerge int
	// ThresholdBeforeMerge is the size above which a factor is shrunk
	// before merging even if it respects the limits.
	ThresholdBeforeMerge int
}

// ComputeShrinkSizes returns the sizes two factors of sizes size1 and size2
// must be shrunk to so that each is at most maxBeforeMerge and their
// product is at most maxStates. The smaller factor is kept intact where
// possible; otherwise both get about the square root of maxStates.
func ComputeShrinkSizes(size1, size2, maxBeforeMerge, maxStates int) (int, int) {
	new1 := min(size1, maxBeforeMerge)
	new2 := min(size2, maxBeforeMerge)

	if int64(new1)*int64(new2) > int64(maxStates) {
		balanced := int(math.Sqrt(float64(maxStates)))
		switch {
		case new1 <= balanced:
			new2 = maxStates / new1
		case new2 <= balanced:
			new1 = maxStates / new2
		default:
			new1, new2 = balanced, balanced
		}
	}
	return new1, new2
}

// ShrinkFactor shrinks the factor at index with strategy if it is larger
// than newSize or threshold. It reports whether the factor changed.
func ShrinkFactor(fts *mas.FactoredTransitionSystem, index, newSize, threshold int, strategy Strategy, log *mas.Log) bool {
	ts := fts.TransitionSystem(index)
	numStates := ts.Size()
	if numStates <= min(newSize, threshold) {
		return false
	}
	if log.IsAtLeastVerbose() {
		log.Printf("%scurrent size: %d (new size limit: %d, shrink threshold: %d)", ts.Tag(), numStates, newSize, threshold)
	}
	relation := strategy.ComputeEquivalenceRelation(ts, fts.Distances(index), newSize, log)
	return fts.ApplyAbstraction(index, relation, log)
}

// ShrinkBeforeMerge shrinks the factors at index1 and index2 so that their
// product respects limits. It reports which factors changed.
func ShrinkBeforeMerge(fts *mas.FactoredTransitionSystem, index1, index2 int, strategy Strategy, limits Limits, log *mas.Log) (bool, bool) {
	size1, size2 := ComputeShrinkSizes(
		fts.TransitionSystem(index1).Size(),
		fts.TransitionSystem(index2).Size(),
		limits.MaxStatesBeforeMerge,
		limits.MaxStates,
	)

	shrunk1 := ShrinkFactor(fts, index1, size1, limits.ThresholdBeforeMerge, strategy, log)
	if shrunk1 {
		fts.Statistics(index1, log)
	}
	shrunk2 := ShrinkFactor(fts, index2, size2, limits.ThresholdBeforeMerge, strategy, log)
	if shrunk2 {
		fts.Statistics(index2, log)
	}
	return shrunk1, shrunk2
}

// PruneStep removes the states of the factor at index that are unreachable
// from the initial state or cannot reach a goal, as requested. It reports
// whether the factor changed. The corresponding distances must be
// maintained by fts.
func PruneStep(fts *mas.FactoredTransitionSystem, index int, pruneUnreachable, pruneIrrelevant bool, log *mas.Log) bool {
	ts := fts.TransitionSystem(index)
	d := fts.Distances(index)

	var (
		relation    mas.StateEquivalenceRelation
		unreachable int
		irrelevant  int
		dead        int
	)
	for state := range ts.Size() {
		prune := false
		if pruneUnreachable && d.InitDistance(state) == mas.Inf {
			unreachable++
			prune = true
		}
		if pruneIrrelevant && d.GoalDistance(state) == mas.Inf {
			irrelevant++
			prune = true
		}
		if prune {
			dead++
			continue
		}
		relation = append(relation, mas.StateEquivalenceClass{state})
	}

	if log.IsAtLeastVerbose() && (unreachable > 0 || irrelevant > 0) {
		log.Printf("%sunreachable: %d states, irrelevant: %d states (total dead: %d states)",
			ts.Tag(), unreachable, irrelevant, dead)
	}
	return fts.ApplyAbstraction(index, relation, log)
}

// ShrinkBeforeMergeExternally returns the product of the factors at index1
// and index2 after shrinking copies of them as [ShrinkBeforeMerge] would.
// fts is not modified.
func ShrinkBeforeMergeExternally(fts *mas.FactoredTransitionSystem, index1, index2 int, strategy Strategy, limits Limits, log *mas.Log) *mas.TransitionSystem {
	ts1, ts2 := fts.TransitionSystem(index1), fts.TransitionSystem(index2)
	size1, size2 := ComputeShrinkSizes(ts1.Size(), ts2.Size(), limits.MaxStatesBeforeMerge, limits.MaxStates)

	ts1 = shrinkCopy(ts1, fts.Distances(index1), size1, limits.ThresholdBeforeMerge, strategy, log)
	ts2 = shrinkCopy(ts2, fts.Distances(index2), size2, limits.ThresholdBeforeMerge, strategy, log)
	return mas.Merge(fts.Labels(), ts1, ts2, log)
}

// shrinkCopy returns ts itself if it needs no shrinking, and a shrunk copy
// otherwise.
func shrinkCopy(ts *mas.TransitionSystem, d *mas.Distances, newSize, threshold int, strategy Strategy, log *mas.Log) *mas.TransitionSystem {
	if ts.Size() <= min(newSize, threshold) {
		return ts
	}
	clone := ts.Clone()
	relation := strategy.ComputeEquivalenceRelation(clone, d.CloneFor(clone), newSize, log)
	if len(relation) < clone.Size() {
		clone.ApplyAbstraction(relation, mas.AbstractionMapping(clone.Size(), relation), log)
	}
	return clone
}
