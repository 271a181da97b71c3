// Package merge decides the order in which factors are merged. Scoring
// functions rate candidate pairs, a selector filters candidates by a
// sequence of scoring functions, and merge strategies produce the next pair
// from the state of the factored transition system.
package merge

import (
	"fmt"

	"github.com/matzehuels/mastower/pkg/mas"
	"github.com/matzehuels/mastower/pkg/task"
)

// Pair names two factor indices to be merged.
type Pair [2]int

func (p Pair) String() string { return fmt.Sprintf("(%d, %d)", p[0], p[1]) }

// infScore is the score of a candidate that should never be preferred.
const infScore = float64(mas.Inf)

// ScoringFunction rates merge candidates; lower scores are better.
type ScoringFunction interface {
	Name() string
	Initialize(t *task.Task)
	ComputeScores(fts *mas.FactoredTransitionSystem, candidates []Pair) []float64
	RequiresInitDistances() bool
	RequiresGoalDistances() bool
}

// Selector picks the next merge from a set of candidates.
type Selector interface {
	Name() string
	Initialize(t *task.Task)
	// SelectMerge picks one of candidates, or of all pairs of active
	// factors if candidates is nil.
	SelectMerge(fts *mas.FactoredTransitionSystem, candidates []Pair) Pair
	RequiresInitDistances() bool
	RequiresGoalDistances() bool
}

// Strategy is a stateful source of merges for one construction.
type Strategy interface {
	Next() Pair
}

// Factory creates the merge strategy for a task.
type Factory interface {
	Name() string
	ComputeMergeStrategy(t *task.Task, fts *mas.FactoredTransitionSystem) Strategy
	RequiresInitDistances() bool
	RequiresGoalDistances() bool
}

// ComputeMergeCandidates returns all pairs i < j of the given factor
// indices in order.
func ComputeMergeCandidates(indices []int) []Pair {
	if len(indices) < 2 {
		return nil
	}
	candidates := make([]Pair, 0, len(indices)*(len(indices)-1)/2)
	for i, a := range indices {
		for _, b := range indices[i+1:] {
			candidates = append(candidates, Pair{a, b})
		}
	}
	return candidates
}

func activeIndices(fts *mas.FactoredTransitionSystem) []int {
	indices := make([]int, 0, fts.NumActive())
	for i := range fts.Active() {
		indices = append(indices, i)
	}
	return indices
}
