package merge

import (
	"math"

	"github.com/matzehuels/mastower/pkg/errors"
	"github.com/matzehuels/mastower/pkg/mas"
	"github.com/matzehuels/mastower/pkg/task"
)

// ScoreBasedFiltering applies its scoring functions in order, keeping only
// the best-scored candidates after each, until a single candidate is left.
// The last function must break all ties.
type ScoreBasedFiltering struct {
	Functions []ScoringFunction
}

// Name implements Selector.
func (s *ScoreBasedFiltering) Name() string { return "score_based_filtering" }

// Initialize implements Selector.
func (s *ScoreBasedFiltering) Initialize(t *task.Task) {
	for _, f := range s.Functions {
		f.Initialize(t)
	}
}

// SelectMerge implements Selector.
func (s *ScoreBasedFiltering) SelectMerge(fts *mas.FactoredTransitionSystem, candidates []Pair) Pair {
	if candidates == nil {
		candidates = ComputeMergeCandidates(activeIndices(fts))
	}
	if len(candidates) == 0 {
		errors.ExitWith(errors.ExitSearchCriticalError, "no merge candidates")
	}

	for _, f := range s.Functions {
		if len(candidates) == 1 {
			break
		}
		scores := f.ComputeScores(fts, candidates)
		candidates = bestCandidates(candidates, scores)
	}
	if len(candidates) > 1 {
		errors.ExitWith(errors.ExitSearchCriticalError,
			"%d merge candidates remain after all scoring functions; "+
				"the last function must break ties (total_order or single_random)", len(candidates))
	}
	return candidates[0]
}

// RequiresInitDistances implements Selector.
func (s *ScoreBasedFiltering) RequiresInitDistances() bool {
	for _, f := range s.Functions {
		if f.RequiresInitDistances() {
			return true
		}
	}
	return false
}

// RequiresGoalDistances implements Selector.
func (s *ScoreBasedFiltering) RequiresGoalDistances() bool {
	for _, f := range s.Functions {
		if f.RequiresGoalDistances() {
			return true
		}
	}
	return false
}

func bestCandidates(candidates []Pair, scores []float64) []Pair {
	best := math.Inf(1)
	for _, score := range scores {
		best = min(best, score)
	}
	var kept []Pair
	for i, score := range scores {
		if score == best {
			kept = append(kept, candidates[i])
		}
	}
	return kept
}
