package algorithm

import (
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/mastower/pkg/mas"
	"github.com/matzehuels/mastower/pkg/task"
)

// Factor is one abstraction of the final heuristic.
type Factor struct {
	// Index is the factor's index in the factored transition system.
	Index int
	// Variables are the task variables incorporated into the factor.
	Variables []int
	// Size is the number of abstract states.
	Size int
	// InitH is the goal distance of the abstract initial state.
	InitH int
	// TransitionSystem is the abstraction the factor was built from.
	TransitionSystem *mas.TransitionSystem

	rep mas.Representation
}

// Value returns the factor's heuristic value for a concrete state, [mas.Inf]
// for a dead end.
func (f Factor) Value(state []int) int {
	v := f.rep.Value(state)
	if v == mas.PrunedState {
		return mas.Inf
	}
	return v
}

// Stats summarizes a construction.
type Stats struct {
	AtomicFactors       int
	Merges              int
	Shrinks             int
	Prunes              int
	LabelReductions     int
	MaxIntermediateSize int
	OutOfTime           bool
	MainLoopTime        time.Duration
	Duration            time.Duration
}

// Result is the heuristic produced by a construction.
type Result struct {
	RunID   uuid.UUID
	Factors []Factor
	// Unsolvable is set if some factor proves the task unsolvable. Factors
	// then holds only that factor.
	Unsolvable bool
	Stats      Stats

	initial []int
}

// Heuristic returns the maximum over the factors' values for state, or
// [mas.Inf] if some factor recognizes a dead end.
func (r *Result) Heuristic(state []int) int {
	h := 0
	for _, f := range r.Factors {
		v := f.Value(state)
		if v == mas.Inf {
			return mas.Inf
		}
		h = max(h, v)
	}
	return h
}

// InitialHeuristic returns the heuristic value of the task's initial state.
func (r *Result) InitialHeuristic() int { return r.Heuristic(r.initial) }

// extractFactors retires the factors worth keeping from fts: the first
// unsolvable factor if there is one, otherwise every non-trivial factor, or
// one arbitrary factor if all are trivial.
func extractFactors(fts *mas.FactoredTransitionSystem, t *task.Task, log *mas.Log) *Result {
	r := &Result{initial: t.Initial}
	log.Infof("Number of remaining factors: %d", fts.NumActive())

	for index := range fts.Active() {
		if !fts.IsFactorSolvable(index) {
			log.Infof("Abstract problem is unsolvable, using only this factor")
			r.Factors = append(r.Factors, extractFactor(fts, index, log))
			r.Unsolvable = true
			return r
		}
	}

	var trivial []int
	for index := range fts.Active() {
		if fts.IsFactorTrivial(index) {
			trivial = append(trivial, index)
			continue
		}
		r.Factors = append(r.Factors, extractFactor(fts, index, log))
	}
	if len(r.Factors) == 0 && len(trivial) > 0 {
		log.Infof("All factors are trivial, using an arbitrary one")
		r.Factors = append(r.Factors, extractFactor(fts, trivial[0], log))
	}
	log.Infof("Number of factors kept: %d", len(r.Factors))
	return r
}

func extractFactor(fts *mas.FactoredTransitionSystem, index int, log *mas.Log) Factor {
	ts := fts.TransitionSystem(index)
	rep, d := fts.ExtractFactor(index)
	if !d.AreGoalDistancesComputed() {
		d.ComputeDistances(false, true, log)
	}
	rep.SetDistances(d)

	initH := mas.Inf
	if init := ts.InitState(); init != mas.PrunedState {
		initH = d.GoalDistance(init)
	}
	return Factor{
		Index:            index,
		Variables:        ts.IncorporatedVariables(),
		Size:             ts.Size(),
		InitH:            initH,
		TransitionSystem: ts,
		rep:              rep,
	}
}
