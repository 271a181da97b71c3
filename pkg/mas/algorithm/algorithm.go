// Package algorithm runs the merge-and-shrink construction: it builds the
// atomic factors of a task, then repeatedly reduces labels, shrinks and
// merges pairs of factors chosen by a merge strategy until a single factor
// remains or the time budget runs out. The remaining factors form an
// admissible heuristic.
package algorithm

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/mastower/pkg/errors"
	"github.com/matzehuels/mastower/pkg/mas"
	"github.com/matzehuels/mastower/pkg/mas/merge"
	"github.com/matzehuels/mastower/pkg/mas/shrink"
	"github.com/matzehuels/mastower/pkg/observability"
	"github.com/matzehuels/mastower/pkg/task"
)

// Options configures a construction.
type Options struct {
	Limits shrink.Limits
	Shrink shrink.Strategy
	// LabelReduction is nil if labels are never reduced.
	LabelReduction *mas.LabelReduction
	MergeFactory   merge.Factory

	PruneUnreachable bool
	PruneIrrelevant  bool

	// MainLoopMaxTime bounds the main loop; zero means no bound.
	MainLoopMaxTime time.Duration

	// Verbosity is the verbosity callers should create the log with.
	Verbosity mas.Verbosity
}

// Validate reports missing collaborators and inconsistent limits.
func (o Options) Validate() error {
	switch {
	case o.Shrink == nil:
		return errors.New(errors.ErrCodeInvalidConfig, "no shrink strategy")
	case o.MergeFactory == nil:
		return errors.New(errors.ErrCodeInvalidConfig, "no merge strategy")
	case o.Limits.MaxStates <= 0 || o.Limits.MaxStatesBeforeMerge <= 0 || o.Limits.ThresholdBeforeMerge <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "size limits must be positive")
	case o.Limits.MaxStatesBeforeMerge > o.Limits.MaxStates:
		return errors.New(errors.ErrCodeInvalidConfig,
			"max_states_before_merge (%d) exceeds max_states (%d)", o.Limits.MaxStatesBeforeMerge, o.Limits.MaxStates)
	case o.MainLoopMaxTime < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "negative main loop time")
	}
	return nil
}

func (o Options) computeInitDistances() bool {
	return o.Shrink.RequiresInitDistances() || o.MergeFactory.RequiresInitDistances() || o.PruneUnreachable
}

func (o Options) computeGoalDistances() bool {
	return o.Shrink.RequiresGoalDistances() || o.MergeFactory.RequiresGoalDistances() || o.PruneIrrelevant
}

// builder holds the state of one construction.
type builder struct {
	ctx   context.Context
	opts  Options
	log   *mas.Log
	hooks observability.BuildHooks
	start time.Time
	stats Stats
}

// Build runs the construction for t. The task must be valid. Build returns
// an error for invalid options and when ctx is cancelled; running out of
// the main loop time budget is not an error.
func Build(ctx context.Context, t *task.Task, opts Options, log *mas.Log) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	b := &builder{
		ctx:   ctx,
		opts:  opts,
		log:   log,
		hooks: observability.Build(),
		start: time.Now(),
	}
	runID := uuid.New()
	log.Infof("Merge-and-shrink run %s", runID)

	result, err := b.run(t)
	b.stats.Duration = time.Since(b.start)
	factors := 0
	if result != nil {
		factors = len(result.Factors)
		result.RunID = runID
		result.Stats = b.stats
	}
	b.hooks.OnBuildComplete(ctx, factors, b.stats.Duration, err)
	if err != nil {
		return nil, err
	}
	log.Infof("Merge-and-shrink construction time: %s", b.stats.Duration)
	return result, nil
}

func (b *builder) run(t *task.Task) (*Result, error) {
	fts := mas.CreateAtomicFTS(t, b.opts.computeInitDistances(), b.opts.computeGoalDistances(), b.log)
	b.stats.AtomicFactors = fts.Size()
	b.hooks.OnAtomicFactors(b.ctx, fts.Size())
	b.log.Infof("Time for computing atomic transition systems: %s", time.Since(b.start))

	unsolvable := false
	pruned := false
	for index := range fts.Size() {
		if b.prune(fts, index) {
			pruned = true
		}
		if !fts.IsFactorSolvable(index) {
			b.log.Infof("Atomic FTS is unsolvable, stopping computation.")
			unsolvable = true
			break
		}
	}
	if pruned {
		b.log.Infof("Pruned atomic transition systems")
	}

	if !unsolvable {
		if err := b.mainLoop(t, fts); err != nil {
			return nil, err
		}
	}
	return extractFactors(fts, t, b.log), nil
}

func (b *builder) mainLoop(t *task.Task, fts *mas.FactoredTransitionSystem) error {
	loopStart := time.Now()
	if b.opts.MainLoopMaxTime > 0 {
		b.log.Infof("Starting main loop with a time limit of %s.", b.opts.MainLoopMaxTime)
	} else {
		b.log.Infof("Starting main loop without a time limit.")
	}
	for i := range fts.Active() {
		b.stats.MaxIntermediateSize = max(b.stats.MaxIntermediateSize, fts.TransitionSystem(i).Size())
	}

	strategy := b.opts.MergeFactory.ComputeMergeStrategy(t, fts)
	progress := func(msg string) {
		b.log.Infof("M&S algorithm main loop timer: %s (%s)", time.Since(loopStart), msg)
	}
	var err error
	outOfTime := func() bool {
		if cerr := b.ctx.Err(); cerr != nil {
			err = errors.Wrap(errors.ErrCodeTimeout, cerr, "merge-and-shrink construction cancelled")
			return true
		}
		if b.opts.MainLoopMaxTime > 0 && time.Since(loopStart) >= b.opts.MainLoopMaxTime {
			b.log.Infof("Ran out of time, stopping computation.")
			b.stats.OutOfTime = true
			return true
		}
		return false
	}

	for fts.NumActive() > 1 {
		pair := strategy.Next()
		if outOfTime() {
			break
		}
		i, j := pair[0], pair[1]
		if b.log.IsAtLeastNormal() {
			b.log.Printf("Next pair of indices: (%d, %d)", i, j)
			if b.log.IsAtLeastVerbose() {
				fts.Statistics(i, b.log)
				fts.Statistics(j, b.log)
			}
			progress("after computation of next merge")
		}

		if lr := b.opts.LabelReduction; lr != nil && lr.BeforeShrinking {
			b.reduceLabels(lr, pair, fts, progress)
		}
		if outOfTime() {
			break
		}

		before1, before2 := fts.TransitionSystem(i).Size(), fts.TransitionSystem(j).Size()
		shrunk1, shrunk2 := shrink.ShrinkBeforeMerge(fts, i, j, b.opts.Shrink, b.opts.Limits, b.log)
		if shrunk1 {
			b.hooks.OnShrink(b.ctx, i, before1, fts.TransitionSystem(i).Size())
		}
		if shrunk2 {
			b.hooks.OnShrink(b.ctx, j, before2, fts.TransitionSystem(j).Size())
		}
		if shrunk1 || shrunk2 {
			b.stats.Shrinks++
			progress("after shrinking")
		}
		if outOfTime() {
			break
		}

		if lr := b.opts.LabelReduction; lr != nil && lr.BeforeMerging {
			b.reduceLabels(lr, pair, fts, progress)
		}
		if outOfTime() {
			break
		}

		merged := fts.Merge(i, j, b.log)
		size := fts.TransitionSystem(merged).Size()
		b.stats.Merges++
		b.stats.MaxIntermediateSize = max(b.stats.MaxIntermediateSize, size)
		b.hooks.OnMerge(b.ctx, i, j, merged, size)
		if b.log.IsAtLeastNormal() {
			if b.log.IsAtLeastVerbose() {
				fts.Statistics(merged, b.log)
			}
			progress("after merging")
		}
		if outOfTime() {
			break
		}

		if b.prune(fts, merged) {
			if b.log.IsAtLeastVerbose() {
				fts.Statistics(merged, b.log)
			}
			progress("after pruning")
		}

		// Shrinking and merging require a factor whose initial state can
		// reach a goal.
		if !fts.IsFactorSolvable(merged) {
			b.log.Infof("Abstract problem is unsolvable, stopping computation.")
			break
		}
		if outOfTime() {
			break
		}
	}

	b.stats.MainLoopTime = time.Since(loopStart)
	b.log.Infof("End of merge-and-shrink algorithm, statistics:")
	b.log.Infof("Main loop runtime: %s", b.stats.MainLoopTime)
	b.log.Infof("Maximum intermediate abstraction size: %d", b.stats.MaxIntermediateSize)
	return err
}

func (b *builder) reduceLabels(lr *mas.LabelReduction, pair merge.Pair, fts *mas.FactoredTransitionSystem, progress func(string)) {
	reduced := lr.Reduce([2]int(pair), fts, b.log)
	b.hooks.OnLabelReduction(b.ctx, reduced)
	if reduced {
		b.stats.LabelReductions++
		if b.log.IsAtLeastDebug() {
			fts.Labels().Dump(b.log)
			for i := range fts.Active() {
				fts.TransitionSystem(i).DumpLabelMapping(b.log)
			}
		}
		progress("after label reduction")
	}
}

// prune applies the configured pruning to the factor at index.
func (b *builder) prune(fts *mas.FactoredTransitionSystem, index int) bool {
	if !b.opts.PruneUnreachable && !b.opts.PruneIrrelevant {
		return false
	}
	before := fts.TransitionSystem(index).Size()
	if !shrink.PruneStep(fts, index, b.opts.PruneUnreachable, b.opts.PruneIrrelevant, b.log) {
		return false
	}
	b.stats.Prunes++
	b.hooks.OnPrune(b.ctx, index, before, fts.TransitionSystem(index).Size())
	return true
}
