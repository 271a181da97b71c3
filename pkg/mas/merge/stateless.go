package merge

import (
	"github.com/matzehuels/mastower/pkg/mas"
	"github.com/matzehuels/mastower/pkg/task"
)

// FactoryStateless lets Selector choose every merge among all active
// factors.
type FactoryStateless struct {
	Selector Selector
}

// Name implements Factory.
func (f *FactoryStateless) Name() string { return "stateless" }

// RequiresInitDistances implements Factory.
func (f *FactoryStateless) RequiresInitDistances() bool { return f.Selector.RequiresInitDistances() }

// RequiresGoalDistances implements Factory.
func (f *FactoryStateless) RequiresGoalDistances() bool { return f.Selector.RequiresGoalDistances() }

// ComputeMergeStrategy implements Factory.
func (f *FactoryStateless) ComputeMergeStrategy(t *task.Task, fts *mas.FactoredTransitionSystem) Strategy {
	f.Selector.Initialize(t)
	return &StrategyStateless{fts: fts, selector: f.Selector}
}

// StrategyStateless is the merge strategy created by [FactoryStateless].
type StrategyStateless struct {
	fts      *mas.FactoredTransitionSystem
	selector Selector
}

// Next implements Strategy.
func (s *StrategyStateless) Next() Pair { return s.selector.SelectMerge(s.fts, nil) }
