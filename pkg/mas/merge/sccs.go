package merge

import (
	"fmt"
	"slices"

	"github.com/matzehuels/mastower/pkg/mas"
	"github.com/matzehuels/mastower/pkg/sccs"
	"github.com/matzehuels/mastower/pkg/task"
)

// OrderOfSCCs orders the strongly connected components of the causal graph.
type OrderOfSCCs int

const (
	// Topological keeps the order in which the components are computed.
	Topological OrderOfSCCs = iota
	// ReverseTopological reverses the topological order.
	ReverseTopological
	// Decreasing puts larger components first, ties in topological order.
	Decreasing
	// Increasing puts smaller components first, ties in topological order.
	Increasing
)

var orderOfSCCsNames = [...]string{"topological", "reverse_topological", "decreasing", "increasing"}

func (o OrderOfSCCs) String() string {
	if o >= 0 && int(o) < len(orderOfSCCsNames) {
		return orderOfSCCsNames[o]
	}
	return fmt.Sprintf("order_of_sccs(%d)", int(o))
}

// ParseOrderOfSCCs parses a name as produced by String.
func ParseOrderOfSCCs(s string) (OrderOfSCCs, error) {
	if i := slices.Index(orderOfSCCsNames[:], s); i >= 0 {
		return OrderOfSCCs(i), nil
	}
	return 0, fmt.Errorf("unknown order_of_sccs %q", s)
}

// OrderSCCs returns the components of the causal graph of t in the given
// order. The size orders are stable with respect to topological order.
func OrderSCCs(t *task.Task, order OrderOfSCCs) [][]int {
	components := sccs.Compute(t.CausalGraph().Adjacency())
	switch order {
	case Topological:
	case ReverseTopological:
		slices.Reverse(components)
	case Decreasing:
		slices.SortStableFunc(components, func(a, b []int) int { return len(b) - len(a) })
	case Increasing:
		slices.SortStableFunc(components, func(a, b []int) int { return len(a) - len(b) })
	default:
		mas.ExitUnhandled("OrderOfSCCs", order)
	}
	return components
}

// FactorySCCs merges the variables of each non-singleton strongly connected
// component of the causal graph before merging across components. Within
// and across components, Selector picks the merges.
type FactorySCCs struct {
	Order    OrderOfSCCs
	Selector Selector
	// AllowWorkingOnAllClusters scores the pairs of all components together.
	// Otherwise components are finished one at a time in Order.
	AllowWorkingOnAllClusters bool
	Log                       *mas.Log
}

// Name implements Factory.
func (f *FactorySCCs) Name() string { return "sccs" }

// RequiresInitDistances implements Factory.
func (f *FactorySCCs) RequiresInitDistances() bool { return f.Selector.RequiresInitDistances() }

// RequiresGoalDistances implements Factory.
func (f *FactorySCCs) RequiresGoalDistances() bool { return f.Selector.RequiresGoalDistances() }

// ComputeMergeStrategy implements Factory.
func (f *FactorySCCs) ComputeMergeStrategy(t *task.Task, fts *mas.FactoredTransitionSystem) Strategy {
	components := OrderSCCs(t, f.Order)

	f.Log.Infof("SCCs of the causal graph:")
	var clusters [][]int
	for _, c := range components {
		f.Log.Infof("%v", c)
		if len(c) != 1 {
			clusters = append(clusters, slices.Clone(c))
		}
	}
	if len(components) == 1 {
		f.Log.Infof("Only one single SCC")
	}
	if len(components) == t.NumVariables() {
		f.Log.Infof("Only singleton SCCs")
	}

	f.Selector.Initialize(t)
	return &StrategySCCs{
		fts:         fts,
		selector:    f.Selector,
		clusters:    clusters,
		allClusters: f.AllowWorkingOnAllClusters,
	}
}

// StrategySCCs is the merge strategy created by [FactorySCCs]. Clusters
// hold the factor indices of the components not yet merged into one
// factor.
type StrategySCCs struct {
	fts         *mas.FactoredTransitionSystem
	selector    Selector
	clusters    [][]int
	allClusters bool
}

// Clusters returns the remaining non-singleton clusters.
func (s *StrategySCCs) Clusters() [][]int { return s.clusters }

// Next implements Strategy. The factor the returned pair is merged into
// must receive the next free index of the factored transition system.
func (s *StrategySCCs) Next() Pair {
	if len(s.clusters) == 0 {
		return s.selector.SelectMerge(s.fts, nil)
	}

	var candidates []Pair
	if s.allClusters {
		for _, c := range s.clusters {
			candidates = append(candidates, ComputeMergeCandidates(c)...)
		}
	} else {
		candidates = ComputeMergeCandidates(s.clusters[0])
	}
	next := s.selector.SelectMerge(s.fts, candidates)

	product := s.fts.Size()
	for i, c := range s.clusters {
		if !slices.Contains(c, next[0]) {
			continue
		}
		c = slices.DeleteFunc(c, func(v int) bool { return v == next[0] || v == next[1] })
		c = append(c, product)
		if len(c) == 1 {
			s.clusters = slices.Delete(s.clusters, i, i+1)
		} else {
			s.clusters[i] = c
		}
		break
	}
	return next
}
