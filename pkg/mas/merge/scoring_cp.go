package merge

import (
	"fmt"
	"slices"

	"github.com/matzehuels/mastower/pkg/errors"
	"github.com/matzehuels/mastower/pkg/mas"
	"github.com/matzehuels/mastower/pkg/mas/scp"
	"github.com/matzehuels/mastower/pkg/mas/shrink"
	"github.com/matzehuels/mastower/pkg/task"
)

// TSEvaluation selects the statistic a factor is evaluated by.
type TSEvaluation int

const (
	// InitH evaluates a factor by the goal distance of its initial state.
	InitH TSEvaluation = iota
	// AvgH evaluates a factor by the average goal distance of its states.
	AvgH
)

var tsEvaluationNames = [...]string{"init_h", "avg_h"}

func (e TSEvaluation) String() string {
	if e >= 0 && int(e) < len(tsEvaluationNames) {
		return tsEvaluationNames[e]
	}
	return fmt.Sprintf("ts_evaluation(%d)", int(e))
}

// ParseTSEvaluation parses a name as produced by String.
func ParseTSEvaluation(s string) (TSEvaluation, error) {
	if i := slices.Index(tsEvaluationNames[:], s); i >= 0 {
		return TSEvaluation(i), nil
	}
	return 0, fmt.Errorf("unknown ts_evaluation %q", s)
}

// ComponentAggregation selects how the two unmerged factors of a candidate
// are combined into the component value.
type ComponentAggregation int

const (
	// MaxOverFactors takes the maximum over the two factor heuristics.
	MaxOverFactors ComponentAggregation = iota
	// MaxOverSCPs takes the maximum over the saturated cost partitionings
	// of the two factors in both orders.
	MaxOverSCPs
)

var componentAggregationNames = [...]string{"max_factor", "max_scp"}

func (a ComponentAggregation) String() string {
	if a >= 0 && int(a) < len(componentAggregationNames) {
		return componentAggregationNames[a]
	}
	return fmt.Sprintf("component_aggregation(%d)", int(a))
}

// ParseComponentAggregation parses a name as produced by String.
func ParseComponentAggregation(s string) (ComponentAggregation, error) {
	if i := slices.Index(componentAggregationNames[:], s); i >= 0 {
		return ComponentAggregation(i), nil
	}
	return 0, fmt.Errorf("unknown component_aggregation %q", s)
}

// CP scores a candidate by how much merging it gains over a cost
// partitioning of its two factors: the score is the component value minus
// the value of the (shrunk) product. A low score means the product adds
// little beyond what partitioning the costs already captures. The score can
// be positive because the component value is computed over unshrunk
// factors.
//
// Shrink and Limits should match the configuration of the construction.
//
// With UseCaching, the score of a pair is computed once and reused. This is
// only correct if the construction uses exact label reduction exclusively
// and never shrinks factors other than the two merged in the current step;
// otherwise cached scores go stale without notice.
type CP struct {
	UseCaching           bool
	Shrink               shrink.Strategy
	Limits               shrink.Limits
	Evaluation           TSEvaluation
	Aggregation          ComponentAggregation
	FilterTrivialFactors bool

	// cache[i][j] is the score of candidate (i, j); rows are allocated on
	// first use.
	cache []map[int]float64
}

// Name implements ScoringFunction.
func (c *CP) Name() string { return "sf_cp" }

// Initialize implements ScoringFunction. It resets the score cache to hold
// every factor index a construction for t can produce.
func (c *CP) Initialize(t *task.Task) {
	c.cache = make([]map[int]float64, max(0, 2*t.NumVariables()-1))
}

// RequiresInitDistances implements ScoringFunction.
func (c *CP) RequiresInitDistances() bool { return true }

// RequiresGoalDistances implements ScoringFunction.
func (c *CP) RequiresGoalDistances() bool { return true }

// ComputeScores implements ScoringFunction.
func (c *CP) ComputeScores(fts *mas.FactoredTransitionSystem, candidates []Pair) []float64 {
	if c.UseCaching && c.cache == nil {
		errors.ExitWith(errors.ExitSearchCriticalError, "%s: scores requested before Initialize", c.Name())
	}

	scores := make([]float64, 0, len(candidates))
	var trivial []int // per factor: -1 unknown, 0 no, 1 yes
	for _, p := range candidates {
		if score, ok := c.cached(p); ok {
			scores = append(scores, score)
			continue
		}

		log := mas.SilentLog()
		product := shrink.ShrinkBeforeMergeExternally(fts, p[0], p[1], c.Shrink, c.Limits, log)
		d := mas.NewDistances(product)
		d.ComputeDistances(false, true, log)

		var productValue float64
		switch c.Evaluation {
		case InitH:
			productValue = float64(d.GoalDistance(product.InitState()))
		case AvgH:
			productValue = average(d.GoalDistances())
		default:
			mas.ExitUnhandled("TSEvaluation", c.Evaluation)
		}

		var componentValue float64
		switch c.Aggregation {
		case MaxOverFactors:
			componentValue = c.componentValueMax(fts, p[0], p[1])
		case MaxOverSCPs:
			if trivial == nil && c.FilterTrivialFactors {
				trivial = make([]int, fts.Size())
				for i := range trivial {
					trivial[i] = -1
				}
			}
			componentValue = c.componentValueSCP(fts, p[0], p[1], trivial, log)
		default:
			mas.ExitUnhandled("ComponentAggregation", c.Aggregation)
		}

		score := componentValue - productValue
		c.store(p, score)
		scores = append(scores, score)
	}
	return scores
}

func (c *CP) cached(p Pair) (float64, bool) {
	if !c.UseCaching {
		return 0, false
	}
	row := c.cache[p[0]]
	if row == nil {
		return 0, false
	}
	score, ok := row[p[1]]
	return score, ok
}

func (c *CP) store(p Pair, score float64) {
	if !c.UseCaching {
		return
	}
	if c.cache[p[0]] == nil {
		c.cache[p[0]] = make(map[int]float64)
	}
	c.cache[p[0]][p[1]] = score
}

// factorValue evaluates a single factor by its own goal distances.
func (c *CP) factorValue(fts *mas.FactoredTransitionSystem, index int) float64 {
	d := fts.Distances(index)
	switch c.Evaluation {
	case InitH:
		return float64(d.GoalDistance(fts.TransitionSystem(index).InitState()))
	case AvgH:
		return average(d.GoalDistances())
	default:
		mas.ExitUnhandled("TSEvaluation", c.Evaluation)
	}
	return 0
}

func (c *CP) componentValueMax(fts *mas.FactoredTransitionSystem, index1, index2 int) float64 {
	if c.Evaluation == InitH {
		init1 := fts.TransitionSystem(index1).InitState()
		init2 := fts.TransitionSystem(index2).InitState()
		if init1 == mas.PrunedState || init2 == mas.PrunedState {
			return infScore
		}
	}
	return max(c.factorValue(fts, index1), c.factorValue(fts, index2))
}

func (c *CP) componentValueSCP(fts *mas.FactoredTransitionSystem, index1, index2 int, trivial []int, log *mas.Log) float64 {
	considered := make([]int, 0, 2)
	if c.FilterTrivialFactors {
		for _, i := range [2]int{index1, index2} {
			if trivial[i] == -1 {
				trivial[i] = 0
				if fts.IsFactorTrivial(i) {
					trivial[i] = 1
				}
			}
			if trivial[i] == 0 {
				considered = append(considered, i)
			}
		}
	} else {
		considered = append(considered, index1, index2)
	}

	switch len(considered) {
	case 0:
		return 0
	case 1:
		return c.factorValue(fts, considered[0])
	}

	h1 := scpHValues(fts, []int{index1, index2}, log)
	h2 := scpHValues(fts, []int{index2, index1}, log)
	switch c.Evaluation {
	case InitH:
		init1 := fts.TransitionSystem(index1).InitState()
		init2 := fts.TransitionSystem(index2).InitState()
		return float64(max(scpValue(h1, []int{init1, init2}), scpValue(h2, []int{init2, init1})))
	case AvgH:
		avg1 := (average(h1[0]) + average(h1[1])) / 2
		avg2 := (average(h2[0]) + average(h2[1])) / 2
		return max(avg1, avg2)
	default:
		mas.ExitUnhandled("TSEvaluation", c.Evaluation)
	}
	return 0
}

// scpHValues computes the saturated cost partitioning over the factors in
// order and returns each factor's goal distances under its share of the
// costs. Factors that are total and have only zero distances contribute
// nothing and get an empty entry.
func scpHValues(fts *mas.FactoredTransitionSystem, order []int, log *mas.Log) [][]int {
	costs := scp.ComputeLabelCosts(fts.Labels())
	result := make([][]int, 0, len(order))
	for i, index := range order {
		ts := fts.TransitionSystem(index)
		if log.IsAtLeastDebug() {
			log.Debugf("%sremaining label costs: %v", ts.Tag(), costs)
		}

		h := scp.GoalDistancesForLabelCosts(ts, costs, log)
		log.Debugf("%sdistances under remaining costs: %v", ts.Tag(), h)
		if !fts.Representation(index).IsTotal() || slices.ContainsFunc(h, func(v int) bool { return v > 0 }) {
			result = append(result, h)
		} else {
			result = append(result, nil)
		}

		if i == len(order)-1 {
			break
		}
		saturated := scp.ComputeSaturatedCosts(ts, h, fts.Labels().Size(), log)
		scp.ReduceCosts(costs, saturated)
	}
	return result
}

// scpValue sums the cost-partitioned goal distances of the given abstract
// states. A pruned or dead-end state yields Inf.
func scpValue(hValues [][]int, states []int) int {
	sum := 0
	for i, state := range states {
		if hValues[i] == nil {
			continue
		}
		if state == mas.PrunedState {
			return mas.Inf
		}
		h := hValues[i][state]
		if h == mas.Inf {
			return mas.Inf
		}
		sum += h
	}
	return sum
}

// average returns the mean of values, or 0 for no values. Values are
// summed as ints.
func average(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum int64
	for _, v := range values {
		sum += int64(v)
	}
	return float64(sum) / float64(len(values))
}
