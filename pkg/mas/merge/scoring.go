package merge

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/matzehuels/mastower/pkg/mas"
	"github.com/matzehuels/mastower/pkg/task"
)

// GoalRelevance prefers candidates with at least one factor that has a
// non-goal state: those score 0, all others Inf.
type GoalRelevance struct{}

// Name implements ScoringFunction.
func (GoalRelevance) Name() string { return "goal_relevance" }

// Initialize implements ScoringFunction.
func (GoalRelevance) Initialize(*task.Task) {}

// RequiresInitDistances implements ScoringFunction.
func (GoalRelevance) RequiresInitDistances() bool { return false }

// RequiresGoalDistances implements ScoringFunction.
func (GoalRelevance) RequiresGoalDistances() bool { return false }

// ComputeScores implements ScoringFunction.
func (GoalRelevance) ComputeScores(fts *mas.FactoredTransitionSystem, candidates []Pair) []float64 {
	scores := make([]float64, len(candidates))
	for i, p := range candidates {
		if isGoalRelevant(fts.TransitionSystem(p[0])) || isGoalRelevant(fts.TransitionSystem(p[1])) {
			scores[i] = 0
		} else {
			scores[i] = infScore
		}
	}
	return scores
}

func isGoalRelevant(ts *mas.TransitionSystem) bool {
	return slices.Contains(ts.GoalStates(), false)
}

// DFP scores a candidate by the smallest label rank shared by both factors,
// where the rank of a label in a factor is the lowest goal distance of a
// state it leads to. Labels that only loop on every state are irrelevant to
// a factor and ignored.
type DFP struct{}

// Name implements ScoringFunction.
func (DFP) Name() string { return "dfp" }

// Initialize implements ScoringFunction.
func (DFP) Initialize(*task.Task) {}

// RequiresInitDistances implements ScoringFunction.
func (DFP) RequiresInitDistances() bool { return false }

// RequiresGoalDistances implements ScoringFunction.
func (DFP) RequiresGoalDistances() bool { return true }

// ComputeScores implements ScoringFunction.
func (DFP) ComputeScores(fts *mas.FactoredTransitionSystem, candidates []Pair) []float64 {
	ranks := make([][]int, fts.Size())
	rank := func(index int) []int {
		if ranks[index] == nil {
			ranks[index] = labelRanks(fts, index)
		}
		return ranks[index]
	}

	scores := make([]float64, len(candidates))
	for i, p := range candidates {
		ranks1, ranks2 := rank(p[0]), rank(p[1])
		weight := mas.Inf
		for label := range ranks1 {
			if ranks1[label] != -1 && ranks2[label] != -1 {
				weight = min(weight, max(ranks1[label], ranks2[label]))
			}
		}
		scores[i] = float64(weight)
	}
	return scores
}

// labelRanks returns the rank of every label for the factor at index: -1
// for irrelevant or reduced labels, Inf for relevant labels without
// transitions.
func labelRanks(fts *mas.FactoredTransitionSystem, index int) []int {
	ts := fts.TransitionSystem(index)
	d := fts.Distances(index)
	ranks := make([]int, fts.Labels().Size())
	for i := range ranks {
		ranks[i] = -1
	}

	for _, info := range ts.LocalLabels() {
		transitions := info.Transitions()
		relevant := len(transitions) != ts.Size() ||
			slices.ContainsFunc(transitions, func(t mas.Transition) bool { return t.Src != t.Target })

		r := -1
		if relevant {
			r = mas.Inf
			for _, t := range transitions {
				r = min(r, d.GoalDistance(t.Target))
			}
		}
		for _, label := range info.LabelGroup() {
			ranks[label] = r
		}
	}
	return ranks
}

// AtomicOrder orders the atomic factors for [TotalOrder].
type AtomicOrder int

const (
	// ReverseLevel considers variables in index order.
	ReverseLevel AtomicOrder = iota
	// Level considers variables in reverse index order.
	Level
	// RandomAtomic shuffles the variables.
	RandomAtomic
)

var atomicOrderNames = [...]string{"reverse_level", "level", "random"}

func (o AtomicOrder) String() string {
	if o >= 0 && int(o) < len(atomicOrderNames) {
		return atomicOrderNames[o]
	}
	return fmt.Sprintf("atomic_ts_order(%d)", int(o))
}

// ParseAtomicOrder parses a name as produced by String.
func ParseAtomicOrder(s string) (AtomicOrder, error) {
	if i := slices.Index(atomicOrderNames[:], s); i >= 0 {
		return AtomicOrder(i), nil
	}
	return 0, fmt.Errorf("unknown atomic_ts_order %q", s)
}

// ProductOrder orders the product factors for [TotalOrder].
type ProductOrder int

const (
	// OldToNew considers products in creation order.
	OldToNew ProductOrder = iota
	// NewToOld considers the most recent product first.
	NewToOld
	// RandomProduct shuffles the products.
	RandomProduct
)

var productOrderNames = [...]string{"old_to_new", "new_to_old", "random"}

func (o ProductOrder) String() string {
	if o >= 0 && int(o) < len(productOrderNames) {
		return productOrderNames[o]
	}
	return fmt.Sprintf("product_ts_order(%d)", int(o))
}

// ParseProductOrder parses a name as produced by String.
func ParseProductOrder(s string) (ProductOrder, error) {
	if i := slices.Index(productOrderNames[:], s); i >= 0 {
		return ProductOrder(i), nil
	}
	return 0, fmt.Errorf("unknown product_ts_order %q", s)
}

// TotalOrder scores candidates by their position in a fixed order over all
// pairs of factor indices a construction can produce. It breaks all ties.
type TotalOrder struct {
	AtomicOrder         AtomicOrder
	ProductOrder        ProductOrder
	AtomicBeforeProduct bool
	Seed                uint64

	position map[Pair]int
}

// Name implements ScoringFunction.
func (o *TotalOrder) Name() string { return "total_order" }

// RequiresInitDistances implements ScoringFunction.
func (o *TotalOrder) RequiresInitDistances() bool { return false }

// RequiresGoalDistances implements ScoringFunction.
func (o *TotalOrder) RequiresGoalDistances() bool { return false }

// Initialize implements ScoringFunction.
func (o *TotalOrder) Initialize(t *task.Task) {
	numVars := t.NumVariables()
	maxFactors := max(0, 2*numVars-1)
	rng := rand.New(rand.NewPCG(o.Seed, 0))

	atomic := make([]int, 0, numVars)
	for i := range numVars {
		atomic = append(atomic, i)
	}
	switch o.AtomicOrder {
	case ReverseLevel:
	case Level:
		slices.Reverse(atomic)
	case RandomAtomic:
		rng.Shuffle(len(atomic), func(i, j int) { atomic[i], atomic[j] = atomic[j], atomic[i] })
	default:
		mas.ExitUnhandled("AtomicOrder", o.AtomicOrder)
	}

	products := make([]int, 0, max(0, numVars-1))
	for i := numVars; i < maxFactors; i++ {
		products = append(products, i)
	}
	switch o.ProductOrder {
	case OldToNew:
	case NewToOld:
		slices.Reverse(products)
	case RandomProduct:
		rng.Shuffle(len(products), func(i, j int) { products[i], products[j] = products[j], products[i] })
	default:
		mas.ExitUnhandled("ProductOrder", o.ProductOrder)
	}

	var order []int
	if o.AtomicBeforeProduct {
		order = append(atomic, products...)
	} else {
		order = append(products, atomic...)
	}

	o.position = make(map[Pair]int, len(order)*len(order)/2)
	for i, p := range ComputeMergeCandidates(order) {
		o.position[p] = i
		o.position[Pair{p[1], p[0]}] = i
	}
}

// ComputeScores implements ScoringFunction.
func (o *TotalOrder) ComputeScores(_ *mas.FactoredTransitionSystem, candidates []Pair) []float64 {
	scores := make([]float64, len(candidates))
	for i, p := range candidates {
		pos, ok := o.position[p]
		if !ok {
			mas.ExitUnhandled("merge candidate", p)
		}
		scores[i] = float64(pos)
	}
	return scores
}

// SingleRandom gives score 0 to one candidate chosen uniformly at random
// and Inf to all others. It breaks all ties.
type SingleRandom struct {
	Seed uint64

	rng *rand.Rand
}

// Name implements ScoringFunction.
func (r *SingleRandom) Name() string { return "single_random" }

// Initialize implements ScoringFunction.
func (r *SingleRandom) Initialize(*task.Task) {
	r.rng = rand.New(rand.NewPCG(r.Seed, 0))
}

// RequiresInitDistances implements ScoringFunction.
func (r *SingleRandom) RequiresInitDistances() bool { return false }

// RequiresGoalDistances implements ScoringFunction.
func (r *SingleRandom) RequiresGoalDistances() bool { return false }

// ComputeScores implements ScoringFunction.
func (r *SingleRandom) ComputeScores(_ *mas.FactoredTransitionSystem, candidates []Pair) []float64 {
	if r.rng == nil {
		r.Initialize(nil)
	}
	chosen := r.rng.IntN(len(candidates))
	scores := make([]float64, len(candidates))
	for i := range scores {
		if i != chosen {
			scores[i] = infScore
		}
	}
	return scores
}
