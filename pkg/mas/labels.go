package mas

import (
	"iter"

	"github.com/matzehuels/mastower/pkg/errors"
)

// Labels is the global label registry shared by all transition systems of
// a factored transition system.
//
// Labels are identified by their index into the cost table. Reducing labels
// marks them [Reduced] and appends one new label; ids are never reused.
type Labels struct {
	costs        []int
	maxNumLabels int
	numActive    int
}

// NewLabels creates a registry with the given initial label costs. At most
// maxNumLabels labels can ever exist, including reduced ones.
func NewLabels(costs []int, maxNumLabels int) *Labels {
	if len(costs) > maxNumLabels {
		errors.ExitWith(errors.ExitSearchCriticalError,
			"%d labels exceed label capacity %d", len(costs), maxNumLabels)
	}
	c := make([]int, len(costs), maxNumLabels)
	copy(c, costs)
	return &Labels{costs: c, maxNumLabels: maxNumLabels, numActive: len(costs)}
}

// ReduceLabels marks every label in old as reduced and creates a new label
// whose cost is the minimum cost of old. It returns the id of the new
// label.
//
// Every transition system must be updated with the same mapping; see
// [FactoredTransitionSystem.ApplyLabelMapping].
func (l *Labels) ReduceLabels(old []int) int {
	if len(l.costs) >= l.maxNumLabels {
		errors.ExitWith(errors.ExitSearchCriticalError,
			"label reduction exceeds label capacity %d", l.maxNumLabels)
	}
	cost := Inf
	for _, label := range old {
		cost = min(cost, l.costs[label])
		l.costs[label] = Reduced
	}
	l.costs = append(l.costs, cost)
	l.numActive -= len(old) - 1
	return len(l.costs) - 1
}

// Cost returns the cost of label, or [Reduced].
func (l *Labels) Cost(label int) int { return l.costs[label] }

// IsActive reports whether label exists and has not been reduced.
func (l *Labels) IsActive(label int) bool {
	return label >= 0 && label < len(l.costs) && l.costs[label] != Reduced
}

// Size returns the number of labels ever created.
func (l *Labels) Size() int { return len(l.costs) }

// MaxNumLabels returns the label capacity.
func (l *Labels) MaxNumLabels() int { return l.maxNumLabels }

// NumActive returns the number of labels that have not been reduced.
func (l *Labels) NumActive() int { return l.numActive }

// All yields the active label ids in increasing order.
func (l *Labels) All() iter.Seq[int] {
	return func(yield func(int) bool) {
		for label, cost := range l.costs {
			if cost == Reduced {
				continue
			}
			if !yield(label) {
				return
			}
		}
	}
}

// Dump writes all active labels and their costs at debug verbosity.
func (l *Labels) Dump(log *Log) {
	if !log.IsAtLeastDebug() {
		return
	}
	log.Printf("active labels: %d of %d (capacity %d)", l.numActive, len(l.costs), l.maxNumLabels)
	for label := range l.All() {
		log.Printf("label %d, cost %d", label, l.costs[label])
	}
}
