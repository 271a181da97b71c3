package mas

import (
	"fmt"
	"slices"
)

// LabelReductionMethod selects the transition systems label reduction is
// computed for.
type LabelReductionMethod int

const (
	// TwoTransitionSystems reduces labels combinable for either factor of
	// the next merge.
	TwoTransitionSystems LabelReductionMethod = iota
	// AllTransitionSystems reduces labels combinable for each live factor
	// once.
	AllTransitionSystems
	// AllTransitionSystemsWithFixpoint repeats over all live factors until
	// no factor yields a reduction.
	AllTransitionSystemsWithFixpoint
)

var labelReductionMethodNames = [...]string{
	"two_transition_systems",
	"all_transition_systems",
	"all_transition_systems_with_fixpoint",
}

func (m LabelReductionMethod) String() string {
	if m >= 0 && int(m) < len(labelReductionMethodNames) {
		return labelReductionMethodNames[m]
	}
	return fmt.Sprintf("label_reduction_method(%d)", int(m))
}

// ParseLabelReductionMethod parses a method name as produced by String.
func ParseLabelReductionMethod(s string) (LabelReductionMethod, error) {
	if i := slices.Index(labelReductionMethodNames[:], s); i >= 0 {
		return LabelReductionMethod(i), nil
	}
	return 0, fmt.Errorf("unknown label reduction method %q", s)
}

// LabelReduction performs exact label reduction: two labels are combined
// if they have the same cost and are locally equivalent in every live
// factor except one. Replacing them by a single label preserves all goal
// distances.
type LabelReduction struct {
	Method          LabelReductionMethod
	BeforeShrinking bool
	BeforeMerging   bool
}

// Reduce reduces labels with respect to the factors selected by the
// method; pair is the next merge. It reports whether any label was reduced.
func (lr *LabelReduction) Reduce(pair [2]int, fts *FactoredTransitionSystem, log *Log) bool {
	switch lr.Method {
	case TwoTransitionSystems:
		reduced := false
		for _, index := range pair {
			if lr.reduceFor(index, fts, log) {
				reduced = true
			}
		}
		return reduced

	case AllTransitionSystems:
		reduced := false
		for index := range fts.Size() {
			if fts.IsActive(index) && lr.reduceFor(index, fts, log) {
				reduced = true
			}
		}
		return reduced

	case AllTransitionSystemsWithFixpoint:
		active := slices.Collect(fts.Active())
		if len(active) == 0 {
			return false
		}
		reduced := false
		unsuccessful := 0
		for i := 0; unsuccessful < len(active); i = (i + 1) % len(active) {
			if lr.reduceFor(active[i], fts, log) {
				reduced = true
				unsuccessful = 0
			} else {
				unsuccessful++
			}
		}
		return reduced
	}
	ExitUnhandled("LabelReductionMethod", lr.Method)
	return false
}

// reduceFor reduces all labels combinable for the factor at index.
func (lr *LabelReduction) reduceFor(index int, fts *FactoredTransitionSystem, log *Log) bool {
	mapping := computeLabelMapping(CombinableLabels(index, fts), fts.Labels())
	if len(mapping) == 0 {
		return false
	}
	if log.IsAtLeastVerbose() {
		before := fts.Labels().NumActive()
		reducedLabels := 0
		for _, entry := range mapping {
			reducedLabels += len(entry.Old)
		}
		log.Printf("Label reduction: %d labels, %d after reduction (%d combined for %s)",
			before, before-reducedLabels+len(mapping), reducedLabels, fts.TransitionSystem(index).Description())
	}
	fts.ApplyLabelMapping(mapping, index)
	return true
}

// CombinableLabels partitions the active labels into classes of labels
// with equal cost that share a local label in every live factor other than
// the one at index. Classes are ordered by their smallest label and sorted.
func CombinableLabels(index int, fts *FactoredTransitionSystem) [][]int {
	labels := fts.Labels()
	active := slices.Collect(labels.All())

	class := make(map[int]int, len(active))
	refine := func(key func(label int) int) {
		ids := make(map[[2]int]int)
		for _, label := range active {
			k := [2]int{class[label], key(label)}
			id, ok := ids[k]
			if !ok {
				id = len(ids)
				ids[k] = id
			}
			class[label] = id
		}
	}

	refine(labels.Cost)
	for i := range fts.Active() {
		if i == index {
			continue
		}
		refine(fts.TransitionSystem(i).LocalLabelIndex)
	}

	var classes [][]int
	position := make(map[int]int)
	for _, label := range active {
		id := class[label]
		p, ok := position[id]
		if !ok {
			p = len(classes)
			position[id] = p
			classes = append(classes, nil)
		}
		classes[p] = append(classes[p], label)
	}
	return classes
}

// computeLabelMapping assigns a new label id to every class with at least
// two labels. New ids continue after the registry's current labels.
func computeLabelMapping(classes [][]int, labels *Labels) LabelMapping {
	var mapping LabelMapping
	next := labels.Size()
	for _, class := range classes {
		if len(class) < 2 {
			continue
		}
		mapping = append(mapping, LabelMappingEntry{New: next, Old: class})
		next++
	}
	return mapping
}
