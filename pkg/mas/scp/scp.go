// Package scp provides the saturated cost partitioning utilities used to
// score merge candidates: dense label cost vectors, the saturated cost a
// factor needs to preserve its goal distances, and the subtraction of
// saturated costs from the remaining cost budget.
//
// Cost vectors are indexed by global label id and hold [mas.Reduced] for
// reduced labels, [mas.Inf] for unusable labels and, for saturated costs,
// [mas.NegInf] for labels that cannot contribute to any finite distance.
package scp

import (
	"github.com/matzehuels/mastower/pkg/errors"
	"github.com/matzehuels/mastower/pkg/mas"
)

// ComputeLabelCosts returns the cost of every label ever created, with
// [mas.Reduced] for reduced labels.
func ComputeLabelCosts(labels *mas.Labels) []int {
	costs := make([]int, labels.Size())
	for i := range costs {
		costs[i] = mas.Reduced
	}
	for label := range labels.All() {
		costs[label] = labels.Cost(label)
	}
	return costs
}

// ComputeSaturatedCosts returns, for every label of ts, the largest
// decrease of goalDistances along any of its transitions. A label group
// without transitions gets [mas.NegInf]. Labels not present in ts keep
// [mas.Reduced].
func ComputeSaturatedCosts(ts *mas.TransitionSystem, goalDistances []int, numLabels int, log *mas.Log) []int {
	saturated := make([]int, numLabels)
	for i := range saturated {
		saturated[i] = mas.Reduced
	}

	for _, info := range ts.LocalLabels() {
		groupCost := mas.NegInf
		transitions := info.Transitions()
		if len(transitions) == 0 {
			if log.IsAtLeastVerbose() && log.Once("scp: dead label group") {
				log.Printf("found dead label group")
			}
		} else {
			for _, t := range transitions {
				groupCost = max(groupCost, difference(goalDistances[t.Src], goalDistances[t.Target]))
			}
			if groupCost == mas.NegInf && log.IsAtLeastVerbose() && log.Once("scp: infinite label group") {
				log.Printf("label group does not lead to any state with finite heuristic value")
			}
		}
		for _, label := range info.LabelGroup() {
			saturated[label] = groupCost
		}
	}

	log.Debugf("Saturated label costs: %v", saturated)
	return saturated
}

// difference is hSrc - hTarget over the integers extended by -Inf and Inf.
func difference(hSrc, hTarget int) int {
	switch {
	case hSrc == mas.NegInf || hTarget == mas.Inf:
		return mas.NegInf
	case hSrc == mas.Inf || hTarget == mas.NegInf:
		return mas.Inf
	}
	return hSrc - hTarget
}

// ReduceCosts subtracts saturated from remaining in place.
//
// Reduced labels stay reduced and labels with infinite remaining cost stay
// infinite. A label with saturated cost [mas.NegInf] gets infinite
// remaining cost. A negative result is a defect upstream and aborts the
// run.
func ReduceCosts(remaining, saturated []int) {
	for label, cost := range remaining {
		sat := saturated[label]
		switch {
		case cost == mas.Reduced:
			continue
		case cost == mas.Inf:
			continue
		case sat == mas.NegInf:
			remaining[label] = mas.Inf
			continue
		}
		if sat > cost {
			errors.ExitWith(errors.ExitSearchCriticalError,
				"saturated cost %d of label %d exceeds remaining cost %d", sat, label, cost)
		}
		remaining[label] = cost - sat
	}
}

// GoalDistancesForLabelCosts computes the goal distances of ts when every
// label costs labelCosts[label]. The cost of a local label is the minimum
// over its labels; reduced labels are ignored.
func GoalDistancesForLabelCosts(ts *mas.TransitionSystem, labelCosts []int, log *mas.Log) []int {
	dist := mas.GoalDistancesWithCosts(ts, func(info mas.LocalLabelInfo) int {
		cost := mas.Inf
		for _, label := range info.LabelGroup() {
			if c := labelCosts[label]; c != mas.Reduced {
				cost = min(cost, c)
			}
		}
		return cost
	})
	log.Debugf("%sgoal distances under label costs: %v", ts.Tag(), dist)
	return dist
}
