package mas

import "math"

const (
	// Inf is the infinite cost and distance.
	Inf = math.MaxInt32

	// NegInf is the negative infinite cost, used for saturated costs of
	// labels that cannot contribute to any finite distance.
	NegInf = -Inf

	// PrunedState marks an abstract state that has been pruned.
	PrunedState = -1

	// Reduced is the cost of a label that has been reduced.
	Reduced = -1
)
