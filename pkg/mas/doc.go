// Package mas implements the data structures of merge-and-shrink
// abstractions: the global label registry, per-factor transition systems,
// their distances and state mappings, and the factored transition system
// that holds all live factors during construction.
//
// # Overview
//
// A [TransitionSystem] is the automaton of one factor. Its transitions are
// grouped by local label: a local label is a group of global labels that
// induce exactly the same transitions in this factor. The factor's label
// groups and the global-to-local mapping always form a consistent
// partition of the active labels of the shared [Labels] registry; every
// mutating operation re-checks this and aborts the run if it does not hold.
//
// The three structural operations are:
//   - [Merge]: the synchronized product of two factors
//   - [TransitionSystem.ApplyAbstraction]: shrinking and pruning by a state
//     equivalence relation
//   - [TransitionSystem.ApplyLabelReduction]: replacing several global
//     labels by one
//
// The registry and all live transition systems must be updated in lockstep
// for a label reduction; [FactoredTransitionSystem.ApplyLabelMapping] does
// both.
//
// # Sentinels
//
// [PrunedState] marks abstract states proven unreachable or irrelevant,
// [Inf] marks infinite costs and distances and [Reduced] marks the cost of
// a reduced label. They are ordinary data values that consumers check; they
// are never raised as errors.
//
// # Fatal Conditions
//
// Conditions after which results would be silently wrong (overflowing a
// product transition buffer, exceeding the label capacity, a broken
// transition system invariant) abort through [errors.ExitWith].
//
// # Logging
//
// Diagnostics go through a [Log], which filters by [Verbosity]. A nil or
// silent log never changes computed results.
//
// [errors.ExitWith]: github.com/matzehuels/mastower/pkg/errors.ExitWith
package mas
