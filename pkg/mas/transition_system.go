package mas

import (
	"cmp"
	"fmt"
	"iter"
	"math"
	"slices"
	"strings"
	"unicode"

	"github.com/matzehuels/mastower/pkg/errors"
)

// Transition is an arc between two abstract states. Transitions order
// lexicographically by source, then target.
type Transition struct {
	Src    int
	Target int
}

// Compare orders transitions lexicographically.
func (t Transition) Compare(o Transition) int {
	if c := cmp.Compare(t.Src, o.Src); c != 0 {
		return c
	}
	return cmp.Compare(t.Target, o.Target)
}

func (t Transition) String() string { return fmt.Sprintf("%d->%d", t.Src, t.Target) }

// LabelGroup is the set of global labels of one local label.
type LabelGroup []int

// LocalLabelInfo is a local label: a group of global labels with identical
// transitions in one transition system, their sorted duplicate-free
// transitions and the minimum cost over the group.
type LocalLabelInfo struct {
	labelGroup  LabelGroup
	transitions []Transition
	cost        int
}

// NewLocalLabelInfo creates a local label. transitions must be sorted and
// duplicate-free.
func NewLocalLabelInfo(group LabelGroup, transitions []Transition, cost int) LocalLabelInfo {
	return LocalLabelInfo{labelGroup: group, transitions: transitions, cost: cost}
}

// LabelGroup returns the global labels of the local label.
func (li LocalLabelInfo) LabelGroup() LabelGroup { return li.labelGroup }

// Transitions returns the transitions of the local label.
func (li LocalLabelInfo) Transitions() []Transition { return li.transitions }

// Cost returns the minimum cost of the group's labels.
func (li LocalLabelInfo) Cost() int { return li.cost }

// Empty reports whether the local label represents no global label.
func (li LocalLabelInfo) Empty() bool { return len(li.labelGroup) == 0 }

func (li *LocalLabelInfo) addLabel(label, cost int) {
	li.labelGroup = append(li.labelGroup, label)
	li.cost = min(li.cost, cost)
}

func (li *LocalLabelInfo) removeLabel(label int) {
	if i := slices.Index(li.labelGroup, label); i >= 0 {
		li.labelGroup = slices.Delete(li.labelGroup, i, i+1)
	}
}

// absorb moves all labels of other into li. Both must have the same
// transitions; other is cleared.
func (li *LocalLabelInfo) absorb(other *LocalLabelInfo) {
	li.labelGroup = append(li.labelGroup, other.labelGroup...)
	li.cost = min(li.cost, other.cost)
	other.clear()
}

func (li *LocalLabelInfo) clear() {
	li.labelGroup = nil
	li.transitions = nil
	li.cost = Reduced
}

func (li LocalLabelInfo) clone() LocalLabelInfo {
	return LocalLabelInfo{
		labelGroup:  slices.Clone(li.labelGroup),
		transitions: slices.Clone(li.transitions),
		cost:        li.cost,
	}
}

// StateEquivalenceClass is a set of abstract states collapsed into one.
type StateEquivalenceClass []int

// StateEquivalenceRelation partitions the non-pruned states of a
// transition system. Class i becomes abstract state i.
type StateEquivalenceRelation []StateEquivalenceClass

// LabelMappingEntry replaces the Old labels by the New label.
type LabelMappingEntry struct {
	New int
	Old []int
}

// LabelMapping is one round of label reduction.
type LabelMapping []LabelMappingEntry

// maxTransitions bounds the length of a product transition buffer.
var maxTransitions = math.MaxInt / 16

// TransitionSystem is the labeled transition system of one factor.
//
// States are 0..Size()-1. Transitions are stored per local label rather
// than per state: products are built label by label and abstractions remap
// every transition list in one pass. Only distance computation needs
// per-state adjacency, and builds it on demand.
type TransitionSystem struct {
	numVariables          int
	incorporatedVariables []int
	labels                *Labels

	globalToLocal []int // indexed by global label, -1 if not mapped
	localLabels   []LocalLabelInfo

	numStates  int
	goalStates []bool
	initState  int
}

// NewTransitionSystem assembles a transition system from its parts and
// aborts the run if it is not valid. globalToLocal must have one entry per
// possible label id (labels.MaxNumLabels()).
func NewTransitionSystem(
	numVariables int,
	incorporatedVariables []int,
	labels *Labels,
	globalToLocal []int,
	localLabels []LocalLabelInfo,
	numStates int,
	goalStates []bool,
	initState int,
) *TransitionSystem {
	ts := &TransitionSystem{
		numVariables:          numVariables,
		incorporatedVariables: incorporatedVariables,
		labels:                labels,
		globalToLocal:         globalToLocal,
		localLabels:           localLabels,
		numStates:             numStates,
		goalStates:            goalStates,
		initState:             initState,
	}
	ts.assertValid("construction")
	return ts
}

// Merge computes the synchronized product of ts1 and ts2. Neither input is
// modified.
//
// Product state (s1, s2) is s1*ts2.Size()+s2; it is a goal iff both
// components are goals. Two labels share a local label in the product iff
// they share one in both inputs, or both have no transitions in the
// product. Both inputs must have a non-pruned initial state.
func Merge(labels *Labels, ts1, ts2 *TransitionSystem, log *Log) *TransitionSystem {
	log.Verbosef("Merging %s and %s", ts1.Description(), ts2.Description())

	if ts1.initState == PrunedState || ts2.initState == PrunedState {
		errors.ExitWith(errors.ExitSearchCriticalError,
			"cannot merge unsolvable factors %s and %s", ts1.Description(), ts2.Description())
	}

	incorporated := make([]int, 0, len(ts1.incorporatedVariables)+len(ts2.incorporatedVariables))
	incorporated = append(incorporated, ts1.incorporatedVariables...)
	incorporated = append(incorporated, ts2.incorporatedVariables...)
	slices.Sort(incorporated)
	incorporated = slices.Compact(incorporated)

	size1, size2 := ts1.numStates, ts2.numStates
	numStates := size1 * size2
	goalStates := make([]bool, numStates)
	for s1 := range size1 {
		if !ts1.goalStates[s1] {
			continue
		}
		for s2 := range size2 {
			goalStates[s1*size2+s2] = ts2.goalStates[s2]
		}
	}
	initState := ts1.initState*size2 + ts2.initState

	globalToLocal := make([]int, labels.MaxNumLabels())
	for i := range globalToLocal {
		globalToLocal[i] = -1
	}
	localLabels := make([]LocalLabelInfo, 0, labels.NumActive())
	add := func(info LocalLabelInfo) {
		id := len(localLabels)
		for _, label := range info.labelGroup {
			globalToLocal[label] = id
		}
		localLabels = append(localLabels, info)
	}

	var dead LabelGroup
	for _, info1 := range ts1.LocalLabels() {
		live, deadHere := mergeLabelGroup(labels, info1, ts2)
		for _, info := range live {
			add(info)
		}
		dead = append(dead, deadHere...)
	}
	if info, ok := collectDeadLabels(labels, dead); ok {
		add(info)
	}

	return NewTransitionSystem(
		ts1.numVariables,
		incorporated,
		labels,
		globalToLocal,
		localLabels,
		numStates,
		goalStates,
		initState,
	)
}

// mergeLabelGroup refines the local label info1 of the first factor by the
// local labels of ts2 and builds the product transitions of every part. It
// returns the parts with transitions as new local labels, and the labels of
// all parts without product transitions.
//
// Parts are produced in order of their first label in info1.
func mergeLabelGroup(labels *Labels, info1 LocalLabelInfo, ts2 *TransitionSystem) ([]LocalLabelInfo, LabelGroup) {
	var (
		order   []int
		buckets = make(map[int]LabelGroup)
	)
	for _, label := range info1.labelGroup {
		local2 := ts2.globalToLocal[label]
		if _, ok := buckets[local2]; !ok {
			order = append(order, local2)
		}
		buckets[local2] = append(buckets[local2], label)
	}

	var (
		live []LocalLabelInfo
		dead LabelGroup
	)
	multiplier := ts2.numStates
	transitions1 := info1.transitions
	for _, local2 := range order {
		group := buckets[local2]
		transitions2 := ts2.localLabels[local2].transitions

		checkProductSize(len(transitions1), len(transitions2))
		if len(transitions1) == 0 || len(transitions2) == 0 {
			dead = append(dead, group...)
			continue
		}

		product := make([]Transition, 0, len(transitions1)*len(transitions2))
		for _, t1 := range transitions1 {
			for _, t2 := range transitions2 {
				product = append(product, Transition{
					Src:    t1.Src*multiplier + t2.Src,
					Target: t1.Target*multiplier + t2.Target,
				})
			}
		}
		slices.SortFunc(product, Transition.Compare)

		cost := Inf
		for _, label := range group {
			cost = min(cost, labels.Cost(label))
		}
		live = append(live, NewLocalLabelInfo(group, product, cost))
	}
	return live, dead
}

// collectDeadLabels combines all labels that are dead in a product into a
// single local label without transitions. Dead labels must form one group
// even when they died in different groups of the first factor.
func collectDeadLabels(labels *Labels, dead LabelGroup) (LocalLabelInfo, bool) {
	if len(dead) == 0 {
		return LocalLabelInfo{}, false
	}
	cost := Inf
	for _, label := range dead {
		cost = min(cost, labels.Cost(label))
	}
	return NewLocalLabelInfo(slices.Clone(dead), nil, cost), true
}

// checkProductSize aborts the run if the product of two transition lists
// cannot be allocated.
func checkProductSize(n1, n2 int) {
	if n1 > 0 && n2 > 0 && n1 > maxTransitions/n2 {
		errors.ExitWith(errors.ExitSearchOutOfMemory,
			"product of %d and %d transitions exceeds buffer capacity", n1, n2)
	}
}

// ComputeLocallyEquivalentLabels merges all local labels with identical
// transitions. Local labels without global labels are skipped.
func (ts *TransitionSystem) ComputeLocallyEquivalentLabels() {
	for i := range ts.localLabels {
		if ts.localLabels[i].Empty() {
			continue
		}
		for j := i + 1; j < len(ts.localLabels); j++ {
			if ts.localLabels[j].Empty() {
				continue
			}
			// Transitions are sorted and unique, so equality is element-wise.
			if !slices.Equal(ts.localLabels[i].transitions, ts.localLabels[j].transitions) {
				continue
			}
			for _, label := range ts.localLabels[j].labelGroup {
				ts.globalToLocal[label] = i
			}
			ts.localLabels[i].absorb(&ts.localLabels[j])
		}
	}
	ts.assertValid("computing locally equivalent labels")
}

// ApplyAbstraction shrinks the transition system to the classes of
// relation. mapping maps every old state to its class, or to
// [PrunedState]. A new state is a goal if any of its old states is.
// Transitions with a pruned endpoint are dropped. The initial state may
// become [PrunedState], which makes the factor unsolvable.
func (ts *TransitionSystem) ApplyAbstraction(relation StateEquivalenceRelation, mapping []int, log *Log) {
	newNumStates := len(relation)
	if newNumStates >= ts.numStates {
		errors.ExitWith(errors.ExitSearchCriticalError,
			"%sabstraction from %d to %d states does not shrink", ts.Tag(), ts.numStates, newNumStates)
	}
	log.Verbosef("%sapplying abstraction (%d to %d states)", ts.Tag(), ts.numStates, newNumStates)

	goalStates := make([]bool, newNumStates)
	for newState, class := range relation {
		for _, old := range class {
			if ts.goalStates[old] {
				goalStates[newState] = true
				break
			}
		}
	}
	ts.goalStates = goalStates

	for i := range ts.localLabels {
		old := ts.localLabels[i].transitions
		if len(old) == 0 {
			continue
		}
		transitions := make([]Transition, 0, len(old))
		for _, t := range old {
			src, target := mapping[t.Src], mapping[t.Target]
			if src != PrunedState && target != PrunedState {
				transitions = append(transitions, Transition{Src: src, Target: target})
			}
		}
		ts.localLabels[i].transitions = normalizeTransitions(transitions)
	}

	ts.ComputeLocallyEquivalentLabels()

	ts.numStates = newNumStates
	ts.initState = mapping[ts.initState]
	if ts.initState == PrunedState {
		log.Verbosef("%sinitial state pruned; task unsolvable", ts.Tag())
	}
	ts.assertValid("applying abstraction")
}

// ApplyLabelReduction replaces the old labels of every mapping entry by
// its new label. The registry must already contain the new labels.
//
// With onlyEquivalentLabels, the old labels of each entry must share one
// local label, which the new label joins. Otherwise the transitions of all
// old local labels are combined into a new local label; local labels left
// without labels are released, the costs of all touched local labels are
// recomputed and local equivalence is recomputed.
func (ts *TransitionSystem) ApplyLabelReduction(mapping LabelMapping, onlyEquivalentLabels bool) {
	if onlyEquivalentLabels {
		for _, entry := range mapping {
			local := ts.globalToLocal[entry.Old[0]]
			info := &ts.localLabels[local]
			info.labelGroup = append(info.labelGroup, entry.New)
			ts.globalToLocal[entry.New] = local
			for _, old := range entry.Old {
				if ts.globalToLocal[old] != local {
					errors.ExitWith(errors.ExitSearchCriticalError,
						"%slabel %d is not equivalent to label %d", ts.Tag(), old, entry.Old[0])
				}
				info.removeLabel(old)
				ts.globalToLocal[old] = -1
			}
		}
		ts.assertValid("applying label reduction")
		return
	}

	affected := make(map[int]struct{})
	for _, entry := range mapping {
		seen := make(map[int]struct{}, len(entry.Old))
		var combined []Transition
		for _, old := range entry.Old {
			local := ts.globalToLocal[old]
			if _, ok := seen[local]; !ok {
				seen[local] = struct{}{}
				affected[local] = struct{}{}
				combined = append(combined, ts.localLabels[local].transitions...)
			}
			ts.localLabels[local].removeLabel(old)
			ts.globalToLocal[old] = -1
		}

		ts.globalToLocal[entry.New] = len(ts.localLabels)
		ts.localLabels = append(ts.localLabels, NewLocalLabelInfo(
			LabelGroup{entry.New},
			normalizeTransitions(combined),
			ts.labels.Cost(entry.New),
		))
	}

	for local := range affected {
		info := &ts.localLabels[local]
		if info.Empty() {
			info.clear()
		}
		info.cost = Inf
		for _, label := range info.labelGroup {
			info.cost = min(info.cost, ts.labels.Cost(label))
		}
	}

	ts.ComputeLocallyEquivalentLabels()
}

// normalizeTransitions sorts transitions and removes duplicates in place.
func normalizeTransitions(transitions []Transition) []Transition {
	slices.SortFunc(transitions, Transition.Compare)
	return slices.CompactFunc(transitions, func(a, b Transition) bool { return a == b })
}

// =============================================================================
// Validity
// =============================================================================

func (ts *TransitionSystem) assertValid(op string) {
	if !ts.IsValid() {
		errors.ExitWith(errors.ExitSearchCriticalError, "%s%s left the transition system invalid", ts.Tag(), op)
	}
}

// IsValid reports whether all transitions are sorted and unique and the
// global-to-local label mapping agrees with the label groups.
func (ts *TransitionSystem) IsValid() bool {
	return ts.AreTransitionsSortedUnique() && ts.IsLabelMappingConsistent()
}

// AreTransitionsSortedUnique reports whether every local label's transitions
// are strictly increasing.
func (ts *TransitionSystem) AreTransitionsSortedUnique() bool {
	for _, info := range ts.localLabels {
		for i := 1; i < len(info.transitions); i++ {
			if info.transitions[i-1].Compare(info.transitions[i]) >= 0 {
				return false
			}
		}
	}
	return true
}

// IsLabelMappingConsistent reports whether every active label is mapped to
// a local label containing it and every grouped label maps back to its
// group.
func (ts *TransitionSystem) IsLabelMappingConsistent() bool {
	for label := range ts.labels.All() {
		if label >= len(ts.globalToLocal) {
			return false
		}
		local := ts.globalToLocal[label]
		if local < 0 || local >= len(ts.localLabels) {
			return false
		}
		if !slices.Contains(ts.localLabels[local].labelGroup, label) {
			return false
		}
	}
	for local, info := range ts.localLabels {
		for _, label := range info.labelGroup {
			if label < 0 || label >= len(ts.globalToLocal) || ts.globalToLocal[label] != local {
				return false
			}
		}
	}
	return true
}

// DumpLabelMapping writes both directions of the label mapping at debug
// verbosity.
func (ts *TransitionSystem) DumpLabelMapping(log *Log) {
	if !log.IsAtLeastDebug() {
		return
	}
	var b strings.Builder
	for label := range ts.labels.All() {
		fmt.Fprintf(&b, "%d -> %d, ", label, ts.globalToLocal[label])
	}
	log.Printf("global to local label mapping: %s", b.String())
	b.Reset()
	for local, info := range ts.localLabels {
		fmt.Fprintf(&b, "%d: %v, ", local, []int(info.labelGroup))
	}
	log.Printf("local to global label mapping: %s", b.String())
}

// =============================================================================
// Queries
// =============================================================================

// Size returns the number of abstract states.
func (ts *TransitionSystem) Size() int { return ts.numStates }

// InitState returns the initial state or [PrunedState].
func (ts *TransitionSystem) InitState() int { return ts.initState }

// IsGoalState reports whether state is a goal.
func (ts *TransitionSystem) IsGoalState(state int) bool { return ts.goalStates[state] }

// GoalStates returns the goal flags indexed by state.
// The returned slice should not be modified.
func (ts *TransitionSystem) GoalStates() []bool { return ts.goalStates }

// IncorporatedVariables returns the sorted task variables of the factor.
// The returned slice should not be modified.
func (ts *TransitionSystem) IncorporatedVariables() []int { return ts.incorporatedVariables }

// Labels returns the shared label registry.
func (ts *TransitionSystem) Labels() *Labels { return ts.labels }

// NumLocalLabels returns the number of non-empty local labels.
func (ts *TransitionSystem) NumLocalLabels() int {
	n := 0
	for _, info := range ts.localLabels {
		if !info.Empty() {
			n++
		}
	}
	return n
}

// LocalLabels yields the non-empty local labels with their index.
func (ts *TransitionSystem) LocalLabels() iter.Seq2[int, LocalLabelInfo] {
	return func(yield func(int, LocalLabelInfo) bool) {
		for i, info := range ts.localLabels {
			if info.Empty() {
				continue
			}
			if !yield(i, info) {
				return
			}
		}
	}
}

// LocalLabelIndex returns the local label of the global label, or -1.
func (ts *TransitionSystem) LocalLabelIndex(label int) int { return ts.globalToLocal[label] }

// LocalLabel returns the local label containing the global label.
func (ts *TransitionSystem) LocalLabel(label int) LocalLabelInfo {
	return ts.localLabels[ts.globalToLocal[label]]
}

// TotalTransitions returns the number of transitions over all local labels.
func (ts *TransitionSystem) TotalTransitions() int {
	total := 0
	for _, info := range ts.localLabels {
		total += len(info.transitions)
	}
	return total
}

// IsSolvable reports whether the initial state is neither pruned nor, if
// goal distances are known, a dead end.
func (ts *TransitionSystem) IsSolvable(d *Distances) bool {
	if ts.initState == PrunedState {
		return false
	}
	if d != nil && d.AreGoalDistancesComputed() && d.GoalDistance(ts.initState) == Inf {
		return false
	}
	return true
}

// Description names the factor by its variables.
func (ts *TransitionSystem) Description() string {
	if len(ts.incorporatedVariables) == 1 {
		return fmt.Sprintf("atomic transition system #%d", ts.incorporatedVariables[0])
	}
	return fmt.Sprintf("composite transition system with %d/%d vars",
		len(ts.incorporatedVariables), ts.numVariables)
}

// Tag is the capitalized description followed by ": ", used as a log
// prefix.
func (ts *TransitionSystem) Tag() string {
	desc := []rune(ts.Description())
	desc[0] = unicode.ToUpper(desc[0])
	return string(desc) + ": "
}

// Statistics writes the size of the factor at verbose verbosity.
func (ts *TransitionSystem) Statistics(log *Log) {
	log.Verbosef("%s%d states, %d arcs", ts.Tag(), ts.Size(), ts.TotalTransitions())
}

// DumpLabelsAndTransitions writes every local label at debug verbosity.
func (ts *TransitionSystem) DumpLabelsAndTransitions(log *Log) {
	if !log.IsAtLeastDebug() {
		return
	}
	log.Printf("%stransitions", ts.Tag())
	for _, info := range ts.LocalLabels() {
		parts := make([]string, len(info.transitions))
		for i, t := range info.transitions {
			parts[i] = t.String()
		}
		log.Printf("labels: %v transitions: %s cost: %d",
			[]int(info.labelGroup), strings.Join(parts, ","), info.cost)
	}
}

// Clone returns a deep copy sharing only the label registry.
func (ts *TransitionSystem) Clone() *TransitionSystem {
	localLabels := make([]LocalLabelInfo, len(ts.localLabels))
	for i, info := range ts.localLabels {
		localLabels[i] = info.clone()
	}
	return &TransitionSystem{
		numVariables:          ts.numVariables,
		incorporatedVariables: slices.Clone(ts.incorporatedVariables),
		labels:                ts.labels,
		globalToLocal:         slices.Clone(ts.globalToLocal),
		localLabels:           localLabels,
		numStates:             ts.numStates,
		goalStates:            slices.Clone(ts.goalStates),
		initState:             ts.initState,
	}
}
