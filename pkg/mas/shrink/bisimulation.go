package shrink

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/matzehuels/mastower/pkg/mas"
)

// AtLimit decides what bisimulation does when splitting a group would
// exceed the target size.
type AtLimit int

const (
	// AtLimitReturn stops refining at the first group that cannot be split.
	AtLimitReturn AtLimit = iota
	// AtLimitUseUp skips groups that cannot be split and keeps refining
	// the others.
	AtLimitUseUp
)

var atLimitNames = [...]string{"return", "use_up"}

func (a AtLimit) String() string {
	if a >= 0 && int(a) < len(atLimitNames) {
		return atLimitNames[a]
	}
	return fmt.Sprintf("at_limit(%d)", int(a))
}

// ParseAtLimit parses a name as produced by String.
func ParseAtLimit(s string) (AtLimit, error) {
	if i := slices.Index(atLimitNames[:], s); i >= 0 {
		return AtLimit(i), nil
	}
	return 0, fmt.Errorf("unknown at_limit %q", s)
}

// Bisimulation shrinks by (greedy) bisimulation. States start grouped by
// goal distance, goal states apart, and groups are split by the set of
// (local label, target group) pairs of their states until the relation is
// stable or the target size is reached. Greedy bisimulation only considers
// transitions on optimal paths.
type Bisimulation struct {
	Greedy  bool
	AtLimit AtLimit
}

// Name implements Strategy.
func (b *Bisimulation) Name() string { return "bisimulation" }

// RequiresInitDistances implements Strategy.
func (b *Bisimulation) RequiresInitDistances() bool { return false }

// RequiresGoalDistances implements Strategy.
func (b *Bisimulation) RequiresGoalDistances() bool { return true }

type successor struct {
	local  int
	target int
}

func (s successor) compare(o successor) int {
	if c := cmp.Compare(s.local, o.local); c != 0 {
		return c
	}
	return cmp.Compare(s.target, o.target)
}

type signature struct {
	hAndGoal int // -1 for goal states, goal distance otherwise
	group    int
	succ     []successor
	state    int
}

func compareSignatures(a, b signature) int {
	if c := cmp.Compare(a.hAndGoal, b.hAndGoal); c != 0 {
		return c
	}
	if c := cmp.Compare(a.group, b.group); c != 0 {
		return c
	}
	if c := slices.CompareFunc(a.succ, b.succ, successor.compare); c != 0 {
		return c
	}
	return cmp.Compare(a.state, b.state)
}

func sameBehavior(a, b signature) bool {
	return a.group == b.group && slices.Equal(a.succ, b.succ)
}

// ComputeEquivalenceRelation implements Strategy.
func (b *Bisimulation) ComputeEquivalenceRelation(ts *mas.TransitionSystem, d *mas.Distances, targetSize int, log *mas.Log) mas.StateEquivalenceRelation {
	n := ts.Size()
	h := d.GoalDistances()
	stateToGroup, numGroups := initializeGroups(ts, h)

	stable, stop := false, false
	for !stable && !stop && numGroups < targetSize {
		stable = true
		sigs := b.computeSignatures(ts, h, stateToGroup)

		for start := 0; start < n; {
			end := start + 1
			for end < n && sigs[end].group == sigs[start].group {
				end++
			}

			newGroups := 0
			for i := start + 1; i < end; i++ {
				if !sameBehavior(sigs[i-1], sigs[i]) {
					newGroups++
				}
			}

			switch {
			case newGroups == 0:
			case numGroups+newGroups > targetSize:
				if b.AtLimit == AtLimitReturn {
					stop = true
				} else if b.AtLimit != AtLimitUseUp {
					mas.ExitUnhandled("AtLimit", b.AtLimit)
				}
			default:
				stable = false
				group := sigs[start].group
				for i := start + 1; i < end; i++ {
					if !sameBehavior(sigs[i-1], sigs[i]) {
						group = numGroups
						numGroups++
					}
					stateToGroup[sigs[i].state] = group
				}
			}
			if stop {
				break
			}
			start = end
		}
	}

	relation := make(mas.StateEquivalenceRelation, numGroups)
	for state, group := range stateToGroup {
		relation[group] = append(relation[group], state)
	}
	relation = slices.DeleteFunc(relation, func(c mas.StateEquivalenceClass) bool { return len(c) == 0 })
	log.Verbosef("%sbisimulation: %d to %d states (target %d)", ts.Tag(), n, len(relation), targetSize)
	return relation
}

// initializeGroups puts all goal states into group 0 and every other state
// into the group of its goal distance.
func initializeGroups(ts *mas.TransitionSystem, h []int) ([]int, int) {
	stateToGroup := make([]int, ts.Size())
	hToGroup := make(map[int]int)
	numGroups := 1
	for state := range ts.Size() {
		if ts.IsGoalState(state) {
			stateToGroup[state] = 0
			continue
		}
		group, ok := hToGroup[h[state]]
		if !ok {
			group = numGroups
			hToGroup[h[state]] = group
			numGroups++
		}
		stateToGroup[state] = group
	}
	return stateToGroup, numGroups
}

func (b *Bisimulation) computeSignatures(ts *mas.TransitionSystem, h []int, stateToGroup []int) []signature {
	sigs := make([]signature, ts.Size())
	for state := range sigs {
		hAndGoal := h[state]
		if ts.IsGoalState(state) {
			hAndGoal = -1
		}
		sigs[state] = signature{hAndGoal: hAndGoal, group: stateToGroup[state], state: state}
	}

	for local, info := range ts.LocalLabels() {
		cost := info.Cost()
		for _, t := range info.Transitions() {
			if b.Greedy {
				hs, ht := h[t.Src], h[t.Target]
				if hs == mas.Inf || ht == mas.Inf || ht+cost != hs {
					continue
				}
			}
			sigs[t.Src].succ = append(sigs[t.Src].succ, successor{local: local, target: stateToGroup[t.Target]})
		}
	}
	for i := range sigs {
		slices.SortFunc(sigs[i].succ, successor.compare)
		sigs[i].succ = slices.Compact(sigs[i].succ)
	}
	slices.SortFunc(sigs, compareSignatures)
	return sigs
}
