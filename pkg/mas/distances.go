package mas

import (
	"container/heap"
	"slices"
)

// Distances holds the init and goal distances of the states of one
// transition system. Unreachable states have distance [Inf].
type Distances struct {
	ts            *TransitionSystem
	initDistances []int
	goalDistances []int
	initComputed  bool
	goalComputed  bool
}

// NewDistances creates empty distances for ts.
func NewDistances(ts *TransitionSystem) *Distances {
	return &Distances{ts: ts}
}

// AreInitDistancesComputed reports whether init distances are available.
func (d *Distances) AreInitDistancesComputed() bool { return d.initComputed }

// AreGoalDistancesComputed reports whether goal distances are available.
func (d *Distances) AreGoalDistancesComputed() bool { return d.goalComputed }

// InitDistance returns the cheapest cost from the initial state to state.
func (d *Distances) InitDistance(state int) int { return d.initDistances[state] }

// GoalDistance returns the cheapest cost from state to a goal state.
func (d *Distances) GoalDistance(state int) int { return d.goalDistances[state] }

// InitDistances returns all init distances.
// The returned slice should not be modified.
func (d *Distances) InitDistances() []int { return d.initDistances }

// GoalDistances returns all goal distances.
// The returned slice should not be modified.
func (d *Distances) GoalDistances() []int { return d.goalDistances }

// ClearDistances drops all computed distances.
func (d *Distances) ClearDistances() {
	d.initDistances, d.goalDistances = nil, nil
	d.initComputed, d.goalComputed = false, false
}

// ComputeDistances computes the requested distances that are not yet
// available. If the initial state is pruned, every distance is [Inf].
func (d *Distances) ComputeDistances(computeInit, computeGoal bool, log *Log) {
	computeInit = computeInit && !d.initComputed
	computeGoal = computeGoal && !d.goalComputed
	if !computeInit && !computeGoal {
		return
	}

	n := d.ts.Size()
	if d.ts.InitState() == PrunedState {
		log.Verbosef("%sinitial state pruned, all distances infinite", d.ts.Tag())
		if computeInit {
			d.initDistances = infinite(n)
			d.initComputed = true
		}
		if computeGoal {
			d.goalDistances = infinite(n)
			d.goalComputed = true
		}
		return
	}

	if computeInit {
		forward := make([][]arc, n)
		for _, info := range d.ts.LocalLabels() {
			for _, t := range info.transitions {
				forward[t.Src] = append(forward[t.Src], arc{to: t.Target, cost: info.cost})
			}
		}
		d.initDistances = make([]int, n)
		dijkstra(forward, []int{d.ts.InitState()}, d.initDistances)
		d.initComputed = true
	}
	if computeGoal {
		d.goalDistances = GoalDistancesWithCosts(d.ts, LocalLabelInfo.Cost)
		d.goalComputed = true
	}
}

// GoalDistancesWithCosts computes goal distances of ts where the cost of a
// local label is given by costOf. Local labels of cost [Inf] are unusable.
func GoalDistancesWithCosts(ts *TransitionSystem, costOf func(LocalLabelInfo) int) []int {
	n := ts.Size()
	backward := make([][]arc, n)
	for _, info := range ts.LocalLabels() {
		cost := costOf(info)
		if cost == Inf || cost < 0 {
			continue
		}
		for _, t := range info.transitions {
			backward[t.Target] = append(backward[t.Target], arc{to: t.Src, cost: cost})
		}
	}
	var goals []int
	for s, goal := range ts.GoalStates() {
		if goal {
			goals = append(goals, s)
		}
	}
	dist := make([]int, n)
	dijkstra(backward, goals, dist)
	return dist
}

// CloneFor copies d as the distances of ts, which must be a copy of the
// transition system d belongs to.
func (d *Distances) CloneFor(ts *TransitionSystem) *Distances {
	return &Distances{
		ts:            ts,
		initDistances: slices.Clone(d.initDistances),
		goalDistances: slices.Clone(d.goalDistances),
		initComputed:  d.initComputed,
		goalComputed:  d.goalComputed,
	}
}

// Statistics writes the initial heuristic value and the largest finite
// distances at verbose verbosity.
func (d *Distances) Statistics(log *Log) {
	if !log.IsAtLeastVerbose() {
		return
	}
	if !d.goalComputed {
		log.Printf("%sdistances not computed", d.ts.Tag())
		return
	}
	if !d.ts.IsSolvable(d) {
		log.Printf("%stransition system is unsolvable", d.ts.Tag())
		return
	}
	log.Printf("%sinit h=%d, max f=%d, max g=%d, max h=%d", d.ts.Tag(),
		d.goalDistances[d.ts.InitState()], d.maxF(), maxFinite(d.initDistances), maxFinite(d.goalDistances))
}

func (d *Distances) maxF() int {
	if !d.initComputed {
		return 0
	}
	best := 0
	for s, g := range d.initDistances {
		h := d.goalDistances[s]
		if g != Inf && h != Inf {
			best = max(best, g+h)
		}
	}
	return best
}

func maxFinite(values []int) int {
	best := 0
	for _, v := range values {
		if v != Inf {
			best = max(best, v)
		}
	}
	return best
}

func infinite(n int) []int {
	d := make([]int, n)
	for i := range d {
		d[i] = Inf
	}
	return d
}

// =============================================================================
// Uniform-cost search
// =============================================================================

type arc struct {
	to   int
	cost int
}

type queueItem struct {
	dist  int
	state int
}

type distanceQueue []queueItem

func (q distanceQueue) Len() int           { return len(q) }
func (q distanceQueue) Less(i, j int) bool { return q[i].dist < q[j].dist }
func (q distanceQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *distanceQueue) Push(x any)        { *q = append(*q, x.(queueItem)) }
func (q *distanceQueue) Pop() any {
	old := *q
	item := old[len(old)-1]
	*q = old[:len(old)-1]
	return item
}

// dijkstra fills dist with the cheapest cost from any source to every
// state of graph.
func dijkstra(graph [][]arc, sources []int, dist []int) {
	for i := range dist {
		dist[i] = Inf
	}
	q := &distanceQueue{}
	for _, s := range sources {
		dist[s] = 0
		heap.Push(q, queueItem{dist: 0, state: s})
	}
	for q.Len() > 0 {
		item := heap.Pop(q).(queueItem)
		if item.dist > dist[item.state] {
			continue
		}
		for _, a := range graph[item.state] {
			next := item.dist + a.cost
			if next < dist[a.to] {
				dist[a.to] = next
				heap.Push(q, queueItem{dist: next, state: a.to})
			}
		}
	}
}
