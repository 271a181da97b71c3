package task

import "slices"

// CausalGraph is the causal graph of a task over its variables.
// Successor and predecessor lists are sorted and duplicate-free.
type CausalGraph struct {
	successors   [][]int
	predecessors [][]int
}

// CausalGraph computes the causal graph of t.
func (t *Task) CausalGraph() *CausalGraph {
	n := len(t.Variables)
	arcs := make([]map[int]struct{}, n)
	for i := range arcs {
		arcs[i] = make(map[int]struct{})
	}
	add := func(from, to int) {
		if from != to {
			arcs[from][to] = struct{}{}
		}
	}
	for _, op := range t.Operators {
		for _, eff := range op.Effects {
			for _, pre := range op.Preconditions {
				add(pre.Var, eff.Var)
			}
			for _, other := range op.Effects {
				add(eff.Var, other.Var)
			}
		}
	}

	cg := &CausalGraph{
		successors:   make([][]int, n),
		predecessors: make([][]int, n),
	}
	for from, targets := range arcs {
		for to := range targets {
			cg.successors[from] = append(cg.successors[from], to)
			cg.predecessors[to] = append(cg.predecessors[to], from)
		}
	}
	for v := range n {
		slices.Sort(cg.successors[v])
		slices.Sort(cg.predecessors[v])
	}
	return cg
}

// NumVariables returns the number of vertices.
func (cg *CausalGraph) NumVariables() int { return len(cg.successors) }

// Successors returns the variables v has an arc to.
// The returned slice should not be modified.
func (cg *CausalGraph) Successors(v int) []int { return cg.successors[v] }

// Predecessors returns the variables with an arc to v.
// The returned slice should not be modified.
func (cg *CausalGraph) Predecessors(v int) []int { return cg.predecessors[v] }

// Adjacency returns a copy of the successor lists, indexed by variable.
func (cg *CausalGraph) Adjacency() [][]int {
	out := make([][]int, len(cg.successors))
	for v, succ := range cg.successors {
		out[v] = slices.Clone(succ)
	}
	return out
}
