// Package sccs computes the maximal strongly connected components of a
// directed graph given as adjacency lists.
package sccs

import "slices"

// Compute returns the strongly connected components of graph, whose
// vertices are 0..len(graph)-1 and where graph[v] lists the successors of v.
//
// Components are returned in topological order of the condensation: if
// there is an arc from a vertex in component A to a vertex in component B,
// A comes before B. Vertices within a component are sorted ascending.
//
// The traversal is Tarjan's algorithm with an explicit call stack, so deep
// graphs cannot overflow the goroutine stack.
func Compute(graph [][]int) [][]int {
	n := len(graph)
	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}

	type frame struct {
		v    int
		next int // position in graph[v] of the next successor to visit
	}

	var (
		stack     []int
		callStack []frame
		result    [][]int
		counter   int
	)

	for root := range n {
		if index[root] != -1 {
			continue
		}
		index[root], lowlink[root] = counter, counter
		counter++
		stack = append(stack, root)
		onStack[root] = true
		callStack = append(callStack, frame{v: root})

		for len(callStack) > 0 {
			top := &callStack[len(callStack)-1]
			v := top.v

			if top.next < len(graph[v]) {
				w := graph[v][top.next]
				top.next++
				switch {
				case index[w] == -1:
					index[w], lowlink[w] = counter, counter
					counter++
					stack = append(stack, w)
					onStack[w] = true
					callStack = append(callStack, frame{v: w})
				case onStack[w]:
					lowlink[v] = min(lowlink[v], index[w])
				}
				continue
			}

			callStack = callStack[:len(callStack)-1]
			if len(callStack) > 0 {
				parent := callStack[len(callStack)-1].v
				lowlink[parent] = min(lowlink[parent], lowlink[v])
			}

			if lowlink[v] == index[v] {
				var scc []int
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					scc = append(scc, w)
					if w == v {
						break
					}
				}
				slices.Sort(scc)
				result = append(result, scc)
			}
		}
	}

	// Tarjan finishes sinks first.
	slices.Reverse(result)
	return result
}
