package sccs

import (
	"reflect"
	"testing"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name  string
		graph [][]int
		want  [][]int
	}{
		{
			name:  "empty",
			graph: nil,
			want:  nil,
		},
		{
			name:  "single vertex",
			graph: [][]int{nil},
			want:  [][]int{{0}},
		},
		{
			name:  "chain",
			graph: [][]int{{1}, {2}, nil},
			want:  [][]int{{0}, {1}, {2}},
		},
		{
			name:  "reversed chain",
			graph: [][]int{nil, {0}, {1}},
			want:  [][]int{{2}, {1}, {0}},
		},
		{
			name:  "cycle",
			graph: [][]int{{1}, {2}, {0}},
			want:  [][]int{{0, 1, 2}},
		},
		{
			name: "two cycles with bridge",
			// 0<->1 -> 2<->3, 4 isolated
			graph: [][]int{{1}, {0, 2}, {3}, {2}, nil},
			want:  [][]int{{4}, {0, 1}, {2, 3}},
		},
		{
			name: "sink cycle reached from two sources",
			graph: [][]int{{2}, {2}, {3}, {2}},
			want:  [][]int{{1}, {0}, {2, 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.graph)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Compute() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputeTopologicalOrder(t *testing.T) {
	graph := [][]int{{1, 3}, {2}, {1, 4}, {4}, {3}, {0}}
	got := Compute(graph)

	position := make(map[int]int)
	for i, scc := range got {
		for _, v := range scc {
			position[v] = i
		}
	}
	for v, succs := range graph {
		for _, w := range succs {
			if position[v] > position[w] {
				t.Errorf("arc %d->%d goes from component %d back to %d", v, w, position[v], position[w])
			}
		}
	}
}

func TestComputeDeepGraph(t *testing.T) {
	const n = 200000
	graph := make([][]int, n)
	for v := range n - 1 {
		graph[v] = []int{v + 1}
	}
	graph[n-1] = []int{0}

	got := Compute(graph)
	if len(got) != 1 || len(got[0]) != n {
		t.Fatalf("Compute() returned %d components, want one of size %d", len(got), n)
	}
}
