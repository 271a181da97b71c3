package dot

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/mastower/pkg/mas"
	"github.com/matzehuels/mastower/pkg/task"
)

func boolVar(name string) task.Variable {
	return task.Variable{Name: name, DomainSize: 2}
}

func TestTransitionSystem(t *testing.T) {
	tk := &task.Task{
		Variables: []task.Variable{boolVar("v")},
		Operators: []task.Operator{{Name: "a", Cost: 1, Effects: []task.Fact{{Var: 0, Value: 1}}}},
		Initial:   []int{0},
		Goal:      []task.Fact{{Var: 0, Value: 1}},
	}
	fts := mas.CreateAtomicFTS(tk, false, false, mas.SilentLog())

	got := TransitionSystem(fts.TransitionSystem(0))
	want := `digraph transition_system {
  rankdir=LR;
  bgcolor="transparent";
  node [shape=none] start;

  node [shape=circle] node0;
  start -> node0;
  node [shape=doublecircle] node1;

  node0 -> node1 [label="x0"];
  node1 -> node1 [label="x0"];
}
`
	if got != want {
		t.Errorf("TransitionSystem() =\n%s\nwant\n%s", got, want)
	}
}

func TestFmtLabelGroup(t *testing.T) {
	tests := []struct {
		group mas.LabelGroup
		want  string
	}{
		{mas.LabelGroup{4}, "x4"},
		{mas.LabelGroup{3, 7}, "x3_x7"},
		{mas.LabelGroup{0, 1, 12}, "x0_x1_x12"},
	}
	for _, tt := range tests {
		if got := fmtLabelGroup(tt.group); got != tt.want {
			t.Errorf("fmtLabelGroup(%v) = %q, want %q", tt.group, got, tt.want)
		}
	}
}

func TestCausalGraph(t *testing.T) {
	tk := &task.Task{
		Variables: []task.Variable{boolVar("x"), boolVar("y"), boolVar("z")},
		Operators: []task.Operator{
			{Name: "xy", Cost: 1, Preconditions: []task.Fact{{Var: 0, Value: 1}}, Effects: []task.Fact{{Var: 1, Value: 1}}},
			{Name: "yx", Cost: 1, Preconditions: []task.Fact{{Var: 1, Value: 1}}, Effects: []task.Fact{{Var: 0, Value: 1}}},
			{Name: "yz", Cost: 1, Preconditions: []task.Fact{{Var: 1, Value: 1}}, Effects: []task.Fact{{Var: 2, Value: 1}}},
		},
		Initial: []int{0, 0, 0},
		Goal:    []task.Fact{{Var: 2, Value: 1}},
	}

	got := CausalGraph(tk)
	for _, want := range []string{
		"digraph causal_graph {",
		`var0 [label="x"];`,
		`var2 [label="z", fillcolor=lightgrey];`,
		"subgraph cluster_0 {",
		"var0 -> var1;",
		"var1 -> var0;",
		"var1 -> var2;",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("CausalGraph() missing %q in\n%s", want, got)
		}
	}
	if strings.Contains(got, "cluster_1") {
		t.Errorf("CausalGraph() has a cluster for a singleton component:\n%s", got)
	}
	if strings.Contains(got, "var2 -> ") {
		t.Errorf("CausalGraph() has an arc leaving z:\n%s", got)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "rewrites",
			in:   `<svg width="62pt" height="116pt" viewBox="0.00 0.00 62.00 116.00"><g/></svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 62.00 116.00" width="62" height="116"><g/></svg>`,
		},
		{
			name: "no viewbox",
			in:   `<svg><g/></svg>`,
			want: `<svg><g/></svg>`,
		},
		{
			name: "empty viewbox",
			in:   `<svg viewBox="0 0 0 0"></svg>`,
			want: `<svg viewBox="0 0 0 0"></svg>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(normalizeViewBox([]byte(tt.in))); got != tt.want {
				t.Errorf("normalizeViewBox() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), "digraph g { a -> b; }")
	if err != nil {
		t.Fatalf("RenderSVG() error = %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Errorf("RenderSVG() = %s, want an svg document", svg)
	}
}
