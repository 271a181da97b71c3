package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/mastower/pkg/errors"
	"github.com/matzehuels/mastower/pkg/mas"
	"github.com/matzehuels/mastower/pkg/sccs"
	"github.com/matzehuels/mastower/pkg/task"
)

// TransitionSystem converts a transition system to DOT.
func TransitionSystem(ts *mas.TransitionSystem) string {
	var buf bytes.Buffer
	buf.WriteString("digraph transition_system {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=none] start;\n")
	buf.WriteString("\n")

	for s := range ts.Size() {
		shape := "circle"
		if ts.IsGoalState(s) {
			shape = "doublecircle"
		}
		fmt.Fprintf(&buf, "  node [shape=%s] node%d;\n", shape, s)
		if s == ts.InitState() {
			fmt.Fprintf(&buf, "  start -> node%d;\n", s)
		}
	}

	buf.WriteString("\n")
	for _, info := range ts.LocalLabels() {
		label := fmtLabelGroup(info.LabelGroup())
		for _, t := range info.Transitions() {
			fmt.Fprintf(&buf, "  node%d -> node%d [label=%q];\n", t.Src, t.Target, label)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabelGroup(group mas.LabelGroup) string {
	parts := make([]string, len(group))
	for i, label := range group {
		parts[i] = "x" + strconv.Itoa(label)
	}
	return strings.Join(parts, "_")
}

// CausalGraph converts the causal graph of t to DOT.
func CausalGraph(t *task.Task) string {
	cg := t.CausalGraph()

	var buf bytes.Buffer
	buf.WriteString("digraph causal_graph {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white];\n")
	buf.WriteString("\n")

	for v, variable := range t.Variables {
		attrs := []string{fmt.Sprintf("label=%q", variable.Name)}
		if t.IsGoalVariable(v) {
			attrs = append(attrs, "fillcolor=lightgrey")
		}
		fmt.Fprintf(&buf, "  var%d [%s];\n", v, strings.Join(attrs, ", "))
	}

	cluster := 0
	for _, scc := range sccs.Compute(cg.Adjacency()) {
		if len(scc) < 2 {
			continue
		}
		fmt.Fprintf(&buf, "\n  subgraph cluster_%d {\n", cluster)
		buf.WriteString("    style=dashed;\n")
		for _, v := range scc {
			fmt.Fprintf(&buf, "    var%d;\n", v)
		}
		buf.WriteString("  }\n")
		cluster++
	}

	buf.WriteString("\n")
	for v := range cg.NumVariables() {
		for _, w := range cg.Successors(v) {
			fmt.Fprintf(&buf, "  var%d -> var%d;\n", v, w)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the svg element so the drawing starts at the
// origin and scales with its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
