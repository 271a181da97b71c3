// Package dot exports transition systems and causal graphs as Graphviz DOT.
//
// # Usage
//
// Convert a transition system to DOT, then render to SVG:
//
//	src := dot.TransitionSystem(ts)
//	svg, err := dot.RenderSVG(src)
//
// Initial states are marked by an arrow from an invisible start node, goal
// states are drawn as double circles and every transition is labelled with
// the labels of its local label, as in x3_x7.
//
// [CausalGraph] draws one box per variable. Goal variables are filled and
// the variables of every non-singleton strongly connected component are
// grouped in a cluster.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package dot
