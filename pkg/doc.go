// Package pkg provides the core libraries for Mastower merge-and-shrink
// heuristics.
//
// # Overview
//
// Mastower builds merge-and-shrink abstractions of finite-domain planning
// tasks. Every task variable starts as its own small transition system (an
// atomic factor). The main loop repeatedly picks two factors, shrinks them
// so their product respects a size limit, and replaces them by their
// synchronized product. The goal distances of the remaining factors form an
// admissible heuristic.
//
// # Architecture
//
// The typical data flow through Mastower:
//
//	Task file (TOML/YAML)
//	         ↓
//	    [task] package (variables, operators, causal graph)
//	         ↓
//	    [mas] package (atomic factors, labels, transition systems)
//	         ↓
//	    [mas/algorithm] package (merge, shrink, label reduction, prune)
//	         ↓
//	    heuristic factors, DOT/SVG export
//
// # Quick Start
//
// Load a task and a configuration and build the heuristic:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/mastower/pkg/config"
//	    "github.com/matzehuels/mastower/pkg/mas"
//	    "github.com/matzehuels/mastower/pkg/mas/algorithm"
//	    "github.com/matzehuels/mastower/pkg/task"
//	)
//
//	t, _ := task.Load("examples/tasks/logistics.toml")
//	cfg := config.Default()
//	opts, _ := cfg.Build(mas.SilentLog())
//	res, _ := algorithm.Build(context.Background(), t, opts, mas.SilentLog())
//	h := res.InitialHeuristic()
//
// # Main Packages
//
// ## Engine
//
// [mas] - Label registry, transition systems with grouped local labels,
// products, abstractions, exact label reduction, distances and the
// factored transition system.
//
// [mas/scp] - Saturated cost partitioning: saturated label costs of a
// factor and goal distances under reduced costs.
//
// [mas/shrink] - Bisimulation and random shrinking, pruning and the
// before-merge size limits.
//
// [mas/merge] - Merge strategies. The SCC strategy merges within strongly
// connected components of the causal graph; candidates are ranked by
// scoring functions such as the cost-partitioning score sf_cp.
//
// [mas/algorithm] - The main loop with time and size budgets.
//
// ## Input
//
// [task] - Planning tasks and their causal graph.
//
// [sccs] - Strongly connected components in topological order.
//
// [config] - TOML/YAML configuration of the whole construction.
//
// ## Output
//
// [render/dot] - Graphviz export of transition systems and causal graphs.
//
// ## Infrastructure
//
// [errors] - Coded errors and the fatal exit path with planner exit codes.
//
// [observability] - Hooks for construction metrics.
//
// [buildinfo] - Version information.
//
// [task]: github.com/matzehuels/mastower/pkg/task
// [sccs]: github.com/matzehuels/mastower/pkg/sccs
// [config]: github.com/matzehuels/mastower/pkg/config
// [mas]: github.com/matzehuels/mastower/pkg/mas
// [mas/scp]: github.com/matzehuels/mastower/pkg/mas/scp
// [mas/shrink]: github.com/matzehuels/mastower/pkg/mas/shrink
// [mas/merge]: github.com/matzehuels/mastower/pkg/mas/merge
// [mas/algorithm]: github.com/matzehuels/mastower/pkg/mas/algorithm
// [render/dot]: github.com/matzehuels/mastower/pkg/render/dot
// [errors]: github.com/matzehuels/mastower/pkg/errors
// [observability]: github.com/matzehuels/mastower/pkg/observability
// [buildinfo]: github.com/matzehuels/mastower/pkg/buildinfo
package pkg
