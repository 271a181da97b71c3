// Package task provides the finite-domain planning task consumed by the
// merge-and-shrink engine.
//
// # Overview
//
// A [Task] consists of finite-domain variables, operators with
// preconditions, unconditional effects and a non-negative cost, a complete
// initial state and a partial goal. Operators become the labels of the
// engine's transition systems; variables become its atomic factors.
//
// # Files
//
// Tasks are loaded with [Load] from TOML (.toml) or YAML (.yaml, .yml):
//
//	initial = [0, 0]
//
//	[[variables]]
//	name = "robot"
//	domain = 2
//
//	[[operators]]
//	name = "move"
//	cost = 1
//	pre = [{ var = 0, value = 0 }]
//	eff = [{ var = 0, value = 1 }]
//
//	[[goal]]
//	var = 0
//	value = 1
//
// Every loaded task is validated; validation failures are returned as
// errors with code INVALID_TASK.
//
// # Causal Graph
//
// [Task.CausalGraph] computes the causal graph over variables: an arc from
// every precondition variable to every effect variable of the same
// operator, and arcs in both directions between effect variables of the
// same operator. Self loops are omitted.
package task
