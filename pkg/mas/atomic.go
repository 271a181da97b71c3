package mas

import (
	"slices"

	"github.com/matzehuels/mastower/pkg/task"
)

// CreateAtomicFTS builds one transition system per task variable. Every
// operator is a label; an operator that does not mention a variable
// induces a self loop on every value, and a prevail condition induces a
// self loop on its value.
func CreateAtomicFTS(t *task.Task, computeInit, computeGoal bool, log *Log) *FactoredTransitionSystem {
	numOps := t.NumOperators()
	costs := make([]int, numOps)
	for i, op := range t.Operators {
		costs[i] = op.Cost
	}
	maxNumLabels := 0
	if numOps > 0 {
		maxNumLabels = 2*numOps - 1
	}
	labels := NewLabels(costs, maxNumLabels)

	numVars := t.NumVariables()
	tss := make([]*TransitionSystem, numVars)
	reps := make([]Representation, numVars)
	dists := make([]*Distances, numVars)
	for v := range numVars {
		tss[v] = atomicTransitionSystem(t, v, labels)
		reps[v] = NewLeafRepresentation(v, t.Variables[v].DomainSize)
		dists[v] = NewDistances(tss[v])
	}

	fts := NewFactoredTransitionSystem(labels, tss, reps, dists, computeInit, computeGoal, log)
	if log.IsAtLeastNormal() {
		log.Printf("Built %d atomic transition systems over %d labels", numVars, numOps)
		for i := range fts.Active() {
			fts.Statistics(i, log)
		}
	}
	return fts
}

func atomicTransitionSystem(t *task.Task, v int, labels *Labels) *TransitionSystem {
	domain := t.Variables[v].DomainSize

	goalStates := make([]bool, domain)
	if g := t.GoalValue(v); g != -1 {
		goalStates[g] = true
	} else {
		for i := range goalStates {
			goalStates[i] = true
		}
	}

	globalToLocal := make([]int, labels.MaxNumLabels())
	for i := range globalToLocal {
		globalToLocal[i] = -1
	}
	localLabels := make([]LocalLabelInfo, 0, len(t.Operators))
	for label, op := range t.Operators {
		pre, eff := op.Precondition(v), op.Effect(v)
		var transitions []Transition
		switch {
		case pre != -1 && eff != -1:
			transitions = []Transition{{Src: pre, Target: eff}}
		case pre != -1:
			transitions = []Transition{{Src: pre, Target: pre}}
		case eff != -1:
			transitions = make([]Transition, domain)
			for s := range domain {
				transitions[s] = Transition{Src: s, Target: eff}
			}
		default:
			transitions = make([]Transition, domain)
			for s := range domain {
				transitions[s] = Transition{Src: s, Target: s}
			}
		}
		globalToLocal[label] = len(localLabels)
		localLabels = append(localLabels, NewLocalLabelInfo(LabelGroup{label}, slices.Clip(transitions), op.Cost))
	}

	ts := NewTransitionSystem(
		t.NumVariables(),
		[]int{v},
		labels,
		globalToLocal,
		localLabels,
		domain,
		goalStates,
		t.Initial[v],
	)
	ts.ComputeLocallyEquivalentLabels()
	return ts
}
