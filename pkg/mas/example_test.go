package mas_test

import (
	"fmt"

	"github.com/matzehuels/mastower/pkg/mas"
	"github.com/matzehuels/mastower/pkg/task"
)

func ExampleMerge() {
	tk := &task.Task{
		Variables: []task.Variable{{Name: "V1", DomainSize: 2}, {Name: "V2", DomainSize: 2}},
		Operators: []task.Operator{
			{Name: "a", Cost: 1, Preconditions: []task.Fact{{Var: 0, Value: 0}}, Effects: []task.Fact{{Var: 0, Value: 1}}},
			{Name: "b", Cost: 1, Preconditions: []task.Fact{{Var: 1, Value: 0}}, Effects: []task.Fact{{Var: 1, Value: 1}}},
		},
		Initial: []int{0, 0},
		Goal:    []task.Fact{{Var: 0, Value: 1}, {Var: 1, Value: 1}},
	}
	fts := mas.CreateAtomicFTS(tk, false, true, nil)
	product := mas.Merge(fts.Labels(), fts.TransitionSystem(0), fts.TransitionSystem(1), nil)

	fmt.Println(product.Description())
	fmt.Println("states:", product.Size(), "init:", product.InitState())
	for s := range product.Size() {
		if product.IsGoalState(s) {
			fmt.Println("goal:", s)
		}
	}
	for _, info := range product.LocalLabels() {
		fmt.Println(info.LabelGroup(), info.Transitions())
	}
	// Output:
	// composite transition system with 2/2 vars
	// states: 4 init: 0
	// goal: 3
	// [0] [0->2 1->3]
	// [1] [0->1 2->3]
}
