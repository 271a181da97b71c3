package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mastower/pkg/errors"
	"github.com/matzehuels/mastower/pkg/mas/merge"
	"github.com/matzehuels/mastower/pkg/task"
)

// sccsCommand creates the sccs command.
func (c *CLI) sccsCommand() *cobra.Command {
	var order string

	cmd := &cobra.Command{
		Use:   "sccs <task>",
		Short: "Print the strongly connected components of the causal graph",
		Long: `Print the strongly connected components of a task's causal graph in the
order the SCC merge strategy processes them.`,
		Example: `  mastower sccs examples/tasks/logistics.toml --order decreasing`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := merge.ParseOrderOfSCCs(order)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid --order")
			}
			t, err := loadTask(cmd, args[0])
			if err != nil {
				return err
			}
			printSCCs(t, merge.OrderSCCs(t, o))
			return nil
		},
	}

	cmd.Flags().StringVar(&order, "order", "topological", "SCC order: topological, reverse_topological, decreasing, increasing")

	return cmd
}

// printSCCs prints one line per component.
func printSCCs(t *task.Task, components [][]int) {
	nontrivial := 0
	for _, scc := range components {
		if len(scc) > 1 {
			nontrivial++
		}
	}
	printInfo("%d components, %d non-singleton", len(components), nontrivial)
	for i, scc := range components {
		fmt.Printf("  %s %s\n", StyleDim.Render(fmt.Sprintf("%3d", i)), StyleValue.Render(variableNames(t, scc)))
	}
}
