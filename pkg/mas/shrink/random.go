package shrink

import (
	"math/rand/v2"

	"github.com/matzehuels/mastower/pkg/mas"
)

// Random shrinks by grouping states uniformly at random.
type Random struct {
	Seed uint64
}

// Name implements Strategy.
func (r *Random) Name() string { return "random" }

// RequiresInitDistances implements Strategy.
func (r *Random) RequiresInitDistances() bool { return false }

// RequiresGoalDistances implements Strategy.
func (r *Random) RequiresGoalDistances() bool { return false }

// ComputeEquivalenceRelation implements Strategy. The relation depends only
// on the seed, the factor's size and targetSize.
func (r *Random) ComputeEquivalenceRelation(ts *mas.TransitionSystem, _ *mas.Distances, targetSize int, log *mas.Log) mas.StateEquivalenceRelation {
	n := ts.Size()
	size := max(1, min(n, targetSize))
	rng := rand.New(rand.NewPCG(r.Seed, uint64(n)))

	relation := make(mas.StateEquivalenceRelation, size)
	for i, state := range rng.Perm(n) {
		relation[i%size] = append(relation[i%size], state)
	}
	log.Verbosef("%srandom: %d to %d states", ts.Tag(), n, size)
	return relation
}
