package mas

import "slices"

// Representation maps concrete states of the task to abstract states of a
// factor, and after [Representation.SetDistances] to heuristic values.
type Representation interface {
	// Value returns the abstract state (or heuristic value) of state,
	// [PrunedState] if state maps to a pruned state, or [Inf] if it is a
	// dead end under the installed distances.
	Value(state []int) int

	// IsTotal reports whether no concrete state maps to [PrunedState].
	IsTotal() bool

	// DomainSize returns the number of abstract states.
	DomainSize() int

	// ApplyAbstraction remaps every abstract state s to mapping[s].
	ApplyAbstraction(mapping []int)

	// SetDistances replaces abstract states by their goal distances.
	SetDistances(d *Distances)

	// Clone returns a deep copy.
	Clone() Representation
}

type leafRepresentation struct {
	variable   int
	lookup     []int // indexed by value
	domainSize int
}

// NewLeafRepresentation represents the identity mapping of one variable.
func NewLeafRepresentation(variable, domainSize int) Representation {
	lookup := make([]int, domainSize)
	for i := range lookup {
		lookup[i] = i
	}
	return &leafRepresentation{variable: variable, lookup: lookup, domainSize: domainSize}
}

func (r *leafRepresentation) Value(state []int) int { return r.lookup[state[r.variable]] }

func (r *leafRepresentation) IsTotal() bool { return !slices.Contains(r.lookup, PrunedState) }

func (r *leafRepresentation) DomainSize() int { return r.domainSize }

func (r *leafRepresentation) ApplyAbstraction(mapping []int) {
	r.domainSize = remap(r.lookup, mapping)
}

func (r *leafRepresentation) SetDistances(d *Distances) {
	installDistances(r.lookup, d)
}

func (r *leafRepresentation) Clone() Representation {
	return &leafRepresentation{variable: r.variable, lookup: slices.Clone(r.lookup), domainSize: r.domainSize}
}

type mergeRepresentation struct {
	left, right Representation
	lookup      [][]int // indexed by left value, then right value
	domainSize  int
}

// NewMergeRepresentation represents the product of two factors. Product
// state (l, r) is l*right.DomainSize()+r, matching [Merge].
func NewMergeRepresentation(left, right Representation) Representation {
	n1, n2 := left.DomainSize(), right.DomainSize()
	lookup := make([][]int, n1)
	for i := range lookup {
		row := make([]int, n2)
		for j := range row {
			row[j] = i*n2 + j
		}
		lookup[i] = row
	}
	return &mergeRepresentation{left: left, right: right, lookup: lookup, domainSize: n1 * n2}
}

func (r *mergeRepresentation) Value(state []int) int {
	v1 := r.left.Value(state)
	if v1 == PrunedState {
		return PrunedState
	}
	v2 := r.right.Value(state)
	if v2 == PrunedState {
		return PrunedState
	}
	return r.lookup[v1][v2]
}

func (r *mergeRepresentation) IsTotal() bool {
	for _, row := range r.lookup {
		if slices.Contains(row, PrunedState) {
			return false
		}
	}
	return r.left.IsTotal() && r.right.IsTotal()
}

func (r *mergeRepresentation) DomainSize() int { return r.domainSize }

func (r *mergeRepresentation) ApplyAbstraction(mapping []int) {
	size := 0
	for _, row := range r.lookup {
		size = max(size, remap(row, mapping))
	}
	r.domainSize = size
}

func (r *mergeRepresentation) SetDistances(d *Distances) {
	for _, row := range r.lookup {
		installDistances(row, d)
	}
}

func (r *mergeRepresentation) Clone() Representation {
	lookup := make([][]int, len(r.lookup))
	for i, row := range r.lookup {
		lookup[i] = slices.Clone(row)
	}
	return &mergeRepresentation{
		left:       r.left.Clone(),
		right:      r.right.Clone(),
		lookup:     lookup,
		domainSize: r.domainSize,
	}
}

// remap applies mapping to every non-pruned entry and returns the
// resulting number of abstract states.
func remap(entries, mapping []int) int {
	size := 0
	for i, s := range entries {
		if s == PrunedState {
			continue
		}
		entries[i] = mapping[s]
		size = max(size, entries[i]+1)
	}
	return size
}

func installDistances(entries []int, d *Distances) {
	for i, s := range entries {
		if s != PrunedState {
			entries[i] = d.GoalDistance(s)
		}
	}
}
