package tree

import "github.com/joepstevens0/inf-masterproef/geom"

// RootID is the segment id of every plant's root metamer.
const RootID uint32 = 1

// firstBudID is the first id handed to a bud. Id 0 marks occupied markers.
const firstBudID uint32 = 2

// IDAllocator hands out bud ids that are unique within one simulation.
type IDAllocator struct {
	next uint32
}

// NewIDAllocator returns an allocator starting at the first bud id.
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{next: firstBudID}
}

// Next returns a fresh id.
func (a *IDAllocator) Next() uint32 {
	id := a.next
	a.next++
	return id
}

// Reset restarts allocation so a replayed run reproduces the same ids.
func (a *IDAllocator) Reset() {
	a.next = firstBudID
}

// GrowthParams are the structural constants of the growth model.
type GrowthParams struct {
	WidthExponent    float64 // Pipe model exponent
	WidthMin         float64 // Added to the child width sum
	BudRecoverySpeed float64 // Damage removed per iteration while a bud is open
	BudStubLength    float64 // Length of the rendered stub of an open bud
	BudStubWidth     float64
}

// Context is the explicit state threaded through every growth operation.
type Context struct {
	Genetics *Genetics
	Growth   GrowthParams
	IDs      *IDAllocator
	Rand     geom.Float
}
