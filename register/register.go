// Package register implements the population register: a dense,
// gap-free array of actor slots split into two cohorts, with
// compact-on-removal backed by the scheduler's renumber primitive.
package register

import "fmt"

// Renumberer is the subset of the scheduler's interface the register needs
// to keep queue entries consistent when it compacts a cohort. It is
// satisfied by *calq.Queue without register importing calq, keeping the
// two packages independent per the component boundaries of the design.
type Renumberer interface {
	Renumber(n, m int)
}

// Copier lets the register move a cohort's record data during a compact;
// domain actor-record types implement it to copy slot j's fields over slot
// i without the register needing to know the record's shape.
type Copier interface {
	// CopySlot copies all fields from slot src into slot dst.
	CopySlot(dst, src int)
	// ResetSlot clears slot i to its zero state, e.g. after it is vacated.
	ResetSlot(i int)
}

// Register tracks two disjoint cohorts, A occupying [1, baseB) and B
// occupying [baseB, baseB+capB). Slots above both cohorts are outside the
// register: it never allocates or compacts them, so a caller can reserve
// them for pseudo-actors.
type Register struct {
	baseB, capB int
	capA        int

	nextA, nextB int // first free slot in each cohort

	sched Renumberer
	rec   Copier
}

// Cohort identifies which partition of the index space a slot belongs to.
type Cohort int

const (
	// CohortA spans [1, capA].
	CohortA Cohort = iota
	// CohortB spans [capA+1, capA+capB].
	CohortB
)

// New creates a Register for a population with capA slots in cohort A and
// capB slots in cohort B, indices 1..capA for A and capA+1..capA+capB for
// B. sched is informed via Renumber whenever a removal compacts a cohort;
// rec supplies the per-slot copy/reset primitives.
func New(capA, capB int, sched Renumberer, rec Copier) *Register {
	return &Register{
		capA:  capA,
		baseB: capA + 1,
		capB:  capB,
		nextA: 1,
		nextB: capA + 1,
		sched: sched,
		rec:   rec,
	}
}

// Allocate returns the next free slot in the given cohort and advances its
// cursor. It panics if the cohort is full.
func (r *Register) Allocate(c Cohort) int {
	switch c {
	case CohortA:
		if r.nextA > r.capA {
			panic(fmt.Sprintf("register: cohort A exhausted (capacity %d)", r.capA))
		}
		i := r.nextA
		r.nextA++
		return i
	case CohortB:
		if r.nextB > r.baseB+r.capB-1 {
			panic(fmt.Sprintf("register: cohort B exhausted (capacity %d)", r.capB))
		}
		i := r.nextB
		r.nextB++
		return i
	default:
		panic(fmt.Sprintf("register: unknown cohort %d", c))
	}
}

// Free vacates slot i. The highest-occupied slot j in i's cohort is copied
// over slot i, the cohort cursor is decremented, and if i != j the
// scheduler is told the pending queue entry for j now belongs to i, so the
// cohort remains contiguous from its base.
func (r *Register) Free(i int) {
	c, base, lastUsed := r.cohortOf(i)
	j := lastUsed
	if i < base || i > lastUsed {
		panic(fmt.Sprintf("register: slot %d is not a live member of its cohort [%d, %d]", i, base, lastUsed))
	}
	if i != j {
		r.rec.CopySlot(i, j)
		r.sched.Renumber(i, j)
	}
	r.rec.ResetSlot(j)
	switch c {
	case CohortA:
		r.nextA--
	case CohortB:
		r.nextB--
	}
}

// cohortOf reports which cohort slot i belongs to, together with that
// cohort's base index and its current highest-occupied index.
func (r *Register) cohortOf(i int) (c Cohort, base, lastUsed int) {
	if i >= 1 && i <= r.capA {
		return CohortA, 1, r.nextA - 1
	}
	if i >= r.baseB && i <= r.baseB+r.capB-1 {
		return CohortB, r.baseB, r.nextB - 1
	}
	panic(fmt.Sprintf("register: slot %d out of range", i))
}

// Range returns the occupied [base, cursor) span of cohort c.
func (r *Register) Range(c Cohort) (base, cursor int) {
	switch c {
	case CohortA:
		return 1, r.nextA
	case CohortB:
		return r.baseB, r.nextB
	default:
		panic(fmt.Sprintf("register: unknown cohort %d", c))
	}
}

// Count returns the number of live actors in cohort c.
func (r *Register) Count(c Cohort) int {
	base, cursor := r.Range(c)
	return cursor - base
}

// Live reports whether slot i currently holds a live actor of either
// cohort.
func (r *Register) Live(i int) bool {
	if i >= 1 && i < r.nextA {
		return true
	}
	if i >= r.baseB && i < r.nextB {
		return true
	}
	return false
}
