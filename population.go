package tbibm

import (
	"github.com/n8thangreen/TB-IBM/calq"
	"github.com/n8thangreen/TB-IBM/register"
)

// Population owns the actor-record array, the scheduler, and the
// compacting register together, since all three must stay in lockstep:
// a compact-on-removal renumber must reach both the record array and the
// scheduler in the same operation. Slots [1, capA] are cohort A (born
// outside), [capA+1, capA+capB] are cohort B (born inside), and the three
// slots above that are reserved forever for the birth, immigration and
// report pseudo-actors, per spec.md §3.
type Population struct {
	actors []Actor
	reg    *register.Register
	queue  *calq.Queue

	birthGenID       int
	immigrationGenID int
	reportGenID      int
}

// NewPopulation allocates a population with capacity capA in cohort A,
// capB in cohort B, plus the three reserved pseudo-actor slots, and a
// calendar queue with b buckets sized for the whole index space. Slot 0
// is never used: calq reserves it as its empty-bucket sentinel.
func NewPopulation(capA, capB, buckets int) *Population {
	maxActor := capA + capB + 3
	p := &Population{
		actors:           make([]Actor, maxActor+1),
		queue:            calq.New(buckets, maxActor),
		birthGenID:       maxActor - 2,
		immigrationGenID: maxActor - 1,
		reportGenID:      maxActor,
	}
	p.reg = register.New(capA, capB, p.queue, p)
	for i := range p.actors {
		resetActor(&p.actors[i])
	}
	return p
}

// CopySlot implements register.Copier.
func (p *Population) CopySlot(dst, src int) {
	p.actors[dst] = p.actors[src]
}

// ResetSlot implements register.Copier.
func (p *Population) ResetSlot(i int) {
	resetActor(&p.actors[i])
}

// Actor returns the record for slot i. The reserved pseudo-actor slots are
// valid indices too.
func (p *Population) Actor(i int) *Actor {
	return &p.actors[i]
}

// BirthGeneratorID, ImmigrationGeneratorID and ReportGeneratorID return the
// three reserved pseudo-actor slots above the register's cohort capacity,
// none of which the register ever allocates to a live actor.
func (p *Population) BirthGeneratorID() int       { return p.birthGenID }
func (p *Population) ImmigrationGeneratorID() int { return p.immigrationGenID }
func (p *Population) ReportGeneratorID() int      { return p.reportGenID }

// Allocate creates a new actor in the given cohort and returns its slot,
// tagging the record with that cohort so cohort-scoped selection
// (transmission target draws) can read it straight off the actor.
func (p *Population) Allocate(c Cohort) int {
	i := p.reg.Allocate(toRegisterCohort(c))
	p.actors[i].cohort = c
	return i
}

// Free destroys the actor in slot i, compacting its cohort via the
// register's highest-peer copy-down and scheduler renumber.
func (p *Population) Free(i int) {
	p.reg.Free(i)
}

// Range returns the occupied [base, cursor) span of cohort c.
func (p *Population) Range(c Cohort) (base, cursor int) {
	return p.reg.Range(toRegisterCohort(c))
}

// Count returns the number of live actors in cohort c.
func (p *Population) Count(c Cohort) int {
	return p.reg.Count(toRegisterCohort(c))
}

func toRegisterCohort(c Cohort) register.Cohort {
	if c == BornOutside {
		return register.CohortA
	}
	return register.CohortB
}

// StartTime positions the scheduler's cycle window. See calq.Queue.StartTime.
func (p *Population) StartTime(t0, qw float64) {
	p.queue.StartTime(t0, qw)
}

// SetHorizon bounds Dispatch to instants before t.
func (p *Population) SetHorizon(t float64) {
	p.queue.SetHorizon(t)
}

// Clock returns the simulated instant last reached by Dispatch.
func (p *Population) Clock() float64 {
	return p.queue.Clock()
}

// ScheduleCandidate records that actor i's winning candidate is kind at
// instant at, and enters it into the scheduler. The actor must not already
// have a queue entry; callers recomputing an actor's candidates call
// CancelCurrent first when one exists.
func (p *Population) ScheduleCandidate(i int, kind EventKind, at float64) {
	a := &p.actors[i]
	a.t[kind] = at
	a.pending = kind
	p.queue.Schedule(i, at)
}

// CancelCurrent removes actor i's queue entry, if it has one. live reports
// whether an actor has ever not had one (pseudo-actors and live actors
// always do once initialised; this is a no-op guard for the very first
// schedule of a freshly allocated actor).
func (p *Population) CancelCurrent(i int, hadEntry bool) {
	if hadEntry {
		p.queue.Cancel(i)
	}
}

// Dispatch extracts the earliest-due actor and its pending event kind.
func (p *Population) Dispatch() (i int, kind EventKind, at float64, ok bool) {
	i, at, ok = p.queue.Next()
	if !ok {
		return 0, 0, 0, false
	}
	return i, p.actors[i].pending, at, true
}

// QueueLen returns the number of entries currently scheduled.
func (p *Population) QueueLen() int {
	return p.queue.Len()
}
