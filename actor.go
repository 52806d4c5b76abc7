package tbibm

import "math"

// Actor is one simulated individual's record: a tuple of candidate future
// instants, a tag naming which one is currently queued, the actor's
// current domain state, and its fixed demographic attributes.
//
// Population implements register.Copier over the whole Actor array (see
// Population.CopySlot/ResetSlot) so that register.Register can compact a
// cohort without knowing anything about the TB domain.
type Actor struct {
	t       [numEventKinds]float64
	pending EventKind
	state   State

	sex       Sex
	cohort    Cohort
	subcohort Subcohort

	birthTime float64 // simulated instant the actor entered the population
}

// resetActor clears a record to its unused zero state: every candidate
// instant at +Inf so a stale slot can never be mistaken for a live
// candidate by a future partial recompute.
func resetActor(a *Actor) {
	for i := range a.t {
		a.t[i] = math.Inf(1)
	}
	a.pending = EvReport
	a.state = Uninfected
	a.sex = Male
	a.cohort = BornInside
	a.subcohort = NoMarker
	a.birthTime = 0
}

// PendingTime returns the instant of the actor's currently queued
// candidate, i.e. t[pending].
func (a *Actor) PendingTime() float64 {
	return a.t[a.pending]
}
