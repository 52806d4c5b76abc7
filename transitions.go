package tbibm

import (
	"math"

	"github.com/n8thangreen/TB-IBM/rng"
)

// tiebreakRank gives each EventKind its position in the fixed tie-break
// order used when two or more of an actor's candidates land on the exact
// same instant (SPEC_FULL.md §4.4):
//
//	Report < RouteMutation < StateExit < DiseaseOnset < Transmission < Emigration < Death
//
// Birth never competes in a tie-break: it is only ever a pseudo-actor's
// own pending candidate, never one of a live actor's eight slots.
func tiebreakRank(k EventKind) int {
	switch k {
	case EvReport:
		return 0
	case EvRouteMutation:
		return 1
	case EvStateExit:
		return 2
	case EvDiseaseOnset:
		return 3
	case EvTransmission:
		return 4
	case EvEmigration:
		return 5
	case EvDeath:
		return 6
	case EvBirth:
		return 7
	default:
		return 8
	}
}

// pickEarliest scans an actor's eight candidate instants and returns the
// kind that should become "pending": the smallest instant, ties broken by
// tiebreakRank. Candidates left at +Inf (never scheduled this round) never
// win unless every candidate is +Inf, in which case ok is false.
func pickEarliest(a *Actor) (kind EventKind, at float64, ok bool) {
	best := math.Inf(1)
	bestKind := EventKind(0)
	found := false
	for k := 0; k < numEventKinds; k++ {
		t := a.t[k]
		if t == math.Inf(1) {
			continue
		}
		switch {
		case !found, t < best:
			best, bestKind, found = t, EventKind(k), true
		case t == best && tiebreakRank(EventKind(k)) < tiebreakRank(bestKind):
			bestKind = EventKind(k)
		}
	}
	return bestKind, best, found
}

// Params collects the rate and model parameters the transition engine
// consults when recomputing an actor's candidates. One instance is shared
// read-only across every handler call in a run.
type Params struct {
	Lifespan        LifespanModel
	Emigration      EmigrationModel
	VaccineEfficacy float64
	VaccinationRate float64

	FastProgressionRate   float64
	SlowProgressionRate   float64
	ReactivationRate      float64
	ReinfectionRate       float64
	RecoveryRate          float64
	TransmissionRateBase  float64
	RouteMutationRate     float64
	ReportInterval        float64

	// Pcc is the probability that a transmission target is drawn from the
	// source's own cohort rather than the whole population.
	Pcc float64
}

// Engine drives the transition handlers over a Population, threading the
// shared rng.Source and Params every handler needs to redraw candidates.
type Engine struct {
	Pop    *Population
	Counts *Counters
	Src    *rng.Source
	Params *Params

	BirthGen       *Generator
	ImmigrationGen *Generator
}

// spawnActor enters a freshly allocated actor into the counters and
// scheduler for the first time; hadEntry is false since a just-allocated
// slot has no prior queue entry to cancel.
func (e *Engine) spawnActor(slot int, now float64) {
	e.Counts.Enter(Uninfected)
	e.recompute(slot, now, false)
}

// recompute clears every live candidate slot (never Birth, which pseudo-
// actors alone occupy) and redraws the handful the current state makes
// reachable, then re-enters the actor into the scheduler at its new
// earliest candidate.
func (e *Engine) recompute(i int, now float64, hadEntry bool) {
	a := e.Pop.Actor(i)
	for k := 0; k < numEventKinds; k++ {
		if EventKind(k) == EvBirth {
			continue
		}
		a.t[k] = math.Inf(1)
	}

	a.t[EvDeath] = now + e.Params.Lifespan.YearsRemaining(a.sex, now-a.birthTime, e.Src)
	a.t[EvEmigration] = now + e.Params.Emigration.TimeToEmigration(a.sex, a.cohort, e.Src)

	switch a.state {
	case Uninfected:
		// StateExit carries the vaccination candidate here; RecentInf/Reinf
		// reuse the same slot for to-remote aging, and disease states reuse
		// it for recovery, since the three never compete in the same state.
		a.t[EvStateExit] = now + e.Src.Expon(e.Params.VaccinationRate)
	case RecentInf:
		a.t[EvStateExit] = now + e.Src.Expon(e.Params.SlowProgressionRate)
		a.t[EvDiseaseOnset] = now + e.Src.Expon(e.Params.FastProgressionRate)
	case RemoteInf:
		a.t[EvDiseaseOnset] = now + e.Src.Expon(e.Params.ReactivationRate)
	case Reinf:
		a.t[EvStateExit] = now + e.Src.Expon(e.Params.SlowProgressionRate)
		a.t[EvDiseaseOnset] = now + e.Src.Expon(e.Params.ReinfectionRate)
	case Primary, Reactivation, ReinfDisease:
		a.t[EvStateExit] = now + e.Src.Expon(e.Params.RecoveryRate)
		a.t[EvTransmission] = now + e.Src.Expon(e.Params.TransmissionRateBase)
		a.t[EvRouteMutation] = now + e.Src.Expon(e.Params.RouteMutationRate)
	case PrimaryNP, ReactivationNP, ReinfDiseaseNP:
		a.t[EvStateExit] = now + e.Src.Expon(e.Params.RecoveryRate)
	}

	kind, at, ok := pickEarliest(a)
	if !ok {
		return
	}
	e.Pop.CancelCurrent(i, hadEntry)
	e.Pop.ScheduleCandidate(i, kind, at)
}

// Vaccinate moves an uninfected actor directly to Immune, bypassing
// infection risk for the remainder of its candidate set.
func (e *Engine) Vaccinate(i int, now float64) {
	a := e.Pop.Actor(i)
	e.Counts.Move(a.state, Immune)
	a.state = Immune
	e.recompute(i, now, true)
}

// Infect transitions a susceptible or latently-infected actor on exposure:
// Uninfected lands in RecentInf, RemoteInf lands in Reinf. A target that is
// already actively infected is not an eligible contact; the transmission
// attempt has no effect on it.
func (e *Engine) Infect(i int, now float64) {
	a := e.Pop.Actor(i)
	var next State
	switch a.state {
	case Uninfected:
		next = RecentInf
	case RemoteInf:
		next = Reinf
	default:
		return
	}
	e.Counts.Move(a.state, next)
	a.state = next
	e.recompute(i, now, true)
}

// ToRemote ages a RecentInf infection into the latent RemoteInf state once
// its window for fast progression has elapsed without disease onset.
func (e *Engine) ToRemote(i int, now float64) {
	a := e.Pop.Actor(i)
	e.Counts.Move(a.state, RemoteInf)
	a.state = RemoteInf
	e.recompute(i, now, true)
}

// Disease moves an actor into one of the six active-disease states
// reachable from its current latent state, recording the onset and, for
// pulmonary routes, making the actor eligible to seed Transmission.
func (e *Engine) Disease(i int, now float64) {
	a := e.Pop.Actor(i)
	var next State
	switch a.state {
	case RecentInf:
		next = Primary
	case RemoteInf:
		next = Reactivation
	case Reinf:
		next = ReinfDisease
	default:
		next = a.state
	}
	if a.subcohort != NoMarker {
		// non-pulmonary marker routes the actor to the NP sibling state.
		switch next {
		case Primary:
			next = PrimaryNP
		case Reactivation:
			next = ReactivationNP
		case ReinfDisease:
			next = ReinfDiseaseNP
		}
	}
	e.Counts.Move(a.state, next)
	e.Counts.RecordDiseaseOnset()
	a.state = next
	e.recompute(i, now, true)
}

// Recover exits an actor from active disease back to RemoteInf, the
// reactivation pool, on state-exit expiry (natural recovery or treatment
// completion). Recovery never grants lasting immunity: only Vaccinate does.
func (e *Engine) Recover(i int, now float64) {
	a := e.Pop.Actor(i)
	e.Counts.Move(a.state, RemoteInf)
	a.state = RemoteInf
	e.recompute(i, now, true)
}

// Death removes an actor from the population entirely: it leaves the
// counters, its queue entry is cancelled, and it is then freed from the
// register (triggering compact-on-removal).
func (e *Engine) Death(i int) {
	a := e.Pop.Actor(i)
	e.Counts.Leave(a.state)
	e.Counts.RecordDeath()
	e.Pop.CancelCurrent(i, true)
	e.Pop.Free(i)
}

// Emigrate removes an actor from the population the same way Death does,
// but tallies it under emigration rather than mortality.
func (e *Engine) Emigrate(i int) {
	a := e.Pop.Actor(i)
	e.Counts.Leave(a.state)
	e.Counts.RecordEmigration()
	e.Pop.CancelCurrent(i, true)
	e.Pop.Free(i)
}

// Handle applies the handler matching an already-dispatched (i, kind, at)
// triple. Callers own the Dispatch call, since the driver loop needs to
// special-case EvReport before an actor handler ever runs.
func (e *Engine) Handle(i int, kind EventKind, at float64) {
	switch kind {
	case EvBirth:
		e.fireGenerator(i, at)
	case EvStateExit:
		switch e.Pop.Actor(i).state {
		case Uninfected:
			e.Vaccinate(i, at)
		case RecentInf, Reinf:
			e.ToRemote(i, at)
		default:
			e.Recover(i, at)
		}
	case EvDiseaseOnset:
		e.Disease(i, at)
	case EvTransmission:
		if target, ok := e.selectTransmissionTarget(i); ok {
			e.Infect(target, at)
		}
		e.recompute(i, at, true)
	case EvRouteMutation:
		a := e.Pop.Actor(i)
		a.subcohort = SmearPositive
		e.recompute(i, at, true)
	case EvEmigration:
		e.Emigrate(i)
	case EvDeath:
		e.Death(i)
	case EvReport:
		e.recompute(i, at, true)
	}
}

// selectTransmissionTarget draws the actor exposed by source's transmission
// candidate: with probability Params.Pcc a same-cohort actor other than
// source, otherwise anyone in the population other than source. Draws are
// made directly against the register's cursor ranges (Population.Range),
// never by building an intermediate slice of live actors.
func (e *Engine) selectTransmissionTarget(source int) (target int, ok bool) {
	a := e.Pop.Actor(source)
	if e.Src.Rand() < e.Params.Pcc {
		base, cursor := e.Pop.Range(a.cohort)
		return e.drawExcluding(base, cursor, source)
	}

	baseIn, curIn := e.Pop.Range(BornInside)
	baseOut, curOut := e.Pop.Range(BornOutside)
	nIn := curIn - baseIn
	nOut := curOut - baseOut
	total := nIn + nOut
	if total <= 1 {
		return 0, false
	}
	r := e.drawIndexExcluding(total, offsetOf(source, baseIn, curIn, baseOut))
	if r < nIn {
		return baseIn + r, true
	}
	return baseOut + (r - nIn), true
}

// drawExcluding picks a uniform slot in [base, cursor) other than except,
// returning ok=false when the span holds nothing but except.
func (e *Engine) drawExcluding(base, cursor, except int) (int, bool) {
	n := cursor - base
	if n <= 1 {
		return 0, false
	}
	r := e.drawIndexExcluding(n, except-base)
	return base + r, true
}

// drawIndexExcluding draws a uniform index in [0, n) other than except,
// using the standard "skip over except" remap so the draw stays a single
// UniformInt call with no rejection loop.
func (e *Engine) drawIndexExcluding(n, except int) int {
	r := e.Src.UniformInt(0, n-1)
	if r >= except {
		r++
	}
	return r
}

// offsetOf maps a live actor's absolute slot to its position in the
// concatenated [BornInside..., BornOutside...] ordering selectTransmissionTarget
// draws over.
func offsetOf(i, baseIn, curIn, baseOut int) int {
	if i >= baseIn && i < curIn {
		return i - baseIn
	}
	return (curIn - baseIn) + (i - baseOut)
}

// fireGenerator dispatches a birth or immigration pseudo-actor's arrival,
// identified by which reserved slot carried the candidate.
func (e *Engine) fireGenerator(actorID int, now float64) {
	var gen *Generator
	var record func()
	switch actorID {
	case e.Pop.BirthGeneratorID():
		gen, record = e.BirthGen, e.Counts.RecordBirth
	case e.Pop.ImmigrationGeneratorID():
		gen, record = e.ImmigrationGen, e.Counts.RecordImmigration
	default:
		return
	}
	if gen == nil {
		return
	}
	gen.Fire(now, func(slot int, at float64) {
		record()
		e.spawnActor(slot, at)
	})
}
