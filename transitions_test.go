package tbibm

import (
	"math"
	"testing"

	"github.com/n8thangreen/TB-IBM/rng"
)

func newTestEngine(capA, capB, buckets int) (*Population, *Engine) {
	pop := NewPopulation(capA, capB, buckets)
	pop.StartTime(0, 1000)
	pop.SetHorizon(1e9)

	src := new(rng.Source)
	src.StartWithSeed(4242)

	params := &Params{
		Lifespan:             &ExponentialLifespan{RateMale: 1.0 / 70, RateFemale: 1.0 / 75},
		Emigration:           &ExponentialEmigration{RateBornInside: 0.01, RateBornOutside: 0.02},
		FastProgressionRate:  2.0,
		SlowProgressionRate:  0.5,
		ReactivationRate:     0.05,
		ReinfectionRate:      0.3,
		RecoveryRate:         1.0,
		TransmissionRateBase: 0.4,
		RouteMutationRate:    0.1,
		ReportInterval:       1.0,
		VaccinationRate:      0.2,
		Pcc:                  0.8,
	}
	eng := &Engine{Pop: pop, Counts: new(Counters), Src: src, Params: params}
	return pop, eng
}

func TestPickEarliestOrdersByTiebreakOnExactTie(t *testing.T) {
	a := new(Actor)
	resetActor(a)
	a.t[EvDeath] = 5.0
	a.t[EvTransmission] = 5.0
	a.t[EvReport] = 5.0

	kind, at, ok := pickEarliest(a)
	if !ok {
		t.Fatal("expected a candidate")
	}
	if kind != EvReport || at != 5.0 {
		t.Fatalf("got kind=%v at=%v, want EvReport at 5.0 (lowest tiebreak rank)", kind, at)
	}
}

func TestPickEarliestPrefersSmallestInstantOverRank(t *testing.T) {
	a := new(Actor)
	resetActor(a)
	a.t[EvDeath] = 1.0
	a.t[EvReport] = 2.0

	kind, at, ok := pickEarliest(a)
	if !ok || kind != EvDeath || at != 1.0 {
		t.Fatalf("got kind=%v at=%v ok=%v, want EvDeath at 1.0", kind, at, ok)
	}
}

func TestPickEarliestSkipsInfiniteCandidates(t *testing.T) {
	a := new(Actor)
	resetActor(a)
	_, _, ok := pickEarliest(a)
	if ok {
		t.Fatal("expected no candidate when every slot is +Inf")
	}
}

func TestInfectRecomputesCandidatesForRecentInf(t *testing.T) {
	pop, eng := newTestEngine(100, 100, 64)
	i := pop.Allocate(BornInside)
	eng.spawnActor(i, 0)

	eng.Infect(i, 1.0)

	a := pop.Actor(i)
	if a.state != RecentInf {
		t.Fatalf("state = %v, want RecentInf", a.state)
	}
	if a.t[EvStateExit] == math.Inf(1) || a.t[EvDiseaseOnset] == math.Inf(1) {
		t.Fatal("RecentInf must have both StateExit and DiseaseOnset candidates")
	}
	if eng.Counts.Count(RecentInf) != 1 {
		t.Fatalf("RecentInf count = %d, want 1", eng.Counts.Count(RecentInf))
	}
}

func TestDiseaseRoutesToNonPulmonaryWhenMarked(t *testing.T) {
	pop, eng := newTestEngine(100, 100, 64)
	i := pop.Allocate(BornInside)
	eng.spawnActor(i, 0)
	eng.Infect(i, 1.0)
	pop.Actor(i).subcohort = SmearPositive // marks this actor non-pulmonary per the handler's NP-sibling rule

	eng.Disease(i, 2.0)

	if pop.Actor(i).state != PrimaryNP {
		t.Fatalf("state = %v, want PrimaryNP", pop.Actor(i).state)
	}
	if !pop.Actor(i).state.IsDisease() {
		t.Fatal("PrimaryNP must report IsDisease")
	}
	if pop.Actor(i).state.IsPulmonary() {
		t.Fatal("PrimaryNP must not report IsPulmonary")
	}
}

func TestDeathFreesSlotAndLeavesCounters(t *testing.T) {
	pop, eng := newTestEngine(10, 10, 64)
	i := pop.Allocate(BornInside)
	eng.spawnActor(i, 0)
	before := pop.Count(BornInside)

	eng.Death(i)

	if pop.Count(BornInside) != before-1 {
		t.Fatalf("count = %d, want %d", pop.Count(BornInside), before-1)
	}
	if eng.Counts.Total() != 0 {
		t.Fatalf("total = %d, want 0 after the only actor dies", eng.Counts.Total())
	}
	if eng.Counts.totalDeaths != 1 {
		t.Fatalf("totalDeaths = %d, want 1", eng.Counts.totalDeaths)
	}
}

func TestEveryLiveActorHasExactlyOneQueueEntry(t *testing.T) {
	pop, eng := newTestEngine(50, 50, 64)
	var slots []int
	for n := 0; n < 20; n++ {
		i := pop.Allocate(BornInside)
		eng.spawnActor(i, 0)
		slots = append(slots, i)
	}
	if pop.QueueLen() != len(slots) {
		t.Fatalf("queue length = %d, want %d (one entry per live actor)", pop.QueueLen(), len(slots))
	}

	eng.Infect(slots[0], 1.0)
	if pop.QueueLen() != len(slots) {
		t.Fatalf("queue length after recompute = %d, want %d (recompute must not leak entries)", pop.QueueLen(), len(slots))
	}
}

func TestCountersTotalMatchesLiveActorCount(t *testing.T) {
	pop, eng := newTestEngine(50, 50, 64)
	n := 15
	for k := 0; k < n; k++ {
		i := pop.Allocate(BornOutside)
		eng.spawnActor(i, 0)
	}
	if eng.Counts.Total() != n {
		t.Fatalf("Total() = %d, want %d", eng.Counts.Total(), n)
	}

	i := pop.Allocate(BornOutside)
	eng.spawnActor(i, 0)
	eng.Death(i)
	if eng.Counts.Total() != n {
		t.Fatalf("Total() after a birth+death pair = %d, want %d", eng.Counts.Total(), n)
	}
}

func TestRecoverReturnsToRemoteInfNotImmune(t *testing.T) {
	pop, eng := newTestEngine(20, 20, 64)
	i := pop.Allocate(BornInside)
	eng.spawnActor(i, 0)
	eng.Infect(i, 1.0)
	pop.Actor(i).state = Primary

	eng.Recover(i, 2.0)

	if pop.Actor(i).state != RemoteInf {
		t.Fatalf("state = %v, want RemoteInf", pop.Actor(i).state)
	}
}

func TestInfectRoutesRemoteInfToReinf(t *testing.T) {
	pop, eng := newTestEngine(20, 20, 64)
	i := pop.Allocate(BornInside)
	eng.spawnActor(i, 0)
	pop.Actor(i).state = RemoteInf

	eng.Infect(i, 1.0)

	if pop.Actor(i).state != Reinf {
		t.Fatalf("state = %v, want Reinf", pop.Actor(i).state)
	}
}

func TestInfectIgnoresAlreadyInfectedTarget(t *testing.T) {
	pop, eng := newTestEngine(20, 20, 64)
	i := pop.Allocate(BornInside)
	eng.spawnActor(i, 0)
	eng.Infect(i, 1.0)
	pop.Actor(i).state = Primary

	eng.Infect(i, 2.0)

	if pop.Actor(i).state != Primary {
		t.Fatalf("state = %v, want Primary unchanged (not an eligible contact)", pop.Actor(i).state)
	}
}

func TestVaccinateDispatchesFromStateExitForUninfected(t *testing.T) {
	pop, eng := newTestEngine(20, 20, 64)
	i := pop.Allocate(BornInside)
	eng.spawnActor(i, 0)

	eng.Handle(i, EvStateExit, 0.5)

	if pop.Actor(i).state != Immune {
		t.Fatalf("state = %v, want Immune after StateExit fires for an Uninfected actor", pop.Actor(i).state)
	}
}

func TestHandleStateExitRoutesRecentInfToRemote(t *testing.T) {
	pop, eng := newTestEngine(20, 20, 64)
	i := pop.Allocate(BornInside)
	eng.spawnActor(i, 0)
	eng.Infect(i, 0.5)

	eng.Handle(i, EvStateExit, 1.0)

	if pop.Actor(i).state != RemoteInf {
		t.Fatalf("state = %v, want RemoteInf", pop.Actor(i).state)
	}
}

func TestTransmissionInfectsTargetNotSource(t *testing.T) {
	pop, eng := newTestEngine(50, 50, 64)
	source := pop.Allocate(BornInside)
	eng.spawnActor(source, 0)
	pop.Actor(source).state = RemoteInf

	var others []int
	for n := 0; n < 10; n++ {
		j := pop.Allocate(BornInside)
		eng.spawnActor(j, 0)
		others = append(others, j)
	}

	eng.Handle(source, EvTransmission, 1.0)

	if pop.Actor(source).state != RemoteInf {
		t.Fatalf("source state = %v, want RemoteInf (transmission must not re-infect the source)", pop.Actor(source).state)
	}
	infected := 0
	for _, j := range others {
		if pop.Actor(j).state == RecentInf {
			infected++
		}
	}
	if infected != 1 {
		t.Fatalf("infected targets = %d, want exactly 1", infected)
	}
}

func TestSelectTransmissionTargetNeverPicksSource(t *testing.T) {
	pop, eng := newTestEngine(50, 50, 64)
	source := pop.Allocate(BornInside)
	eng.spawnActor(source, 0)
	for n := 0; n < 5; n++ {
		j := pop.Allocate(BornInside)
		eng.spawnActor(j, 0)
	}

	for n := 0; n < 50; n++ {
		target, ok := eng.selectTransmissionTarget(source)
		if !ok {
			t.Fatal("expected a target with more than one live actor present")
		}
		if target == source {
			t.Fatal("selectTransmissionTarget must never return the source itself")
		}
	}
}

func TestGeneratorFiresOneActorPerTickAtDeterministicInterval(t *testing.T) {
	pop := NewPopulation(50, 50, 64)
	pop.StartTime(0, 1000)
	pop.SetHorizon(1e9)
	src := new(rng.Source)
	src.StartWithSeed(99)

	gen := NewBirthGenerator(pop, src, []AnnualRate{{Year: 0, Rate: 800000}})

	spawned := 0
	var nextAt float64
	gen.Fire(0, func(slot int, at float64) { spawned++ })
	nextAt = pop.Actor(pop.BirthGeneratorID()).t[EvBirth]

	if spawned != 1 {
		t.Fatalf("spawned = %d, want exactly 1 actor per Fire call", spawned)
	}
	want := 1.0 / 800000
	if math.Abs(nextAt-want) > 1e-9 {
		t.Fatalf("next firing = %v, want now + 1/rate = %v", nextAt, want)
	}
}

func TestReportGeneratorSlotIsNeverZero(t *testing.T) {
	pop := NewPopulation(10, 10, 64)
	if pop.ReportGeneratorID() == 0 {
		t.Fatal("ReportGeneratorID must never be the calq empty-bucket sentinel slot 0")
	}
	if pop.ReportGeneratorID() == pop.BirthGeneratorID() || pop.ReportGeneratorID() == pop.ImmigrationGeneratorID() {
		t.Fatal("the three reserved pseudo-actor slots must be distinct")
	}
}
