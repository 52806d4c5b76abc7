package tbibm

import (
	"github.com/n8thangreen/TB-IBM/rng"
)

// AnnualRate is one year's per-capita birth or immigration rate, as read
// from a centinel-loaded rate table (SPEC_FULL.md §4.6).
type AnnualRate struct {
	Year int
	Rate float64
}

// Generator drives one of the two external-arrival pseudo-actors (birth or
// immigration): it looks up the current annual rate, spawns exactly one
// actor per firing, and reschedules its next firing at the deterministic
// inter-arrival interval 1/rate.
type Generator struct {
	Pop     *Population
	Src     *rng.Source
	Rates   []AnnualRate
	ActorID int
	Cohort  Cohort
}

// NewBirthGenerator builds a Generator that spawns newly-born actors into
// cohort BornInside.
func NewBirthGenerator(pop *Population, src *rng.Source, rates []AnnualRate) *Generator {
	return &Generator{Pop: pop, Src: src, Rates: rates, ActorID: pop.BirthGeneratorID(), Cohort: BornInside}
}

// NewImmigrationGenerator builds a Generator that spawns arriving actors
// into cohort BornOutside.
func NewImmigrationGenerator(pop *Population, src *rng.Source, rates []AnnualRate) *Generator {
	return &Generator{Pop: pop, Src: src, Rates: rates, ActorID: pop.ImmigrationGeneratorID(), Cohort: BornOutside}
}

// rateForYear returns the configured rate for the calendar year containing
// t, falling back to the last tabulated year once t runs past the table.
func (g *Generator) rateForYear(t float64) float64 {
	year := int(t)
	best := 0.0
	for _, r := range g.Rates {
		if r.Year <= year {
			best = r.Rate
		}
	}
	return best
}

// Fire allocates one new actor at instant now and schedules this
// generator's next arrival deterministically at now + 1/rate: the rate is
// the generator's own firing frequency, not a count to jitter per tick.
func (g *Generator) Fire(now float64, spawn func(slot int, now float64)) {
	rate := g.rateForYear(now)

	slot := g.Pop.Allocate(g.Cohort)
	a := g.Pop.Actor(slot)
	a.birthTime = now
	if g.Src.Rand() < 0.5 {
		a.sex = Male
	} else {
		a.sex = Female
	}
	spawn(slot, now)

	firingRate := rate
	if firingRate <= 0 {
		firingRate = 1.0
	}
	next := now + 1.0/firingRate
	g.Pop.ScheduleCandidate(g.ActorID, EvBirth, next)
}
