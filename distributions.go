package tbibm

import (
	"math"

	"github.com/n8thangreen/TB-IBM/rng"
)

// LifespanModel is a general method to determine years-of-life-remaining
// for an actor, selected at configuration time (design note, SPEC_FULL.md
// §9): exponential, Gompertz, or an empirical inverse-CDF table. Modeled
// as a small interface with one sampling method, the way the teacher
// repo's FitnessModel and TransmissionModel dispatch on a configured kind.
type LifespanModel interface {
	// ModelName returns the configured name of this model, for diagnostics.
	ModelName() string
	// YearsRemaining draws the number of simulated years this actor has
	// left to live, given sex and current age.
	YearsRemaining(sex Sex, age float64, src *rng.Source) float64
}

// ExponentialLifespan draws remaining years from a constant-hazard
// exponential distribution, optionally split by sex.
type ExponentialLifespan struct {
	RateMale, RateFemale float64
}

func (m *ExponentialLifespan) ModelName() string { return "exponential" }

func (m *ExponentialLifespan) YearsRemaining(sex Sex, age float64, src *rng.Source) float64 {
	rate := m.RateMale
	if sex == Female {
		rate = m.RateFemale
	}
	return src.Expon(rate)
}

// GompertzLifespan draws remaining years from a Gompertz hazard,
// h(age) = a*exp(b*age), via inverse-transform sampling.
type GompertzLifespan struct {
	A, B float64
}

func (m *GompertzLifespan) ModelName() string { return "gompertz" }

func (m *GompertzLifespan) YearsRemaining(sex Sex, age float64, src *rng.Source) float64 {
	u := src.Rand()
	for u == 0 {
		u = src.Rand()
	}
	// Survival S(t) = exp(-(a/b) * exp(b*age) * (exp(b*t) - 1)); invert for
	// t given S(t) = u.
	hazardAtAge := (m.A / m.B) * math.Exp(m.B*age)
	t := math.Log(1-math.Log(u)/hazardAtAge) / m.B
	if t < 0 {
		return 0
	}
	return t
}

// EmpiricalLifespan draws remaining years from a tabulated empirical
// inverse-CDF, keyed by sex, conditioned at the actor's current age (the
// rng.Source.InverseCDF floor parameter).
type EmpiricalLifespan struct {
	ValuesMale, ProbsMale     []float64
	ValuesFemale, ProbsFemale []float64
}

func (m *EmpiricalLifespan) ModelName() string { return "empirical" }

func (m *EmpiricalLifespan) YearsRemaining(sex Sex, age float64, src *rng.Source) float64 {
	if sex == Female {
		return src.InverseCDF(m.ValuesFemale, m.ProbsFemale, age)
	}
	return src.InverseCDF(m.ValuesMale, m.ProbsMale, age)
}

// EmigrationModel determines an actor's time-to-emigration. Per
// SPEC_FULL.md §9, only the exponential branch is wired; the empirical
// branch is an explicit unimplemented-at-config-time error rather than a
// silent zero, since the source's intent for that branch is undocumented.
type EmigrationModel interface {
	ModelName() string
	TimeToEmigration(sex Sex, cohort Cohort, src *rng.Source) float64
}

// ExponentialEmigration draws from a constant per-cohort emigration hazard.
type ExponentialEmigration struct {
	RateBornInside, RateBornOutside float64
}

func (m *ExponentialEmigration) ModelName() string { return "exponential" }

func (m *ExponentialEmigration) TimeToEmigration(sex Sex, cohort Cohort, src *rng.Source) float64 {
	rate := m.RateBornInside
	if cohort == BornOutside {
		rate = m.RateBornOutside
	}
	return src.Expon(rate)
}
