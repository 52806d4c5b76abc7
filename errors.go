package tbibm

import "errors"

// Message templates for diagnostics, kept as format-string constants in
// the style of the teacher's parameter-error messages.
const (
	UnrecognizedParameterError  = "parameter %q is not registered"
	MalformedValueError         = "value %q for parameter %q is not a valid decimal"
	InvalidFloatParameterError  = "invalid %s %f, %s"
	InvalidIntParameterError    = "invalid %s %d, %s"
	InvalidStringParameterError = "invalid %s %s, %s"
)

// ErrUnimplementedDistribution is returned by Config.Validate when a
// config selects the empirical emigration-distribution branch, which the
// original source stubs without documented intent (SPEC_FULL.md §9).
var ErrUnimplementedDistribution = errors.New("tbibm: the empirical emigration distribution is not implemented; use \"exponential\"")

// ErrHorizonBeforeStart is returned by Config.Validate when the simulation
// horizon does not fall after the start time.
var ErrHorizonBeforeStart = errors.New("tbibm: horizon must be later than start time")
