package tbibm

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParamSet holds the registered NAME=VALUE simulation parameters a
// bin/tbsim invocation may override on the command line (spec.md §6).
// It does not touch process flags like -logger/-threads, which bin/tbsim
// continues to parse with the standard flag package.
type ParamSet struct {
	names  map[string]bool
	values map[string]float64
	skips  []Diagnostic
}

// NewParamSet registers the given parameter names with their defaults.
func NewParamSet(defaults map[string]float64) *ParamSet {
	p := &ParamSet{
		names:  make(map[string]bool, len(defaults)),
		values: make(map[string]float64, len(defaults)),
	}
	for name, v := range defaults {
		p.names[name] = true
		p.values[name] = v
	}
	return p
}

// Value returns the current value of a registered parameter.
func (p *ParamSet) Value(name string) float64 {
	return p.values[name]
}

// Skipped returns the diagnostics accumulated by the most recent Bind call.
func (p *ParamSet) Skipped() []Diagnostic {
	return p.skips
}

// Bind parses a list of NAME=VALUE (or chained NAME1=NAME2=...=VALUE)
// tokens. Unknown names and malformed decimal values are recorded as
// skip diagnostics rather than aborting the whole token: an unrecognized
// name in a chain is skipped with its own diagnostic, and every recognized
// name in the same chain, before or after it, is still set.
//
// A registered "randseq" parameter follows spec.md §6's seeding rule:
// a non-negative value seeds the generator directly; a negative value
// derives a time-based seed and offsets it by the magnitude, so that two
// near-simultaneous launches still diverge.
func (p *ParamSet) Bind(args []string) (skipped []string) {
	p.skips = nil
	for _, tok := range args {
		parts := strings.Split(tok, "=")
		if len(parts) < 2 {
			skipped = append(skipped, tok)
			p.skips = append(p.skips, NewDiagnostic("P", 100, "malformed parameter token", "token", tok))
			continue
		}
		valueStr := parts[len(parts)-1]
		value, err := strconv.ParseFloat(valueStr, 64)
		if err != nil {
			skipped = append(skipped, tok)
			text := fmt.Sprintf(MalformedValueError, valueStr, strings.Join(parts[:len(parts)-1], "="))
			p.skips = append(p.skips, NewDiagnostic("P", 101, text))
			continue
		}
		names := parts[:len(parts)-1]
		for _, name := range names {
			if !p.names[name] {
				skipped = append(skipped, tok)
				p.skips = append(p.skips, NewDiagnostic("P", 102, fmt.Sprintf(UnrecognizedParameterError, name)))
				continue
			}
			p.values[name] = value
		}
	}
	return skipped
}

// ResolveSeed applies the randseq convention to the current "randseq"
// parameter value, if one is registered; ok is false when randseq was
// never registered.
func (p *ParamSet) ResolveSeed() (seed uint32, ok bool) {
	v, has := p.values["randseq"]
	if !has {
		return 0, false
	}
	if v >= 0 {
		return uint32(v), true
	}
	base := uint32(time.Now().UnixNano())
	return base + uint32(-v), true
}
