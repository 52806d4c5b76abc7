package centinel

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// Rescale is a linear transform m*x+b optionally applied to every value
// read from a Centinel file, with optional truncation to integer.
type Rescale struct {
	Mult     float64
	Add      float64
	Truncate bool
}

// Apply performs m*x+b, truncating toward zero first if Truncate is set
// (truncation happens on the input, matching the "n" variable-name form
// described by the format: "r=n*m+b" truncates x before scaling).
func (r Rescale) Apply(x float64) float64 {
	if r.Truncate {
		x = math.Trunc(x)
	}
	return r.Mult*x + r.Add
}

// IdentityRescale performs no transform.
var IdentityRescale = Rescale{Mult: 1, Add: 0}

var rescaleExpr = regexp.MustCompile(
	`^r=([xn])(?:([*/])(-?\d*\.?\d+))?([+-]\d*\.?\d+)?$`,
)

// ParseRescale parses a rescale directive of the form "r=x*m+b", with any
// of the "*m", "/m", and "+b"/"-b" clauses optional, and "n" in place of
// "x" additionally requesting truncation to integer before scaling.
func ParseRescale(expr string) (Rescale, error) {
	m := rescaleExpr.FindStringSubmatch(expr)
	if m == nil {
		return Rescale{}, fmt.Errorf("centinel: malformed rescale directive %q", expr)
	}
	r := Rescale{Mult: 1, Add: 0, Truncate: m[1] == "n"}

	if m[2] != "" {
		factor, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			return Rescale{}, fmt.Errorf("centinel: malformed rescale factor in %q: %w", expr, err)
		}
		if m[2] == "/" {
			if factor == 0 {
				return Rescale{}, fmt.Errorf("centinel: rescale divisor is zero in %q", expr)
			}
			r.Mult = 1 / factor
		} else {
			r.Mult = factor
		}
	}
	if m[4] != "" {
		add, err := strconv.ParseFloat(m[4], 64)
		if err != nil {
			return Rescale{}, fmt.Errorf("centinel: malformed rescale offset in %q: %w", expr, err)
		}
		r.Add = add
	}
	return r, nil
}
