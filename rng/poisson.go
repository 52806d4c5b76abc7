package rng

import rv "github.com/kentwait/randomvariate"

// Poisson draws a Poisson-distributed integer with the given mean. It
// delegates to randomvariate, the same third-party helper the original
// transmission-size sampler depends on, so its draws do not come from this
// Source's LCG stream and are not reproduced by a saved seed. Nothing in
// this module calls it.
func (s *Source) Poisson(mean float64) int {
	return rv.Poisson(mean)
}
