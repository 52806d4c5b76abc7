package rng

import "testing"

func TestSeedRoundTrip(t *testing.T) {
	// An uninterrupted run...
	full := new(Source)
	full.StartWithSeed(12345)
	var want []float64
	for i := 0; i < 10; i++ {
		want = append(want, full.Rand())
	}

	// ...must match a run split at the 5th draw via a saved/restored seed.
	split := new(Source)
	split.StartWithSeed(12345)
	var got []float64
	for i := 0; i < 5; i++ {
		got = append(got, split.Rand())
	}
	seed := split.EndingSeed()
	resumed := new(Source)
	resumed.StartWithSeed(seed)
	for i := 0; i < 5; i++ {
		got = append(got, resumed.Rand())
	}

	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("round trip mismatch at step %d: want %v got %v", i, want[i], got[i])
		}
	}
}

func TestStartWithSeedDeterministic(t *testing.T) {
	a := new(Source)
	a.StartWithSeed(42)
	b := new(Source)
	b.StartWithSeed(42)
	for i := 0; i < 100; i++ {
		av, bv := a.Rand(), b.Rand()
		if av != bv {
			t.Fatalf("sequences diverged at %d: %v != %v", i, av, bv)
		}
	}
}

func TestRandRange(t *testing.T) {
	s := new(Source)
	s.StartWithSeed(1)
	for i := 0; i < 10000; i++ {
		v := s.Rand()
		if v < 0 || v >= 1 {
			t.Fatalf("Rand() out of [0,1): %v", v)
		}
	}
}

func TestExponPositiveAndBounded(t *testing.T) {
	s := new(Source)
	s.StartWithSeed(7)
	lambda := 2.0
	for i := 0; i < 10000; i++ {
		v := s.Expon(lambda)
		if v <= 0 {
			t.Fatalf("Expon produced non-positive value %v", v)
		}
		if v > 10/lambda {
			t.Fatalf("Expon exceeded tail cutoff: %v > %v", v, 10/lambda)
		}
	}
}

func TestInverseCDFTwoPointTableIsUniform(t *testing.T) {
	// A degenerate two-point table V=[0, 50], P=[0,1] with floor 0 is
	// interpolated linearly between its two points.
	V := []float64{0, 50}
	P := []float64{0, 1}
	s := new(Source)
	s.StartWithSeed(99)
	var sum float64
	const n = 20000
	for i := 0; i < n; i++ {
		v := s.InverseCDF(V, P, 0)
		sum += v
	}
	mean := sum / n
	// Uniform(0,50) has mean 25, not exponential; this degenerate table is
	// actually uniform over [0,50]. Check it lands near that instead.
	if mean < 20 || mean > 30 {
		t.Fatalf("unexpected mean for uniform-table draw: %v", mean)
	}
}

func TestInverseCDFRejectsBadTable(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for malformed cumulative table")
		}
	}()
	s := new(Source)
	s.StartWithSeed(1)
	s.InverseCDF([]float64{0, 1}, []float64{0.1, 1}, 0)
}

func TestInverseCDFFloorShiftsOrigin(t *testing.T) {
	V := []float64{0, 10}
	P := []float64{0, 1}
	s := new(Source)
	s.StartWithSeed(3)
	for i := 0; i < 1000; i++ {
		v := s.InverseCDF(V, P, 5)
		if v < 0 || v > 5 {
			t.Fatalf("floor-shifted draw out of range: %v", v)
		}
	}
}

func TestGaussFinite(t *testing.T) {
	s := new(Source)
	s.StartWithSeed(5)
	for i := 0; i < 1000; i++ {
		v := s.Gauss(0, 1)
		if v != v { // NaN check
			t.Fatal("Gauss produced NaN")
		}
	}
}
