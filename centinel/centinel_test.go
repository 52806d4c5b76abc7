package centinel

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadSimpleTwoDim(t *testing.T) {
	content := `# mortality rate by age and sex
|a|b0|b1|
|0|1.5|2.5|
|1|3.5|4.5|
`
	path := writeTempFile(t, "in.txt", content)
	shape := []Dim{{'a', 2}, {'b', 2}}
	arr, err := Read(path, shape, IdentityRescale)
	if err != nil {
		t.Fatal(err)
	}
	check := func(a, b int, want float64) {
		t.Helper()
		v, err := arr.At(map[byte]int{'a': a, 'b': b})
		if err != nil {
			t.Fatal(err)
		}
		if v != want {
			t.Errorf("a=%d b=%d: got %v, want %v", a, b, v, want)
		}
	}
	check(0, 0, 1.5)
	check(0, 1, 2.5)
	check(1, 0, 3.5)
	check(1, 1, 4.5)
}

func TestReadBroadcastIndexList(t *testing.T) {
	content := `|a|b0|
|0,3~5,2|9|
`
	path := writeTempFile(t, "in.txt", content)
	shape := []Dim{{'a', 6}, {'b', 1}}
	arr, err := Read(path, shape, IdentityRescale)
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range []int{0, 2, 3, 4, 5} {
		v, err := arr.At(map[byte]int{'a': a, 'b': 0})
		if err != nil {
			t.Fatal(err)
		}
		if v != 9 {
			t.Errorf("a=%d: got %v, want 9", a, v)
		}
	}
	v, _ := arr.At(map[byte]int{'a': 1, 'b': 0})
	if v != 0 {
		t.Errorf("a=1 (not in broadcast list) should be untouched zero, got %v", v)
	}
}

func TestReadAppliesRescale(t *testing.T) {
	content := `|a|b0|
|0|10|
|1|20|
`
	path := writeTempFile(t, "in.txt", content)
	r, err := ParseRescale("r=x*2+1")
	if err != nil {
		t.Fatal(err)
	}
	shape := []Dim{{'a', 2}, {'b', 1}}
	arr, err := Read(path, shape, r)
	if err != nil {
		t.Fatal(err)
	}
	v, _ := arr.At(map[byte]int{'a': 0, 'b': 0})
	if v != 21 {
		t.Errorf("rescaled value = %v, want 21", v)
	}
}

func TestReadUnknownDimensionFails(t *testing.T) {
	content := `|z|b0|
|0|1|
`
	path := writeTempFile(t, "in.txt", content)
	shape := []Dim{{'a', 2}, {'b', 1}}
	_, err := Read(path, shape, IdentityRescale)
	if err == nil {
		t.Fatal("expected error for unknown dimension in header")
	}
}

func TestReadMissingDimensionCoverageFails(t *testing.T) {
	content := `|a|
|0|
`
	path := writeTempFile(t, "in.txt", content)
	shape := []Dim{{'a', 2}, {'b', 2}}
	_, err := Read(path, shape, IdentityRescale)
	if err == nil {
		t.Fatal("expected error: dimension b not covered by any column")
	}
}

func TestParseRescaleForms(t *testing.T) {
	cases := map[string]Rescale{
		"r=x*2+1":  {Mult: 2, Add: 1},
		"r=x/2":    {Mult: 0.5, Add: 0},
		"r=x-5":    {Mult: 1, Add: -5},
		"r=n*3":    {Mult: 3, Add: 0, Truncate: true},
	}
	for expr, want := range cases {
		got, err := ParseRescale(expr)
		if err != nil {
			t.Fatalf("%s: %v", expr, err)
		}
		if got != want {
			t.Errorf("%s: got %+v, want %+v", expr, got, want)
		}
	}
}

func TestWriteThenReadRoundTripsPipeFormat(t *testing.T) {
	shape := []Dim{{'a', 2}, {'b', 2}}
	arr := NewArray(shape)
	arr.Set(map[byte]int{'a': 0, 'b': 0}, 1)
	arr.Set(map[byte]int{'a': 0, 'b': 1}, 2)
	arr.Set(map[byte]int{'a': 1, 'b': 0}, 3)
	arr.Set(map[byte]int{'a': 1, 'b': 1}, 4)

	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	if err := Write(path, arr, Pipe); err != nil {
		t.Fatal(err)
	}
	got, err := Read(path, shape, IdentityRescale)
	if err != nil {
		t.Fatal(err)
	}
	for _, idx := range [][2]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}} {
		want, _ := arr.At(map[byte]int{'a': idx[0], 'b': idx[1]})
		gotV, _ := got.At(map[byte]int{'a': idx[0], 'b': idx[1]})
		if want != gotV {
			t.Errorf("idx=%v: want %v got %v", idx, want, gotV)
		}
	}
}
