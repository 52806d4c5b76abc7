package centinel

import (
	"bufio"
	"fmt"
	"os"
)

// Separator selects the field delimiter a Writer emits.
type Separator int

const (
	// Space separates fields with a single space.
	Space Separator = iota
	// Tab separates fields with a tab character.
	Tab
	// Comma separates fields with a comma (CSV).
	Comma
	// Pipe emits the self-describing Centinel format.
	Pipe
)

func (s Separator) delim() string {
	switch s {
	case Tab:
		return "\t"
	case Comma:
		return ","
	default:
		return " "
	}
}

// Write serializes an Array to path using the given separator.
//
// Write does not reconstruct the broadcast-index encoding Read accepts on
// input (that compact form is reserved for curated input datasets, per the
// package's design). For Pipe, it still produces a self-describing,
// Read-compatible file: every leading dimension becomes an index column and
// the last dimension is spread across one data column per coordinate,
// mirroring the "wide" layout most Centinel input files already use. For
// the other separators it emits a plain flat table, one full coordinate
// tuple plus value per row, not meant to be read back by this package.
func Write(path string, a *Array, sep Separator) error {
	if len(a.Shape) == 0 {
		return fmt.Errorf("centinel: cannot write a zero-dimensional array")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	if sep == Pipe {
		return writePipe(w, a)
	}
	return writeFlat(w, a, sep)
}

func writePipe(w *bufio.Writer, a *Array) error {
	spread := a.Shape[len(a.Shape)-1]
	leading := a.Shape[:len(a.Shape)-1]

	fmt.Fprint(w, "|")
	for _, d := range leading {
		fmt.Fprintf(w, "%c|", d.Label)
	}
	for v := 0; v < spread.Size; v++ {
		fmt.Fprintf(w, "%c%d|", spread.Label, v)
	}
	fmt.Fprint(w, "\n")

	idx := make([]int, len(leading))
	return walkLeading(w, a, leading, spread, idx, 0)
}

func walkLeading(w *bufio.Writer, a *Array, leading []Dim, spread Dim, idx []int, dim int) error {
	if dim == len(leading) {
		fmt.Fprint(w, "|")
		for _, x := range idx {
			fmt.Fprintf(w, "%d|", x)
		}
		coord := make(map[byte]int, len(leading)+1)
		for i, d := range leading {
			coord[d.Label] = idx[i]
		}
		for v := 0; v < spread.Size; v++ {
			coord[spread.Label] = v
			val, err := a.At(coord)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%g|", val)
		}
		fmt.Fprint(w, "\n")
		return nil
	}
	for i := 0; i < leading[dim].Size; i++ {
		idx[dim] = i
		if err := walkLeading(w, a, leading, spread, idx, dim+1); err != nil {
			return err
		}
	}
	return nil
}

func writeFlat(w *bufio.Writer, a *Array, sep Separator) error {
	delim := sep.delim()
	for i, d := range a.Shape {
		if i > 0 {
			fmt.Fprint(w, delim)
		}
		fmt.Fprintf(w, "%c", d.Label)
	}
	fmt.Fprint(w, delim, "value\n")

	idx := make([]int, len(a.Shape))
	return walkFlat(w, a, idx, 0, delim)
}

func walkFlat(w *bufio.Writer, a *Array, idx []int, dim int, delim string) error {
	if dim == len(a.Shape) {
		m := make(map[byte]int, len(a.Shape))
		for i, d := range a.Shape {
			m[d.Label] = idx[i]
		}
		v, err := a.At(m)
		if err != nil {
			return err
		}
		for i, x := range idx {
			if i > 0 {
				fmt.Fprint(w, delim)
			}
			fmt.Fprintf(w, "%d", x)
		}
		fmt.Fprint(w, delim)
		fmt.Fprintf(w, "%g\n", v)
		return nil
	}
	for i := 0; i < a.Shape[dim].Size; i++ {
		idx[dim] = i
		if err := walkFlat(w, a, idx, dim+1, delim); err != nil {
			return err
		}
	}
	return nil
}
