package centinel

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// ReadError reports a fatal parsing failure at a specific source line.
type ReadError struct {
	Path string
	Line int
	Msg  string
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
}

// column describes one header column: either an index column selecting
// rows along a dimension, or a data column holding values for that
// dimension frozen at a single coordinate.
type column struct {
	label  byte
	isData bool
	frozen int // only meaningful when isData
}

var headerColRe = regexp.MustCompile(`^([a-z])(\d+)?$`)

// Read loads an Array of the given shape from a Centinel-format file at
// path, applying rescale to every input value.
func Read(path string, shape []Dim, rescale Rescale) (*Array, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	arr := NewArray(shape)
	shapeOf := make(map[byte]int, len(shape))
	for _, d := range shape {
		shapeOf[d.Label] = d.Size
	}

	scanner := bufio.NewScanner(f)
	lineNum := 0
	var cols []column
	haveHeader := false

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if !strings.HasPrefix(line, "|") {
			continue // comment line
		}
		fields := splitPipeLine(line)
		if !haveHeader {
			cols, err = parseHeader(fields, shapeOf)
			if err != nil {
				return nil, &ReadError{path, lineNum, err.Error()}
			}
			haveHeader = true
			continue
		}
		if len(fields) != len(cols) {
			return nil, &ReadError{path, lineNum,
				fmt.Sprintf("expected %d columns, got %d", len(cols), len(fields))}
		}
		if err := readDataLine(arr, cols, fields, rescale); err != nil {
			return nil, &ReadError{path, lineNum, err.Error()}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !haveHeader {
		return nil, &ReadError{path, lineNum, "premature EOF: no header line found"}
	}
	return arr, nil
}

// splitPipeLine splits a '|'-delimited line into its interior fields,
// discarding the leading and any trailing empty field produced by a
// terminal '|'.
func splitPipeLine(line string) []string {
	parts := strings.Split(line, "|")
	// parts[0] is empty (line starts with '|'); drop it and any trailing
	// empty field from a terminating '|'.
	parts = parts[1:]
	if len(parts) > 0 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseHeader(fields []string, shapeOf map[byte]int) ([]column, error) {
	var cols []column
	seen := make(map[byte]bool)
	for _, f := range fields {
		m := headerColRe.FindStringSubmatch(f)
		if m == nil {
			return nil, fmt.Errorf("invalid column header %q", f)
		}
		label := m[1][0]
		if _, ok := shapeOf[label]; !ok {
			return nil, fmt.Errorf("column header %q names unknown dimension %q", f, label)
		}
		c := column{label: label}
		if m[2] != "" {
			n, err := strconv.Atoi(m[2])
			if err != nil {
				return nil, fmt.Errorf("invalid frozen index in column header %q", f)
			}
			if n < 0 || n >= shapeOf[label] {
				return nil, fmt.Errorf("frozen index %d out of range for dimension %q (size %d)", n, label, shapeOf[label])
			}
			c.isData = true
			c.frozen = n
		}
		cols = append(cols, c)
		seen[label] = true
	}
	// Every dimension must be covered by either an index column, or a data
	// column (possibly several, one per frozen value actually present).
	for label := range shapeOf {
		if !seen[label] {
			return nil, fmt.Errorf("no column covers dimension %q", label)
		}
	}
	return cols, nil
}

func readDataLine(arr *Array, cols []column, fields []string, rescale Rescale) error {
	// Collect the broadcast index set for each index column.
	indexSets := make(map[byte][]int)
	var dataCols []int
	for i, c := range cols {
		if c.isData {
			dataCols = append(dataCols, i)
			continue
		}
		set, err := parseIndexList(fields[i])
		if err != nil {
			return fmt.Errorf("column %q: %w", string(c.label), err)
		}
		indexSets[c.label] = set
	}

	// Cartesian product over all index-column broadcast sets.
	var combos []map[byte]int
	combos = append(combos, map[byte]int{})
	for _, c := range cols {
		if c.isData {
			continue
		}
		var next []map[byte]int
		for _, combo := range combos {
			for _, v := range indexSets[c.label] {
				nc := make(map[byte]int, len(combo)+1)
				for k, vv := range combo {
					nc[k] = vv
				}
				nc[c.label] = v
				next = append(next, nc)
			}
		}
		combos = next
	}

	for _, dcIdx := range dataCols {
		dc := cols[dcIdx]
		raw, err := strconv.ParseFloat(fields[dcIdx], 64)
		if err != nil {
			return fmt.Errorf("invalid numeric value %q in data column %q", fields[dcIdx], string(dc.label))
		}
		v := rescale.Apply(raw)
		for _, combo := range combos {
			full := make(map[byte]int, len(combo)+1)
			for k, vv := range combo {
				full[k] = vv
			}
			full[dc.label] = dc.frozen
			if err := arr.Set(full, v); err != nil {
				return err
			}
		}
	}
	return nil
}

var rangeTok = regexp.MustCompile(`^(\d+)~(\d+)$`)

// parseIndexList parses an index cell that may be a single integer or a
// comma-separated list of integers and inclusive ranges ("lo~hi"), e.g.
// "0,3~5,2" expands to [0,3,4,5,2].
func parseIndexList(s string) ([]int, error) {
	var out []int
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if m := rangeTok.FindStringSubmatch(tok); m != nil {
			lo, _ := strconv.Atoi(m[1])
			hi, _ := strconv.Atoi(m[2])
			if lo > hi {
				return nil, fmt.Errorf("invalid range %q: start exceeds end", tok)
			}
			for v := lo; v <= hi; v++ {
				out = append(out, v)
			}
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("invalid index token %q", tok)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty index cell")
	}
	return out, nil
}
