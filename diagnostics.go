package tbibm

import (
	"fmt"
	"sort"
	"strings"
)

// Diagnostic is a numbered, severity-banded message per spec.md §6:
// severities below 500 are non-fatal, 500 and above are fatal.
type Diagnostic struct {
	Letter string
	Code   int
	Text   string
	Params map[string]string
}

// Fatal reports whether this diagnostic's severity band is fatal.
func (d Diagnostic) Fatal() bool {
	return d.Code >= 500
}

// String renders "<letter><number>  <text> (<param>=<value> …)".
func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s%d  %s", d.Letter, d.Code, d.Text)
	if len(d.Params) > 0 {
		keys := make([]string, 0, len(d.Params))
		for k := range d.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%s=%s", k, d.Params[k])
		}
		b.WriteString(")")
	}
	return b.String()
}

// NewDiagnostic builds a Diagnostic from alternating key, value pairs.
func NewDiagnostic(letter string, code int, text string, kv ...string) Diagnostic {
	d := Diagnostic{Letter: letter, Code: code, Text: text}
	if len(kv) > 0 {
		d.Params = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			d.Params[kv[i]] = kv[i+1]
		}
	}
	return d
}
