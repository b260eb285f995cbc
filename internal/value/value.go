// Package value defines Value, the single dynamically tagged result
// category produced by evaluation (spec.md §3, §9).
//
// Value is a sealed interface, following the teacher repo's
// internal/interp.Value pattern (a tagged sum via a marker interface with
// one concrete struct per variant) rather than a bare interface{} — so a
// Boolean can never be silently treated as a Number, which spec.md §4.3
// depends on.
package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Value is any of Number, Boolean, Text, List, Record, or Null.
type Value interface {
	// Kind names the variant, used by internal/wire's value_type
	// classification (spec.md §6).
	Kind() string
	// String renders the value the way comparisons (spec.md §4.3,
	// "stringified forms") and CLI output do.
	String() string
	value()
}

// Number is an IEEE-754 64-bit float.
type Number struct{ V float64 }

func (Number) value()        {}
func (Number) Kind() string  { return "number" }
func (n Number) String() string {
	return strconv.FormatFloat(n.V, 'g', -1, 64)
}

// Boolean is a true/false value, never interchangeable with Number.
type Boolean struct{ V bool }

func (Boolean) value()       {}
func (Boolean) Kind() string { return "boolean" }
func (b Boolean) String() string {
	if b.V {
		return "TRUE"
	}
	return "FALSE"
}

// Text is a string value.
type Text struct{ V string }

func (Text) value()         {}
func (Text) Kind() string   { return "text" }
func (t Text) String() string { return t.V }

// List is an ordered sequence of Values.
type List struct{ V []Value }

func (List) value()        {}
func (List) Kind() string  { return "array" }
func (l List) String() string {
	parts := make([]string, len(l.V))
	for i, v := range l.V {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Record is a Text-keyed mapping to Values, returned by XLOOKUP's
// whole-row and multi-column forms (spec.md §4.4).
type Record struct{ V map[string]Value }

func (Record) value()       {}
func (Record) Kind() string { return "object" }
func (r Record) String() string {
	keys := make([]string, 0, len(r.V))
	for k := range r.V {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, r.V[k].String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Null is the absence of a value. The core never produces Null implicitly
// (spec.md §4.3: unknown references are errors, not Null) — Null exists
// only so a caller-supplied input/config/variable value can legitimately
// be "no value" without the engine inventing one.
type Null struct{}

func (Null) value()          {}
func (Null) Kind() string    { return "null" }
func (Null) String() string  { return "" }

// NewRecord builds a Record from a plain map, for use by callers building
// Context rows/config without going through the wire layer.
func NewRecord(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Record{V: m}
}
