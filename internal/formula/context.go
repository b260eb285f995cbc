// Package formula is the evaluator core: Context intake, variable
// resolution, and the tree-walking Evaluator (spec.md §3, §4.3, §4.4, §5).
package formula

import (
	"sort"

	"bomgen/internal/ferrors"
	"bomgen/internal/parser"
	"bomgen/internal/value"
)

// VariableType is the declared (advisory) type of a Variable, per
// spec.md's GLOSSARY. Evaluation follows the formula's actual value —
// this is never consulted by the evaluator itself, only carried through
// for a caller that wants to enforce type agreement externally.
type VariableType string

const (
	VariableBoolean VariableType = "boolean"
	VariableNumber  VariableType = "number"
	VariableText    VariableType = "text"
)

// Variable is a named, typed formula (or direct value), addressed as
// VAR.name. Exactly one of Formula/Value is set.
type Variable struct {
	Name         string
	DeclaredType VariableType
	Formula      string // empty when Value is used instead
	HasFormula   bool
	Value        value.Value // used when HasFormula is false
}

// LookupRow is one row of a LookupTable: a numeric key and a Text-keyed
// column map.
type LookupRow struct {
	Key    float64
	Values map[string]value.Value
}

// LookupTable is an ordered, numeric-keyed lookup table referenced by
// XLOOKUP (spec.md GLOSSARY).
type LookupTable struct {
	Name string
	Rows []LookupRow
}

// RawContext is what a caller supplies before Context normalizes it:
// lookup-table rows may arrive in any order and variables in any order.
// NewContext applies the intake rules of spec.md §6.
type RawContext struct {
	Inputs       map[string]value.Value
	Config       map[string]value.Value
	Variables    []Variable
	Rows         map[string]map[string]value.Value
	LookupTables map[string]LookupTable
}

// Context is the evaluator's normalized view of a RawContext: lookup
// table rows sorted ascending by key, variables indexed by name.
type Context struct {
	Inputs       map[string]value.Value
	Config       map[string]value.Value
	Rows         map[string]map[string]value.Value
	LookupTables map[string]LookupTable
	variablesByName map[string]Variable
}

// NewContext normalizes raw into the evaluator's internal view: lookup
// rows are sorted ascending by key (spec.md §6), variables are indexed by
// name (duplicate names are the caller's responsibility to avoid — the
// core assumes the uniqueness invariant of spec.md §3 holds).
func NewContext(raw RawContext) *Context {
	c := &Context{
		Inputs:          raw.Inputs,
		Config:          raw.Config,
		Rows:            raw.Rows,
		LookupTables:    make(map[string]LookupTable, len(raw.LookupTables)),
		variablesByName: make(map[string]Variable, len(raw.Variables)),
	}
	if c.Inputs == nil {
		c.Inputs = map[string]value.Value{}
	}
	if c.Config == nil {
		c.Config = map[string]value.Value{}
	}
	if c.Rows == nil {
		c.Rows = map[string]map[string]value.Value{}
	}
	for name, tbl := range raw.LookupTables {
		sorted := make([]LookupRow, len(tbl.Rows))
		copy(sorted, tbl.Rows)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
		c.LookupTables[name] = LookupTable{Name: tbl.Name, Rows: sorted}
	}
	for _, v := range raw.Variables {
		c.variablesByName[v.Name] = v
	}
	return c
}

// Meta is spec.md's EvaluationMeta: non-semantic locator fields attached
// to any error raised while evaluating.
type Meta = ferrors.Meta

// resolver owns the per-top-level-evaluate memoization cache and active
// (in-progress) set used for variable cycle detection (spec.md §4.3,
// §5 — this state does not survive across Evaluate calls).
type resolver struct {
	ctx    *Context
	cache  map[string]value.Value
	active map[string]bool
}

func newResolver(ctx *Context) *resolver {
	return &resolver{
		ctx:    ctx,
		cache:  make(map[string]value.Value),
		active: make(map[string]bool),
	}
}

// resolveVariable implements the algorithm in spec.md §4.3:
//  1. cache hit -> return
//  2. in active set -> cycle error
//  3. direct value -> use it
//  4. otherwise push onto the active set, evaluate the formula with
//     variable_name set on meta, pop, cache, return.
func (r *resolver) resolveVariable(name string, meta Meta) (value.Value, error) {
	if v, ok := r.cache[name]; ok {
		return v, nil
	}
	if r.active[name] {
		return nil, ferrors.NewWithoutPosition("Circular variable reference: " + name).Enrich("", Meta{
			BuildFamilyID: meta.BuildFamilyID,
			RowID:         meta.RowID,
			FieldName:     meta.FieldName,
			VariableName:  name,
		})
	}
	v, ok := r.ctx.variablesByName[name]
	if !ok {
		return nil, ferrors.NewWithoutPosition("Unknown variable '"+name+"'").Enrich("", Meta{
			BuildFamilyID: meta.BuildFamilyID,
			RowID:         meta.RowID,
			FieldName:     meta.FieldName,
			VariableName:  name,
		})
	}

	var result value.Value
	if !v.HasFormula {
		result = v.Value
	} else {
		r.active[name] = true
		innerMeta := Meta{
			BuildFamilyID: meta.BuildFamilyID,
			RowID:         meta.RowID,
			FieldName:     meta.FieldName,
			VariableName:  name,
		}
		ev := &Evaluator{ctx: r.ctx, resolver: r, meta: innerMeta}
		node, err := parser.Parse(v.Formula)
		if err != nil {
			delete(r.active, name)
			if fe, ok := ferrors.As(err); ok {
				fe.Enrich(v.Formula, innerMeta)
			}
			return nil, err
		}
		result, err = ev.Eval(node)
		delete(r.active, name)
		if err != nil {
			if fe, ok := ferrors.As(err); ok {
				fe.Enrich(v.Formula, innerMeta)
			}
			return nil, err
		}
	}
	r.cache[name] = result
	return result, nil
}
