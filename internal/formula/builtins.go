package formula

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"bomgen/internal/ast"
	"bomgen/internal/token"
	"bomgen/internal/value"
)

var foldUpper = cases.Upper(language.Und)

// evalFunctionCall dispatches a FunctionCall by case-insensitive name
// (spec.md §4.3.1). Any other name is an error.
func (e *Evaluator) evalFunctionCall(n *ast.FunctionCall) (value.Value, error) {
	switch foldUpper.String(n.Name) {
	case "IF":
		return e.evalIf(n)
	case "AND":
		return e.evalVariadicLogical(n, true)
	case "OR":
		return e.evalVariadicLogical(n, false)
	case "NOT":
		return e.evalNotFn(n)
	case "XLOOKUP":
		return e.evalXLookup(n)
	default:
		return nil, e.errAt(n.Pos(), "Unknown function '"+n.Name+"'")
	}
}

func (e *Evaluator) evalIf(n *ast.FunctionCall) (value.Value, error) {
	if len(n.Args) != 3 {
		return nil, e.errAt(n.Pos(), "IF requires 3 arguments")
	}
	condVal, err := e.Eval(n.Args[0])
	if err != nil {
		return nil, err
	}
	cond, err := e.requireBoolean(condVal, n.Pos())
	if err != nil {
		return nil, err
	}
	if cond {
		return e.Eval(n.Args[1])
	}
	return e.Eval(n.Args[2])
}

// evalVariadicLogical implements the AND(...)/OR(...) builtin functions:
// variadic, short-circuiting, each argument Boolean when evaluated
// (spec.md §4.3.1).
func (e *Evaluator) evalVariadicLogical(n *ast.FunctionCall, isAnd bool) (value.Value, error) {
	for _, arg := range n.Args {
		v, err := e.Eval(arg)
		if err != nil {
			return nil, err
		}
		b, err := e.requireBoolean(v, n.Pos())
		if err != nil {
			return nil, err
		}
		if isAnd && !b {
			return value.Boolean{V: false}, nil
		}
		if !isAnd && b {
			return value.Boolean{V: true}, nil
		}
	}
	return value.Boolean{V: isAnd}, nil
}

func (e *Evaluator) evalNotFn(n *ast.FunctionCall) (value.Value, error) {
	if len(n.Args) != 1 {
		return nil, e.errAt(n.Pos(), "NOT requires 1 argument")
	}
	v, err := e.Eval(n.Args[0])
	if err != nil {
		return nil, err
	}
	b, err := e.requireBoolean(v, n.Pos())
	if err != nil {
		return nil, err
	}
	return value.Boolean{V: !b}, nil
}

// evalXLookup implements spec.md §4.4.
func (e *Evaluator) evalXLookup(n *ast.FunctionCall) (value.Value, error) {
	if len(n.Args) != 4 {
		return nil, e.errAt(n.Pos(), "XLOOKUP requires 4 arguments")
	}

	valueArg, err := e.Eval(n.Args[0])
	if err != nil {
		return nil, err
	}
	num, err := e.requireNumber(valueArg, n.Pos())
	if err != nil {
		return nil, err
	}

	tableArg, err := e.evalIdentifierLike(n.Args[1])
	if err != nil {
		return nil, err
	}
	tableText, ok := tableArg.(value.Text)
	if !ok {
		return nil, e.errAt(n.Pos(), "XLOOKUP table name must be text")
	}
	table, ok := e.ctx.LookupTables[tableText.V]
	if !ok {
		return nil, e.errAt(n.Pos(), "Lookup table '"+tableText.V+"' not found")
	}

	fieldsArg, err := e.evalIdentifierLike(n.Args[2])
	if err != nil {
		return nil, err
	}

	modeArg, err := e.evalIdentifierLike(n.Args[3])
	if err != nil {
		return nil, err
	}
	mode := foldUpper.String(modeArg.String())
	if mode != "EXACT" && mode != "NEAREST" {
		return nil, e.errAt(n.Pos(), "XLOOKUP match mode must be EXACT or NEAREST")
	}

	if len(table.Rows) == 0 {
		return nil, e.errAt(n.Pos(), "Lookup table '"+tableText.V+"' has no rows")
	}

	var row LookupRow
	if mode == "EXACT" {
		found := false
		for _, r := range table.Rows {
			if r.Key == num {
				row = r
				found = true
				break
			}
		}
		if !found {
			return nil, e.errAt(n.Pos(), "XLOOKUP exact match not found")
		}
	} else {
		row = nearestRow(table.Rows, num)
	}

	return e.extractLookupReturn(row, fieldsArg, n.Pos())
}

// nearestRow picks the row minimizing |key - value|, ties resolving to
// the first such row in the table's stored (ascending) order (spec.md §8
// property 7).
func nearestRow(rows []LookupRow, target float64) LookupRow {
	best := rows[0]
	bestDist := absFloat(best.Key - target)
	for _, r := range rows[1:] {
		d := absFloat(r.Key - target)
		if d < bestDist {
			best = r
			bestDist = d
		}
	}
	return best
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func (e *Evaluator) extractLookupReturn(row LookupRow, fields value.Value, pos token.Position) (value.Value, error) {
	switch f := fields.(type) {
	case value.Text:
		if f.V == "*" || foldUpper.String(f.V) == "ALL" {
			return value.NewRecord(row.Values), nil
		}
		v, ok := row.Values[f.V]
		if !ok {
			return nil, e.errAt(pos, "XLOOKUP field '"+f.V+"' not found")
		}
		return v, nil
	case value.List:
		out := make(map[string]value.Value, len(f.V))
		for _, item := range f.V {
			text, ok := item.(value.Text)
			if !ok {
				return nil, e.errAt(pos, "XLOOKUP return fields must be text")
			}
			v, ok := row.Values[text.V]
			if !ok {
				return nil, e.errAt(pos, "XLOOKUP field '"+text.V+"' not found")
			}
			out[text.V] = v
		}
		return value.NewRecord(out), nil
	default:
		return nil, e.errAt(pos, "XLOOKUP return field must be text or list")
	}
}

// evalIdentifierLike is the special evaluation path for XLOOKUP arguments
// 2–4 (spec.md §4.4): an InputRef not bound in inputs evaluates to its own
// name as Text, a ListLiteral maps the same rule over its items, and
// everything else evaluates normally. This rule is deliberately confined
// to this one call site — it must never leak into ordinary expression
// evaluation (spec.md §9).
func (e *Evaluator) evalIdentifierLike(node ast.Node) (value.Value, error) {
	switch n := node.(type) {
	case *ast.InputRef:
		if v, ok := e.ctx.Inputs[n.Name]; ok {
			return v, nil
		}
		return value.Text{V: n.Name}, nil
	case *ast.ListLiteral:
		items := make([]value.Value, len(n.Items))
		for i, item := range n.Items {
			v, err := e.evalIdentifierLike(item)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return value.List{V: items}, nil
	default:
		return e.Eval(node)
	}
}
