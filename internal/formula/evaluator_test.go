package formula

import (
	"testing"

	"bomgen/internal/ferrors"
	"bomgen/internal/value"
)

func numInputs(pairs map[string]float64) map[string]value.Value {
	out := make(map[string]value.Value, len(pairs))
	for k, v := range pairs {
		out[k] = value.Number{V: v}
	}
	return out
}

func evalOK(t *testing.T, formula string, ctx *Context) value.Value {
	t.Helper()
	v, err := Evaluate(formula, ctx, Meta{})
	if err != nil {
		t.Fatalf("Evaluate(%q): unexpected error: %v", formula, err)
	}
	return v
}

func TestArithmeticPrecedenceScenario(t *testing.T) {
	ctx := NewContext(RawContext{Inputs: numInputs(map[string]float64{"LS_L": 10, "LS_H": 5})})
	v := evalOK(t, "LS_L + LS_H * 2", ctx)
	num, ok := v.(value.Number)
	if !ok || num.V != 20 {
		t.Fatalf("got %#v, want Number(20)", v)
	}
}

func TestIfScenario(t *testing.T) {
	ctx := NewContext(RawContext{Inputs: numInputs(map[string]float64{"LS_L": 10})})
	v := evalOK(t, "IF(LS_L > 5, 1, 0)", ctx)
	if num, ok := v.(value.Number); !ok || num.V != 1 {
		t.Fatalf("got %#v", v)
	}
}

func TestAndComparisonScenario(t *testing.T) {
	ctx := NewContext(RawContext{Inputs: numInputs(map[string]float64{"LS_L": 10, "LS_H": 5})})
	v := evalOK(t, "LS_L >= 10 AND LS_H < 6", ctx)
	if b, ok := v.(value.Boolean); !ok || !b.V {
		t.Fatalf("got %#v", v)
	}
}

func TestVariableChainScenario(t *testing.T) {
	ctx := NewContext(RawContext{
		Inputs: numInputs(map[string]float64{"LS_L": 12}),
		Variables: []Variable{
			{Name: "A", HasFormula: true, Formula: "LS_L * 2"},
			{Name: "B", HasFormula: true, Formula: "VAR.A + 1"},
		},
	})
	v := evalOK(t, "VAR.B", ctx)
	if num, ok := v.(value.Number); !ok || num.V != 25 {
		t.Fatalf("got %#v, want 25", v)
	}
}

func TestDivisionByZero(t *testing.T) {
	ctx := NewContext(RawContext{})
	_, err := Evaluate("1/0", ctx, Meta{})
	if err == nil {
		t.Fatal("expected error")
	}
	fe, ok := ferrors.As(err)
	if !ok || fe.Message != "Division by zero" {
		t.Fatalf("got %v", err)
	}
	if fe.Position == nil || *fe.Position != 1 {
		t.Fatalf("position = %v, want 1 (the '/')", fe.Position)
	}
}

func TestCircularVariableReference(t *testing.T) {
	ctx := NewContext(RawContext{
		Variables: []Variable{
			{Name: "A", HasFormula: true, Formula: "VAR.B"},
			{Name: "B", HasFormula: true, Formula: "VAR.A"},
		},
	})
	_, err := Evaluate("VAR.A", ctx, Meta{})
	if err == nil {
		t.Fatal("expected error")
	}
	fe, _ := ferrors.As(err)
	if fe.VariableName != "A" && fe.VariableName != "B" {
		t.Fatalf("expected VariableName to name a participant, got %q", fe.VariableName)
	}
}

func TestMemoizationEvaluatesFormulaOnce(t *testing.T) {
	ctx := NewContext(RawContext{
		Variables: []Variable{
			{Name: "Counted", HasFormula: true, Formula: "1 + 1"},
		},
	})
	v := evalOK(t, "VAR.Counted + VAR.Counted", ctx)
	if num, ok := v.(value.Number); !ok || num.V != 4 {
		t.Fatalf("got %#v", v)
	}

	// Observe memoization directly: after one resolution, replace the
	// variable's formula with one that raises. A second resolution through
	// the same resolver must return the cached value without running it.
	r := newResolver(ctx)
	first, err := r.resolveVariable("Counted", Meta{})
	if err != nil {
		t.Fatalf("first resolution: %v", err)
	}
	ctx.variablesByName["Counted"] = Variable{Name: "Counted", HasFormula: true, Formula: "1/0"}
	second, err := r.resolveVariable("Counted", Meta{})
	if err != nil {
		t.Fatalf("second resolution ran the formula again: %v", err)
	}
	if first.(value.Number).V != 2 || second.(value.Number).V != 2 {
		t.Fatalf("got %#v then %#v, want 2 both times", first, second)
	}
}

func TestShortCircuitAndNeverEvaluatesRight(t *testing.T) {
	ctx := NewContext(RawContext{
		Inputs: map[string]value.Value{"a": value.Boolean{V: false}},
		Variables: []Variable{
			{Name: "Boom", HasFormula: true, Formula: "1/0"},
		},
	})
	v := evalOK(t, "AND(a, VAR.Boom = 1)", ctx)
	if b, ok := v.(value.Boolean); !ok || b.V {
		t.Fatalf("got %#v, want false without evaluating VAR.Boom", v)
	}
}

func TestXLookupExactAndNearest(t *testing.T) {
	table := LookupTable{
		Name: "Sizes",
		Rows: []LookupRow{
			{Key: 20, Values: map[string]value.Value{"cost": value.Number{V: 9}, "weight": value.Number{V: 2.5}}},
			{Key: 10, Values: map[string]value.Value{"cost": value.Number{V: 5}, "weight": value.Number{V: 1.2}}},
		},
	}
	ctx := NewContext(RawContext{LookupTables: map[string]LookupTable{"Sizes": table}})

	v := evalOK(t, "XLOOKUP(20, Sizes, cost, EXACT)", ctx)
	if num, ok := v.(value.Number); !ok || num.V != 9 {
		t.Fatalf("EXACT got %#v", v)
	}

	v = evalOK(t, "XLOOKUP(12, Sizes, cost, NEAREST)", ctx)
	if num, ok := v.(value.Number); !ok || num.V != 5 {
		t.Fatalf("NEAREST got %#v", v)
	}

	v = evalOK(t, "XLOOKUP(10, Sizes, [cost, weight], EXACT)", ctx)
	rec, ok := v.(value.Record)
	if !ok {
		t.Fatalf("got %#v, want Record", v)
	}
	if rec.V["cost"].(value.Number).V != 5 || rec.V["weight"].(value.Number).V != 1.2 {
		t.Fatalf("got %#v", rec)
	}
}

func TestXLookupNearestTieBreaksToEarlierKey(t *testing.T) {
	table := LookupTable{
		Name: "T",
		Rows: []LookupRow{
			{Key: 8, Values: map[string]value.Value{"v": value.Number{V: 1}}},
			{Key: 12, Values: map[string]value.Value{"v": value.Number{V: 2}}},
		},
	}
	ctx := NewContext(RawContext{LookupTables: map[string]LookupTable{"T": table}})
	v := evalOK(t, "XLOOKUP(10, T, v, NEAREST)", ctx)
	if num, ok := v.(value.Number); !ok || num.V != 1 {
		t.Fatalf("got %#v, want the earlier (smaller) key's row", v)
	}
}

func TestXLookupWholeRowWildcard(t *testing.T) {
	table := LookupTable{
		Name: "T",
		Rows: []LookupRow{{Key: 1, Values: map[string]value.Value{"a": value.Number{V: 1}, "b": value.Text{V: "x"}}}},
	}
	ctx := NewContext(RawContext{LookupTables: map[string]LookupTable{"T": table}})
	v := evalOK(t, `XLOOKUP(1, T, "*", EXACT)`, ctx)
	if _, ok := v.(value.Record); !ok {
		t.Fatalf("got %#v, want Record", v)
	}
}

func TestUnknownInputIsError(t *testing.T) {
	ctx := NewContext(RawContext{})
	_, err := Evaluate("Missing", ctx, Meta{})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestBooleanIsNotNumber(t *testing.T) {
	ctx := NewContext(RawContext{Inputs: map[string]value.Value{"b": value.Boolean{V: true}}})
	_, err := Evaluate("b + 1", ctx, Meta{})
	if err == nil {
		t.Fatal("expected error: Boolean must not coerce to Number")
	}
}

func TestMixedCategoryComparisonStringifies(t *testing.T) {
	ctx := NewContext(RawContext{Inputs: map[string]value.Value{
		"a": value.Text{V: "10"},
		"b": value.Number{V: 9},
	}})
	v := evalOK(t, "a > b", ctx)
	// stringified: "10" > "9" is false lexicographically
	if b, ok := v.(value.Boolean); !ok || b.V {
		t.Fatalf("got %#v", v)
	}
}

func TestEnrichmentFillsFormulaAndMeta(t *testing.T) {
	ctx := NewContext(RawContext{})
	_, err := Evaluate("1/0", ctx, Meta{RowID: "row1", FieldName: "cost"})
	fe, ok := ferrors.As(err)
	if !ok {
		t.Fatalf("not a FormulaError: %v", err)
	}
	if fe.Formula != "1/0" || fe.RowID != "row1" || fe.FieldName != "cost" {
		t.Fatalf("got %+v", fe)
	}
}
