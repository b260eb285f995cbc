package batch

import (
	"context"
	"testing"

	"bomgen/internal/formula"
	"bomgen/internal/value"
)

func testContext() *formula.Context {
	return formula.NewContext(formula.RawContext{
		Rows: map[string]map[string]value.Value{
			"row1": {"qty": value.Number{V: 2}},
			"row2": {"qty": value.Number{V: 5}},
			"row3": {"qty": value.Number{V: 7}},
		},
	})
}

func TestRunEvaluatesEveryJobIndependently(t *testing.T) {
	fctx := testContext()
	jobs := []Job{
		{BuildFamilyID: "fam", RowID: "row1", FieldName: "qty", Formula: `ROW(row1).qty * 2`},
		{BuildFamilyID: "fam", RowID: "row2", FieldName: "qty", Formula: `ROW(row2).qty * 2`},
		{BuildFamilyID: "fam", RowID: "row3", FieldName: "qty", Formula: `ROW(row3).qty * 2`},
	}

	results, err := Run(context.Background(), jobs, fctx, 2)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	want := map[string]float64{"row1": 4, "row2": 10, "row3": 14}
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("row %s: unexpected error: %v", r.Job.RowID, r.Err)
		}
		num, ok := r.Value.(value.Number)
		if !ok {
			t.Fatalf("row %s: got %T, want value.Number", r.Job.RowID, r.Value)
		}
		if num.V != want[r.Job.RowID] {
			t.Fatalf("row %s = %v, want %v", r.Job.RowID, num.V, want[r.Job.RowID])
		}
	}
}

func TestRunCapturesPerJobErrorsWithoutAbortingTheBatch(t *testing.T) {
	fctx := testContext()
	jobs := []Job{
		{BuildFamilyID: "fam", RowID: "row1", FieldName: "qty", Formula: `ROW(row1).qty`},
		{BuildFamilyID: "fam", RowID: "missing", FieldName: "qty", Formula: `ROW(missing).qty`},
	}

	results, err := Run(context.Background(), jobs, fctx, 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	errs := Errors(results)
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1", len(errs))
	}
	if errs[0].RowID != "missing" {
		t.Fatalf("error RowID = %q, want %q", errs[0].RowID, "missing")
	}

	var okRows int
	for _, r := range results {
		if r.Err == nil {
			okRows++
		}
	}
	if okRows != 1 {
		t.Fatalf("got %d successful rows, want 1 (one bad row should not hide the good ones)", okRows)
	}
}
