package formula

import "testing"

func TestNewContextSortsLookupRowsAscendingByKey(t *testing.T) {
	ctx := NewContext(RawContext{
		LookupTables: map[string]LookupTable{
			"T": {
				Name: "T",
				Rows: []LookupRow{
					{Key: 30},
					{Key: 10},
					{Key: 20},
				},
			},
		},
	})
	rows := ctx.LookupTables["T"].Rows
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i-1].Key > rows[i].Key {
			t.Fatalf("rows not sorted ascending: %v", rows)
		}
	}
}

func TestNewContextNilMapsBecomeEmpty(t *testing.T) {
	ctx := NewContext(RawContext{})
	if ctx.Inputs == nil || ctx.Config == nil || ctx.Rows == nil {
		t.Fatal("NewContext should never leave Inputs/Config/Rows nil")
	}
}
