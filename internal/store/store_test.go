package store

import (
	"context"
	"testing"

	"bomgen/internal/formula"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "sqlite://file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return s
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	if _, err := Open(context.Background(), "oracle://x"); err == nil {
		t.Fatal("expected an error for an unsupported dsn scheme")
	}
}

func TestOpenRejectsMissingScheme(t *testing.T) {
	if _, err := Open(context.Background(), "not-a-dsn"); err == nil {
		t.Fatal("expected an error for a dsn with no scheme")
	}
}

func TestPutVariableAssignsIDAndListVariablesSortsNaturally(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	names := []string{"A10", "A2", "A1"}
	for _, name := range names {
		if _, err := s.PutVariable(ctx, VariableRecord{
			BuildFamilyID: "fam1",
			Name:          name,
			DeclaredType:  formula.VariableNumber,
			Formula:       "1 + 1",
		}); err != nil {
			t.Fatalf("PutVariable(%s): %v", name, err)
		}
	}

	recs, err := s.ListVariables(ctx, "fam1")
	if err != nil {
		t.Fatalf("ListVariables: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d variables, want 3", len(recs))
	}
	for _, rec := range recs {
		if rec.ID == "" {
			t.Fatalf("PutVariable left ID empty for %s", rec.Name)
		}
	}
	got := []string{recs[0].Name, recs[1].Name, recs[2].Name}
	want := []string{"A1", "A2", "A10"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ListVariables order = %v, want %v", got, want)
		}
	}
}

func TestPutVariableUpsertsByID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec, err := s.PutVariable(ctx, VariableRecord{
		BuildFamilyID: "fam1",
		Name:          "Length",
		DeclaredType:  formula.VariableNumber,
		Formula:       "LS_L",
	})
	if err != nil {
		t.Fatalf("PutVariable: %v", err)
	}

	rec.Formula = "LS_L * 2"
	if _, err := s.PutVariable(ctx, rec); err != nil {
		t.Fatalf("PutVariable (update): %v", err)
	}

	recs, err := s.ListVariables(ctx, "fam1")
	if err != nil {
		t.Fatalf("ListVariables: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d variables, want 1 (upsert should not duplicate)", len(recs))
	}
	if recs[0].Formula != "LS_L * 2" {
		t.Fatalf("Formula = %q, want updated value", recs[0].Formula)
	}
}
