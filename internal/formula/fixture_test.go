package formula

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"bomgen/internal/fixture"
)

// TestFixtures runs every scenario in testdata/fixtures against the
// evaluator, matching the numeric/text outcome (or error message) against
// a go-snaps snapshot. Grounded on the teacher's
// internal/interp/fixture_test.go, which drives its interpreter test
// suite from on-disk fixtures the same way.
func TestFixtures(t *testing.T) {
	files, err := filepath.Glob("../../testdata/fixtures/*.yaml")
	if err != nil {
		t.Fatalf("glob fixtures: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no fixture files found")
	}

	for _, file := range files {
		file := file
		t.Run(filepath.Base(file), func(t *testing.T) {
			doc, err := fixture.LoadFile(file)
			if err != nil {
				t.Fatalf("load %s: %v", file, err)
			}
			for _, sc := range doc.Scenarios {
				sc := sc
				t.Run(sc.Name, func(t *testing.T) {
					ctx := sc.Context()
					v, err := Evaluate(sc.Formula, ctx, Meta{})

					var outcome string
					switch {
					case err != nil:
						outcome = fmt.Sprintf("error: %s", err.Error())
					default:
						outcome = fmt.Sprintf("value: %s", v.String())
					}
					snaps.MatchSnapshot(t, fmt.Sprintf("%s_outcome", sc.Name), outcome)

					if sc.ExpectError != "" && err == nil {
						t.Fatalf("expected error %q, got value %v", sc.ExpectError, v)
					}
					if sc.ExpectError == "" && err != nil {
						t.Fatalf("unexpected error: %v", err)
					}
				})
			}
		})
	}
}
