package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"bomgen/internal/batch"
	"bomgen/internal/fixture"
	"bomgen/internal/wire"
)

var (
	recomputeScenario string
	recomputeField    string
	recomputeParallel int
)

var recomputeCmd = &cobra.Command{
	Use:   "recompute <fixture-file>",
	Short: "Recompute one field across every row of a fixture scenario, concurrently",
	Long: `recompute loads a YAML fixture, selects one scenario's Context, and
evaluates ROW(<row-id>).<field> for every row in that Context concurrently
via internal/batch — the shape of a full BOM recompute, where every row's
field is independent once the shared config/variable data is fixed.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecompute,
}

func init() {
	rootCmd.AddCommand(recomputeCmd)
	recomputeCmd.Flags().StringVar(&recomputeScenario, "scenario", "", "name of the scenario within the fixture to use as Context (required unless the fixture has exactly one)")
	recomputeCmd.Flags().StringVar(&recomputeField, "field", "", "row field to recompute for every row")
	recomputeCmd.Flags().IntVar(&recomputeParallel, "parallel", 0, "max simultaneous evaluations (0 = unbounded)")
	recomputeCmd.MarkFlagRequired("field")
}

func runRecompute(_ *cobra.Command, args []string) error {
	doc, err := fixture.LoadFile(args[0])
	if err != nil {
		return err
	}
	sc, err := findScenario(doc.Scenarios, recomputeScenario)
	if err != nil {
		return err
	}
	fctx := sc.Context()

	rowIDs := make([]string, 0, len(fctx.Rows))
	for rowID := range fctx.Rows {
		rowIDs = append(rowIDs, rowID)
	}
	sort.Strings(rowIDs)
	if len(rowIDs) == 0 {
		return fmt.Errorf("scenario %q has no rows to recompute", sc.Name)
	}

	jobs := make([]batch.Job, len(rowIDs))
	for i, rowID := range rowIDs {
		jobs[i] = batch.Job{
			BuildFamilyID: sc.Name,
			RowID:         rowID,
			FieldName:     recomputeField,
			Formula:       fmt.Sprintf("ROW(%q).%s", rowID, recomputeField),
		}
	}

	results, err := batch.Run(context.Background(), jobs, fctx, recomputeParallel)
	if err != nil {
		return err
	}

	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("%s: error: %v\n", r.Job.RowID, r.Err)
			continue
		}
		encoded, err := wire.Encode(r.Value)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s\n", r.Job.RowID, encoded)
	}

	if errs := batch.Errors(results); len(errs) > 0 {
		return fmt.Errorf("recompute: %d of %d rows failed", len(errs), len(results))
	}
	return nil
}
