// Package batch evaluates many (row, field, formula) triples against one
// shared Context concurrently — the shape of a full BOM recompute, where
// every row's fields are independent once the row/config/variable data
// is fixed.
package batch

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"bomgen/internal/ferrors"
	"bomgen/internal/formula"
	"bomgen/internal/value"
)

// Job is one formula to evaluate, tagged with the locator fields that
// belong in any error it raises.
type Job struct {
	BuildFamilyID string
	RowID         string
	FieldName     string
	Formula       string
}

// Result is one Job's outcome: exactly one of Value/Err is set.
type Result struct {
	Job   Job
	Value value.Value
	Err   error
}

// Run evaluates every job against ctx concurrently, bounded by
// maxParallel simultaneous evaluations (0 means unbounded). A Context is
// read-only during evaluation (spec.md §5's per-call Evaluator state is
// never shared across jobs), so concurrent evaluation is safe.
//
// Run itself never fails: a job's error is captured in its Result rather
// than aborting the batch, since one row's broken formula should not hide
// the results of the rows around it. The returned error is only non-nil
// if the supplied context is canceled.
func Run(ctx context.Context, jobs []Job, fctx *formula.Context, maxParallel int) ([]Result, error) {
	results := make([]Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	if maxParallel > 0 {
		g.SetLimit(maxParallel)
	}

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			meta := formula.Meta{
				BuildFamilyID: job.BuildFamilyID,
				RowID:         job.RowID,
				FieldName:     job.FieldName,
			}
			v, err := formula.Evaluate(job.Formula, fctx, meta)
			results[i] = Result{Job: job, Value: v, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Errors extracts the failed results, ordered by RowID then FieldName for
// stable, reviewable output.
func Errors(results []Result) []*ferrors.FormulaError {
	var out []*ferrors.FormulaError
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		if fe, ok := ferrors.As(r.Err); ok {
			out = append(out, fe)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RowID != out[j].RowID {
			return out[i].RowID < out[j].RowID
		}
		return out[i].FieldName < out[j].FieldName
	})
	return out
}
