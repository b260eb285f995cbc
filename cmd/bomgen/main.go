// Command bomgen is the formula engine's CLI: validate and evaluate
// formulas, dump their token stream, bulk-ingest lookup tables, and
// watch a fixture file for live re-evaluation.
package main

import (
	"fmt"
	"os"

	"bomgen/cmd/bomgen/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
