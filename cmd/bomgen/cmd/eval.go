package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"bomgen/internal/fixture"
	"bomgen/internal/formula"
	"bomgen/internal/wire"
)

var (
	evalExpr     string
	fixtureFile  string
	scenarioName string
)

var evalCmd = &cobra.Command{
	Use:   "eval [file]",
	Short: "Evaluate a formula against a fixture context and print the result",
	Long: `Evaluate a formula, either standalone (no context) or against one
scenario's Context loaded from a --fixture YAML file.

Examples:
  bomgen eval -e "10 + 5 * 2"
  bomgen eval -e "VAR.B" --fixture testdata/fixtures/arithmetic.yaml --scenario variable_chain`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "evaluate an inline formula instead of reading a file")
	evalCmd.Flags().StringVar(&fixtureFile, "fixture", "", "YAML fixture file supplying the evaluation Context")
	evalCmd.Flags().StringVar(&scenarioName, "scenario", "", "name of the scenario within --fixture to use as Context (required unless the fixture has exactly one)")
}

func runEval(_ *cobra.Command, args []string) error {
	formulaText, err := readFormulaInput(evalExpr, args)
	if err != nil {
		return err
	}

	if fixtureFile == "" {
		if dir, dirErr := configDir(); dirErr == nil {
			if candidate := filepath.Join(dir, "default.yaml"); fileExists(candidate) {
				fixtureFile = candidate
			}
		}
	}

	ctx := formula.NewContext(formula.RawContext{})
	if fixtureFile != "" {
		doc, err := fixture.LoadFile(fixtureFile)
		if err != nil {
			return err
		}
		sc, err := findScenario(doc.Scenarios, scenarioName)
		if err != nil {
			return err
		}
		ctx = sc.Context()
		if formulaText == "" {
			formulaText = sc.Formula
		}
	}

	v, err := formula.Evaluate(formulaText, ctx, formula.Meta{})
	if err != nil {
		return err
	}
	doc, err := wire.Encode(v)
	if err != nil {
		return err
	}
	fmt.Printf("%s  (value_type=%s)\n", doc, wire.Classify(v))
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func findScenario(scenarios []fixture.Scenario, name string) (fixture.Scenario, error) {
	if name == "" {
		if len(scenarios) == 1 {
			return scenarios[0], nil
		}
		return fixture.Scenario{}, fmt.Errorf("fixture has %d scenarios; specify --scenario", len(scenarios))
	}
	for _, sc := range scenarios {
		if sc.Name == name {
			return sc, nil
		}
	}
	return fixture.Scenario{}, fmt.Errorf("no scenario named %q in fixture", name)
}
