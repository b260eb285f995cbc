package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bomgen/internal/formula"
)

var validateExpr string

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Parse a formula and report syntax errors without evaluating it",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVarP(&validateExpr, "eval", "e", "", "validate an inline formula instead of reading a file")
}

func runValidate(_ *cobra.Command, args []string) error {
	formulaText, err := readFormulaInput(validateExpr, args)
	if err != nil {
		return err
	}
	if err := formula.Validate(formulaText); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return fmt.Errorf("validation failed")
	}
	fmt.Println("OK")
	return nil
}

func readFormulaInput(inline string, args []string) (string, error) {
	if inline != "" {
		return inline, nil
	}
	if len(args) == 1 {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("failed to read file %s: %w", args[0], err)
		}
		return string(content), nil
	}
	return "", fmt.Errorf("either provide a file path or use -e for an inline formula")
}
