package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"bomgen/internal/lexer"
)

var lexExpr string

var lexCmd = &cobra.Command{
	Use:   "lex [file]",
	Short: "Tokenize a formula and print its token stream (for debugging)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLex,
}

func init() {
	rootCmd.AddCommand(lexCmd)
	lexCmd.Flags().StringVarP(&lexExpr, "eval", "e", "", "tokenize an inline formula instead of reading a file")
}

func runLex(_ *cobra.Command, args []string) error {
	formulaText, err := readFormulaInput(lexExpr, args)
	if err != nil {
		return err
	}
	tokens, err := lexer.Tokenize(formulaText)
	if err != nil {
		return err
	}
	for _, tok := range tokens {
		fmt.Printf("%-10s %-12q %s\n", tok.Type, tok.Lexeme, tok.Pos)
	}
	return nil
}
