// Package ferrors defines the single structured error type produced by
// every stage of the formula engine (lexer, parser, evaluator), per
// spec.md §4.5 and §7.
//
// Inner components raise a FormulaError with only the fields they know
// about. The lexer sets message and Position; the parser also sets
// Formula to the text it is parsing; the evaluator stamps the Meta it is
// running under at the raise site, so an error inside a variable's
// formula already carries that variable's name. Outer layers (the
// top-level Validate/Evaluate entry points) fill in Formula when empty and
// copy over any EvaluationMeta locator field that isn't already set,
// without overwriting anything an inner layer already populated. Tighter
// (more specific) information always wins over outer enrichment.
package ferrors

import (
	"fmt"

	"bomgen/internal/token"
)

// FormulaError is the one error shape the formula engine ever raises.
type FormulaError struct {
	Message       string
	Formula       string
	Position      *int // byte offset into Formula; nil when not applicable
	BuildFamilyID string
	RowID         string
	FieldName     string
	VariableName  string
}

func (e *FormulaError) Error() string {
	if e.Position != nil {
		return fmt.Sprintf("%s (at offset %d)", e.Message, *e.Position)
	}
	return e.Message
}

// New creates a bare FormulaError at a token position. Locator fields and
// Formula are filled in later by Enrich at the API boundary — inner code
// never has them.
func New(pos token.Position, message string) *FormulaError {
	off := pos.Offset
	return &FormulaError{Message: message, Position: &off}
}

// NewAt creates a bare FormulaError at a raw byte offset.
func NewAt(offset int, message string) *FormulaError {
	return &FormulaError{Message: message, Position: &offset}
}

// NewWithoutPosition creates a FormulaError with no source position (used
// for name-resolution and cycle errors raised outside of parsing, where
// the original formula's lexical position isn't directly applicable).
func NewWithoutPosition(message string) *FormulaError {
	return &FormulaError{Message: message}
}

// Meta carries the non-semantic locator fields attached to any error
// raised while evaluating (spec.md's EvaluationMeta, §3).
type Meta struct {
	BuildFamilyID string
	RowID         string
	FieldName     string
	VariableName  string
}

// Enrich fills Formula (if empty) and any locator field not already set,
// in place, and returns the same error for chaining. This is the single
// enrichment point outer layers call — see the package doc comment.
func (e *FormulaError) Enrich(formula string, meta Meta) *FormulaError {
	if e.Formula == "" {
		e.Formula = formula
	}
	if e.BuildFamilyID == "" {
		e.BuildFamilyID = meta.BuildFamilyID
	}
	if e.RowID == "" {
		e.RowID = meta.RowID
	}
	if e.FieldName == "" {
		e.FieldName = meta.FieldName
	}
	if e.VariableName == "" {
		e.VariableName = meta.VariableName
	}
	return e
}

// As reports whether err is a *FormulaError, returning it for convenience.
func As(err error) (*FormulaError, bool) {
	fe, ok := err.(*FormulaError)
	return fe, ok
}
