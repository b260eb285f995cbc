package formula

import (
	"bomgen/internal/ast"
	"bomgen/internal/ferrors"
	"bomgen/internal/parser"
	"bomgen/internal/value"
)

// Validate is the core's parse(formula) operation (spec.md §6): pure
// syntactic check, no evaluation.
func Validate(formula string) error {
	_, err := parser.Parse(formula)
	if err != nil {
		if fe, ok := ferrors.As(err); ok {
			fe.Enrich(formula, Meta{})
		}
		return err
	}
	return nil
}

// Evaluate is the core's evaluate(formula, context, meta) operation
// (spec.md §6): parse + evaluate. Any error raised anywhere in the parse
// or evaluation is enriched with formula (if not already set) and the
// locator fields of meta (without overwriting anything more specific
// already set by an inner layer), per spec.md §4.5/§7.
func Evaluate(formula string, ctx *Context, meta Meta) (value.Value, error) {
	node, err := parser.Parse(formula)
	if err != nil {
		if fe, ok := ferrors.As(err); ok {
			fe.Enrich(formula, meta)
		}
		return nil, err
	}
	ev := NewEvaluator(ctx, meta)
	v, err := ev.Eval(node)
	if err != nil {
		if fe, ok := ferrors.As(err); ok {
			fe.Enrich(formula, meta)
		}
		return nil, err
	}
	return v, nil
}

// ParseOnly exposes the parsed tree for callers that want to inspect it,
// without evaluating.
func ParseOnly(formula string) (ast.Node, error) {
	return parser.Parse(formula)
}
