package formula

import (
	"math"
	"strconv"
	"strings"

	"bomgen/internal/ast"
	"bomgen/internal/ferrors"
	"bomgen/internal/token"
	"bomgen/internal/value"
)

// Evaluator walks one AST under one Context, tagged with the Meta active
// at this point in the resolution graph. It is built fresh for each
// top-level Evaluate call and for each variable formula a VariableRef
// descends into (spec.md §4.3, §5).
type Evaluator struct {
	ctx      *Context
	resolver *resolver
	meta     Meta
}

// NewEvaluator creates a top-level Evaluator: a fresh resolver (cache +
// active set) owned by this call alone, per spec.md §5.
func NewEvaluator(ctx *Context, meta Meta) *Evaluator {
	return &Evaluator{ctx: ctx, resolver: newResolver(ctx), meta: meta}
}

func (e *Evaluator) errAt(pos token.Position, message string) error {
	return ferrors.New(pos, message).Enrich("", e.meta)
}

// Eval dispatches on node's concrete type. Every ast.Node variant is
// handled here explicitly — adding a new node kind to internal/ast
// without adding a case here is a bug, caught by the default panic below
// rather than silently falling through.
func (e *Evaluator) Eval(node ast.Node) (value.Value, error) {
	switch n := node.(type) {
	case *ast.Literal:
		return literalValue(n.Value), nil
	case *ast.InputRef:
		return e.evalInputRef(n)
	case *ast.ConfigRef:
		return e.evalConfigRef(n)
	case *ast.VariableRef:
		return e.resolver.resolveVariable(n.Name, e.meta)
	case *ast.RowRef:
		return e.evalRowRef(n)
	case *ast.ListLiteral:
		return e.evalListLiteral(n)
	case *ast.UnaryOp:
		return e.evalUnary(n)
	case *ast.BinaryOp:
		return e.evalBinary(n)
	case *ast.FunctionCall:
		return e.evalFunctionCall(n)
	default:
		panic("formula: unhandled ast node type in Eval")
	}
}

func literalValue(v interface{}) value.Value {
	switch tv := v.(type) {
	case float64:
		return value.Number{V: tv}
	case string:
		return value.Text{V: tv}
	case bool:
		return value.Boolean{V: tv}
	default:
		panic("formula: literal with unsupported Go type")
	}
}

func (e *Evaluator) evalInputRef(n *ast.InputRef) (value.Value, error) {
	if v, ok := e.ctx.Inputs[n.Name]; ok {
		return v, nil
	}
	return nil, e.errAt(n.Pos(), "Unknown input '"+n.Name+"'")
}

func (e *Evaluator) evalConfigRef(n *ast.ConfigRef) (value.Value, error) {
	if v, ok := e.ctx.Config[n.FieldName]; ok {
		return v, nil
	}
	err := e.errAt(n.Pos(), "Missing config field '"+n.FieldName+"'")
	if fe, ok := ferrors.As(err); ok {
		fe.FieldName = n.FieldName
	}
	return nil, err
}

func (e *Evaluator) evalRowRef(n *ast.RowRef) (value.Value, error) {
	row, ok := e.ctx.Rows[n.RowID]
	if !ok {
		err := e.errAt(n.Pos(), "Unknown row '"+n.RowID+"'")
		if fe, ok := ferrors.As(err); ok {
			fe.RowID = n.RowID
			fe.FieldName = n.FieldName
		}
		return nil, err
	}
	v, ok := row[n.FieldName]
	if !ok {
		err := e.errAt(n.Pos(), "Missing field '"+n.FieldName+"' in row '"+n.RowID+"'")
		if fe, ok := ferrors.As(err); ok {
			fe.RowID = n.RowID
			fe.FieldName = n.FieldName
		}
		return nil, err
	}
	return v, nil
}

func (e *Evaluator) evalListLiteral(n *ast.ListLiteral) (value.Value, error) {
	items := make([]value.Value, len(n.Items))
	for i, item := range n.Items {
		v, err := e.Eval(item)
		if err != nil {
			return nil, err
		}
		items[i] = v
	}
	return value.List{V: items}, nil
}

func (e *Evaluator) evalUnary(n *ast.UnaryOp) (value.Value, error) {
	operand, err := e.Eval(n.Operand)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case "+":
		num, err := e.requireNumber(operand, n.Pos())
		if err != nil {
			return nil, err
		}
		return value.Number{V: num}, nil
	case "-":
		num, err := e.requireNumber(operand, n.Pos())
		if err != nil {
			return nil, err
		}
		return value.Number{V: -num}, nil
	case "NOT":
		b, err := e.requireBoolean(operand, n.Pos())
		if err != nil {
			return nil, err
		}
		return value.Boolean{V: !b}, nil
	default:
		panic("formula: unknown unary operator " + n.Op)
	}
}

func (e *Evaluator) evalBinary(n *ast.BinaryOp) (value.Value, error) {
	switch n.Op {
	case "AND", "OR":
		return e.evalLogical(n)
	case "+", "-", "*", "/", "^":
		return e.evalArithmetic(n)
	case "=", "<>", "<", ">", "<=", ">=":
		return e.evalComparison(n)
	default:
		panic("formula: unknown binary operator " + n.Op)
	}
}

// evalLogical short-circuits: the right operand is only evaluated when
// necessary, and only the evaluated operands are required to be Boolean
// (spec.md §4.3).
func (e *Evaluator) evalLogical(n *ast.BinaryOp) (value.Value, error) {
	leftVal, err := e.Eval(n.Left)
	if err != nil {
		return nil, err
	}
	left, err := e.requireBoolean(leftVal, n.Pos())
	if err != nil {
		return nil, err
	}
	if n.Op == "AND" && !left {
		return value.Boolean{V: false}, nil
	}
	if n.Op == "OR" && left {
		return value.Boolean{V: true}, nil
	}
	rightVal, err := e.Eval(n.Right)
	if err != nil {
		return nil, err
	}
	right, err := e.requireBoolean(rightVal, n.Pos())
	if err != nil {
		return nil, err
	}
	return value.Boolean{V: right}, nil
}

func (e *Evaluator) evalArithmetic(n *ast.BinaryOp) (value.Value, error) {
	leftVal, err := e.Eval(n.Left)
	if err != nil {
		return nil, err
	}
	rightVal, err := e.Eval(n.Right)
	if err != nil {
		return nil, err
	}
	left, err := e.requireNumber(leftVal, n.Pos())
	if err != nil {
		return nil, err
	}
	right, err := e.requireNumber(rightVal, n.Pos())
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case "+":
		return value.Number{V: left + right}, nil
	case "-":
		return value.Number{V: left - right}, nil
	case "*":
		return value.Number{V: left * right}, nil
	case "/":
		if right == 0 {
			return nil, e.errAt(n.Pos(), "Division by zero")
		}
		return value.Number{V: left / right}, nil
	case "^":
		return value.Number{V: math.Pow(left, right)}, nil
	default:
		panic("formula: unknown arithmetic operator " + n.Op)
	}
}

func (e *Evaluator) evalComparison(n *ast.BinaryOp) (value.Value, error) {
	left, err := e.Eval(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.Eval(n.Right)
	if err != nil {
		return nil, err
	}
	result, err := compareValues(left, right, n.Op)
	if err != nil {
		if fe, ok := ferrors.As(err); ok && fe.Position == nil {
			off := n.Pos().Offset
			fe.Position = &off
		}
		return nil, err
	}
	return value.Boolean{V: result}, nil
}

// compareValues implements spec.md §4.3: numeric comparison when both
// operands are Number (Booleans excluded); otherwise = / <> compare
// structurally and the ordered operators compare stringified forms.
func compareValues(left, right value.Value, op string) (bool, error) {
	ln, lok := left.(value.Number)
	rn, rok := right.(value.Number)
	if lok && rok {
		switch op {
		case "=":
			return ln.V == rn.V, nil
		case "<>":
			return ln.V != rn.V, nil
		case "<":
			return ln.V < rn.V, nil
		case ">":
			return ln.V > rn.V, nil
		case "<=":
			return ln.V <= rn.V, nil
		case ">=":
			return ln.V >= rn.V, nil
		}
	}
	switch op {
	case "=":
		return structurallyEqual(left, right), nil
	case "<>":
		return !structurallyEqual(left, right), nil
	case "<":
		return left.String() < right.String(), nil
	case ">":
		return left.String() > right.String(), nil
	case "<=":
		return left.String() <= right.String(), nil
	case ">=":
		return left.String() >= right.String(), nil
	}
	return false, ferrors.NewWithoutPosition("Unknown comparison operator '" + op + "'")
}

func structurallyEqual(a, b value.Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case value.Number:
		return av.V == b.(value.Number).V
	case value.Boolean:
		return av.V == b.(value.Boolean).V
	case value.Text:
		return av.V == b.(value.Text).V
	case value.Null:
		return true
	case value.List:
		bv := b.(value.List)
		if len(av.V) != len(bv.V) {
			return false
		}
		for i := range av.V {
			if !structurallyEqual(av.V[i], bv.V[i]) {
				return false
			}
		}
		return true
	case value.Record:
		bv := b.(value.Record)
		if len(av.V) != len(bv.V) {
			return false
		}
		for k, v := range av.V {
			bvv, ok := bv.V[k]
			if !ok || !structurallyEqual(v, bvv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// requireNumber implements spec.md §4.3's require_number: Number passes
// through; Boolean and Null are errors; Text is parsed as a decimal float
// permissively; List/Record are errors.
func (e *Evaluator) requireNumber(v value.Value, pos token.Position) (float64, error) {
	switch tv := v.(type) {
	case value.Number:
		return tv.V, nil
	case value.Text:
		f, err := strconv.ParseFloat(strings.TrimSpace(tv.V), 64)
		if err != nil {
			return 0, e.errAt(pos, "Expected number")
		}
		return f, nil
	default:
		return 0, e.errAt(pos, "Expected number")
	}
}

// requireBoolean implements spec.md §4.3's require_boolean.
func (e *Evaluator) requireBoolean(v value.Value, pos token.Position) (bool, error) {
	if b, ok := v.(value.Boolean); ok {
		return b.V, nil
	}
	return false, e.errAt(pos, "Expected boolean")
}
