// Package parser implements the operator-precedence descent parser for
// formulas, per spec.md §4.2.
package parser

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"bomgen/internal/ast"
	"bomgen/internal/ferrors"
	"bomgen/internal/lexer"
	"bomgen/internal/token"
)

// foldUpper is the Unicode-aware case folder used for every
// case-insensitive keyword comparison in this package (AND/OR/NOT/TRUE/
// FALSE/ROW/CFG/VAR), rather than strings.ToUpper, since BOM part/field
// vocabularies are not guaranteed to stay within ASCII.
var foldUpper = cases.Upper(language.Und)

// Parser consumes a pre-scanned token stream and produces one ast.Node.
// Construct a fresh Parser per formula; it is not reentrant.
type Parser struct {
	formula string
	tokens  []token.Token
	pos     int
}

// Parse tokenizes and parses formula into a single expression tree. The
// entire input must be consumed before EOF (spec.md §4.2).
func Parse(formula string) (ast.Node, error) {
	toks, err := lexer.Tokenize(formula)
	if err != nil {
		if fe, ok := ferrors.As(err); ok {
			fe.Formula = formula
		}
		return nil, err
	}
	p := &Parser{formula: formula, tokens: toks}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.current().Type != token.EOF {
		return nil, p.errf(p.current().Pos, "Unexpected trailing content after expression")
	}
	return expr, nil
}

func (p *Parser) current() token.Token { return p.tokens[p.pos] }

func (p *Parser) advance() token.Token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) errf(pos token.Position, format string, args ...interface{}) error {
	fe := ferrors.New(pos, fmt.Sprintf(format, args...))
	fe.Formula = p.formula
	return fe
}

func (p *Parser) expect(tt token.Type) (token.Token, error) {
	if p.current().Type != tt {
		return token.Token{}, p.errf(p.current().Pos, "Expected %s", tokenDesc(tt))
	}
	return p.advance(), nil
}

func tokenDesc(t token.Type) string {
	switch t {
	case token.RPAREN:
		return "')'"
	case token.RBRACKET:
		return "']'"
	case token.LPAREN:
		return "'('"
	case token.DOT:
		return "'.'"
	case token.IDENT:
		return "an identifier"
	case token.EOF:
		return "end of formula"
	default:
		return string(t)
	}
}

// matchIdent reports whether the current token is an IDENT whose lexeme
// case-insensitively equals one of the given keywords, and if so, which.
func (p *Parser) matchIdent(keywords ...string) (string, bool) {
	t := p.current()
	if t.Type != token.IDENT {
		return "", false
	}
	upper := foldUpper.String(t.Lexeme)
	for _, kw := range keywords {
		if upper == kw {
			return kw, true
		}
	}
	return "", false
}

func (p *Parser) matchOp(ops ...string) (string, bool) {
	t := p.current()
	if t.Type != token.OP {
		return "", false
	}
	for _, op := range ops {
		if t.Lexeme == op {
			return op, true
		}
	}
	return "", false
}

// --- precedence levels (lowest to highest), spec.md §4.2 ---

func (p *Parser) parseOr() (ast.Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.matchIdent("OR"); !ok {
			return left, nil
		}
		pos := p.advance().Pos
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryOp(pos, "OR", left, right)
	}
}

func (p *Parser) parseAnd() (ast.Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.matchIdent("AND"); !ok {
			return left, nil
		}
		pos := p.advance().Pos
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryOp(pos, "AND", left, right)
	}
}

func (p *Parser) parseNot() (ast.Node, error) {
	if _, ok := p.matchIdent("NOT"); ok {
		pos := p.advance().Pos
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryOp(pos, "NOT", operand), nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (ast.Node, error) {
	left, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.matchOp("=", "<>", "<", ">", "<=", ">=")
		if !ok {
			return left, nil
		}
		pos := p.advance().Pos
		right, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryOp(pos, op, left, right)
	}
}

func (p *Parser) parseAdd() (ast.Node, error) {
	left, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.matchOp("+", "-")
		if !ok {
			return left, nil
		}
		pos := p.advance().Pos
		right, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryOp(pos, op, left, right)
	}
}

func (p *Parser) parseMul() (ast.Node, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.matchOp("*", "/")
		if !ok {
			return left, nil
		}
		pos := p.advance().Pos
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryOp(pos, op, left, right)
	}
}

// parsePower is right-associative: a ^ b ^ c == a ^ (b ^ c).
func (p *Parser) parsePower() (ast.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if op, ok := p.matchOp("^"); ok {
		pos := p.advance().Pos
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		return ast.NewBinaryOp(pos, op, left, right), nil
	}
	return left, nil
}

// parseUnary is right-associative: --x parses as -( -x ).
func (p *Parser) parseUnary() (ast.Node, error) {
	if op, ok := p.matchOp("+", "-"); ok {
		pos := p.advance().Pos
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryOp(pos, op, operand), nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (ast.Node, error) {
	t := p.current()
	switch t.Type {
	case token.NUMBER:
		p.advance()
		return ast.NewLiteral(t.Pos, t.NumValue), nil
	case token.STRING:
		p.advance()
		return ast.NewLiteral(t.Pos, t.StrValue), nil
	case token.IDENT:
		return p.parseIdentifier()
	case token.LPAREN:
		p.advance()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return expr, nil
	case token.LBRACKET:
		return p.parseList()
	}
	return nil, p.errf(t.Pos, "Unexpected token %s", tokenRepr(t))
}

func tokenRepr(t token.Token) string {
	if t.Type == token.EOF {
		return "end of formula"
	}
	return "'" + t.Lexeme + "'"
}

func (p *Parser) parseList() (ast.Node, error) {
	start, err := p.expect(token.LBRACKET)
	if err != nil {
		return nil, err
	}
	var items []ast.Node
	if p.current().Type != token.RBRACKET {
		for {
			item, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			items = append(items, item)
			if p.current().Type == token.COMMA {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expect(token.RBRACKET); err != nil {
		return nil, err
	}
	return ast.NewListLiteral(start.Pos, items), nil
}

func (p *Parser) parseIdentifier() (ast.Node, error) {
	t, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	upper := foldUpper.String(t.Lexeme)

	switch upper {
	case "TRUE", "FALSE":
		return ast.NewLiteral(t.Pos, upper == "TRUE"), nil
	case "ROW":
		if p.current().Type == token.LPAREN {
			return p.parseRowRef(t.Pos)
		}
	}

	if p.current().Type == token.DOT {
		p.advance()
		nameTok, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		switch upper {
		case "CFG":
			return ast.NewConfigRef(t.Pos, nameTok.Lexeme), nil
		case "VAR":
			return ast.NewVariableRef(t.Pos, nameTok.Lexeme), nil
		default:
			return ast.NewInputRef(t.Pos, t.Lexeme+"."+nameTok.Lexeme), nil
		}
	}

	if p.current().Type == token.LPAREN {
		return p.parseFunctionCall(t.Lexeme, t.Pos)
	}

	return ast.NewInputRef(t.Pos, t.Lexeme), nil
}

func (p *Parser) parseFunctionCall(name string, pos token.Position) (ast.Node, error) {
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var args []ast.Node
	if p.current().Type != token.RPAREN {
		for {
			arg, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.current().Type == token.COMMA {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return ast.NewFunctionCall(pos, name, args), nil
}

func (p *Parser) parseRowRef(pos token.Position) (ast.Node, error) {
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	rowTok := p.current()
	var rowID string
	switch rowTok.Type {
	case token.IDENT:
		rowID = rowTok.Lexeme
		p.advance()
	case token.STRING:
		rowID = rowTok.StrValue
		p.advance()
	default:
		return nil, p.errf(rowTok.Pos, "Expected row id")
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.DOT); err != nil {
		return nil, err
	}
	fieldTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	return ast.NewRowRef(pos, rowID, fieldTok.Lexeme), nil
}
