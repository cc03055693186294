// Package parser implements a recursive-descent precedence-climbing
// equation parser: a Pratt parser with prefix/infix token-type dispatch
// and an explicit precedence ladder (or < and < comparison < + - < * / %
// < unary < ^, right-associative), plus if/then/else as an expression,
// ident(args...) calls, and ident[i,j] subscripts.
package parser

import (
	"fmt"

	"github.com/sunholo/simlin/internal/ast"
	"github.com/sunholo/simlin/internal/lexer"
)

// Precedence levels, lowest to highest.
const (
	lowest int = iota
	precOr
	precAnd
	precComparison
	precSum
	precProduct
	precUnary
	precPower
	precCall
)

var tokenPrecedence = map[lexer.Type]int{
	lexer.OR:      precOr,
	lexer.AND:     precAnd,
	lexer.EQ:      precComparison,
	lexer.NEQ:     precComparison,
	lexer.LT:      precComparison,
	lexer.GT:      precComparison,
	lexer.LTE:     precComparison,
	lexer.GTE:     precComparison,
	lexer.PLUS:    precSum,
	lexer.MINUS:   precSum,
	lexer.STAR:    precProduct,
	lexer.SLASH:   precProduct,
	lexer.PERCENT: precProduct,
	lexer.CARET:   precPower,
}

var binOpFor = map[lexer.Type]ast.Op2Kind{
	lexer.OR: ast.Op2Or, lexer.AND: ast.Op2And,
	lexer.EQ: ast.Op2Eq, lexer.NEQ: ast.Op2Neq,
	lexer.LT: ast.Op2Lt, lexer.GT: ast.Op2Gt, lexer.LTE: ast.Op2Lte, lexer.GTE: ast.Op2Gte,
	lexer.PLUS: ast.Op2Add, lexer.MINUS: ast.Op2Sub,
	lexer.STAR: ast.Op2Mul, lexer.SLASH: ast.Op2Div, lexer.PERCENT: ast.Op2Mod,
	lexer.CARET: ast.Op2Pow,
}

// ErrorCode enumerates parser error conditions.
type ErrorCode string

const (
	ErrUnexpectedToken ErrorCode = "PAR001"
	ErrExpectedToken   ErrorCode = "PAR002"
)

// Error is a recoverable, span-tagged parse error.
type Error struct {
	Code    ErrorCode
	Message string
	Start   int
	End     int
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

// Parser turns a token stream into an AST rooted in a shared Arena.
type Parser struct {
	l    *lexer.Lexer
	mode lexer.Mode

	arena *ast.Arena

	cur  lexer.Token
	peek lexer.Token

	errors []*Error
}

// New creates a Parser reading from l, building nodes into arena.
func New(l *lexer.Lexer, arena *ast.Arena) *Parser {
	p := &Parser{l: l, mode: l.Mode(), arena: arena}
	p.next()
	p.next()
	return p
}

// Errors returns every recoverable error accumulated while parsing.
func (p *Parser) Errors() []*Error { return p.errors }

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) curIs(t lexer.Type) bool  { return p.cur.Type == t }
func (p *Parser) peekIs(t lexer.Type) bool { return p.peek.Type == t }

func (p *Parser) expect(t lexer.Type) bool {
	if p.peekIs(t) {
		p.next()
		return true
	}
	p.errors = append(p.errors, &Error{
		Code: ErrExpectedToken,
		Message: fmt.Sprintf("expected %s, got %s (%q)", t, p.peek.Type, p.peek.Literal),
		Start: p.peek.Start, End: p.peek.End,
	})
	return false
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := tokenPrecedence[p.peek.Type]; ok {
		return pr
	}
	return lowest
}

// ParseEquation parses a single equation. It returns ast.NoNode for
// empty/whitespace/comment-only input, plus any recoverable errors.
func (p *Parser) ParseEquation() (ast.NodeID, []*Error) {
	if p.curIs(tokEOF()) {
		return ast.NoNode, p.errors
	}
	expr := p.parseExpr(lowest)
	if !p.curIs(tokEOF()) {
		p.errors = append(p.errors, &Error{
			Code: ErrUnexpectedToken,
			Message: fmt.Sprintf("unexpected trailing token %s (%q)", p.cur.Type, p.cur.Literal),
			Start: p.cur.Start, End: p.cur.End,
		})
	}
	return expr, p.errors
}

func tokEOF() lexer.Type { return lexer.EOF }

func (p *Parser) parseExpr(precedence int) ast.NodeID {
	left := p.parsePrefix()
	if left == ast.NoNode {
		return ast.NoNode
	}
	for !p.peekIs(lexer.EOF) && precedence < p.peekPrecedence() {
		p.next()
		left = p.parseInfix(left)
	}
	return left
}

func (p *Parser) parsePrefix() ast.NodeID {
	switch p.cur.Type {
	case lexer.NUMBER:
		return p.parseNumber()
	case lexer.IDENT:
		return p.parseIdentOrCallOrSubscript()
	case lexer.MINUS:
		start := p.cur.Start
		p.next()
		kid := p.parseExpr(precUnary)
		return p.arena.UnaryOp(ast.Op1Negate, kid, ast.Loc{Start: start, End: p.endOf(kid)})
	case lexer.PLUS:
		start := p.cur.Start
		p.next()
		kid := p.parseExpr(precUnary)
		return p.arena.UnaryOp(ast.Op1Positive, kid, ast.Loc{Start: start, End: p.endOf(kid)})
	case lexer.NOT:
		start := p.cur.Start
		p.next()
		kid := p.parseExpr(precUnary)
		return p.arena.UnaryOp(ast.Op1Not, kid, ast.Loc{Start: start, End: p.endOf(kid)})
	case lexer.LPAREN:
		p.next()
		expr := p.parseExpr(lowest)
		p.expect(lexer.RPAREN)
		return expr
	case lexer.IF:
		return p.parseIf()
	default:
		p.errors = append(p.errors, &Error{
			Code: ErrUnexpectedToken,
			Message: fmt.Sprintf("unexpected token %s (%q)", p.cur.Type, p.cur.Literal),
			Start: p.cur.Start, End: p.cur.End,
		})
		return ast.NoNode
	}
}

func (p *Parser) endOf(id ast.NodeID) int {
	if id == ast.NoNode {
		return p.cur.End
	}
	return p.arena.Get(id).Loc.End
}

func (p *Parser) parseNumber() ast.NodeID {
	text := p.cur.Literal
	val, err := parseFloat(text)
	if err != nil {
		p.errors = append(p.errors, &Error{
			Code: ErrUnexpectedToken, Message: "invalid number literal " + text,
			Start: p.cur.Start, End: p.cur.End,
		})
	}
	return p.arena.Const(text, val, ast.Loc{Start: p.cur.Start, End: p.cur.End})
}

func (p *Parser) parseIdentOrCallOrSubscript() ast.NodeID {
	name := p.cur.Literal
	start := p.cur.Start
	end := p.cur.End

	if p.peekIs(lexer.LPAREN) {
		p.next() // consume ident, cur = LPAREN
		args := p.parseArgList(lexer.RPAREN)
		end = p.cur.End
		return p.arena.App(name, args, ast.Loc{Start: start, End: end})
	}
	if p.peekIs(lexer.LBRACKET) {
		p.next() // cur = LBRACKET
		args := p.parseArgList(lexer.RBRACKET)
		end = p.cur.End
		return p.arena.Subscript(name, args, ast.Loc{Start: start, End: end})
	}
	if p.mode == lexer.EquationMode {
		switch name {
		case "time", "dt", "pi", "inf", "start_time", "final_time", "saveper":
			// Arity-0 builtins are reified as nullary calls in equation mode.
			return p.arena.App(name, nil, ast.Loc{Start: start, End: end})
		}
	}
	return p.arena.Var(name, ast.Loc{Start: start, End: end})
}

// parseArgList expects p.cur positioned on the opening delimiter and
// consumes through the matching close, returning parsed argument nodes.
func (p *Parser) parseArgList(close lexer.Type) []ast.NodeID {
	var args []ast.NodeID
	if p.peekIs(close) {
		p.next()
		return args
	}
	p.next()
	args = append(args, p.parseExpr(lowest))
	for p.peekIs(lexer.COMMA) {
		p.next() // consume comma
		p.next()
		args = append(args, p.parseExpr(lowest))
	}
	p.expect(close)
	return args
}

func (p *Parser) parseIf() ast.NodeID {
	start := p.cur.Start
	p.next()
	cond := p.parseExpr(lowest)
	if !p.expect(lexer.THEN) {
		return ast.NoNode
	}
	p.next()
	then := p.parseExpr(lowest)
	if !p.expect(lexer.ELSE) {
		return ast.NoNode
	}
	p.next()
	els := p.parseExpr(lowest)
	return p.arena.IfExpr(cond, then, els, ast.Loc{Start: start, End: p.endOf(els)})
}

func (p *Parser) parseInfix(left ast.NodeID) ast.NodeID {
	op, ok := binOpFor[p.cur.Type]
	if !ok {
		p.errors = append(p.errors, &Error{
			Code: ErrUnexpectedToken, Message: "unexpected infix token " + p.cur.Type.String(),
			Start: p.cur.Start, End: p.cur.End,
		})
		return left
	}
	precedence := tokenPrecedence[p.cur.Type]
	p.next()
	// ^ is right-associative: parse the RHS at one precedence lower so a
	// chain like a^b^c associates as a^(b^c).
	rhsPrec := precedence
	if op == ast.Op2Pow {
		rhsPrec = precedence - 1
	}
	right := p.parseExpr(rhsPrec)
	return p.arena.BinaryOp(op, left, right, ast.Loc{Start: p.arena.Get(left).Loc.Start, End: p.endOf(right)})
}
