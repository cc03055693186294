package units

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse reads a unit expression such as "kg*m/s^2" or "people/(month)" into
// a Units value. The grammar is a small multiplicative expression over base
// unit names, `*` and `/` at one precedence level (left-associative) and
// `^` (integer exponent, may be negative) binding tighter, with parens for
// grouping — deliberately much smaller than the equation grammar
// internal/parser implements, so this is a standalone hand-rolled
// recursive-descent parser rather than a reuse of internal/parser.
func Parse(expr string) (Units, error) {
	p := &unitParser{src: expr}
	p.next()
	u, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	if p.tok != tokEOF {
		return nil, fmt.Errorf("units: unexpected trailing input at %q", p.rest())
	}
	return u, nil
}

type unitTok int

const (
	tokEOF unitTok = iota
	tokIdent
	tokStar
	tokSlash
	tokCaret
	tokLParen
	tokRParen
	tokNumber
)

type unitParser struct {
	src string
	pos int
	tok unitTok
	lit string
}

func (p *unitParser) rest() string {
	if p.pos >= len(p.src) {
		return ""
	}
	return p.src[p.pos:]
}

func (p *unitParser) next() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
	if p.pos >= len(p.src) {
		p.tok = tokEOF
		return
	}
	c := p.src[p.pos]
	switch {
	case c == '*':
		p.tok, p.pos = tokStar, p.pos+1
	case c == '/':
		p.tok, p.pos = tokSlash, p.pos+1
	case c == '^':
		p.tok, p.pos = tokCaret, p.pos+1
	case c == '(':
		p.tok, p.pos = tokLParen, p.pos+1
	case c == ')':
		p.tok, p.pos = tokRParen, p.pos+1
	case c == '-' || (c >= '0' && c <= '9'):
		start := p.pos
		p.pos++
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
		p.tok, p.lit = tokNumber, p.src[start:p.pos]
	case isUnitIdentStart(c):
		start := p.pos
		for p.pos < len(p.src) && isUnitIdentPart(p.src[p.pos]) {
			p.pos++
		}
		p.tok, p.lit = tokIdent, p.src[start:p.pos]
	default:
		p.tok, p.pos = tokEOF, len(p.src)
	}
}

func isUnitIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isUnitIdentPart(c byte) bool {
	return isUnitIdentStart(c) || (c >= '0' && c <= '9')
}

// parseProduct parses a left-associative chain of *-and-/ terms.
func (p *unitParser) parseProduct() (Units, error) {
	lhs, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for p.tok == tokStar || p.tok == tokSlash {
		op := p.tok
		p.next()
		rhs, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		if op == tokStar {
			lhs = Mul(lhs, rhs)
		} else {
			lhs = Div(lhs, rhs)
		}
	}
	return lhs, nil
}

// parsePower parses a base unit term optionally followed by ^N.
func (p *unitParser) parsePower() (Units, error) {
	base, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	if p.tok == tokCaret {
		p.next()
		if p.tok != tokNumber {
			return nil, fmt.Errorf("units: expected integer exponent, got %q", p.rest())
		}
		n, err := strconv.Atoi(p.lit)
		if err != nil {
			return nil, fmt.Errorf("units: bad exponent %q: %w", p.lit, err)
		}
		p.next()
		base = Pow(base, n)
	}
	return base, nil
}

func (p *unitParser) parseAtom() (Units, error) {
	switch p.tok {
	case tokIdent:
		name := p.lit
		p.next()
		if strings.EqualFold(name, "dimensionless") || name == "1" {
			return Units{}, nil
		}
		return Units{name: 1}, nil
	case tokNumber:
		if p.lit != "1" {
			return nil, fmt.Errorf("units: bare numeric literal %q is not a valid unit atom", p.lit)
		}
		p.next()
		return Units{}, nil
	case tokLParen:
		p.next()
		u, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		if p.tok != tokRParen {
			return nil, fmt.Errorf("units: expected ')', got %q", p.rest())
		}
		p.next()
		return u, nil
	default:
		return nil, fmt.Errorf("units: expected a unit name, number, or '(', got %q", p.rest())
	}
}
