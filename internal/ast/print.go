package ast

import "strconv"

// Print renders id back into equation text using the same surface syntax
// the parser accepts. It is used by the builtin-visitor to synthesize an
// aux variable's equation text from an inline argument expression, and to
// check that Parse(Print(ast)) ~= ast modulo spans.
func Print(a *Arena, id NodeID) string {
	var b []byte
	b = appendExpr(a, b, id, 0)
	return string(b)
}

// precedence mirrors the parser's climbing order: or < and < comparison
// < + - < * / % < unary < ^.
func precedence(op Op2Kind) int {
	switch op {
	case Op2Or:
		return 1
	case Op2And:
		return 2
	case Op2Eq, Op2Neq, Op2Lt, Op2Gt, Op2Lte, Op2Gte:
		return 3
	case Op2Add, Op2Sub:
		return 4
	case Op2Mul, Op2Div, Op2Mod:
		return 5
	case Op2Pow:
		return 7
	default:
		return 0
	}
}

func appendExpr(a *Arena, b []byte, id NodeID, minPrec int) []byte {
	if id == NoNode {
		return b
	}
	n := a.Get(id)
	switch n.Kind {
	case KindConst:
		if n.Text != "" {
			return append(b, n.Text...)
		}
		return strconv.AppendFloat(b, n.Value, 'g', -1, 64)
	case KindVar:
		return append(b, n.Name...)
	case KindApp:
		b = append(b, n.Name...)
		b = append(b, '(')
		for i, arg := range n.Args {
			if i > 0 {
				b = append(b, ',', ' ')
			}
			b = appendExpr(a, b, arg, 0)
		}
		return append(b, ')')
	case KindSubscript:
		b = append(b, n.Name...)
		b = append(b, '[')
		for i, arg := range n.Args {
			if i > 0 {
				b = append(b, ',', ' ')
			}
			b = appendExpr(a, b, arg, 0)
		}
		return append(b, ']')
	case KindOp1:
		open := minPrec > 6
		if open {
			b = append(b, '(')
		}
		b = append(b, n.Op1.String()...)
		if n.Op1 == Op1Not {
			b = append(b, ' ')
		}
		b = appendExpr(a, b, n.Kid, 6)
		if open {
			b = append(b, ')')
		}
		return b
	case KindOp2:
		prec := precedence(n.Op2)
		open := prec < minPrec
		if open {
			b = append(b, '(')
		}
		// ^ is right-associative; everything else left-associative.
		leftMin, rightMin := prec, prec+1
		if n.Op2 == Op2Pow {
			leftMin, rightMin = prec+1, prec
		}
		b = appendExpr(a, b, n.L, leftMin)
		b = append(b, ' ')
		b = append(b, n.Op2.String()...)
		b = append(b, ' ')
		b = appendExpr(a, b, n.R, rightMin)
		if open {
			b = append(b, ')')
		}
		return b
	case KindIf:
		open := minPrec > 0
		if open {
			b = append(b, '(')
		}
		b = append(b, "if "...)
		b = appendExpr(a, b, n.Cond, 0)
		b = append(b, " then "...)
		b = appendExpr(a, b, n.Then, 0)
		b = append(b, " else "...)
		b = appendExpr(a, b, n.Else, 0)
		if open {
			b = append(b, ')')
		}
		return b
	default:
		return b
	}
}
