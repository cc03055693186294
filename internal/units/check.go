package units

import (
	"github.com/sunholo/simlin/internal/ast"
	"github.com/sunholo/simlin/internal/errors"
)

// Rule describes a builtin's declared unit shape, e.g. integ: same as
// stock; smth1: same as input.
type Rule int

const (
	// RuleSameAsArg0 returns the first argument's units unchanged, and does
	// not constrain any other argument (e.g. integ, smth1, smth3, delay1,
	// delay3, trend, abs; the smoothing and delay builtins' time-constant
	// argument is not checked against any particular unit).
	RuleSameAsArg0 Rule = iota
	// RuleAllArgsMatchResult requires every argument to share one unit and
	// returns that unit (e.g. min, max).
	RuleAllArgsMatchResult
	// RuleDimensionless requires every argument to be dimensionless and
	// returns dimensionless (e.g. exp, ln, log10, sin, cos, tan, arctan).
	RuleDimensionless
)

// BuiltinRules is the declared unit shape for every builtin the checker
// knows about; a name absent from this table is treated permissively (its
// call's units are dimensionless with no argument constraint), since an
// unrecognized name is the builtin-visitor's concern (UnknownBuiltin), not
// this checker's.
var BuiltinRules = map[string]Rule{
	"integ":  RuleSameAsArg0,
	"smth1":  RuleSameAsArg0,
	"smth3":  RuleSameAsArg0,
	"delay1": RuleSameAsArg0,
	"delay3": RuleSameAsArg0,
	"trend":  RuleSameAsArg0,
	"abs":    RuleSameAsArg0,
	"min":    RuleAllArgsMatchResult,
	"max":    RuleAllArgsMatchResult,
	"exp":        RuleDimensionless,
	"ln":         RuleDimensionless,
	"log10":      RuleDimensionless,
	"sqrt":       RuleDimensionless,
	"sin":        RuleDimensionless,
	"cos":        RuleDimensionless,
	"tan":        RuleDimensionless,
	"arctan":     RuleDimensionless,
}

// IdentUnits resolves a canonical identifier's declared units.
type IdentUnits func(ident string) (Units, bool)

// Checker walks equation ASTs accumulating non-fatal unit-mismatch
// diagnostics: mismatches are reported with spans but never block
// compilation, leaving it to the caller to decide whether to surface
// them to the user.
type Checker struct {
	arena   *ast.Arena
	resolve IdentUnits
	reports []*errors.Report
}

// NewChecker builds a Checker over arena, resolving Var references via
// resolve.
func NewChecker(arena *ast.Arena, resolve IdentUnits) *Checker {
	return &Checker{arena: arena, resolve: resolve}
}

// Check infers id's units, recording any mismatches found along the way.
func (c *Checker) Check(id ast.NodeID) Units {
	n := c.arena.Get(id)
	switch n.Kind {
	case ast.KindConst:
		return Units{}
	case ast.KindVar:
		if u, ok := c.resolve(n.Name); ok {
			return u
		}
		return Units{}
	case ast.KindSubscript:
		if u, ok := c.resolve(n.Name); ok {
			return u
		}
		return Units{}
	case ast.KindApp:
		return c.checkApp(n)
	case ast.KindOp1:
		return c.Check(n.Kid)
	case ast.KindOp2:
		return c.checkOp2(n)
	case ast.KindIf:
		return c.checkIf(n)
	default:
		return Units{}
	}
}

func (c *Checker) checkOp2(n *ast.Node) Units {
	lu := c.Check(n.L)
	ru := c.Check(n.R)
	switch n.Op2 {
	case ast.Op2Mul:
		return Mul(lu, ru)
	case ast.Op2Div:
		return Div(lu, ru)
	case ast.Op2Pow:
		if !ru.Dimensionless() {
			c.report(errors.UNIT002, "exponent must be dimensionless", n.Loc)
		}
		return Units{}
	case ast.Op2Add, ast.Op2Sub:
		if !Equal(lu, ru) {
			c.report(errors.UNIT001, "mismatched units on "+n.Op2.String(), n.Loc)
		}
		return lu
	case ast.Op2Eq, ast.Op2Neq, ast.Op2Lt, ast.Op2Gt, ast.Op2Lte, ast.Op2Gte:
		if !Equal(lu, ru) {
			c.report(errors.UNIT001, "mismatched units in comparison", n.Loc)
		}
		return Units{}
	case ast.Op2And, ast.Op2Or:
		return Units{}
	default:
		return Units{}
	}
}

func (c *Checker) checkIf(n *ast.Node) Units {
	c.Check(n.Cond)
	tu := c.Check(n.Then)
	eu := c.Check(n.Else)
	if !Equal(tu, eu) {
		c.report(errors.UNIT003, "if branches have mismatched units", n.Loc)
	}
	return tu
}

func (c *Checker) checkApp(n *ast.Node) Units {
	argUnits := make([]Units, len(n.Args))
	for i, arg := range n.Args {
		argUnits[i] = c.Check(arg)
	}

	rule, known := BuiltinRules[n.Name]
	if !known {
		return Units{}
	}
	switch rule {
	case RuleSameAsArg0:
		if len(argUnits) > 0 {
			return argUnits[0]
		}
		return Units{}
	case RuleAllArgsMatchResult:
		if len(argUnits) == 0 {
			return Units{}
		}
		first := argUnits[0]
		for _, u := range argUnits[1:] {
			if !Equal(first, u) {
				c.report(errors.UNIT001, "mismatched units in "+n.Name+" arguments", n.Loc)
				break
			}
		}
		return first
	case RuleDimensionless:
		for _, u := range argUnits {
			if !u.Dimensionless() {
				c.report(errors.UNIT001, n.Name+" requires a dimensionless argument", n.Loc)
				break
			}
		}
		return Units{}
	default:
		return Units{}
	}
}

func (c *Checker) report(code, msg string, loc ast.Loc) {
	c.reports = append(c.reports, &errors.Report{
		Kind: errors.KindVariable, Code: code, Phase: "units", Message: msg,
		Span: &errors.Span{Start: loc.Start, End: loc.End},
	})
}

// Reports returns every mismatch accumulated across all Check calls so far.
func (c *Checker) Reports() []*errors.Report { return c.reports }
