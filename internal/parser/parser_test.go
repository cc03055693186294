package parser

import (
	"testing"

	"github.com/sunholo/simlin/internal/ast"
	"github.com/sunholo/simlin/internal/lexer"
)

func parse(t *testing.T, src string) (*ast.Arena, ast.NodeID, []*Error) {
	t.Helper()
	a := ast.NewArena()
	l := lexer.New(src, lexer.EquationMode)
	p := New(l, a)
	id, errs := p.ParseEquation()
	return a, id, errs
}

func TestEmptyInputReturnsNoNode(t *testing.T) {
	_, id, errs := parse(t, "   ")
	if id != ast.NoNode {
		t.Fatalf("expected NoNode for empty input, got %v", id)
	}
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestPrecedenceClimbing(t *testing.T) {
	a, id, errs := parse(t, "1 + 2 * 3")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	n := a.Get(id)
	if n.Kind != ast.KindOp2 || n.Op2 != ast.Op2Add {
		t.Fatalf("expected top-level +, got %+v", n)
	}
	rhs := a.Get(n.R)
	if rhs.Kind != ast.KindOp2 || rhs.Op2 != ast.Op2Mul {
		t.Fatalf("expected 2*3 grouped on the rhs, got %+v", rhs)
	}
}

func TestPowerIsRightAssociative(t *testing.T) {
	a, id, _ := parse(t, "2 ^ 3 ^ 2")
	n := a.Get(id)
	if n.Kind != ast.KindOp2 || n.Op2 != ast.Op2Pow {
		t.Fatalf("expected ^ at top, got %+v", n)
	}
	if a.Get(n.L).Kind != ast.KindConst {
		t.Fatalf("left of outer ^ should be the literal 2")
	}
	rhs := a.Get(n.R)
	if rhs.Kind != ast.KindOp2 || rhs.Op2 != ast.Op2Pow {
		t.Fatalf("expected 3^2 grouped on the rhs (right-assoc), got %+v", rhs)
	}
}

func TestOrAndComparisonPrecedence(t *testing.T) {
	a, id, _ := parse(t, "a > 1 and b > 2 or c")
	n := a.Get(id)
	if n.Kind != ast.KindOp2 || n.Op2 != ast.Op2Or {
		t.Fatalf("expected top-level or, got %+v", n)
	}
	lhs := a.Get(n.L)
	if lhs.Kind != ast.KindOp2 || lhs.Op2 != ast.Op2And {
		t.Fatalf("expected (a>1 and b>2) grouped under or, got %+v", lhs)
	}
}

func TestIfThenElse(t *testing.T) {
	a, id, errs := parse(t, "if a > 0 then 1 else 0")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	n := a.Get(id)
	if n.Kind != ast.KindIf {
		t.Fatalf("expected If node, got %+v", n)
	}
}

func TestFunctionCall(t *testing.T) {
	a, id, errs := parse(t, "smth1(input, 5, 0)")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	n := a.Get(id)
	if n.Kind != ast.KindApp || n.Name != "smth1" || len(n.Args) != 3 {
		t.Fatalf("expected App(smth1, 3 args), got %+v", n)
	}
}

func TestSubscript(t *testing.T) {
	a, id, errs := parse(t, "population[region, 1]")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	n := a.Get(id)
	if n.Kind != ast.KindSubscript || n.Name != "population" || len(n.Args) != 2 {
		t.Fatalf("expected Subscript(population, 2 idx), got %+v", n)
	}
}

func TestUnaryPrecedenceVsPower(t *testing.T) {
	// unary binds looser than ^, so -x^2 == -(x^2)
	a, id, _ := parse(t, "-x^2")
	n := a.Get(id)
	if n.Kind != ast.KindOp1 || n.Op1 != ast.Op1Negate {
		t.Fatalf("expected top-level unary minus, got %+v", n)
	}
	kid := a.Get(n.Kid)
	if kid.Kind != ast.KindOp2 || kid.Op2 != ast.Op2Pow {
		t.Fatalf("expected x^2 under the unary minus, got %+v", kid)
	}
}

func TestUnexpectedTokenProducesSpanError(t *testing.T) {
	_, _, errs := parse(t, "1 + ")
	if len(errs) == 0 {
		t.Fatalf("expected a parse error for trailing operator")
	}
}

func TestQuotedIdentifierParsesAsVar(t *testing.T) {
	a, id, errs := parse(t, `"my var" + 1`)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	n := a.Get(id)
	if n.Kind != ast.KindOp2 {
		t.Fatalf("expected Op2, got %+v", n)
	}
	if a.Get(n.L).Name != "my var" {
		t.Fatalf("expected Var(\"my var\"), got %+v", a.Get(n.L))
	}
}
