package builtinrw

import (
	"testing"

	"github.com/sunholo/simlin/internal/ast"
	"github.com/sunholo/simlin/internal/datamodel"
)

func TestRewriteBareArgsProducesNoCompanions(t *testing.T) {
	a := ast.NewArena()
	input := a.Var("inflow", ast.Loc{})
	delay := a.Var("transit_time", ast.Loc{})
	call := a.App("delay1", []ast.NodeID{input, delay}, ast.Loc{})

	res := Rewrite(a, "outflow", call)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(res.Companions) != 0 {
		t.Fatalf("expected no companions for bare-variable args, got %d", len(res.Companions))
	}
	if len(res.Modules) != 1 {
		t.Fatalf("expected exactly one module var, got %d", len(res.Modules))
	}
	mod := res.Modules[0]
	if mod.ModelName != "stdlib·delay1" {
		t.Fatalf("expected stdlib·delay1, got %s", mod.ModelName)
	}
	if len(mod.Bindings) != 3 {
		t.Fatalf("expected 3 bindings (input, delay_time, initial_value), got %d", len(mod.Bindings))
	}
	if mod.Bindings[0].Src != "inflow" || mod.Bindings[1].Src != "transit_time" {
		t.Fatalf("unexpected bindings: %+v", mod.Bindings)
	}
	// Optional initial_value defaults to the input source.
	if mod.Bindings[2].Src != "inflow" {
		t.Fatalf("expected initial_value to default to input, got %s", mod.Bindings[2].Src)
	}

	root := a.Get(res.Root)
	if root.Kind != ast.KindVar || root.Name != mod.Ident+".output" {
		t.Fatalf("expected the call site replaced with a Var to %s.output, got %+v", mod.Ident, root)
	}
}

func TestRewriteInlineArgSynthesizesCompanion(t *testing.T) {
	a := ast.NewArena()
	two := a.Const("2", 2, ast.Loc{})
	rate := a.Var("rate", ast.Loc{})
	sum := a.BinaryOp(ast.Op2Add, rate, two, ast.Loc{})
	one := a.Const("1", 1, ast.Loc{})
	call := a.App("smth1", []ast.NodeID{sum, one}, ast.Loc{})

	res := Rewrite(a, "smoothed", call)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(res.Companions) != 2 {
		t.Fatalf("expected two companion auxes (the inline sum and the constant delay time), got %d", len(res.Companions))
	}
	comp := res.Companions[0]
	if comp.Kind != datamodel.VarAux || comp.Equation.Scalar != "rate + 2" {
		t.Fatalf("unexpected companion: %+v", comp)
	}
	if res.Modules[0].Bindings[0].Src != comp.Ident {
		t.Fatalf("expected input binding to reference the companion, got %s", res.Modules[0].Bindings[0].Src)
	}
}

func TestRewriteRejectsBadArgCount(t *testing.T) {
	a := ast.NewArena()
	only := a.Var("x", ast.Loc{})
	call := a.App("smth1", []ast.NodeID{only}, ast.Loc{})

	res := Rewrite(a, "y", call)
	if len(res.Errors) != 1 || res.Errors[0].Code != ErrBadBuiltinArgs {
		t.Fatalf("expected a BadBuiltinArgs error, got %v", res.Errors)
	}
	if len(res.Modules) != 0 {
		t.Fatalf("expected no module to be synthesized on error")
	}
}

func TestRewriteFlagsUnknownFunction(t *testing.T) {
	a := ast.NewArena()
	arg := a.Var("x", ast.Loc{})
	call := a.App("not_a_real_function", []ast.NodeID{arg}, ast.Loc{})

	res := Rewrite(a, "y", call)
	if len(res.Errors) != 1 || res.Errors[0].Code != ErrUnknownBuiltin {
		t.Fatalf("expected an UnknownBuiltin error, got %v", res.Errors)
	}
}

func TestRewriteNestedBuiltinsGetDistinctCounters(t *testing.T) {
	a := ast.NewArena()
	innerInput := a.Var("a", ast.Loc{})
	innerDelay := a.Var("b", ast.Loc{})
	inner := a.App("delay1", []ast.NodeID{innerInput, innerDelay}, ast.Loc{})
	outerDelay := a.Var("c", ast.Loc{})
	outer := a.App("smth1", []ast.NodeID{inner, outerDelay}, ast.Loc{})

	res := Rewrite(a, "z", outer)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(res.Modules) != 2 {
		t.Fatalf("expected two synthesized modules (inner delay1, outer smth1), got %d", len(res.Modules))
	}
	if res.Modules[0].Ident == res.Modules[1].Ident {
		t.Fatalf("expected distinct synthetic module idents, got %s twice", res.Modules[0].Ident)
	}
	// The outer module's input binding should point at the inner module's
	// output, since the inner call was rewritten first.
	if res.Modules[1].Bindings[0].Src != res.Modules[0].Ident+".output" {
		t.Fatalf("expected outer module to bind to inner module's output, got %s", res.Modules[1].Bindings[0].Src)
	}
}
