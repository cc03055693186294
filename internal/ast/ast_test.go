package ast

import "testing"

func TestArenaConstructors(t *testing.T) {
	a := NewArena()
	x := a.Var("x", Loc{0, 1})
	c := a.Const("2", 2, Loc{4, 5})
	sum := a.BinaryOp(Op2Add, x, c, Loc{0, 5})

	n := a.Get(sum)
	if n.Kind != KindOp2 || n.Op2 != Op2Add {
		t.Fatalf("expected Op2Add node, got %+v", n)
	}
	if a.Get(n.L).Name != "x" {
		t.Fatalf("left child should be Var(x)")
	}
	if a.Get(n.R).Value != 2 {
		t.Fatalf("right child should be Const(2)")
	}
}

func TestWalkVisitsEveryNode(t *testing.T) {
	a := NewArena()
	x := a.Var("x", Loc{})
	y := a.Var("y", Loc{})
	call := a.App("abs", []NodeID{a.BinaryOp(Op2Sub, x, y, Loc{})}, Loc{})

	seen := map[NodeID]bool{}
	Walk(a, call, func(id NodeID) { seen[id] = true })
	if len(seen) != 4 { // call, sub, x, y
		t.Fatalf("expected 4 visited nodes, got %d", len(seen))
	}
}

func TestReplacePreservesLoc(t *testing.T) {
	a := NewArena()
	loc := Loc{Start: 3, End: 9}
	id := a.App("smth1", nil, loc)
	a.Replace(id, Node{Kind: KindVar, Name: "$smth1_1.output"})

	got := a.Get(id)
	if got.Kind != KindVar || got.Name != "$smth1_1.output" {
		t.Fatalf("replace did not apply new node data: %+v", got)
	}
	if got.Loc != loc {
		t.Fatalf("replace must preserve original span, got %+v", got.Loc)
	}
}

func TestPrintRoundTripsPrecedence(t *testing.T) {
	a := NewArena()
	// (a + b) * c must re-print with parens; a + (b * c) must not.
	add := a.BinaryOp(Op2Add, a.Var("a", Loc{}), a.Var("b", Loc{}), Loc{})
	mul := a.BinaryOp(Op2Mul, add, a.Var("c", Loc{}), Loc{})
	got := Print(a, mul)
	want := "(a + b) * c"
	if got != want {
		t.Fatalf("Print() = %q, want %q", got, want)
	}
}

func TestEqualIgnoresLoc(t *testing.T) {
	a1 := NewArena()
	e1 := a1.BinaryOp(Op2Add, a1.Var("x", Loc{0, 1}), a1.Const("1", 1, Loc{4, 5}), Loc{0, 5})

	a2 := NewArena()
	e2 := a2.BinaryOp(Op2Add, a2.Var("x", Loc{100, 101}), a2.Const("1", 1, Loc{104, 105}), Loc{100, 105})

	if !Equal(a1, e1, a2, e2) {
		t.Fatalf("expected structural equality ignoring spans")
	}
}
