package bytecode

import (
	"testing"

	"github.com/sunholo/simlin/internal/ast"
)

func TestVerifyAcceptsSimpleArithmetic(t *testing.T) {
	// births - deaths
	instrs := []Instr{
		{Op: OpLoadVar, Offset: 0},
		{Op: OpLoadVar, Offset: 1},
		{Op: OpOp2, Op2Kind: ast.Op2Sub},
		{Op: OpSetCur, Offset: 2},
		{Op: OpReturn},
	}
	if rep := Verify(instrs, 8); rep != nil {
		t.Fatalf("unexpected rejection: %v", rep)
	}
}

func TestVerifyRejectsUnderflow(t *testing.T) {
	instrs := []Instr{
		{Op: OpOp2, Op2Kind: ast.Op2Add},
		{Op: OpReturn},
	}
	rep := Verify(instrs, 8)
	if rep == nil {
		t.Fatalf("expected an underflow rejection")
	}
}

func TestVerifyRejectsExceedingCapacity(t *testing.T) {
	var instrs []Instr
	for i := 0; i < 5; i++ {
		instrs = append(instrs, Instr{Op: OpLoadConst, Const: int32(i)})
	}
	instrs = append(instrs, Instr{Op: OpReturn})
	if rep := Verify(instrs, 3); rep == nil {
		t.Fatalf("expected a capacity rejection for depth 5 against capacity 3")
	}
}

func TestVerifyIfConsumesThreeProducesOne(t *testing.T) {
	instrs := []Instr{
		{Op: OpLoadConst, Const: 0}, // then-value
		{Op: OpLoadConst, Const: 1}, // else-value
		{Op: OpLoadConst, Const: 2}, // cond
		{Op: OpIf},
		{Op: OpSetCur, Offset: 0},
		{Op: OpReturn},
	}
	if rep := Verify(instrs, 4); rep != nil {
		t.Fatalf("unexpected rejection: %v", rep)
	}
}
