package bytecode

import (
	"fmt"

	"github.com/sunholo/simlin/internal/errors"
)

// Verify computes a runlist's maximum stack depth without executing it and
// rejects it if that depth would exceed capacity, since the VM stack has a
// fixed, compile-time-verified capacity. It also rejects a runlist that
// underflows (an instruction would pop more values than are on the stack)
// — both indicate a compiler bug, not a user error, so they are reported
// as CMP001 just like a capacity overflow.
func Verify(instrs []Instr, capacity int32) *errors.Report {
	depth := 0
	maxDepth := 0
	for i, in := range instrs {
		if in.Op == OpReturn {
			continue
		}
		popped := popCount(in)
		if popped > depth {
			return &errors.Report{
				Kind: errors.KindSimulation, Code: errors.CMP001, Phase: "bytecode",
				Message: fmt.Sprintf("instruction %d (%s) underflows the stack", i, in.Op),
			}
		}
		depth += in.stackEffect()
		if depth > maxDepth {
			maxDepth = depth
		}
	}
	if int32(maxDepth) > capacity {
		return &errors.Report{
			Kind: errors.KindSimulation, Code: errors.CMP001, Phase: "bytecode",
			Message: fmt.Sprintf("runlist requires stack depth %d, capacity is %d", maxDepth, capacity),
		}
	}
	return nil
}

// popCount returns how many values an instruction consumes from the
// stack, derived from the same per-opcode arity Instr.stackEffect uses.
func popCount(in Instr) int {
	switch in.Op {
	case OpLoadConst, OpLoadVar, OpLoadModuleInput:
		return 0
	case OpLoadSubscript:
		return len(in.Strides)
	case OpSetCur, OpAssignCurr, OpOp1, OpLookup:
		return 1
	case OpAssignNext:
		return 0
	case OpOp2:
		return 2
	case OpApply:
		return int(in.Arity)
	case OpIf:
		return 3
	default:
		return 0
	}
}
