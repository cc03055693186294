// Package bytecode defines the stack-machine instruction set, and the
// compiled-module/compiled-simulation shapes internal/compiler produces
// and internal/vm executes.
package bytecode

import "github.com/sunholo/simlin/internal/ast"

// Op is one stack-machine instruction, a closed, iota-numbered set. There
// are no jump/branch opcodes: If evaluates both branches
// unconditionally and selects between the two already-computed values,
// which keeps every runlist a straight-line instruction sequence with a
// statically known maximum stack depth (see Verify).
type Op uint8

const (
	OpLoadConst Op = iota
	OpLoadVar
	OpLoadSubscript
	OpLoadModuleInput
	OpSetCur
	OpOp2
	OpOp1
	OpApply
	OpLookup
	OpIf
	OpEvalModule
	OpEvalInitialModule
	OpAssignCurr
	OpAssignNext
	OpReturn
)

func (o Op) String() string {
	switch o {
	case OpLoadConst:
		return "LoadConst"
	case OpLoadVar:
		return "LoadVar"
	case OpLoadSubscript:
		return "LoadSubscript"
	case OpLoadModuleInput:
		return "LoadModuleInput"
	case OpSetCur:
		return "SetCur"
	case OpOp2:
		return "Op2"
	case OpOp1:
		return "Op1"
	case OpApply:
		return "Apply"
	case OpLookup:
		return "Lookup"
	case OpIf:
		return "If"
	case OpEvalModule:
		return "EvalModule"
	case OpEvalInitialModule:
		return "EvalInitialModule"
	case OpAssignCurr:
		return "AssignCurr"
	case OpAssignNext:
		return "AssignNext"
	case OpReturn:
		return "Return"
	default:
		return "Unknown"
	}
}

// LookupMode selects how a Lookup instruction samples a graphical
// function outside or between its defined points.
type LookupMode uint8

const (
	LookupContinuous LookupMode = iota
	LookupDiscrete
	LookupExtrapolate
)

// Instr is one bytecode instruction. Only the fields relevant to Op are
// meaningful, mirroring internal/ast.Node's tagged-union-over-one-struct
// shape for the same reason: a flat []Instr slice needs no per-variant
// heap allocation or interface dispatch during execution.
type Instr struct {
	Op Op

	Const  int32 // LoadConst: constant pool index
	Offset int32 // LoadVar, LoadSubscript (base), SetCur, AssignCurr, AssignNext: slab offset

	Strides []int32 // LoadSubscript: one stride per subscript dimension; pops len(Strides) index values

	InputIndex int32 // LoadModuleInput: i-th bound input of the enclosing module

	Op2Kind ast.Op2Kind // Op2
	Op1Kind ast.Op1Kind // Op1

	Builtin string // Apply: builtin name, resolved against the VM's closed builtin table
	Arity   int32  // Apply: number of stack arguments to pop

	LookupID   int32      // Lookup: index into the owning module's Lookups table
	LookupMode LookupMode // Lookup

	ModuleKey string // EvalModule, EvalInitialModule: monomorphization key of the submodule to run
}

// stackEffect returns an instruction's net effect on stack height: how
// many values it leaves behind after popping its operands and pushing its
// result, used by Verify to compute a runlist's maximum depth without
// executing it.
func (in Instr) stackEffect() int {
	switch in.Op {
	case OpLoadConst, OpLoadVar, OpLoadModuleInput:
		return 1
	case OpLoadSubscript:
		return 1 - len(in.Strides)
	case OpSetCur, OpAssignCurr:
		return -1
	case OpAssignNext:
		// AssignNext takes no stack operand: the VM computes
		// curr + dt*(sum(inflows) - sum(outflows)) directly from the
		// owning CompiledModule's StockFlow metadata.
		return 0
	case OpOp2:
		return -1
	case OpOp1:
		return 0
	case OpApply:
		return 1 - int(in.Arity)
	case OpLookup:
		return 0
	case OpIf:
		return -2
	case OpEvalModule, OpEvalInitialModule, OpReturn:
		return 0
	default:
		return 0
	}
}
