package vm

import (
	"math"

	"github.com/sunholo/simlin/internal/ast"
	"github.com/sunholo/simlin/internal/bytecode"
	"github.com/sunholo/simlin/internal/errors"
)

// touchedModule records one module instance's compiled definition and its
// absolute base in the shared slab, discovered while executing a Dt pass.
type touchedModule struct {
	def  *bytecode.CompiledModule
	base int32
}

func (m *Vm) push(v float64) {
	m.stack[m.sp] = v
	m.sp++
}

func (m *Vm) pop() float64 {
	m.sp--
	return m.stack[m.sp]
}

// execModule runs one compiled module's Initials or Dt instruction
// sequence at base, recursing into every nested EvalModule/
// EvalInitialModule instruction it reaches (internal/bytecode's
// addressing scheme: Instr.Offset is local to def, base is added by the
// caller before every slab access).
func (m *Vm) execModule(def *bytecode.CompiledModule, base int32, initial bool) error {
	instrs := def.Dt
	if initial {
		instrs = def.Initials
	}
	for _, in := range instrs {
		switch in.Op {
		case bytecode.OpLoadConst:
			m.push(def.Consts[in.Const])

		case bytecode.OpLoadVar:
			m.push(m.slab[base+in.Offset])

		case bytecode.OpLoadModuleInput:
			m.push(m.slab[base+def.InputOffsets[in.InputIndex]])

		case bytecode.OpLoadSubscript:
			addr := base + in.Offset
			// Index values were pushed left to right; pop them back in
			// reverse to recover the original (idx0, idx1, ...) order.
			idx := m.scratch[:len(in.Strides)]
			for i := len(idx) - 1; i >= 0; i-- {
				idx[i] = m.pop()
			}
			for i, stride := range in.Strides {
				addr += int32(idx[i]) * stride
			}
			m.push(m.slab[addr])

		case bytecode.OpSetCur, bytecode.OpAssignCurr:
			m.slab[base+in.Offset] = m.pop()

		case bytecode.OpOp2:
			b := m.pop()
			a := m.pop()
			m.push(m.evalOp2(in.Op2Kind, a, b))

		case bytecode.OpOp1:
			a := m.pop()
			m.push(evalOp1(in.Op1Kind, a))

		case bytecode.OpApply:
			args := m.scratch[:in.Arity]
			for i := int32(len(args)) - 1; i >= 0; i-- {
				args[i] = m.pop()
			}
			m.push(m.applyBuiltin(in.Builtin, args))

		case bytecode.OpLookup:
			x := m.pop()
			m.push(m.evalLookup(def.Lookups[in.LookupID], x, in.LookupMode))

		case bytecode.OpIf:
			cond := m.pop()
			elseVal := m.pop()
			thenVal := m.pop()
			if cond != 0 {
				m.push(thenVal)
			} else {
				m.push(elseVal)
			}

		case bytecode.OpEvalModule, bytecode.OpEvalInitialModule:
			child, ok := m.sim.Modules[in.ModuleKey]
			if !ok {
				return &errors.ReportError{Rep: &errors.Report{
					Kind: errors.KindSimulation, Code: errors.CMP002, Phase: "runtime",
					Message: "unknown compiled module: " + in.ModuleKey,
				}}
			}
			childBase := base + in.Offset
			m.touched = append(m.touched, touchedModule{def: child, base: childBase})
			if err := m.execModule(child, childBase, in.Op == bytecode.OpEvalInitialModule); err != nil {
				return err
			}

		case bytecode.OpAssignNext:
			// Never emitted by internal/compiler: stock integration is
			// driven directly from CompiledModule.Stocks metadata after
			// the full Dt graph finishes (see Vm.Step).

		case bytecode.OpReturn:
			return nil
		}
	}
	return nil
}

func (m *Vm) evalOp2(op ast.Op2Kind, a, b float64) float64 {
	switch op {
	case ast.Op2Add:
		return a + b
	case ast.Op2Sub:
		return a - b
	case ast.Op2Mul:
		return a * b
	case ast.Op2Div:
		if b == 0 {
			m.diagnose(errors.RUN001, "", "division by zero")
			return math.NaN()
		}
		return a / b
	case ast.Op2Mod:
		if b == 0 {
			m.diagnose(errors.RUN001, "", "modulo by zero")
			return math.NaN()
		}
		return math.Mod(a, b)
	case ast.Op2Pow:
		r := math.Pow(a, b)
		if math.IsNaN(r) {
			m.diagnose(errors.RUN002, "", "NaN result from ^")
		}
		return r
	case ast.Op2Eq:
		return boolf(a == b)
	case ast.Op2Neq:
		return boolf(a != b)
	case ast.Op2Lt:
		return boolf(a < b)
	case ast.Op2Gt:
		return boolf(a > b)
	case ast.Op2Lte:
		return boolf(a <= b)
	case ast.Op2Gte:
		return boolf(a >= b)
	case ast.Op2And:
		return boolf(a != 0 && b != 0)
	case ast.Op2Or:
		return boolf(a != 0 || b != 0)
	default:
		return math.NaN()
	}
}

func evalOp1(op ast.Op1Kind, a float64) float64 {
	switch op {
	case ast.Op1Negate:
		return -a
	case ast.Op1Not:
		return boolf(a == 0)
	case ast.Op1Positive:
		return a
	default:
		return a
	}
}

func boolf(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
