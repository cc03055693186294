package compiler

import (
	"strings"

	"github.com/sunholo/simlin/internal/ast"
	"github.com/sunholo/simlin/internal/bytecode"
	"github.com/sunholo/simlin/internal/datamodel"
	"github.com/sunholo/simlin/internal/errors"
)

// nestedModule is one Module variable's compiled target, placed at a local
// sub-base within the enclosing definition's own offset numbering (see
// bytecode.CompiledSimulation's doc comment for the addressing scheme).
type nestedModule struct {
	SubBase int32
	Def     *bytecode.CompiledModule
	DefKey  string
}

// lowerCtx is the state threaded through codegen for a single model
// definition: where every local variable and nested module instance lives
// in this definition's own local slab numbering, and the constant/lookup
// pools being built up alongside the instruction stream.
type lowerCtx struct {
	modelName string
	ident     string // not used beyond diagnostics

	offsets    map[string]int32 // local vars, by canonical ident
	inputIndex map[string]int32 // this def's own declared inputs -> LoadModuleInput index
	modules    map[string]nestedModule

	consts  []float64
	lookups []datamodel.GraphicalFunction

	errs []*errors.Report
}

func (c *lowerCtx) reportf(code, ident, msg string) {
	c.errs = append(c.errs, &errors.Report{
		Kind: errors.KindVariable, Code: code, Phase: "compile", Message: msg, Ident: ident,
	})
}

func (c *lowerCtx) addConst(v float64) int32 {
	c.consts = append(c.consts, v)
	return int32(len(c.consts) - 1)
}

func (c *lowerCtx) addLookup(gf datamodel.GraphicalFunction) int32 {
	c.lookups = append(c.lookups, gf)
	return int32(len(c.lookups) - 1)
}

// resolveIdentLoad lowers a bare reference to name - a local variable, one
// of this definition's own inputs, or a "<module>.<child-var>" reference
// into a nested instance - to the instruction(s) that push its value.
func (c *lowerCtx) resolveIdentLoad(name string) []bytecode.Instr {
	for modIdent, nm := range c.modules {
		prefix := modIdent + "."
		if strings.HasPrefix(name, prefix) {
			child := name[len(prefix):]
			off, ok := nm.Def.Offsets[child]
			if !ok {
				c.reportf(errors.MDL002, name, "module "+modIdent+" has no variable "+child)
				return []bytecode.Instr{{Op: bytecode.OpLoadConst, Const: c.addConst(0)}}
			}
			return []bytecode.Instr{{Op: bytecode.OpLoadVar, Offset: nm.SubBase + off}}
		}
	}
	if idx, ok := c.inputIndex[name]; ok {
		return []bytecode.Instr{{Op: bytecode.OpLoadModuleInput, InputIndex: idx}}
	}
	if off, ok := c.offsets[name]; ok {
		return []bytecode.Instr{{Op: bytecode.OpLoadVar, Offset: off}}
	}
	c.reportf(errors.MDL002, name, "unknown identifier: "+name)
	return []bytecode.Instr{{Op: bytecode.OpLoadConst, Const: c.addConst(0)}}
}

// lowerExpr compiles one equation AST node to the instruction sequence
// that leaves its value on top of the stack.
func (c *lowerCtx) lowerExpr(arena *ast.Arena, id ast.NodeID) []bytecode.Instr {
	n := arena.Get(id)
	switch n.Kind {
	case ast.KindConst:
		return []bytecode.Instr{{Op: bytecode.OpLoadConst, Const: c.addConst(n.Value)}}

	case ast.KindVar:
		return c.resolveIdentLoad(n.Name)

	case ast.KindSubscript:
		return c.lowerSubscript(arena, n)

	case ast.KindOp1:
		instrs := c.lowerExpr(arena, n.Kid)
		return append(instrs, bytecode.Instr{Op: bytecode.OpOp1, Op1Kind: n.Op1})

	case ast.KindOp2:
		instrs := c.lowerExpr(arena, n.L)
		instrs = append(instrs, c.lowerExpr(arena, n.R)...)
		return append(instrs, bytecode.Instr{Op: bytecode.OpOp2, Op2Kind: n.Op2})

	case ast.KindIf:
		// Both branches evaluate unconditionally, in program order Then,
		// Else, Cond: there is no jump opcode, so the runlist stays
		// straight-line (see bytecode.Op's doc comment).
		var instrs []bytecode.Instr
		instrs = append(instrs, c.lowerExpr(arena, n.Then)...)
		instrs = append(instrs, c.lowerExpr(arena, n.Else)...)
		instrs = append(instrs, c.lowerExpr(arena, n.Cond)...)
		return append(instrs, bytecode.Instr{Op: bytecode.OpIf})

	case ast.KindApp:
		var instrs []bytecode.Instr
		for _, a := range n.Args {
			instrs = append(instrs, c.lowerExpr(arena, a)...)
		}
		return append(instrs, bytecode.Instr{Op: bytecode.OpApply, Builtin: n.Name, Arity: int32(len(n.Args))})

	default:
		c.reportf(errors.CMP002, "", "unsupported expression node")
		return []bytecode.Instr{{Op: bytecode.OpLoadConst, Const: c.addConst(0)}}
	}
}

// lowerSubscript resolves an explicit var[idx,...] reference. Every index
// must be a literal element-name identifier matching one of the target
// array's expanded siblings (expand.go flattens each array element into
// its own scalar variable "base[e1,e2]"); this compiler does not support a
// computed/dynamic subscript expression, a deliberate scope limit recorded
// in DESIGN.md. Supporting one would mean emitting bytecode.OpLoadSubscript
// with the index values' own lowered expressions instead of resolving the
// element at compile time.
func (c *lowerCtx) lowerSubscript(arena *ast.Arena, n *ast.Node) []bytecode.Instr {
	elems := make([]string, 0, len(n.Args))
	for _, a := range n.Args {
		arg := arena.Get(a)
		if arg.Kind != ast.KindVar {
			c.reportf(errors.CMP002, n.Name, "dynamic subscript expressions are not supported")
			return []bytecode.Instr{{Op: bytecode.OpLoadConst, Const: c.addConst(0)}}
		}
		elems = append(elems, arg.Name)
	}
	fullIdent := elementIdent(n.Name, strings.Join(elems, ","))
	return c.resolveIdentLoad(fullIdent)
}
