// Package builtinrw implements the builtin-visitor: it walks an
// equation's AST and rewrites the five implicit higher-order builtins
// (smth1, smth3, delay1, delay3, trend) into explicit submodule
// instantiations against the embedded stdlib (internal/stdlib).
//
// It uses a central-registry-plus-dispatch shape: one map keyed by
// name, where the registry holds rewrite specs instead of runtime
// implementations, since this visitor runs at compile time, not at
// evaluation time.
package builtinrw

import (
	"fmt"

	"github.com/sunholo/simlin/internal/ast"
	"github.com/sunholo/simlin/internal/datamodel"
)

// Spec describes how one higher-order builtin is rewritten into a stdlib
// module instantiation.
type Spec struct {
	StdlibModel string   // e.g. "smth1" -> resolved to "stdlib·smth1"
	Inputs      []string // stdlib model's fixed input names, in argument order
	MinArgs     int
	MaxArgs     int
}

// Registry is the closed set of rewritable higher-order builtins.
var Registry = map[string]Spec{
	"smth1":  {"smth1", []string{"input", "delay_time", "initial_value"}, 2, 3},
	"smth3":  {"smth3", []string{"input", "delay_time", "initial_value"}, 2, 3},
	"delay1": {"delay1", []string{"input", "delay_time", "initial_value"}, 2, 3},
	"delay3": {"delay3", []string{"input", "delay_time", "initial_value"}, 2, 3},
	"trend":  {"trend", []string{"input", "avg_time", "initial_trend"}, 2, 3},
}

// StdlibPrefix isolates stdlib model names from project model names:
// model names are prefixed stdlib· internally.
const StdlibPrefix = "stdlib·"

// ErrorCode enumerates builtin-visitor error conditions.
type ErrorCode string

const (
	ErrUnknownBuiltin ErrorCode = "BLT001"
	ErrBadBuiltinArgs ErrorCode = "BLT002"
)

// Error is a span-tagged builtin-visitor error.
type Error struct {
	Code    ErrorCode
	Message string
	Loc     ast.Loc
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

// Result collects what Rewrite produced for one variable's equation.
type Result struct {
	Root       ast.NodeID
	Companions []datamodel.Variable // synthetic aux vars for non-bare-variable args
	Modules    []datamodel.Variable // synthetic Module vars instantiating the stdlib
	Errors     []*Error
}

// knownFunctionNames are non-rewritable builtins: seeing one of these in an
// App node is not an UnknownBuiltin error, just not this visitor's concern
// (the bytecode compiler resolves them against its own closed Apply table).
var knownFunctionNames = map[string]bool{
	"min": true, "max": true, "abs": true, "exp": true, "ln": true, "log10": true,
	"sqrt": true, "sin": true, "cos": true, "tan": true, "arctan": true, "int": true,
	"inf": true, "pi": true, "time": true, "dt": true, "start_time": true,
	"final_time": true, "saveper": true, "step": true, "pulse": true, "ramp": true,
	"integ": true, "random_uniform": true, "random_normal": true,
	"lookup": true, "lookup_forward": true, "lookup_backward": true,
}

// Rewrite walks root (owned by arena), rewriting every smth1/smth3/delay1/
// delay3/trend call it finds, and returns the (possibly mutated in place)
// root plus the new companion/module variables to splice into the model.
// varName must already be canonical.
func Rewrite(arena *ast.Arena, varName string, root ast.NodeID) Result {
	v := &visitor{arena: arena, varName: varName}
	newRoot := v.process(root)
	return Result{Root: newRoot, Companions: v.companions, Modules: v.modules, Errors: v.errors}
}

type visitor struct {
	arena      *ast.Arena
	varName    string
	counter    int
	companions []datamodel.Variable
	modules    []datamodel.Variable
	errors     []*Error
}

// process rewrites id's children first (so nested builtins are expanded
// before an outer synthesized companion's equation text is printed), then
// checks whether id itself is a rewritable builtin call.
func (v *visitor) process(id ast.NodeID) ast.NodeID {
	if id == ast.NoNode {
		return id
	}
	n := v.arena.Get(id)
	switch n.Kind {
	case ast.KindApp:
		for _, c := range n.Args {
			v.process(c)
		}
		if spec, ok := Registry[n.Name]; ok {
			return v.rewriteCall(id, spec)
		}
		if !knownFunctionNames[n.Name] {
			v.errors = append(v.errors, &Error{ErrUnknownBuiltin, "unknown function " + n.Name, n.Loc})
		}
		return id
	case ast.KindSubscript:
		for _, c := range n.Args {
			v.process(c)
		}
	case ast.KindOp1:
		v.process(n.Kid)
	case ast.KindOp2:
		v.process(n.L)
		v.process(n.R)
	case ast.KindIf:
		v.process(n.Cond)
		v.process(n.Then)
		v.process(n.Else)
	}
	return id
}

func (v *visitor) rewriteCall(id ast.NodeID, spec Spec) ast.NodeID {
	n := *v.arena.Get(id) // copy: Replace below will overwrite this slot
	if len(n.Args) < spec.MinArgs || len(n.Args) > spec.MaxArgs {
		v.errors = append(v.errors, &Error{ErrBadBuiltinArgs,
			fmt.Sprintf("%s expects %d-%d arguments, got %d", n.Name, spec.MinArgs, spec.MaxArgs, len(n.Args)), n.Loc})
		return id
	}

	v.counter++
	modIdent := fmt.Sprintf("$·%s·%d·%s", v.varName, v.counter, n.Name)

	var bindings []datamodel.ModuleBinding
	for i, inputName := range spec.Inputs {
		var src string
		if i < len(n.Args) {
			src = v.argSource(n.Args[i], i)
		} else {
			// Optional initial_value/initial_trend defaults to the input
			// arg's source, reusing its companion rather than minting a
			// second one under the same identifier.
			src = bindings[0].Src
		}
		bindings = append(bindings, datamodel.ModuleBinding{
			Src: src,
			Dst: modIdent + "." + inputName,
		})
	}

	v.modules = append(v.modules, datamodel.Variable{
		Kind: datamodel.VarModule, Ident: modIdent,
		ModelName: StdlibPrefix + spec.StdlibModel,
		Bindings:  bindings,
	})

	v.arena.Replace(id, ast.Node{Kind: ast.KindVar, Name: modIdent + ".output"})
	return id
}

// argSource returns the canonical identifier to bind a module input to: the
// argument itself if it is already a bare variable reference, or a freshly
// synthesized companion aux variable's identifier otherwise.
func (v *visitor) argSource(argID ast.NodeID, argIndex int) string {
	n := v.arena.Get(argID)
	if n.Kind == ast.KindVar {
		return n.Name
	}

	companionIdent := fmt.Sprintf("$·%s·%d·arg%d", v.varName, v.counter, argIndex)
	v.companions = append(v.companions, datamodel.Variable{
		Kind:     datamodel.VarAux,
		Ident:    companionIdent,
		Equation: eqPtr(datamodel.ScalarEquation(ast.Print(v.arena, argID))),
	})
	return companionIdent
}

func eqPtr(e datamodel.Equation) *datamodel.Equation { return &e }
