// Package varbuild implements the variable builder: for each source
// variable, parse its equation(s) to an AST, run the builtin-visitor
// over that AST, and collect the set of canonical identifiers it
// directly depends on — tracked separately for a stock's initial value
// versus its dt (per-step) computation, since the integration step
// depends only on flow values, not the stock's own current value, which
// is what breaks the would-be self-loop.
package varbuild

import (
	"strconv"

	"github.com/sunholo/simlin/internal/ast"
	"github.com/sunholo/simlin/internal/builtinrw"
	"github.com/sunholo/simlin/internal/datamodel"
	"github.com/sunholo/simlin/internal/errors"
	"github.com/sunholo/simlin/internal/ident"
	"github.com/sunholo/simlin/internal/lexer"
	"github.com/sunholo/simlin/internal/modelanalysis"
	"github.com/sunholo/simlin/internal/parser"
)

// Built is one variable's parsed, builtin-rewritten form, ready for model
// analysis and bytecode lowering.
type Built struct {
	Ident   string
	IsStock bool
	Arena   *ast.Arena

	// DtRoot is nil for stocks: a stock has no per-step expression of its
	// own, only AssignNext driven by its inflow/outflow sum.
	DtRoot ast.NodeID
	// InitialRoot is the stock's initial-value expression for stocks, or
	// the same as DtRoot for every other kind.
	InitialRoot ast.NodeID

	Inflows     []string
	Outflows    []string
	NonNegative bool

	Info modelanalysis.VarInfo

	// NewVars holds the companion aux/module variables the builtin-visitor
	// synthesized while rewriting this variable's equation(s); the caller
	// splices these into the model and builds them too.
	NewVars []datamodel.Variable
}

// Build parses and builtin-rewrites one variable. ident must already be
// canonical (the caller resolves raw source identifiers to canonical form
// before calling Build).
func Build(v datamodel.Variable) (*Built, []*errors.Report) {
	switch v.Kind {
	case datamodel.VarStock:
		return buildStock(v)
	case datamodel.VarModule:
		return buildModule(v)
	default:
		return buildExpr(v)
	}
}

func buildExpr(v datamodel.Variable) (*Built, []*errors.Report) {
	if v.Equation == nil || v.Equation.Kind != datamodel.EqScalar {
		// ApplyToAll/Arrayed equations are parsed per-element by the
		// caller, which invokes Build once per synthesized scalar
		// equation; an empty equation has no dependencies at all.
		return &Built{Ident: v.Ident, Arena: ast.NewArena(), Info: modelanalysis.VarInfo{Ident: v.Ident}}, nil
	}

	arena, root, reports := parseEquation(v.Equation.Scalar)
	if len(reports) > 0 {
		return nil, reports
	}

	res := builtinrw.Rewrite(arena, v.Ident, root)
	var rwReports []*errors.Report
	for _, e := range res.Errors {
		rwReports = append(rwReports, &errors.Report{
			Kind: errors.KindVariable, Code: string(e.Code), Phase: "builtinrw", Message: e.Message,
			Ident: v.Ident, Span: &errors.Span{Start: e.Loc.Start, End: e.Loc.End},
		})
	}
	if len(rwReports) > 0 {
		return nil, rwReports
	}

	deps := directDeps(arena, res.Root)
	return &Built{
		Ident: v.Ident, Arena: arena, DtRoot: res.Root, InitialRoot: res.Root,
		Info:    modelanalysis.VarInfo{Ident: v.Ident, InitialDeps: deps, DtDeps: deps},
		NewVars: append(res.Companions, res.Modules...),
	}, nil
}

func buildStock(v datamodel.Variable) (*Built, []*errors.Report) {
	if v.InitialEquation == nil || v.InitialEquation.Kind != datamodel.EqScalar {
		return nil, []*errors.Report{{
			Kind: errors.KindVariable, Code: errors.VAR001, Phase: "varbuild",
			Message: "stock is missing a scalar initial equation", Ident: v.Ident,
		}}
	}

	arena, root, reports := parseEquation(v.InitialEquation.Scalar)
	if len(reports) > 0 {
		return nil, reports
	}
	res := builtinrw.Rewrite(arena, v.Ident, root)
	if len(res.Errors) > 0 {
		return nil, wrapBuiltinErrors(v.Ident, res.Errors)
	}

	initDeps := directDeps(arena, res.Root)
	return &Built{
		Ident: v.Ident, IsStock: true, Arena: arena, InitialRoot: res.Root,
		Inflows: v.Inflows, Outflows: v.Outflows, NonNegative: v.NonNegative,
		Info:    modelanalysis.VarInfo{Ident: v.Ident, IsStock: true, InitialDeps: initDeps},
		NewVars: append(res.Companions, res.Modules...),
	}, nil
}

func buildModule(v datamodel.Variable) (*Built, []*errors.Report) {
	var deps []string
	for _, b := range v.Bindings {
		raw, err := rawIdentInBinding(b.Src)
		if err != nil {
			continue
		}
		deps = append(deps, raw)
	}
	return &Built{
		Ident: v.Ident, Arena: ast.NewArena(),
		Info: modelanalysis.VarInfo{Ident: v.Ident, InitialDeps: deps, DtDeps: deps},
	}, nil
}

// rawIdentInBinding returns a binding source's canonical identifier form;
// an empty or numeric-literal source contributes no dependency. Any other
// source, an expression included, is canonicalized as if it were an
// identifier. Builtin-rewritten modules only ever bind bare identifiers
// (the builtin-visitor promotes every other argument into a companion aux
// variable), so literals and expressions only reach here from
// hand-authored modules.
func rawIdentInBinding(src string) (string, error) {
	if src == "" {
		return "", errNotIdent
	}
	if _, err := strconv.ParseFloat(src, 64); err == nil {
		return "", errNotIdent
	}
	c := ident.Canonicalize(ident.Raw(src))
	return string(c), nil
}

var errNotIdent = &identError{"empty binding source"}

type identError struct{ msg string }

func (e *identError) Error() string { return e.msg }

func parseEquation(src string) (*ast.Arena, ast.NodeID, []*errors.Report) {
	arena := ast.NewArena()
	l := lexer.New(src, lexer.EquationMode)
	p := parser.New(l, arena)
	root, errs := p.ParseEquation()
	if len(errs) > 0 {
		var reports []*errors.Report
		for _, e := range errs {
			reports = append(reports, &errors.Report{
				Kind: errors.KindVariable, Code: string(e.Code), Phase: "parse", Message: e.Message,
				Span: &errors.Span{Start: e.Start, End: e.End},
			})
		}
		return nil, 0, reports
	}
	return arena, root, nil
}

func wrapBuiltinErrors(varIdent string, errs []*builtinrw.Error) []*errors.Report {
	var reports []*errors.Report
	for _, e := range errs {
		reports = append(reports, &errors.Report{
			Kind: errors.KindVariable, Code: string(e.Code), Phase: "builtinrw", Message: e.Message,
			Ident: varIdent, Span: &errors.Span{Start: e.Loc.Start, End: e.Loc.End},
		})
	}
	return reports
}

// directDeps walks root, collecting the set of canonical identifiers
// referenced by a Var or Subscript node.
func directDeps(arena *ast.Arena, root ast.NodeID) []string {
	seen := make(map[string]bool)
	var deps []string
	ast.Walk(arena, root, func(id ast.NodeID) {
		n := arena.Get(id)
		if n.Kind == ast.KindVar || n.Kind == ast.KindSubscript {
			// A builtin-rewritten call's output reference looks like
			// "$·ident·n·name.output"; the module variable it names is a
			// direct dependency, same as any other identifier.
			if !seen[n.Name] {
				seen[n.Name] = true
				deps = append(deps, n.Name)
			}
		}
	})
	return deps
}
