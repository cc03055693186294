// Package compiler drives internal/varbuild, internal/modelanalysis, and
// internal/bytecode end to end: for each model a Project (or the embedded
// stdlib) names, it expands arrayed equations and builtin-rewrite
// companions to a fixed point, orders the result into the two run lists,
// and lowers every variable into a bytecode.CompiledModule.
package compiler

import (
	"sort"
	"strings"

	"github.com/sunholo/simlin/internal/datamodel"
	"github.com/sunholo/simlin/internal/errors"
	"github.com/sunholo/simlin/internal/varbuild"
)

// expandArrays turns one ApplyToAll/Arrayed Aux or Flow variable into one
// scalar variable per element combination. Stocks are never arrayed:
// varbuild.buildStock already rejects a
// non-scalar initial equation with VAR001, so there is nothing further to
// guard here. Module variables carry no Equation and pass through
// unchanged.
//
// Dependency tracking for the expanded siblings stays at whole-array
// granularity (see normalizeDeps) rather than resolving each element's
// exact cross-references: a conservative over-approximation that never
// misorders the run lists, only orders more coarsely than strictly
// necessary.
func expandArrays(m datamodel.Model, v datamodel.Variable) ([]datamodel.Variable, []*errors.Report) {
	if v.Equation == nil || (v.Equation.Kind != datamodel.EqApplyToAll && v.Equation.Kind != datamodel.EqArrayed) {
		return []datamodel.Variable{v}, nil
	}

	switch v.Equation.Kind {
	case datamodel.EqArrayed:
		keys := make([]string, 0, len(v.Equation.Elements))
		for k := range v.Equation.Elements {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]datamodel.Variable, 0, len(keys))
		for _, k := range keys {
			nv := v
			nv.Ident = elementIdent(v.Ident, k)
			eq := datamodel.ScalarEquation(v.Equation.Elements[k])
			nv.Equation = &eq
			out = append(out, nv)
		}
		return out, nil

	case datamodel.EqApplyToAll:
		dims := make([]datamodel.Dimension, 0, len(v.Equation.Dims))
		for _, name := range v.Equation.Dims {
			d, ok := dimByName(m, name)
			if !ok {
				return nil, []*errors.Report{{
					Kind: errors.KindVariable, Code: errors.VAR001, Phase: "expand",
					Message: "unknown dimension " + name, Ident: v.Ident,
				}}
			}
			dims = append(dims, d)
		}
		combos := cartesian(dims)
		out := make([]datamodel.Variable, 0, len(combos))
		for _, combo := range combos {
			nv := v
			nv.Ident = elementIdent(v.Ident, strings.Join(combo, ","))
			eq := datamodel.ScalarEquation(v.Equation.Expr)
			nv.Equation = &eq
			out = append(out, nv)
		}
		return out, nil
	}
	return []datamodel.Variable{v}, nil
}

func elementIdent(base, key string) string { return base + "[" + key + "]" }

func dimByName(m datamodel.Model, name string) (datamodel.Dimension, bool) {
	for _, d := range m.Dimensions {
		if d.Name == name {
			return d, true
		}
	}
	return datamodel.Dimension{}, false
}

// cartesian returns every element-name combination across dims, in
// row-major order (the last dimension varies fastest), matching the stride
// convention internal/bytecode's LoadSubscript documents even though this
// compiler resolves every subscript it supports at compile time rather
// than emitting that opcode (see lower.go).
func cartesian(dims []datamodel.Dimension) [][]string {
	if len(dims) == 0 {
		return nil
	}
	combos := [][]string{{}}
	for _, d := range dims {
		var next [][]string
		for _, c := range combos {
			for _, e := range d.Elements {
				row := append(append([]string{}, c...), e)
				next = append(next, row)
			}
		}
		combos = next
	}
	return combos
}

// expanded is one model's fully flattened, builtin-rewritten variable set:
// every array expanded to scalar siblings and every smth1/smth3/delay1/
// delay3/trend call rewritten to a synthetic module instantiation, run to
// a fixed point since a companion's own equation can itself contain a
// rewritable builtin.
type expanded struct {
	raw   map[string]datamodel.Variable // post-expansion source, by canonical ident
	built map[string]*varbuild.Built
}

func expandAndBuild(m datamodel.Model) (*expanded, []*errors.Report) {
	pending := make(map[string]datamodel.Variable, len(m.Variables))
	var queue []string
	for _, v := range m.Variables {
		evs, reports := expandArrays(m, v)
		if len(reports) > 0 {
			return nil, reports
		}
		for _, ev := range evs {
			pending[ev.Ident] = ev
			queue = append(queue, ev.Ident)
		}
	}

	built := make(map[string]*varbuild.Built, len(pending))
	for len(queue) > 0 {
		ident := queue[0]
		queue = queue[1:]
		if _, done := built[ident]; done {
			continue
		}
		v := pending[ident]
		b, reports := varbuild.Build(v)
		if len(reports) > 0 {
			return nil, reports
		}
		built[ident] = b
		for _, nv := range b.NewVars {
			if _, exists := pending[nv.Ident]; exists {
				continue
			}
			pending[nv.Ident] = nv
			queue = append(queue, nv.Ident)
		}
	}

	return &expanded{raw: pending, built: built}, nil
}

// moduleIdentsOf returns the set of Module-kind variable idents in ex, so
// dependency normalization and codegen can recognize a dotted
// "<module>.<child-var>" reference.
func (ex *expanded) moduleIdentsOf() map[string]bool {
	out := make(map[string]bool)
	for ident, v := range ex.raw {
		if v.IsModule() {
			out[ident] = true
		}
	}
	return out
}

// isLeaf reports whether ex instantiates no further submodules itself —
// exactly the condition under which internal/compiler memoizes a compiled
// definition across instantiation sites (see moduledef.go).
func (ex *expanded) isLeaf() bool {
	for _, v := range ex.raw {
		if v.IsModule() {
			return false
		}
	}
	return true
}

// normalizeDep rewrites one raw dependency name from varbuild into the
// identifier modelanalysis should actually key its graph on:
//   - "<module>.<child-var>" collapses to "<module>": a module's own run
//     must precede any read of its output, so the dependency is on the
//     module instantiation as a whole, not on a slab cell the graph has
//     no entry for.
//   - a bare array base name (from a Subscript AST node, which only
//     records the base identifier — see internal/varbuild.directDeps)
//     expands to every one of that array's expanded element siblings,
//     a conservative over-approximation documented in expandArrays.
func normalizeDep(dep string, ex *expanded, modIdents map[string]bool) []string {
	for mod := range modIdents {
		if strings.HasPrefix(dep, mod+".") {
			return []string{mod}
		}
	}
	if _, exists := ex.built[dep]; exists {
		return []string{dep}
	}
	var siblings []string
	prefix := dep + "["
	for ident := range ex.built {
		if strings.HasPrefix(ident, prefix) {
			siblings = append(siblings, ident)
		}
	}
	if len(siblings) > 0 {
		sort.Strings(siblings)
		return siblings
	}
	// Unknown to this model; let modelanalysis report MDL002.
	return []string{dep}
}

func normalizeDeps(deps []string, ex *expanded, modIdents map[string]bool) []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range deps {
		for _, n := range normalizeDep(d, ex, modIdents) {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}
