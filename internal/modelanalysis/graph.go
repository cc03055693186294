// Package modelanalysis builds the two per-model run lists the simulation
// VM executes each step: the "initials" list, computed once at t=start,
// and the "dt" list, recomputed every step. It also validates module-input
// bindings. The sort is DFS-based, with visited/inPath sets and cycle-path
// reconstruction, the same shape a topological sort over any dependency
// graph takes.
package modelanalysis

import (
	"fmt"
	"sort"

	"github.com/sunholo/simlin/internal/errors"
)

// VarInfo is one variable's dependency-graph inputs, as produced by
// internal/varbuild: which other identifiers its initial-value computation
// and its per-step (dt) computation directly reference.
type VarInfo struct {
	Ident       string
	IsStock     bool
	InitialDeps []string
	DtDeps      []string // unused for stocks: a stock is never a dt-graph node
}

// Result is the pair of topologically sorted run lists.
type Result struct {
	Initials []string // dependency order: stocks' initial equations + every other variable
	Dt       []string // dependency order: every non-stock variable, recomputed each step
}

// Analyze builds both run lists from vars, or returns structured error
// reports for unknown identifiers or illegitimate cycles.
//
// A cycle through a flow/aux/module graph that never touches a stock's
// current (not initial) value is rejected: stock-flow
// feedback loops are legitimate (the stock's value each step is read, not
// recomputed, by the variables that depend on it) but a pure algebraic
// cycle among flows/auxiliaries is not. This is implemented by excluding
// stocks as dt-graph nodes entirely: any dependency on a stock terminates
// that DFS branch instead of recursing into the stock's own dependencies.
func Analyze(vars []VarInfo) (*Result, []*errors.Report) {
	byIdent := make(map[string]VarInfo, len(vars))
	for _, v := range vars {
		byIdent[v.Ident] = v
	}

	var reports []*errors.Report

	initials, initErrs := topoSort(vars, byIdent, func(v VarInfo) []string { return v.InitialDeps }, nil)
	reports = append(reports, initErrs...)

	var dtNodes []VarInfo
	for _, v := range vars {
		if !v.IsStock {
			dtNodes = append(dtNodes, v)
		}
	}
	dt, dtErrs := topoSort(dtNodes, byIdent, func(v VarInfo) []string { return v.DtDeps }, func(ident string) bool {
		vi, ok := byIdent[ident]
		return ok && vi.IsStock
	})
	reports = append(reports, dtErrs...)

	if len(reports) > 0 {
		return nil, reports
	}
	return &Result{Initials: initials, Dt: dt}, nil
}

// topoSort runs a DFS-based topological sort over the given nodes. depsOf
// extracts an ident's direct dependencies; if
// terminal(dep) reports true, that dependency is treated as a leaf and not
// recursed into (used to exclude stocks from the dt graph).
func topoSort(nodes []VarInfo, byIdent map[string]VarInfo, depsOf func(VarInfo) []string, terminal func(string) bool) ([]string, []*errors.Report) {
	visited := make(map[string]bool)
	inPath := make(map[string]bool)
	var sorted []string
	var path []string
	var reports []*errors.Report

	var dfs func(ident string) error
	dfs = func(ident string) error {
		if visited[ident] {
			return nil
		}
		if inPath[ident] {
			cycle := cyclePathFrom(path, ident)
			return fmt.Errorf("cycle: %v", cycle)
		}

		v, ok := byIdent[ident]
		if !ok {
			reports = append(reports, &errors.Report{
				Kind: errors.KindModel, Code: errors.MDL002, Phase: "modelanalysis",
				Message: "unknown identifier: " + ident, Ident: ident,
			})
			visited[ident] = true
			return nil
		}

		inPath[ident] = true
		path = append(path, ident)

		for _, dep := range depsOf(v) {
			if terminal != nil && terminal(dep) {
				continue
			}
			if err := dfs(dep); err != nil {
				return err
			}
		}

		inPath[ident] = false
		path = path[:len(path)-1]
		visited[ident] = true
		sorted = append(sorted, ident)
		return nil
	}

	idents := identsOf(nodes)
	for _, ident := range idents {
		if err := dfs(ident); err != nil {
			reports = append(reports, &errors.Report{
				Kind: errors.KindModel, Code: errors.MDL001, Phase: "modelanalysis",
				Message: err.Error(),
			})
			return nil, reports
		}
	}
	return sorted, reports
}

func cyclePathFrom(path []string, ident string) []string {
	for i, m := range path {
		if m == ident {
			cycle := append([]string{}, path[i:]...)
			return append(cycle, ident)
		}
	}
	return append(append([]string{}, path...), ident)
}

// identsOf returns node identifiers in a stable order so error messages and
// output ordering do not depend on map/slice iteration nondeterminism.
func identsOf(nodes []VarInfo) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Ident
	}
	sort.Strings(out)
	return out
}
