package compiler

import (
	"github.com/sunholo/simlin/internal/ast"
	"github.com/sunholo/simlin/internal/datamodel"
	"github.com/sunholo/simlin/internal/errors"
	"github.com/sunholo/simlin/internal/stdlib"
	"github.com/sunholo/simlin/internal/units"
)

// CheckUnits runs internal/units' advisory checker over every equation in
// proj's root model and everything it transitively instantiates (spec
// §4.4: unit mismatches are "reported with spans but are non-fatal" — the
// caller decides whether to surface them). It is deliberately not part of
// Compile's own return value: unit checking never blocks or alters
// compilation, so a caller that doesn't care about it pays nothing for
// Compile alone, and one that does calls this separately.
func CheckUnits(proj *datamodel.Project) []*errors.Report {
	var reports []*errors.Report
	seen := make(map[string]bool)
	var walk func(modelName string)
	walk = func(modelName string) {
		if seen[modelName] {
			return
		}
		seen[modelName] = true
		m, ok := proj.ModelByName(modelName)
		if !ok {
			m, ok = stdlib.Model(modelName)
			if !ok {
				return
			}
		}
		ex, _ := expandAndBuild(m)
		if ex == nil {
			return
		}
		reports = append(reports, checkModelUnits(ex)...)
		for _, v := range ex.raw {
			if v.IsModule() {
				walk(v.ModelName)
			}
		}
	}
	if root, ok := proj.RootModel(); ok {
		walk(root.Name)
	}
	return reports
}

func checkModelUnits(ex *expanded) []*errors.Report {
	resolve := func(ident string) (units.Units, bool) {
		v, ok := ex.raw[ident]
		if !ok || v.Units == "" {
			return nil, false
		}
		u, err := units.Parse(v.Units)
		if err != nil {
			return nil, false
		}
		return u, true
	}

	var reports []*errors.Report
	for ident, b := range ex.built {
		if b.Arena == nil {
			continue
		}
		checker := units.NewChecker(b.Arena, resolve)
		if b.InitialRoot != ast.NoNode {
			checker.Check(b.InitialRoot)
		}
		if b.DtRoot != ast.NoNode {
			checker.Check(b.DtRoot)
		}
		for _, r := range checker.Reports() {
			r.Ident = ident
			reports = append(reports, r)
		}
	}
	return reports
}
