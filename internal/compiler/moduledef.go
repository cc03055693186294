package compiler

import (
	"fmt"
	"sort"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/sunholo/simlin/internal/ast"
	"github.com/sunholo/simlin/internal/bytecode"
	"github.com/sunholo/simlin/internal/datamodel"
	"github.com/sunholo/simlin/internal/errors"
	"github.com/sunholo/simlin/internal/modelanalysis"
	"github.com/sunholo/simlin/internal/stdlib"
	"github.com/sunholo/simlin/internal/varbuild"
)

// stackCapacity is the VM's fixed, compile-time-verified stack depth.
// Every equation this module's grammar can express needs far less than
// this; it exists as a sanity bound bytecode.Verify enforces rather than a
// tuned limit.
const stackCapacity int32 = 64

// compileSession holds the state shared across every model definition
// compiled while lowering one Project: the project being compiled, the
// leaf-definition cache (monomorphization, scoped to models with no
// nested Module variables of their own - see DESIGN.md), and a counter
// for giving non-leaf instantiations distinct keys.
type compileSession struct {
	proj      *datamodel.Project
	modules   map[string]*bytecode.CompiledModule
	leafCache map[string]*bytecode.CompiledModule
	nextInst  int
}

// Compile lowers proj's root model (and every model it transitively
// instantiates, project-authored or embedded stdlib) into a
// bytecode.CompiledSimulation ready for internal/vm.
func Compile(proj *datamodel.Project) (*bytecode.CompiledSimulation, []*errors.Report) {
	var reports []*errors.Report
	for _, ae := range datamodel.Assemble(proj) {
		if ae.Code == datamodel.ErrUnreferencedModel {
			log.WithField("project", proj.Name).Warn(ae.Message)
			continue
		}
		reports = append(reports, &errors.Report{
			Kind: errors.KindModel, Code: string(ae.Code), Phase: "assemble", Message: ae.Message,
		})
	}
	if len(reports) > 0 {
		return nil, reports
	}

	resolved, downgraded, err := proj.Sim.Resolve()
	if err != nil {
		if ve, ok := err.(*datamodel.ValidationError); ok {
			return nil, []*errors.Report{{Kind: errors.KindModel, Code: string(ve.Code), Phase: "simspecs", Message: ve.Message}}
		}
		return nil, []*errors.Report{{Kind: errors.KindModel, Code: errors.CMP002, Phase: "simspecs", Message: err.Error()}}
	}
	if downgraded {
		log.WithField("project", proj.Name).Warn("rk4 requested but unsupported; downgraded to euler")
	}

	root, ok := proj.RootModel()
	if !ok {
		return nil, []*errors.Report{{Kind: errors.KindModel, Code: errors.CMP002, Phase: "assemble", Message: "project has no root model"}}
	}

	sess := &compileSession{
		proj:      proj,
		modules:   make(map[string]*bytecode.CompiledModule),
		leafCache: make(map[string]*bytecode.CompiledModule),
	}

	rootDef, defReports := sess.compileModelDef(root.Name, map[string]bool{}, true)
	if len(defReports) > 0 {
		return nil, defReports
	}

	return &bytecode.CompiledSimulation{
		RootKey:  rootDef.Key,
		Modules:  sess.modules,
		SlabSize: rootDef.SlabSize,
		Specs:    resolved,
	}, nil
}

// inputsOf resolves modelName's declared inputs against either the
// project's own models or the embedded stdlib (stdlib model names carry
// the "stdlib·" prefix internal/builtinrw uses).
func (s *compileSession) inputsOf(modelName string) ([]string, bool) {
	if _, ok := stdlib.Model(modelName); ok {
		return stdlib.Inputs(modelName)
	}
	pm, ok := s.proj.ModelByName(modelName)
	if !ok {
		return nil, false
	}
	var inputs []string
	for _, v := range pm.Variables {
		if v.IsAux() && v.Equation == nil {
			inputs = append(inputs, v.Ident)
		}
	}
	sort.Strings(inputs)
	return inputs, true
}

func (s *compileSession) resolveModel(modelName string) (datamodel.Model, bool) {
	if m, ok := stdlib.Model(modelName); ok {
		return m, true
	}
	return s.proj.ModelByName(modelName)
}

// compileModelDef compiles one model instantiation into a
// bytecode.CompiledModule. root is true only for the project's entry-point
// model, which always keeps its bare name as a Key regardless of whether
// it happens to qualify as a leaf; every other call either hits the leaf
// cache or mints a fresh per-instantiation key.
func (s *compileSession) compileModelDef(modelName string, path map[string]bool, root bool) (*bytecode.CompiledModule, []*errors.Report) {
	if path[modelName] {
		return nil, []*errors.Report{{
			Kind: errors.KindModel, Code: errors.MDL001, Phase: "compile",
			Message: "circular module instantiation involving model " + modelName,
		}}
	}
	if def, ok := s.leafCache[modelName]; ok {
		return def, nil
	}

	m, ok := s.resolveModel(modelName)
	if !ok {
		return nil, []*errors.Report{{
			Kind: errors.KindModel, Code: errors.MDL002, Phase: "compile",
			Message: "unknown model: " + modelName,
		}}
	}

	ex, reports := expandAndBuild(m)
	if len(reports) > 0 {
		return nil, reports
	}
	modIdents := ex.moduleIdentsOf()

	var varInfos []modelanalysis.VarInfo
	identsSorted := sortedKeysBuilt(ex.built)
	for _, ident := range identsSorted {
		b := ex.built[ident]
		vi := b.Info
		vi.InitialDeps = normalizeDeps(vi.InitialDeps, ex, modIdents)
		vi.DtDeps = normalizeDeps(vi.DtDeps, ex, modIdents)
		varInfos = append(varInfos, vi)
	}

	result, analysisReports := modelanalysis.Analyze(varInfos)
	if len(analysisReports) > 0 {
		return nil, analysisReports
	}

	var moduleVars []datamodel.Variable
	for ident := range modIdents {
		moduleVars = append(moduleVars, ex.raw[ident])
	}
	if bindingReports := modelanalysis.ValidateModuleBindings(moduleVars, s.inputsOf); len(bindingReports) > 0 {
		return nil, bindingReports
	}

	childPath := make(map[string]bool, len(path)+1)
	for k := range path {
		childPath[k] = true
	}
	childPath[modelName] = true

	ctx := &lowerCtx{
		modelName:  modelName,
		offsets:    make(map[string]int32),
		inputIndex: make(map[string]int32),
		modules:    make(map[string]nestedModule),
	}

	var cursor int32
	for _, ident := range identsSorted {
		if modIdents[ident] {
			continue
		}
		ctx.offsets[ident] = cursor
		cursor++
	}

	declaredInputs, _ := s.inputsOf(modelName)
	inputOffsets := make([]int32, len(declaredInputs))
	for i, name := range declaredInputs {
		off, ok := ctx.offsets[name]
		if !ok {
			return nil, []*errors.Report{{Kind: errors.KindModel, Code: errors.MDL002, Phase: "compile", Message: "declared input " + name + " has no variable"}}
		}
		ctx.inputIndex[name] = int32(i)
		inputOffsets[i] = off
	}

	moduleIdentsSorted := make([]string, 0, len(modIdents))
	for ident := range modIdents {
		moduleIdentsSorted = append(moduleIdentsSorted, ident)
	}
	sort.Strings(moduleIdentsSorted)

	for _, modIdent := range moduleIdentsSorted {
		v := ex.raw[modIdent]
		childDef, childReports := s.compileModelDef(v.ModelName, childPath, false)
		if len(childReports) > 0 {
			return nil, childReports
		}
		subBase := cursor
		cursor += childDef.SlabSize
		ctx.modules[modIdent] = nestedModule{SubBase: subBase, Def: childDef, DefKey: childDef.Key}
	}

	initials := lowerRunlist(ctx, ex, result.Initials, true)
	dt := lowerRunlist(ctx, ex, result.Dt, false)
	reports = append(reports, ctx.errs...)
	if len(reports) > 0 {
		return nil, reports
	}

	stocks, stockReports := buildStockFlows(ctx, ex, identsSorted)
	if len(stockReports) > 0 {
		return nil, stockReports
	}

	key := modelName
	if !root && !ex.isLeaf() {
		key = fmt.Sprintf("%s#%d", modelName, s.nextInst)
		s.nextInst++
	}

	def := &bytecode.CompiledModule{
		Key:          key,
		ModelName:    modelName,
		Consts:       ctx.consts,
		Lookups:      ctx.lookups,
		Offsets:      ctx.offsets,
		SlabSize:     cursor,
		InputOffsets: inputOffsets,
		Stocks:       stocks,
		Initials:     initials,
		Dt:           dt,
	}

	if r := bytecode.Verify(def.Initials, stackCapacity); r != nil {
		return nil, []*errors.Report{r}
	}
	if r := bytecode.Verify(def.Dt, stackCapacity); r != nil {
		return nil, []*errors.Report{r}
	}

	s.modules[key] = def
	if ex.isLeaf() {
		s.leafCache[modelName] = def
	}
	return def, nil
}

// lowerRunlist lowers every variable in runlist (already topologically
// ordered by internal/modelanalysis) to its instruction sequence, appended
// in order, terminated by a single Return.
func lowerRunlist(ctx *lowerCtx, ex *expanded, runlist []string, initial bool) []bytecode.Instr {
	var out []bytecode.Instr
	for _, ident := range runlist {
		v := ex.raw[ident]
		b := ex.built[ident]
		switch {
		case v.IsStock():
			if !initial {
				continue // stocks contribute no dt instructions; see AssignNext.
			}
			instrs := ctx.lowerExpr(b.Arena, b.InitialRoot)
			instrs = append(instrs, bytecode.Instr{Op: bytecode.OpAssignCurr, Offset: ctx.offsets[ident]})
			out = append(out, instrs...)

		case v.IsModule():
			nm := ctx.modules[ident]
			out = append(out, lowerModuleBindings(ctx, ident, nm, v)...)
			op := bytecode.OpEvalModule
			if initial {
				op = bytecode.OpEvalInitialModule
			}
			out = append(out, bytecode.Instr{Op: op, Offset: nm.SubBase, ModuleKey: nm.DefKey})

		default:
			root := b.DtRoot
			if initial {
				root = b.InitialRoot
			}
			if root == ast.NoNode {
				continue // a pure input cell: its value comes from a binding, not an equation.
			}
			instrs := ctx.lowerExpr(b.Arena, root)
			if v.GF != nil {
				instrs = append(instrs, bytecode.Instr{Op: bytecode.OpLookup, LookupID: ctx.addLookup(*v.GF), LookupMode: lookupModeOf(v.GF.Mode)})
			}
			instrs = append(instrs, bytecode.Instr{Op: bytecode.OpSetCur, Offset: ctx.offsets[ident]})
			out = append(out, instrs...)
		}
	}
	out = append(out, bytecode.Instr{Op: bytecode.OpReturn})
	return out
}

// lowerModuleBindings writes every bound input value into the child
// instance's input cells before the EvalModule/EvalInitialModule
// instruction runs it. Binding sources are always either a bare canonical
// identifier or a numeric literal (internal/builtinrw hoists any other
// expression into a companion aux variable; internal/varbuild's
// rawIdentInBinding documents the same assumption for hand-authored
// modules), so no general expression parse is needed here.
func lowerModuleBindings(ctx *lowerCtx, modIdent string, nm nestedModule, v datamodel.Variable) []bytecode.Instr {
	var instrs []bytecode.Instr
	for _, b := range v.Bindings {
		dst := localInputName(modIdent, b.Dst)
		off, ok := nm.Def.Offsets[dst]
		if !ok {
			ctx.reportf(errors.MDL003, modIdent, "binding destination "+dst+" is not an input of "+nm.Def.ModelName)
			continue
		}
		instrs = append(instrs, ctx.lowerBindingSource(b.Src)...)
		instrs = append(instrs, bytecode.Instr{Op: bytecode.OpSetCur, Offset: nm.SubBase + off})
	}
	return instrs
}

func localInputName(modIdent, dst string) string {
	prefix := modIdent + "."
	if len(dst) > len(prefix) && dst[:len(prefix)] == prefix {
		return dst[len(prefix):]
	}
	return dst
}

func (c *lowerCtx) lowerBindingSource(src string) []bytecode.Instr {
	if f, ok := parseFloatOK(src); ok {
		return []bytecode.Instr{{Op: bytecode.OpLoadConst, Const: c.addConst(f)}}
	}
	return c.resolveIdentLoad(src)
}

func buildStockFlows(ctx *lowerCtx, ex *expanded, idents []string) ([]bytecode.StockFlow, []*errors.Report) {
	var stocks []bytecode.StockFlow
	var reports []*errors.Report
	for _, ident := range idents {
		v := ex.raw[ident]
		if !v.IsStock() {
			continue
		}
		sf := bytecode.StockFlow{StockOffset: ctx.offsets[ident], NonNegative: v.NonNegative}
		for _, in := range v.Inflows {
			off, ok := ctx.offsets[in]
			if !ok {
				reports = append(reports, &errors.Report{Kind: errors.KindModel, Code: errors.MDL002, Phase: "compile", Message: "unknown inflow " + in, Ident: ident})
				continue
			}
			sf.InflowOffsets = append(sf.InflowOffsets, off)
		}
		for _, out := range v.Outflows {
			off, ok := ctx.offsets[out]
			if !ok {
				reports = append(reports, &errors.Report{Kind: errors.KindModel, Code: errors.MDL002, Phase: "compile", Message: "unknown outflow " + out, Ident: ident})
				continue
			}
			sf.OutflowOffsets = append(sf.OutflowOffsets, off)
		}
		stocks = append(stocks, sf)
	}
	if len(reports) > 0 {
		return nil, reports
	}
	return stocks, nil
}

func lookupModeOf(m datamodel.LookupMode) bytecode.LookupMode {
	switch m {
	case datamodel.LookupDiscrete:
		return bytecode.LookupDiscrete
	case datamodel.LookupExtrapolate:
		return bytecode.LookupExtrapolate
	default:
		return bytecode.LookupContinuous
	}
}

func sortedKeysBuilt(m map[string]*varbuild.Built) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func parseFloatOK(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}
