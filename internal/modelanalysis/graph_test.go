package modelanalysis

import (
	"testing"

	"github.com/sunholo/simlin/internal/datamodel"
	"github.com/sunholo/simlin/internal/errors"
)

func TestAnalyzeOrdersSimpleChain(t *testing.T) {
	vars := []VarInfo{
		{Ident: "a", InitialDeps: nil, DtDeps: nil},
		{Ident: "b", InitialDeps: []string{"a"}, DtDeps: []string{"a"}},
		{Ident: "c", InitialDeps: []string{"b"}, DtDeps: []string{"b"}},
	}
	res, reports := Analyze(vars)
	if len(reports) != 0 {
		t.Fatalf("unexpected reports: %v", reports)
	}
	assertBefore(t, res.Dt, "a", "b")
	assertBefore(t, res.Dt, "b", "c")
}

func TestAnalyzeAllowsStockFlowFeedbackLoop(t *testing.T) {
	// A classic stock-flow feedback loop: inflow depends on the stock's
	// current value, and the stock's initial equation (not its dt graph)
	// is the only place its own identity appears as a dependent.
	vars := []VarInfo{
		{Ident: "population", IsStock: true, InitialDeps: []string{"initial_population"}},
		{Ident: "initial_population", InitialDeps: nil, DtDeps: nil},
		{Ident: "births", InitialDeps: []string{"population"}, DtDeps: []string{"population"}},
	}
	res, reports := Analyze(vars)
	if len(reports) != 0 {
		t.Fatalf("expected no errors for a legitimate stock-flow loop, got %v", reports)
	}
	if len(res.Dt) != 1 || res.Dt[0] != "births" {
		t.Fatalf("expected dt list to contain only births (population excluded), got %v", res.Dt)
	}
}

func TestAnalyzeRejectsPureAlgebraicCycle(t *testing.T) {
	vars := []VarInfo{
		{Ident: "x", DtDeps: []string{"y"}},
		{Ident: "y", DtDeps: []string{"x"}},
	}
	_, reports := Analyze(vars)
	if len(reports) != 1 || reports[0].Code != errors.MDL001 {
		t.Fatalf("expected one CircularDependency report, got %v", reports)
	}
}

func TestAnalyzeReportsUnknownIdent(t *testing.T) {
	vars := []VarInfo{
		{Ident: "a", DtDeps: []string{"does_not_exist"}},
	}
	_, reports := Analyze(vars)
	if len(reports) != 1 || reports[0].Code != errors.MDL002 {
		t.Fatalf("expected one UnknownIdent report, got %v", reports)
	}
}

func TestValidateModuleBindingsDetectsMissingAndBadDst(t *testing.T) {
	vars := []datamodel.Variable{
		{
			Kind: datamodel.VarModule, Ident: "smoother", ModelName: "stdlib·smth1",
			Bindings: []datamodel.ModuleBinding{
				{Src: "rate", Dst: "smoother.input"},
				{Src: "1", Dst: "smoother.not_a_real_input"},
			},
		},
	}
	resolve := func(model string) ([]string, bool) {
		if model == "stdlib·smth1" {
			return []string{"input", "delay_time", "initial_value"}, true
		}
		return nil, false
	}
	reports := ValidateModuleBindings(vars, resolve)

	var sawBadDst, sawMissingDelay, sawMissingInitial bool
	for _, r := range reports {
		switch r.Code {
		case errors.MDL003:
			sawBadDst = true
		case errors.MDL004:
			if r.Message == `module input "delay_time" has no binding` {
				sawMissingDelay = true
			}
			if r.Message == `module input "initial_value" has no binding` {
				sawMissingInitial = true
			}
		}
	}
	if !sawBadDst || !sawMissingDelay || !sawMissingInitial {
		t.Fatalf("expected bad-dst and two missing-binding reports, got %+v", reports)
	}
}

func TestValidateModuleBindingsAcceptsCompleteBindings(t *testing.T) {
	vars := []datamodel.Variable{
		{
			Kind: datamodel.VarModule, Ident: "smoother", ModelName: "stdlib·smth1",
			Bindings: []datamodel.ModuleBinding{
				{Src: "rate", Dst: "smoother.input"},
				{Src: "3", Dst: "smoother.delay_time"},
				{Src: "rate", Dst: "smoother.initial_value"},
			},
		},
	}
	resolve := func(model string) ([]string, bool) {
		return []string{"input", "delay_time", "initial_value"}, true
	}
	if reports := ValidateModuleBindings(vars, resolve); len(reports) != 0 {
		t.Fatalf("expected no reports, got %v", reports)
	}
}

func assertBefore(t *testing.T, list []string, before, after string) {
	t.Helper()
	bi, ai := -1, -1
	for i, s := range list {
		if s == before {
			bi = i
		}
		if s == after {
			ai = i
		}
	}
	if bi == -1 || ai == -1 || bi >= ai {
		t.Fatalf("expected %q before %q in %v", before, after, list)
	}
}
