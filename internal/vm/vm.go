// Package vm executes a bytecode.CompiledSimulation: a fixed-capacity
// stack machine that runs a model's two run lists — Initials once, Dt
// every step — against one flat float64 slab shared by the root model
// and every module instance it transitively owns. It walks a flat
// []Instr slice, dispatching per opcode and operating on unboxed
// float64 stack slots.
package vm

import (
	"math/rand"

	"github.com/sunholo/simlin/internal/bytecode"
	"github.com/sunholo/simlin/internal/datamodel"
	"github.com/sunholo/simlin/internal/errors"
)

// stackDepth matches internal/compiler's stackCapacity: every runlist this
// module emits was verified at compile time to need no more than this many
// stack slots, so one fixed-size array serves every module instance.
const stackDepth = 64

// Vm runs one compiled simulation. It is not safe for concurrent use.
type Vm struct {
	sim  *bytecode.CompiledSimulation
	slab []float64

	stack [stackDepth]float64
	sp    int

	// scratch backs OpApply's argument slice and OpLoadSubscript's index
	// slice. Both are always bounded by stackDepth (their operands are
	// popped from the fixed-capacity stack above), so one reusable buffer
	// sized once here avoids a make() on every call/subscript access.
	scratch [stackDepth]float64

	time float64
	step int

	overrides map[int32]float64

	// touched accumulates every (module, base) pair executed during the
	// current Step's Dt pass, so integrateStocks can be applied to all of
	// them after the full graph finishes, not just the root's own stocks.
	touched []touchedModule

	rng *rand.Rand

	diagnostics []*errors.Report
}

// New allocates a Vm over sim's slab, with time initialized to the
// simulation's start but no values computed yet — call RunInitials before
// the first Step.
func New(sim *bytecode.CompiledSimulation) *Vm {
	return &Vm{
		sim:       sim,
		slab:      make([]float64, sim.SlabSize),
		time:      sim.Specs.Start,
		overrides: make(map[int32]float64),
		rng:       rand.New(rand.NewSource(1)),
	}
}

// Time returns the current simulation time.
func (m *Vm) Time() float64 { return m.time }

// Specs returns the resolved simulation specs this Vm was built from.
func (m *Vm) Specs() datamodel.Resolved { return m.sim.Specs }

// RootOffsets exposes the root model's variable-name-to-slab-offset map,
// for callers (internal/results, interactive overrides) that address
// variables by name rather than by compiled offset.
func (m *Vm) RootOffsets() map[string]int32 { return m.sim.Root().Offsets }

// RootSlabSize returns the root definition's SlabSize: the cells of the
// root model's own variables followed by those of every nested module
// instance it contains.
func (m *Vm) RootSlabSize() int32 { return m.sim.Root().SlabSize }

// Slab returns the live value slab. Callers must treat it as read-only;
// internal/results uses this directly rather than copying each step.
func (m *Vm) Slab() []float64 { return m.slab }

// Diagnostics returns every non-fatal runtime condition (NaN propagation,
// division by zero, out-of-range lookups) observed so far.
// These never abort a run — the offending cell is set to NaN and the
// simulation continues — but are surfaced here for the caller to report.
func (m *Vm) Diagnostics() []*errors.Report { return m.diagnostics }

func (m *Vm) diagnose(code, ident, msg string) {
	m.diagnostics = append(m.diagnostics, &errors.Report{
		Kind: errors.KindSimulation, Code: code, Phase: "runtime", Message: msg, Ident: ident,
	})
}

// SetValue overrides a root-model variable's value, taking effect
// immediately and persisting across every subsequent Step until Reset or
// ClearOverride, matching an interactive slider-override. name
// must be one of the root model's own variables; overriding a variable
// inside a nested module instance is not supported, matching how a
// slider addresses only the top-level model's inputs.
func (m *Vm) SetValue(name string, value float64) error {
	off, ok := m.sim.Root().Offsets[name]
	if !ok {
		return &errors.ReportError{Rep: &errors.Report{
			Kind: errors.KindVariable, Code: errors.MDL002, Phase: "runtime",
			Message: "unknown variable: " + name, Ident: name,
		}}
	}
	m.overrides[off] = value
	m.slab[off] = value
	return nil
}

// ClearOverride removes a single variable's override, letting its own
// equation (or AssignNext, for a stock) drive it again from the next Step.
func (m *Vm) ClearOverride(name string) {
	if off, ok := m.sim.Root().Offsets[name]; ok {
		delete(m.overrides, off)
	}
}

// GetValue reads a root-model variable's current value.
func (m *Vm) GetValue(name string) (float64, bool) {
	off, ok := m.sim.Root().Offsets[name]
	if !ok {
		return 0, false
	}
	return m.slab[off], true
}

// Reset clears every override and re-runs the simulation from t=start,
// discarding accumulated diagnostics: reset restores the model to its
// as-compiled defaults.
func (m *Vm) Reset() error {
	m.overrides = make(map[int32]float64)
	m.time = m.sim.Specs.Start
	m.step = 0
	m.diagnostics = nil
	for i := range m.slab {
		m.slab[i] = 0
	}
	return m.RunInitials()
}

// RunInitials executes the root model's Initials run list once, seeding
// every stock's initial value and every t=start aux/flow/module value,
// recursing into nested module instances as EvalInitialModule instructions
// are reached.
func (m *Vm) RunInitials() error {
	if err := m.execModule(m.sim.Root(), 0, true); err != nil {
		return err
	}
	m.applyOverrides()
	return nil
}

// Step advances the simulation by one dt: it recomputes every
// non-stock variable at every nesting level by running the root's Dt run
// list (which recursively runs every nested module's own Dt run list via
// EvalModule), then — only once that entire Dt execution graph has
// finished — integrates every stock at every nesting level exactly once,
// via AssignNext's curr + dt*(sum(inflows) - sum(outflows)) (clamped to
// zero for a non_negative stock).
func (m *Vm) Step() error {
	m.touched = m.touched[:0]
	m.touched = append(m.touched, touchedModule{def: m.sim.Root(), base: 0})
	if err := m.execModule(m.sim.Root(), 0, false); err != nil {
		return err
	}
	m.applyOverrides()
	for _, t := range m.touched {
		m.integrateStocks(t.def, t.base)
	}
	m.applyOverrides()
	m.time += m.sim.Specs.Dt
	m.step++
	return nil
}

func (m *Vm) applyOverrides() {
	for off, v := range m.overrides {
		m.slab[off] = v
	}
}

// integrateStocks applies Euler integration to every stock def owns, at
// base. rk4 is requested-but-downgraded to euler by
// datamodel.SimSpecs.Resolve, so this is the only method the VM needs.
func (m *Vm) integrateStocks(def *bytecode.CompiledModule, base int32) {
	dt := m.sim.Specs.Dt
	for _, sf := range def.Stocks {
		var in, out float64
		for _, off := range sf.InflowOffsets {
			in += m.slab[base+off]
		}
		for _, off := range sf.OutflowOffsets {
			out += m.slab[base+off]
		}
		next := m.slab[base+sf.StockOffset] + dt*(in-out)
		if sf.NonNegative && next < 0 {
			next = 0
		}
		m.slab[base+sf.StockOffset] = next
	}
}
