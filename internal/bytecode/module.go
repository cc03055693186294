package bytecode

import "github.com/sunholo/simlin/internal/datamodel"

// CompiledModule is one model's (or one monomorphized module instance's)
// lowered bytecode, addressed into a shared simulation-wide float64 slab.
type CompiledModule struct {
	// Key uniquely identifies this compiled instance. For the root model
	// and for any "leaf" definition (one that instantiates no further
	// submodules itself, e.g. every embedded stdlib model) it is just the
	// model's identifier, since a leaf's declared inputs are always fully
	// bound and its compiled form can be shared across every instantiation
	// site (internal/compiler's leaf-definition cache). Every other
	// instantiation mints a fresh "<model>#<n>" key instead, since two
	// non-leaf instantiations of the same model can bind different nested
	// submodules.
	Key       string
	ModelName string

	Consts  []float64                    // constant pool, indexed by Instr.Const
	Lookups []datamodel.GraphicalFunction // graphical functions, indexed by Instr.LookupID

	// Offsets maps every variable this module owns, by canonical ident, to
	// its LOCAL slab cell (0-based; an enclosing definition's instructions
	// reach a nested instance's cell as that instance's sub-base plus this
	// offset, and the VM adds the executing module's absolute base at run
	// time). SlabSize is how many local cells this module needs: its own
	// variables first, followed by the regions of every nested submodule
	// instance it contains.
	Offsets  map[string]int32
	SlabSize int32

	// InputOffsets lists, for each of this module's declared inputs in
	// declaration order, the slab offset LoadModuleInput(i) reads.
	InputOffsets []int32

	// Stocks lists every stock this module owns and the flows that feed
	// its AssignNext computation ("curr + dt·(Σin − Σout)"), which the VM
	// evaluates directly from this metadata rather than from stack
	// operands.
	Stocks []StockFlow

	// Initials and Dt are the two flattened, topologically ordered
	// instruction sequences ("runlists"): Initials runs once at t=start,
	// Dt runs every simulation step.
	Initials []Instr
	Dt       []Instr
}

// StockFlow records one stock's integration inputs: the slab offsets (both
// local to this module) of the flows that add to and subtract from it each
// step, and whether its value is clamped to zero (the non_negative flag).
type StockFlow struct {
	StockOffset    int32
	InflowOffsets  []int32
	OutflowOffsets []int32
	NonNegative    bool
}

// CompiledSimulation is the root model plus every distinct monomorphized
// submodule definition it (transitively) references, ready for
// internal/vm. Offsets everywhere are local to the CompiledModule that
// owns them; the VM tracks one absolute base per currently-executing
// module (0 for the root) and adds it to every Instr.Offset it reads or
// writes, which is what lets the same CompiledModule (e.g. the shared
// "stdlib·smth1" definition) back two
// unrelated module variables at two different bases without recompiling.
type CompiledSimulation struct {
	RootKey  string // key into Modules for the root model's definition
	Modules  map[string]*CompiledModule
	SlabSize int32
	Specs    datamodel.Resolved
}

// Root returns the compiled root module's definition.
func (s *CompiledSimulation) Root() *CompiledModule { return s.Modules[s.RootKey] }
