// Package results holds the saved time series a completed run produces,
// plus a thin TSV export helper: a small, stdlib-only writer bolted onto
// a data struct, not a reporting subsystem.
package results

import (
	"math"

	"github.com/sunholo/simlin/internal/datamodel"
	"github.com/sunholo/simlin/internal/vm"
)

// Results is one completed run's saved output. Data is row-major: row k
// holds the state saved at time
// start + k*save_step, column 0 of every row is always time, and every
// other column is at Offsets[ident].
type Results struct {
	Offsets   map[string]int32
	Data      []float64
	StepSize  int32
	StepCount int32
	Specs     datamodel.Resolved

	// IsVensim marks a Results produced by (or aligned to) a Vensim
	// reference run. Nothing in this package reads it: WriteComparisonTSV
	// labels its paired rows "reference" and "simlin" either way, and this
	// module performs no unit or save-step reconciliation between engines
	// (see DESIGN.md).
	IsVensim bool
}

// Row returns the k-th saved row as a read-only slice into Data.
func (r *Results) Row(k int) []float64 {
	w := int(r.StepSize)
	return r.Data[k*w : (k+1)*w]
}

// Value looks up ident's value at saved row k.
func (r *Results) Value(k int, ident string) (float64, bool) {
	off, ok := r.Offsets[ident]
	if !ok {
		return 0, false
	}
	return r.Row(k)[off], true
}

// Run drives m from t=start to t=stop, saving one row at t=start and then
// every save_step thereafter, and returns the accumulated Results. m must
// not have had Step called on
// it yet; Run calls RunInitials itself.
func Run(m *vm.Vm, isVensim bool) (*Results, error) {
	if err := m.RunInitials(); err != nil {
		return nil, err
	}

	specs := m.Specs()
	stride := int(math.Round(specs.SaveStep / specs.Dt))
	if stride < 1 {
		stride = 1
	}
	// Root variables occupy offsets 0..n-1; nested module cells follow them
	// in the slab and are not saved.
	rootSize := int32(len(m.RootOffsets()))
	stepSize := rootSize + 1

	totalSteps := int(math.Floor((specs.Stop-specs.Start)/specs.Dt + 1e-9))

	data := make([]float64, 0, int(stepSize)*(totalSteps/stride+2))
	saveRow := func() {
		data = append(data, m.Time())
		data = append(data, m.Slab()[:rootSize]...)
	}
	saveRow()

	for i := 1; i <= totalSteps; i++ {
		if err := m.Step(); err != nil {
			return nil, err
		}
		if i%stride == 0 {
			saveRow()
		}
	}

	offsets := make(map[string]int32, len(m.RootOffsets())+1)
	offsets["time"] = 0
	for name, off := range m.RootOffsets() {
		offsets[name] = off + 1
	}

	return &Results{
		Offsets:   offsets,
		Data:      data,
		StepSize:  stepSize,
		StepCount: int32(len(data)) / stepSize,
		Specs:     specs,
		IsVensim:  isVensim,
	}, nil
}
