package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
)

// orderedIdents returns every identifier in r.Offsets sorted by column
// index, "time" always first.
func (r *Results) orderedIdents() []string {
	idents := make([]string, 0, len(r.Offsets))
	for ident := range r.Offsets {
		idents = append(idents, ident)
	}
	sort.Slice(idents, func(i, j int) bool { return r.Offsets[idents[i]] < r.Offsets[idents[j]] })
	return idents
}

func newTabWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	return cw
}

func formatRow(row []float64) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = fmt.Sprintf("%g", v)
	}
	return out
}

// WriteTSV writes one header row of canonical identifiers in offset
// order followed by one row per saved step.
func (r *Results) WriteTSV(w io.Writer) error {
	cw := newTabWriter(w)
	idents := r.orderedIdents()
	if err := cw.Write(idents); err != nil {
		return err
	}
	for k := 0; k < int(r.StepCount); k++ {
		if err := cw.Write(formatRow(r.Row(k))); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteComparisonTSV writes, for every saved step common to both r and
// ref, a "reference" row from ref followed by a "simlin" row from r.
// Columns are taken from r's own offset ordering;
// ref is expected to share r's identifier set, which is the only
// alignment this package performs — reconciling differing step counts or
// units between engines is out of scope (see DESIGN.md).
func (r *Results) WriteComparisonTSV(w io.Writer, ref *Results) error {
	cw := newTabWriter(w)
	idents := r.orderedIdents()
	header := append([]string{"run"}, idents...)
	if err := cw.Write(header); err != nil {
		return err
	}

	n := int(r.StepCount)
	if m := int(ref.StepCount); m < n {
		n = m
	}
	for k := 0; k < n; k++ {
		refRow := append([]string{"reference"}, formatRow(ref.rowFor(idents, k))...)
		if err := cw.Write(refRow); err != nil {
			return err
		}
		simRow := append([]string{"simlin"}, formatRow(r.Row(k))...)
		if err := cw.Write(simRow); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// rowFor reassembles row k in the given identifier order, since ref may
// have assigned its own columns a different layout than r.
func (r *Results) rowFor(idents []string, k int) []float64 {
	row := r.Row(k)
	out := make([]float64, len(idents))
	for i, ident := range idents {
		if off, ok := r.Offsets[ident]; ok {
			out[i] = row[off]
		}
	}
	return out
}
