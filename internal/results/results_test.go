package results

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunholo/simlin/internal/compiler"
	"github.com/sunholo/simlin/internal/datamodel"
	"github.com/sunholo/simlin/internal/vm"
)

func scalar(text string) *datamodel.Equation {
	e := datamodel.ScalarEquation(text)
	return &e
}

func buildVm(t *testing.T, sim datamodel.SimSpecs, vars ...datamodel.Variable) *vm.Vm {
	t.Helper()
	proj := &datamodel.Project{
		SchemaVersion: datamodel.SchemaVersion,
		Name:          "t",
		Sim:           sim,
		Models:        []datamodel.Model{{Name: "main", Variables: vars}},
	}
	compiled, reports := compiler.Compile(proj)
	require.Empty(t, reports, "unexpected compile reports")
	return vm.New(compiled)
}

func TestRun_SaveEveryStepWhenSaveStepEqualsDt(t *testing.T) {
	m := buildVm(t, datamodel.SimSpecs{Start: 0, Stop: 5, Dt: datamodel.Dt{Value: 1}},
		datamodel.Variable{Kind: datamodel.VarStock, Ident: "p", InitialEquation: scalar("100"), Inflows: []string{"growth"}},
		datamodel.Variable{Kind: datamodel.VarFlow, Ident: "growth", Equation: scalar("p * 0.1")},
	)
	r, err := Run(m, false)
	require.NoError(t, err)
	assert.EqualValues(t, 6, r.StepCount)
	assert.EqualValues(t, 0, r.Offsets["time"])

	first, ok := r.Value(0, "p")
	require.True(t, ok)
	assert.Equal(t, 100.0, first)
}

func TestRun_SaveStepLargerThanDtSkipsIntermediateRows(t *testing.T) {
	saveStep := 2.0
	m := buildVm(t, datamodel.SimSpecs{Start: 0, Stop: 10, Dt: datamodel.Dt{Value: 1}, SaveStep: &saveStep},
		datamodel.Variable{Kind: datamodel.VarStock, Ident: "p", InitialEquation: scalar("1"), Inflows: []string{"growth"}},
		datamodel.Variable{Kind: datamodel.VarFlow, Ident: "growth", Equation: scalar("1")},
	)
	r, err := Run(m, false)
	require.NoError(t, err)
	assert.EqualValues(t, 6, r.StepCount)

	prevTime := -1.0
	for k := 0; k < int(r.StepCount); k++ {
		cur := r.Row(k)[0]
		assert.Greaterf(t, cur, prevTime, "time column not strictly monotone at row %d", k)
		prevTime = cur
	}
}

func TestWriteTSV_HeaderAndRowCounts(t *testing.T) {
	m := buildVm(t, datamodel.SimSpecs{Start: 0, Stop: 3, Dt: datamodel.Dt{Value: 1}},
		datamodel.Variable{Kind: datamodel.VarAux, Ident: "a", Equation: scalar("42")},
	)
	r, err := Run(m, false)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.WriteTSV(&buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, int(r.StepCount)+1)

	header := strings.Split(lines[0], "\t")
	assert.Equal(t, "time", header[0])
}

func TestRun_SIREndToEnd_PopulationConservedAndPeakInWindow(t *testing.T) {
	m := buildVm(t, datamodel.SimSpecs{Start: 0, Stop: 200, Dt: datamodel.Dt{Value: 0.25}},
		datamodel.Variable{Kind: datamodel.VarStock, Ident: "s", InitialEquation: scalar("999"), Outflows: []string{"infect"}},
		datamodel.Variable{Kind: datamodel.VarStock, Ident: "i", InitialEquation: scalar("1"), Inflows: []string{"infect"}, Outflows: []string{"recover"}},
		datamodel.Variable{Kind: datamodel.VarStock, Ident: "r", InitialEquation: scalar("0"), Inflows: []string{"recover"}},
		datamodel.Variable{Kind: datamodel.VarFlow, Ident: "infect", Equation: scalar("0.3 * s * i / 1000")},
		datamodel.Variable{Kind: datamodel.VarFlow, Ident: "recover", Equation: scalar("0.1 * i")},
	)
	res, err := Run(m, false)
	require.NoError(t, err)

	sOff, iOff, rOff := res.Offsets["s"], res.Offsets["i"], res.Offsets["r"]

	var peakI float64
	var peakTime float64
	for k := 0; k < int(res.StepCount); k++ {
		row := res.Row(k)
		total := row[sOff] + row[iOff] + row[rOff]
		assert.InDeltaf(t, 1000.0, total, 1e-6, "S+I+R drifted from 1000 at row %d", k)
		if row[iOff] > peakI {
			peakI = row[iOff]
			peakTime = row[res.Offsets["time"]]
		}
	}

	assert.GreaterOrEqualf(t, peakTime, 40.0, "infection peak at t=%v, want >= 40", peakTime)
	assert.LessOrEqualf(t, peakTime, 60.0, "infection peak at t=%v, want <= 60", peakTime)
}

func TestWriteComparisonTSV_PairsReferenceAndSimlinRows(t *testing.T) {
	m1 := buildVm(t, datamodel.SimSpecs{Start: 0, Stop: 2, Dt: datamodel.Dt{Value: 1}},
		datamodel.Variable{Kind: datamodel.VarAux, Ident: "a", Equation: scalar("1")},
	)
	m2 := buildVm(t, datamodel.SimSpecs{Start: 0, Stop: 2, Dt: datamodel.Dt{Value: 1}},
		datamodel.Variable{Kind: datamodel.VarAux, Ident: "a", Equation: scalar("1")},
	)
	r1, err := Run(m1, false)
	require.NoError(t, err)
	r2, err := Run(m2, true)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r1.WriteComparisonTSV(&buf, r2))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 1+2*int(r1.StepCount))
	assert.True(t, strings.HasPrefix(lines[1], "reference\t"))
	assert.True(t, strings.HasPrefix(lines[2], "simlin\t"))
}
