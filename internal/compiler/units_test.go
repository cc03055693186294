package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunholo/simlin/internal/datamodel"
	"github.com/sunholo/simlin/internal/errors"
)

func TestCheckUnits_MismatchedAdditionIsReportedNonFatally(t *testing.T) {
	proj := baseProject(datamodel.Model{
		Name: "main",
		Variables: []datamodel.Variable{
			{Kind: datamodel.VarAux, Ident: "widgets", Units: "widget", Equation: scalar("1")},
			{Kind: datamodel.VarAux, Ident: "dollars", Units: "dollar", Equation: scalar("1")},
			{Kind: datamodel.VarAux, Ident: "bad", Equation: scalar("widgets + dollars")},
		},
	})

	sim, compileReports := Compile(proj)
	require.Empty(t, compileReports, "Compile should succeed despite the unit mismatch")
	require.NotNil(t, sim)

	unitReports := CheckUnits(proj)
	assert.True(t, containsCode(unitReports, errors.UNIT001), "want a UNIT001 report, got %+v", unitReports)
}

func TestCheckUnits_MatchingUnitsProducesNoReport(t *testing.T) {
	proj := baseProject(datamodel.Model{
		Name: "main",
		Variables: []datamodel.Variable{
			{Kind: datamodel.VarAux, Ident: "a", Units: "widget", Equation: scalar("1")},
			{Kind: datamodel.VarAux, Ident: "b", Units: "widget", Equation: scalar("1")},
			{Kind: datamodel.VarAux, Ident: "total", Equation: scalar("a + b")},
		},
	})
	assert.Empty(t, CheckUnits(proj))
}

func TestCompile_RungeKutta4DowngradesToEulerWithoutError(t *testing.T) {
	proj := &datamodel.Project{
		SchemaVersion: datamodel.SchemaVersion,
		Name:          "t",
		Sim: datamodel.SimSpecs{
			Start: 0, Stop: 10, Dt: datamodel.Dt{Value: 1}, Method: datamodel.MethodRungeKutta4,
		},
		Models: []datamodel.Model{{
			Name:      "main",
			Variables: []datamodel.Variable{{Kind: datamodel.VarAux, Ident: "x", Equation: scalar("1")}},
		}},
	}
	sim, reports := Compile(proj)
	require.Empty(t, reports)
	assert.Equal(t, datamodel.MethodEuler, sim.Specs.Method)
}

func TestCheckUnits_WalksIntoStdlibModules(t *testing.T) {
	proj := baseProject(datamodel.Model{
		Name: "main",
		Variables: []datamodel.Variable{
			{Kind: datamodel.VarAux, Ident: "forcing", Equation: scalar("20")},
			{Kind: datamodel.VarAux, Ident: "smoothed", Equation: scalar("smth1(forcing, 4, 0)")},
		},
	})
	// Should not panic walking into the embedded stdlib smth1 definition.
	assert.NotPanics(t, func() { CheckUnits(proj) })
}
