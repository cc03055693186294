// Command simlind is a thin smoke-test driver, not a CLI front-end (spec
// §6 excludes CLI front-ends from the core). It builds one hand-authored
// model in-process, runs it through internal/compiler and internal/vm,
// and prints the result as TSV to stdout — the same path a real embedder
// would drive programmatically, exercised end to end without any of the
// excluded import/export/diagram layers.
package main

import (
	"fmt"
	"os"

	"github.com/sunholo/simlin/internal/compiler"
	"github.com/sunholo/simlin/internal/datamodel"
	"github.com/sunholo/simlin/internal/results"
	"github.com/sunholo/simlin/internal/vm"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "simlind:", err)
		os.Exit(1)
	}
}

func run() error {
	proj := teacupCoolingModel()

	sim, reports := compiler.Compile(proj)
	if len(reports) > 0 {
		for _, r := range reports {
			fmt.Fprintln(os.Stderr, r)
		}
		return fmt.Errorf("compilation failed with %d error(s)", len(reports))
	}

	for _, r := range compiler.CheckUnits(proj) {
		fmt.Fprintln(os.Stderr, "advisory:", r)
	}

	m := vm.New(sim)
	r, err := results.Run(m, false)
	if err != nil {
		return err
	}

	if diags := m.Diagnostics(); len(diags) > 0 {
		for _, d := range diags {
			fmt.Fprintln(os.Stderr, d)
		}
	}

	return r.WriteTSV(os.Stdout)
}

func scalar(text string) *datamodel.Equation {
	e := datamodel.ScalarEquation(text)
	return &e
}

// teacupCoolingModel is a cup of tea at 180 degrees cooling toward a
// 70-degree room with a 10-unit time constant.
func teacupCoolingModel() *datamodel.Project {
	return &datamodel.Project{
		SchemaVersion: datamodel.SchemaVersion,
		Name:          "teacup",
		Sim: datamodel.SimSpecs{
			Start: 0,
			Stop:  30,
			Dt:    datamodel.Dt{Value: 0.125},
		},
		Models: []datamodel.Model{{
			Name: "main",
			Variables: []datamodel.Variable{
				{
					Kind:            datamodel.VarStock,
					Ident:           "temp",
					InitialEquation: scalar("180"),
					Outflows:        []string{"cooling"},
				},
				{
					Kind:     datamodel.VarFlow,
					Ident:    "cooling",
					Equation: scalar("(temp - room_temp) / time_constant"),
				},
				{Kind: datamodel.VarAux, Ident: "room_temp", Equation: scalar("70")},
				{Kind: datamodel.VarAux, Ident: "time_constant", Equation: scalar("10")},
			},
		}},
	}
}
