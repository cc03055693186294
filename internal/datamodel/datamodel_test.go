package datamodel

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestSimSpecsRoundTripsThroughYAML(t *testing.T) {
	saveStep := 0.5
	orig := SimSpecs{
		Start: 0, Stop: 30, Dt: Dt{Value: 16, IsReciprocal: true},
		SaveStep: &saveStep, Method: MethodRungeKutta4, TimeUnits: "months",
	}

	out, err := yaml.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got SimSpecs
	if err := yaml.Unmarshal(out, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(orig, got); diff != "" {
		t.Fatalf("SimSpecs did not round-trip through YAML (-want +got):\n%s", diff)
	}
}

func TestDtReciprocalResolve(t *testing.T) {
	d := Dt{Value: 4, IsReciprocal: true}
	if got := d.Resolve(); got != 0.25 {
		t.Fatalf("got %v, want 0.25", got)
	}
	d2 := Dt{Value: 0.25}
	if got := d2.Resolve(); got != 0.25 {
		t.Fatalf("got %v, want 0.25", got)
	}
}

func TestResolveRejectsStopBeforeStart(t *testing.T) {
	_, _, err := SimSpecs{Start: 10, Stop: 5, Dt: Dt{Value: 1}}.Resolve()
	if err == nil {
		t.Fatalf("expected an error for stop < start")
	}
}

func TestResolveRoundsSaveStepDownToMultiple(t *testing.T) {
	save := 0.7
	r, _, err := SimSpecs{Start: 0, Stop: 10, Dt: Dt{Value: 0.25}, SaveStep: &save}.Resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.SaveStep != 0.5 {
		t.Fatalf("expected save_step rounded down to 0.5, got %v", r.SaveStep)
	}
}

func TestResolveDowngradesRK4(t *testing.T) {
	r, downgraded, err := SimSpecs{Start: 0, Stop: 1, Dt: Dt{Value: 1}, Method: MethodRungeKutta4}.Resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !downgraded {
		t.Fatalf("expected downgraded=true for RungeKutta4")
	}
	if r.Method != MethodEuler {
		t.Fatalf("expected method downgraded to euler, got %v", r.Method)
	}
}

func TestAssembleDetectsDuplicateModel(t *testing.T) {
	p := &Project{Models: []Model{{Name: "main"}, {Name: "main"}}}
	errs := Assemble(p)
	if len(errs) != 1 || errs[0].Code != ErrDuplicateModel {
		t.Fatalf("expected one ErrDuplicateModel, got %v", errs)
	}
}

func TestAssembleDetectsUnknownModelRef(t *testing.T) {
	p := &Project{Models: []Model{{
		Name: "main",
		Variables: []Variable{
			{Kind: VarModule, Ident: "m1", ModelName: "does_not_exist"},
		},
	}}}
	errs := Assemble(p)
	if len(errs) != 1 || errs[0].Code != ErrUnknownModelRef {
		t.Fatalf("expected one ErrUnknownModelRef, got %v", errs)
	}
}

func TestAssembleDetectsUnreferencedModel(t *testing.T) {
	p := &Project{Models: []Model{
		{Name: "main"},
		{Name: "orphan"},
	}}
	errs := Assemble(p)
	if len(errs) != 1 || errs[0].Code != ErrUnreferencedModel {
		t.Fatalf("expected one ErrUnreferencedModel, got %v", errs)
	}
}

func TestAssembleAcceptsWiredProject(t *testing.T) {
	p := &Project{Models: []Model{
		{Name: "main", Variables: []Variable{{Kind: VarModule, Ident: "m1", ModelName: "sub"}}},
		{Name: "sub"},
	}}
	if errs := Assemble(p); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}
