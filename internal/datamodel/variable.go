package datamodel

// VarKind tags which Variable variant is populated.
type VarKind string

const (
	VarStock  VarKind = "stock"
	VarFlow   VarKind = "flow"
	VarAux    VarKind = "aux"
	VarModule VarKind = "module"
)

// ModuleBinding wires one of a module's inputs to an expression evaluated
// in the enclosing model's namespace. Dst has the form
// "<module>.<input-ident>".
type ModuleBinding struct {
	Src string `yaml:"src"`
	Dst string `yaml:"dst"`
}

// Variable is a tagged union over Stock, Flow, Aux, and Module.
// Exactly the fields relevant to Kind are populated.
type Variable struct {
	Kind VarKind `yaml:"kind"`
	Ident string `yaml:"ident"`
	Units string `yaml:"units,omitempty"`

	// Stock
	InitialEquation *Equation `yaml:"initial_equation,omitempty"`
	Inflows         []string  `yaml:"inflows,omitempty"`
	Outflows        []string  `yaml:"outflows,omitempty"`
	NonNegative     bool      `yaml:"non_negative,omitempty"`

	// Flow / Aux
	Equation *Equation          `yaml:"equation,omitempty"`
	GF       *GraphicalFunction `yaml:"gf,omitempty"`

	// Module
	ModelName string          `yaml:"model_name,omitempty"`
	Bindings  []ModuleBinding `yaml:"bindings,omitempty"`
}

// IsStock, IsFlow, IsAux, IsModule are convenience predicates used
// throughout the variable builder and model analyzer.
func (v Variable) IsStock() bool  { return v.Kind == VarStock }
func (v Variable) IsFlow() bool   { return v.Kind == VarFlow }
func (v Variable) IsAux() bool    { return v.Kind == VarAux }
func (v Variable) IsModule() bool { return v.Kind == VarModule }
