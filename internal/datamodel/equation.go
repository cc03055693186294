package datamodel

// EquationKind tags which Equation variant is populated: Scalar,
// ApplyToAll, or Arrayed.
type EquationKind string

const (
	EqScalar      EquationKind = "scalar"
	EqApplyToAll  EquationKind = "apply_to_all"
	EqArrayed     EquationKind = "arrayed"
)

// Equation is a tagged union over the three equation shapes a Flow/Aux
// variable (or a Stock's initial value) may carry.
type Equation struct {
	Kind EquationKind `yaml:"kind"`

	// Scalar: a single equation text.
	Scalar string `yaml:"scalar,omitempty"`

	// ApplyToAll: dimensions this variable is arrayed over, with a single
	// equation text evaluated once per subscript combination.
	Dims []string `yaml:"dims,omitempty"`
	Expr string   `yaml:"expr,omitempty"`

	// Arrayed: one independent equation text per element combination, keyed
	// by comma-joined subscript element names (e.g. "east,1").
	Elements map[string]string `yaml:"elements,omitempty"`
}

// ScalarEquation builds a Scalar equation.
func ScalarEquation(text string) Equation {
	return Equation{Kind: EqScalar, Scalar: text}
}

// ApplyToAllEquation builds an ApplyToAll equation.
func ApplyToAllEquation(dims []string, expr string) Equation {
	return Equation{Kind: EqApplyToAll, Dims: dims, Expr: expr}
}

// ArrayedEquation builds an Arrayed equation.
func ArrayedEquation(elements map[string]string) Equation {
	return Equation{Kind: EqArrayed, Elements: elements}
}

// GraphicalFunction is a piecewise lookup table attached to a Flow/Aux
// variable.
type GraphicalFunction struct {
	XPoints []float64 `yaml:"x_points"`
	YPoints []float64 `yaml:"y_points"`
	// Mode selects how the lookup extrapolates or interpolates outside or
	// between sample points.
	Mode LookupMode `yaml:"mode,omitempty"`
}

// LookupMode selects graphical-function sampling behavior.
type LookupMode string

const (
	LookupContinuous  LookupMode = "continuous"
	LookupDiscrete    LookupMode = "discrete"
	LookupExtrapolate LookupMode = "extrapolate"
)
