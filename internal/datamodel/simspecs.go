// Package datamodel defines the Project value: the declarative,
// serializable description of a system-dynamics model that every other
// package in this module consumes or produces. It owns no behavior beyond
// validation — compilation and simulation live in internal/compiler and
// internal/vm.
//
// Every exported type carries yaml tags so Project values round-trip
// through golden YAML fixtures in tests; the actual cross-process wire
// transport is an external, versioned protobuf schema this module does
// not implement (see DESIGN.md).
package datamodel

import "fmt"

// Method is the integration method requested in SimSpecs.
type Method string

const (
	MethodEuler      Method = "euler"
	MethodRungeKutta4 Method = "rk4"
)

// Dt is dt expressed either directly or as a reciprocal
// (e.g. "32 steps per unit time" rather than "dt = 1/32").
type Dt struct {
	Value       float64 `yaml:"value"`
	IsReciprocal bool   `yaml:"is_reciprocal,omitempty"`
}

// Resolve returns the numeric dt value, inverting Value when IsReciprocal.
func (d Dt) Resolve() float64 {
	if d.IsReciprocal {
		return 1 / d.Value
	}
	return d.Value
}

// SimSpecs is the simulation configuration block of a Project.
type SimSpecs struct {
	Start     float64  `yaml:"start"`
	Stop      float64  `yaml:"stop"`
	Dt        Dt       `yaml:"dt"`
	SaveStep  *float64 `yaml:"save_step,omitempty"`
	Method    Method   `yaml:"method,omitempty"`
	TimeUnits string   `yaml:"time_units,omitempty"`
}

// Resolved is SimSpecs after Dt/SaveStep have been reduced to their final
// numeric values, the form a Results value carries.
type Resolved struct {
	Start, Stop, Dt, SaveStep float64
	Method                    Method
}

// ErrorCode enumerates SimSpecs validation failures.
type ErrorCode string

const (
	ErrStopBeforeStart ErrorCode = "SPEC001"
	ErrNonPositiveDt   ErrorCode = "SPEC002"
	ErrSaveStepTooSmall ErrorCode = "SPEC003"
)

// ValidationError is a SimSpecs invariant violation.
type ValidationError struct {
	Code    ErrorCode
	Message string
}

func (e *ValidationError) Error() string { return string(e.Code) + ": " + e.Message }

// Resolve validates SimSpecs' invariants (stop >= start, dt > 0,
// save_step >= dt) and returns the fully numeric Resolved form. When
// save_step is not an integer multiple of dt, it is rounded down to the
// largest multiple of dt that does not exceed it, and the second return
// value reports whether RungeKutta4 was silently downgraded to Euler —
// the caller, not Resolve, is responsible for warning about that exactly
// once per compilation.
func (s SimSpecs) Resolve() (Resolved, bool, error) {
	if s.Stop < s.Start {
		return Resolved{}, false, &ValidationError{ErrStopBeforeStart, fmt.Sprintf("stop (%g) < start (%g)", s.Stop, s.Start)}
	}
	dt := s.Dt.Resolve()
	if dt <= 0 {
		return Resolved{}, false, &ValidationError{ErrNonPositiveDt, fmt.Sprintf("dt must be > 0, got %g", dt)}
	}

	saveStep := dt
	if s.SaveStep != nil {
		saveStep = *s.SaveStep
	}
	if saveStep < dt {
		return Resolved{}, false, &ValidationError{ErrSaveStepTooSmall, fmt.Sprintf("save_step (%g) < dt (%g)", saveStep, dt)}
	}

	// Round down to the nearest integer multiple of dt.
	steps := int64(saveStep/dt + 1e-9)
	if steps < 1 {
		steps = 1
	}
	saveStep = float64(steps) * dt

	method := s.Method
	downgraded := false
	if method == MethodRungeKutta4 {
		method = MethodEuler
		downgraded = true
	} else if method == "" {
		method = MethodEuler
	}

	return Resolved{Start: s.Start, Stop: s.Stop, Dt: dt, SaveStep: saveStep, Method: method}, downgraded, nil
}
