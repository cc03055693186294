package vm

import (
	"math"

	"github.com/sunholo/simlin/internal/errors"
)

// applyBuiltin evaluates one of the closed set of non-rewritable builtins
// internal/builtinrw.knownFunctionNames lists — internal/compiler never
// emits an OpApply for any other name, since internal/varbuild's
// builtin-rewrite pass already rejected an unknown function with BLT001
// before bytecode lowering ever runs.
//
// A malformed or unsupported call never aborts the simulation: it is
// recorded as a diagnostic and the cell reads NaN, same as any other
// runtime arithmetic condition.
func (m *Vm) applyBuiltin(name string, args []float64) float64 {
	switch name {
	case "pi":
		return math.Pi
	case "inf":
		return math.Inf(1)
	case "time":
		return m.time
	case "dt":
		return m.sim.Specs.Dt
	case "start_time":
		return m.sim.Specs.Start
	case "final_time":
		return m.sim.Specs.Stop
	case "saveper":
		return m.sim.Specs.SaveStep

	case "abs":
		return math.Abs(arg(args, 0))
	case "int":
		return math.Trunc(arg(args, 0))
	case "sqrt":
		a := arg(args, 0)
		if a < 0 {
			m.diagnose(errors.RUN002, "", "sqrt of negative number")
			return math.NaN()
		}
		return math.Sqrt(a)
	case "exp":
		return math.Exp(arg(args, 0))
	case "ln":
		a := arg(args, 0)
		if a <= 0 {
			m.diagnose(errors.RUN002, "", "ln of non-positive number")
			return math.NaN()
		}
		return math.Log(a)
	case "log10":
		a := arg(args, 0)
		if a <= 0 {
			m.diagnose(errors.RUN002, "", "log10 of non-positive number")
			return math.NaN()
		}
		return math.Log10(a)
	case "sin":
		return math.Sin(arg(args, 0))
	case "cos":
		return math.Cos(arg(args, 0))
	case "tan":
		return math.Tan(arg(args, 0))
	case "arctan":
		return math.Atan(arg(args, 0))

	case "min":
		return fold(args, math.Inf(1), math.Min)
	case "max":
		return fold(args, math.Inf(-1), math.Max)

	case "step":
		height, start := arg(args, 0), arg(args, 1)
		if m.time >= start {
			return height
		}
		return 0
	case "pulse":
		start, width := arg(args, 0), arg(args, 1)
		if m.time >= start && m.time < start+width {
			return 1
		}
		return 0
	case "ramp":
		slope, start := arg(args, 0), arg(args, 1)
		t := m.time
		if len(args) >= 3 {
			if end := args[2]; t > end {
				t = end
			}
		}
		if t < start {
			return 0
		}
		return slope * (t - start)

	case "random_uniform":
		lo, hi := 0.0, 1.0
		if len(args) >= 2 {
			lo, hi = arg(args, 0), arg(args, 1)
		}
		return lo + m.rng.Float64()*(hi-lo)
	case "random_normal":
		mean, stddev := 0.0, 1.0
		if len(args) >= 2 {
			mean, stddev = arg(args, 0), arg(args, 1)
		}
		return mean + m.rng.NormFloat64()*stddev

	case "integ":
		// A bare integ() call outside of a Stock definition has no
		// per-call-site slab cell to persist state in — a Stock variable
		// is the supported way to integrate a quantity (see DESIGN.md).
		m.diagnose(errors.RUN002, "", "integ() is not evaluable outside a stock's own integration")
		return math.NaN()
	case "lookup", "lookup_forward", "lookup_backward":
		// Explicit lookup calls are accepted by the grammar so equations
		// written with them still parse and compile, but this VM does not
		// bind them to a specific graphical function table at the call
		// site (see DESIGN.md) — only the automatic per-variable GF
		// convention (OpLookup) is evaluated.
		m.diagnose(errors.RUN003, "", "explicit "+name+"() calls are not evaluated by this VM")
		return math.NaN()

	default:
		m.diagnose(errors.RUN002, "", "unknown builtin: "+name)
		return math.NaN()
	}
}

func arg(args []float64, i int) float64 {
	if i < len(args) {
		return args[i]
	}
	return 0
}

func fold(args []float64, init float64, f func(a, b float64) float64) float64 {
	acc := init
	for _, a := range args {
		acc = f(acc, a)
	}
	if len(args) == 0 {
		return 0
	}
	return acc
}
