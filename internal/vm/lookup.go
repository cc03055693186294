package vm

import (
	"github.com/sunholo/simlin/internal/bytecode"
	"github.com/sunholo/simlin/internal/datamodel"
	"github.com/sunholo/simlin/internal/errors"
)

// evalLookup samples gf at x: linear interpolation between the
// bracketing points in continuous mode, the left point's value in discrete
// mode (a step function), and linear extrapolation past either end in
// extrapolate mode. Continuous and discrete mode both clamp to the
// boundary value outside the table's domain, recording RUN003 since that
// indicates the equation asked for a point the table was never drawn to
// cover.
func (m *Vm) evalLookup(gf datamodel.GraphicalFunction, x float64, mode bytecode.LookupMode) float64 {
	xs, ys := gf.XPoints, gf.YPoints
	n := len(xs)
	if n == 0 {
		m.diagnose(errors.RUN003, "", "lookup against an empty graphical function")
		return 0
	}
	if n == 1 {
		return ys[0]
	}

	if x <= xs[0] {
		if mode == bytecode.LookupExtrapolate {
			return extrapolate(xs[0], ys[0], xs[1], ys[1], x)
		}
		if x < xs[0] {
			m.diagnose(errors.RUN003, "", "lookup argument below table domain")
		}
		return ys[0]
	}
	if x >= xs[n-1] {
		if mode == bytecode.LookupExtrapolate {
			return extrapolate(xs[n-2], ys[n-2], xs[n-1], ys[n-1], x)
		}
		if x > xs[n-1] {
			m.diagnose(errors.RUN003, "", "lookup argument above table domain")
		}
		return ys[n-1]
	}

	for i := 1; i < n; i++ {
		if x <= xs[i] {
			if mode == bytecode.LookupDiscrete {
				return ys[i-1]
			}
			t := (x - xs[i-1]) / (xs[i] - xs[i-1])
			return ys[i-1] + t*(ys[i]-ys[i-1])
		}
	}
	return ys[n-1]
}

func extrapolate(x0, y0, x1, y1, x float64) float64 {
	slope := (y1 - y0) / (x1 - x0)
	return y0 + slope*(x-x0)
}
