// Package units implements a unit-expression algebra and checker: units
// are parsed into a multiplicative/divisive/exponentiated form (an
// exponent per base unit name), and a checker walks each variable's
// equation AST, accumulating non-fatal mismatch diagnostics rather than
// halting on the first one.
package units

import (
	"sort"
	"strconv"
	"strings"
)

// Units is a multiplicative/divisive/exponentiated unit expression: a map
// from base unit name to its integer exponent. The empty map is
// dimensionless. Zero exponents are never stored, so two Units with the
// same effective dimensions compare equal with reflect.DeepEqual or a
// plain map-equality loop.
type Units map[string]int

// Dimensionless reports whether u has no base units (all exponents
// cancelled, or none were ever present).
func (u Units) Dimensionless() bool { return len(u) == 0 }

// Mul returns the unit produced by multiplying two quantities with units a
// and b: exponents add.
func Mul(a, b Units) Units { return combine(a, b, 1) }

// Div returns the unit produced by dividing a quantity with units a by one
// with units b: exponents subtract.
func Div(a, b Units) Units { return combine(a, b, -1) }

func combine(a, b Units, sign int) Units {
	out := make(Units, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] += sign * v
		if out[k] == 0 {
			delete(out, k)
		}
	}
	return out
}

// Pow raises u to an integer power n.
func Pow(u Units, n int) Units {
	out := make(Units, len(u))
	for k, v := range u {
		if v*n != 0 {
			out[k] = v * n
		}
	}
	return out
}

// Equal reports whether a and b denote the same dimensions.
func Equal(a, b Units) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// String renders u in canonical form, e.g. "kg*m/s^2", with base units
// sorted alphabetically for determinism.
func (u Units) String() string {
	if u.Dimensionless() {
		return "1"
	}
	var names []string
	for k := range u {
		names = append(names, k)
	}
	sort.Strings(names)

	var num, den []string
	for _, k := range names {
		exp := u[k]
		switch {
		case exp == 1:
			num = append(num, k)
		case exp > 1:
			num = append(num, k+"^"+strconv.Itoa(exp))
		case exp == -1:
			den = append(den, k)
		default:
			den = append(den, k+"^"+strconv.Itoa(-exp))
		}
	}

	var b strings.Builder
	if len(num) == 0 {
		b.WriteString("1")
	} else {
		b.WriteString(strings.Join(num, "*"))
	}
	if len(den) > 0 {
		b.WriteString("/")
		b.WriteString(strings.Join(den, "/"))
	}
	return b.String()
}
