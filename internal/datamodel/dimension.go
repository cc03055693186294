package datamodel

import "strconv"

// Dimension is a named ordered set of element names, declared either with
// explicit elements or as an indexed range (1..N, materialized into
// element names "1".."N" at load time).
type Dimension struct {
	Name     string   `yaml:"name"`
	Elements []string `yaml:"elements"`
}

// Size returns the number of elements in the dimension.
func (d Dimension) Size() int { return len(d.Elements) }

// IndexOf returns the zero-based offset of element within the dimension,
// or -1 if it is not a member.
func (d Dimension) IndexOf(element string) int {
	for i, e := range d.Elements {
		if e == element {
			return i
		}
	}
	return -1
}

// IndexedRange builds a Dimension with elements "1".."n".
func IndexedRange(name string, n int) Dimension {
	elems := make([]string, n)
	for i := 0; i < n; i++ {
		elems[i] = strconv.Itoa(i + 1)
	}
	return Dimension{Name: name, Elements: elems}
}
