package voxel

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Axis names one of the three lattice axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return "unknown"
	}
}

// Unit returns the positive unit vector along the axis.
func (a Axis) Unit() r3.Vec {
	switch a {
	case AxisX:
		return r3.Vec{X: 1}
	case AxisY:
		return r3.Vec{Y: 1}
	default:
		return r3.Vec{Z: 1}
	}
}

// Component returns the coordinate of v along the axis.
func (a Axis) Component(v r3.Vec) float64 {
	switch a {
	case AxisX:
		return v.X
	case AxisY:
		return v.Y
	default:
		return v.Z
	}
}

// others returns the two axes orthogonal to a, in ascending order.
func (a Axis) others() (Axis, Axis) {
	switch a {
	case AxisX:
		return AxisY, AxisZ
	case AxisY:
		return AxisX, AxisZ
	default:
		return AxisX, AxisY
	}
}

// dominantAxis returns the axis along which v has its largest component.
func dominantAxis(v r3.Vec) Axis {
	ax, ay, az := abs(v.X), abs(v.Y), abs(v.Z)
	switch {
	case ax >= ay && ax >= az:
		return AxisX
	case ay >= az:
		return AxisY
	default:
		return AxisZ
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// AxisSet is a subset of {X, Y, Z}.
type AxisSet uint8

// AllAxes contains X, Y and Z.
const AllAxes AxisSet = 1<<AxisX | 1<<AxisY | 1<<AxisZ

// NewAxisSet builds a set from the given axes.
func NewAxisSet(axes ...Axis) AxisSet {
	var s AxisSet
	for _, a := range axes {
		s |= 1 << a
	}
	return s
}

// Has reports whether a is in the set.
func (s AxisSet) Has(a Axis) bool {
	return s&(1<<a) != 0
}

// Axes lists the members of the set in X, Y, Z order.
func (s AxisSet) Axes() []Axis {
	var out []Axis
	for _, a := range []Axis{AxisX, AxisY, AxisZ} {
		if s.Has(a) {
			out = append(out, a)
		}
	}
	return out
}

func (s AxisSet) String() string {
	var b strings.Builder
	for _, a := range s.Axes() {
		b.WriteString(a.String())
	}
	return b.String()
}

// ParseAxisSet parses strings such as "xyz", "XY" or "z".
func ParseAxisSet(s string) (AxisSet, error) {
	var set AxisSet
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch r {
		case 'x':
			set |= 1 << AxisX
		case 'y':
			set |= 1 << AxisY
		case 'z':
			set |= 1 << AxisZ
		case ',', ' ':
		default:
			return 0, fmt.Errorf("invalid axis %q in %q", r, s)
		}
	}
	return set, nil
}
