package voxel

import (
	"fmt"
	"strings"
)

// SupportStyle selects the internal scaffold pattern.
type SupportStyle int

const (
	SupportNone SupportStyle = iota
	// SupportColumns places vertical columns on a periodic XY grid.
	SupportColumns
	// SupportLattice places walls on a periodic grid, optionally
	// alternating between X and Y walls per layer.
	SupportLattice
)

func (s SupportStyle) String() string {
	switch s {
	case SupportNone:
		return "none"
	case SupportColumns:
		return "columns"
	case SupportLattice:
		return "lattice"
	default:
		return "unknown"
	}
}

// ParseSupportStyle parses "none", "columns" or "lattice".
func ParseSupportStyle(s string) (SupportStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return SupportNone, nil
	case "columns", "column":
		return SupportColumns, nil
	case "lattice":
		return SupportLattice, nil
	}
	return 0, fmt.Errorf("invalid support style %q", s)
}

// SupportOptions configure scaffold injection.
type SupportOptions struct {
	Style       SupportStyle
	Step        int
	Thickness   int
	AlternateXY bool
}

// matches reports whether (x, y, z) lies on the scaffold pattern.
func (o SupportOptions) matches(x, y, z int) bool {
	step, thick := o.Step, o.Thickness
	if step < 1 {
		step = 1
	}
	if thick < 1 {
		thick = 1
	}
	switch o.Style {
	case SupportColumns:
		return x%step < thick && y%step < thick
	case SupportLattice:
		onX, onY := x%step < thick, y%step < thick
		if o.AlternateXY {
			if z%2 == 0 {
				return onX
			}
			return onY
		}
		return onX || onY
	}
	return false
}

// ApplySupports marks scaffold cells in g. Only cells that would otherwise
// not be drawn are affected: fully interior cells and partial interior
// cells below threshold.
func ApplySupports(g *Grid, o SupportOptions, threshold float64) int {
	if o.Style == SupportNone {
		return 0
	}
	n := 0
	for idx, val := range g.Values {
		if val != Interior && !(IsPartialInterior(val) && Round2(val) < threshold) {
			continue
		}
		x, y, z := g.Dims.Coord(idx)
		if o.matches(x, y, z) {
			g.Values[idx] = Support
			n++
		}
	}
	return n
}
