package voxel

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrInvalidResolution is returned when a lattice resolution component is
// zero, negative or not a number.
var ErrInvalidResolution = errors.New("voxel: resolution must be positive")

// Dims holds the number of lattice cells along X, Y and Z.
type Dims [3]int

// Len returns the total number of cells.
func (d Dims) Len() int {
	return d[0] * d[1] * d[2]
}

// Contains reports whether (x, y, z) is a valid cell index.
func (d Dims) Contains(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < d[0] && y < d[1] && z < d[2]
}

// Index flattens (x, y, z) into a slice offset. Z varies fastest so that a
// scan line along Z is contiguous.
func (d Dims) Index(x, y, z int) int {
	return (x*d[1]+y)*d[2] + z
}

// Coord is the inverse of Index.
func (d Dims) Coord(i int) (x, y, z int) {
	z = i % d[2]
	i /= d[2]
	y = i % d[1]
	x = i / d[1]
	return x, y, z
}

// Min returns the smallest extent.
func (d Dims) Min() int {
	m := d[0]
	for _, n := range d[1:] {
		if n < m {
			m = n
		}
	}
	return m
}

func (d Dims) String() string {
	return fmt.Sprintf("%dx%dx%d", d[0], d[1], d[2])
}

// Lattice is an immutable grid of sample points covering a bounding volume.
type Lattice struct {
	Dims       Dims
	Resolution r3.Vec
	Offset     r3.Vec
	points     []r3.Vec
}

// AxisCount returns the number of lattice planes needed to cover scale at
// the given resolution: ceil(scale/res)+1, plus one more plane unless the
// scale is degenerate.
func AxisCount(scale, res float64) int {
	n := int(math.Ceil(scale/res)) + 1
	if n != 1 {
		n++
	}
	return n
}

// NewLattice builds the sample lattice for a bounding box of size scale
// centred on offset. Every resolution component must be positive.
func NewLattice(res, scale, offset r3.Vec) (*Lattice, error) {
	rs := [3]float64{res.X, res.Y, res.Z}
	ss := [3]float64{scale.X, scale.Y, scale.Z}
	off := [3]float64{offset.X, offset.Y, offset.Z}

	var dims Dims
	for i := range rs {
		if !(rs[i] > 0) || math.IsInf(rs[i], 0) {
			return nil, fmt.Errorf("%w: got %v on axis %s", ErrInvalidResolution, rs[i], Axis(i))
		}
		if ss[i] < 0 || math.IsNaN(ss[i]) {
			return nil, fmt.Errorf("voxel: invalid scale %v on axis %s", ss[i], Axis(i))
		}
		dims[i] = AxisCount(ss[i], rs[i])
	}

	// Per-axis coordinate tables keep the point computation exact and cheap.
	var coords [3][]float64
	for a := range coords {
		coords[a] = make([]float64, dims[a])
		for i := range coords[a] {
			coords[a][i] = off[a] + (float64(i)-ss[a]/(2*rs[a]))*rs[a]
		}
	}

	l := &Lattice{
		Dims:       dims,
		Resolution: res,
		Offset:     offset,
		points:     make([]r3.Vec, dims.Len()),
	}
	for x := 0; x < dims[0]; x++ {
		for y := 0; y < dims[1]; y++ {
			for z := 0; z < dims[2]; z++ {
				l.points[dims.Index(x, y, z)] = r3.Vec{X: coords[0][x], Y: coords[1][y], Z: coords[2][z]}
			}
		}
	}
	return l, nil
}

// At returns the sample point of cell (x, y, z). It panics when the index
// is out of range.
func (l *Lattice) At(x, y, z int) r3.Vec {
	return l.points[l.Dims.Index(x, y, z)]
}

// Nearest returns the cell whose sample point is closest to p.
func (l *Lattice) Nearest(p r3.Vec) (x, y, z int) {
	best := math.Inf(1)
	for i, q := range l.points {
		if d := r3.Norm2(r3.Sub(p, q)); d < best {
			best = d
			x, y, z = l.Dims.Coord(i)
		}
	}
	return x, y, z
}
