package voxel

import "math"

// Occupancy values. Values strictly between 0 and 1 mark interior cells at
// a given depth below the shell (0.99 for the first layer, 0.98 for the
// second, and so on).
const (
	Outside  = 0.0
	Shell    = 2.0
	Interior = -1.0
	Support  = 1.5
)

// depthStep is the value decrement per interior layer.
const depthStep = 0.01

// Round2 rounds v to two decimals. Depth values and thresholds are always
// compared in rounded form.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// DepthValue returns the occupancy value of an interior cell d layers below
// the shell (d >= 1).
func DepthValue(d int) float64 {
	return Round2(1 - depthStep*float64(d))
}

// Threshold returns the minimum occupancy value of a drawable cell for the
// given shell thickness (in layers, 1-100).
func Threshold(shellThickness int) float64 {
	return Round2(1.01 - float64(shellThickness)/100)
}

// IsPartialInterior reports whether v is an interior depth value.
func IsPartialInterior(v float64) bool {
	return v > 0 && v < 1
}

// Grid is a dense 3D array of occupancy values parallel to a Lattice.
type Grid struct {
	Dims   Dims
	Values []float64
}

// NewGrid returns a grid with every cell set to Outside.
func NewGrid(d Dims) *Grid {
	return &Grid{Dims: d, Values: make([]float64, d.Len())}
}

// At returns the value at (x, y, z). It panics when out of range.
func (g *Grid) At(x, y, z int) float64 {
	return g.Values[g.Dims.Index(x, y, z)]
}

// Lookup returns the value at (x, y, z) and whether the index is in range.
func (g *Grid) Lookup(x, y, z int) (float64, bool) {
	if !g.Dims.Contains(x, y, z) {
		return 0, false
	}
	return g.At(x, y, z), true
}

// Set stores v at (x, y, z).
func (g *Grid) Set(x, y, z int, v float64) {
	g.Values[g.Dims.Index(x, y, z)] = v
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	c := &Grid{Dims: g.Dims, Values: make([]float64, len(g.Values))}
	copy(c.Values, g.Values)
	return c
}

// Count returns the number of cells for which keep returns true.
func (g *Grid) Count(keep func(v float64) bool) int {
	n := 0
	for _, v := range g.Values {
		if keep(v) {
			n++
		}
	}
	return n
}

// neighbors6 lists the face-adjacent offsets.
var neighbors6 = [6][3]int{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// FaceRecord identifies the closest source face crossing seen for a cell.
type FaceRecord struct {
	Face int     `json:"face"`
	Dist float64 `json:"dist"`
}

// FaceGrid is the nearest-face index grid. Unset cells have no record.
type FaceGrid struct {
	Dims    Dims
	records []FaceRecord
	set     []bool
}

// NewFaceGrid returns a grid with every cell unset.
func NewFaceGrid(d Dims) *FaceGrid {
	return &FaceGrid{
		Dims:    d,
		records: make([]FaceRecord, d.Len()),
		set:     make([]bool, d.Len()),
	}
}

// Get returns the record at (x, y, z), if any.
func (f *FaceGrid) Get(x, y, z int) (FaceRecord, bool) {
	i := f.Dims.Index(x, y, z)
	return f.records[i], f.set[i]
}

// Offer stores rec at (x, y, z) when the cell is unset or rec is strictly
// closer than the stored record. It reports whether rec was stored.
func (f *FaceGrid) Offer(x, y, z int, rec FaceRecord) bool {
	i := f.Dims.Index(x, y, z)
	if f.set[i] && f.records[i].Dist <= rec.Dist {
		return false
	}
	f.records[i] = rec
	f.set[i] = true
	return true
}

// Put stores rec at (x, y, z) unconditionally.
func (f *FaceGrid) Put(x, y, z int, rec FaceRecord) {
	i := f.Dims.Index(x, y, z)
	f.records[i] = rec
	f.set[i] = true
}
