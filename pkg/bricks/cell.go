package bricks

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/brickify/pkg/voxel"
)

// DoesNotExist is the name of cells that are not drawn, either because they
// fall below the threshold or because a merge absorbed them.
const DoesNotExist = "DNE"

// Footprint is a brick size in lattice cells: width along X, depth along Y
// and height in layers along Z.
type Footprint struct {
	W int `json:"w"`
	D int `json:"d"`
	H int `json:"h"`
}

// IsZero reports whether no footprint has been assigned.
func (f Footprint) IsZero() bool {
	return f == Footprint{}
}

// Volume returns the number of cells covered.
func (f Footprint) Volume() int {
	return f.W * f.D * f.H
}

// Rotated swaps width and depth.
func (f Footprint) Rotated() Footprint {
	return Footprint{W: f.D, D: f.W, H: f.H}
}

func (f Footprint) String() string {
	return fmt.Sprintf("%dx%dx%d", f.W, f.D, f.H)
}

// Cell is one entry of the brick dictionary.
type Cell struct {
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	Position    *r3.Vec `json:"position,omitempty"`
	NearestFace int     `json:"nearest_face"`
	Material    string  `json:"material"`

	// MergeType is set on merge roots.
	MergeType Footprint `json:"merge_type"`
	IsParent  bool      `json:"is_parent"`
	// Parent points at the owning root once the cell is merged. A root
	// points at itself.
	Parent *Key `json:"parent,omitempty"`

	TopExposed bool `json:"top_exposed"`
	BotExposed bool `json:"bot_exposed"`
}

// Drawable reports whether the cell is an unmerged drawable cell.
func (c *Cell) Drawable() bool {
	return c.Name != DoesNotExist
}

// Absorbed reports whether the cell has been claimed by a merge.
func (c *Cell) Absorbed() bool {
	return c.Parent != nil
}

// Dict is the brick dictionary: one cell per lattice coordinate.
type Dict struct {
	Dims       voxel.Dims    `json:"dims"`
	Resolution r3.Vec        `json:"resolution"`
	Cells      map[Key]*Cell `json:"cells"`
}

// Get returns the cell at k.
func (d *Dict) Get(k Key) (*Cell, bool) {
	c, ok := d.Cells[k]
	return c, ok
}

// Keys returns all keys in Z, Y, X order.
func (d *Dict) Keys() []Key {
	keys := make([]Key, 0, len(d.Cells))
	for k := range d.Cells {
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys
}

// Roots returns the keys of all merge roots in Z, Y, X order.
func (d *Dict) Roots() []Key {
	var roots []Key
	for k, c := range d.Cells {
		if c.IsParent {
			roots = append(roots, k)
		}
	}
	sortKeys(roots)
	return roots
}

// DrawableCount returns the number of cells that are drawn or were
// absorbed into a drawn brick.
func (d *Dict) DrawableCount() int {
	n := 0
	for _, c := range d.Cells {
		if c.Drawable() || c.Absorbed() {
			n++
		}
	}
	return n
}

// covered lists the keys a root's footprint spans.
func covered(root Key, f Footprint) []Key {
	keys := make([]Key, 0, f.Volume())
	for dz := 0; dz < f.H; dz++ {
		for dy := 0; dy < f.D; dy++ {
			for dx := 0; dx < f.W; dx++ {
				keys = append(keys, root.Offset(dx, dy, dz))
			}
		}
	}
	return keys
}

// Covered returns the keys covered by the root at k, or nil when k is not
// a merge root.
func (d *Dict) Covered(k Key) []Key {
	c, ok := d.Cells[k]
	if !ok || !c.IsParent {
		return nil
	}
	return covered(k, c.MergeType)
}
