package bricks

import (
	"fmt"
	"sort"
	"strings"
)

// BrickType selects the footprint catalog and layer heights.
type BrickType int

const (
	// Plates draws every lattice layer as a plate.
	Plates BrickType = iota
	// Bricks draws every lattice layer as a full brick.
	Bricks
	// BricksAndPlates uses plate-height layers and allows three-layer
	// bricks where a column is free.
	BricksAndPlates
	// Custom uses a caller-supplied footprint list.
	Custom
)

func (t BrickType) String() string {
	switch t {
	case Plates:
		return "plates"
	case Bricks:
		return "bricks"
	case BricksAndPlates:
		return "bricks-and-plates"
	case Custom:
		return "custom"
	default:
		return "unknown"
	}
}

// ParseBrickType parses the names produced by String.
func ParseBrickType(s string) (BrickType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plates", "plate":
		return Plates, nil
	case "", "bricks", "brick":
		return Bricks, nil
	case "bricks-and-plates", "bricks_and_plates":
		return BricksAndPlates, nil
	case "custom":
		return Custom, nil
	}
	return 0, fmt.Errorf("invalid brick type %q", s)
}

// brickHeight is the number of plate layers in a full brick.
const brickHeight = 3

// plateSizes lists width x depth pairs with width <= depth. Rotations are
// added by NewCatalog.
var plateSizes = [][2]int{
	{1, 1}, {1, 2}, {1, 3}, {1, 4}, {1, 6}, {1, 8}, {1, 10}, {1, 12},
	{2, 2}, {2, 3}, {2, 4}, {2, 6}, {2, 8}, {2, 10}, {2, 12}, {2, 14}, {2, 16},
	{4, 4}, {4, 6}, {4, 8}, {4, 10}, {4, 12},
	{6, 6}, {6, 8}, {6, 10}, {6, 12}, {6, 14}, {6, 16},
	{8, 8}, {8, 16},
	{16, 16},
}

var brickSizes = [][2]int{
	{1, 1}, {1, 2}, {1, 3}, {1, 4}, {1, 6}, {1, 8}, {1, 10}, {1, 12}, {1, 14}, {1, 16},
	{2, 2}, {2, 3}, {2, 4}, {2, 6}, {2, 8}, {2, 10},
	{4, 6}, {4, 8}, {4, 10}, {4, 12}, {4, 16},
	{8, 8},
}

// Catalog is the set of legal footprints, including rotations.
type Catalog struct {
	legal   map[Footprint]bool
	sizes   []Footprint
	heights []int
}

// NewCatalog builds the catalog for t. custom is consulted only for
// Custom; its entries with a zero height default to one layer. The 1x1x1
// footprint is always legal so that every drawable cell can be placed.
func NewCatalog(t BrickType, custom []Footprint) (*Catalog, error) {
	c := &Catalog{legal: make(map[Footprint]bool)}
	switch t {
	case Plates:
		c.addAll(plateSizes, 1)
	case Bricks:
		c.addAll(brickSizes, 1)
	case BricksAndPlates:
		c.addAll(plateSizes, 1)
		c.addAll(brickSizes, brickHeight)
	case Custom:
		if len(custom) == 0 {
			return nil, fmt.Errorf("bricks: custom catalog is empty")
		}
		for _, f := range custom {
			if f.H == 0 {
				f.H = 1
			}
			if f.W < 1 || f.D < 1 || f.H < 1 {
				return nil, fmt.Errorf("bricks: invalid footprint %s", f)
			}
			c.add(f)
		}
	default:
		return nil, fmt.Errorf("bricks: unknown brick type %d", t)
	}
	c.add(Footprint{1, 1, 1})
	c.finish()
	return c, nil
}

func (c *Catalog) addAll(sizes [][2]int, h int) {
	for _, s := range sizes {
		c.add(Footprint{W: s[0], D: s[1], H: h})
	}
}

func (c *Catalog) add(f Footprint) {
	c.legal[f] = true
	c.legal[f.Rotated()] = true
}

func (c *Catalog) finish() {
	hs := make(map[int]bool)
	c.sizes = c.sizes[:0]
	for f := range c.legal {
		c.sizes = append(c.sizes, f)
		hs[f.H] = true
	}
	sort.Slice(c.sizes, func(i, j int) bool {
		a, b := c.sizes[i], c.sizes[j]
		if a.H != b.H {
			return a.H < b.H
		}
		if a.W != b.W {
			return a.W < b.W
		}
		return a.D < b.D
	})
	for h := range hs {
		c.heights = append(c.heights, h)
	}
	sort.Ints(c.heights)
}

// Legal reports whether f is in the catalog.
func (c *Catalog) Legal(f Footprint) bool {
	return c.legal[f]
}

// Sizes returns every legal footprint ordered by height, width, depth.
func (c *Catalog) Sizes() []Footprint {
	out := make([]Footprint, len(c.sizes))
	copy(out, c.sizes)
	return out
}

// Heights returns the distinct layer heights, ascending.
func (c *Catalog) Heights() []int {
	out := make([]int, len(c.heights))
	copy(out, c.heights)
	return out
}

// MixedHeights reports whether footprints of more than one height exist.
func (c *Catalog) MixedHeights() bool {
	return len(c.heights) > 1
}
