package bricks_test

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/brickify/pkg/bricks"
	"github.com/chazu/brickify/pkg/voxel"
)

// cubeDict returns a dictionary holding only a w x d x h block of drawable
// shell cells with unit resolution.
func cubeDict(w, d, h int, material string) *bricks.Dict {
	dict := &bricks.Dict{
		Dims:       voxel.Dims{w, d, h},
		Resolution: r3.Vec{X: 1, Y: 1, Z: 1},
		Cells:      make(map[bricks.Key]*bricks.Cell),
	}
	for x := 0; x < w; x++ {
		for y := 0; y < d; y++ {
			for z := 0; z < h; z++ {
				dict.Cells[bricks.Key{X: x, Y: y, Z: z}] = drawable(x, y, z, material)
			}
		}
	}
	return dict
}

func drawable(x, y, z int, material string) *bricks.Cell {
	pos := r3.Vec{X: float64(x), Y: float64(y), Z: float64(z)}
	return &bricks.Cell{
		Name:        fmt.Sprintf("cell-%d-%d-%d", x, y, z),
		Value:       voxel.Shell,
		Position:    &pos,
		NearestFace: -1,
		Material:    material,
	}
}

func undrawn(v float64) *bricks.Cell {
	return &bricks.Cell{Name: bricks.DoesNotExist, Value: v, NearestFace: -1}
}

// drawableKeys snapshots which cells are drawable before merging.
func drawableKeys(d *bricks.Dict) map[bricks.Key]bool {
	out := make(map[bricks.Key]bool)
	for k, c := range d.Cells {
		if c.Drawable() {
			out[k] = true
		}
	}
	return out
}
