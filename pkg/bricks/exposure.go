package bricks

import "github.com/chazu/brickify/pkg/voxel"

// ComputeExposure sets TopExposed and BotExposed on every merge root and on
// the cells it covers. Roots are processed in Z, Y, X order.
//
// Looking past a run of undrawn partial-interior cells may find outside
// space; those cells are then relabelled outside in place, which later
// queries observe.
func ComputeExposure(d *Dict) (top, bottom int) {
	for _, root := range d.Roots() {
		t, b := Exposure(d, root)
		for _, k := range d.Covered(root) {
			c := d.Cells[k]
			c.TopExposed, c.BotExposed = t, b
		}
		if t {
			top++
		}
		if b {
			bottom++
		}
	}
	return top, bottom
}

// Exposure reports whether the top and bottom faces of the brick rooted at
// root border outside space. It returns false, false for non-roots.
func Exposure(d *Dict, root Key) (top, bottom bool) {
	c, ok := d.Cells[root]
	if !ok || !c.IsParent {
		return false, false
	}
	f := c.MergeType
	for dy := 0; dy < f.D; dy++ {
		for dx := 0; dx < f.W; dx++ {
			base := root.Offset(dx, dy, 0)
			if !top && exposedFrom(d, base.Offset(0, 0, f.H), 1) {
				top = true
			}
			if !bottom && exposedFrom(d, base.Offset(0, 0, -1), -1) {
				bottom = true
			}
		}
	}
	return top, bottom
}

// exposedFrom walks along Z from k in direction dz. Missing cells count as
// outside.
func exposedFrom(d *Dict, k Key, dz int) bool {
	var walked []*Cell
	for {
		c, ok := d.Cells[k]
		if !ok {
			return true
		}
		if c.Drawable() || c.Absorbed() {
			return false
		}
		v := voxel.Round2(c.Value)
		switch {
		case v == voxel.Outside:
			for _, w := range walked {
				w.Value = voxel.Outside
			}
			return true
		case voxel.IsPartialInterior(v):
			walked = append(walked, c)
			k = k.Offset(0, 0, dz)
		default:
			return false
		}
	}
}
