package surface

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

var _ Surface = (*Box)(nil)

// Box is an analytic axis-aligned box. Faces are numbered -X, +X, -Y, +Y,
// -Z, +Z and all share one material.
type Box struct {
	Min, Max r3.Vec
	Material string
}

// NewBox returns a box of the given size centred on center.
func NewBox(center, size r3.Vec, material string) *Box {
	h := r3.Scale(0.5, size)
	return &Box{Min: r3.Sub(center, h), Max: r3.Add(center, h), Material: material}
}

// RayCast intersects the ray with the six face planes and returns the
// nearest hit with t > 0.
func (b *Box) RayCast(origin, dir r3.Vec) (Hit, bool) {
	lo := [3]float64{b.Min.X, b.Min.Y, b.Min.Z}
	hi := [3]float64{b.Max.X, b.Max.Y, b.Max.Z}
	o := [3]float64{origin.X, origin.Y, origin.Z}
	d := [3]float64{dir.X, dir.Y, dir.Z}

	best := math.Inf(1)
	face := -1
	for a := 0; a < 3; a++ {
		if d[a] == 0 {
			continue
		}
		for side, plane := range [2]float64{lo[a], hi[a]} {
			t := (plane - o[a]) / d[a]
			if t <= 1e-12 || t >= best {
				continue
			}
			inFace := true
			for c := 0; c < 3; c++ {
				if c == a {
					continue
				}
				p := o[c] + t*d[c]
				if p < lo[c] || p > hi[c] {
					inFace = false
					break
				}
			}
			if inFace {
				best = t
				face = a*2 + side
			}
		}
	}
	if face < 0 {
		return Hit{}, false
	}

	var n [3]float64
	n[face/2] = float64(face%2*2 - 1)
	return Hit{
		Location: r3.Add(origin, r3.Scale(best, dir)),
		Normal:   r3.Vec{X: n[0], Y: n[1], Z: n[2]},
		Face:     face,
	}, true
}

// MaterialName returns the box material for any of its six faces.
func (b *Box) MaterialName(face int) (string, bool) {
	if face < 0 || face > 5 || b.Material == "" {
		return "", false
	}
	return b.Material, true
}

// Bounds returns the box corners.
func (b *Box) Bounds() (min, max r3.Vec) {
	return b.Min, b.Max
}
