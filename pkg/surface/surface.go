// Package surface provides the source surface that gets converted to
// bricks: something that answers ray casts and face material lookups.
package surface

import "gonum.org/v1/gonum/spatial/r3"

// Hit describes the nearest forward intersection of a ray with a surface.
type Hit struct {
	Location r3.Vec
	Normal   r3.Vec
	Face     int // -1 when the face cannot be identified
}

// Surface is the source surface consumed by the voxelizer.
type Surface interface {
	// RayCast returns the nearest intersection along dir starting at
	// origin, or false when the ray escapes.
	RayCast(origin, dir r3.Vec) (Hit, bool)

	// MaterialName returns the material assigned to a face.
	MaterialName(face int) (string, bool)

	// Bounds returns the axis-aligned bounding box.
	Bounds() (min, max r3.Vec)
}

// Center returns the midpoint of the surface bounding box.
func Center(s Surface) r3.Vec {
	min, max := s.Bounds()
	return r3.Scale(0.5, r3.Add(min, max))
}

// Size returns the extent of the surface bounding box.
func Size(s Surface) r3.Vec {
	min, max := s.Bounds()
	return r3.Sub(max, min)
}
