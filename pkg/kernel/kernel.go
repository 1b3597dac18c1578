// Package kernel defines the geometry kernel used to build brick meshes
// and primitive source shapes. Implementations wrap a solid modelling
// library behind this interface so the mesh generator can be tested with
// a stub.
package kernel

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel builds solids and tessellates them.
type Kernel interface {
	// Primitives, all centred on the origin.
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64) Solid
	Sphere(radius float64) Solid

	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid

	Translate(s Solid, x, y, z float64) Solid

	ToMesh(s Solid) (*Mesh, error)
}
