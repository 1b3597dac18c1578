package surface

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/unixpickle/model3d/model3d"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/brickify/pkg/kernel"
)

// Compile-time interface check.
var _ Surface = (*Mesh)(nil)

// ErrEmptyMesh is returned when a mesh has no triangles.
var ErrEmptyMesh = errors.New("surface: mesh has no triangles")

// Triangle is a single face given by its three corners.
type Triangle [3]r3.Vec

// Face is a triangle plus the index of its material slot.
type Face struct {
	Tri  Triangle
	Slot int
}

// rayCaster is the subset of a model3d collider used here.
type rayCaster interface {
	FirstRayCollision(r *model3d.Ray) (model3d.RayCollision, bool)
}

// Mesh is a triangle-mesh surface. Ray casts run against a model3d BVH.
type Mesh struct {
	faces     []Face
	materials []string
	index     map[*model3d.Triangle]int
	collider  rayCaster
	min, max  r3.Vec
}

// NewMesh builds a surface from faces. materials maps slot indices to
// material names; slots outside the table have no material.
func NewMesh(faces []Face, materials []string) (*Mesh, error) {
	if len(faces) == 0 {
		return nil, ErrEmptyMesh
	}

	m := &Mesh{
		faces:     faces,
		materials: materials,
		index:     make(map[*model3d.Triangle]int, len(faces)),
		min:       r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)},
		max:       r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)},
	}

	mesh := model3d.NewMesh()
	for i, f := range faces {
		t := &model3d.Triangle{toCoord(f.Tri[0]), toCoord(f.Tri[1]), toCoord(f.Tri[2])}
		m.index[t] = i
		mesh.Add(t)
		for _, p := range f.Tri {
			m.min = r3.Vec{X: math.Min(m.min.X, p.X), Y: math.Min(m.min.Y, p.Y), Z: math.Min(m.min.Z, p.Z)}
			m.max = r3.Vec{X: math.Max(m.max.X, p.X), Y: math.Max(m.max.Y, p.Y), Z: math.Max(m.max.Z, p.Z)}
		}
	}
	m.collider = model3d.MeshToCollider(mesh)
	return m, nil
}

// FromKernelMesh wraps a flat kernel mesh. Every face gets the given
// material (slot 0); an empty material leaves faces unassigned.
func FromKernelMesh(km *kernel.Mesh, material string) (*Mesh, error) {
	if km == nil || km.TriangleCount() == 0 {
		return nil, ErrEmptyMesh
	}
	vertex := func(i uint32) r3.Vec {
		return r3.Vec{
			X: float64(km.Vertices[i*3]),
			Y: float64(km.Vertices[i*3+1]),
			Z: float64(km.Vertices[i*3+2]),
		}
	}
	faces := make([]Face, 0, km.TriangleCount())
	for t := 0; t < km.TriangleCount(); t++ {
		i0, i1, i2 := km.Indices[t*3], km.Indices[t*3+1], km.Indices[t*3+2]
		faces = append(faces, Face{Tri: Triangle{vertex(i0), vertex(i1), vertex(i2)}})
	}
	var materials []string
	if material != "" {
		materials = []string{material}
	}
	return NewMesh(faces, materials)
}

// ReadSTL decodes an STL stream (ASCII or binary) into a surface with a
// single material.
func ReadSTL(r io.Reader, material string) (*Mesh, error) {
	tris, err := model3d.ReadSTL(r)
	if err != nil {
		return nil, fmt.Errorf("surface: read stl: %w", err)
	}
	faces := make([]Face, 0, len(tris))
	for _, t := range tris {
		faces = append(faces, Face{Tri: Triangle{fromCoord(t[0]), fromCoord(t[1]), fromCoord(t[2])}})
	}
	var materials []string
	if material != "" {
		materials = []string{material}
	}
	return NewMesh(faces, materials)
}

// LoadSTL reads an STL file from disk.
func LoadSTL(path, material string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSTL(f, material)
}

// RayCast returns the nearest intersection of the ray with the mesh.
func (m *Mesh) RayCast(origin, dir r3.Vec) (Hit, bool) {
	rc, ok := m.collider.FirstRayCollision(&model3d.Ray{
		Origin:    toCoord(origin),
		Direction: toCoord(dir),
	})
	if !ok {
		return Hit{}, false
	}
	hit := Hit{
		Location: r3.Add(origin, r3.Scale(rc.Scale, dir)),
		Normal:   fromCoord(rc.Normal),
		Face:     -1,
	}
	if tc, ok := rc.Extra.(*model3d.TriangleCollision); ok {
		if idx, ok := m.index[tc.Triangle]; ok {
			hit.Face = idx
		}
	}
	return hit, true
}

// MaterialName returns the material of the face's slot.
func (m *Mesh) MaterialName(face int) (string, bool) {
	if face < 0 || face >= len(m.faces) {
		return "", false
	}
	slot := m.faces[face].Slot
	if slot < 0 || slot >= len(m.materials) || m.materials[slot] == "" {
		return "", false
	}
	return m.materials[slot], true
}

// Bounds returns the axis-aligned bounding box of all vertices.
func (m *Mesh) Bounds() (min, max r3.Vec) {
	return m.min, m.max
}

// FaceCount returns the number of faces.
func (m *Mesh) FaceCount() int {
	return len(m.faces)
}

func toCoord(v r3.Vec) model3d.Coord3D {
	return model3d.XYZ(v.X, v.Y, v.Z)
}

func fromCoord(c model3d.Coord3D) r3.Vec {
	return r3.Vec{X: c.X, Y: c.Y, Z: c.Z}
}
