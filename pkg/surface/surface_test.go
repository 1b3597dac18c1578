package surface_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/brickify/pkg/kernel"
	"github.com/chazu/brickify/pkg/surface"
)

// cube returns the 12 triangles of the axis-aligned cube [0,s]^3.
func cube(s float64) []surface.Triangle {
	v := func(x, y, z float64) r3.Vec { return r3.Vec{X: x * s, Y: y * s, Z: z * s} }
	quad := func(a, b, c, d r3.Vec) []surface.Triangle {
		return []surface.Triangle{{a, b, c}, {a, c, d}}
	}
	var tris []surface.Triangle
	tris = append(tris, quad(v(0, 0, 0), v(0, 0, 1), v(0, 1, 1), v(0, 1, 0))...) // -X
	tris = append(tris, quad(v(1, 0, 0), v(1, 1, 0), v(1, 1, 1), v(1, 0, 1))...) // +X
	tris = append(tris, quad(v(0, 0, 0), v(1, 0, 0), v(1, 0, 1), v(0, 0, 1))...) // -Y
	tris = append(tris, quad(v(0, 1, 0), v(0, 1, 1), v(1, 1, 1), v(1, 1, 0))...) // +Y
	tris = append(tris, quad(v(0, 0, 0), v(0, 1, 0), v(1, 1, 0), v(1, 0, 0))...) // -Z
	tris = append(tris, quad(v(0, 0, 1), v(1, 0, 1), v(1, 1, 1), v(0, 1, 1))...) // +Z
	return tris
}

func cubeFaces(s float64, slot int) []surface.Face {
	var faces []surface.Face
	for _, t := range cube(s) {
		faces = append(faces, surface.Face{Tri: t, Slot: slot})
	}
	return faces
}

// binarySTL encodes triangles in the binary STL layout.
func binarySTL(t *testing.T, tris []surface.Triangle) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(make([]byte, 80))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(len(tris))))
	for _, tri := range tris {
		rec := make([]float32, 0, 12)
		rec = append(rec, 0, 0, 0)
		for _, p := range tri {
			rec = append(rec, float32(p.X), float32(p.Y), float32(p.Z))
		}
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, rec))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(0)))
	}
	return buf.Bytes()
}

func assertVec(t *testing.T, want, got r3.Vec) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9)
	assert.InDelta(t, want.Y, got.Y, 1e-9)
	assert.InDelta(t, want.Z, got.Z, 1e-9)
}

func TestBoxRayCast(t *testing.T) {
	b := surface.NewBox(r3.Vec{}, r3.Vec{X: 2, Y: 2, Z: 2}, "red")

	tests := []struct {
		name   string
		origin r3.Vec
		dir    r3.Vec
		loc    r3.Vec
		normal r3.Vec
		face   int
	}{
		{"from outside -X", r3.Vec{X: -5, Y: 0.2}, r3.Vec{X: 1}, r3.Vec{X: -1, Y: 0.2}, r3.Vec{X: -1}, 0},
		{"from inside +Z", r3.Vec{}, r3.Vec{Z: 1}, r3.Vec{Z: 1}, r3.Vec{Z: 1}, 5},
		{"from inside -Y", r3.Vec{X: 0.5}, r3.Vec{Y: -1}, r3.Vec{X: 0.5, Y: -1}, r3.Vec{Y: -1}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := b.RayCast(tt.origin, tt.dir)
			require.True(t, ok)
			assertVec(t, tt.loc, hit.Location)
			assertVec(t, tt.normal, hit.Normal)
			assert.Equal(t, tt.face, hit.Face)
		})
	}

	_, ok := b.RayCast(r3.Vec{X: -5, Y: 5}, r3.Vec{X: 1})
	assert.False(t, ok, "ray passing beside the box")
	_, ok = b.RayCast(r3.Vec{X: 5}, r3.Vec{X: 1})
	assert.False(t, ok, "ray pointing away from the box")
}

func TestBoxMaterial(t *testing.T) {
	b := surface.NewBox(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1}, "red")
	name, ok := b.MaterialName(3)
	assert.True(t, ok)
	assert.Equal(t, "red", name)

	_, ok = b.MaterialName(6)
	assert.False(t, ok)
	_, ok = surface.NewBox(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1}, "").MaterialName(0)
	assert.False(t, ok)
}

func TestCenterAndSize(t *testing.T) {
	b := surface.NewBox(r3.Vec{X: 1, Y: 2, Z: 3}, r3.Vec{X: 2, Y: 4, Z: 6}, "")
	assertVec(t, r3.Vec{X: 1, Y: 2, Z: 3}, surface.Center(b))
	assertVec(t, r3.Vec{X: 2, Y: 4, Z: 6}, surface.Size(b))
}

func TestMeshRayCast(t *testing.T) {
	m, err := surface.NewMesh(cubeFaces(2, 0), []string{"blue"})
	require.NoError(t, err)
	assert.Equal(t, 12, m.FaceCount())

	min, max := m.Bounds()
	assertVec(t, r3.Vec{}, min)
	assertVec(t, r3.Vec{X: 2, Y: 2, Z: 2}, max)

	hit, ok := m.RayCast(r3.Vec{X: -1, Y: 0.5, Z: 1.3}, r3.Vec{X: 1})
	require.True(t, ok)
	assertVec(t, r3.Vec{Y: 0.5, Z: 1.3}, hit.Location)
	assert.InDelta(t, 1, math.Abs(hit.Normal.X), 1e-9)
	require.Contains(t, []int{0, 1}, hit.Face)

	name, ok := m.MaterialName(hit.Face)
	assert.True(t, ok)
	assert.Equal(t, "blue", name)

	// Ray from inside exits through the top.
	hit, ok = m.RayCast(r3.Vec{X: 0.7, Y: 1.6, Z: 1}, r3.Vec{Z: 1})
	require.True(t, ok)
	assert.InDelta(t, 2, hit.Location.Z, 1e-9)
	assert.Contains(t, []int{10, 11}, hit.Face)

	_, ok = m.RayCast(r3.Vec{X: -1, Y: 3, Z: 1}, r3.Vec{X: 1})
	assert.False(t, ok)
}

func TestMeshMaterialSlots(t *testing.T) {
	faces := cubeFaces(1, 0)
	faces[0].Slot = 1
	faces[1].Slot = 7
	m, err := surface.NewMesh(faces, []string{"red", ""})
	require.NoError(t, err)

	name, ok := m.MaterialName(2)
	assert.True(t, ok)
	assert.Equal(t, "red", name)

	_, ok = m.MaterialName(0)
	assert.False(t, ok, "empty material name")
	_, ok = m.MaterialName(1)
	assert.False(t, ok, "slot outside the table")
	_, ok = m.MaterialName(-1)
	assert.False(t, ok)
	_, ok = m.MaterialName(12)
	assert.False(t, ok)
}

func TestEmptyMesh(t *testing.T) {
	_, err := surface.NewMesh(nil, nil)
	assert.ErrorIs(t, err, surface.ErrEmptyMesh)
	_, err = surface.FromKernelMesh(nil, "red")
	assert.ErrorIs(t, err, surface.ErrEmptyMesh)
	_, err = surface.FromKernelMesh(&kernel.Mesh{}, "red")
	assert.ErrorIs(t, err, surface.ErrEmptyMesh)
}

func TestFromKernelMesh(t *testing.T) {
	km := &kernel.Mesh{
		Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1},
		Indices:  []uint32{0, 1, 2, 0, 1, 3},
	}
	m, err := surface.FromKernelMesh(km, "grey")
	require.NoError(t, err)
	assert.Equal(t, 2, m.FaceCount())

	name, ok := m.MaterialName(1)
	assert.True(t, ok)
	assert.Equal(t, "grey", name)

	min, max := m.Bounds()
	assertVec(t, r3.Vec{}, min)
	assertVec(t, r3.Vec{X: 1, Y: 1, Z: 1}, max)

	plain, err := surface.FromKernelMesh(km, "")
	require.NoError(t, err)
	_, ok = plain.MaterialName(0)
	assert.False(t, ok)
}

func TestReadSTL(t *testing.T) {
	data := binarySTL(t, cube(3))
	m, err := surface.ReadSTL(bytes.NewReader(data), "white")
	require.NoError(t, err)
	assert.Equal(t, 12, m.FaceCount())

	_, max := m.Bounds()
	assertVec(t, r3.Vec{X: 3, Y: 3, Z: 3}, max)

	name, ok := m.MaterialName(5)
	assert.True(t, ok)
	assert.Equal(t, "white", name)

	_, err = surface.ReadSTL(bytes.NewReader([]byte("abc")), "")
	assert.Error(t, err)
}

func TestLoadSTL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube.stl")
	require.NoError(t, os.WriteFile(path, binarySTL(t, cube(1)), 0o644))

	m, err := surface.LoadSTL(path, "")
	require.NoError(t, err)
	assert.Equal(t, 12, m.FaceCount())

	_, err = surface.LoadSTL(filepath.Join(t.TempDir(), "missing.stl"), "")
	assert.Error(t, err)
}
