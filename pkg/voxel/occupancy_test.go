package voxel_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/brickify/pkg/surface"
	"github.com/chazu/brickify/pkg/voxel"
)

// smallLattice is 5x5x5 with points at -1.5 .. 2.5.
func smallLattice(t *testing.T) *voxel.Lattice {
	t.Helper()
	lat, err := voxel.NewLattice(r3.Vec{X: 1, Y: 1, Z: 1}, r3.Vec{X: 3, Y: 3, Z: 3}, r3.Vec{})
	require.NoError(t, err)
	return lat
}

// bigLattice is 7x7x7 with points at -2.5 .. 3.5.
func bigLattice(t *testing.T) *voxel.Lattice {
	t.Helper()
	lat, err := voxel.NewLattice(r3.Vec{X: 1, Y: 1, Z: 1}, r3.Vec{X: 5, Y: 5, Z: 5}, r3.Vec{})
	require.NoError(t, err)
	return lat
}

// bigBox spans [-2.2, 2.2]; cells 1..4 on each axis of bigLattice are inside.
func bigBox() *surface.Box {
	return surface.NewBox(r3.Vec{}, r3.Vec{X: 4.4, Y: 4.4, Z: 4.4}, "blue")
}

func build(t *testing.T, lat *voxel.Lattice, s surface.Surface, opts voxel.Options) *voxel.Occupancy {
	t.Helper()
	occ, err := voxel.BuildOccupancy(context.Background(), lat, s, opts, nil)
	require.NoError(t, err)
	return occ
}

func count(g *voxel.Grid, want float64) int {
	return g.Count(func(v float64) bool { return voxel.Round2(v) == want })
}

func TestBuildOccupancySmallBox(t *testing.T) {
	lat := smallLattice(t)
	occ := build(t, lat, unitBox(), voxel.DefaultOptions())

	for x := 0; x < 5; x++ {
		for y := 0; y < 5; y++ {
			for z := 0; z < 5; z++ {
				inside := x >= 1 && x <= 2 && y >= 1 && y <= 2 && z >= 1 && z <= 2
				want := voxel.Outside
				if inside {
					want = voxel.Shell
				}
				assert.Equal(t, want, occ.Values.At(x, y, z), "cell %d,%d,%d", x, y, z)
			}
		}
	}

	rec, ok := occ.Faces.Get(1, 1, 1)
	require.True(t, ok)
	assert.Equal(t, 0, rec.Face)
	assert.InDelta(t, 0.7, rec.Dist, 1e-9)

	_, ok = occ.Faces.Get(0, 0, 0)
	assert.False(t, ok)
}

func TestBuildOccupancyInsideNeverOutside(t *testing.T) {
	box := bigBox()
	lat := bigLattice(t)
	occ := build(t, lat, box, voxel.DefaultOptions())

	for idx, v := range occ.Values.Values {
		x, y, z := lat.Dims.Coord(idx)
		p := lat.At(x, y, z)
		if analyticInside(box, p) {
			assert.NotEqual(t, voxel.Outside, v, "inside point %v", p)
		} else {
			assert.Equal(t, voxel.Outside, v, "outside point %v", p)
		}
	}
}

// slabMesh returns a closed triangle mesh of the box [0,size].
func slabMesh(t *testing.T, size r3.Vec) *surface.Mesh {
	t.Helper()
	v := func(x, y, z float64) r3.Vec { return r3.Vec{X: x * size.X, Y: y * size.Y, Z: z * size.Z} }
	var faces []surface.Face
	quad := func(a, b, c, d r3.Vec) {
		faces = append(faces, surface.Face{Tri: surface.Triangle{a, b, c}}, surface.Face{Tri: surface.Triangle{a, c, d}})
	}
	quad(v(0, 0, 0), v(0, 0, 1), v(0, 1, 1), v(0, 1, 0))
	quad(v(1, 0, 0), v(1, 1, 0), v(1, 1, 1), v(1, 0, 1))
	quad(v(0, 0, 0), v(1, 0, 0), v(1, 0, 1), v(0, 0, 1))
	quad(v(0, 1, 0), v(0, 1, 1), v(1, 1, 1), v(1, 1, 0))
	quad(v(0, 0, 0), v(0, 1, 0), v(1, 1, 0), v(1, 0, 0))
	quad(v(0, 0, 1), v(1, 0, 1), v(1, 1, 1), v(0, 1, 1))
	m, err := surface.NewMesh(faces, []string{"grey"})
	require.NoError(t, err)
	return m
}

// boxPlacement sorts p against the closed box [min,max]: -1 strictly
// inside, 1 strictly outside, 0 on the boundary. faces counts the box
// faces p lies on.
func boxPlacement(min, max, p r3.Vec) (where, faces int) {
	const eps = 1e-6
	lo := [3]float64{min.X, min.Y, min.Z}
	hi := [3]float64{max.X, max.Y, max.Z}
	c := [3]float64{p.X, p.Y, p.Z}
	where = -1
	for a := range c {
		switch {
		case c[a] < lo[a]-eps || c[a] > hi[a]+eps:
			return 1, 0
		case c[a] < lo[a]+eps || c[a] > hi[a]-eps:
			where = 0
			faces++
		}
	}
	return where, faces
}

// TestBuildOccupancyLatticeOnBounds builds lattices over the surface's own
// bounds, so the outermost planes lie on the surface.
func TestBuildOccupancyLatticeOnBounds(t *testing.T) {
	surfaces := []struct {
		name string
		surf surface.Surface
		res  float64
	}{
		// Both faces of every axis pass through lattice points.
		{"box", surface.NewBox(r3.Vec{}, r3.Vec{X: 4, Y: 4, Z: 4}, "blue"), 1},
		// Only the min faces do; no point sits on a triangle diagonal.
		{"mesh", slabMesh(t, r3.Vec{X: 4.3, Y: 3.1, Z: 2.7}), 0.5},
	}
	rays := []voxel.InsidenessRays{
		voxel.RaysHighEfficiency, voxel.RaysX, voxel.RaysY, voxel.RaysZ, voxel.RaysXYZ,
	}
	skips := map[string]voxel.AxisSet{"skip": voxel.AllAxes, "no skip": 0}

	for _, sf := range surfaces {
		for _, r := range rays {
			for skipName, skip := range skips {
				t.Run(sf.name+"/"+r.String()+"/"+skipName, func(t *testing.T) {
					res := r3.Vec{X: sf.res, Y: sf.res, Z: sf.res}
					lat, err := voxel.NewLattice(res, surface.Size(sf.surf), surface.Center(sf.surf))
					require.NoError(t, err)

					opts := voxel.DefaultOptions()
					opts.Rays = r
					opts.SkipAhead = skip
					opts.DoubleCheck = true
					occ := build(t, lat, sf.surf, opts)

					min, max := sf.surf.Bounds()
					interior := 0
					for idx, v := range occ.Values.Values {
						x, y, z := lat.Dims.Coord(idx)
						p := lat.At(x, y, z)
						where, faces := boxPlacement(min, max, p)
						switch {
						case where < 0:
							assert.NotEqual(t, voxel.Outside, v, "inside point %v", p)
						case where > 0:
							assert.Equal(t, voxel.Outside, v, "outside point %v", p)
						case faces == 1:
							assert.Equal(t, voxel.Shell, v, "face point %v", p)
						}
						if v == voxel.Interior {
							interior++
						}
					}
					assert.Positive(t, interior)
				})
			}
		}
	}
}

func TestBuildOccupancyShellThickness(t *testing.T) {
	tests := []struct {
		name      string
		thickness int
		shell     int
		interior  int
		depth1    int
	}{
		{"one layer", 1, 56, 8, 0},
		{"two layers", 2, 56, 0, 8},
		{"bounded by grid", 10, 56, 0, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := voxel.DefaultOptions()
			opts.ShellThickness = tt.thickness
			occ := build(t, bigLattice(t), bigBox(), opts)

			assert.Equal(t, tt.shell, count(occ.Values, voxel.Shell))
			assert.Equal(t, tt.interior, count(occ.Values, voxel.Interior))
			assert.Equal(t, tt.depth1, count(occ.Values, voxel.DepthValue(1)))
		})
	}
}

func TestBuildOccupancyDepthInheritsFace(t *testing.T) {
	opts := voxel.DefaultOptions()
	opts.ShellThickness = 2

	occ := build(t, bigLattice(t), bigBox(), opts)
	rec, ok := occ.Faces.Get(2, 2, 2)
	require.True(t, ok)
	shellRec, _ := occ.Faces.Get(1, 2, 2)
	assert.Equal(t, shellRec.Face, rec.Face)

	opts.ShellMaterialDepth = 0
	occ = build(t, bigLattice(t), bigBox(), opts)
	_, ok = occ.Faces.Get(2, 2, 2)
	assert.False(t, ok)
}

func TestBuildOccupancyShellPolicy(t *testing.T) {
	tests := []struct {
		name     string
		policy   voxel.ShellPolicy
		verify   bool
		shell    int
		interior int
	}{
		{"inside", voxel.ShellInside, true, 56, 8},
		{"outside", voxel.ShellOutside, true, 96, 64},
		{"both unverified", voxel.ShellBoth, false, 152, 8},
		// Verification demotes the inner shell, which no longer touches
		// outside space.
		{"both verified", voxel.ShellBoth, true, 96, 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := voxel.DefaultOptions()
			opts.ShellPolicy = tt.policy
			opts.VerifyExposure = tt.verify
			occ := build(t, bigLattice(t), bigBox(), opts)

			assert.Equal(t, tt.shell, count(occ.Values, voxel.Shell))
			assert.Equal(t, tt.interior, count(occ.Values, voxel.Interior))
		})
	}
}

func TestBuildOccupancySkipAheadAndAxes(t *testing.T) {
	ref := build(t, bigLattice(t), bigBox(), voxel.DefaultOptions())

	variants := map[string]func(*voxel.Options){
		"no skip":   func(o *voxel.Options) { o.SkipAhead = 0 },
		"z only":    func(o *voxel.Options) { o.Axes = voxel.NewAxisSet(voxel.AxisZ) },
		"x only":    func(o *voxel.Options) { o.Axes = voxel.NewAxisSet(voxel.AxisX) },
		"xyz rays":  func(o *voxel.Options) { o.Rays = voxel.RaysXYZ },
		"no verify": func(o *voxel.Options) { o.VerifyExposure = false },
	}
	for name, mutate := range variants {
		t.Run(name, func(t *testing.T) {
			opts := voxel.DefaultOptions()
			mutate(&opts)
			occ := build(t, bigLattice(t), bigBox(), opts)
			if diff := cmp.Diff(ref.Values.Values, occ.Values.Values); diff != "" {
				t.Errorf("values differ (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildOccupancyIdempotent(t *testing.T) {
	opts := voxel.DefaultOptions()
	opts.ShellThickness = 3
	opts.Supports = voxel.SupportOptions{Style: voxel.SupportColumns, Step: 2, Thickness: 1}

	a := build(t, bigLattice(t), bigBox(), opts)
	b := build(t, bigLattice(t), bigBox(), opts)
	assert.Equal(t, a.Values, b.Values)
	assert.Equal(t, a.Faces, b.Faces)
}

func TestBuildOccupancySupports(t *testing.T) {
	tests := []struct {
		name     string
		supports voxel.SupportOptions
		want     int
	}{
		{"none", voxel.SupportOptions{}, 0},
		{"columns", voxel.SupportOptions{Style: voxel.SupportColumns, Step: 2, Thickness: 1}, 2},
		{"lattice alternating", voxel.SupportOptions{Style: voxel.SupportLattice, Step: 2, Thickness: 1, AlternateXY: true}, 4},
		{"lattice", voxel.SupportOptions{Style: voxel.SupportLattice, Step: 2, Thickness: 1}, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := voxel.DefaultOptions()
			opts.Supports = tt.supports
			occ := build(t, bigLattice(t), bigBox(), opts)

			assert.Equal(t, tt.want, count(occ.Values, voxel.Support))
			assert.Equal(t, 8-tt.want, count(occ.Values, voxel.Interior))
			assert.Equal(t, 56, count(occ.Values, voxel.Shell))
		})
	}
}

func TestBuildOccupancyProgress(t *testing.T) {
	var fractions []float64
	_, err := voxel.BuildOccupancy(context.Background(), smallLattice(t), unitBox(), voxel.DefaultOptions(),
		func(f float64) { fractions = append(fractions, f) })
	require.NoError(t, err)

	require.Len(t, fractions, 3*25)
	assert.Equal(t, 1.0, fractions[len(fractions)-1])
	for i := 1; i < len(fractions); i++ {
		assert.Greater(t, fractions[i], fractions[i-1])
	}
}

func TestBuildOccupancyErrors(t *testing.T) {
	lat := smallLattice(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := voxel.BuildOccupancy(ctx, lat, unitBox(), voxel.DefaultOptions(), nil)
	assert.True(t, errors.Is(err, context.Canceled))

	opts := voxel.DefaultOptions()
	opts.Axes = 0
	_, err = voxel.BuildOccupancy(context.Background(), lat, unitBox(), opts, nil)
	assert.True(t, errors.Is(err, voxel.ErrNoAxes))

	opts = voxel.DefaultOptions()
	opts.ShellThickness = 0
	_, err = voxel.BuildOccupancy(context.Background(), lat, unitBox(), opts, nil)
	assert.Error(t, err)

	_, err = voxel.BuildOccupancy(context.Background(), lat, nil, voxel.DefaultOptions(), nil)
	assert.Error(t, err)
}

func TestParseShellPolicyAndSupportStyle(t *testing.T) {
	for _, p := range []voxel.ShellPolicy{voxel.ShellInside, voxel.ShellOutside, voxel.ShellBoth} {
		got, err := voxel.ParseShellPolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	for _, s := range []voxel.SupportStyle{voxel.SupportNone, voxel.SupportColumns, voxel.SupportLattice} {
		got, err := voxel.ParseSupportStyle(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := voxel.ParseShellPolicy("middle")
	assert.Error(t, err)
}
