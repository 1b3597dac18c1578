package voxel_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/brickify/pkg/voxel"
)

func TestAxisCount(t *testing.T) {
	tests := []struct {
		name       string
		scale, res float64
		want       int
	}{
		{"exact multiple", 3, 1, 5},
		{"fractional", 2.5, 1, 5},
		{"tiny scale", 0.1, 1, 3},
		{"degenerate", 0, 1, 1},
		{"fine resolution", 1, 0.25, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, voxel.AxisCount(tt.scale, tt.res))
		})
	}
}

func TestAxisCountAtLeastTwo(t *testing.T) {
	for _, scale := range []float64{0.001, 0.5, 1, 7.3, 100} {
		for _, res := range []float64{0.1, 1, 3, 1000} {
			assert.GreaterOrEqual(t, voxel.AxisCount(scale, res), 2, "scale=%v res=%v", scale, res)
		}
	}
}

func TestNewLatticeDims(t *testing.T) {
	lat, err := voxel.NewLattice(r3.Vec{X: 1, Y: 1, Z: 1}, r3.Vec{X: 3, Y: 3, Z: 3}, r3.Vec{})
	require.NoError(t, err)
	assert.Equal(t, voxel.Dims{5, 5, 5}, lat.Dims)
	assert.Equal(t, 125, lat.Dims.Len())
	assert.Equal(t, "5x5x5", lat.Dims.String())
}

func TestNewLatticePoints(t *testing.T) {
	off := r3.Vec{X: 10, Y: -2, Z: 0.5}
	lat, err := voxel.NewLattice(r3.Vec{X: 1, Y: 0.5, Z: 2}, r3.Vec{X: 3, Y: 1, Z: 4}, off)
	require.NoError(t, err)

	// O + (i - S/(2R)) * R
	assert.InDelta(t, 10-1.5, lat.At(0, 0, 0).X, 1e-12)
	assert.InDelta(t, -2-0.5, lat.At(0, 0, 0).Y, 1e-12)
	assert.InDelta(t, 0.5-2, lat.At(0, 0, 0).Z, 1e-12)

	p := lat.At(2, 3, 1)
	assert.InDelta(t, 10+0.5, p.X, 1e-12)
	assert.InDelta(t, -2+1, p.Y, 1e-12)
	assert.InDelta(t, 0.5, p.Z, 1e-12)
}

func TestNewLatticeInvalidResolution(t *testing.T) {
	for _, res := range []r3.Vec{
		{X: 0, Y: 1, Z: 1},
		{X: 1, Y: -1, Z: 1},
		{X: 1, Y: 1, Z: 0},
	} {
		_, err := voxel.NewLattice(res, r3.Vec{X: 1, Y: 1, Z: 1}, r3.Vec{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, voxel.ErrInvalidResolution), "res %v: %v", res, err)
	}
}

func TestDimsIndexRoundTrip(t *testing.T) {
	d := voxel.Dims{3, 4, 5}
	seen := make(map[int]bool)
	for x := 0; x < 3; x++ {
		for y := 0; y < 4; y++ {
			for z := 0; z < 5; z++ {
				i := d.Index(x, y, z)
				require.False(t, seen[i], "index %d reused", i)
				seen[i] = true
				gx, gy, gz := d.Coord(i)
				assert.Equal(t, [3]int{x, y, z}, [3]int{gx, gy, gz})
			}
		}
	}
	assert.Len(t, seen, d.Len())
	assert.False(t, d.Contains(3, 0, 0))
	assert.False(t, d.Contains(0, -1, 0))
	assert.Equal(t, 3, d.Min())
}

func TestLatticeNearest(t *testing.T) {
	lat, err := voxel.NewLattice(r3.Vec{X: 1, Y: 1, Z: 1}, r3.Vec{X: 3, Y: 3, Z: 3}, r3.Vec{})
	require.NoError(t, err)
	x, y, z := lat.Nearest(r3.Vec{X: 0.4, Y: -0.4, Z: 1.6})
	assert.Equal(t, [3]int{2, 1, 3}, [3]int{x, y, z})
}

func TestThresholdAndDepth(t *testing.T) {
	assert.Equal(t, 1.0, voxel.Threshold(1))
	assert.Equal(t, 0.99, voxel.Threshold(2))
	assert.Equal(t, 0.01, voxel.Threshold(100))
	assert.Equal(t, 0.99, voxel.DepthValue(1))
	assert.Equal(t, 0.97, voxel.DepthValue(3))
	assert.True(t, voxel.IsPartialInterior(0.5))
	assert.False(t, voxel.IsPartialInterior(voxel.Interior))
	assert.False(t, voxel.IsPartialInterior(voxel.Shell))
}

func TestFaceGridOfferIsMonotonic(t *testing.T) {
	f := voxel.NewFaceGrid(voxel.Dims{2, 2, 2})
	_, ok := f.Get(1, 1, 1)
	assert.False(t, ok)

	assert.True(t, f.Offer(1, 1, 1, voxel.FaceRecord{Face: 3, Dist: 0.4}))
	assert.False(t, f.Offer(1, 1, 1, voxel.FaceRecord{Face: 4, Dist: 0.4}))
	assert.False(t, f.Offer(1, 1, 1, voxel.FaceRecord{Face: 5, Dist: 0.9}))
	assert.True(t, f.Offer(1, 1, 1, voxel.FaceRecord{Face: 6, Dist: 0.1}))

	rec, ok := f.Get(1, 1, 1)
	require.True(t, ok)
	assert.Equal(t, voxel.FaceRecord{Face: 6, Dist: 0.1}, rec)
}

func TestParseAxisSet(t *testing.T) {
	s, err := voxel.ParseAxisSet("XZ")
	require.NoError(t, err)
	assert.True(t, s.Has(voxel.AxisX))
	assert.False(t, s.Has(voxel.AxisY))
	assert.True(t, s.Has(voxel.AxisZ))
	assert.Equal(t, "xz", s.String())

	_, err = voxel.ParseAxisSet("xw")
	assert.Error(t, err)
}
