package bricks_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/brickify/pkg/bricks"
)

func TestNewCatalog(t *testing.T) {
	tests := []struct {
		name    string
		typ     bricks.BrickType
		heights []int
		legal   []bricks.Footprint
		illegal []bricks.Footprint
	}{
		{
			name:    "plates",
			typ:     bricks.Plates,
			heights: []int{1},
			legal:   []bricks.Footprint{{W: 1, D: 1, H: 1}, {W: 2, D: 1, H: 1}, {W: 8, D: 2, H: 1}, {W: 16, D: 16, H: 1}},
			illegal: []bricks.Footprint{{W: 5, D: 1, H: 1}, {W: 3, D: 3, H: 1}, {W: 2, D: 2, H: 3}},
		},
		{
			name:    "bricks",
			typ:     bricks.Bricks,
			heights: []int{1},
			legal:   []bricks.Footprint{{W: 4, D: 1, H: 1}, {W: 1, D: 4, H: 1}, {W: 8, D: 8, H: 1}},
			illegal: []bricks.Footprint{{W: 16, D: 16, H: 1}, {W: 4, D: 4, H: 1}},
		},
		{
			name:    "bricks and plates",
			typ:     bricks.BricksAndPlates,
			heights: []int{1, 3},
			legal:   []bricks.Footprint{{W: 2, D: 2, H: 1}, {W: 2, D: 4, H: 3}, {W: 4, D: 2, H: 3}},
			illegal: []bricks.Footprint{{W: 2, D: 2, H: 2}, {W: 16, D: 16, H: 3}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := bricks.NewCatalog(tt.typ, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.heights, c.Heights())
			assert.Equal(t, len(tt.heights) > 1, c.MixedHeights())
			for _, f := range tt.legal {
				assert.True(t, c.Legal(f), f.String())
			}
			for _, f := range tt.illegal {
				assert.False(t, c.Legal(f), f.String())
			}
			for _, f := range c.Sizes() {
				assert.True(t, c.Legal(f.Rotated()), "rotation of %s", f)
			}
		})
	}
}

func TestNewCatalogCustom(t *testing.T) {
	c, err := bricks.NewCatalog(bricks.Custom, []bricks.Footprint{{W: 2, D: 1}, {W: 2, D: 2}})
	require.NoError(t, err)
	assert.Equal(t, []bricks.Footprint{
		{W: 1, D: 1, H: 1}, {W: 1, D: 2, H: 1}, {W: 2, D: 1, H: 1}, {W: 2, D: 2, H: 1},
	}, c.Sizes())

	_, err = bricks.NewCatalog(bricks.Custom, nil)
	assert.Error(t, err)
	_, err = bricks.NewCatalog(bricks.Custom, []bricks.Footprint{{W: 0, D: 1}})
	assert.Error(t, err)
}

func TestParseBrickType(t *testing.T) {
	for _, bt := range []bricks.BrickType{bricks.Plates, bricks.Bricks, bricks.BricksAndPlates, bricks.Custom} {
		got, err := bricks.ParseBrickType(bt.String())
		require.NoError(t, err)
		assert.Equal(t, bt, got)
	}
	_, err := bricks.ParseBrickType("tiles")
	assert.Error(t, err)
}
