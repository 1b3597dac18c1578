package bricks

import (
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/brickify/pkg/voxel"
)

// nameSpace seeds the deterministic brick names.
var nameSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/chazu/brickify/bricks"))

// cellName returns a stable unique name for the cell at k.
func cellName(k Key) string {
	return "brick-" + uuid.NewSHA1(nameSpace, []byte(k.String())).String()
}

// MaterialLookup resolves a source face to a material name.
type MaterialLookup interface {
	MaterialName(face int) (string, bool)
}

// BuildDict converts an occupancy grid into a brick dictionary. Cells whose
// value reaches threshold are drawable; every other lattice coordinate gets
// a "does not exist" entry. Positions are relative to centroid. If no cell
// is drawable the cell nearest the centroid is drawn instead.
func BuildDict(occ *voxel.Occupancy, threshold float64, centroid r3.Vec) *Dict {
	lat := occ.Lattice
	dims := lat.Dims
	d := &Dict{
		Dims:       dims,
		Resolution: lat.Resolution,
		Cells:      make(map[Key]*Cell, dims.Len()),
	}
	threshold = voxel.Round2(threshold)

	drawn := 0
	for x := 0; x < dims[0]; x++ {
		for y := 0; y < dims[1]; y++ {
			for z := 0; z < dims[2]; z++ {
				k := Key{x, y, z}
				v := occ.Values.At(x, y, z)
				c := &Cell{Name: DoesNotExist, Value: v, NearestFace: -1}
				if voxel.Round2(v) >= threshold {
					fill(c, k, lat, occ.Faces, centroid)
					drawn++
				}
				d.Cells[k] = c
			}
		}
	}

	if drawn == 0 {
		x, y, z := lat.Nearest(centroid)
		k := Key{x, y, z}
		c := d.Cells[k]
		c.Value = voxel.Shell
		fill(c, k, lat, occ.Faces, centroid)
	}
	return d
}

func fill(c *Cell, k Key, lat *voxel.Lattice, faces *voxel.FaceGrid, centroid r3.Vec) {
	c.Name = cellName(k)
	pos := r3.Sub(lat.At(k.X, k.Y, k.Z), centroid)
	c.Position = &pos
	if faces != nil {
		if rec, ok := faces.Get(k.X, k.Y, k.Z); ok {
			c.NearestFace = rec.Face
		}
	}
}

// ResolveMaterials fills in the material of every drawable cell that has a
// nearest face. Faces without a material leave the cell's material empty.
func ResolveMaterials(d *Dict, m MaterialLookup) {
	if m == nil {
		return
	}
	for _, c := range d.Cells {
		if !c.Drawable() || c.NearestFace < 0 {
			continue
		}
		if name, ok := m.MaterialName(c.NearestFace); ok {
			c.Material = name
		} else {
			c.Material = ""
		}
	}
}
