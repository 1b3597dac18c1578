// Package meshgen builds one triangle mesh per merged brick using a
// geometry kernel. Exposed tops get studs and exposed bottoms get a
// hollow underside; hidden faces are left plain.
package meshgen

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/brickify/pkg/bricks"
	"github.com/chazu/brickify/pkg/kernel"
)

// Detail is the amount of geometry generated for a brick.
type Detail int

const (
	// DetailLow is a plain box.
	DetailLow Detail = iota
	// DetailMedium adds studs on top.
	DetailMedium
	// DetailHigh also hollows out the underside.
	DetailHigh
)

func (d Detail) String() string {
	switch d {
	case DetailLow:
		return "low"
	case DetailMedium:
		return "medium"
	case DetailHigh:
		return "high"
	default:
		return "unknown"
	}
}

// DetailFor derives the detail level from a brick's exposure.
func DetailFor(topExposed, botExposed bool) Detail {
	switch {
	case botExposed:
		return DetailHigh
	case topExposed:
		return DetailMedium
	default:
		return DetailLow
	}
}

// Proportions of stud and wall features relative to the cell width.
const (
	studRadius = 0.3
	studHeight = 0.225
	wallWidth  = 0.15
	// topThickness is relative to one layer's height.
	topThickness = 0.3
)

// Options configure a Generator.
type Options struct {
	// Studs enables studs on exposed tops.
	Studs bool
	// Hollow enables the hollow underside on exposed bottoms.
	Hollow bool
}

// Generator turns merged bricks into meshes.
type Generator struct {
	k    kernel.Kernel
	unit r3.Vec
	opts Options
}

// New returns a generator for cells of size unit (one lattice cell).
func New(k kernel.Kernel, unit r3.Vec, opts Options) *Generator {
	return &Generator{k: k, unit: unit, opts: opts}
}

// Solid builds the brick solid centred on the origin.
func (g *Generator) Solid(f bricks.Footprint, detail Detail, studs bool) kernel.Solid {
	w := float64(f.W) * g.unit.X
	d := float64(f.D) * g.unit.Y
	h := float64(f.H) * g.unit.Z
	solid := g.k.Box(w, d, h)

	pitch := math.Min(g.unit.X, g.unit.Y)
	if studs && detail >= DetailMedium {
		sh := studHeight * pitch
		for j := 0; j < f.D; j++ {
			for i := 0; i < f.W; i++ {
				stud := g.k.Cylinder(sh, studRadius*pitch)
				stud = g.k.Translate(stud,
					-w/2+(float64(i)+0.5)*g.unit.X,
					-d/2+(float64(j)+0.5)*g.unit.Y,
					h/2+sh/2)
				solid = g.k.Union(solid, stud)
			}
		}
	}

	if g.opts.Hollow && detail >= DetailHigh {
		wall := wallWidth * pitch
		top := topThickness * g.unit.Z
		if cw, cd := w-2*wall, d-2*wall; cw > 0 && cd > 0 && h > top {
			// The cavity pokes out below the body so the underside is open.
			z0, z1 := -h/2-top, h/2-top
			cavity := g.k.Translate(g.k.Box(cw, cd, z1-z0), 0, 0, (z0+z1)/2)
			solid = g.k.Difference(solid, cavity)
		}
	}
	return solid
}

// Brick tessellates a single brick centred on the origin.
func (g *Generator) Brick(f bricks.Footprint, detail Detail, studs bool, material string) (*kernel.Mesh, error) {
	mesh, err := g.k.ToMesh(g.Solid(f, detail, studs))
	if err != nil {
		return nil, fmt.Errorf("meshgen: ToMesh failed for %s brick: %w", f, err)
	}
	mesh.Material = material
	return mesh, nil
}

// Generate produces one mesh per merge root in d, placed at the brick's
// centre. The context is polled once per brick.
func (g *Generator) Generate(ctx context.Context, d *bricks.Dict) ([]*kernel.Mesh, error) {
	var meshes []*kernel.Mesh
	for _, b := range bricks.Summaries(d) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		detail := DetailFor(b.TopExposed, b.BotExposed)
		studs := g.opts.Studs && b.TopExposed

		solid := g.Solid(b.Footprint, detail, studs)
		solid = g.k.Translate(solid, b.Center.X, b.Center.Y, b.Center.Z)
		mesh, err := g.k.ToMesh(solid)
		if err != nil {
			return nil, fmt.Errorf("meshgen: ToMesh failed for brick %s: %w", b.Key, err)
		}
		mesh.Name = b.Name
		mesh.Material = b.Material
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}
