package voxel

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/chazu/brickify/pkg/surface"
)

// ShellPolicy selects which endpoint of a crossed lattice edge becomes shell.
type ShellPolicy int

const (
	// ShellInside marks the endpoint that lies inside the surface.
	ShellInside ShellPolicy = iota
	// ShellOutside marks the endpoint that lies outside the surface.
	ShellOutside
	// ShellBoth marks both endpoints.
	ShellBoth
)

func (p ShellPolicy) String() string {
	switch p {
	case ShellInside:
		return "inside"
	case ShellOutside:
		return "outside"
	case ShellBoth:
		return "both"
	default:
		return "unknown"
	}
}

// ParseShellPolicy parses "inside", "outside" or "both".
func ParseShellPolicy(s string) (ShellPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inside", "inside-only", "":
		return ShellInside, nil
	case "outside", "outside-only":
		return ShellOutside, nil
	case "both":
		return ShellBoth, nil
	}
	return 0, fmt.Errorf("invalid shell policy %q", s)
}

func (p ShellPolicy) includes(inside bool) bool {
	switch p {
	case ShellBoth:
		return true
	case ShellOutside:
		return !inside
	default:
		return inside
	}
}

// ErrNoAxes is returned when no scan axis is requested.
var ErrNoAxes = errors.New("voxel: no scan axes")

// Options configure BuildOccupancy.
type Options struct {
	// Axes are the lattice axes along which edges are scanned.
	Axes AxisSet

	// SkipAhead enables the forward skip per scan axis.
	SkipAhead AxisSet

	ShellPolicy ShellPolicy

	// ShellThickness is the number of drawable layers, 1-100.
	ShellThickness int

	// ShellMaterialDepth is the depth percentage below which interior
	// cells inherit the nearest face of the cell that promoted them.
	ShellMaterialDepth int

	// VerifyExposure enables the outside flood and shell demotion pass.
	VerifyExposure bool

	UseNormals  bool
	DoubleCheck bool
	Rays        InsidenessRays

	Supports SupportOptions
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Axes:               AllAxes,
		SkipAhead:          AllAxes,
		ShellPolicy:        ShellInside,
		ShellThickness:     1,
		ShellMaterialDepth: 20,
		VerifyExposure:     true,
		UseNormals:         true,
	}
}

// Occupancy is the output of BuildOccupancy.
type Occupancy struct {
	Lattice *Lattice
	Values  *Grid
	Faces   *FaceGrid
}

// Threshold returns the drawable threshold for the options' shell thickness.
func (o Options) Threshold() float64 {
	return Threshold(o.ShellThickness)
}

// BuildOccupancy classifies every lattice cell against surf and runs the
// repair passes. progress, if non-nil, receives the fraction of scan lines
// completed. The context is polled once per scan line.
func BuildOccupancy(ctx context.Context, lat *Lattice, surf surface.Surface, opts Options, progress func(float64)) (*Occupancy, error) {
	if lat == nil {
		return nil, errors.New("voxel: nil lattice")
	}
	if surf == nil {
		return nil, errors.New("voxel: nil surface")
	}
	axes := opts.Axes.Axes()
	if len(axes) == 0 {
		return nil, ErrNoAxes
	}
	if opts.ShellThickness < 1 || opts.ShellThickness > 100 {
		return nil, fmt.Errorf("voxel: shell thickness %d out of range 1-100", opts.ShellThickness)
	}

	b := &builder{
		lat:   lat,
		grid:  NewGrid(lat.Dims),
		faces: NewFaceGrid(lat.Dims),
		opts:  opts,
		cls: &Classifier{
			Surface:     surf,
			UseNormals:  opts.UseNormals,
			DoubleCheck: opts.DoubleCheck,
			Rays:        opts.Rays,
		},
	}

	total := 0
	for _, a := range axes {
		u, v := a.others()
		total += lat.Dims[u] * lat.Dims[v]
	}
	done := 0
	for _, a := range axes {
		u, v := a.others()
		for i := 0; i < lat.Dims[u]; i++ {
			for j := 0; j < lat.Dims[v]; j++ {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				b.scanLine(a, u, v, i, j)
				done++
				if progress != nil {
					progress(float64(done) / float64(total))
				}
			}
		}
	}

	b.boundaryFixup()
	if opts.VerifyExposure {
		b.verify()
	}
	b.propagateDepth()
	ApplySupports(b.grid, opts.Supports, opts.Threshold())

	return &Occupancy{Lattice: lat, Values: b.grid, Faces: b.faces}, nil
}

type builder struct {
	lat   *Lattice
	grid  *Grid
	faces *FaceGrid
	opts  Options
	cls   *Classifier
}

// cell maps a position along scan axis a on line (i, j) to grid indices.
func cell(a, u, v Axis, i, j, k int) (x, y, z int) {
	var c [3]int
	c[a], c[u], c[v] = k, i, j
	return c[0], c[1], c[2]
}

func (b *builder) markInterior(x, y, z int) {
	if b.grid.At(x, y, z) == Outside {
		b.grid.Set(x, y, z, Interior)
	}
}

func (b *builder) markShell(x, y, z int, c Crossing) {
	b.grid.Set(x, y, z, Shell)
	b.faces.Offer(x, y, z, FaceRecord{Face: c.Face, Dist: c.Dist})
}

// scanLine walks the edges of one lattice line along axis a.
func (b *builder) scanLine(a, u, v Axis, i, j int) {
	n := b.lat.Dims[a]
	dir := a.Unit()
	edge := a.Component(b.lat.Resolution)
	skip := b.opts.SkipAhead.Has(a)

	k := 0
	for k < n-1 {
		ox, oy, oz := cell(a, u, v, i, j, k)
		dx, dy, dz := cell(a, u, v, i, j, k+1)
		r := b.cls.Classify(b.lat.At(ox, oy, oz), dir, edge)
		destInside := r.DestinationInside()

		if r.OnSurface {
			b.markShell(ox, oy, oz, r.Touch)
		}
		if r.EdgeIntersects {
			if b.opts.ShellPolicy.includes(r.Inside) {
				b.markShell(ox, oy, oz, r.First)
			}
			if b.opts.ShellPolicy.includes(destInside) {
				b.markShell(dx, dy, dz, r.Last)
			}
		}
		if r.Inside {
			b.markInterior(ox, oy, oz)
		}
		if destInside {
			b.markInterior(dx, dy, dz)
		}

		// Nothing ahead and not inside: the rest of the line is outside.
		if r.Intersections == 0 && !r.Inside {
			return
		}

		next := k + 1
		if skip && r.HasNext {
			limit := a.Component(r.Next)
			for next < n-1 {
				ex, ey, ez := cell(a, u, v, i, j, next+1)
				if a.Component(b.lat.At(ex, ey, ez)) >= limit-surfaceTol {
					break
				}
				if destInside {
					b.markInterior(ex, ey, ez)
				}
				next++
			}
		}
		k = next
	}
}

// boundaryFixup promotes interior cells to shell where a non-scanned axis
// leaves their boundary unresolved: on the outer faces of the grid along
// that axis, and next to an outside cell along that axis.
func (b *builder) boundaryFixup() {
	d := b.lat.Dims
	g := b.grid
	var promote []int
	for _, a := range []Axis{AxisX, AxisY, AxisZ} {
		if b.opts.Axes.Has(a) {
			continue
		}
		for idx, val := range g.Values {
			if val != Interior {
				continue
			}
			c := [3]int{}
			c[0], c[1], c[2] = d.Coord(idx)
			if c[a] == 0 || c[a] == d[a]-1 {
				promote = append(promote, idx)
				continue
			}
			for _, step := range []int{-1, 1} {
				n := c
				n[a] += step
				if g.At(n[0], n[1], n[2]) == Outside {
					promote = append(promote, idx)
					break
				}
			}
		}
	}
	for _, idx := range promote {
		g.Values[idx] = Shell
	}
}

// verify floods outside space into interior cells that touch it, then
// demotes shell cells that no longer touch outside space. The flood starts
// only from cells classified outside; the grid edge is not a source.
func (b *builder) verify() {
	d := b.lat.Dims
	g := b.grid

	var queue []int
	seen := make([]bool, d.Len())
	for idx, val := range g.Values {
		if val == Outside {
			seen[idx] = true
			queue = append(queue, idx)
		}
	}
	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]
		g.Values[idx] = Outside
		x, y, z := d.Coord(idx)
		for _, o := range neighbors6 {
			nx, ny, nz := x+o[0], y+o[1], z+o[2]
			if !d.Contains(nx, ny, nz) {
				continue
			}
			n := d.Index(nx, ny, nz)
			if seen[n] || g.Values[n] >= 1 {
				continue
			}
			seen[n] = true
			queue = append(queue, n)
		}
	}

	snap := g.Clone()
	for idx, val := range snap.Values {
		if val != Shell {
			continue
		}
		x, y, z := d.Coord(idx)
		enclosed := true
		for _, o := range neighbors6 {
			nv, ok := snap.Lookup(x+o[0], y+o[1], z+o[2])
			if !ok || nv == Outside {
				enclosed = false
				break
			}
		}
		if enclosed {
			g.Values[idx] = Interior
		}
	}
}

// depthRounds is the number of interior layers to grade below the shell.
func (b *builder) depthRounds() int {
	n := b.opts.ShellThickness - 1
	if half := int(math.Ceil(float64(b.lat.Dims.Min()) / 2)); half < n {
		n = half
	}
	return n
}

// propagateDepth grades interior cells by distance from the shell.
func (b *builder) propagateDepth() {
	d := b.lat.Dims
	g := b.grid
	type promotion struct {
		idx, from int
	}

	for round := 1; round <= b.depthRounds(); round++ {
		want := Shell
		if round > 1 {
			want = DepthValue(round - 1)
		}

		var promos []promotion
		for idx, val := range g.Values {
			if val != Interior {
				continue
			}
			x, y, z := d.Coord(idx)
			for _, o := range neighbors6 {
				nv, ok := g.Lookup(x+o[0], y+o[1], z+o[2])
				if ok && Round2(nv) == want {
					promos = append(promos, promotion{idx, d.Index(x+o[0], y+o[1], z+o[2])})
					break
				}
			}
		}
		if len(promos) == 0 {
			return
		}

		value := DepthValue(round)
		inherit := round-1 < b.opts.ShellMaterialDepth
		for _, p := range promos {
			g.Values[p.idx] = value
			if !inherit {
				continue
			}
			fx, fy, fz := d.Coord(p.from)
			if rec, ok := b.faces.Get(fx, fy, fz); ok {
				x, y, z := d.Coord(p.idx)
				if _, has := b.faces.Get(x, y, z); !has {
					b.faces.Put(x, y, z, rec)
				}
			}
		}
	}
}
