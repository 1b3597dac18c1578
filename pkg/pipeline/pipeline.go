// Package pipeline runs a full conversion: lattice, occupancy grid, brick
// dictionary, merge, exposure and optionally per-brick meshes. Every phase
// works on state owned by the run and either completes or returns a
// PhaseError; partial results are never returned.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chazu/brickify/pkg/bricks"
	"github.com/chazu/brickify/pkg/config"
	"github.com/chazu/brickify/pkg/kernel"
	"github.com/chazu/brickify/pkg/meshgen"
	"github.com/chazu/brickify/pkg/surface"
	"github.com/chazu/brickify/pkg/voxel"
)

// Phase names, as reported to Progress and in PhaseError.
const (
	PhaseConfig    = "config"
	PhaseLattice   = "lattice"
	PhaseOccupancy = "occupancy"
	PhaseDict      = "dict"
	PhaseMerge     = "merge"
	PhaseExposure  = "exposure"
	PhaseMesh      = "mesh"
)

// ErrNoSurface is returned when Run is called without a source surface.
var ErrNoSurface = errors.New("pipeline: no source surface")

// PhaseError reports the phase a run failed in.
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("pipeline: %s: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// Options carry the optional collaborators of a run.
type Options struct {
	Progress Progress

	// Kernel, when set, is used to build one mesh per merged brick.
	Kernel kernel.Kernel
}

// Result is the output of a successful run.
type Result struct {
	Lattice   *voxel.Lattice
	Occupancy *voxel.Occupancy
	Dict      *bricks.Dict
	Bricks    []bricks.Brick

	// Components groups merge roots into vertically connected sets.
	Components [][]bricks.Key

	Meshes []*kernel.Mesh
	Stats  Stats
}

// Stats summarises a run.
type Stats struct {
	Dims          voxel.Dims
	Shell         int
	Interior      int // fully interior plus graded interior cells
	Support       int
	Drawable      int
	Roots         int
	TopExposed    int
	BottomExposed int
	Components    int
	Triangles     int // across all brick meshes
	Durations     map[string]time.Duration
}

// Run converts surf to bricks using cfg. A nil cfg uses config.Default().
// The context is checked between phases and polled inside the long-running
// ones.
func Run(ctx context.Context, surf surface.Surface, cfg *config.Config, opts Options) (*Result, error) {
	if surf == nil {
		return nil, ErrNoSurface
	}
	if cfg == nil {
		cfg = config.Default()
	}

	r := &run{ctx: ctx, opts: opts, res: &Result{Stats: Stats{Durations: make(map[string]time.Duration)}}}

	var vopts voxel.Options
	var mopts bricks.MergeOptions
	if err := r.phase(PhaseConfig, func() error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		var err error
		if vopts, err = cfg.VoxelOptions(); err != nil {
			return err
		}
		mopts, err = cfg.MergeOptions()
		return err
	}); err != nil {
		return nil, err
	}

	var lat *voxel.Lattice
	if err := r.phase(PhaseLattice, func() error {
		var err error
		lat, err = voxel.NewLattice(cfg.Resolution.R3(), surface.Size(surf), surface.Center(surf))
		return err
	}); err != nil {
		return nil, err
	}

	var occ *voxel.Occupancy
	if err := r.phase(PhaseOccupancy, func() error {
		var err error
		occ, err = voxel.BuildOccupancy(ctx, lat, surf, vopts, reporter(opts.Progress, PhaseOccupancy))
		return err
	}); err != nil {
		return nil, err
	}

	var dict *bricks.Dict
	var drawable int
	if err := r.phase(PhaseDict, func() error {
		dict = bricks.BuildDict(occ, vopts.Threshold(), surface.Center(surf))
		bricks.ResolveMaterials(dict, surf)
		drawable = dict.DrawableCount()
		return nil
	}); err != nil {
		return nil, err
	}

	if err := r.phase(PhaseMerge, func() error {
		return bricks.Merge(ctx, dict, mopts, reporter(opts.Progress, PhaseMerge))
	}); err != nil {
		return nil, err
	}

	var top, bottom int
	if err := r.phase(PhaseExposure, func() error {
		top, bottom = bricks.ComputeExposure(dict)
		return nil
	}); err != nil {
		return nil, err
	}

	res := r.res
	res.Lattice = lat
	res.Occupancy = occ
	res.Dict = dict
	res.Bricks = bricks.Summaries(dict)
	res.Components = bricks.Components(dict)

	if opts.Kernel != nil {
		if err := r.phase(PhaseMesh, func() error {
			gen := meshgen.New(opts.Kernel, dict.Resolution, cfg.MeshOptions())
			var err error
			res.Meshes, err = gen.Generate(ctx, dict)
			if err != nil {
				return err
			}
			for _, m := range res.Meshes {
				res.Stats.Triangles += m.TriangleCount()
			}
			return nil
		}); err != nil {
			return nil, err
		}
	}

	res.Stats.fill(occ)
	res.Stats.Drawable = drawable
	res.Stats.Roots = len(res.Bricks)
	res.Stats.TopExposed, res.Stats.BottomExposed = top, bottom
	res.Stats.Components = len(res.Components)
	return res, nil
}

type run struct {
	ctx  context.Context
	opts Options
	res  *Result
}

// phase runs fn unless the context is already done, timing it and
// reporting start and completion.
func (r *run) phase(name string, fn func() error) error {
	if err := r.ctx.Err(); err != nil {
		return &PhaseError{Phase: name, Err: err}
	}
	if r.opts.Progress != nil {
		r.opts.Progress.Report(name, 0)
	}
	start := time.Now()
	if err := fn(); err != nil {
		return &PhaseError{Phase: name, Err: err}
	}
	r.res.Stats.Durations[name] = time.Since(start)
	if r.opts.Progress != nil {
		r.opts.Progress.Report(name, 1)
	}
	return nil
}

// fill counts occupancy states.
func (s *Stats) fill(occ *voxel.Occupancy) {
	s.Dims = occ.Lattice.Dims
	for _, v := range occ.Values.Values {
		switch {
		case v == voxel.Shell:
			s.Shell++
		case v == voxel.Support:
			s.Support++
		case v == voxel.Interior || voxel.IsPartialInterior(v):
			s.Interior++
		}
	}
}
