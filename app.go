package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/chazu/brickify/pkg/config"
	"github.com/chazu/brickify/pkg/engine"
	"github.com/chazu/brickify/pkg/kernel"
	"github.com/chazu/brickify/pkg/kernel/sdfx"
	"github.com/chazu/brickify/pkg/pipeline"
	"github.com/chazu/brickify/pkg/store"
	"github.com/chazu/brickify/pkg/surface"
)

// App wires settings, source loading, conversion and output together.
type App struct {
	engine *engine.Engine

	// newKernel builds the geometry kernel for a given marching cubes
	// resolution. Tests swap it for a stub.
	newKernel func(cells int) kernel.Kernel

	logger *log.Logger
}

// Request describes one conversion.
type Request struct {
	ConfigPath string // optional YAML settings
	Script     string // optional settings script source

	// Exactly one source: an STL file or a primitive shape.
	STLPath string
	Shape   string  // sphere, box or cylinder
	Size    float64 // primitive extent

	Meshes bool // build one mesh per brick

	OutPath string // optional .json.zst snapshot
	DBPath  string // optional SQLite export
}

// IssueData is a settings error or warning in a printable form.
type IssueData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// ConvertResult is the full outcome of Convert. Result is nil when Errors
// is non-empty.
type ConvertResult struct {
	Config   *config.Config
	Result   *pipeline.Result
	RunID    int64
	Errors   []IssueData
	Warnings []IssueData
}

// NewApp creates an App with a settings engine and the sdfx kernel.
func NewApp() *App {
	return &App{
		engine:    engine.NewEngine(),
		newKernel: func(cells int) kernel.Kernel { return sdfx.New(cells) },
		logger:    log.Default(),
	}
}

func (r *ConvertResult) fail(format string, args ...any) {
	r.Errors = append(r.Errors, IssueData{Message: fmt.Sprintf(format, args...)})
}

// Settings resolves the effective configuration: defaults, then the YAML
// file, then the script. Script errors carry line numbers.
func (a *App) Settings(configPath, script string) ConvertResult {
	var result ConvertResult

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			a.logger.Printf("Config error: %v", err)
			result.fail("%v", err)
			return result
		}
		cfg = loaded
	}

	res, err := a.engine.Run(script, cfg)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		a.logger.Printf("Settings script fatal error: %v", err)
		result.fail("%v", err)
		return result
	}
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, IssueData{Message: w.Error()})
	}
	if len(res.Errors) > 0 {
		for _, e := range res.Errors {
			result.Errors = append(result.Errors, IssueData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return result
	}
	result.Config = res.Config
	return result
}

// Source loads the surface named by req. Primitive shapes are built with
// the kernel and tessellated; the material applies to every face.
func (a *App) Source(req Request, cfg *config.Config) (surface.Surface, error) {
	switch {
	case req.STLPath != "" && req.Shape != "":
		return nil, errors.New("choose either an STL file or a shape, not both")
	case req.STLPath != "":
		m, err := surface.LoadSTL(req.STLPath, cfg.Material)
		if err != nil {
			return nil, err
		}
		return m, nil
	case req.Shape == "":
		return nil, errors.New("no source: give an STL file or a shape")
	}

	size := req.Size
	if size <= 0 {
		return nil, fmt.Errorf("shape size must be positive, got %v", size)
	}
	k := a.newKernel(cfg.Mesh.Cells)
	var solid kernel.Solid
	switch strings.ToLower(req.Shape) {
	case "sphere":
		solid = k.Sphere(size / 2)
	case "box", "cube":
		solid = k.Box(size, size, size)
	case "cylinder":
		solid = k.Cylinder(size, size/2)
	default:
		return nil, fmt.Errorf("unknown shape %q, expected sphere, box or cylinder", req.Shape)
	}
	km, err := k.ToMesh(solid)
	if err != nil {
		return nil, fmt.Errorf("tessellate %s: %w", req.Shape, err)
	}
	if km.IsEmpty() {
		return nil, fmt.Errorf("tessellate %s: no geometry at %d cells", req.Shape, cfg.Mesh.Cells)
	}
	m, err := surface.FromKernelMesh(km, cfg.Material)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Convert runs a full conversion and writes the requested outputs.
func (a *App) Convert(ctx context.Context, req Request) ConvertResult {
	// Step 1: Resolve settings.
	result := a.Settings(req.ConfigPath, req.Script)
	if len(result.Errors) > 0 {
		return result
	}
	cfg := result.Config

	// Step 2: Load the source surface.
	surf, err := a.Source(req, cfg)
	if err != nil {
		a.logger.Printf("Source error: %v", err)
		result.fail("source: %v", err)
		return result
	}

	// Step 3: Voxelize, merge and compute exposure.
	opts := pipeline.Options{Progress: pipeline.NewLogProgress(a.logger)}
	if req.Meshes {
		opts.Kernel = a.newKernel(cfg.Mesh.Cells)
	}
	res, err := pipeline.Run(ctx, surf, cfg, opts)
	if err != nil {
		a.logger.Printf("Conversion error: %v", err)
		result.fail("%v", err)
		return result
	}
	result.Result = res

	// Step 4: Persist.
	source := req.STLPath
	if source == "" {
		source = req.Shape
	}
	if req.OutPath != "" {
		if err := store.WriteSnapshot(req.OutPath, store.NewSnapshot(res.Dict, cfg.Merge.Seed, source)); err != nil {
			a.logger.Printf("Snapshot error: %v", err)
			result.fail("write snapshot: %v", err)
			return result
		}
	}
	if req.DBPath != "" {
		db, err := store.OpenSQLite(req.DBPath)
		if err != nil {
			result.fail("open db: %v", err)
			return result
		}
		defer db.Close()
		if result.RunID, err = db.SaveBricks(ctx, res.Dict, cfg.Merge.Seed, source); err != nil {
			a.logger.Printf("Database error: %v", err)
			result.fail("save bricks: %v", err)
			return result
		}
	}
	return result
}

// readScript returns the contents of path, or "" for an empty path.
func readScript(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
