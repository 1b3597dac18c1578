// Package config holds the conversion settings passed to every phase of a
// run. Settings load from YAML and convert into the option structs of the
// voxel, bricks and meshgen packages.
package config

import (
	"errors"
	"fmt"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/chazu/brickify/pkg/bricks"
	"github.com/chazu/brickify/pkg/meshgen"
	"github.com/chazu/brickify/pkg/voxel"
)

// ErrInvalidConfig is wrapped by every configuration error.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Vec3 is a per-axis value.
type Vec3 struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	Z float64 `yaml:"z" json:"z"`
}

// R3 converts to a gonum vector.
func (v Vec3) R3() r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

// Config is the full set of conversion settings.
type Config struct {
	Resolution Vec3 `yaml:"resolution"`

	ShellPolicy        string `yaml:"shell_policy"`
	ScanAxes           string `yaml:"scan_axes"`
	SkipAhead          string `yaml:"skip_ahead"`
	InsidenessRays     string `yaml:"insideness_rays"`
	UseNormals         bool   `yaml:"use_normals"`
	DoubleCheck        bool   `yaml:"double_check"`
	VerifyExposure     bool   `yaml:"verify_exposure"`
	ShellThickness     int    `yaml:"shell_thickness"`
	ShellMaterialDepth int    `yaml:"shell_material_depth"`

	Supports Supports `yaml:"supports"`
	Merge    Merge    `yaml:"merge"`
	Mesh     Mesh     `yaml:"mesh"`

	// Material is assigned to sources that carry no material of their own.
	Material string `yaml:"material"`
}

// Supports configures internal scaffolding.
type Supports struct {
	Style       string `yaml:"style"`
	Step        int    `yaml:"step"`
	Thickness   int    `yaml:"thickness"`
	AlternateXY bool   `yaml:"alternate_xy"`
}

// Merge configures the merge engine.
type Merge struct {
	Seed            int64       `yaml:"seed"`
	MaxWidth1D      int         `yaml:"max_width_1d"`
	MaxWidth2D      int         `yaml:"max_width_2d"`
	AcrossMaterials bool        `yaml:"across_materials"`
	BrickType       string      `yaml:"brick_type"`
	CustomCatalog   []Footprint `yaml:"custom_catalog,omitempty"`
}

// Footprint is a custom catalog entry.
type Footprint struct {
	W int `yaml:"w"`
	D int `yaml:"d"`
	H int `yaml:"h"`
}

// Mesh configures brick mesh generation.
type Mesh struct {
	Cells  int  `yaml:"cells"`
	Studs  bool `yaml:"studs"`
	Hollow bool `yaml:"hollow"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		Resolution:         Vec3{X: 1, Y: 1, Z: 1},
		ShellPolicy:        "inside",
		ScanAxes:           "xyz",
		SkipAhead:          "xyz",
		InsidenessRays:     "high-efficiency",
		UseNormals:         true,
		VerifyExposure:     true,
		ShellThickness:     1,
		ShellMaterialDepth: 20,
		Supports:           Supports{Style: "none", Step: 4, Thickness: 1},
		Merge: Merge{
			Seed:       1000,
			MaxWidth1D: 8,
			MaxWidth2D: 8,
			BrickType:  "bricks",
		},
		Mesh: Mesh{Cells: 32, Studs: true, Hollow: true},
	}
}

// Parse decodes YAML on top of Default and validates the result. Fields
// missing from the document keep their defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		var te *yaml.TypeError
		if errors.As(err, &te) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	if c.Merge.CustomCatalog != nil {
		out.Merge.CustomCatalog = append([]Footprint(nil), c.Merge.CustomCatalog...)
	}
	return &out
}

// Marshal encodes the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// VoxelOptions converts to occupancy builder options.
func (c *Config) VoxelOptions() (voxel.Options, error) {
	var opts voxel.Options
	var err error
	if opts.Axes, err = voxel.ParseAxisSet(c.ScanAxes); err != nil {
		return opts, fmt.Errorf("%w: scan_axes: %v", ErrInvalidConfig, err)
	}
	if opts.SkipAhead, err = voxel.ParseAxisSet(c.SkipAhead); err != nil {
		return opts, fmt.Errorf("%w: skip_ahead: %v", ErrInvalidConfig, err)
	}
	if opts.ShellPolicy, err = voxel.ParseShellPolicy(c.ShellPolicy); err != nil {
		return opts, fmt.Errorf("%w: shell_policy: %v", ErrInvalidConfig, err)
	}
	if opts.Rays, err = voxel.ParseInsidenessRays(c.InsidenessRays); err != nil {
		return opts, fmt.Errorf("%w: insideness_rays: %v", ErrInvalidConfig, err)
	}
	if opts.Supports.Style, err = voxel.ParseSupportStyle(c.Supports.Style); err != nil {
		return opts, fmt.Errorf("%w: supports.style: %v", ErrInvalidConfig, err)
	}
	opts.Supports.Step = c.Supports.Step
	opts.Supports.Thickness = c.Supports.Thickness
	opts.Supports.AlternateXY = c.Supports.AlternateXY
	opts.ShellThickness = c.ShellThickness
	opts.ShellMaterialDepth = c.ShellMaterialDepth
	opts.VerifyExposure = c.VerifyExposure
	opts.UseNormals = c.UseNormals
	opts.DoubleCheck = c.DoubleCheck
	return opts, nil
}

// MergeOptions converts to merge engine options, building the catalog.
func (c *Config) MergeOptions() (bricks.MergeOptions, error) {
	bt, err := bricks.ParseBrickType(c.Merge.BrickType)
	if err != nil {
		return bricks.MergeOptions{}, fmt.Errorf("%w: merge.brick_type: %v", ErrInvalidConfig, err)
	}
	custom := make([]bricks.Footprint, 0, len(c.Merge.CustomCatalog))
	for _, f := range c.Merge.CustomCatalog {
		custom = append(custom, bricks.Footprint{W: f.W, D: f.D, H: f.H})
	}
	cat, err := bricks.NewCatalog(bt, custom)
	if err != nil {
		return bricks.MergeOptions{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return bricks.MergeOptions{
		Seed:                 c.Merge.Seed,
		Catalog:              cat,
		MaxWidth1D:           c.Merge.MaxWidth1D,
		MaxWidth2D:           c.Merge.MaxWidth2D,
		MergeAcrossMaterials: c.Merge.AcrossMaterials,
	}, nil
}

// MeshOptions converts to mesh generator options.
func (c *Config) MeshOptions() meshgen.Options {
	return meshgen.Options{Studs: c.Mesh.Studs, Hollow: c.Mesh.Hollow}
}
