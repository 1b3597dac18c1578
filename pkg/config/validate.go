package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/chazu/brickify/pkg/bricks"
	"github.com/chazu/brickify/pkg/voxel"
)

// ValidationError describes one problem with a config field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationResult collects blocking errors and advisory warnings.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether there are no blocking errors.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) fail(field, format string, args ...any) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationResult) warn(field, format string, args ...any) {
	r.Warnings = append(r.Warnings, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Check validates every field and returns all findings.
func (c *Config) Check() ValidationResult {
	var r ValidationResult

	for i, v := range []float64{c.Resolution.X, c.Resolution.Y, c.Resolution.Z} {
		if !(v > 0) || math.IsInf(v, 0) {
			r.fail("resolution."+voxel.Axis(i).String(), "must be positive, got %v", v)
		}
	}
	if _, err := voxel.ParseShellPolicy(c.ShellPolicy); err != nil {
		r.fail("shell_policy", "%v", err)
	}
	if axes, err := voxel.ParseAxisSet(c.ScanAxes); err != nil {
		r.fail("scan_axes", "%v", err)
	} else if axes == 0 {
		r.fail("scan_axes", "at least one axis is required")
	}
	if _, err := voxel.ParseAxisSet(c.SkipAhead); err != nil {
		r.fail("skip_ahead", "%v", err)
	}
	if _, err := voxel.ParseInsidenessRays(c.InsidenessRays); err != nil {
		r.fail("insideness_rays", "%v", err)
	}
	if c.ShellThickness < 1 || c.ShellThickness > 100 {
		r.fail("shell_thickness", "must be between 1 and 100, got %d", c.ShellThickness)
	}
	if c.ShellMaterialDepth < 0 || c.ShellMaterialDepth > 100 {
		r.fail("shell_material_depth", "must be between 0 and 100, got %d", c.ShellMaterialDepth)
	}

	style, err := voxel.ParseSupportStyle(c.Supports.Style)
	if err != nil {
		r.fail("supports.style", "%v", err)
	}
	if style != voxel.SupportNone {
		if c.Supports.Step < 1 {
			r.fail("supports.step", "must be at least 1, got %d", c.Supports.Step)
		}
		if c.Supports.Thickness < 1 {
			r.fail("supports.thickness", "must be at least 1, got %d", c.Supports.Thickness)
		} else if c.Supports.Thickness >= c.Supports.Step {
			r.warn("supports.thickness", "thickness %d fills every step of %d", c.Supports.Thickness, c.Supports.Step)
		}
		if c.ShellThickness == 100 {
			r.warn("supports.style", "shell_thickness 100 leaves no interior to support")
		}
	}

	if c.Merge.MaxWidth1D < 1 {
		r.fail("merge.max_width_1d", "must be at least 1, got %d", c.Merge.MaxWidth1D)
	}
	if c.Merge.MaxWidth2D < 1 {
		r.fail("merge.max_width_2d", "must be at least 1, got %d", c.Merge.MaxWidth2D)
	}
	bt, err := bricks.ParseBrickType(c.Merge.BrickType)
	if err != nil {
		r.fail("merge.brick_type", "%v", err)
	} else if bt == bricks.Custom && len(c.Merge.CustomCatalog) == 0 {
		r.fail("merge.custom_catalog", "required when brick_type is custom")
	} else if bt != bricks.Custom && len(c.Merge.CustomCatalog) > 0 {
		r.warn("merge.custom_catalog", "ignored for brick_type %s", bt)
	}
	for i, f := range c.Merge.CustomCatalog {
		if f.W < 1 || f.D < 1 || f.H < 0 {
			r.fail(fmt.Sprintf("merge.custom_catalog[%d]", i), "invalid footprint %dx%dx%d", f.W, f.D, f.H)
		}
	}

	if c.Mesh.Cells < 0 {
		r.fail("mesh.cells", "must not be negative, got %d", c.Mesh.Cells)
	}
	if strings.TrimSpace(c.Material) != c.Material {
		r.warn("material", "has surrounding whitespace")
	}
	return r
}

// Validate returns an error wrapping ErrInvalidConfig and every blocking
// validation error, or nil.
func (c *Config) Validate() error {
	r := c.Check()
	if r.OK() {
		return nil
	}
	errs := []error{ErrInvalidConfig}
	for _, e := range r.Errors {
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}
