package voxel

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/brickify/pkg/surface"
)

// hitPrecision is the number of decimals a hit location is rounded to
// before the ray origin is advanced past it. Hits closer than this collapse
// into one crossing.
const hitPrecision = 5

// advance is how far past a rounded hit the next cast starts. The first
// cast of a ray starts the same distance behind the origin, so a face
// passing through the origin is still hit.
const advance = 1e-4

// surfaceTol is the distance from the origin within which a first hit
// means the origin lies on the surface.
const surfaceTol = 2 * advance

// maxCrossings bounds the cast loop on pathological geometry.
const maxCrossings = 4096

// InsidenessRays selects which axes vote on whether a point is inside.
type InsidenessRays int

const (
	// RaysHighEfficiency uses only the scan direction.
	RaysHighEfficiency InsidenessRays = iota
	RaysX
	RaysY
	RaysZ
	// RaysXYZ votes along the scan direction and the two other axes.
	RaysXYZ
)

func (r InsidenessRays) String() string {
	switch r {
	case RaysHighEfficiency:
		return "high-efficiency"
	case RaysX:
		return "x"
	case RaysY:
		return "y"
	case RaysZ:
		return "z"
	case RaysXYZ:
		return "xyz"
	default:
		return "unknown"
	}
}

// ParseInsidenessRays parses the names produced by String.
func ParseInsidenessRays(s string) (InsidenessRays, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "high-efficiency", "high_efficiency":
		return RaysHighEfficiency, nil
	case "x":
		return RaysX, nil
	case "y":
		return RaysY, nil
	case "z":
		return RaysZ, nil
	case "xyz":
		return RaysXYZ, nil
	}
	return 0, fmt.Errorf("invalid insideness rays %q", s)
}

// Crossing records a surface crossing on a lattice edge: the face hit and
// its distance from the nearer edge endpoint.
type Crossing struct {
	Face int
	Dist float64
}

// RayResult is the outcome of classifying one lattice edge.
type RayResult struct {
	// Inside reports whether the edge origin is inside the surface.
	Inside bool
	// EdgeIntersects reports whether the surface crosses the edge.
	EdgeIntersects bool
	// Intersections is the raw number of crossings along the whole ray.
	Intersections int
	// EdgeCrossings is the number of crossings within the edge length.
	EdgeCrossings int
	// Next is the first crossing beyond the edge, valid when HasNext.
	Next    r3.Vec
	HasNext bool
	// First is measured from the origin, Last from the destination.
	First, Last Crossing
	// OnSurface reports that the origin lies on the surface; Touch is the
	// face it lies on. Inside then follows the scan ray alone, whatever
	// the vote.
	OnSurface bool
	Touch     Crossing
}

// DestinationInside reports whether the far end of the edge is inside,
// assuming every crossing flips insideness.
func (r RayResult) DestinationInside() bool {
	return r.Inside != (r.EdgeCrossings%2 == 1)
}

// Classifier casts rays from lattice points against a source surface.
type Classifier struct {
	Surface surface.Surface

	// UseNormals treats a first hit whose normal faces along the ray as
	// evidence that the origin is inside, even with an even crossing count.
	UseNormals bool

	// DoubleCheck confirms an inside verdict with the reverse ray.
	DoubleCheck bool

	// Rays selects the axes that vote on insideness.
	Rays InsidenessRays
}

// cast is the raw result of marching one ray through the surface.
type cast struct {
	count       int
	firstDot    float64
	edgeCount   int
	first, last Crossing
	next        r3.Vec
	hasNext     bool
	touch       bool // first hit within surfaceTol of the origin
}

// march repeatedly casts from an advancing origin along dir (a unit
// vector) until the ray escapes. Crossings within edgeLen of the origin
// are recorded as edge crossings; a crossing just behind the origin counts
// as distance zero.
func (c *Classifier) march(origin, dir r3.Vec, edgeLen float64) cast {
	var res cast
	orig := r3.Sub(origin, r3.Scale(advance, dir))
	for res.count < maxCrossings {
		hit, ok := c.Surface.RayCast(orig, dir)
		if !ok {
			break
		}
		loc := roundVec(hit.Location, hitPrecision)
		t := r3.Dot(r3.Sub(loc, origin), dir)
		dist := math.Max(t, 0)

		if res.count == 0 {
			res.firstDot = r3.Dot(dir, hit.Normal)
			res.touch = math.Abs(t) <= surfaceTol
		}
		if dist <= edgeLen {
			if res.edgeCount == 0 {
				res.first = Crossing{Face: hit.Face, Dist: dist}
			}
			res.last = Crossing{Face: hit.Face, Dist: edgeLen - dist}
			res.edgeCount++
		} else if !res.hasNext {
			res.next = loc
			res.hasNext = true
		}

		res.count++
		orig = r3.Add(loc, r3.Scale(advance, dir))
	}
	return res
}

// outside decides insideness from one ray: an even crossing count means
// outside unless normals say the first hit was an exit.
func (c *Classifier) outside(r cast) bool {
	return r.count%2 == 0 && !(c.UseNormals && r.firstDot > 0)
}

// outsideAlong runs the single-direction test, with the reverse-ray
// confirmation when DoubleCheck is set. It also returns the forward cast.
func (c *Classifier) outsideAlong(origin, dir r3.Vec, fwd *cast) (bool, cast) {
	var f cast
	if fwd != nil {
		f = *fwd
	} else {
		f = c.march(origin, dir, 0)
	}
	if c.outside(f) {
		return true, f
	}
	if c.DoubleCheck {
		return c.outside(c.march(origin, r3.Scale(-1, dir), 0)), f
	}
	return false, f
}

// majorityOutside applies the vote rule: outside when at least half of the
// votes say so.
func majorityOutside(out, total int) bool {
	return 2*out >= total
}

// Classify examines the lattice edge that starts at origin and runs for
// edgeLen along dir.
func (c *Classifier) Classify(origin, dir r3.Vec, edgeLen float64) RayResult {
	dir = r3.Unit(dir)
	scan := dominantAxis(dir)
	fwd := c.march(origin, dir, edgeLen)

	res := RayResult{
		EdgeIntersects: fwd.edgeCount > 0,
		Intersections:  fwd.count,
		EdgeCrossings:  fwd.edgeCount,
		Next:           fwd.next,
		HasNext:        fwd.hasNext,
		First:          fwd.first,
		Last:           fwd.last,
	}
	if fwd.touch {
		res.OnSurface = true
		res.Touch = Crossing{Face: fwd.first.Face}
		res.Inside = !c.outside(fwd)
		return res
	}

	var dirs []r3.Vec
	switch c.Rays {
	case RaysHighEfficiency:
		dirs = []r3.Vec{dir}
	case RaysXYZ:
		a, b := scan.others()
		dirs = []r3.Vec{dir, a.Unit(), b.Unit()}
	default:
		forced := Axis(c.Rays - RaysX)
		if forced == scan {
			dirs = []r3.Vec{dir}
		} else {
			dirs = []r3.Vec{forced.Unit()}
		}
	}

	out := 0
	for _, d := range dirs {
		var o bool
		var v cast
		if d == dir {
			o, v = c.outsideAlong(origin, d, &fwd)
		} else {
			o, v = c.outsideAlong(origin, d, nil)
		}
		if o {
			out++
		}
		if v.touch && !res.OnSurface {
			res.OnSurface = true
			res.Touch = Crossing{Face: v.first.Face}
		}
	}
	if res.OnSurface {
		// The origin sits on a face the scan ray grazes. Only the scan
		// ray's own parity agrees with its edge crossings.
		res.Inside = !c.outside(fwd)
		return res
	}
	res.Inside = !majorityOutside(out, len(dirs))
	return res
}

func roundVec(v r3.Vec, decimals int) r3.Vec {
	p := math.Pow(10, float64(decimals))
	return r3.Vec{
		X: math.Round(v.X*p) / p,
		Y: math.Round(v.Y*p) / p,
		Z: math.Round(v.Z*p) / p,
	}
}
