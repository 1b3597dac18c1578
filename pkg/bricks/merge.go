package bricks

import (
	"context"
	"errors"
	"math/rand"
	"sort"
)

// MergeOptions configure Merge.
type MergeOptions struct {
	Seed    int64
	Catalog *Catalog

	// MaxWidth1D caps footprints that are one cell wide in either
	// direction. MaxWidth2D caps both sides of wider footprints.
	MaxWidth1D int
	MaxWidth2D int

	// MergeAcrossMaterials lets cells of different materials share a brick.
	MergeAcrossMaterials bool
}

// DefaultMergeOptions returns the Bricks catalog with seed 1000 and caps of 8.
func DefaultMergeOptions() MergeOptions {
	cat, _ := NewCatalog(Bricks, nil)
	return MergeOptions{Seed: 1000, Catalog: cat, MaxWidth1D: 8, MaxWidth2D: 8}
}

// Compatible reports whether cells of materials a and b may share a brick.
// The empty material is the neutral internal material.
func Compatible(a, b string, acrossMaterials bool) bool {
	return acrossMaterials || a == b || a == "" || b == ""
}

type merger struct {
	d    *Dict
	opts MergeOptions
	rng  *rand.Rand
}

// Merge greedily merges drawable cells into catalog footprints. Cells are
// visited in an order shuffled by opts.Seed; for a fixed seed and input the
// result is identical across runs. progress, if non-nil, receives the
// fraction of cells visited. The context is polled once per cell.
func Merge(ctx context.Context, d *Dict, opts MergeOptions, progress func(float64)) error {
	if opts.Catalog == nil {
		return errors.New("bricks: merge needs a catalog")
	}
	if opts.MaxWidth1D < 1 {
		opts.MaxWidth1D = 1
	}
	if opts.MaxWidth2D < 1 {
		opts.MaxWidth2D = 1
	}
	m := &merger{d: d, opts: opts, rng: rand.New(rand.NewSource(opts.Seed))}

	keys := d.Keys()
	m.rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })

	for i, k := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.visit(k)
		if progress != nil {
			progress(float64(i+1) / float64(len(keys)))
		}
	}
	return nil
}

func (m *merger) available(k Key) (*Cell, bool) {
	c, ok := m.d.Cells[k]
	if !ok || !c.Drawable() || c.Absorbed() {
		return nil, false
	}
	return c, true
}

func (m *merger) fits(seed *Cell, k Key) bool {
	c, ok := m.available(k)
	return ok && Compatible(seed.Material, c.Material, m.opts.MergeAcrossMaterials)
}

// column reports whether h layers starting at k are all free and compatible.
func (m *merger) column(seed *Cell, k Key, h int) bool {
	for dz := 0; dz < h; dz++ {
		if !m.fits(seed, k.Offset(0, 0, dz)) {
			return false
		}
	}
	return true
}

// visit merges from k until k itself has been placed.
func (m *merger) visit(k Key) {
	for {
		seed, ok := m.available(k)
		if !ok {
			return
		}
		anchor := m.anchor(k, seed)
		m.place(anchor, m.choose(anchor))
	}
}

// anchor slides from k along -X and then -Y over free compatible cells and
// returns the corner to grow from. With mixed heights it first slides
// down -Z so that tall footprints start at the bottom of a column.
func (m *merger) anchor(k Key, seed *Cell) Key {
	if m.opts.Catalog.MixedHeights() {
		for m.fits(seed, k.Offset(0, 0, -1)) {
			k = k.Offset(0, 0, -1)
		}
	}
	for m.fits(seed, k.Offset(-1, 0, 0)) {
		k = k.Offset(-1, 0, 0)
	}
	for m.fits(seed, k.Offset(0, -1, 0)) {
		k = k.Offset(0, -1, 0)
	}
	return k
}

// candidates lists every legal footprint that fits at anchor. Growth along
// a row stops at the first unavailable column, so a larger footprint is only
// tried when every smaller one on its path fits.
func (m *merger) candidates(anchor Key) []Footprint {
	seed := m.d.Cells[anchor]
	cat := m.opts.Catalog
	maxSide := m.opts.MaxWidth1D
	if m.opts.MaxWidth2D > maxSide {
		maxSide = m.opts.MaxWidth2D
	}

	var out []Footprint
	for _, h := range cat.Heights() {
		if !m.column(seed, anchor, h) {
			continue
		}
		minRun := maxSide
		for dy := 0; dy < maxSide; dy++ {
			run := 0
			for run < minRun && m.column(seed, anchor.Offset(run, dy, 0), h) {
				run++
			}
			if run == 0 {
				break
			}
			minRun = run
			depth := dy + 1
			for w := 1; w <= minRun; w++ {
				if !m.withinCaps(w, depth) {
					continue
				}
				if f := (Footprint{W: w, D: depth, H: h}); cat.Legal(f) {
					out = append(out, f)
				}
			}
		}
	}
	return out
}

func (m *merger) withinCaps(w, d int) bool {
	if w == 1 || d == 1 {
		return w <= m.opts.MaxWidth1D && d <= m.opts.MaxWidth1D
	}
	return w <= m.opts.MaxWidth2D && d <= m.opts.MaxWidth2D
}

// choose picks the winning footprint. A seeded coin decides whether width
// or depth is the primary key; with mixed heights, height comes first.
func (m *merger) choose(anchor Key) Footprint {
	cands := m.candidates(anchor)
	widthFirst := m.rng.Intn(2) == 0
	if len(cands) == 0 {
		return Footprint{1, 1, 1}
	}
	mixed := m.opts.Catalog.MixedHeights()
	less := func(a, b Footprint) bool {
		if mixed && a.H != b.H {
			return a.H < b.H
		}
		p, q := [2]int{a.W, a.D}, [2]int{b.W, b.D}
		if !widthFirst {
			p, q = [2]int{a.D, a.W}, [2]int{b.D, b.W}
		}
		if p[0] != q[0] {
			return p[0] < q[0]
		}
		if p[1] != q[1] {
			return p[1] < q[1]
		}
		return a.H < b.H
	}
	sort.SliceStable(cands, func(i, j int) bool { return less(cands[i], cands[j]) })
	return cands[len(cands)-1]
}

// place makes root the owner of every cell f covers.
func (m *merger) place(root Key, f Footprint) {
	rk := root
	for _, k := range covered(root, f) {
		c := m.d.Cells[k]
		c.Parent = &rk
		if k == root {
			c.IsParent = true
			c.MergeType = f
			continue
		}
		c.Name = DoesNotExist
	}
}
