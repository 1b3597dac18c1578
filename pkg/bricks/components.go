package bricks

// Components groups merge roots into connected sets. Two bricks are
// connected when one sits directly on the other and their footprints
// overlap. Components are ordered by their first root; roots within a
// component are in Z, Y, X order.
func Components(d *Dict) [][]Key {
	roots := d.Roots()

	// Index which root covers each cell so neighbours are found by lookup.
	owner := make(map[Key]Key, len(d.Cells))
	for _, r := range roots {
		for _, k := range d.Covered(r) {
			owner[k] = r
		}
	}

	seen := make(map[Key]bool, len(roots))
	var comps [][]Key
	for _, start := range roots {
		if seen[start] {
			continue
		}
		seen[start] = true
		queue := []Key{start}
		var comp []Key
		// Every root is enqueued at most once, which bounds the walk.
		for len(queue) > 0 {
			r := queue[0]
			queue = queue[1:]
			comp = append(comp, r)

			f := d.Cells[r].MergeType
			for dy := 0; dy < f.D; dy++ {
				for dx := 0; dx < f.W; dx++ {
					for _, k := range []Key{r.Offset(dx, dy, -1), r.Offset(dx, dy, f.H)} {
						n, ok := owner[k]
						if !ok || seen[n] {
							continue
						}
						seen[n] = true
						queue = append(queue, n)
					}
				}
			}
		}
		sortKeys(comp)
		comps = append(comps, comp)
	}
	return comps
}
