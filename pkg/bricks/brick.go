package bricks

import "gonum.org/v1/gonum/spatial/r3"

// Brick summarises one merge root.
type Brick struct {
	Key        Key       `json:"key"`
	Name       string    `json:"name"`
	Footprint  Footprint `json:"footprint"`
	Material   string    `json:"material"`
	Center     r3.Vec    `json:"center"`
	TopExposed bool      `json:"top_exposed"`
	BotExposed bool      `json:"bot_exposed"`
}

// Summaries lists every merge root in Z, Y, X order. Center is the middle of
// the footprint in the same frame as cell positions.
func Summaries(d *Dict) []Brick {
	roots := d.Roots()
	out := make([]Brick, 0, len(roots))
	for _, k := range roots {
		c := d.Cells[k]
		f := c.MergeType
		var center r3.Vec
		if c.Position != nil {
			center = r3.Add(*c.Position, r3.Vec{
				X: float64(f.W-1) / 2 * d.Resolution.X,
				Y: float64(f.D-1) / 2 * d.Resolution.Y,
				Z: float64(f.H-1) / 2 * d.Resolution.Z,
			})
		}
		out = append(out, Brick{
			Key:        k,
			Name:       c.Name,
			Footprint:  f,
			Material:   c.Material,
			Center:     center,
			TopExposed: c.TopExposed,
			BotExposed: c.BotExposed,
		})
	}
	return out
}
