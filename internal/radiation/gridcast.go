package radiation

// gridPoint pairs a world position with the grid-local coordinates already
// known for it. When a point's parent is the tested grid the local
// coordinates are used directly, skipping the inverse transform; most points
// are cast against the grid they are attached to.
type gridPoint struct {
	World  Vec2
	GridID string
	Local  Vec2
}

func (p gridPoint) localOn(g *Grid) Vec2 {
	if p.GridID == g.ID {
		return p.Local
	}
	return g.Transform.WorldToLocal(p.World)
}

// gridcast walks the tiles the ray crosses within one grid, subtracting each
// occupied tile's resistance from the ray's remaining intensity. Traversal
// stops the moment the ray drops to the floor: remaining tiles on the line
// are not evaluated and the ray is clamped to zero. With collect set, every
// tile that absorbed intensity is recorded on the ray keyed by grid id.
// The return value is the number of tiles stepped, occupied or not.
func (s *System) gridcast(g *Grid, ray *Ray, src, dst gridPoint, collect bool) int {
	if len(g.Resistance) == 0 {
		return 0
	}

	from := g.TileAt(src.localOn(g))
	to := g.TileAt(dst.localOn(g))

	line := TraverseLine(from, to)
	visited := 0
	var hits []TileHit
	for {
		tile, ok := line.Next()
		if !ok {
			break
		}
		visited++
		resistance, occupied := g.Resistance[tile]
		if !occupied {
			continue
		}
		ray.Rads -= resistance
		depleted := ray.Rads <= s.cfg.MinIntensity
		if depleted {
			ray.Rads = 0
		}
		if collect {
			hits = append(hits, TileHit{Tile: tile, RadsAfter: ray.Rads})
		}
		if depleted {
			break
		}
	}
	if collect && len(hits) > 0 {
		if ray.Blockers == nil {
			ray.Blockers = make(map[string][]TileHit, 1)
		}
		ray.Blockers[g.ID] = hits
	}
	return visited
}
