package radiation

// LineTraversal lazily enumerates every tile a straight segment between two
// tile coordinates passes through, as a 4-connected digital line: each step
// moves one tile along a single axis, so diagonal crossings visit both
// adjacent tiles. When the segment crosses a tile corner exactly the Y axis
// steps first; the tie-break is fixed so traversals are deterministic.
//
// The zero value is not usable; build one with TraverseLine. Both endpoint
// tiles are included in the sequence.
type LineTraversal struct {
	cur     TileCoord
	sx, sy  int
	nx, ny  int
	ix, iy  int
	started bool
}

// TraverseLine prepares the tile walk from one tile to another.
func TraverseLine(from, to TileCoord) LineTraversal {
	lt := LineTraversal{cur: from, sx: 1, sy: 1}
	lt.nx = to.X - from.X
	if lt.nx < 0 {
		lt.nx = -lt.nx
		lt.sx = -1
	}
	lt.ny = to.Y - from.Y
	if lt.ny < 0 {
		lt.ny = -lt.ny
		lt.sy = -1
	}
	return lt
}

// Next yields the following tile on the line, starting with the source tile.
// It returns false once the destination tile has been produced.
func (lt *LineTraversal) Next() (TileCoord, bool) {
	if !lt.started {
		lt.started = true
		return lt.cur, true
	}
	if lt.ix >= lt.nx && lt.iy >= lt.ny {
		return TileCoord{}, false
	}
	// Advance whichever axis has covered the smaller fraction of its span;
	// cross-multiplied to stay in integers.
	if (1+2*lt.ix)*lt.ny < (1+2*lt.iy)*lt.nx {
		lt.cur.X += lt.sx
		lt.ix++
	} else {
		lt.cur.Y += lt.sy
		lt.iy++
	}
	return lt.cur, true
}

// Remaining reports how many tiles are still to be produced, destination
// included. Useful for sizing debug collections.
func (lt *LineTraversal) Remaining() int {
	total := lt.nx - lt.ix + lt.ny - lt.iy
	if !lt.started {
		total++
	}
	return total
}
