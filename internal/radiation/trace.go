package radiation

import "radfield/server/internal/spatial"

// queryPad widens the candidate box so a segment running exactly along a
// grid edge still lands in the grid's bucket after float rounding; gridcast
// decides whether the ray actually crosses.
const queryPad = 1e-9

// rayWorker traces rays for one shard of receivers. Each worker owns its
// scratch buffers, so shards share nothing mutable with each other.
type rayWorker struct {
	sys          *System
	candidates   []string
	tilesVisited int
}

// trace runs a single source→receiver ray. It returns nil when the pair
// cannot contribute at all: different maps, past the hard distance cutoff,
// or already below the intensity floor after distance falloff. A non-nil ray
// has ReachedDestination set iff it survived every candidate grid with
// intensity still above zero.
func (w *rayWorker) trace(src SourceSample, rcv *Receiver, collect bool) *Ray {
	s := w.sys
	if src.MapID != rcv.MapID {
		return nil
	}
	distance := src.Position.Distance(rcv.Position)
	if distance > s.cfg.MaxDistance {
		return nil
	}
	rads := src.Intensity - src.Slope*distance
	if rads <= s.cfg.MinIntensity {
		return nil
	}

	ray := &Ray{
		MapID:      src.MapID,
		SourceID:   src.ID,
		ReceiverID: rcv.ID,
		Origin:     src.Position,
		Dest:       rcv.Position,
		Rads:       rads,
	}

	srcPoint := gridPoint{World: src.Position, GridID: src.GridID, Local: src.Local}
	dstPoint := gridPoint{World: rcv.Position, GridID: rcv.GridID, Local: rcv.Local}

	if s.cfg.SimplifiedSameGrid && src.GridID != "" && src.GridID == rcv.GridID {
		// Both endpoints sit on one grid: test only that grid. A third grid
		// interposed between two points of the same grid is ignored; accepted
		// inaccuracy in exchange for skipping the box query.
		if g := s.grids[src.GridID]; g != nil {
			w.tilesVisited += s.gridcast(g, ray, srcPoint, dstPoint, collect)
		}
	} else {
		box := spatial.FromPoints(src.Position.X, src.Position.Y, rcv.Position.X, rcv.Position.Y).Expand(queryPad)
		w.candidates = s.index.QueryBox(box, w.candidates[:0])
		for _, id := range w.candidates {
			g := s.grids[id]
			if g == nil || g.MapID != ray.MapID {
				continue
			}
			w.tilesVisited += s.gridcast(g, ray, srcPoint, dstPoint, collect)
			if ray.Rads <= 0 {
				// Fully occluded; skip the remaining candidates.
				break
			}
		}
	}

	ray.ReachedDestination = ray.Rads > 0
	return ray
}
