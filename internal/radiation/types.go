package radiation

import (
	"math"

	"radfield/server/internal/spatial"
)

// Vec2 is a 2D world- or grid-local-space position.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns v - other.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

// Distance returns the Euclidean distance between two points.
func (v Vec2) Distance(other Vec2) float64 {
	return math.Hypot(v.X-other.X, v.Y-other.Y)
}

// TileCoord addresses one cell of a grid's discrete coordinate space.
type TileCoord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ResistanceMap holds the occluding tiles of a grid. Absent tiles absorb
// nothing; values are the intensity subtracted when a ray crosses the tile.
type ResistanceMap map[TileCoord]float64

// Transform places a grid in world space: local coordinates are rotated by
// Rotation and then offset by Position.
type Transform struct {
	Position Vec2    `json:"position"`
	Rotation float64 `json:"rotation"`
}

// WorldToLocal maps a world-space point into the grid's local space.
func (t Transform) WorldToLocal(p Vec2) Vec2 {
	d := p.Sub(t.Position)
	if t.Rotation == 0 {
		return d
	}
	sin, cos := math.Sincos(-t.Rotation)
	return Vec2{X: d.X*cos - d.Y*sin, Y: d.X*sin + d.Y*cos}
}

// LocalToWorld maps a grid-local point into world space.
func (t Transform) LocalToWorld(p Vec2) Vec2 {
	if t.Rotation != 0 {
		sin, cos := math.Sincos(t.Rotation)
		p = Vec2{X: p.X*cos - p.Y*sin, Y: p.X*sin + p.Y*cos}
	}
	return Vec2{X: p.X + t.Position.X, Y: p.Y + t.Position.Y}
}

// Grid is one independent tile grid: a coordinate frame plus the resistance
// values of its occluding tiles. Grids are owned by the host simulation and
// read-only to the radiation pass.
type Grid struct {
	ID         string
	MapID      string
	TileSize   float64
	Transform  Transform
	Resistance ResistanceMap
}

// Degenerate reports whether the grid cannot be cast against at all. Such a
// grid is treated as fully transparent rather than as an error.
func (g *Grid) Degenerate() bool {
	return g == nil || g.TileSize <= 0 || math.IsNaN(g.TileSize)
}

// TileAt converts a grid-local position to the tile containing it.
func (g *Grid) TileAt(local Vec2) TileCoord {
	inv := 1.0 / g.TileSize
	return TileCoord{
		X: int(math.Floor(local.X * inv)),
		Y: int(math.Floor(local.Y * inv)),
	}
}

// WorldBounds derives the grid's world-space AABB from the extent of its
// resistance map. A grid with no occluding tiles has empty bounds and is
// never a candidate for occlusion testing.
func (g *Grid) WorldBounds() spatial.Box {
	if g.Degenerate() || len(g.Resistance) == 0 {
		return spatial.Box{MinX: 1, MaxX: 0}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for tile := range g.Resistance {
		lx := float64(tile.X) * g.TileSize
		ly := float64(tile.Y) * g.TileSize
		for _, corner := range [4]Vec2{
			{X: lx, Y: ly},
			{X: lx + g.TileSize, Y: ly},
			{X: lx, Y: ly + g.TileSize},
			{X: lx + g.TileSize, Y: ly + g.TileSize},
		} {
			w := g.Transform.LocalToWorld(corner)
			minX = math.Min(minX, w.X)
			minY = math.Min(minY, w.Y)
			maxX = math.Max(maxX, w.X)
			maxY = math.Max(maxY, w.Y)
		}
	}
	return spatial.Box{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

// Source is a radiation-emitting entity snapshotted from the host simulation.
type Source struct {
	ID        string
	MapID     string
	GridID    string
	Position  Vec2
	Local     Vec2
	Intensity float64
	Slope     float64
}

// Receiver is a radiation-accumulating entity. Exposure is the pass's only
// output mutation: it is overwritten every tick, never accumulated.
type Receiver struct {
	ID       string
	MapID    string
	GridID   string
	Position Vec2
	Local    Vec2
	Exposure float64
}

// TileHit records one occluding tile a ray crossed and the intensity left
// after that tile's resistance was subtracted. Debug-only.
type TileHit struct {
	Tile      TileCoord `json:"tile"`
	RadsAfter float64   `json:"radsAfter"`
}

// Ray is the transient record of a single source→receiver trace. It lives
// for one trace and has a single writer; Blockers is only populated when a
// debug observer is attached for the tick.
type Ray struct {
	MapID              string               `json:"mapId"`
	SourceID           string               `json:"source"`
	ReceiverID         string               `json:"destination"`
	Origin             Vec2                 `json:"origin"`
	Dest               Vec2                 `json:"dest"`
	Rads               float64              `json:"rads"`
	ReachedDestination bool                 `json:"reachedDestination"`
	Blockers           map[string][]TileHit `json:"perGridBlockers,omitempty"`
}
