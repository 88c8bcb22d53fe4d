package scenario

import (
	"encoding/json"
	"fmt"
	"os"

	"radfield/server/internal/radiation"
)

// File models a declarative world fixture: maps, grids with resistance
// tiles, sources, and receivers. Fixtures drive tests and the headless
// report tool; the schema generator reflects these structs, so the JSON
// contract and the schema stay in one place.
type File struct {
	Name      string     `json:"name" jsonschema:"required,minLength=1,title=Scenario name,description=Human-readable fixture name"`
	Maps      []Map      `json:"maps" jsonschema:"required,description=Independent maps; radiation never crosses between them"`
	Grids     []Grid     `json:"grids,omitempty" jsonschema:"description=Tile grids carrying resistance values"`
	Sources   []Source   `json:"sources" jsonschema:"required,description=Radiation-emitting entities"`
	Receivers []Receiver `json:"receivers" jsonschema:"required,description=Radiation-accumulating entities"`
}

type Map struct {
	ID string `json:"id" jsonschema:"required,title=Map id,pattern=^[a-z0-9-]+$"`
}

type Vec2 struct {
	X float64 `json:"x" jsonschema:"required"`
	Y float64 `json:"y" jsonschema:"required"`
}

type Grid struct {
	ID       string  `json:"id" jsonschema:"required,title=Grid id,pattern=^[a-z0-9-]+$"`
	MapID    string  `json:"mapId" jsonschema:"required,description=Map the grid belongs to"`
	TileSize float64 `json:"tileSize" jsonschema:"required,description=World units per tile"`
	Position Vec2    `json:"position" jsonschema:"required,description=World position of the grid origin"`
	Rotation float64 `json:"rotation,omitempty" jsonschema:"description=Grid rotation in radians"`
	Tiles    []Tile  `json:"tiles,omitempty" jsonschema:"description=Occluding tiles; absent tiles have zero resistance"`
}

type Tile struct {
	X          int     `json:"x" jsonschema:"required"`
	Y          int     `json:"y" jsonschema:"required"`
	Resistance float64 `json:"resistance" jsonschema:"required,description=Intensity absorbed when a ray crosses the tile"`
}

type Source struct {
	ID        string  `json:"id" jsonschema:"required,title=Source id,pattern=^[a-z0-9-]+$"`
	MapID     string  `json:"mapId" jsonschema:"required"`
	GridID    string  `json:"gridId,omitempty" jsonschema:"description=Grid the entity is attached to"`
	Position  Vec2    `json:"position" jsonschema:"required"`
	Intensity float64 `json:"intensity" jsonschema:"required,description=Base emission intensity in rads"`
	Slope     float64 `json:"slope" jsonschema:"required,description=Per-unit-distance intensity falloff"`
	Quantity  float64 `json:"quantity,omitempty" jsonschema:"description=Stack count multiplying the base intensity"`
}

type Receiver struct {
	ID       string `json:"id" jsonschema:"required,title=Receiver id,pattern=^[a-z0-9-]+$"`
	MapID    string `json:"mapId" jsonschema:"required"`
	GridID   string `json:"gridId,omitempty"`
	Position Vec2   `json:"position" jsonschema:"required"`
}

// Load parses a scenario file.
func Load(path string) (File, error) {
	var f File
	raw, err := os.ReadFile(path)
	if err != nil {
		return f, err
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		return f, fmt.Errorf("scenario %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return f, fmt.Errorf("scenario %s: %w", path, err)
	}
	return f, nil
}

// Validate checks referential integrity: every grid belongs to a declared
// map and every entity to a declared map and, when set, a declared grid.
func (f File) Validate() error {
	maps := make(map[string]struct{}, len(f.Maps))
	for _, m := range f.Maps {
		if m.ID == "" {
			return fmt.Errorf("map with empty id")
		}
		maps[m.ID] = struct{}{}
	}
	grids := make(map[string]string, len(f.Grids))
	for _, g := range f.Grids {
		if g.ID == "" {
			return fmt.Errorf("grid with empty id")
		}
		if _, ok := maps[g.MapID]; !ok {
			return fmt.Errorf("grid %s references unknown map %q", g.ID, g.MapID)
		}
		grids[g.ID] = g.MapID
	}
	check := func(kind, id, mapID, gridID string) error {
		if id == "" {
			return fmt.Errorf("%s with empty id", kind)
		}
		if _, ok := maps[mapID]; !ok {
			return fmt.Errorf("%s %s references unknown map %q", kind, id, mapID)
		}
		if gridID != "" {
			gridMap, ok := grids[gridID]
			if !ok {
				return fmt.Errorf("%s %s references unknown grid %q", kind, id, gridID)
			}
			if gridMap != mapID {
				return fmt.Errorf("%s %s sits on grid %s of a different map", kind, id, gridID)
			}
		}
		return nil
	}
	for _, s := range f.Sources {
		if err := check("source", s.ID, s.MapID, s.GridID); err != nil {
			return err
		}
	}
	for _, r := range f.Receivers {
		if err := check("receiver", r.ID, r.MapID, r.GridID); err != nil {
			return err
		}
	}
	return nil
}

// Build materializes the fixture into a world snapshot. Each call returns
// fresh receiver records, so repeated passes start from a clean state.
// Grid-local coordinates for attached entities are derived here once, the
// way a host simulation would carry them.
func (f File) Build() (radiation.World, error) {
	if err := f.Validate(); err != nil {
		return radiation.World{}, err
	}

	world := radiation.World{}
	gridsByID := make(map[string]*radiation.Grid, len(f.Grids))
	for _, g := range f.Grids {
		grid := &radiation.Grid{
			ID:       g.ID,
			MapID:    g.MapID,
			TileSize: g.TileSize,
			Transform: radiation.Transform{
				Position: radiation.Vec2{X: g.Position.X, Y: g.Position.Y},
				Rotation: g.Rotation,
			},
		}
		if len(g.Tiles) > 0 {
			grid.Resistance = make(radiation.ResistanceMap, len(g.Tiles))
			for _, tile := range g.Tiles {
				grid.Resistance[radiation.TileCoord{X: tile.X, Y: tile.Y}] = tile.Resistance
			}
		}
		gridsByID[g.ID] = grid
		world.Grids = append(world.Grids, grid)
	}

	localOn := func(gridID string, world radiation.Vec2) radiation.Vec2 {
		grid := gridsByID[gridID]
		if grid == nil {
			return radiation.Vec2{}
		}
		return grid.Transform.WorldToLocal(world)
	}

	quantities := make(map[string]float64)
	for _, s := range f.Sources {
		pos := radiation.Vec2{X: s.Position.X, Y: s.Position.Y}
		src := radiation.Source{
			ID:        s.ID,
			MapID:     s.MapID,
			GridID:    s.GridID,
			Position:  pos,
			Intensity: s.Intensity,
			Slope:     s.Slope,
		}
		if s.GridID != "" {
			src.Local = localOn(s.GridID, pos)
		}
		if s.Quantity > 0 {
			quantities[s.ID] = s.Quantity
		}
		world.Sources = append(world.Sources, src)
	}
	if len(quantities) > 0 {
		world.Quantity = func(sourceID string) float64 {
			return quantities[sourceID]
		}
	}

	for _, r := range f.Receivers {
		pos := radiation.Vec2{X: r.Position.X, Y: r.Position.Y}
		rcv := &radiation.Receiver{
			ID:       r.ID,
			MapID:    r.MapID,
			GridID:   r.GridID,
			Position: pos,
		}
		if r.GridID != "" {
			rcv.Local = localOn(r.GridID, pos)
		}
		world.Receivers = append(world.Receivers, rcv)
	}
	return world, nil
}
