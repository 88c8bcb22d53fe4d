package spatial

import "math"

// Box is an axis-aligned bounding box in world coordinates.
type Box struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// FromPoints returns the box spanning two world points.
func FromPoints(ax, ay, bx, by float64) Box {
	return Box{
		MinX: math.Min(ax, bx),
		MinY: math.Min(ay, by),
		MaxX: math.Max(ax, bx),
		MaxY: math.Max(ay, by),
	}
}

// Expand grows the box by pad on every side.
func (b Box) Expand(pad float64) Box {
	return Box{MinX: b.MinX - pad, MinY: b.MinY - pad, MaxX: b.MaxX + pad, MaxY: b.MaxY + pad}
}

// Intersects reports whether two boxes overlap, touching edges included.
func (b Box) Intersects(other Box) bool {
	return b.MinX <= other.MaxX && b.MaxX >= other.MinX &&
		b.MinY <= other.MaxY && b.MaxY >= other.MinY
}

// Empty reports whether the box covers no area at all.
func (b Box) Empty() bool {
	return b.MaxX < b.MinX || b.MaxY < b.MinY
}

type cellKey struct {
	X int
	Y int
}

type indexEntry struct {
	bounds Box
	cells  []cellKey
}

const defaultCellSize = 64.0

// Index buckets identified boxes into fixed-size world cells so a box query
// only inspects the cells the query region covers. Entries are keyed by a
// caller-supplied id and re-registering an id replaces its previous bounds.
type Index struct {
	cellSize    float64
	invCellSize float64
	cells       map[cellKey][]string
	entries     map[string]*indexEntry
}

// NewIndex creates an index with the given bucket size in world units.
func NewIndex(cellSize float64) *Index {
	if cellSize <= 0 {
		cellSize = defaultCellSize
	}
	return &Index{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cells:       make(map[cellKey][]string),
		entries:     make(map[string]*indexEntry),
	}
}

// Upsert registers or relocates an entry covering the given bounds.
func (idx *Index) Upsert(id string, bounds Box) {
	if idx == nil || id == "" || bounds.Empty() {
		return
	}
	if entry, ok := idx.entries[id]; ok {
		idx.removeFromCells(id, entry.cells)
	}
	cells := idx.cellsForBox(bounds)
	idx.entries[id] = &indexEntry{bounds: bounds, cells: cells}
	for _, cell := range cells {
		idx.cells[cell] = append(idx.cells[cell], id)
	}
}

// Remove drops an entry from the index, tolerating unknown ids.
func (idx *Index) Remove(id string) {
	if idx == nil || id == "" {
		return
	}
	entry, ok := idx.entries[id]
	if !ok {
		return
	}
	idx.removeFromCells(id, entry.cells)
	delete(idx.entries, id)
}

// Reset clears every entry while keeping allocated maps.
func (idx *Index) Reset() {
	if idx == nil {
		return
	}
	clear(idx.cells)
	clear(idx.entries)
}

// Len reports the number of registered entries.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}

// Bounds returns the registered bounds for an id.
func (idx *Index) Bounds(id string) (Box, bool) {
	if idx == nil {
		return Box{}, false
	}
	entry, ok := idx.entries[id]
	if !ok {
		return Box{}, false
	}
	return entry.bounds, true
}

// QueryBox appends the ids of every entry whose bounds intersect the query
// region to dst and returns it. Ids appear at most once, in the container
// order the bucket walk discovers them; callers must not rely on distance
// ordering along any particular axis.
func (idx *Index) QueryBox(query Box, dst []string) []string {
	if idx == nil || query.Empty() {
		return dst
	}
	seen := make(map[string]struct{}, 4)
	minX := idx.coordToCell(query.MinX)
	minY := idx.coordToCell(query.MinY)
	maxX := idx.coordToCell(query.MaxX)
	maxY := idx.coordToCell(query.MaxY)
	for row := minY; row <= maxY; row++ {
		for col := minX; col <= maxX; col++ {
			for _, id := range idx.cells[cellKey{X: col, Y: row}] {
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				entry := idx.entries[id]
				if entry == nil || !entry.bounds.Intersects(query) {
					continue
				}
				dst = append(dst, id)
			}
		}
	}
	return dst
}

func (idx *Index) removeFromCells(id string, cells []cellKey) {
	for _, cell := range cells {
		bucket := idx.cells[cell]
		for i := range bucket {
			if bucket[i] != id {
				continue
			}
			bucket[i] = bucket[len(bucket)-1]
			bucket = bucket[:len(bucket)-1]
			break
		}
		if len(bucket) == 0 {
			delete(idx.cells, cell)
		} else {
			idx.cells[cell] = bucket
		}
	}
}

func (idx *Index) cellsForBox(bounds Box) []cellKey {
	minX := idx.coordToCell(bounds.MinX)
	minY := idx.coordToCell(bounds.MinY)
	maxX := idx.coordToCell(bounds.MaxX)
	maxY := idx.coordToCell(bounds.MaxY)
	cells := make([]cellKey, 0, (maxX-minX+1)*(maxY-minY+1))
	for row := minY; row <= maxY; row++ {
		for col := minX; col <= maxX; col++ {
			cells = append(cells, cellKey{X: col, Y: row})
		}
	}
	return cells
}

func (idx *Index) coordToCell(value float64) int {
	return int(math.Floor(value * idx.invCellSize))
}
