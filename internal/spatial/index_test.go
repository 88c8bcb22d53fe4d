package spatial

import "testing"

func TestIndexUpsertAndQuery(t *testing.T) {
	idx := NewIndex(32)
	idx.Upsert("grid-1", Box{MinX: 0, MinY: 0, MaxX: 64, MaxY: 64})
	idx.Upsert("grid-2", Box{MinX: 200, MinY: 200, MaxX: 260, MaxY: 260})

	hits := idx.QueryBox(Box{MinX: 10, MinY: 10, MaxX: 20, MaxY: 20}, nil)
	if len(hits) != 1 || hits[0] != "grid-1" {
		t.Fatalf("expected only grid-1, got %v", hits)
	}

	hits = idx.QueryBox(Box{MinX: -50, MinY: -50, MaxX: 300, MaxY: 300}, nil)
	if len(hits) != 2 {
		t.Fatalf("expected both grids, got %v", hits)
	}
}

func TestIndexQueryDeduplicatesAcrossCells(t *testing.T) {
	idx := NewIndex(16)
	idx.Upsert("wide", Box{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100})

	hits := idx.QueryBox(Box{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}, nil)
	if len(hits) != 1 {
		t.Fatalf("expected a single hit for an entry spanning many cells, got %v", hits)
	}
}

func TestIndexUpsertRelocates(t *testing.T) {
	idx := NewIndex(32)
	idx.Upsert("grid-1", Box{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10})
	idx.Upsert("grid-1", Box{MinX: 500, MinY: 500, MaxX: 510, MaxY: 510})

	if hits := idx.QueryBox(Box{MinX: 0, MinY: 0, MaxX: 20, MaxY: 20}, nil); len(hits) != 0 {
		t.Fatalf("expected old location to be vacated, got %v", hits)
	}
	if hits := idx.QueryBox(Box{MinX: 490, MinY: 490, MaxX: 520, MaxY: 520}, nil); len(hits) != 1 {
		t.Fatalf("expected entry at new location, got %v", hits)
	}
}

func TestIndexRemove(t *testing.T) {
	idx := NewIndex(32)
	idx.Upsert("grid-1", Box{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10})
	idx.Remove("grid-1")
	idx.Remove("missing")

	if idx.Len() != 0 {
		t.Fatalf("expected empty index, got %d entries", idx.Len())
	}
	if hits := idx.QueryBox(Box{MinX: -5, MinY: -5, MaxX: 15, MaxY: 15}, nil); len(hits) != 0 {
		t.Fatalf("expected no hits after removal, got %v", hits)
	}
}

func TestBoxExpandReachesNeighbors(t *testing.T) {
	a := Box{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	b := Box{MinX: 10.5, MinY: 0, MaxX: 20, MaxY: 10}
	if a.Intersects(b) {
		t.Fatalf("expected unpadded boxes not to intersect")
	}
	if !a.Expand(0.5).Intersects(b) {
		t.Fatalf("expected padded box to reach its neighbor")
	}

	got := a.Expand(2)
	want := Box{MinX: -2, MinY: -2, MaxX: 12, MaxY: 12}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestBoxIntersectsTouchingEdges(t *testing.T) {
	a := Box{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	b := Box{MinX: 10, MinY: 0, MaxX: 20, MaxY: 10}
	if !a.Intersects(b) {
		t.Fatalf("expected touching boxes to intersect")
	}
	c := Box{MinX: 10.5, MinY: 0, MaxX: 20, MaxY: 10}
	if a.Intersects(c) {
		t.Fatalf("expected separated boxes not to intersect")
	}
}
