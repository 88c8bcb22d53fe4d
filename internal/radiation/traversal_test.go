package radiation

import "testing"

func collectLine(from, to TileCoord) []TileCoord {
	lt := TraverseLine(from, to)
	var tiles []TileCoord
	for {
		tile, ok := lt.Next()
		if !ok {
			return tiles
		}
		tiles = append(tiles, tile)
	}
}

func TestTraverseLineSingleTile(t *testing.T) {
	tiles := collectLine(TileCoord{X: 3, Y: -2}, TileCoord{X: 3, Y: -2})
	if len(tiles) != 1 || tiles[0] != (TileCoord{X: 3, Y: -2}) {
		t.Fatalf("expected the single shared tile, got %v", tiles)
	}
}

func TestTraverseLineAxisAligned(t *testing.T) {
	tiles := collectLine(TileCoord{X: 0, Y: 0}, TileCoord{X: 4, Y: 0})
	want := []TileCoord{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}}
	if len(tiles) != len(want) {
		t.Fatalf("expected %d tiles, got %v", len(want), tiles)
	}
	for i, tile := range want {
		if tiles[i] != tile {
			t.Fatalf("tile %d: expected %v, got %v", i, tile, tiles[i])
		}
	}

	tiles = collectLine(TileCoord{X: 0, Y: 2}, TileCoord{X: 0, Y: -1})
	want = []TileCoord{{0, 2}, {0, 1}, {0, 0}, {0, -1}}
	for i, tile := range want {
		if tiles[i] != tile {
			t.Fatalf("vertical tile %d: expected %v, got %v", i, tile, tiles[i])
		}
	}
}

func TestTraverseLineIsFourConnected(t *testing.T) {
	tiles := collectLine(TileCoord{X: 0, Y: 0}, TileCoord{X: 5, Y: 3})
	if tiles[0] != (TileCoord{0, 0}) || tiles[len(tiles)-1] != (TileCoord{5, 3}) {
		t.Fatalf("expected endpoints included, got %v", tiles)
	}
	// Every step moves exactly one tile on exactly one axis.
	for i := 1; i < len(tiles); i++ {
		dx := tiles[i].X - tiles[i-1].X
		dy := tiles[i].Y - tiles[i-1].Y
		if dx*dx+dy*dy != 1 {
			t.Fatalf("step %d is not 4-connected: %v -> %v", i, tiles[i-1], tiles[i])
		}
	}
	// A 4-connected walk over a (dx,dy) span visits dx+dy+1 tiles.
	if len(tiles) != 5+3+1 {
		t.Fatalf("expected 9 tiles, got %d (%v)", len(tiles), tiles)
	}
}

func TestTraverseLineDiagonalTieBreak(t *testing.T) {
	// Perfect diagonal crosses tile corners; the fixed tie-break steps Y first.
	tiles := collectLine(TileCoord{X: 0, Y: 0}, TileCoord{X: 2, Y: 2})
	want := []TileCoord{{0, 0}, {0, 1}, {1, 1}, {1, 2}, {2, 2}}
	if len(tiles) != len(want) {
		t.Fatalf("expected %d tiles, got %v", len(want), tiles)
	}
	for i, tile := range want {
		if tiles[i] != tile {
			t.Fatalf("tile %d: expected %v, got %v", i, tile, tiles[i])
		}
	}
}

func TestTraverseLineNegativeQuadrant(t *testing.T) {
	tiles := collectLine(TileCoord{X: 2, Y: 1}, TileCoord{X: -2, Y: -1})
	if tiles[0] != (TileCoord{2, 1}) || tiles[len(tiles)-1] != (TileCoord{-2, -1}) {
		t.Fatalf("expected endpoints included, got %v", tiles)
	}
	if len(tiles) != 4+2+1 {
		t.Fatalf("expected 7 tiles, got %d (%v)", len(tiles), tiles)
	}
}

func TestTraverseLineRemaining(t *testing.T) {
	lt := TraverseLine(TileCoord{X: 0, Y: 0}, TileCoord{X: 3, Y: 2})
	if lt.Remaining() != 6 {
		t.Fatalf("expected 6 tiles remaining before the walk, got %d", lt.Remaining())
	}
	lt.Next()
	lt.Next()
	if lt.Remaining() != 4 {
		t.Fatalf("expected 4 tiles remaining mid-walk, got %d", lt.Remaining())
	}
}
