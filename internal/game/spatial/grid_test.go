package spatial

import (
	"testing"
)

func contains(refs []uint32, want uint32) bool {
	for _, r := range refs {
		if r == want {
			return true
		}
	}
	return false
}

func TestGridInsertAndQueryRadius(t *testing.T) {
	g := NewGrid(2400, 2400, 100, 400)

	g.Insert(1, 150, 150)
	g.Insert(2, 180, 160)
	g.Insert(3, 2300, 2300) // far corner

	got := g.QueryRadius(150, 150, 100)
	if !contains(got, 1) || !contains(got, 2) {
		t.Errorf("query near (150,150) returned %v, want refs 1 and 2", got)
	}
	if contains(got, 3) {
		t.Errorf("query near (150,150) returned the far-corner ref: %v", got)
	}

	got = g.QueryRadius(2300, 2300, 50)
	if !contains(got, 3) {
		t.Errorf("query near (2300,2300) returned %v, want ref 3", got)
	}
}

func TestGridQueryIsBroadPhase(t *testing.T) {
	g := NewGrid(2400, 2400, 100, 400)

	// Same cell but 90px apart; a 10px query may still surface it.
	g.Insert(1, 105, 105)
	g.Insert(2, 195, 195)

	got := g.QueryRadius(105, 105, 10)
	if !contains(got, 1) {
		t.Errorf("query missed the entity at the center: %v", got)
	}
	// Ref 2 being present is acceptable: callers do the precise check.
}

func TestGridClear(t *testing.T) {
	g := NewGrid(2400, 2400, 100, 400)
	for i := uint32(0); i < 50; i++ {
		g.Insert(i, float64(i*40), float64(i*40))
	}
	g.Clear()

	if got := g.QueryRadius(1200, 1200, 2400); len(got) != 0 {
		t.Errorf("cleared grid still returned %d refs", len(got))
	}
	if s := g.Stats(); s.TotalEntities != 0 || s.NonEmptyCells != 0 {
		t.Errorf("cleared grid stats = %+v", s)
	}
}

func TestGridClampsOutOfBounds(t *testing.T) {
	g := NewGrid(2400, 2400, 100, 400)

	g.Insert(7, -10, -10)
	g.Insert(8, 9000, 9000)

	if got := g.QueryRadius(0, 0, 50); !contains(got, 7) {
		t.Errorf("negative-position insert not clamped to the origin cell: %v", got)
	}
	if got := g.QueryRadius(2399, 2399, 50); !contains(got, 8) {
		t.Errorf("oversized-position insert not clamped to the last cell: %v", got)
	}
}

func TestGridQueryCell(t *testing.T) {
	g := NewGrid(2400, 2400, 100, 400)
	g.Insert(1, 50, 50)
	g.Insert(2, 250, 250)

	if got := g.QueryCell(60, 60); !contains(got, 1) || contains(got, 2) {
		t.Errorf("QueryCell(60,60) = %v, want only ref 1", got)
	}
}

func TestGridDimensionsAndStats(t *testing.T) {
	g := NewGrid(2400, 2400, 100, 400)

	cols, rows, cellSize := g.Dimensions()
	if cols != 24 || rows != 24 || cellSize != 100 {
		t.Errorf("Dimensions = (%d, %d, %v), want (24, 24, 100)", cols, rows, cellSize)
	}

	g.Insert(1, 10, 10)
	g.Insert(2, 20, 20)
	g.Insert(3, 500, 500)

	s := g.Stats()
	if s.TotalCells != 576 {
		t.Errorf("TotalCells = %d, want 576", s.TotalCells)
	}
	if s.TotalEntities != 3 || s.NonEmptyCells != 2 || s.MaxInCell != 2 {
		t.Errorf("stats = %+v, want 3 entities across 2 cells with max 2", s)
	}
	if s.AvgPerNonEmpty != 1.5 {
		t.Errorf("AvgPerNonEmpty = %v, want 1.5", s.AvgPerNonEmpty)
	}
}

func TestGridScratchBufferReuse(t *testing.T) {
	g := NewGrid(2400, 2400, 100, 400)
	g.Insert(1, 50, 50)
	g.Insert(2, 2000, 2000)

	first := g.QueryRadius(50, 50, 10)
	if !contains(first, 1) {
		t.Fatalf("first query = %v, want ref 1", first)
	}

	// The second query recycles the buffer; persisted results must be copied.
	kept := make([]uint32, len(first))
	copy(kept, first)

	second := g.QueryRadius(2000, 2000, 10)
	if !contains(second, 2) {
		t.Fatalf("second query = %v, want ref 2", second)
	}
	if !contains(kept, 1) {
		t.Error("copied results lost the original ref")
	}
}
