package engine

import (
	"sort"
	"testing"

	"marketpulse/internal/model"
)

func TestHeatmapDefaults(t *testing.T) {
	e := NewHeatmap(0, 0)
	if e.BucketMS() != DefaultBucketMS || e.TickSize() != DefaultTickSize {
		t.Fatalf("defaults wrong: bucket=%d tick=%v", e.BucketMS(), e.TickSize())
	}

	e.SetBucketMS(500)
	e.SetTickSize(0.5)
	if e.BucketMS() != 500 || e.TickSize() != 0.5 {
		t.Fatalf("setters not applied: bucket=%d tick=%v", e.BucketMS(), e.TickSize())
	}

	// non-positive values are ignored
	e.SetBucketMS(-1)
	e.SetTickSize(0)
	if e.BucketMS() != 500 || e.TickSize() != 0.5 {
		t.Fatalf("invalid setter values should be ignored")
	}
}

func TestHeatmapRejectsEmptySnapshot(t *testing.T) {
	e := NewHeatmap(0, 0)
	if m := e.OnSnapshot(model.BookSnapshot{Timestamp: 1, Symbol: "AAPL"}); m != nil {
		t.Fatalf("empty snapshot should be rejected, got %+v", m)
	}
}

func TestHeatmapAcceptsOneSidedSnapshot(t *testing.T) {
	e := NewHeatmap(0, 0)
	s := model.BookSnapshot{
		Timestamp: 1000,
		Symbol:    "AAPL",
		Bids:      []model.Level{{Price: 149.99, Size: 100}},
	}
	m := e.OnSnapshot(s)
	if m == nil || len(m.Tiles) != 1 || m.Tiles[0].Side != "bid" {
		t.Fatalf("one-sided snapshot should be accepted: %+v", m)
	}
}

func TestHeatmapBucketing(t *testing.T) {
	e := NewHeatmap(1000, 0.01)

	m := e.OnSnapshot(model.BookSnapshot{
		Timestamp: 1234567890,
		Symbol:    "AAPL",
		Bids:      []model.Level{{Price: 149.99, Size: 100}},
		Asks:      []model.Level{{Price: 150.01, Size: 50}},
	})
	if m == nil || m.BucketTS != 1234567000 {
		t.Fatalf("bucket = %+v, want 1234567000", m)
	}

	// second snapshot in the same bucket accumulates into the same tiles
	m = e.OnSnapshot(model.BookSnapshot{
		Timestamp: 1234567950,
		Symbol:    "AAPL",
		Bids:      []model.Level{{Price: 149.99, Size: 25}},
		Asks:      []model.Level{{Price: 150.01, Size: 25}},
	})
	if m == nil || m.BucketTS != 1234567000 {
		t.Fatalf("second snapshot landed in bucket %+v", m)
	}
	sizes := map[string]float64{}
	for _, tile := range m.Tiles {
		sizes[tile.Side] = tile.TotalSize
	}
	if sizes["bid"] != 125 || sizes["ask"] != 75 {
		t.Fatalf("accumulation wrong: %+v", m.Tiles)
	}
}

func TestHeatmapQuantization(t *testing.T) {
	e := NewHeatmap(1000, 0.1)

	m := e.OnSnapshot(model.BookSnapshot{
		Timestamp: 1000,
		Symbol:    "AAPL",
		Bids: []model.Level{
			{Price: 150.24, Size: 10}, // -> 150.2
			{Price: 150.21, Size: 10}, // -> 150.2
		},
		Asks: []model.Level{
			{Price: 150.26, Size: 10}, // -> 150.3
		},
	})
	if m == nil || len(m.Tiles) != 2 {
		t.Fatalf("expected 2 tiles after quantization, got %+v", m)
	}
	if m.Tiles[0].TotalSize != 20 {
		t.Fatalf("bids at 150.2 should merge: %+v", m.Tiles)
	}
}

func TestHeatmapTilesSorted(t *testing.T) {
	e := NewHeatmap(1000, 0.01)

	m := e.OnSnapshot(model.BookSnapshot{
		Timestamp: 1000,
		Symbol:    "AAPL",
		Bids: []model.Level{
			{Price: 149.99, Size: 10},
			{Price: 149.95, Size: 10},
			{Price: 149.97, Size: 10},
		},
		Asks: []model.Level{
			{Price: 150.05, Size: 10},
			{Price: 150.01, Size: 10},
		},
	})
	if m == nil {
		t.Fatalf("snapshot rejected")
	}
	if !sort.SliceIsSorted(m.Tiles, func(i, j int) bool {
		return m.Tiles[i].PriceBin < m.Tiles[j].PriceBin
	}) {
		t.Fatalf("tiles not sorted by price: %+v", m.Tiles)
	}
	if m.CompressionRatio < 1 {
		t.Fatalf("compression ratio %v < 1 with surviving tiles", m.CompressionRatio)
	}
}

func TestHeatmapCompressionFiltersInsignificantTiles(t *testing.T) {
	e := NewHeatmap(1000, 0.01)

	m := e.OnSnapshot(model.BookSnapshot{
		Timestamp: 1000,
		Symbol:    "AAPL",
		Bids: []model.Level{
			{Price: 149.99, Size: 1000},
			{Price: 149.98, Size: 1}, // 0.1% of peak, dropped
		},
	})
	if m == nil {
		t.Fatalf("snapshot rejected")
	}
	if m.MaxSize != 1000 {
		t.Fatalf("max size = %v, want 1000", m.MaxSize)
	}
	if len(m.Tiles) != 1 || m.Tiles[0].TotalSize != 1000 {
		t.Fatalf("insignificant tile not filtered: %+v", m.Tiles)
	}
	if m.CompressionRatio != 2 {
		t.Fatalf("compression ratio = %v, want 2", m.CompressionRatio)
	}
}

func TestHeatmapTileDeltaUnfiltered(t *testing.T) {
	e := NewHeatmap(1000, 0.01)

	e.OnSnapshot(model.BookSnapshot{
		Timestamp: 1000,
		Symbol:    "AAPL",
		Bids: []model.Level{
			{Price: 149.99, Size: 1000},
			{Price: 149.98, Size: 1},
		},
	})

	delta := e.TileDelta(1000)
	if len(delta) != 2 {
		t.Fatalf("tile delta should be unfiltered, got %d tiles", len(delta))
	}
	if delta[0].PriceBin > delta[1].PriceBin {
		t.Fatalf("tile delta not sorted: %+v", delta)
	}

	// reading the delta must not mutate state
	if e.Entries() != 2 {
		t.Fatalf("TileDelta mutated the grid: %d entries", e.Entries())
	}
	if got := e.TileDelta(99999); len(got) != 0 {
		t.Fatalf("unknown bucket should yield no tiles, got %+v", got)
	}
}

func TestHeatmapResetBucket(t *testing.T) {
	e := NewHeatmap(1000, 0.01)

	e.OnSnapshot(model.BookSnapshot{
		Timestamp: 1000, Symbol: "AAPL",
		Bids: []model.Level{{Price: 149.99, Size: 10}},
	})
	e.OnSnapshot(model.BookSnapshot{
		Timestamp: 2000, Symbol: "AAPL",
		Bids: []model.Level{{Price: 149.99, Size: 10}},
	})
	if e.Entries() != 2 {
		t.Fatalf("expected 2 grid entries, got %d", e.Entries())
	}

	e.ResetBucket(1000)
	if e.Entries() != 1 {
		t.Fatalf("ResetBucket should only clear its bucket, %d entries left", e.Entries())
	}
	if len(e.TileDelta(1000)) != 0 || len(e.TileDelta(2000)) != 1 {
		t.Fatalf("wrong bucket cleared")
	}

	e.Reset()
	if e.Entries() != 0 {
		t.Fatalf("Reset should clear the grid, %d entries left", e.Entries())
	}
}
