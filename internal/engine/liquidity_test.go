package engine

import (
	"testing"

	"marketpulse/internal/model"
)

func testSnapshot() model.BookSnapshot {
	return model.BookSnapshot{
		Timestamp: 1234567890,
		Symbol:    "AAPL",
		Bids: []model.Level{
			{Price: 149.99, Size: 100},
			{Price: 149.98, Size: 200},
		},
		Asks: []model.Level{
			{Price: 150.01, Size: 100},
			{Price: 150.02, Size: 200},
		},
	}
}

func TestLiquidityBasicMetrics(t *testing.T) {
	e := NewLiquidity(0)
	if e.DepthLevels() != DefaultDepthLevels {
		t.Fatalf("default depth levels = %d, want %d", e.DepthLevels(), DefaultDepthLevels)
	}

	m := e.OnSnapshot(testSnapshot())
	if m == nil {
		t.Fatalf("snapshot rejected unexpectedly")
	}
	if m.BestBid != 149.99 || m.BestAsk != 150.01 {
		t.Fatalf("best levels wrong: %+v", m)
	}
	if !approx(m.Spread, 0.02, 1e-9) || m.Mid != 150 {
		t.Fatalf("spread/mid wrong: %+v", m)
	}
	if m.BidsDepth != 300 || m.AsksDepth != 300 {
		t.Fatalf("depth wrong: %+v", m)
	}
	if m.DepthImbalance != 0 {
		t.Fatalf("balanced book should have zero depth imbalance: %+v", m)
	}
	if m.Levels != "2/2" {
		t.Fatalf("levels label = %q, want 2/2", m.Levels)
	}
}

func TestLiquidityRejectsOneSidedBook(t *testing.T) {
	e := NewLiquidity(10)

	s := testSnapshot()
	s.Asks = nil
	if m := e.OnSnapshot(s); m != nil {
		t.Fatalf("missing asks should be rejected, got %+v", m)
	}

	s = testSnapshot()
	s.Bids = nil
	if m := e.OnSnapshot(s); m != nil {
		t.Fatalf("missing bids should be rejected, got %+v", m)
	}
}

func TestLiquidityDepthWindow(t *testing.T) {
	e := NewLiquidity(1)

	m := e.OnSnapshot(testSnapshot())
	if m == nil || m.BidsDepth != 100 || m.AsksDepth != 100 {
		t.Fatalf("depth window of 1 should only sum the top level: %+v", m)
	}
}

func TestLiquidityImbalance(t *testing.T) {
	e := NewLiquidity(10)

	s := model.BookSnapshot{
		Symbol: "AAPL",
		Bids:   []model.Level{{Price: 149.99, Size: 100}, {Price: 149.98, Size: 200}},
		Asks:   []model.Level{{Price: 150.01, Size: 50}},
	}
	m := e.OnSnapshot(s)
	if m == nil {
		t.Fatalf("snapshot rejected unexpectedly")
	}
	// depth imbalance = (300-50)/350
	if !approx(m.DepthImbalance, 250.0/350.0, 1e-9) {
		t.Fatalf("depth imbalance = %v", m.DepthImbalance)
	}
	// top imbalance = (100-50)/150
	if !approx(m.TopImbalance, 50.0/150.0, 1e-9) {
		t.Fatalf("top imbalance = %v", m.TopImbalance)
	}
	if m.Bid1Size != 100 || m.Ask1Size != 50 {
		t.Fatalf("top sizes wrong: %+v", m)
	}
}

func TestLiquidityIdempotent(t *testing.T) {
	e := NewLiquidity(10)
	s := testSnapshot()

	first := e.OnSnapshot(s)
	second := e.OnSnapshot(s)
	if first == nil || second == nil || *first != *second {
		t.Fatalf("identical input should give identical output: %+v vs %+v", first, second)
	}
}
