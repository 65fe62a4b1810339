package engine

import (
	"testing"

	"marketpulse/internal/model"
)

func trade(symbol string, price, size float64, side model.Side) model.Trade {
	return model.Trade{Timestamp: 1000, Price: price, Size: size, Symbol: symbol, Side: side}
}

func TestCVDRejectsInvalidTrades(t *testing.T) {
	e := NewCVD()

	if m := e.OnTrade(trade("AAPL", -150, 100, model.SideBuy)); m != nil {
		t.Fatalf("negative price should be rejected, got %+v", m)
	}
	if m := e.OnTrade(trade("AAPL", 150, 0, model.SideBuy)); m != nil {
		t.Fatalf("zero size should be rejected, got %+v", m)
	}
	if _, ok := e.GetCVD("AAPL"); ok {
		t.Fatalf("rejected trades must not create state")
	}
}

func TestCVDAccumulation(t *testing.T) {
	e := NewCVD()

	m := e.OnTrade(trade("AAPL", 150, 100, model.SideBuy))
	if m == nil || m.CVD != 100 {
		t.Fatalf("after buy 100 got %+v, want cvd 100", m)
	}

	m = e.OnTrade(trade("AAPL", 151, 40, model.SideSell))
	if m == nil || m.CVD != 60 {
		t.Fatalf("after sell 40 got %+v, want cvd 60", m)
	}
	if m.LastSide != model.SideSell || m.LastSize != 40 || m.Timestamp != 1000 {
		t.Fatalf("metrics fields wrong: %+v", m)
	}
}

func TestCVDExplicitSideCaseInsensitive(t *testing.T) {
	e := NewCVD()

	if m := e.OnTrade(trade("AAPL", 150, 10, "buy")); m == nil || m.LastSide != model.SideBuy {
		t.Fatalf("lowercase buy not honoured: %+v", m)
	}
	if m := e.OnTrade(trade("AAPL", 150, 10, "Sell")); m == nil || m.LastSide != model.SideSell {
		t.Fatalf("mixed-case sell not honoured: %+v", m)
	}
}

func TestCVDTickTestClassification(t *testing.T) {
	e := NewCVD()

	// first untagged trade has nothing to compare against
	m := e.OnTrade(trade("AAPL", 150, 100, model.SideUnknown))
	if m == nil || m.LastSide != model.SideUnknown || m.CVD != 0 {
		t.Fatalf("first untagged trade should be neutral, got %+v", m)
	}

	// uptick classifies as buy
	m = e.OnTrade(trade("AAPL", 150.5, 50, model.SideUnknown))
	if m == nil || m.LastSide != model.SideBuy || m.CVD != 50 {
		t.Fatalf("uptick should be a buy, got %+v", m)
	}

	// unchanged price repeats the previous side
	m = e.OnTrade(trade("AAPL", 150.5, 25, model.SideUnknown))
	if m == nil || m.LastSide != model.SideBuy || m.CVD != 75 {
		t.Fatalf("flat tick should repeat side, got %+v", m)
	}

	// downtick classifies as sell
	m = e.OnTrade(trade("AAPL", 150.25, 30, model.SideUnknown))
	if m == nil || m.LastSide != model.SideSell || m.CVD != 45 {
		t.Fatalf("downtick should be a sell, got %+v", m)
	}
}

func TestCVDMultiSymbolIsolation(t *testing.T) {
	e := NewCVD()

	e.OnTrade(trade("AAPL", 150, 100, model.SideBuy))
	e.OnTrade(trade("BTCUSDT", 30000, 2, model.SideSell))

	if v, ok := e.GetCVD("AAPL"); !ok || v != 100 {
		t.Fatalf("AAPL cvd = %v,%v, want 100,true", v, ok)
	}
	if v, ok := e.GetCVD("BTCUSDT"); !ok || v != -2 {
		t.Fatalf("BTCUSDT cvd = %v,%v, want -2,true", v, ok)
	}
}

func TestCVDReset(t *testing.T) {
	e := NewCVD()
	e.OnTrade(trade("AAPL", 150, 100, model.SideBuy))
	e.OnTrade(trade("BTCUSDT", 30000, 2, model.SideBuy))

	// unknown symbol reset is a no-op
	e.ResetSymbol("UNKNOWN")
	if e.Symbols() != 2 {
		t.Fatalf("no-op reset changed symbol count: %d", e.Symbols())
	}

	e.ResetSymbol("AAPL")
	if _, ok := e.GetCVD("AAPL"); ok {
		t.Fatalf("AAPL should be gone after ResetSymbol")
	}
	if _, ok := e.GetCVD("BTCUSDT"); !ok {
		t.Fatalf("BTCUSDT must survive AAPL reset")
	}

	e.ResetAll()
	if _, ok := e.GetCVD("BTCUSDT"); ok {
		t.Fatalf("ResetAll should drop every symbol")
	}
}
