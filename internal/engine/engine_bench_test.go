package engine

import (
	"testing"

	"marketpulse/internal/model"
)

func benchTrades(n int) []model.Trade {
	trades := make([]model.Trade, n)
	for i := range trades {
		side := model.SideBuy
		if i%2 == 1 {
			side = model.SideSell
		}
		trades[i] = model.Trade{
			Timestamp: int64(i),
			Price:     30000 + float64(i%100)*0.5,
			Size:      0.25,
			Symbol:    "BTCUSDT",
			Side:      side,
		}
	}
	return trades
}

func benchSnapshot() model.BookSnapshot {
	s := model.BookSnapshot{Timestamp: 1234567890, Symbol: "BTCUSDT"}
	for i := 0; i < 20; i++ {
		s.Bids = append(s.Bids, model.Level{Price: 29999.5 - float64(i)*0.5, Size: 1 + float64(i)})
		s.Asks = append(s.Asks, model.Level{Price: 30000.0 + float64(i)*0.5, Size: 1 + float64(i)})
	}
	return s
}

func BenchmarkCVDOnTrade(b *testing.B) {
	e := NewCVD()
	trades := benchTrades(1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.OnTrade(trades[i%len(trades)])
	}
}

func BenchmarkVWAPOnTrade(b *testing.B) {
	e := NewVWAP()
	trades := benchTrades(1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.OnTrade(trades[i%len(trades)])
	}
}

func BenchmarkLiquidityOnSnapshot(b *testing.B) {
	e := NewLiquidity(10)
	s := benchSnapshot()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.OnSnapshot(s)
	}
}

func BenchmarkHeatmapOnSnapshot(b *testing.B) {
	e := NewHeatmap(1000, 0.5)
	s := benchSnapshot()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.OnSnapshot(s)
	}
}

func BenchmarkRegistryOnTradeParallel(b *testing.B) {
	r := NewRegistry(Options{})
	trades := benchTrades(1024)
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			r.OnTrade(trades[i%len(trades)])
			i++
		}
	})
}
