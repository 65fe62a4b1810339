package engine

import (
	"marketpulse/internal/model"
	"marketpulse/internal/numutil"
	"marketpulse/internal/shardmap"
)

type vwapState struct {
	pvSum float64
	vSum  float64
}

// VWAP maintains per-symbol price-volume and volume sums. Trade-driven and
// bar-driven updates share the same accumulator, so a session can mix both.
type VWAP struct {
	state *shardmap.Map[string, vwapState]
}

func NewVWAP() *VWAP {
	return &VWAP{
		state: shardmap.New[string, vwapState](shardmap.StringHash),
	}
}

// OnTrade accumulates price*size and size for the trade's symbol. Trades
// with non-positive price or size are rejected and leave state untouched.
func (e *VWAP) OnTrade(trade model.Trade) *model.VWAPMetrics {
	if trade.Price <= 0 || trade.Size <= 0 {
		return nil
	}
	return e.accumulate(trade.Symbol, trade.Price, trade.Size)
}

// OnBar accumulates using the bar's typical price (high+low+close)/3 in
// place of a trade price. Bars with non-positive volume are rejected.
func (e *VWAP) OnBar(bar model.Bar) *model.VWAPMetrics {
	if bar.Volume <= 0 {
		return nil
	}
	return e.accumulate(bar.Symbol, bar.TypicalPrice(), bar.Volume)
}

// OnTradeBatch runs each trade through OnTrade in order and collects the
// per-trade running results. The batch continues from whatever state the
// symbol already carries and persists its updates, so batching and
// trade-by-trade feeding are interchangeable. Rejected trades produce no
// result. An empty batch yields an empty slice.
func (e *VWAP) OnTradeBatch(trades []model.Trade) []model.VWAPMetrics {
	results := make([]model.VWAPMetrics, 0, len(trades))
	for _, trade := range trades {
		if m := e.OnTrade(trade); m != nil {
			results = append(results, *m)
		}
	}
	return results
}

func (e *VWAP) accumulate(symbol string, price, volume float64) *model.VWAPMetrics {
	st := e.state.Upsert(symbol, func(old vwapState, exists bool) vwapState {
		old.pvSum += price * volume
		old.vSum += volume
		return old
	})

	return &model.VWAPMetrics{
		VWAP:  numutil.SafeDiv(st.pvSum, st.vSum),
		PVSum: st.pvSum,
		VSum:  st.vSum,
	}
}

// GetVWAP returns the current VWAP for symbol, if the symbol has been seen.
func (e *VWAP) GetVWAP(symbol string) (float64, bool) {
	st, ok := e.state.Get(symbol)
	if !ok {
		return 0, false
	}
	return numutil.SafeDiv(st.pvSum, st.vSum), true
}

// ResetSymbol drops one symbol's sums. Unknown symbols are a no-op.
func (e *VWAP) ResetSymbol(symbol string) {
	e.state.Delete(symbol)
}

// ResetAll drops every symbol.
func (e *VWAP) ResetAll() {
	e.state.Clear()
}

// Symbols returns the number of symbols currently tracked.
func (e *VWAP) Symbols() int {
	return e.state.Len()
}
