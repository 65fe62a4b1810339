package engine

import (
	"strings"

	"marketpulse/internal/model"
	"marketpulse/internal/shardmap"
)

// cvdState is the per-symbol accumulator. Keeping the running total, the last
// classified side and the last trade price in a single entry makes one Upsert
// cover the whole read-modify-write.
type cvdState struct {
	cvd       float64
	lastSide  model.Side
	lastPrice float64
}

// CVD accumulates signed trade volume per symbol: buys add, sells subtract.
type CVD struct {
	state *shardmap.Map[string, cvdState]
}

func NewCVD() *CVD {
	return &CVD{
		state: shardmap.New[string, cvdState](shardmap.StringHash),
	}
}

// OnTrade folds one trade into the symbol's running delta. Trades with a
// non-positive price or size are rejected and leave state untouched. A trade
// whose side cannot be classified keeps the total unchanged but still records
// its price for the next tick-test comparison.
func (e *CVD) OnTrade(trade model.Trade) *model.CVDMetrics {
	if trade.Price <= 0 || trade.Size <= 0 {
		return nil
	}

	st := e.state.Upsert(trade.Symbol, func(old cvdState, exists bool) cvdState {
		side := classifySide(trade, old, exists)
		switch side {
		case model.SideBuy:
			old.cvd += trade.Size
		case model.SideSell:
			old.cvd -= trade.Size
		}
		old.lastSide = side
		old.lastPrice = trade.Price
		return old
	})

	return &model.CVDMetrics{
		CVD:       st.cvd,
		LastSide:  st.lastSide,
		LastSize:  trade.Size,
		Timestamp: trade.Timestamp,
	}
}

// classifySide resolves the aggressor side for a trade. An explicit BUY/SELL
// tag always wins. Untagged trades fall back to a tick test against the
// symbol's previous trade price: uptick is a buy, downtick a sell, an
// unchanged price repeats the previous side. The first untagged trade of a
// symbol is unclassifiable and reported as SideUnknown.
func classifySide(trade model.Trade, prev cvdState, hasPrev bool) model.Side {
	switch model.Side(strings.ToUpper(string(trade.Side))) {
	case model.SideBuy:
		return model.SideBuy
	case model.SideSell:
		return model.SideSell
	}

	if !hasPrev || prev.lastPrice <= 0 {
		return model.SideUnknown
	}
	switch {
	case trade.Price > prev.lastPrice:
		return model.SideBuy
	case trade.Price < prev.lastPrice:
		return model.SideSell
	default:
		return prev.lastSide
	}
}

// GetCVD returns the running delta for symbol, if the symbol has been seen.
func (e *CVD) GetCVD(symbol string) (float64, bool) {
	st, ok := e.state.Get(symbol)
	if !ok {
		return 0, false
	}
	return st.cvd, true
}

// ResetSymbol drops one symbol's state. Unknown symbols are a no-op.
func (e *CVD) ResetSymbol(symbol string) {
	e.state.Delete(symbol)
}

// ResetAll drops every symbol.
func (e *CVD) ResetAll() {
	e.state.Clear()
}

// Symbols returns the number of symbols currently tracked.
func (e *CVD) Symbols() int {
	return e.state.Len()
}
