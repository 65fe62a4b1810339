package model

// Side is the aggressor side of a trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
	// SideUnknown marks a trade whose aggressor could not be classified.
	// Engines treat such trades as neutral.
	SideUnknown Side = ""
)

// EventKind identifies the wire envelope of an inbound market-data event.
type EventKind string

const (
	EventTrade EventKind = "trade"
	EventBook  EventKind = "book"
	EventBar   EventKind = "bar"
)

// Trade is a single executed trade as delivered by the upstream feed.
// Price and Size must be positive for the trade to be accepted by any engine.
type Trade struct {
	Timestamp int64   `json:"ts"` // epoch milliseconds
	Price     float64 `json:"price"`
	Size      float64 `json:"size"`
	Symbol    string  `json:"symbol"`
	Side      Side    `json:"side,omitempty"`
	Exchange  string  `json:"exchange,omitempty"`
}

// Bar is an immutable OHLCV aggregate for one timeframe.
type Bar struct {
	Timestamp int64   `json:"ts"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	Timeframe string  `json:"tf"`
	Symbol    string  `json:"symbol"`
}

// TypicalPrice is (high+low+close)/3, the price proxy used for bar-driven VWAP.
func (b Bar) TypicalPrice() float64 {
	return (b.High + b.Low + b.Close) / 3
}

// Level is one order-book price level.
type Level struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// BookSnapshot is a point-in-time view of one symbol's order book.
// Bids and Asks are best-first; the feed guarantees ordering and engines
// never re-sort them.
type BookSnapshot struct {
	Timestamp int64   `json:"ts"`
	Symbol    string  `json:"symbol"`
	Bids      []Level `json:"bids"`
	Asks      []Level `json:"asks"`
}
