package model

import "time"

// CVDMetrics is the result of feeding one trade to the CVD engine.
type CVDMetrics struct {
	CVD       float64 `json:"cvd"`
	LastSide  Side    `json:"last_side"`
	LastSize  float64 `json:"last_size"`
	Timestamp int64   `json:"timestamp"`
}

// VWAPMetrics is the running VWAP state after one trade or bar.
type VWAPMetrics struct {
	VWAP      float64 `json:"vwap"`
	PVSum     float64 `json:"pv_sum"`
	VSum      float64 `json:"v_sum"`
	SessionID string  `json:"session_id,omitempty"`
}

// LiquidityMetrics summarises depth and imbalance for one book snapshot.
type LiquidityMetrics struct {
	Mid            float64 `json:"mid"`
	Spread         float64 `json:"spread"`
	BidsDepth      float64 `json:"bids_depth"`
	AsksDepth      float64 `json:"asks_depth"`
	DepthImbalance float64 `json:"depth_imbalance"`
	TopImbalance   float64 `json:"top_imbalance"`
	BestBid        float64 `json:"best_bid"`
	BestAsk        float64 `json:"best_ask"`
	Bid1Size       float64 `json:"bid1_size"`
	Ask1Size       float64 `json:"ask1_size"`
	// Levels is "{bid count}/{ask count}" for the raw snapshot.
	Levels string `json:"levels"`
}

// Tile is one (price bin, side) aggregate within a heatmap bucket.
type Tile struct {
	PriceBin  float64 `json:"price_bin"`
	TotalSize float64 `json:"total_size"`
	Side      string  `json:"side"`
}

// HeatmapMetrics is the compressed view of the current heatmap bucket.
type HeatmapMetrics struct {
	BucketTS int64  `json:"bucket_ts"`
	BucketMS int64  `json:"bucket_ms"`
	Tiles    []Tile `json:"tiles"`
	// MaxSize is the largest tile size in the bucket before compression.
	MaxSize float64 `json:"max_sz"`
	// CompressionRatio is total grid entries divided by tiles kept.
	CompressionRatio float64 `json:"compression_ratio"`
}

// MetricsMessage is the envelope the publisher serialises onto the bus.
type MetricsMessage struct {
	ID          string      `json:"id"`
	Indicator   string      `json:"indicator"`
	Symbol      string      `json:"symbol"`
	Payload     interface{} `json:"payload"`
	ProcessedAt time.Time   `json:"processed_at"`
}
