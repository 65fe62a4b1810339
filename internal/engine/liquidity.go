package engine

import (
	"fmt"

	"marketpulse/internal/model"
	"marketpulse/internal/numutil"
)

// DefaultDepthLevels is how many levels per side feed the depth sums.
const DefaultDepthLevels = 10

// Liquidity computes depth and imbalance metrics from a book snapshot. It
// holds no per-symbol state; every call is a pure function of its input.
type Liquidity struct {
	depthLevels int
}

func NewLiquidity(depthLevels int) *Liquidity {
	if depthLevels <= 0 {
		depthLevels = DefaultDepthLevels
	}
	return &Liquidity{depthLevels: depthLevels}
}

// DepthLevels returns the configured depth window.
func (e *Liquidity) DepthLevels() int {
	return e.depthLevels
}

// OnSnapshot derives liquidity metrics from one snapshot. Snapshots with an
// empty bid or ask side are rejected: best-of-book metrics need both sides.
func (e *Liquidity) OnSnapshot(snapshot model.BookSnapshot) *model.LiquidityMetrics {
	if len(snapshot.Bids) == 0 || len(snapshot.Asks) == 0 {
		return nil
	}

	bestBid := snapshot.Bids[0].Price
	bestAsk := snapshot.Asks[0].Price
	bid1Size := snapshot.Bids[0].Size
	ask1Size := snapshot.Asks[0].Size

	bidsDepth := sumDepth(snapshot.Bids, e.depthLevels)
	asksDepth := sumDepth(snapshot.Asks, e.depthLevels)

	return &model.LiquidityMetrics{
		Mid:            numutil.Mid(bestBid, bestAsk),
		Spread:         numutil.Spread(bestBid, bestAsk),
		BidsDepth:      bidsDepth,
		AsksDepth:      asksDepth,
		DepthImbalance: numutil.SafeDiv(bidsDepth-asksDepth, bidsDepth+asksDepth),
		TopImbalance:   numutil.SafeDiv(bid1Size-ask1Size, bid1Size+ask1Size),
		BestBid:        bestBid,
		BestAsk:        bestAsk,
		Bid1Size:       bid1Size,
		Ask1Size:       ask1Size,
		Levels:         fmt.Sprintf("%d/%d", len(snapshot.Bids), len(snapshot.Asks)),
	}
}

func sumDepth(levels []model.Level, n int) float64 {
	if len(levels) < n {
		n = len(levels)
	}
	var total float64
	for _, level := range levels[:n] {
		total += level.Size
	}
	return total
}
