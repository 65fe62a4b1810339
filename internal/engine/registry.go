// Package engine implements the four streaming indicator engines (CVD, VWAP,
// liquidity, heatmap) and the registry that routes market events to them.
// Engines keep their per-key state in lock-striped concurrent maps, so any
// number of caller goroutines may feed the same engine instance without
// external locking.
package engine

import "marketpulse/internal/model"

// Indicator names, used to tag published results.
const (
	IndicatorCVD       = "cvd"
	IndicatorVWAP      = "vwap"
	IndicatorLiquidity = "liquidity"
	IndicatorHeatmap   = "heatmap"
)

// Result pairs one produced metrics payload with the indicator and symbol it
// belongs to.
type Result struct {
	Indicator string
	Symbol    string
	Payload   interface{}
}

// Options tunes the engines a Registry owns. Zero values select the
// defaults.
type Options struct {
	DepthLevels     int
	HeatmapBucketMS int64
	HeatmapTickSize float64
}

// Registry owns one instance of every engine and dispatches each inbound
// event to the engines that consume its kind: trades feed CVD and VWAP, bars
// feed VWAP, book snapshots feed liquidity and heatmap. Engines share no
// behavior, so dispatch is explicit rather than interface-driven.
type Registry struct {
	CVD       *CVD
	VWAP      *VWAP
	Liquidity *Liquidity
	Heatmap   *Heatmap
}

func NewRegistry(opts Options) *Registry {
	return &Registry{
		CVD:       NewCVD(),
		VWAP:      NewVWAP(),
		Liquidity: NewLiquidity(opts.DepthLevels),
		Heatmap:   NewHeatmap(opts.HeatmapBucketMS, opts.HeatmapTickSize),
	}
}

// OnTrade feeds a trade to the CVD and VWAP engines and returns whatever
// they produced. A rejected trade yields no results.
func (r *Registry) OnTrade(trade model.Trade) []Result {
	var results []Result
	if m := r.CVD.OnTrade(trade); m != nil {
		results = append(results, Result{IndicatorCVD, trade.Symbol, m})
	}
	if m := r.VWAP.OnTrade(trade); m != nil {
		results = append(results, Result{IndicatorVWAP, trade.Symbol, m})
	}
	return results
}

// OnBar feeds a bar to the VWAP engine.
func (r *Registry) OnBar(bar model.Bar) []Result {
	var results []Result
	if m := r.VWAP.OnBar(bar); m != nil {
		results = append(results, Result{IndicatorVWAP, bar.Symbol, m})
	}
	return results
}

// OnSnapshot feeds a book snapshot to the liquidity and heatmap engines.
func (r *Registry) OnSnapshot(snapshot model.BookSnapshot) []Result {
	var results []Result
	if m := r.Liquidity.OnSnapshot(snapshot); m != nil {
		results = append(results, Result{IndicatorLiquidity, snapshot.Symbol, m})
	}
	if m := r.Heatmap.OnSnapshot(snapshot); m != nil {
		results = append(results, Result{IndicatorHeatmap, snapshot.Symbol, m})
	}
	return results
}

// ResetAll clears every engine's accumulated state.
func (r *Registry) ResetAll() {
	r.CVD.ResetAll()
	r.VWAP.ResetAll()
	r.Heatmap.Reset()
}
