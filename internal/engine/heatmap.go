package engine

import (
	"math"
	"sort"
	"sync/atomic"

	"marketpulse/internal/model"
	"marketpulse/internal/numutil"
	"marketpulse/internal/shardmap"
)

const (
	// DefaultBucketMS is the default heatmap time-bucket width.
	DefaultBucketMS = 1000
	// DefaultTickSize is the default price quantization step.
	DefaultTickSize = 0.01
	// significanceRatio drops tiles below this fraction of the bucket peak.
	significanceRatio = 0.01

	sideBid = "bid"
	sideAsk = "ask"
)

// TileKey addresses one cell of the heatmap grid. Keeping the triple in a
// single composite key keeps the atomic upsert unit at tile granularity.
type TileKey struct {
	Bucket   int64
	PriceBin float64
	Side     string
}

func hashTileKey(k TileKey) uint64 {
	h := shardmap.Uint64Hash(uint64(k.Bucket))
	h ^= shardmap.Uint64Hash(shardmap.Float64Bits(k.PriceBin))
	if k.Side == sideAsk {
		h ^= 0x9e3779b97f4a7c15
	}
	return h
}

// Heatmap accumulates order-book size into a (time bucket, price bin, side)
// grid and publishes a compressed tile set per snapshot. The grid grows until
// an explicit Reset or ResetBucket.
type Heatmap struct {
	bucketMS atomic.Int64
	tickBits atomic.Uint64
	grid     *shardmap.Map[TileKey, float64]
}

func NewHeatmap(bucketMS int64, tickSize float64) *Heatmap {
	e := &Heatmap{
		grid: shardmap.New[TileKey, float64](hashTileKey),
	}
	if bucketMS <= 0 {
		bucketMS = DefaultBucketMS
	}
	if tickSize <= 0 {
		tickSize = DefaultTickSize
	}
	e.bucketMS.Store(bucketMS)
	e.tickBits.Store(math.Float64bits(tickSize))
	return e
}

// SetBucketMS changes the time-bucket width. Existing entries keep the
// bucket they were recorded under.
func (e *Heatmap) SetBucketMS(bucketMS int64) {
	if bucketMS > 0 {
		e.bucketMS.Store(bucketMS)
	}
}

// SetTickSize changes the price quantization step. Existing entries keep
// their already-quantized bins.
func (e *Heatmap) SetTickSize(tickSize float64) {
	if tickSize > 0 {
		e.tickBits.Store(math.Float64bits(tickSize))
	}
}

func (e *Heatmap) BucketMS() int64 {
	return e.bucketMS.Load()
}

func (e *Heatmap) TickSize() float64 {
	return math.Float64frombits(e.tickBits.Load())
}

// OnSnapshot folds every level of the snapshot into the grid and returns the
// compressed tile set for the snapshot's bucket. Snapshots with no levels on
// either side are rejected; a one-sided book is still accepted.
func (e *Heatmap) OnSnapshot(snapshot model.BookSnapshot) *model.HeatmapMetrics {
	if len(snapshot.Bids) == 0 && len(snapshot.Asks) == 0 {
		return nil
	}

	bucketMS := e.BucketMS()
	tickSize := e.TickSize()
	bucket := numutil.BucketFloor(snapshot.Timestamp, bucketMS)

	e.ingestSide(bucket, sideBid, snapshot.Bids, tickSize)
	e.ingestSide(bucket, sideAsk, snapshot.Asks, tickSize)

	gridEntries := e.grid.Len()
	tiles := e.collectBucket(bucket)

	var maxSize float64
	for _, tile := range tiles {
		if tile.TotalSize > maxSize {
			maxSize = tile.TotalSize
		}
	}

	threshold := maxSize * significanceRatio
	kept := tiles[:0]
	for _, tile := range tiles {
		if tile.TotalSize >= threshold {
			kept = append(kept, tile)
		}
	}

	compressionRatio := 1.0
	if len(kept) > 0 {
		compressionRatio = float64(gridEntries) / float64(len(kept))
	}

	return &model.HeatmapMetrics{
		BucketTS:         bucket,
		BucketMS:         bucketMS,
		Tiles:            kept,
		MaxSize:          maxSize,
		CompressionRatio: compressionRatio,
	}
}

func (e *Heatmap) ingestSide(bucket int64, side string, levels []model.Level, tickSize float64) {
	for _, level := range levels {
		key := TileKey{
			Bucket:   bucket,
			PriceBin: numutil.QuantizePrice(level.Price, tickSize),
			Side:     side,
		}
		size := level.Size
		e.grid.Upsert(key, func(old float64, exists bool) float64 {
			return old + size
		})
	}
}

// collectBucket gathers every grid entry of one bucket, sorted ascending by
// price bin. The sort is stable so equal bins keep insertion order.
func (e *Heatmap) collectBucket(bucket int64) []model.Tile {
	var tiles []model.Tile
	e.grid.Range(func(key TileKey, size float64) bool {
		if key.Bucket == bucket {
			tiles = append(tiles, model.Tile{
				PriceBin:  key.PriceBin,
				TotalSize: size,
				Side:      key.Side,
			})
		}
		return true
	})
	sort.SliceStable(tiles, func(i, j int) bool {
		return tiles[i].PriceBin < tiles[j].PriceBin
	})
	return tiles
}

// TileDelta returns the unfiltered, sorted tile list for one bucket without
// touching state. Used for incremental publication between snapshots.
func (e *Heatmap) TileDelta(bucketTS int64) []model.Tile {
	return e.collectBucket(bucketTS)
}

// Reset clears the whole grid.
func (e *Heatmap) Reset() {
	e.grid.Clear()
}

// ResetBucket clears only the entries recorded under bucketTS.
func (e *Heatmap) ResetBucket(bucketTS int64) {
	e.grid.DeleteFunc(func(key TileKey, _ float64) bool {
		return key.Bucket == bucketTS
	})
}

// Entries returns the number of live grid cells across all buckets.
func (e *Heatmap) Entries() int {
	return e.grid.Len()
}
