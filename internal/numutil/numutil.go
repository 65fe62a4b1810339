// Package numutil holds the numeric primitives shared by the indicator
// engines. Every division a metric passes through goes via SafeDiv so the
// published values never carry NaN or Inf.
package numutil

import "math"

// SafeDiv divides num by den, returning 0 whenever the division would
// produce NaN or Inf: non-finite operands or a non-positive denominator.
func SafeDiv(num, den float64) float64 {
	if !math.IsInf(den, 0) && !math.IsNaN(den) && den > 0 && !math.IsInf(num, 0) && !math.IsNaN(num) {
		return num / den
	}
	return 0
}

// IsFinite reports whether v is neither NaN nor Inf.
func IsFinite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Mid is the midpoint between the best bid and best ask.
func Mid(bid, ask float64) float64 {
	return (bid + ask) / 2
}

// Spread is the bid/ask spread.
func Spread(bid, ask float64) float64 {
	return ask - bid
}

// QuantizePrice snaps price to the nearest multiple of tickSize.
// Half-way values round away from zero, matching math.Round.
func QuantizePrice(price, tickSize float64) float64 {
	return math.Round(price/tickSize) * tickSize
}

// BucketFloor floors a millisecond timestamp to the start of its bucket.
func BucketFloor(ts, bucketMS int64) int64 {
	return (ts / bucketMS) * bucketMS
}
