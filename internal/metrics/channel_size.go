package metrics

import (
	"context"
	"time"

	"marketpulse/internal/channel"
	"marketpulse/logger"
)

// StartChannelSizeMetrics samples the occupancy of every channel buffer
// on the given cadence until the context is cancelled. When interval
// <= 0, a one-second cadence is used.
func StartChannelSizeMetrics(ctx context.Context, channels *channel.Channels, interval time.Duration) {
	if channels == nil {
		return
	}
	if interval <= 0 {
		interval = time.Second
	}

	log := logger.GetLogger().WithComponent("channel_buffers")
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				SetChannelOccupancy("trades", len(channels.Trades))
				SetChannelOccupancy("books", len(channels.Books))
				SetChannelOccupancy("bars", len(channels.Bars))
				SetChannelOccupancy("metrics", len(channels.Metrics))

				stats := channels.GetStats()
				dropped := stats.TradesDropped + stats.BooksDropped + stats.BarsDropped + stats.MetricsDropped
				if dropped > 0 {
					log.WithFields(logger.Fields{
						"trades_dropped":  stats.TradesDropped,
						"books_dropped":   stats.BooksDropped,
						"bars_dropped":    stats.BarsDropped,
						"metrics_dropped": stats.MetricsDropped,
					}).Warn("channel buffers dropping messages")
				}
			}
		}
	}()
}
