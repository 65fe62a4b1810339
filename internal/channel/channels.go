package channel

import (
	"context"
	"sync"

	"marketpulse/internal/model"
	"marketpulse/logger"
)

// ChannelStats counts messages moved through (or refused by) the bundle.
type ChannelStats struct {
	TradesSent     int64
	BooksSent      int64
	BarsSent       int64
	MetricsSent    int64
	TradesDropped  int64
	BooksDropped   int64
	BarsDropped    int64
	MetricsDropped int64
}

// Channels bundles the buffered channels connecting the feed, the
// processor and the publisher. Sends never block: a full buffer drops
// the message and bumps the drop counter.
type Channels struct {
	Trades  chan model.Trade
	Books   chan model.BookSnapshot
	Bars    chan model.Bar
	Metrics chan model.MetricsMessage

	stats      ChannelStats
	statsMutex sync.RWMutex
	log        *logger.Log
}

func NewChannels(tradeBuffer, bookBuffer, barBuffer, metricsBuffer int) *Channels {
	log := logger.GetLogger()
	c := &Channels{
		Trades:  make(chan model.Trade, tradeBuffer),
		Books:   make(chan model.BookSnapshot, bookBuffer),
		Bars:    make(chan model.Bar, barBuffer),
		Metrics: make(chan model.MetricsMessage, metricsBuffer),
		log:     log,
	}

	log.WithComponent("channels").WithFields(logger.Fields{
		"trade_buffer":   tradeBuffer,
		"book_buffer":    bookBuffer,
		"bar_buffer":     barBuffer,
		"metrics_buffer": metricsBuffer,
	}).Info("channels initialized")

	return c
}

// CloseInputs closes the event channels feeding the processor. The
// metrics channel stays open until the processor has drained.
func (c *Channels) CloseInputs() {
	close(c.Trades)
	close(c.Books)
	close(c.Bars)
	c.log.WithComponent("channels").Info("input channels closed")
}

func (c *Channels) CloseMetrics() {
	close(c.Metrics)
	c.log.WithComponent("channels").Info("metrics channel closed")
}

func (c *Channels) SendTrade(ctx context.Context, trade model.Trade) bool {
	select {
	case c.Trades <- trade:
		c.increment(func(s *ChannelStats) { s.TradesSent++ })
		return true
	case <-ctx.Done():
		return false
	default:
		c.increment(func(s *ChannelStats) { s.TradesDropped++ })
		return false
	}
}

func (c *Channels) SendBook(ctx context.Context, book model.BookSnapshot) bool {
	select {
	case c.Books <- book:
		c.increment(func(s *ChannelStats) { s.BooksSent++ })
		return true
	case <-ctx.Done():
		return false
	default:
		c.increment(func(s *ChannelStats) { s.BooksDropped++ })
		return false
	}
}

func (c *Channels) SendBar(ctx context.Context, bar model.Bar) bool {
	select {
	case c.Bars <- bar:
		c.increment(func(s *ChannelStats) { s.BarsSent++ })
		return true
	case <-ctx.Done():
		return false
	default:
		c.increment(func(s *ChannelStats) { s.BarsDropped++ })
		return false
	}
}

func (c *Channels) SendMetrics(ctx context.Context, msg model.MetricsMessage) bool {
	select {
	case c.Metrics <- msg:
		c.increment(func(s *ChannelStats) { s.MetricsSent++ })
		return true
	case <-ctx.Done():
		return false
	default:
		c.increment(func(s *ChannelStats) { s.MetricsDropped++ })
		return false
	}
}

func (c *Channels) increment(f func(*ChannelStats)) {
	c.statsMutex.Lock()
	f(&c.stats)
	c.statsMutex.Unlock()
}

func (c *Channels) GetStats() ChannelStats {
	c.statsMutex.RLock()
	defer c.statsMutex.RUnlock()
	return c.stats
}
