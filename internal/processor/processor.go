package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"marketpulse/internal/channel"
	"marketpulse/internal/engine"
	"marketpulse/internal/metrics"
	"marketpulse/internal/model"
	"marketpulse/logger"
)

// Processor consumes market events off the channel bundle, runs them
// through the engine registry and emits one metrics message per
// indicator result. Workers share the registry; the engines do their
// own per-key locking.
type Processor struct {
	registry *engine.Registry
	channels *channel.Channels
	workers  int
	ctx      context.Context
	wg       *sync.WaitGroup
	mu       sync.RWMutex
	running  bool
	log      *logger.Log
}

func NewProcessor(registry *engine.Registry, ch *channel.Channels, workers int) *Processor {
	if workers < 1 {
		workers = 1
	}
	return &Processor{
		registry: registry,
		channels: ch,
		workers:  workers,
		wg:       &sync.WaitGroup{},
		log:      logger.GetLogger(),
	}
}

// Start launches the worker pool.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("processor already running")
	}
	p.running = true
	p.ctx = ctx
	p.mu.Unlock()

	log := p.log.WithComponent("processor")
	log.WithFields(logger.Fields{"workers": p.workers}).Info("starting processor")

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	return nil
}

// Stop waits for all workers to drain. The input channels must be
// closed (or the context cancelled) first.
func (p *Processor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	p.log.WithComponent("processor").Info("stopping processor")
	p.wg.Wait()
	p.log.WithComponent("processor").Info("processor stopped")
}

// worker drains all three event channels until every one of them is
// closed or the context is cancelled.
func (p *Processor) worker(id int) {
	defer p.wg.Done()

	trades := p.channels.Trades
	books := p.channels.Books
	bars := p.channels.Bars

	for {
		if trades == nil && books == nil && bars == nil {
			return
		}
		select {
		case <-p.ctx.Done():
			return
		case trade, ok := <-trades:
			if !ok {
				trades = nil
				continue
			}
			p.emit(p.registry.OnTrade(trade), "trade")
		case book, ok := <-books:
			if !ok {
				books = nil
				continue
			}
			p.emit(p.registry.OnSnapshot(book), "book")
		case bar, ok := <-bars:
			if !ok {
				bars = nil
				continue
			}
			p.emit(p.registry.OnBar(bar), "bar")
		}
	}
}

// emit wraps each indicator result into a metrics message and sends it
// downstream. An event that produced no results was rejected by every
// engine it was routed to.
func (p *Processor) emit(results []engine.Result, kind string) {
	if len(results) == 0 {
		metrics.IncrementRejected(kind)
		return
	}
	for _, res := range results {
		msg := model.MetricsMessage{
			ID:          uuid.New().String(),
			Indicator:   res.Indicator,
			Symbol:      res.Symbol,
			Payload:     res.Payload,
			ProcessedAt: time.Now(),
		}
		if p.channels.SendMetrics(p.ctx, msg) {
			metrics.IncrementProcessed(res.Indicator, res.Symbol)
		} else if p.ctx.Err() == nil {
			p.log.WithComponent("processor").WithFields(logger.Fields{
				"indicator": res.Indicator,
				"symbol":    res.Symbol,
			}).Warn("metrics channel full, dropping message")
		}
	}
}
