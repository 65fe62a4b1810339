package publish

import (
	"context"
	"fmt"
	"sync"

	"marketpulse/internal/metrics"
	"marketpulse/internal/model"
	"marketpulse/logger"
)

// LogPublisher drains the metrics channel into the structured log. It
// stands in for the Kafka publisher when no broker is configured so
// the pipeline never backs up on an unconsumed channel.
type LogPublisher struct {
	metricsChan <-chan model.MetricsMessage
	ctx         context.Context
	wg          *sync.WaitGroup
	mu          sync.RWMutex
	running     bool
	log         *logger.Log
}

func NewLogPublisher(metricsChan <-chan model.MetricsMessage) *LogPublisher {
	return &LogPublisher{
		metricsChan: metricsChan,
		wg:          &sync.WaitGroup{},
		log:         logger.GetLogger(),
	}
}

func (p *LogPublisher) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("log publisher already running")
	}
	p.running = true
	p.ctx = ctx
	p.mu.Unlock()

	p.wg.Add(1)
	go p.run()
	return nil
}

func (p *LogPublisher) run() {
	defer p.wg.Done()
	log := p.log.WithComponent("log_publisher")

	for {
		select {
		case <-p.ctx.Done():
			return
		case msg, ok := <-p.metricsChan:
			if !ok {
				return
			}
			metrics.IncrementPublished(msg.Indicator)
			log.WithFields(logger.Fields{
				"id":        msg.ID,
				"indicator": msg.Indicator,
				"symbol":    msg.Symbol,
				"payload":   msg.Payload,
			}).Debug("metrics message")
		}
	}
}

func (p *LogPublisher) Stop() {
	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	p.wg.Wait()
}
