package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"marketpulse/config"
	"marketpulse/internal/metrics"
	"marketpulse/internal/model"
	"marketpulse/logger"
)

// messageWriter is the slice of kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher drains the metrics channel and writes one Kafka
// message per metrics payload, keyed by symbol so all output for a
// symbol lands in one partition.
type KafkaPublisher struct {
	metricsChan <-chan model.MetricsMessage
	writer      messageWriter
	ctx         context.Context
	wg          *sync.WaitGroup
	mu          sync.RWMutex
	running     bool
	log         *logger.Log
}

func NewKafkaPublisher(cfg config.KafkaConfig, metricsChan <-chan model.MetricsMessage) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}
	p := &KafkaPublisher{
		metricsChan: metricsChan,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: time.Duration(cfg.BatchTimeoutMs) * time.Millisecond,
		},
		wg:  &sync.WaitGroup{},
		log: logger.GetLogger(),
	}
	p.log.WithComponent("kafka_publisher").WithFields(logger.Fields{
		"brokers": cfg.Brokers,
		"topic":   cfg.Topic,
	}).Debug("kafka publisher initialized")
	return p, nil
}

func (p *KafkaPublisher) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("kafka publisher already running")
	}
	p.running = true
	p.ctx = ctx
	p.mu.Unlock()

	p.log.WithComponent("kafka_publisher").Debug("starting kafka publisher")

	p.wg.Add(1)
	go p.run()

	return nil
}

func (p *KafkaPublisher) run() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case msg, ok := <-p.metricsChan:
			if !ok {
				return
			}
			p.publish(msg)
		}
	}
}

func (p *KafkaPublisher) publish(msg model.MetricsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		p.log.WithComponent("kafka_publisher").WithError(err).Warn("failed to marshal metrics message")
		metrics.IncrementPublishError(msg.Indicator)
		return
	}
	record := kafka.Message{
		Key:   []byte(msg.Symbol),
		Value: data,
	}
	if err := p.writer.WriteMessages(p.ctx, record); err != nil {
		p.log.WithComponent("kafka_publisher").WithError(err).Warn("failed to write metrics message")
		metrics.IncrementPublishError(msg.Indicator)
		return
	}
	metrics.IncrementPublished(msg.Indicator)
	p.log.WithComponent("kafka_publisher").WithFields(logger.Fields{
		"indicator": msg.Indicator,
		"symbol":    msg.Symbol,
	}).Debug("metrics message written to kafka")
}

func (p *KafkaPublisher) Stop() {
	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	p.log.WithComponent("kafka_publisher").Debug("stopping kafka publisher")
	p.wg.Wait()
	p.writer.Close()
	p.log.WithComponent("kafka_publisher").Debug("kafka publisher stopped")
}
