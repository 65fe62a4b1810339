package feed

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"marketpulse/config"
	"marketpulse/internal/channel"
	"marketpulse/internal/model"
	"marketpulse/logger"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// Feed subscribes to the upstream market-data websocket and forwards
// decoded events into the channel bundle. If the connection drops it is
// re-established automatically until the context is cancelled. Dial
// attempts across backoff cycles are rate limited so a flapping
// upstream cannot turn the feed into a dial loop.
type Feed struct {
	cfg      config.FeedConfig
	channels *channel.Channels
	ctx      context.Context
	wg       *sync.WaitGroup
	mu       sync.RWMutex
	running  bool
	limiter  *rate.Limiter
	log      *logger.Log
}

func NewFeed(cfg config.FeedConfig, ch *channel.Channels) *Feed {
	perMinute := cfg.Retry.ReconnectsPerMinute
	if perMinute <= 0 {
		perMinute = 30
	}
	return &Feed{
		cfg:      cfg,
		channels: ch,
		wg:       &sync.WaitGroup{},
		limiter:  rate.NewLimiter(rate.Limit(perMinute)/60, 1),
		log:      logger.GetLogger(),
	}
}

// Start launches the stream goroutine. It returns an error if the feed
// is already running or disabled.
func (f *Feed) Start(ctx context.Context) error {
	log := f.log.WithComponent("feed")
	if !f.cfg.Enabled {
		log.Warn("feed is disabled")
		return fmt.Errorf("feed is disabled")
	}

	f.mu.Lock()
	if f.running {
		f.mu.Unlock()
		return fmt.Errorf("feed already running")
	}
	f.running = true
	f.ctx = ctx
	f.mu.Unlock()

	log.WithFields(logger.Fields{"url": f.cfg.URL, "symbols": f.cfg.Symbols}).Info("starting feed")
	f.wg.Add(1)
	go f.stream()
	return nil
}

// Stop waits for the stream goroutine to exit. The caller cancels the
// context passed to Start first.
func (f *Feed) Stop() {
	f.mu.Lock()
	f.running = false
	f.mu.Unlock()
	f.log.WithComponent("feed").Info("stopping feed")
	f.wg.Wait()
	f.log.WithComponent("feed").Info("feed stopped")
}

// stream handles websocket lifecycle, reconnection and dispatch.
func (f *Feed) stream() {
	defer f.wg.Done()
	log := f.log.WithComponent("feed").WithFields(logger.Fields{"url": f.cfg.URL})

	attempt := 0
	for {
		if f.ctx.Err() != nil {
			return
		}
		if err := f.limiter.Wait(f.ctx); err != nil {
			return
		}

		conn, err := f.dial()
		if err != nil {
			attempt++
			delay := f.retryDelay(attempt)
			log.WithError(err).WithFields(logger.Fields{"attempt": attempt, "delay": delay.String()}).Warn("failed to connect websocket, retrying")
			select {
			case <-time.After(delay):
				continue
			case <-f.ctx.Done():
				return
			}
		}
		attempt = 0

		if err := f.subscribe(conn); err != nil {
			log.WithError(err).Warn("failed to subscribe")
			conn.Close()
			continue
		}
		log.Info("websocket connected and subscribed")

		f.readLoop(conn)
		conn.Close()
		if f.ctx.Err() != nil {
			return
		}
		log.Warn("websocket closed, reconnecting")
	}
}

func (f *Feed) dial() (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: time.Duration(f.cfg.HandshakeTimeoutMs) * time.Millisecond,
	}
	conn, _, err := dialer.DialContext(f.ctx, f.cfg.URL, nil)
	if err != nil {
		return nil, err
	}
	if f.cfg.ReadLimitBytes > 0 {
		conn.SetReadLimit(f.cfg.ReadLimitBytes)
	}
	return conn, nil
}

func (f *Feed) subscribe(conn *websocket.Conn) error {
	sub := map[string]interface{}{
		"op":      "subscribe",
		"symbols": f.cfg.Symbols,
	}
	return conn.WriteJSON(sub)
}

// readLoop reads frames until the connection fails or the context is
// cancelled, dispatching decoded events into the channels.
func (f *Feed) readLoop(conn *websocket.Conn) {
	log := f.log.WithComponent("feed")

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-f.ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if f.ctx.Err() == nil {
				log.WithError(err).Warn("websocket read error")
			}
			return
		}

		evt, err := parseEvent(msg)
		if err != nil {
			log.WithError(err).Debug("skipping undecodable message")
			continue
		}
		if evt == nil {
			continue
		}
		f.dispatch(evt)
	}
}

func (f *Feed) dispatch(evt *Event) {
	log := f.log.WithComponent("feed")
	switch evt.Kind {
	case model.EventTrade:
		if !f.channels.SendTrade(f.ctx, evt.Trade) && f.ctx.Err() == nil {
			log.WithFields(logger.Fields{"symbol": evt.Trade.Symbol}).Warn("trade channel full, dropping message")
		}
	case model.EventBook:
		if !f.channels.SendBook(f.ctx, evt.Book) && f.ctx.Err() == nil {
			log.WithFields(logger.Fields{"symbol": evt.Book.Symbol}).Warn("book channel full, dropping message")
		}
	case model.EventBar:
		if !f.channels.SendBar(f.ctx, evt.Bar) && f.ctx.Err() == nil {
			log.WithFields(logger.Fields{"symbol": evt.Bar.Symbol}).Warn("bar channel full, dropping message")
		}
	}
}

// retryDelay grows exponentially from the configured base to the
// configured cap.
func (f *Feed) retryDelay(attempt int) time.Duration {
	base := time.Duration(f.cfg.Retry.BaseDelayMs) * time.Millisecond
	if base <= 0 {
		base = 250 * time.Millisecond
	}
	max := time.Duration(f.cfg.Retry.MaxDelayMs) * time.Millisecond
	if max <= 0 {
		max = 15 * time.Second
	}

	delay := float64(base) * math.Pow(2, float64(attempt-1))
	if delay > float64(max) || delay < 0 {
		return max
	}
	return time.Duration(delay)
}
