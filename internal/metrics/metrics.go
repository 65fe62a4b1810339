// Registers:
//
//	#marketpulse_events_processed_total
//	#marketpulse_events_rejected_total
//	#marketpulse_metrics_published_total
//	#marketpulse_publish_errors_total
//	#marketpulse_channel_occupancy
//	#go_* and process_* system metrics
//
// Exposes them over the Prometheus HTTP handler on the configured address.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once             sync.Once
	eventsProcessed  *prometheus.CounterVec
	eventsRejected   *prometheus.CounterVec
	metricsPublished *prometheus.CounterVec
	publishErrors    *prometheus.CounterVec
	channelOccupancy *prometheus.GaugeVec
)

// Init registers the collectors and, when addr is non-empty, serves the
// Prometheus handler on it. Safe to call more than once.
func Init(addr string) {
	once.Do(func() {
		eventsProcessed = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_events_processed_total",
				Help: "Number of market events that produced indicator output",
			},
			[]string{"indicator", "symbol"},
		)

		eventsRejected = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_events_rejected_total",
				Help: "Number of market events rejected by input validation",
			},
			[]string{"kind"},
		)

		metricsPublished = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_metrics_published_total",
				Help: "Number of metrics messages handed to the publisher sink",
			},
			[]string{"indicator"},
		)

		publishErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_publish_errors_total",
				Help: "Number of failed publish attempts",
			},
			[]string{"indicator"},
		)

		channelOccupancy = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketpulse_channel_occupancy",
				Help: "Current length of the internal channel buffers",
			},
			[]string{"buffer"},
		)

		_ = prometheus.Register(eventsProcessed)
		_ = prometheus.Register(eventsRejected)
		_ = prometheus.Register(metricsPublished)
		_ = prometheus.Register(publishErrors)
		_ = prometheus.Register(channelOccupancy)
		_ = prometheus.Register(collectors.NewGoCollector())
		_ = prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		if addr != "" {
			go func() {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				if err := http.ListenAndServe(addr, mux); err != nil {
					panic("metrics server failed: " + err.Error())
				}
			}()
		}
	})
}

// IncrementProcessed increases the processed counter for one indicator result.
func IncrementProcessed(indicator, symbol string) {
	if eventsProcessed != nil {
		eventsProcessed.WithLabelValues(indicator, symbol).Inc()
	}
}

// IncrementRejected increases the rejected counter for an event kind.
func IncrementRejected(kind string) {
	if eventsRejected != nil {
		eventsRejected.WithLabelValues(kind).Inc()
	}
}

// IncrementPublished increases the published counter for an indicator.
func IncrementPublished(indicator string) {
	if metricsPublished != nil {
		metricsPublished.WithLabelValues(indicator).Inc()
	}
}

// IncrementPublishError increases the publish error counter for an indicator.
func IncrementPublishError(indicator string) {
	if publishErrors != nil {
		publishErrors.WithLabelValues(indicator).Inc()
	}
}

// SetChannelOccupancy records the current length of one channel buffer.
func SetChannelOccupancy(buffer string, length int) {
	if channelOccupancy != nil {
		channelOccupancy.WithLabelValues(buffer).Set(float64(length))
	}
}
