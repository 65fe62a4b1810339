// Package publish contains the sinks that drain the metrics channel:
// a Kafka writer for production and a log writer for broker-less runs.
package publish

import "context"

// Publisher is the common lifecycle of the metrics sinks.
type Publisher interface {
	Start(ctx context.Context) error
	Stop()
}
