package engine

import (
	ddstatsd "github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rs/zerolog"
)

// DefaultNearbyDistance is the proximity threshold in game units used to scope broadcasts.
const DefaultNearbyDistance = 10000

// Option configures a World.
type Option func(*World)

// WithLogger sets the logger of the world and its systems. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(w *World) {
		w.logger = logger.With().Str("component", "engine").Logger()
	}
}

// WithStatsd sets the client tick timings are emitted to. The default is a no-op client.
func WithStatsd(client ddstatsd.ClientInterface) Option {
	return func(w *World) {
		if client != nil {
			w.statsd = client
		}
	}
}

// WithNearbyDistance overrides DefaultNearbyDistance.
func WithNearbyDistance(distance float32) Option {
	return func(w *World) {
		w.nearby = distance
	}
}

// WithInboxCapacity sets the starting capacity of the inbox. Non-positive values keep
// DefaultInboxCapacity.
func WithInboxCapacity(capacity int) Option {
	return func(w *World) {
		if capacity > 0 {
			w.inboxCap = capacity
		}
	}
}
