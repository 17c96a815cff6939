// Package telemetry sets up the logger and the metrics client of a service.
package telemetry

import (
	"io"
	"os"
	"strings"
	"time"

	ddstatsd "github.com/DataDog/datadog-go/v5/statsd"
	"github.com/argus-labs/roseshard/pkg/assert"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

type Telemetry struct {
	Logger      zerolog.Logger
	Statsd      ddstatsd.ClientInterface
	serviceName string
}

// New builds the telemetry of a service from the environment, overridden by the non-zero fields of
// opts.
func New(opts Options) (Telemetry, error) {
	config, err := loadConfig()
	if err != nil {
		return Telemetry{}, eris.Wrap(err, "failed to load telemetry config")
	}

	options := newDefaultOptions()
	config.applyToOptions(&options)
	options.apply(opts)
	if err := options.validate(); err != nil {
		return Telemetry{}, eris.Wrap(err, "invalid telemetry options")
	}

	client, err := newStatsd(options)
	if err != nil {
		return Telemetry{}, eris.Wrap(err, "failed to setup statsd")
	}

	return Telemetry{
		Logger:      newLogger(options, os.Stdout),
		Statsd:      client,
		serviceName: options.ServiceName,
	}, nil
}

// Shutdown flushes and closes the metrics client.
func (t *Telemetry) Shutdown() error {
	if t.Statsd == nil {
		return nil
	}
	return t.Statsd.Close()
}

// GetLogger returns a component-specific logger.
func (t *Telemetry) GetLogger(component string) zerolog.Logger {
	return t.Logger.With().Str("component", t.serviceName+"."+component).Logger()
}

// newLogger creates a logger with the specified format.
func newLogger(opts Options, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(opts.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var writer io.Writer
	switch opts.LogFormat {
	case LogFormatPretty:
		writer = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	case LogFormatJSON:
		writer = out
	case LogFormatUndefined:
		assert.That(false, "log format must be validated before building the logger")
		writer = out
	}

	return zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()
}

// newStatsd returns a client sending to the configured agent, or a no-op client when no address is
// set.
func newStatsd(opts Options) (ddstatsd.ClientInterface, error) {
	if opts.StatsdAddress == "" {
		return &ddstatsd.NoOpClient{}, nil
	}

	ddOpts := []ddstatsd.Option{
		// The statsd namespace is the prefix of all metrics
		ddstatsd.WithNamespace(opts.ServiceName),
	}
	if len(opts.StatsdTags) > 0 {
		ddOpts = append(ddOpts, ddstatsd.WithTags(opts.StatsdTags))
	}

	client, err := ddstatsd.New(opts.StatsdAddress, ddOpts...)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to create statsd client for %s", opts.StatsdAddress)
	}
	return client, nil
}
