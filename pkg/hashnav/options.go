package hashnav

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// config holds engine construction settings.
type config struct {
	marker string
	logger *slog.Logger
	tracer trace.Tracer
}

// Option configures an Engine at construction.
type Option func(*config)

// WithMarker sets the routing marker that distinguishes route addresses
// from native anchors. Default: route.DefaultMarker ("!").
func WithMarker(marker string) Option {
	return func(c *config) {
		c.marker = marker
	}
}

// WithLogger sets the logger used for guard vetoes and recovered observer
// panics. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTracer enables one trace span per navigation cycle, with the
// candidate path and outcome recorded as attributes. Default: no tracing.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *config) {
		c.tracer = tracer
	}
}
