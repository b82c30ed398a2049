package http

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Server) {
		s.tracer = tp.Tracer(instrumentationName)
	}
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Server) {
		s.meter = mp.Meter(instrumentationName)
	}
}

func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(s *Server) {
		s.propagator = p
	}
}

// WithBufferSize sets the size of each connection's input and output buffer.
// Zero means the page size.
func WithBufferSize(size int) Option {
	return func(s *Server) {
		s.bufferSize = size
	}
}

func WithMaxLineSize(size int) Option {
	return func(s *Server) {
		s.maxLineSize = size
	}
}

func WithReadTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.readTimeout = d
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.writeTimeout = d
	}
}
