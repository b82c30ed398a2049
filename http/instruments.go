package http

import (
	"go.opentelemetry.io/otel/metric"
)

type instruments struct {
	connections       metric.Int64Counter
	activeConnections metric.Int64UpDownCounter
	requests          metric.Int64Counter
	handlerDuration   metric.Float64Histogram
}

func newInstruments(meter metric.Meter) (*instruments, error) {
	connections, err := meter.Int64Counter("http.server.connections",
		metric.WithDescription("Accepted connections."),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return nil, err
	}

	activeConnections, err := meter.Int64UpDownCounter("http.server.active_connections",
		metric.WithDescription("Connections currently being served."),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return nil, err
	}

	requests, err := meter.Int64Counter("http.server.requests",
		metric.WithDescription("Connections by outcome of their request."),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	handlerDuration, err := meter.Float64Histogram("http.server.handler.duration",
		metric.WithDescription("Time spent in the handler."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &instruments{
		connections:       connections,
		activeConnections: activeConnections,
		requests:          requests,
		handlerDuration:   handlerDuration,
	}, nil
}
