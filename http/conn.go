package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
)

const connIDKey = attribute.Key("strand.connection.id")

// exchange is everything one connection owns while its request is served.
type exchange struct {
	req  *Request
	res  *Response
	line *lineBuffer
}

func (s *Server) newExchange(conn net.Conn, id string) (*exchange, error) {
	req, err := newRequest(conn, s.bufferSize)
	if err != nil {
		return nil, fmt.Errorf("http: connection setup: %w", err)
	}
	req.ID = id

	return &exchange{
		req:  req,
		res:  newResponse(),
		line: newLineBuffer(s.maxLineSize),
	}, nil
}

// teardown releases the request (final flush included), then the response
// and the line buffer. It runs once per connection whatever the outcome.
func (ex *exchange) teardown() error {
	err := ex.req.release()
	ex.res.release()
	ex.line.release()
	if err != nil {
		return fmt.Errorf("http: teardown: %w", err)
	}
	return nil
}

// ServeConn reads one request from conn, runs the handler registered for its
// path and releases everything the connection owned. conn is left open.
//
// A request for an unregistered path writes nothing and returns
// ErrHandlerNotFound. Every call is logged and counted, including one whose
// buffers could not be set up.
func (s *Server) ServeConn(ctx context.Context, conn net.Conn) (err error) {
	id := uuid.NewString()
	ex, err := s.newExchange(conn, id)
	if err != nil {
		s.report(ctx, id, err)
		return err
	}

	// A panicking handler still gets its connection torn down; the panic
	// itself is reported by whoever recovers it.
	completed := false
	defer func() {
		if terr := ex.teardown(); terr != nil {
			err = errors.Join(err, terr)
		}
		if completed {
			s.report(ctx, id, err)
		}
	}()

	err = s.serveExchange(ctx, conn, ex)
	completed = true
	return err
}

func (s *Server) serveExchange(ctx context.Context, conn net.Conn, ex *exchange) error {
	if s.readTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
			return fmt.Errorf("http: set read deadline: %w", err)
		}
	}

	if err := readRequest(ex.req, ex.line); err != nil {
		return err
	}

	entry, found := s.routes.Get(ex.req.Path)
	if !found {
		return fmt.Errorf("%w: %q", ErrHandlerNotFound, ex.req.Path)
	}

	if s.writeTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
			return fmt.Errorf("http: set write deadline: %w", err)
		}
	}

	s.dispatch(ctx, conn, ex, entry.Value)
	return nil
}

func (s *Server) dispatch(ctx context.Context, conn net.Conn, ex *exchange, route *Route) {
	req := ex.req

	ctx = s.propagator.Extract(ctx, headerCarrier{headers: req.Headers})
	ctx, span := s.tracer.Start(ctx, req.Method+" "+route.Path,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			semconv.HTTPRequestMethodKey.String(req.Method),
			semconv.URLPath(req.Path),
			semconv.HTTPRoute(route.Path),
			semconv.NetworkProtocolVersion(strings.TrimPrefix(req.Version, "HTTP/")),
			semconv.ClientAddress(conn.RemoteAddr().String()),
			connIDKey.String(req.ID),
		),
	)
	defer span.End()

	req.ctx = ctx

	start := time.Now()
	route.Handler(req, ex.res)
	s.instruments.handlerDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(semconv.HTTPRoute(route.Path)),
	)
}

func (s *Server) report(ctx context.Context, id string, err error) {
	result := outcome(err)
	s.instruments.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", result)))

	attrs := []slog.Attr{
		slog.String("conn", id),
		slog.String("outcome", result),
	}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}

	level := slog.LevelError
	switch result {
	case "dispatched", "empty":
		level = slog.LevelDebug
	case "not_found":
		level = slog.LevelInfo
	case "malformed", "incomplete":
		level = slog.LevelWarn
	}
	s.logger.LogAttrs(ctx, level, "request served", attrs...)
}
