package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/freekieb7/strand/hashmap"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultRouteCapacity = 16

	maxAcceptDelay = time.Second
)

// Socket is a bound endpoint that can be turned into a listener once.
type Socket interface {
	Listen(backlog int) (net.Listener, error)
	Close() error
}

type Server struct {
	Name string

	sock   Socket
	routes *hashmap.Map[*Route]

	serving atomic.Bool
	conns   sync.WaitGroup

	logger      *slog.Logger
	tracer      trace.Tracer
	meter       metric.Meter
	propagator  propagation.TextMapPropagator
	instruments *instruments

	bufferSize   int
	maxLineSize  int
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewServer builds a server around an already bound socket. sock may be nil
// when connections are only fed through Serve or ServeConn.
func NewServer(name string, sock Socket, opts ...Option) *Server {
	s := &Server{
		Name:        name,
		sock:        sock,
		routes:      hashmap.New[*Route](DefaultRouteCapacity),
		logger:      otelslog.NewLogger(instrumentationName),
		tracer:      otel.Tracer(instrumentationName),
		meter:       otel.Meter(instrumentationName),
		propagator:  otel.GetTextMapPropagator(),
		maxLineSize: DefaultMaxLineSize,
	}

	for _, opt := range opts {
		opt(s)
	}

	inst, err := newInstruments(s.meter)
	if err != nil {
		s.logger.Error("metric instruments unavailable", slog.Any("error", err))
		inst, _ = newInstruments(noop.NewMeterProvider().Meter(instrumentationName))
	}
	s.instruments = inst

	return s
}

// Handle registers handler for the exact resource path. Middleware wraps the
// handler in the given order, so the last one runs first. Registering a path
// again replaces its handler. Registration is closed once serving started.
func (s *Server) Handle(path string, handler Handler, middleware ...Middleware) error {
	if s.serving.Load() {
		return ErrServerStarted
	}
	if handler == nil {
		return ErrNilHandler
	}

	for _, mw := range middleware {
		handler = mw(handler)
	}

	if _, _, err := s.routes.Set(path, &Route{Path: path, Handler: handler}); err != nil {
		return fmt.Errorf("http: register %q: %w", path, err)
	}
	return nil
}

// ListenAndServe starts listening on the bound socket with the given backlog
// and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, backlog int) error {
	if s.sock == nil {
		return ErrNoSocket
	}

	ln, err := s.sock.Listen(backlog)
	if err != nil {
		return fmt.Errorf("http: listen: %w", err)
	}

	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln and serves each on its own goroutine. When
// ctx is done or ln is closed it waits for the running connections and
// returns ErrServerClosed.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.serving.Store(true)

	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
	})
	defer stop()

	s.logger.InfoContext(ctx, "serving",
		slog.String("server", s.Name),
		slog.String("addr", ln.Addr().String()),
	)

	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.conns.Wait()
				return ErrServerClosed
			}

			if delay == 0 {
				delay = 5 * time.Millisecond
			} else {
				delay = min(2*delay, maxAcceptDelay)
			}
			s.logger.ErrorContext(ctx, "accept failed",
				slog.Any("error", err),
				slog.Duration("retry", delay),
			)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
			}
			continue
		}
		delay = 0

		s.conns.Add(1)
		go s.handle(ctx, conn)
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer s.conns.Done()

	s.instruments.connections.Add(ctx, 1)
	s.instruments.activeConnections.Add(ctx, 1)
	defer s.instruments.activeConnections.Add(context.WithoutCancel(ctx), -1)

	remote := conn.RemoteAddr().String()
	s.logger.DebugContext(ctx, "connection accepted", slog.String("remote", remote))

	defer func() {
		if err := conn.Close(); err != nil {
			s.logger.DebugContext(ctx, "close connection", slog.String("remote", remote), slog.Any("error", err))
		}
		s.logger.DebugContext(ctx, "connection closed", slog.String("remote", remote))
	}()

	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "connection panicked",
				slog.String("remote", remote),
				slog.Any("panic", r),
			)
		}
	}()

	// Unblock a pending read on shutdown.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	_ = s.ServeConn(ctx, conn)
}

// Close releases the handler registry and the bound socket.
func (s *Server) Close() error {
	var errs []error

	err := s.routes.ForEach(func(entry *hashmap.Entry[*Route]) {
		entry.Value.Handler = nil
		entry.Value = nil
	})
	if err != nil && !errors.Is(err, hashmap.ErrInvalid) {
		errs = append(errs, err)
	}
	s.routes.Destroy()

	if s.sock != nil {
		if err := s.sock.Close(); err != nil {
			errs = append(errs, fmt.Errorf("http: close socket: %w", err))
		}
		s.sock = nil
	}

	return errors.Join(errs...)
}
