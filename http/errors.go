package http

import (
	"errors"
	"io"
)

var (
	ErrMalformedRequest = errors.New("http: malformed request line")
	ErrMalformedHeader  = errors.New("http: malformed header line")
	ErrLineTooLong      = errors.New("http: line too long")
	ErrHandlerNotFound  = errors.New("http: no handler for resource")

	ErrNilHandler    = errors.New("http: nil handler")
	ErrServerStarted = errors.New("http: handlers must be registered before serving")
	ErrServerClosed  = errors.New("http: server closed")
	ErrNoSocket      = errors.New("http: server has no bound socket")
)

// outcome names the way a connection ended, for logs and metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return "dispatched"
	case errors.Is(err, ErrHandlerNotFound):
		return "not_found"
	case errors.Is(err, ErrMalformedRequest),
		errors.Is(err, ErrMalformedHeader),
		errors.Is(err, ErrLineTooLong):
		return "malformed"
	case errors.Is(err, io.EOF):
		return "empty"
	case errors.Is(err, io.ErrUnexpectedEOF):
		return "incomplete"
	default:
		return "error"
	}
}
