package http

import (
	"context"
	"errors"
	"io"

	"github.com/freekieb7/strand/hashmap"
	"github.com/freekieb7/strand/iobuf"
)

type Request struct {
	// ID identifies the connection in logs and spans.
	ID string

	Method  string
	Path    string
	Version string

	// Headers maps a header name to its last value. Names are case sensitive.
	Headers *hashmap.Map[string]

	// Buf is shared with the connection; handlers write the response into it.
	Buf *iobuf.Buffer

	ctx context.Context
}

func newRequest(conn io.ReadWriter, bufferSize int) (*Request, error) {
	buf, err := iobuf.New(conn, bufferSize)
	if err != nil {
		return nil, err
	}

	return &Request{
		Headers: hashmap.New[string](0),
		Buf:     buf,
	}, nil
}

// Header returns the value stored for name, matched byte for byte.
func (req *Request) Header(name string) (string, bool) {
	entry, found := req.Headers.Get(name)
	if !found {
		return "", false
	}
	return entry.Value, true
}

// Context carries the dispatch span of the request.
func (req *Request) Context() context.Context {
	if req.ctx == nil {
		return context.Background()
	}
	return req.ctx
}

// release flushes and frees the buffer, clears every header pair before the
// header store is destroyed and drops the request line fields. A failed
// flush keeps the buffer so the caller can see what was left unsent.
func (req *Request) release() error {
	var errs []error

	if req.Buf != nil {
		if err := req.Buf.Close(); err != nil {
			errs = append(errs, err)
		} else {
			req.Buf = nil
		}
	}

	if err := req.Headers.ForEach(func(entry *hashmap.Entry[string]) {
		entry.Key, entry.Value = "", ""
	}); err != nil {
		errs = append(errs, err)
	}
	req.Headers.Destroy()

	req.Method, req.Path, req.Version = "", "", ""
	req.ctx = nil

	return errors.Join(errs...)
}
