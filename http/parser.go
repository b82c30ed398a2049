package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

type parserState uint8

const (
	stateFirstLine parserState = iota
	stateHeader
	stateDone
)

// readRequest reads the request line and the header block from req.Buf one
// byte at a time. Nothing past the empty line ending the headers is read.
func readRequest(req *Request, line *lineBuffer) error {
	state := stateFirstLine
	received := false

	for state != stateDone {
		c, err := req.Buf.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if received {
					return io.ErrUnexpectedEOF
				}
				return io.EOF
			}
			return err
		}
		received = true

		if err := line.append(c); err != nil {
			return err
		}
		if c != '\n' {
			continue
		}

		switch state {
		case stateFirstLine:
			if err := parseRequestLine(req, line.bytes()); err != nil {
				return err
			}
			state = stateHeader
		case stateHeader:
			b := line.bytes()
			if b[0] == '\r' {
				state = stateDone
				break
			}
			if err := parseHeaderLine(req, b); err != nil {
				return err
			}
		}
		line.reset()
	}

	return nil
}

func trimEOL(b []byte) []byte {
	b = bytes.TrimSuffix(b, []byte{'\n'})
	return bytes.TrimSuffix(b, []byte{'\r'})
}

// parseRequestLine expects METHOD SP PATH SP VERSION, each field non-empty.
// A fourth field is rejected rather than folded into the version.
func parseRequestLine(req *Request, b []byte) error {
	if b[0] == '\r' {
		return fmt.Errorf("%w: empty request line", ErrMalformedRequest)
	}

	b = trimEOL(b)
	if i := bytes.IndexByte(b, '\r'); i >= 0 {
		b = b[:i]
	}

	method, rest, ok := bytes.Cut(b, []byte{' '})
	if !ok || len(method) == 0 {
		return fmt.Errorf("%w: %q", ErrMalformedRequest, b)
	}
	path, version, ok := bytes.Cut(rest, []byte{' '})
	if !ok || len(path) == 0 || len(version) == 0 || bytes.IndexByte(version, ' ') >= 0 {
		return fmt.Errorf("%w: %q", ErrMalformedRequest, b)
	}

	req.Method = string(method)
	req.Path = string(path)
	req.Version = string(version)
	return nil
}

// parseHeaderLine splits NAME ':' SP VALUE. The byte after the colon is
// skipped whatever it is, and a later header with the same name replaces the
// earlier value.
func parseHeaderLine(req *Request, b []byte) error {
	name, rest, ok := bytes.Cut(b, []byte{':'})
	if !ok {
		return fmt.Errorf("%w: %q", ErrMalformedHeader, trimEOL(b))
	}

	rest = trimEOL(rest)
	if len(rest) == 0 {
		return fmt.Errorf("%w: no value for %q", ErrMalformedHeader, name)
	}

	value := rest[1:]
	if i := bytes.IndexByte(value, '\r'); i >= 0 {
		value = value[:i]
	}

	if _, _, err := req.Headers.Set(string(name), string(value)); err != nil {
		return fmt.Errorf("http: store header: %w", err)
	}
	return nil
}
