// Package iobuf provides a fixed size double buffer over a connection. Bytes
// are read and written one at a time; the underlying descriptor is only
// touched to refill an exhausted input buffer or to flush a full output one.
package iobuf

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var ErrInvalid = errors.New("iobuf: invalid buffer")

type Buffer struct {
	rw   io.ReadWriter
	size int

	in   []byte
	rpos int // next byte to hand out
	rend int // one past the last valid byte

	out  []byte
	wpos int
}

// New creates a Buffer bound to rw with input and output buffers of size
// bytes each. A size of zero selects the memory page size.
func New(rw io.ReadWriter, size int) (*Buffer, error) {
	if rw == nil || size < 0 {
		return nil, ErrInvalid
	}
	if size == 0 {
		size = os.Getpagesize()
	}

	return &Buffer{
		rw:   rw,
		size: size,
		in:   make([]byte, size),
		out:  make([]byte, size),
	}, nil
}

func (b *Buffer) check() error {
	switch {
	case b == nil, b.rw == nil, b.size <= 0:
		return ErrInvalid
	case len(b.in) != b.size, len(b.out) != b.size:
		return ErrInvalid
	case b.rpos < 0, b.rpos > b.rend, b.rend > b.size:
		return ErrInvalid
	case b.wpos < 0, b.wpos > b.size:
		return ErrInvalid
	}
	return nil
}

// Size returns the capacity of each of the two buffers.
func (b *Buffer) Size() int {
	return b.size
}

// Buffered returns the number of bytes waiting to be flushed.
func (b *Buffer) Buffered() int {
	return b.wpos
}

// ReadByte returns the next input byte, refilling the input buffer with a
// single Read when it is exhausted. It returns io.EOF when the peer has
// closed the stream.
func (b *Buffer) ReadByte() (byte, error) {
	if err := b.check(); err != nil {
		return 0, err
	}

	if b.rpos < b.rend {
		c := b.in[b.rpos]
		b.rpos++
		return c, nil
	}

	n, err := b.rw.Read(b.in)
	if n <= 0 {
		if err == nil || errors.Is(err, io.EOF) {
			return 0, io.EOF
		}
		return 0, fmt.Errorf("iobuf: read: %w", err)
	}

	b.rpos, b.rend = 1, n
	return b.in[0], nil
}

// WriteByte buffers c, flushing first when the output buffer is full.
func (b *Buffer) WriteByte(c byte) error {
	if err := b.check(); err != nil {
		return err
	}

	if b.wpos == b.size {
		if err := b.Flush(); err != nil {
			return err
		}
	}

	b.out[b.wpos] = c
	b.wpos++
	return nil
}

func (b *Buffer) Write(p []byte) (int, error) {
	for i, c := range p {
		if err := b.WriteByte(c); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

func (b *Buffer) WriteString(s string) (int, error) {
	for i := 0; i < len(s); i++ {
		if err := b.WriteByte(s[i]); err != nil {
			return i, err
		}
	}
	return len(s), nil
}

// Flush writes the buffered output with exactly one Write. A short write is
// an error and is not resumed; the buffered bytes are kept in that case.
func (b *Buffer) Flush() error {
	if err := b.check(); err != nil {
		return err
	}

	if b.wpos == 0 {
		return nil
	}

	n, err := b.rw.Write(b.out[:b.wpos])
	if err != nil {
		return fmt.Errorf("iobuf: write: %w", err)
	}
	if n != b.wpos {
		return io.ErrShortWrite
	}

	b.wpos = 0
	return nil
}

// Close flushes pending output and releases both buffers. When the flush
// fails the Buffer is left untouched and the error is returned. The
// underlying connection is not closed.
func (b *Buffer) Close() error {
	if err := b.Flush(); err != nil {
		return err
	}

	b.in, b.out = nil, nil
	b.rpos, b.rend, b.wpos = 0, 0, 0
	b.rw = nil
	return nil
}
