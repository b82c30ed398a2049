package http

import "github.com/valyala/bytebufferpool"

var linePool bytebufferpool.Pool

// lineBuffer collects one request line, terminator included.
type lineBuffer struct {
	buf   *bytebufferpool.ByteBuffer
	limit int
}

func newLineBuffer(limit int) *lineBuffer {
	if limit <= 0 {
		limit = DefaultMaxLineSize
	}
	return &lineBuffer{
		buf:   linePool.Get(),
		limit: limit,
	}
}

func (l *lineBuffer) append(c byte) error {
	if l.buf.Len() >= l.limit {
		return ErrLineTooLong
	}
	return l.buf.WriteByte(c)
}

func (l *lineBuffer) reset() {
	l.buf.Reset()
}

// bytes is only valid until the next append or reset.
func (l *lineBuffer) bytes() []byte {
	return l.buf.B
}

func (l *lineBuffer) release() {
	if l.buf == nil {
		return
	}
	linePool.Put(l.buf)
	l.buf = nil
}
