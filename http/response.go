package http

import (
	"strconv"

	"github.com/freekieb7/strand/hashmap"
	"github.com/valyala/bytebufferpool"
)

// Response holds what a handler may want to describe about its reply. The
// server never writes it on its own; handlers either write raw bytes through
// the request buffer or call Send.
type Response struct {
	Headers *hashmap.Map[string]

	Version string
	Status  uint16
	Message string
}

func newResponse() *Response {
	return &Response{
		Headers: hashmap.New[string](0),
	}
}

// Send writes a status line built from Version, Status and Message, the
// header store, a Content-Length unless one was set, and body through
// req.Buf, then flushes.
func (res *Response) Send(req *Request, body string) error {
	version := res.Version
	if version == "" {
		version = "HTTP/1.1"
	}
	status := res.Status
	if status == 0 {
		status = StatusOK
	}
	msg := res.Message
	if msg == "" {
		msg = StatusText(status)
	}

	bb := bytebufferpool.Get()
	defer bytebufferpool.Put(bb)

	bb.WriteString(version)
	bb.WriteByte(' ')
	bb.B = strconv.AppendUint(bb.B, uint64(status), 10)
	bb.WriteByte(' ')
	bb.WriteString(msg)
	bb.WriteString("\r\n")

	if err := res.Headers.ForEach(func(entry *hashmap.Entry[string]) {
		bb.WriteString(entry.Key)
		bb.WriteString(": ")
		bb.WriteString(entry.Value)
		bb.WriteString("\r\n")
	}); err != nil {
		return err
	}

	if _, found := res.Headers.Get("Content-Length"); !found {
		bb.WriteString("Content-Length: ")
		bb.B = strconv.AppendInt(bb.B, int64(len(body)), 10)
		bb.WriteString("\r\n")
	}

	bb.WriteString("\r\n")
	bb.WriteString(body)

	if _, err := req.Buf.Write(bb.B); err != nil {
		return err
	}
	return req.Buf.Flush()
}

func (res *Response) release() {
	res.Headers.Destroy()
	res.Version, res.Message = "", ""
	res.Status = 0
}
