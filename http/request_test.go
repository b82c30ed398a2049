package http

import (
	"io"
	"strings"
	"testing"

	"github.com/freekieb7/strand/hashmap"
	"github.com/freekieb7/strand/test"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, maxLine int, conn *test.Conn) (*Request, error) {
	t.Helper()

	req, err := newRequest(conn, 0)
	require.NoError(t, err)

	line := newLineBuffer(maxLine)
	t.Cleanup(line.release)

	return req, readRequest(req, line)
}

func TestRequestParse(t *testing.T) {
	req, err := parse(t, 0, test.NewConn("GET / HTTP/1.1\r\nHost: localhost\r\n\r\n"))
	require.NoError(t, err)

	require.Equal(t, "GET", req.Method)
	require.Equal(t, "/", req.Path)
	require.Equal(t, "HTTP/1.1", req.Version)
	require.Equal(t, 1, req.Headers.Len())

	host, found := req.Header("Host")
	require.True(t, found)
	require.Equal(t, "localhost", host)
}

func TestRequestParseAcrossRefills(t *testing.T) {
	msg := "POST /login HTTP/1.0\r\nAccept: text/css\r\nX-Id: 42\r\n\r\n"

	var chunks []string
	for i := range len(msg) {
		chunks = append(chunks, msg[i:i+1])
	}

	t.Run("byte per read", func(t *testing.T) {
		req, err := parse(t, 0, test.NewConn(chunks...))
		require.NoError(t, err)
		require.Equal(t, "POST", req.Method)
		require.Equal(t, "/login", req.Path)
		require.Equal(t, "HTTP/1.0", req.Version)
		require.Equal(t, 2, req.Headers.Len())
	})

	t.Run("split inside terminator", func(t *testing.T) {
		req, err := parse(t, 0, test.NewConn("POST /login HTTP/1.0\r", "\nAccept: text/css\r\nX-Id: 42\r\n\r", "\n"))
		require.NoError(t, err)

		id, found := req.Header("X-Id")
		require.True(t, found)
		require.Equal(t, "42", id)
	})
}

func TestRequestLineMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "empty first line", in: "\r\n"},
		{name: "two fields", in: "GET /\r\n\r\n"},
		{name: "one field", in: "GET\r\n\r\n"},
		{name: "empty path", in: "GET  HTTP/1.1\r\n\r\n"},
		{name: "leading space", in: " / HTTP/1.1\r\n\r\n"},
		{name: "trailing space", in: "GET / \r\n\r\n"},
		{name: "four fields", in: "GET / HTTP/1.1 extra\r\n\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(t, 0, test.NewConn(tt.in))
			require.ErrorIs(t, err, ErrMalformedRequest)
		})
	}
}

func TestRequestLineBareLF(t *testing.T) {
	req, err := parse(t, 0, test.NewConn("GET /x HTTP/1.1\n\r\n"))
	require.NoError(t, err)
	require.Equal(t, "HTTP/1.1", req.Version)
	require.Equal(t, 0, req.Headers.Len())
}

func TestHeaderLine(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		key   string
		value string
		err   error
	}{
		{name: "no colon", line: "X-Broken\r\n", err: ErrMalformedHeader},
		{name: "nothing after colon", line: "Host:\r\n", err: ErrMalformedHeader},
		{name: "bare LF line", line: "\n", err: ErrMalformedHeader},
		{name: "empty value", line: "Host: \r\n", key: "Host", value: ""},
		{name: "first byte skipped", line: "Host:xy\r\n", key: "Host", value: "y"},
		{name: "colon in value", line: "Referer: http://a:1/\r\n", key: "Referer", value: "http://a:1/"},
		{name: "spaces kept", line: "X-Pad:   v  \r\n", key: "X-Pad", value: "  v  "},
		{name: "value cut at CR", line: "X-Cut: a\rb\r\n", key: "X-Cut", value: "a"},
		{name: "LF terminated", line: "Accept: */*\n", key: "Accept", value: "*/*"},
		{name: "empty name", line: ": v\r\n", key: "", value: "v"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := parse(t, 0, test.NewConn("GET / HTTP/1.1\r\n"+tt.line+"\r\n"))
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)

			value, found := req.Header(tt.key)
			require.True(t, found)
			require.Equal(t, tt.value, value)
		})
	}
}

func TestHeaderDuplicateOverwrites(t *testing.T) {
	req, err := parse(t, 0, test.NewConn("GET / HTTP/1.1\r\nAccept: a\r\nAccept: b\r\n\r\n"))
	require.NoError(t, err)
	require.Equal(t, 1, req.Headers.Len())

	value, _ := req.Header("Accept")
	require.Equal(t, "b", value)
}

func TestHeaderNamesAreCaseSensitive(t *testing.T) {
	req, err := parse(t, 0, test.NewConn("GET / HTTP/1.1\r\nHost: localhost\r\n\r\n"))
	require.NoError(t, err)

	_, found := req.Header("host")
	require.False(t, found)
}

func TestRequestManyHeadersGrowStore(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("GET / HTTP/1.1\r\n")
	for _, name := range []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"} {
		sb.WriteString("X-" + name + ": " + name + "\r\n")
	}
	sb.WriteString("\r\n")

	req, err := parse(t, 0, test.NewConn(sb.String()))
	require.NoError(t, err)
	require.Equal(t, 10, req.Headers.Len())

	value, found := req.Header("X-J")
	require.True(t, found)
	require.Equal(t, "J", value)
}

func TestRequestEndOfStream(t *testing.T) {
	t.Run("nothing received", func(t *testing.T) {
		_, err := parse(t, 0, test.NewConn())
		require.ErrorIs(t, err, io.EOF)
	})

	t.Run("inside request line", func(t *testing.T) {
		_, err := parse(t, 0, test.NewConn("GET / HTT"))
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("inside headers", func(t *testing.T) {
		_, err := parse(t, 0, test.NewConn("GET / HTTP/1.1\r\nHost: a\r\n"))
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})
}

func TestRequestReadError(t *testing.T) {
	conn := test.NewConn("GET / HTTP/1.1\r\n")
	conn.ReadErr = test.ErrInjected

	_, err := parse(t, 0, conn)
	require.ErrorIs(t, err, test.ErrInjected)
	require.NotErrorIs(t, err, io.EOF)
}

func TestRequestLineTooLong(t *testing.T) {
	_, err := parse(t, 16, test.NewConn("GET /"+strings.Repeat("a", 32)+" HTTP/1.1\r\n\r\n"))
	require.ErrorIs(t, err, ErrLineTooLong)
}

func TestRequestBodyIsNotRead(t *testing.T) {
	req, err := parse(t, 0, test.NewConn("POST / HTTP/1.1\r\n\r\nBODY"))
	require.NoError(t, err)

	c, err := req.Buf.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte('B'), c)
}

func TestRequestRelease(t *testing.T) {
	conn := test.NewConn("GET / HTTP/1.1\r\nHost: localhost\r\nAccept: */*\r\n\r\n")
	req, err := parse(t, 0, conn)
	require.NoError(t, err)

	entry, _ := req.Headers.Get("Host")
	_, err = req.Buf.WriteString("ok")
	require.NoError(t, err)

	require.NoError(t, req.release())

	require.Equal(t, "ok", conn.Output())
	require.Nil(t, req.Buf)
	require.Empty(t, entry.Key)
	require.Empty(t, entry.Value)
	require.ErrorIs(t, req.Headers.ForEach(func(*hashmap.Entry[string]) {}), hashmap.ErrInvalid)
	require.Empty(t, req.Method)
	require.Empty(t, req.Path)
	require.Empty(t, req.Version)
}

func TestRequestReleaseKeepsBufferOnFailedFlush(t *testing.T) {
	conn := test.NewConn("GET / HTTP/1.1\r\n\r\n")
	conn.WriteErr = test.ErrInjected

	req, err := parse(t, 0, conn)
	require.NoError(t, err)

	_, err = req.Buf.WriteString("lost")
	require.NoError(t, err)

	err = req.release()
	require.ErrorIs(t, err, test.ErrInjected)
	require.NotNil(t, req.Buf)
	require.Equal(t, 0, req.Headers.Len())
}

func BenchmarkRequestParse(b *testing.B) {
	msg := "GET /test HTTP/1.1\r\nAccept: text/css\r\nConnection: keep-alive\r\nContent-Length: 0\r\n\r\n"

	for b.Loop() {
		req, err := newRequest(test.NewConn(msg), 0)
		if err != nil {
			b.Fatal(err)
		}
		line := newLineBuffer(0)
		if err := readRequest(req, line); err != nil {
			b.Fatal(err)
		}
		line.release()
		_ = req.release()
	}
}
