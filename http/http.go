// Package http serves one HTTP/1.x request per connection. Requests are read
// a byte at a time through an iobuf.Buffer, headers land in a hashmap.Map and
// the resource path selects a handler registered before serving started.
// Handlers write their whole response, status line included, through the
// request's buffer.
package http

const (
	DefaultMaxLineSize = 8 * 1024 // 8kB

	instrumentationName = "github.com/freekieb7/strand/http"
)

// Handler writes the complete response for req through req.Buf. It runs on
// the goroutine that owns the connection.
type Handler func(req *Request, res *Response)

// Route is a handler record in the server's registry.
type Route struct {
	Path    string
	Handler Handler
}
