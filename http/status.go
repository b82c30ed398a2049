package http

const (
	StatusContinue           uint16 = 100
	StatusSwitchingProtocols uint16 = 101

	StatusOK        uint16 = 200
	StatusCreated   uint16 = 201
	StatusAccepted  uint16 = 202
	StatusNoContent uint16 = 204

	StatusMovedPermanently  uint16 = 301
	StatusFound             uint16 = 302
	StatusSeeOther          uint16 = 303
	StatusNotModified       uint16 = 304
	StatusTemporaryRedirect uint16 = 307
	StatusPermanentRedirect uint16 = 308

	StatusBadRequest                  uint16 = 400
	StatusUnauthorized                uint16 = 401
	StatusForbidden                   uint16 = 403
	StatusNotFound                    uint16 = 404
	StatusMethodNotAllowed            uint16 = 405
	StatusRequestTimeout              uint16 = 408
	StatusRequestURITooLong           uint16 = 414
	StatusTeapot                      uint16 = 418
	StatusRequestHeaderFieldsTooLarge uint16 = 431

	StatusInternalServerError     uint16 = 500
	StatusNotImplemented          uint16 = 501
	StatusServiceUnavailable      uint16 = 503
	StatusHTTPVersionNotSupported uint16 = 505
)

var statusMessages = map[uint16]string{
	StatusContinue:           "Continue",
	StatusSwitchingProtocols: "Switching Protocols",

	StatusOK:        "OK",
	StatusCreated:   "Created",
	StatusAccepted:  "Accepted",
	StatusNoContent: "No Content",

	StatusMovedPermanently:  "Moved Permanently",
	StatusFound:             "Found",
	StatusSeeOther:          "See Other",
	StatusNotModified:       "Not Modified",
	StatusTemporaryRedirect: "Temporary Redirect",
	StatusPermanentRedirect: "Permanent Redirect",

	StatusBadRequest:                  "Bad Request",
	StatusUnauthorized:                "Unauthorized",
	StatusForbidden:                   "Forbidden",
	StatusNotFound:                    "Not Found",
	StatusMethodNotAllowed:            "Method Not Allowed",
	StatusRequestTimeout:              "Request Timeout",
	StatusRequestURITooLong:           "Request URI Too Long",
	StatusTeapot:                      "I'm a teapot",
	StatusRequestHeaderFieldsTooLarge: "Request Header Fields Too Large",

	StatusInternalServerError:     "Internal Server Error",
	StatusNotImplemented:          "Not Implemented",
	StatusServiceUnavailable:      "Service Unavailable",
	StatusHTTPVersionNotSupported: "HTTP Version Not Supported",
}

// StatusText returns the reason phrase for code, or "Unknown Status Code".
func StatusText(code uint16) string {
	if msg, ok := statusMessages[code]; ok {
		return msg
	}
	return "Unknown Status Code"
}
