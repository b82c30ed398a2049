package http

import (
	"log/slog"
)

type Middleware func(next Handler) Handler

// RecoverMiddleware turns a handler panic into a 500 response.
func RecoverMiddleware(logger *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(req *Request, res *Response) {
			defer func() {
				if r := recover(); r != nil {
					logger.ErrorContext(req.Context(), "handler panicked",
						slog.String("conn", req.ID),
						slog.String("path", req.Path),
						slog.Any("panic", r),
					)

					res.Status = StatusInternalServerError
					res.Message = ""
					if err := res.Send(req, "something went wrong"); err != nil {
						logger.ErrorContext(req.Context(), "send error response", slog.Any("error", err))
					}
				}
			}()

			next(req, res)
		}
	}
}
