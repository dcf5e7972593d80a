package middleware

import (
	"time"

	applogger "TradeForge/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestIDKey is where RequestContext stores the id on echo.Context.
const RequestIDKey = "request_id"

// RequestContext tags each request with an id, reusing the caller's
// X-Request-ID when present, and logs the finished request at debug.
func RequestContext(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			c.Set(RequestIDKey, id)

			start := time.Now()
			err := next(c)
			l.Debug("http request",
				applogger.String("request_id", id),
				applogger.String("method", req.Method),
				applogger.String("route", c.Path()),
				applogger.String("uri", req.RequestURI),
				applogger.Int("status", c.Response().Status),
				applogger.Int64("bytes_out", c.Response().Size),
				applogger.Duration("latency_ms", time.Since(start)),
			)
			return err
		}
	}
}
