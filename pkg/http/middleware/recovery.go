package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	applogger "TradeForge/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Recover answers a panicking handler with a 500 envelope and logs the
// stack under the request id.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				perr, ok := r.(error)
				if !ok {
					perr = fmt.Errorf("panic: %v", r)
				}
				id := c.Response().Header().Get(echo.HeaderXRequestID)
				l.Error("http handler panic",
					applogger.String("request_id", id),
					applogger.String("route", c.Path()),
					applogger.Error(perr),
					applogger.String("stack", string(debug.Stack())),
				)
				if c.Response().Committed {
					return
				}
				err = c.JSON(http.StatusInternalServerError, map[string]interface{}{
					"status":     http.StatusInternalServerError,
					"message":    http.StatusText(http.StatusInternalServerError),
					"request_id": id,
				})
			}()
			return next(c)
		}
	}
}
