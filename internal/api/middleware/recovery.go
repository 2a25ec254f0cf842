package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"
)

const stackBufSize = 4096

// Recovery returns Echo middleware that recovers from handler panics, logs
// the stack trace, and answers with a 500. http.ErrAbortHandler is repanicked
// so the server's connection teardown path still sees it.
func Recovery(log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}

				attrs := []any{
					"error", fmt.Sprint(r),
					"method", c.Request().Method,
					"path", c.Request().URL.Path,
					"stack", stackTrace(),
				}
				if reqID, ok := c.Get("request_id").(string); ok {
					attrs = append(attrs, "request_id", reqID)
				}
				log.Error("panic recovered", attrs...)

				err = c.JSON(http.StatusInternalServerError, map[string]string{
					"error": "internal server error",
				})
			}()
			return next(c)
		}
	}
}

func stackTrace() string {
	buf := make([]byte, stackBufSize)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
