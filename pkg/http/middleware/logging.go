package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	applogger "FinCast/pkg/logger"
)

// RequestLogging logs one structured line per HTTP request, tagged with the
// trace id when the request is traced. Server errors log at error level.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := []applogger.Field{
				applogger.String("method", req.Method),
				applogger.String("uri", req.RequestURI),
				applogger.String("remote_ip", c.RealIP()),
				applogger.Int("status", res.Status),
				applogger.Duration("latency", time.Since(start)),
				applogger.Int64("bytes_out", res.Size),
			}
			if err != nil {
				fields = append(fields, applogger.Error(err))
			}
			rl := l.Ctx(req.Context())
			switch {
			case res.Status >= http.StatusInternalServerError:
				rl.Error("http request", fields...)
			case err != nil:
				rl.Warn("http request", fields...)
			default:
				rl.Info("http request", fields...)
			}

			return nil
		}
	}
}
