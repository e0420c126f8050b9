package middleware

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"FinCast/pkg/tracing"
)

// HeaderTraceID carries the trace id of the request span back to the client.
const HeaderTraceID = "X-Trace-ID"

// Tracing opens a span per request and stores it in the request context, so
// cascade and forecast spans become its children.
func Tracing() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !tracing.Enabled() {
				return next(c)
			}
			req := c.Request()
			ctx, span := tracing.StartSpan(req.Context(), "http "+req.Method+" "+c.Path(),
				attribute.String("http.method", req.Method),
				attribute.String("http.route", c.Path()),
			)
			defer span.End()

			c.SetRequest(req.WithContext(ctx))
			if traceID, _, ok := tracing.TraceFields(ctx); ok {
				c.Response().Header().Set(HeaderTraceID, traceID)
			}

			err := next(c)
			status := c.Response().Status
			span.SetAttributes(attribute.Int("http.status_code", status))
			if err != nil {
				span.RecordError(err)
			}
			if err != nil || status >= 500 {
				span.SetStatus(codes.Error, "request failed")
			}
			return err
		}
	}
}
