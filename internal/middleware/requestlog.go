package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vexeviet/seat-hold/internal/logger"
)

// RequestLogger logs every request with its status and duration.
func RequestLogger(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			log.LogRequest(c.Request().Method, c.Path(), c.Response().Status, time.Since(start))
			return nil
		}
	}
}
