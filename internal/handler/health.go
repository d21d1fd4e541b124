package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is the liveness probe used by load balancers.  It answers a
// plain "ok".
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
