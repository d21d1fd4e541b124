package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vexeviet/seat-hold/internal/inventory"
)

// BrowseHandler serves the public, unauthenticated reads.
type BrowseHandler struct {
	Inv *inventory.Inventory
}

// ListRoutes handles GET /v1/routes.
func (h *BrowseHandler) ListRoutes(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Inv.Routes())
}

// SeatAvailability handles GET /v1/routes/:id/seats?date=YYYY-MM-DD.
// Held seats of expired holds are reported FREE.
func (h *BrowseHandler) SeatAvailability(c echo.Context) error {
	date := c.QueryParam("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	snap, err := h.Inv.Availability(c.Param("id"), date)
	if err != nil {
		if errors.Is(err, inventory.ErrRouteNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "route not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "availability failed"})
	}
	return c.JSON(http.StatusOK, snap)
}
