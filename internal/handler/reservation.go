package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vexeviet/seat-hold/internal/inventory"
	"github.com/vexeviet/seat-hold/internal/logger"
	"github.com/vexeviet/seat-hold/internal/model"
)

// ReservationHandler serves the customer endpoints: holding and releasing
// seats, booking a hold and starting payment.  All methods assume JWTAuth
// and RequireRole already ran.
type ReservationHandler struct {
	Inv *inventory.Inventory
	Log *logger.Logger
}

func NewReservationHandler(inv *inventory.Inventory, log *logger.Logger) *ReservationHandler {
	if inv == nil {
		panic("nil inventory passed to NewReservationHandler")
	}
	if log == nil {
		log = logger.GetDefault()
	}
	return &ReservationHandler{Inv: inv, Log: log}
}

// HoldSeats handles POST /v1/routes/:id/hold.  Either every requested
// seat is held or none is; a conflict answers 409 with the list of seats
// that could not be held.
func (h *ReservationHandler) HoldSeats(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body model.HoldSeatsBody
	if err := bindValid(c, &body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	hold, err := h.Inv.Hold(userID, c.Param("id"), body.DepartureDate, body.SeatIDs)
	if err != nil {
		var conflict *model.HoldConflictError
		switch {
		case errors.As(err, &conflict):
			return c.JSON(http.StatusConflict, model.ConflictBody{
				Error:       "some seats are not available",
				Unavailable: conflict.Unavailable,
			})
		case errors.Is(err, inventory.ErrRouteNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "route not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hold failed"})
	}
	h.Log.WithHold(hold).Info("seats held", "user_id", userID)
	return c.JSON(http.StatusCreated, model.HoldSeatsResponse{
		HoldID:    hold.HoldID,
		ExpiresAt: hold.ExpiresAt,
		SeatIDs:   hold.Seats,
	})
}

// ReleaseHold handles DELETE /v1/holds/:id.
func (h *ReservationHandler) ReleaseHold(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	released, err := h.Inv.Release(userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, model.ErrHoldNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hold not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "release failed"})
	}
	h.Log.Info("hold released", "hold_id", c.Param("id"), "user_id", userID)
	return c.JSON(http.StatusOK, model.ReleaseResponse{Released: released})
}

// CreateBooking handles POST /v1/bookings.  A hold that expired or was
// released answers 410.
func (h *ReservationHandler) CreateBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req model.BookingRequest
	if err := bindValid(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	b, err := h.Inv.CreateBooking(userID, req)
	if err != nil {
		if errors.Is(err, model.ErrHoldNotFound) {
			return c.JSON(http.StatusGone, echo.Map{"error": "hold expired"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
	}
	return c.JSON(http.StatusCreated, b)
}

// InitiatePayment handles POST /v1/payments.
func (h *ReservationHandler) InitiatePayment(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req model.PaymentInitiation
	if err := bindValid(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	res, err := h.Inv.InitiatePayment(req)
	switch {
	case err == nil:
	case errors.Is(err, inventory.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	case errors.Is(err, model.ErrHoldNotFound):
		return c.JSON(http.StatusGone, echo.Map{"error": "hold expired"})
	case errors.Is(err, inventory.ErrAmountMismatch), errors.Is(err, inventory.ErrBookingClosed):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		h.Log.WithError(err).Error("payment initiation failed", "booking_id", req.BookingID)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment initiation failed"})
	}
	h.Log.Info("payment initiated", "booking_id", req.BookingID, "method", string(req.Method))
	return c.JSON(http.StatusOK, res)
}
