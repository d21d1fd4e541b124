package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vexeviet/seat-hold/internal/client"
	"github.com/vexeviet/seat-hold/internal/config"
	"github.com/vexeviet/seat-hold/internal/handler"
	"github.com/vexeviet/seat-hold/internal/inventory"
	"github.com/vexeviet/seat-hold/internal/logger"
	"github.com/vexeviet/seat-hold/internal/model"
)

const (
	demoEmail    = "khach@vexeviet.vn"
	demoPassword = "vexeviet123"
	date         = "2026-11-01"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.ServerConfig{JWTSecret: "test-secret", AccessTTLMin: 5}
	users := inventory.NewUsers()
	_, err := users.Seed(demoEmail, demoPassword, bcrypt.MinCost)
	require.NoError(t, err)
	inv := inventory.New(inventory.Config{
		HoldTTL: 10 * time.Minute,
		Gateways: inventory.GatewayConfig{
			VNPayURL:  "https://vnpay.test/pay",
			ReturnURL: "http://localhost:3000/payment/return",
		},
	}, inventory.DefaultRoutes())

	e := echo.New()
	Register(e, Deps{
		Auth:         handler.NewAuthHandler(cfg, users),
		Browse:       &handler.BrowseHandler{Inv: inv},
		Reservations: handler.NewReservationHandler(inv, logger.Discard()),
		JWTSecret:    cfg.JWTSecret,
		Log:          logger.Discard(),
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, srv *httptest.Server) *client.Client {
	t.Helper()
	c, err := client.New(client.Config{BaseURL: srv.URL, Logger: logger.Discard()})
	require.NoError(t, err)
	return c
}

func TestHealth(t *testing.T) {
	srv := newBackend(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	srv := newBackend(t)
	ctx := context.Background()

	_, err := newClient(t, srv).Login(ctx, demoEmail, "wrong")
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	_, err = newClient(t, srv).Login(ctx, "nobody@vexeviet.vn", demoPassword)
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	res, err := newClient(t, srv).Login(ctx, demoEmail, demoPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Access.Token)
	assert.Equal(t, model.RoleCustomer, res.User.Role)
}

func TestCustomerRoutesRequireToken(t *testing.T) {
	srv := newBackend(t)
	_, err := newClient(t, srv).HoldSeats(context.Background(), model.HoldRequest{RouteID: "R1", DepartureDate: date, Seats: []string{"A1"}})
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestBrowse(t *testing.T) {
	srv := newBackend(t)
	c := newClient(t, srv)
	ctx := context.Background()

	routes, err := c.ListRoutes(ctx)
	require.NoError(t, err)
	assert.Len(t, routes, 4)

	snap, err := c.GetSeatAvailability(ctx, "R1", date)
	require.NoError(t, err)
	assert.Len(t, snap.Free(), 40)

	_, err = c.GetSeatAvailability(ctx, "R9", date)
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)

	resp, err := http.Get(srv.URL + "/v1/routes/R1/seats?date=tomorrow")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHoldBookPayFlow(t *testing.T) {
	srv := newBackend(t)
	ctx := context.Background()
	alice := newClient(t, srv)
	_, err := alice.Login(ctx, demoEmail, demoPassword)
	require.NoError(t, err)

	hold, err := alice.HoldSeats(ctx, model.HoldRequest{RouteID: "R1", DepartureDate: date, Seats: []string{"A1", "A2"}})
	require.NoError(t, err)
	assert.NotEmpty(t, hold.HoldID)
	assert.Equal(t, []string{"A1", "A2"}, hold.Seats)
	assert.True(t, hold.ExpiresAt.After(time.Now()))

	_, err = alice.HoldSeats(ctx, model.HoldRequest{RouteID: "R1", DepartureDate: date, Seats: []string{"A2", "A3"}})
	var conflict *model.HoldConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []string{"A2"}, conflict.Unavailable)

	booking, err := alice.CreateBooking(ctx, model.BookingRequest{
		HoldID:    hold.HoldID,
		Passenger: model.Passenger{Name: "Trần Thị B", Phone: "0912345678", Email: "b@example.vn"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(500000), booking.TotalPrice)

	res, err := alice.InitiatePayment(ctx, model.PaymentInitiation{BookingID: booking.BookingID, Method: model.MethodVNPay, Amount: booking.TotalPrice})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, strings.HasPrefix(res.PaymentURL, "https://vnpay.test/pay?"))

	require.NoError(t, alice.ReleaseSeats(ctx, hold.HoldID))
	assert.ErrorIs(t, alice.ReleaseSeats(ctx, hold.HoldID), model.ErrHoldNotFound)

	_, err = alice.CreateBooking(ctx, model.BookingRequest{
		HoldID:    hold.HoldID,
		Passenger: model.Passenger{Name: "Trần Thị B", Phone: "0912345678"},
	})
	assert.ErrorIs(t, err, model.ErrHoldNotFound)
}

func TestHoldValidation(t *testing.T) {
	srv := newBackend(t)
	c := newClient(t, srv)
	res, err := c.Login(context.Background(), demoEmail, demoPassword)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/routes/R1/hold", strings.NewReader(`{"departure_date":"2026-11-01","seat_ids":[]}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+res.Access.Token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
