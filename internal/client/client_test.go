package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/facebookgo/clock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vexeviet/seat-hold/internal/logger"
	"github.com/vexeviet/seat-hold/internal/model"
)

func newTestClient(t *testing.T, h http.Handler, cache AvailabilityCache) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL + "/", Token: "tok", Cache: cache, Logger: logger.Discard()})
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestHoldSeatsSuccess(t *testing.T) {
	exp := time.Date(2026, 10, 20, 7, 10, 0, 0, time.UTC)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/routes/R1/hold", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body model.HoldSeatsBody
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2026-10-20", body.DepartureDate)
		assert.Equal(t, []string{"A1", "A2"}, body.SeatIDs)

		writeJSON(w, http.StatusCreated, model.HoldSeatsResponse{HoldID: "h-1", ExpiresAt: exp, SeatIDs: body.SeatIDs})
	}), nil)

	h, err := c.HoldSeats(context.Background(), model.HoldRequest{RouteID: "R1", DepartureDate: "2026-10-20", Seats: []string{"A1", "A2"}})
	require.NoError(t, err)
	assert.Equal(t, model.Hold{HoldID: "h-1", ExpiresAt: exp, Seats: []string{"A1", "A2"}, RouteID: "R1", DepartureDate: "2026-10-20"}, h)
}

func TestHoldSeatsConflict(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, model.ConflictBody{Error: "seats unavailable", Unavailable: []string{"A2"}})
	}), nil)

	_, err := c.HoldSeats(context.Background(), model.HoldRequest{RouteID: "R1", DepartureDate: "2026-10-20", Seats: []string{"A1", "A2"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrHoldConflict)
	var hc *model.HoldConflictError
	require.True(t, errors.As(err, &hc))
	assert.Equal(t, []string{"A2"}, hc.Unavailable)
}

func TestHoldSeatsValidatesBeforeCalling(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}), nil)

	_, err := c.HoldSeats(context.Background(), model.HoldRequest{RouteID: "R1", DepartureDate: "2026-10-20"})
	assert.ErrorIs(t, err, model.ErrInvalidRequest)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestReleaseSeatsNotFound(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusGone} {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			assert.Equal(t, "/v1/holds/h-1", r.URL.Path)
			writeJSON(w, status, model.ErrorBody{Error: "hold not found"})
		}), nil)
		assert.ErrorIs(t, c.ReleaseSeats(context.Background(), "h-1"), model.ErrHoldNotFound)
	}
}

func TestReleaseSeatsServerError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, model.ErrorBody{Error: "db down"})
	}), nil)
	err := c.ReleaseSeats(context.Background(), "h-1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "db down", apiErr.Message)
	assert.NotErrorIs(t, err, model.ErrHoldNotFound)
}

func TestUnauthorized(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, model.ErrorBody{Error: "invalid token"})
	}), nil)
	_, err := c.ListRoutes(context.Background())
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestAvailabilityCachedAndRefreshed(t *testing.T) {
	var calls, noCache int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.Header.Get("Cache-Control") == "no-cache" {
			atomic.AddInt32(&noCache, 1)
		}
		assert.Equal(t, "/v1/routes/R1/seats", r.URL.Path)
		assert.Equal(t, "2026-10-20", r.URL.Query().Get("date"))
		writeJSON(w, http.StatusOK, model.AvailabilitySnapshot{
			RouteID: "R1", DepartureDate: "2026-10-20",
			Seats: []model.SeatAvailability{{SeatID: "A1", Status: model.SeatFree, Price: 250000}},
		})
	}), NewMemoryCache(time.Minute, nil))
	ctx := context.Background()

	snap, err := c.GetSeatAvailability(ctx, "R1", "2026-10-20")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, snap.Free())
	assert.False(t, snap.FetchedAt.IsZero())

	_, err = c.GetSeatAvailability(ctx, "R1", "2026-10-20")
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	_, err = c.RefreshSeatAvailability(ctx, "R1", "2026-10-20")
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
	assert.EqualValues(t, 1, atomic.LoadInt32(&noCache))

	c.InvalidateAvailability(ctx, "R1", "2026-10-20")
	_, err = c.GetSeatAvailability(ctx, "R1", "2026-10-20")
	require.NoError(t, err)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestLoginSetsToken(t *testing.T) {
	exp := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	var sawBearer atomic.Value
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/auth/login":
			writeJSON(w, http.StatusOK, model.LoginResponse{Access: model.TokenPart{Token: "fresh", Expires: exp}})
		case "/v1/routes":
			sawBearer.Store(r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, []model.Route{{ID: "R1"}})
		}
	}), nil)

	out, err := c.Login(context.Background(), "khach@vexeviet.vn", "pw")
	require.NoError(t, err)
	assert.Equal(t, "fresh", out.Access.Token)

	routes, err := c.ListRoutes(context.Background())
	require.NoError(t, err)
	assert.Len(t, routes, 1)
	assert.Equal(t, "Bearer fresh", sawBearer.Load())
}

func TestInitiatePayment(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body model.PaymentInitiation
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, model.MethodVNPay, body.Method)
		assert.EqualValues(t, 500000, body.Amount)
		writeJSON(w, http.StatusOK, model.PaymentInitiationResult{Success: true, PaymentURL: "https://pay.test/x", TransactionID: "tx-1"})
	}), nil)

	res, err := c.InitiatePayment(context.Background(), model.PaymentInitiation{BookingID: "b-1", Method: model.MethodVNPay, Amount: 500000})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "tx-1", res.TransactionID)
}

func TestCreateBookingExpiredHold(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusGone, model.ErrorBody{Error: "hold expired"})
	}), nil)
	_, err := c.CreateBooking(context.Background(), model.BookingRequest{
		HoldID:    "h-1",
		Passenger: model.Passenger{Name: "Nguyen Van A", Phone: "0901234567"},
	})
	assert.ErrorIs(t, err, model.ErrHoldNotFound)
}

func TestMemoryCacheExpires(t *testing.T) {
	clk := clock.NewMock()
	cache := NewMemoryCache(30*time.Second, clk)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", model.AvailabilitySnapshot{RouteID: "R1"}))
	_, err := cache.Get(ctx, "k")
	require.NoError(t, err)

	clk.Add(30 * time.Second)
	_, err = cache.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	cache := NewRedisCache(rdb, time.Minute)
	ctx := context.Background()
	key := AvailabilityKey("R1", "2026-10-20")

	_, err := cache.Get(ctx, key)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, key, model.AvailabilitySnapshot{RouteID: "R1"}))
	snap, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "R1", snap.RouteID)

	mr.FastForward(time.Minute)
	_, err = cache.Get(ctx, key)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, key, model.AvailabilitySnapshot{RouteID: "R1"}))
	require.NoError(t, cache.Delete(ctx, key))
	assert.False(t, mr.Exists(key))
}
