// Package client talks to the VeXeViet booking backend over HTTP.  It is
// the only place that knows the REST contract; callers deal in model
// types and the sentinel errors of package model.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/facebookgo/clock"

	"github.com/vexeviet/seat-hold/internal/logger"
	"github.com/vexeviet/seat-hold/internal/model"
)

// APIError is any non-2xx answer that has no more specific meaning.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("booking api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("booking api: status %d: %s", e.StatusCode, e.Message)
}

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL of the booking backend, e.g. "http://localhost:8080".
	BaseURL string
	// Timeout bounds every request.  Ignored when HTTPClient is set.
	Timeout time.Duration
	// HTTPClient is used for all requests.  Optional.
	HTTPClient *http.Client
	// Token is the bearer token sent with protected calls.  Optional.
	Token string
	// Cache memoises availability reads.  Nil disables caching.
	Cache AvailabilityCache
	Logger *logger.Logger
	Clock  clock.Clock
}

// Client is the booking backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      AvailabilityCache
	log        *logger.Logger
	clock      clock.Clock

	mu    sync.RWMutex
	token string
}

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("client: BaseURL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("client: invalid BaseURL %q: %w", cfg.BaseURL, err)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	log := cfg.Logger
	if log == nil {
		log = logger.GetDefault()
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: hc,
		cache:      cfg.Cache,
		log:        log,
		clock:      clk,
		token:      cfg.Token,
	}, nil
}

// SetToken replaces the bearer token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Login exchanges credentials for an access token and starts using it.
func (c *Client) Login(ctx context.Context, email, password string) (model.LoginResponse, error) {
	var out model.LoginResponse
	req := model.LoginRequest{Email: email, Password: password}
	if err := model.Validate(req); err != nil {
		return out, err
	}
	if err := c.do(ctx, http.MethodPost, "/v1/auth/login", nil, req, &out); err != nil {
		return out, fmt.Errorf("login: %w", err)
	}
	c.SetToken(out.Access.Token)
	return out, nil
}

// ListRoutes returns every route the backend sells.
func (c *Client) ListRoutes(ctx context.Context) ([]model.Route, error) {
	var out []model.Route
	if err := c.do(ctx, http.MethodGet, "/v1/routes", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	return out, nil
}

// GetSeatAvailability returns the seat map, from the cache when possible.
func (c *Client) GetSeatAvailability(ctx context.Context, routeID, departureDate string) (model.AvailabilitySnapshot, error) {
	key := AvailabilityKey(routeID, departureDate)
	if c.cache != nil {
		snap, err := c.cache.Get(ctx, key)
		if err == nil {
			return snap, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			c.log.WithError(err).Warn("availability cache read failed")
		}
	}
	return c.fetchAvailability(ctx, routeID, departureDate, false)
}

// RefreshSeatAvailability drops the cached seat map and fetches a fresh one,
// asking the backend to skip its own response cache too.
func (c *Client) RefreshSeatAvailability(ctx context.Context, routeID, departureDate string) (model.AvailabilitySnapshot, error) {
	c.InvalidateAvailability(ctx, routeID, departureDate)
	return c.fetchAvailability(ctx, routeID, departureDate, true)
}

// InvalidateAvailability forgets the cached seat map for a departure.
func (c *Client) InvalidateAvailability(ctx context.Context, routeID, departureDate string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Delete(ctx, AvailabilityKey(routeID, departureDate)); err != nil {
		c.log.WithError(err).Warn("availability cache invalidate failed")
	}
}

func (c *Client) fetchAvailability(ctx context.Context, routeID, departureDate string, fresh bool) (model.AvailabilitySnapshot, error) {
	var snap model.AvailabilitySnapshot
	path := "/v1/routes/" + url.PathEscape(routeID) + "/seats?date=" + url.QueryEscape(departureDate)
	var hdr http.Header
	if fresh {
		hdr = http.Header{"Cache-Control": []string{"no-cache"}}
	}
	if err := c.do(ctx, http.MethodGet, path, hdr, nil, &snap); err != nil {
		return snap, fmt.Errorf("seat availability: %w", err)
	}
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = c.clock.Now().UTC()
	}
	if c.cache != nil {
		if err := c.cache.Set(ctx, AvailabilityKey(routeID, departureDate), snap); err != nil {
			c.log.WithError(err).Warn("availability cache write failed")
		}
	}
	return snap, nil
}

// HoldSeats asks the backend to hold req.Seats.  A 409 comes back as a
// *model.HoldConflictError listing the seats that were taken.
func (c *Client) HoldSeats(ctx context.Context, req model.HoldRequest) (model.Hold, error) {
	if err := model.Validate(req); err != nil {
		return model.Hold{}, err
	}
	body := model.HoldSeatsBody{DepartureDate: req.DepartureDate, SeatIDs: req.Seats}
	var out model.HoldSeatsResponse
	err := c.do(ctx, http.MethodPost, "/v1/routes/"+url.PathEscape(req.RouteID)+"/hold", nil, body, &out)
	if err != nil {
		return model.Hold{}, fmt.Errorf("hold seats: %w", err)
	}
	if out.HoldID == "" || out.ExpiresAt.IsZero() {
		return model.Hold{}, fmt.Errorf("hold seats: %w", &APIError{StatusCode: http.StatusOK, Message: "response without hold_id or expires_at"})
	}
	seats := out.SeatIDs
	if len(seats) == 0 {
		seats = req.Seats
	}
	return model.Hold{
		HoldID:        out.HoldID,
		ExpiresAt:     out.ExpiresAt,
		Seats:         append([]string(nil), seats...),
		RouteID:       req.RouteID,
		DepartureDate: req.DepartureDate,
	}, nil
}

// ReleaseSeats gives a hold back.  An unknown or already expired hold
// yields model.ErrHoldNotFound.
func (c *Client) ReleaseSeats(ctx context.Context, holdID string) error {
	if err := c.do(ctx, http.MethodDelete, "/v1/holds/"+url.PathEscape(holdID), nil, nil, nil); err != nil {
		return fmt.Errorf("release seats: %w", holdGone(err))
	}
	return nil
}

// CreateBooking attaches passenger details to an active hold.
func (c *Client) CreateBooking(ctx context.Context, req model.BookingRequest) (model.Booking, error) {
	var out model.Booking
	if err := model.Validate(req); err != nil {
		return out, err
	}
	if err := c.do(ctx, http.MethodPost, "/v1/bookings", nil, req, &out); err != nil {
		return out, fmt.Errorf("create booking: %w", holdGone(err))
	}
	return out, nil
}

// InitiatePayment starts a gateway payment for a booking.
func (c *Client) InitiatePayment(ctx context.Context, req model.PaymentInitiation) (model.PaymentInitiationResult, error) {
	var out model.PaymentInitiationResult
	if err := model.Validate(req); err != nil {
		return out, err
	}
	if err := c.do(ctx, http.MethodPost, "/v1/payments", nil, req, &out); err != nil {
		return out, fmt.Errorf("initiate payment: %w", err)
	}
	return out, nil
}

// do performs one JSON round trip and maps error statuses.
func (c *Client) do(ctx context.Context, method, path string, hdr http.Header, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	for k, vs := range hdr {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	start := c.clock.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.WithError(err).Warn("booking api unreachable", "method", method, "path", path)
		return err
	}
	defer resp.Body.Close()
	c.log.LogRequest(method, path, resp.StatusCode, c.clock.Now().Sub(start))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return statusError(resp.StatusCode, raw)
}

func statusError(status int, raw []byte) error {
	switch status {
	case http.StatusConflict:
		var cb model.ConflictBody
		_ = json.Unmarshal(raw, &cb)
		return &model.HoldConflictError{Unavailable: cb.Unavailable}
	case http.StatusUnauthorized:
		return model.ErrUnauthorized
	}
	var eb model.ErrorBody
	_ = json.Unmarshal(raw, &eb)
	return &APIError{StatusCode: status, Message: eb.Error}
}

// holdGone maps 404 and 410 on hold-scoped calls to model.ErrHoldNotFound.
func holdGone(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusNotFound || apiErr.StatusCode == http.StatusGone) {
		return model.ErrHoldNotFound
	}
	return err
}
