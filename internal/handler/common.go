// Package handler exposes the booking backend's HTTP handlers.  Handlers
// translate inventory errors into status codes and always answer errors
// as {"error": "..."}.
package handler

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/vexeviet/seat-hold/internal/model"
)

var errNoUser = errors.New("invalid user_id in context")

// getUserID extracts the user_id placed in the context by JWTAuth.
func getUserID(c echo.Context) (string, error) {
	if v, ok := c.Get("user_id").(string); ok && v != "" {
		return v, nil
	}
	return "", errNoUser
}

// bindValid binds the request body into v and runs the model validator.
func bindValid(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return model.ErrInvalidRequest
	}
	return model.Validate(v)
}
