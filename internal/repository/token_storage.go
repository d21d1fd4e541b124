package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/facebookgo/clock"
)

// AccessTokenKey is where the CLI keeps the bearer token from login.
const AccessTokenKey = "vexeviet:access-token"

type storedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// TokenStorage keeps the access token next to the hold slot.
type TokenStorage struct {
	store Store
	clock clock.Clock
}

func NewTokenStorage(store Store, clk clock.Clock) *TokenStorage {
	if clk == nil {
		clk = clock.New()
	}
	return &TokenStorage{store: store, clock: clk}
}

// Save stores token until exp.
func (s *TokenStorage) Save(ctx context.Context, token string, exp time.Time) error {
	b, err := json.Marshal(storedToken{Token: token, ExpiresAt: exp.UTC()})
	if err != nil {
		return err
	}
	return s.store.Set(ctx, AccessTokenKey, b)
}

// Load returns the token if one is stored and not yet expired.
func (s *TokenStorage) Load(ctx context.Context) (string, bool, error) {
	raw, err := s.store.Get(ctx, AccessTokenKey)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	var t storedToken
	if err := json.Unmarshal(raw, &t); err != nil || t.Token == "" || !t.ExpiresAt.After(s.clock.Now()) {
		return "", false, s.store.Remove(ctx, AccessTokenKey)
	}
	return t.Token, true, nil
}

// Clear forgets the token.
func (s *TokenStorage) Clear(ctx context.Context) error {
	return s.store.Remove(ctx, AccessTokenKey)
}
