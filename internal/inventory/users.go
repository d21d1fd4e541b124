package inventory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vexeviet/seat-hold/internal/model"
	"github.com/vexeviet/seat-hold/internal/utils"
)

// ErrUserNotFound is returned for an unknown login.
var ErrUserNotFound = errors.New("user not found")

// Users is an in-memory account directory.
type Users struct {
	mu      sync.RWMutex
	byEmail map[string]model.User
}

func NewUsers() *Users {
	return &Users{byEmail: make(map[string]model.User)}
}

// Seed adds a customer with a bcrypt-hashed password.
func (u *Users) Seed(email, password string, cost int) (model.User, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.User{}, err
	}
	user := model.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Role:         model.RoleCustomer,
		CreatedAt:    time.Now().UTC(),
	}
	u.mu.Lock()
	u.byEmail[user.Email] = user
	u.mu.Unlock()
	return user, nil
}

// GetByEmail looks a user up by login.
func (u *Users) GetByEmail(_ context.Context, email string) (model.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	user, ok := u.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return user, nil
}
