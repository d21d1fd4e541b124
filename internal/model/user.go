package model

import "time"

// User is a customer account known to the booking backend.  Accounts
// are seeded in memory at startup; the password is kept only as a
// bcrypt hash.
//
// Fields:
//  ID           – stable identifier, used as the JWT subject.
//  Email        – login name.
//  PasswordHash – bcrypt hashed password.
//  Role         – CUSTOMER for everyone who can hold seats.
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           string    // JWT sub
	Email        string    // unique
	PasswordHash string    // bcrypt
	Role         string    // CUSTOMER
	CreatedAt    time.Time // seeded at startup
}

// RoleCustomer is the only role allowed to hold, book and pay.
const RoleCustomer = "CUSTOMER"

// LoginRequest carries credentials for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenPart is a signed token and its expiry.
type TokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// UserPart is the public view of a User.
type UserPart struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// LoginResponse is returned by POST /v1/auth/login.
type LoginResponse struct {
	User   UserPart  `json:"user"`
	Access TokenPart `json:"access"`
}
