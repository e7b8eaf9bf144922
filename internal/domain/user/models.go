package user

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

// User owns every transaction, category, keyword and upload in the
// system. Entities are never shared across users.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CreateParams holds the fields for registering a user. PasswordHash must
// already be hashed by the caller.
type CreateParams struct {
	Name         string
	Email        string
	PasswordHash string
}
