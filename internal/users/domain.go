package users

import (
	"time"

	"github.com/holocron/holocron/internal/shared"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = shared.NotFound("User not found")
	// ErrUsernameTaken is returned when another user owns the username.
	ErrUsernameTaken = shared.Conflict("User with this username already exists")
	// ErrEmailTaken is returned when another user owns the email.
	ErrEmailTaken = shared.Conflict("User with this email already exists")
)

// User represents a user account.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateUserInput is the body of POST /users.
type CreateUserInput struct {
	Username string  `json:"username" validate:"required,max=50"`
	Email    string  `json:"email" validate:"required,email,max=255"`
	Name     *string `json:"name" validate:"omitempty,max=100"`
	IsActive *bool   `json:"is_active"`
}

// UpdateUserInput is the body of PUT /users/{id}. Only keys present in the
// body are applied; a null name clears it.
type UpdateUserInput struct {
	Username shared.Optional[string] `json:"username"`
	Email    shared.Optional[string] `json:"email"`
	Name     shared.Optional[string] `json:"name"`
	IsActive shared.Optional[bool]   `json:"is_active"`
}

// StatusResponse is returned by the activate and deactivate endpoints.
type StatusResponse struct {
	Detail string `json:"detail"`
	User   User   `json:"user"`
}
