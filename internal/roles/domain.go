package roles

import (
	"time"

	"github.com/holocron/holocron/internal/shared"
)

var (
	// ErrNotFound is returned when no role has the requested id.
	ErrNotFound = shared.NotFound("Role not found")
	// ErrNameTaken is returned when another role already owns the name.
	ErrNameTaken = shared.Conflict("Role with this name already exists")
)

// Role is a named permission bundle. Permissions are listed in the order
// they were attached.
type Role struct {
	ID          int64               `json:"id"`
	Name        string              `json:"name"`
	Description *string             `json:"description"`
	Permissions []shared.Permission `json:"permissions"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// CreateRoleInput is the body of POST /roles.
type CreateRoleInput struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Permissions []string `json:"permissions"`
}

// UpdateRoleInput is the body of PUT /roles/{id}. Omitted fields are left
// unchanged; a null description clears it.
type UpdateRoleInput struct {
	Name        shared.Optional[string]   `json:"name"`
	Description shared.Optional[string]   `json:"description"`
	Permissions shared.Optional[[]string] `json:"permissions"`
}
