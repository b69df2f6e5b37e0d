package rbac

import (
	"time"

	"github.com/holocron/holocron/internal/shared"
)

var (
	// ErrUserNotFound is returned when the user side of an assignment is missing.
	ErrUserNotFound = shared.NotFound("User not found")
	// ErrRoleNotFound is returned when the role side of an assignment is missing.
	ErrRoleNotFound = shared.NotFound("Role not found")
	// ErrAlreadyAssigned is returned when the user already holds the role.
	ErrAlreadyAssigned = shared.Conflict("User already has this role")
	// ErrAssignmentNotFound is returned by unassign regardless of which side
	// is missing.
	ErrAssignmentNotFound = shared.NotFound("Role assignment not found")
)

// UserRole links a user to a role.
type UserRole struct {
	ID        int64
	UserID    int64
	RoleID    int64
	CreatedAt time.Time
}
