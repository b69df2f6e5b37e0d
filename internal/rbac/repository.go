package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/holocron/holocron/internal/platform/db"
	"github.com/holocron/holocron/internal/roles"
)

// Repository defines data access for user-role assignments.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Unassign(ctx context.Context, userID, roleID int64) error
	UserExists(ctx context.Context, userID int64) (bool, error)
	ListUserRoles(ctx context.Context, userID int64) ([]roles.Role, error)
}

// TxRepository holds the statements of the assign transaction.
type TxRepository interface {
	LockUser(ctx context.Context, userID int64) (bool, error)
	LockRole(ctx context.Context, roleID int64) (bool, error)
	Assigned(ctx context.Context, userID, roleID int64) (bool, error)
	Assign(ctx context.Context, userID, roleID int64) (UserRole, error)
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

func (r *repository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var id int64
	err := r.db.QueryRow(ctx, query, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (r *repository) UserExists(ctx context.Context, userID int64) (bool, error) {
	return r.exists(ctx, `SELECT id FROM "user" WHERE id = $1`, userID)
}

// LockUser takes a share lock so the user cannot be deleted before commit.
func (r *repository) LockUser(ctx context.Context, userID int64) (bool, error) {
	return r.exists(ctx, `SELECT id FROM "user" WHERE id = $1 FOR SHARE`, userID)
}

func (r *repository) LockRole(ctx context.Context, roleID int64) (bool, error) {
	return r.exists(ctx, `SELECT id FROM role WHERE id = $1 FOR SHARE`, roleID)
}

func (r *repository) Assigned(ctx context.Context, userID, roleID int64) (bool, error) {
	return r.exists(ctx, `SELECT id FROM user_role WHERE user_id = $1 AND role_id = $2`, userID, roleID)
}

func (r *repository) Assign(ctx context.Context, userID, roleID int64) (UserRole, error) {
	ur := UserRole{UserID: userID, RoleID: roleID}
	err := r.db.QueryRow(ctx, `INSERT INTO user_role (user_id, role_id) VALUES ($1, $2) RETURNING id, created_at`, userID, roleID).
		Scan(&ur.ID, &ur.CreatedAt)
	if db.IsUniqueViolation(err, "user_role_user_id_role_id_key") {
		return UserRole{}, ErrAlreadyAssigned
	}
	return ur, err
}

func (r *repository) Unassign(ctx context.Context, userID, roleID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM user_role WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

func (r *repository) ListUserRoles(ctx context.Context, userID int64) ([]roles.Role, error) {
	rows, err := r.db.Query(ctx, `SELECT r.id, r.name, r.description, r.created_at, r.updated_at, `+roles.PermissionsAggregate+`
FROM user_role ur
JOIN role r ON r.id = ur.role_id
LEFT JOIN role_permission rp ON rp.role_id = r.id
WHERE ur.user_id = $1
GROUP BY ur.id, r.id
ORDER BY ur.id`, userID)
	if err != nil {
		return nil, err
	}
	return roles.CollectRoles(rows)
}
