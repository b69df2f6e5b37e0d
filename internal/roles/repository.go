package roles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/holocron/holocron/internal/platform/db"
	"github.com/holocron/holocron/internal/shared"
)

// Repository is the read side plus the transaction entry point.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Role, error)
	List(ctx context.Context, page shared.Pagination) ([]Role, error)
	Delete(ctx context.Context, id int64) error
}

// TxRepository holds the statements that run inside one transaction.
type TxRepository interface {
	Get(ctx context.Context, id int64) (Role, error)
	LockByID(ctx context.Context, id int64) (Role, error)
	NameTaken(ctx context.Context, name string, exceptID int64) (bool, error)
	Insert(ctx context.Context, name string, description *string) (int64, error)
	Update(ctx context.Context, id int64, name string, description *string) error
	ReplacePermissions(ctx context.Context, roleID int64, perms []shared.Permission) error
}

// PermissionsAggregate selects a role's permissions in attachment order. It
// expects role_permission joined as rp.
const PermissionsAggregate = `COALESCE(array_agg(rp.permission ORDER BY rp.id) FILTER (WHERE rp.permission IS NOT NULL), '{}')`

const selectRoles = `SELECT r.id, r.name, r.description, r.created_at, r.updated_at, ` + PermissionsAggregate + `
FROM role r
LEFT JOIN role_permission rp ON rp.role_id = r.id`

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

func (r *repository) Get(ctx context.Context, id int64) (Role, error) {
	rows, err := r.db.Query(ctx, selectRoles+`
WHERE r.id = $1
GROUP BY r.id`, id)
	if err != nil {
		return Role{}, err
	}
	roles, err := CollectRoles(rows)
	if err != nil {
		return Role{}, err
	}
	if len(roles) == 0 {
		return Role{}, ErrNotFound
	}
	return roles[0], nil
}

func (r *repository) List(ctx context.Context, page shared.Pagination) ([]Role, error) {
	rows, err := r.db.Query(ctx, selectRoles+`
GROUP BY r.id
ORDER BY r.id
OFFSET $1 LIMIT $2`, page.Offset, page.Limit)
	if err != nil {
		return nil, err
	}
	return CollectRoles(rows)
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM role WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) LockByID(ctx context.Context, id int64) (Role, error) {
	var role Role
	err := r.db.QueryRow(ctx, `SELECT id, name, description, created_at, updated_at
FROM role WHERE id = $1 FOR UPDATE`, id).
		Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, ErrNotFound
	}
	return role, err
}

func (r *repository) NameTaken(ctx context.Context, name string, exceptID int64) (bool, error) {
	var taken bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM role WHERE name = $1 AND id <> $2)`, name, exceptID).Scan(&taken)
	return taken, err
}

func (r *repository) Insert(ctx context.Context, name string, description *string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO role (name, description) VALUES ($1, $2) RETURNING id`, name, description).Scan(&id)
	if db.IsUniqueViolation(err, "role_name_key") {
		return 0, ErrNameTaken
	}
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, name string, description *string) error {
	_, err := r.db.Exec(ctx, `UPDATE role SET name = $2, description = $3, updated_at = NOW() WHERE id = $1`, id, name, description)
	if db.IsUniqueViolation(err, "role_name_key") {
		return ErrNameTaken
	}
	return err
}

func (r *repository) ReplacePermissions(ctx context.Context, roleID int64, perms []shared.Permission) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM role_permission WHERE role_id = $1`, roleID); err != nil {
		return err
	}
	if len(perms) == 0 {
		return nil
	}
	values := make([]string, len(perms))
	for i, p := range perms {
		values[i] = string(p)
	}
	_, err := r.db.Exec(ctx, `INSERT INTO role_permission (role_id, permission)
SELECT $1, p FROM unnest($2::text[]) WITH ORDINALITY AS t(p, ord) ORDER BY ord`, roleID, values)
	return err
}

// CollectRoles scans rows produced by a query selecting id, name,
// description, created_at, updated_at and PermissionsAggregate.
func CollectRoles(rows pgx.Rows) ([]Role, error) {
	defer rows.Close()
	roles := []Role{}
	for rows.Next() {
		var (
			role Role
			raw  []string
		)
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt, &raw); err != nil {
			return nil, err
		}
		perms, err := DecodeStoredPermissions(role.ID, raw)
		if err != nil {
			return nil, err
		}
		role.Permissions = perms
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}
