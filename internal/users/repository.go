package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/holocron/holocron/internal/platform/db"
	"github.com/holocron/holocron/internal/shared"
)

// Repository defines data access methods for users.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByUsername(ctx context.Context, username string) (User, error)
	List(ctx context.Context, page shared.Pagination) ([]User, error)
	SetActive(ctx context.Context, id int64, active bool) (User, error)
	Delete(ctx context.Context, id int64) error
}

// TxRepository holds the statements that run inside one transaction.
type TxRepository interface {
	LockByID(ctx context.Context, id int64) (User, error)
	UsernameTaken(ctx context.Context, username string, exceptID int64) (bool, error)
	EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error)
	Insert(ctx context.Context, u User) (User, error)
	Update(ctx context.Context, u User) (User, error)
}

const userColumns = `id, username, email, name, is_active, created_at, updated_at`

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

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Name, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (r *repository) Get(ctx context.Context, id int64) (User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM "user" WHERE id = $1`, id))
}

func (r *repository) FindByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM "user" WHERE email = $1`, email))
}

func (r *repository) FindByUsername(ctx context.Context, username string) (User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM "user" WHERE username = $1`, username))
}

func (r *repository) List(ctx context.Context, page shared.Pagination) ([]User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM "user" ORDER BY id OFFSET $1 LIMIT $2`, page.Offset, page.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *repository) SetActive(ctx context.Context, id int64, active bool) (User, error) {
	return scanUser(r.db.QueryRow(ctx, `UPDATE "user" SET is_active = $2, updated_at = NOW()
WHERE id = $1 RETURNING `+userColumns, id, active))
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM "user" WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) LockByID(ctx context.Context, id int64) (User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM "user" WHERE id = $1 FOR UPDATE`, id))
}

func (r *repository) UsernameTaken(ctx context.Context, username string, exceptID int64) (bool, error) {
	var taken bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM "user" WHERE username = $1 AND id <> $2)`, username, exceptID).Scan(&taken)
	return taken, err
}

func (r *repository) EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	var taken bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM "user" WHERE email = $1 AND id <> $2)`, email, exceptID).Scan(&taken)
	return taken, err
}

func (r *repository) Insert(ctx context.Context, u User) (User, error) {
	created, err := scanUser(r.db.QueryRow(ctx, `INSERT INTO "user" (username, email, name, is_active)
VALUES ($1, $2, $3, $4) RETURNING `+userColumns, u.Username, u.Email, u.Name, u.IsActive))
	return created, mapUniqueViolation(err)
}

func (r *repository) Update(ctx context.Context, u User) (User, error) {
	updated, err := scanUser(r.db.QueryRow(ctx, `UPDATE "user"
SET username = $2, email = $3, name = $4, is_active = $5, updated_at = NOW()
WHERE id = $1 RETURNING `+userColumns, u.ID, u.Username, u.Email, u.Name, u.IsActive))
	return updated, mapUniqueViolation(err)
}

func mapUniqueViolation(err error) error {
	switch {
	case db.IsUniqueViolation(err, "user_username_key"):
		return ErrUsernameTaken
	case db.IsUniqueViolation(err, "user_email_key"):
		return ErrEmailTaken
	default:
		return err
	}
}
