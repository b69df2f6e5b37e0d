package roles

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/holocron/holocron/internal/platform/cache"
	"github.com/holocron/holocron/internal/shared"
)

// Service handles role business logic.
type Service struct {
	repo     Repository
	cache    *cache.Cache
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService builds Service instance. The cache may be nil.
func NewService(repo Repository, c *cache.Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: c, validate: shared.NewValidator(), logger: logger}
}

// CreateRole stores a role and its permissions in one transaction.
func (s *Service) CreateRole(ctx context.Context, in CreateRoleInput) (Role, error) {
	name, err := s.normalizeName(in.Name)
	if err != nil {
		return Role{}, err
	}
	perms, err := ParsePermissions(in.Permissions)
	if err != nil {
		return Role{}, err
	}

	var role Role
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		taken, err := tx.NameTaken(ctx, name, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrNameTaken
		}
		id, err := tx.Insert(ctx, name, in.Description)
		if err != nil {
			return err
		}
		if err := tx.ReplacePermissions(ctx, id, perms); err != nil {
			return err
		}
		role, err = tx.Get(ctx, id)
		return err
	})
	if err != nil {
		return Role{}, fmt.Errorf("create role: %w", err)
	}
	s.invalidate(ctx)
	s.logger.Info("role created", slog.Int64("role_id", role.ID))
	return role, nil
}

// GetRole returns the role with its current permission set.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	var role Role
	err := s.cache.FetchJSON(ctx, &role, func(ctx context.Context) (any, error) {
		return s.repo.Get(ctx, id)
	}, "role", strconv.FormatInt(id, 10))
	if err != nil {
		return Role{}, err
	}
	return role, nil
}

// ListRoles returns one page of roles ordered by id.
func (s *Service) ListRoles(ctx context.Context, page shared.Pagination) ([]Role, error) {
	roles := []Role{}
	err := s.cache.FetchJSON(ctx, &roles, func(ctx context.Context) (any, error) {
		return s.repo.List(ctx, page)
	}, "roles", strconv.Itoa(page.Offset), strconv.Itoa(page.Limit))
	if err != nil {
		return nil, err
	}
	return roles, nil
}

// UpdateRole applies a partial update. A supplied permission list replaces
// the whole set inside the same transaction as the field update.
func (s *Service) UpdateRole(ctx context.Context, id int64, in UpdateRoleInput) (Role, error) {
	fields := map[string]string{}
	var name string
	if in.Name.Set {
		if in.Name.Null {
			fields["name"] = "must not be null"
		} else if n, err := s.normalizeName(in.Name.Value); err != nil {
			return Role{}, err
		} else {
			name = n
		}
	}
	var perms []shared.Permission
	if in.Permissions.Set {
		if in.Permissions.Null {
			fields["permissions"] = "must not be null"
		} else {
			parsed, err := ParsePermissions(in.Permissions.Value)
			if err != nil {
				return Role{}, err
			}
			perms = parsed
		}
	}
	if len(fields) > 0 {
		return Role{}, shared.InvalidFields(fields)
	}

	var role Role
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if in.Name.Set && name != current.Name {
			taken, err := tx.NameTaken(ctx, name, id)
			if err != nil {
				return err
			}
			if taken {
				return ErrNameTaken
			}
			current.Name = name
		}
		if in.Description.Set {
			current.Description = in.Description.Ptr()
		}
		if in.Name.Set || in.Description.Set {
			if err := tx.Update(ctx, id, current.Name, current.Description); err != nil {
				return err
			}
		}
		if in.Permissions.Set {
			if err := tx.ReplacePermissions(ctx, id, perms); err != nil {
				return err
			}
		}
		role, err = tx.Get(ctx, id)
		return err
	})
	if err != nil {
		return Role{}, fmt.Errorf("update role: %w", err)
	}
	s.invalidate(ctx)
	s.logger.Info("role updated", slog.Int64("role_id", id))
	return role, nil
}

// DeleteRole removes the role together with its permissions and assignments.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	s.invalidate(ctx)
	s.logger.Info("role deleted", slog.Int64("role_id", id))
	return nil
}

func (s *Service) normalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if err := shared.VarError(s.validate, "name", name, "required,max=100"); err != nil {
		return "", err
	}
	return name, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("role cache invalidation failed", slog.Any("error", err))
	}
}
