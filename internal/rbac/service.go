package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/holocron/holocron/internal/platform/cache"
	"github.com/holocron/holocron/internal/roles"
	"github.com/holocron/holocron/internal/shared"
)

// Service orchestrates user-role assignments and exposes the permission catalog.
type Service struct {
	repo   Repository
	cache  *cache.Cache
	logger *slog.Logger
}

// NewService constructs a Service. The cache may be nil.
func NewService(repo Repository, c *cache.Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: c, logger: logger}
}

// ListPermissions returns the fixed permission catalog.
func (s *Service) ListPermissions(context.Context) []shared.PermissionEntry {
	return shared.PermissionCatalog()
}

// AssignRole grants roleID to userID. Both must exist and the pair must be new.
func (s *Service) AssignRole(ctx context.Context, userID, roleID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ok, err := tx.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrUserNotFound
		}
		if ok, err = tx.LockRole(ctx, roleID); err != nil {
			return err
		}
		if !ok {
			return ErrRoleNotFound
		}
		assigned, err := tx.Assigned(ctx, userID, roleID)
		if err != nil {
			return err
		}
		if assigned {
			return ErrAlreadyAssigned
		}
		_, err = tx.Assign(ctx, userID, roleID)
		return err
	})
	if err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	s.invalidate(ctx)
	s.logger.Info("role assigned", slog.Int64("user_id", userID), slog.Int64("role_id", roleID))
	return nil
}

// UnassignRole removes the pair. A missing user, role or pair all report
// ErrAssignmentNotFound.
func (s *Service) UnassignRole(ctx context.Context, userID, roleID int64) error {
	if err := s.repo.Unassign(ctx, userID, roleID); err != nil {
		return fmt.Errorf("unassign role: %w", err)
	}
	s.invalidate(ctx)
	s.logger.Info("role unassigned", slog.Int64("user_id", userID), slog.Int64("role_id", roleID))
	return nil
}

// ListUserRoles returns the user's roles in assignment order.
func (s *Service) ListUserRoles(ctx context.Context, userID int64) ([]roles.Role, error) {
	out := []roles.Role{}
	err := s.cache.FetchJSON(ctx, &out, func(ctx context.Context) (any, error) {
		ok, err := s.repo.UserExists(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrUserNotFound
		}
		return s.repo.ListUserRoles(ctx, userID)
	}, "user-roles", strconv.FormatInt(userID, 10))
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("rbac cache invalidation failed", slog.Any("error", err))
	}
}
