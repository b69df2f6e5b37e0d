package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/holocron/holocron/internal/platform/cache"
	"github.com/holocron/holocron/internal/shared"
)

// Service handles user business logic.
type Service struct {
	repo     Repository
	cache    *cache.Cache
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService builds Service instance. The cache is the RBAC read cache and
// may be nil; deleting a user invalidates it.
func NewService(repo Repository, c *cache.Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: c, validate: shared.NewValidator(), logger: logger}
}

// CreateUser registers a new user. Username and email must be unused.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	in.Username = normalizeText(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Name = normalizeOptional(in.Name)
	if err := s.validate.Struct(in); err != nil {
		return User{}, shared.ValidationError(err)
	}
	user := User{Username: in.Username, Email: in.Email, Name: in.Name, IsActive: true}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := checkUnique(ctx, tx, user.Username, user.Email, 0); err != nil {
			return err
		}
		created, err := tx.Insert(ctx, user)
		if err != nil {
			return err
		}
		user = created
		return nil
	})
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user created", slog.Int64("user_id", user.ID))
	return user, nil
}

// GetUser returns the user with the given id.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// FindUserByEmail looks a user up by exact email.
func (s *Service) FindUserByEmail(ctx context.Context, email string) (User, error) {
	return s.repo.FindByEmail(ctx, email)
}

// FindUserByUsername looks a user up by exact username.
func (s *Service) FindUserByUsername(ctx context.Context, username string) (User, error) {
	return s.repo.FindByUsername(ctx, username)
}

// ListUsers returns one page of users ordered by id.
func (s *Service) ListUsers(ctx context.Context, page shared.Pagination) ([]User, error) {
	return s.repo.List(ctx, page)
}

// UpdateUser applies the fields present in the request.
func (s *Service) UpdateUser(ctx context.Context, id int64, in UpdateUserInput) (User, error) {
	if err := s.validateUpdate(&in); err != nil {
		return User{}, err
	}

	var user User
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.LockByID(ctx, id)
		if err != nil {
			return err
		}
		username, email := "", ""
		if in.Username.Set && in.Username.Value != current.Username {
			username = in.Username.Value
			current.Username = username
		}
		if in.Email.Set && in.Email.Value != current.Email {
			email = in.Email.Value
			current.Email = email
		}
		if err := checkUnique(ctx, tx, username, email, id); err != nil {
			return err
		}
		if in.Name.Set {
			current.Name = in.Name.Ptr()
		}
		if in.IsActive.Set {
			current.IsActive = in.IsActive.Value
		}
		user, err = tx.Update(ctx, current)
		return err
	})
	if err != nil {
		return User{}, fmt.Errorf("update user: %w", err)
	}
	s.logger.Info("user updated", slog.Int64("user_id", id))
	return user, nil
}

// SetActive flips the active flag. Repeating the same value is not an error.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) (User, error) {
	user, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return User{}, fmt.Errorf("set user active: %w", err)
	}
	s.logger.Info("user status changed", slog.Int64("user_id", id), slog.Bool("active", active))
	return user, nil
}

// DeleteUser removes the user and its role assignments.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("rbac cache invalidation failed", slog.Any("error", err))
	}
	s.logger.Info("user deleted", slog.Int64("user_id", id))
	return nil
}

func (s *Service) validateUpdate(in *UpdateUserInput) error {
	fields := map[string]string{}
	check := func(field string, value any, tag string) {
		err := shared.VarError(s.validate, field, value, tag)
		var domainErr *shared.Error
		switch {
		case err == nil:
		case errors.As(err, &domainErr):
			fields[field] = domainErr.Fields[field]
		default:
			fields[field] = err.Error()
		}
	}
	if in.Username.Set {
		if in.Username.Null {
			fields["username"] = "must not be null"
		} else {
			in.Username.Value = normalizeText(in.Username.Value)
			check("username", in.Username.Value, "required,max=50")
		}
	}
	if in.Email.Set {
		if in.Email.Null {
			fields["email"] = "must not be null"
		} else {
			in.Email.Value = strings.TrimSpace(in.Email.Value)
			check("email", in.Email.Value, "required,email,max=255")
		}
	}
	if in.Name.Set && !in.Name.Null {
		in.Name.Value = normalizeText(in.Name.Value)
		check("name", in.Name.Value, "max=100")
	}
	if in.IsActive.Set && in.IsActive.Null {
		fields["is_active"] = "must not be null"
	}
	if len(fields) > 0 {
		return shared.InvalidFields(fields)
	}
	return nil
}

// checkUnique rejects a username or email owned by a user other than
// exceptID. Empty values are skipped.
func checkUnique(ctx context.Context, tx TxRepository, username, email string, exceptID int64) error {
	if username != "" {
		taken, err := tx.UsernameTaken(ctx, username, exceptID)
		if err != nil {
			return err
		}
		if taken {
			return ErrUsernameTaken
		}
	}
	if email != "" {
		taken, err := tx.EmailTaken(ctx, email, exceptID)
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}
	}
	return nil
}
