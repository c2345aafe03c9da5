package service

import (
	"context"
	stderrors "errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"satshop/internal/errors"
	"satshop/internal/model"
	"satshop/internal/rbac"
	"satshop/internal/repository"
)

// UserService is the account store plus the admin safety guard: every
// mutation is checked against the authorization policy, and destructive
// mutations additionally enforce the self-action and last-admin invariants
// atomically with the change itself.
type UserService interface {
	CreateUser(ctx context.Context, actor *model.User, username, password, role string) (*model.User, error)
	GetUser(ctx context.Context, id uint) (*model.User, error)
	ListUsers(ctx context.Context, actor *model.User) ([]model.User, error)
	UpdateUser(ctx context.Context, actor *model.User, id uint, username, password string) (*model.User, error)
	ChangeRole(ctx context.Context, actor *model.User, id uint, role string) (*model.User, error)
	Deactivate(ctx context.Context, actor *model.User, id uint) (*model.User, error)
	DeleteUser(ctx context.Context, actor *model.User, id uint) error
	EnsureDefaultAdmin(ctx context.Context, username, password string) error
}

type userService struct {
	repo repository.UserRepository
}

// NewUserService builds a UserService over the user repository.
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

// CreateUser creates a staff account. The username must be unique and the
// role must belong to the closed set.
func (s *userService) CreateUser(ctx context.Context, actor *model.User, username, password, role string) (*model.User, error) {
	if !rbac.IsAllowed(actor.Role, rbac.ActionManageUsers) {
		return nil, errors.ErrUnauthorized
	}

	parsedRole, err := rbac.ParseRole(role)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         parsedRole,
		Active:       true,
	}

	err = s.repo.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		existing, err := repo.FindByUsername(ctx, username)
		if err == nil && existing != nil {
			return errors.ErrDuplicateUsername
		}
		if err != nil && !stderrors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check username: %w", err)
		}
		return repo.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	zap.S().Infow("user created", "username", username, "role", parsedRole, "by", actor.Username)
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// ListUsers returns all accounts in creation order.
func (s *userService) ListUsers(ctx context.Context, actor *model.User) ([]model.User, error) {
	if !rbac.IsAllowed(actor.Role, rbac.ActionManageUsers) {
		return nil, errors.ErrUnauthorized
	}
	return s.repo.List(ctx)
}

// UpdateUser edits non-role fields. These pass through unguarded beyond the
// manage-users policy check. Empty username or password leaves the field as is.
func (s *userService) UpdateUser(ctx context.Context, actor *model.User, id uint, username, password string) (*model.User, error) {
	if !rbac.IsAllowed(actor.Role, rbac.ActionManageUsers) {
		return nil, errors.ErrUnauthorized
	}

	var updated *model.User
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		target, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.ErrNotFound
			}
			return err
		}

		if username != "" && username != target.Username {
			existing, err := repo.FindByUsername(ctx, username)
			if err == nil && existing != nil {
				return errors.ErrDuplicateUsername
			}
			if err != nil && !stderrors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("check username: %w", err)
			}
			target.Username = username
		}
		if password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			target.PasswordHash = string(hash)
		}

		if err := repo.Update(ctx, target); err != nil {
			return err
		}
		updated = target
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ChangeRole reassigns a user's role. Demoting the last active admin is
// rejected; the admin count check and the update run in one transaction
// with the admin rows locked.
func (s *userService) ChangeRole(ctx context.Context, actor *model.User, id uint, role string) (*model.User, error) {
	if !rbac.IsAllowed(actor.Role, rbac.ActionManageUsers) {
		return nil, errors.ErrUnauthorized
	}

	newRole, err := rbac.ParseRole(role)
	if err != nil {
		return nil, err
	}

	var updated *model.User
	err = s.repo.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		target, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.ErrNotFound
			}
			return err
		}

		demotingAdmin := target.Active && target.Role == rbac.RoleAdmin && newRole != rbac.RoleAdmin
		if demotingAdmin {
			admins, err := repo.CountActiveAdminsForUpdate(ctx)
			if err != nil {
				return fmt.Errorf("count admins: %w", err)
			}
			if admins <= 1 {
				return errors.ErrLastAdminProtected
			}
		}

		target.Role = newRole
		if err := repo.Update(ctx, target); err != nil {
			return err
		}
		updated = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.S().Infow("role changed", "user", updated.Username, "role", newRole, "by", actor.Username)
	return updated, nil
}

// Deactivate disables an account. Actors cannot deactivate themselves, and
// the last active admin cannot be deactivated.
func (s *userService) Deactivate(ctx context.Context, actor *model.User, id uint) (*model.User, error) {
	if !rbac.IsAllowed(actor.Role, rbac.ActionManageUsers) {
		return nil, errors.ErrUnauthorized
	}
	if actor.ID == id {
		return nil, errors.ErrSelfActionForbidden
	}

	var updated *model.User
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		target, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.ErrNotFound
			}
			return err
		}

		if err := s.guardLastAdmin(ctx, repo, target); err != nil {
			return err
		}

		target.Active = false
		if err := repo.Update(ctx, target); err != nil {
			return err
		}
		updated = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.S().Infow("user deactivated", "user", updated.Username, "by", actor.Username)
	return updated, nil
}

// DeleteUser removes an account entirely, under the same guards as Deactivate.
func (s *userService) DeleteUser(ctx context.Context, actor *model.User, id uint) error {
	if !rbac.IsAllowed(actor.Role, rbac.ActionManageUsers) {
		return errors.ErrUnauthorized
	}
	if actor.ID == id {
		return errors.ErrSelfActionForbidden
	}

	err := s.repo.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		target, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.ErrNotFound
			}
			return err
		}

		if err := s.guardLastAdmin(ctx, repo, target); err != nil {
			return err
		}

		return repo.Delete(ctx, target.ID)
	})
	if err != nil {
		return err
	}

	zap.S().Infow("user deleted", "user_id", id, "by", actor.Username)
	return nil
}

// guardLastAdmin rejects removing or disabling the last active admin.
// Must run inside a transaction holding the admin row locks.
func (s *userService) guardLastAdmin(ctx context.Context, repo repository.UserRepository, target *model.User) error {
	if !target.Active || target.Role != rbac.RoleAdmin {
		return nil
	}
	admins, err := repo.CountActiveAdminsForUpdate(ctx)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if admins <= 1 {
		return errors.ErrLastAdminProtected
	}
	return nil
}

// EnsureDefaultAdmin seeds one admin account when none is active. It is
// idempotent and safe to call on every boot. The default credentials are a
// first-run convenience and must be changed immediately.
func (s *userService) EnsureDefaultAdmin(ctx context.Context, username, password string) error {
	return s.repo.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		admins, err := repo.CountActiveAdminsForUpdate(ctx)
		if err != nil {
			return fmt.Errorf("count admins: %w", err)
		}
		if admins > 0 {
			return nil
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		existing, err := repo.FindByUsername(ctx, username)
		if err == nil && existing != nil {
			// A hand-edited database can hold the default username with no
			// active admin; heal it instead of failing on the unique index.
			existing.Role = rbac.RoleAdmin
			existing.Active = true
			existing.PasswordHash = string(hash)
			if err := repo.Update(ctx, existing); err != nil {
				return err
			}
			zap.S().Warnw("default admin restored, change the password now", "username", username)
			return nil
		}
		if err != nil && !stderrors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check username: %w", err)
		}

		admin := &model.User{
			Username:     username,
			PasswordHash: string(hash),
			Role:         rbac.RoleAdmin,
			Active:       true,
		}
		if err := repo.Create(ctx, admin); err != nil {
			return err
		}
		zap.S().Warnw("default admin seeded, change the password now", "username", username)
		return nil
	})
}
