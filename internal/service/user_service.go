package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"library_management/internal/model"
	"library_management/internal/repository"
)

// UserService manages accounts after registration
type UserService interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	ListStudents(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, caller *model.User, id int64, req model.UpdateUserRequest) (*model.UserProfile, error)
	DeleteUser(ctx context.Context, id int64) error
}

type userService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *userService) ListStudents(ctx context.Context) ([]model.User, error) {
	users, err := s.userRepo.FindByRole(ctx, model.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return users, nil
}

// UpdateUser edits a profile. Users edit themselves, admins edit anyone,
// and only a super-admin may change a role.
func (s *userService) UpdateUser(ctx context.Context, caller *model.User, id int64, req model.UpdateUserRequest) (*model.UserProfile, error) {
	if caller == nil || (caller.ID != id && !caller.Role.AtLeast(model.RoleAdmin)) {
		return nil, ErrNotOwner
	}

	var newRole model.Role
	if req.Role != nil {
		role, err := model.ParseRole(*req.Role)
		if err != nil {
			return nil, ErrInvalidRole
		}
		newRole = role
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user for update: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	// Echoing the current role back is not a change.
	if newRole != "" && newRole != user.Role && !caller.Role.Can(model.CapChangeRoles) {
		return nil, ErrRoleChangeDenied
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		user.Email = normalizeEmail(*req.Email)
	}
	if req.Phone != nil {
		user.Phone = optional(req.Phone)
	}
	if newRole != "" {
		user.Role = newRole
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user.Profile(), nil
}

func (s *userService) DeleteUser(ctx context.Context, id int64) error {
	deleted, err := s.userRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return ErrUserReferenced
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if !deleted {
		return ErrUserNotFound
	}
	return nil
}
