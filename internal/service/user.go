package service

import (
	"context"
	"log/slog"

	"eventhub/internal/model"
	"eventhub/internal/repository"
	"eventhub/internal/validator"
)

var (
	ErrSelfRoleChange = model.NewForbiddenError("You cannot change your own role")
	ErrSelfDelete     = model.NewForbiddenError("You cannot delete your own account")
)

type RoleRequest struct {
	Role string `json:"role" validate:"required,role"`
}

// UserService holds the admin user management operations.
type UserService struct {
	repo      repository.Repository
	validator *validator.Validator
}

func NewUserService(repo repository.Repository, v *validator.Validator) *UserService {
	return &UserService{repo: repo, validator: v}
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.repo.ListUsers(ctx)
}

func (s *UserService) UpdateRole(ctx context.Context, actorID, userID string, req RoleRequest) (model.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return model.User{}, err
	}
	if actorID == userID {
		return model.User{}, ErrSelfRoleChange
	}

	user, err := s.repo.UpdateUserRole(ctx, userID, model.Role(req.Role))
	if err != nil {
		return model.User{}, err
	}

	slog.InfoContext(ctx, "User role updated", "user_id", userID, "role", user.Role, "admin_id", actorID)
	return user, nil
}

// Delete removes the user and their registrations. Reviews are kept.
func (s *UserService) Delete(ctx context.Context, actorID, userID string) error {
	if actorID == userID {
		return ErrSelfDelete
	}
	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		return err
	}

	slog.InfoContext(ctx, "User deleted", "user_id", userID, "admin_id", actorID)
	return nil
}
