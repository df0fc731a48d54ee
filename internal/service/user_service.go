package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"taskapi/internal/auth"
	"taskapi/internal/cache"
	apperrors "taskapi/internal/errors"
	"taskapi/internal/model"
	"taskapi/internal/repository"
)

const userCacheTTL = 5 * time.Minute

const msgUserNotFound = "User not found."

// ProfileUpdate is a partial profile change. Nil fields are left untouched.
type ProfileUpdate struct {
	Username *string
	Email    *string
	Password *string
}

// UserService exposes user account operations.
type UserService interface {
	GetUser(ctx context.Context, id uint) (*model.User, error)
	GetProfile(ctx context.Context, caller auth.Identity, id uint) (*model.User, error)
	UpdateProfile(ctx context.Context, caller auth.Identity, id uint, update ProfileUpdate) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	DeleteUser(ctx context.Context, caller auth.Identity, id uint) error
	DeleteAllUsers(ctx context.Context) (int64, error)
}

type userService struct {
	repo  repository.UserRepository
	cache *cache.Client
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, cache *cache.Client) UserService {
	return &userService{repo: repo, cache: cache}
}

func (s *userService) cacheKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

// GetUser loads a user by ID, serving from cache when possible.
func (s *userService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	var cached model.User
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		return &cached, nil
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError(msgUserNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	_ = s.cache.SetJSON(ctx, s.cacheKey(id), user, userCacheTTL)
	return user, nil
}

// GetProfile returns the caller's own profile. Other IDs read as missing.
func (s *userService) GetProfile(ctx context.Context, caller auth.Identity, id uint) (*model.User, error) {
	if caller.UserID != id {
		return nil, apperrors.NewNotFoundError(msgUserNotFound)
	}
	return s.GetUser(ctx, id)
}

// UpdateProfile applies a partial update to the caller's own profile.
func (s *userService) UpdateProfile(ctx context.Context, caller auth.Identity, id uint, update ProfileUpdate) (*model.User, error) {
	if caller.UserID != id {
		return nil, apperrors.NewNotFoundError(msgUserNotFound)
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError(msgUserNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	var patch model.UserPatch
	if update.Username != nil {
		username := strings.TrimSpace(*update.Username)
		if username == "" {
			return nil, apperrors.NewValidationError("username", "This field may not be blank.")
		}
		patch.Username = &username
	}
	if update.Email != nil {
		email := strings.TrimSpace(*update.Email)
		if email == "" {
			return nil, apperrors.NewValidationError("email", "This field may not be blank.")
		}
		patch.Email = &email
	}
	if update.Password != nil {
		hashed, err := hashPassword(*update.Password)
		if err != nil {
			return nil, err
		}
		patch.PasswordHash = &hashed
	}

	var username, email string
	if patch.Username != nil {
		username = *patch.Username
	}
	if patch.Email != nil {
		email = *patch.Email
	}
	if err := ensureUniqueUser(ctx, s.repo, username, email, user.ID); err != nil {
		return nil, err
	}

	patch.Apply(user)
	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.NewConflictError("a user with that username or email already exists.")
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	_ = s.cache.Delete(ctx, s.cacheKey(user.ID))
	return user, nil
}

// ListUsers lists every user.
func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.List(ctx)
}

// DeleteUser deletes a user. Staff may delete anyone; everyone else only themselves,
// and other IDs read as missing.
func (s *userService) DeleteUser(ctx context.Context, caller auth.Identity, id uint) error {
	if !caller.IsStaff && caller.UserID != id {
		return apperrors.NewNotFoundError(msgUserNotFound)
	}

	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n == 0 {
		return apperrors.NewNotFoundError(msgUserNotFound)
	}

	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return nil
}

// DeleteAllUsers deletes every user except superusers and reports how many went.
func (s *userService) DeleteAllUsers(ctx context.Context) (int64, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	n, err := s.repo.DeleteNonSuperusers(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete users: %w", err)
	}

	keys := make([]string, 0, len(users))
	for _, u := range users {
		if !u.IsSuperuser {
			keys = append(keys, s.cacheKey(u.ID))
		}
	}
	_ = s.cache.Delete(ctx, keys...)
	return n, nil
}
