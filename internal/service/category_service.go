package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"taskapi/internal/auth"
	apperrors "taskapi/internal/errors"
	"taskapi/internal/model"
	"taskapi/internal/repository"
)

const (
	msgCategoryNotFound   = "Category not found."
	msgCategoryNameTaken  = "task category with this name already exists."
	msgCategoryEditDenied = "You do not have permission to edit this category."
	msgCategoryDelDenied  = "You do not have permission to delete this category."
	msgCategoryNameBlank  = "This field may not be blank."
	maxCategoryNameLength = 100
)

// CategoryService manages task categories on behalf of their owners.
type CategoryService interface {
	List(ctx context.Context, caller auth.Identity) ([]model.TaskCategory, error)
	Get(ctx context.Context, caller auth.Identity, id uint) (*model.TaskCategory, error)
	Create(ctx context.Context, caller auth.Identity, name string) (*model.TaskCategory, error)
	Update(ctx context.Context, caller auth.Identity, id uint, patch model.CategoryPatch) (*model.TaskCategory, error)
	Delete(ctx context.Context, caller auth.Identity, id uint) (string, error)
}

type categoryService struct {
	repo repository.CategoryRepository
}

// NewCategoryService creates a new category service.
func NewCategoryService(repo repository.CategoryRepository) CategoryService {
	return &categoryService{repo: repo}
}

// List returns the caller's categories.
func (s *categoryService) List(ctx context.Context, caller auth.Identity) ([]model.TaskCategory, error) {
	categories, err := s.repo.ListByOwner(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// Get returns one of the caller's categories.
func (s *categoryService) Get(ctx context.Context, caller auth.Identity, id uint) (*model.TaskCategory, error) {
	category, err := s.repo.FindByOwner(ctx, caller.UserID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError(msgCategoryNotFound)
		}
		return nil, fmt.Errorf("find category: %w", err)
	}
	return category, nil
}

// Create adds a category owned by the caller. Names are unique across all users.
func (s *categoryService) Create(ctx context.Context, caller auth.Identity, name string) (*model.TaskCategory, error) {
	name, err := normalizeCategoryName(name)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, name, 0); err != nil {
		return nil, err
	}

	category := &model.TaskCategory{Name: name, UserID: caller.UserID}
	if err := s.repo.Create(ctx, category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.NewConflictError(msgCategoryNameTaken)
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

// Update renames a category. Only the owner may change it.
func (s *categoryService) Update(ctx context.Context, caller auth.Identity, id uint, patch model.CategoryPatch) (*model.TaskCategory, error) {
	category, err := s.ownedForWrite(ctx, caller, id, msgCategoryEditDenied)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name, err := normalizeCategoryName(*patch.Name)
		if err != nil {
			return nil, err
		}
		if err := s.ensureNameFree(ctx, name, category.ID); err != nil {
			return nil, err
		}
		patch.Name = &name
	}

	patch.Apply(category)
	if err := s.repo.Update(ctx, category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.NewConflictError(msgCategoryNameTaken)
		}
		return nil, fmt.Errorf("update category: %w", err)
	}
	return category, nil
}

// Delete removes a category and its tasks, returning the deleted name.
func (s *categoryService) Delete(ctx context.Context, caller auth.Identity, id uint) (string, error) {
	category, err := s.ownedForWrite(ctx, caller, id, msgCategoryDelDenied)
	if err != nil {
		return "", err
	}
	if err := s.repo.Delete(ctx, category.ID); err != nil {
		return "", fmt.Errorf("delete category: %w", err)
	}
	return category.Name, nil
}

// ownedForWrite loads a category by ID and rejects callers who do not own it.
func (s *categoryService) ownedForWrite(ctx context.Context, caller auth.Identity, id uint, denied string) (*model.TaskCategory, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError(msgCategoryNotFound)
		}
		return nil, fmt.Errorf("find category: %w", err)
	}
	if category.UserID != caller.UserID {
		return nil, apperrors.NewPermissionError(denied)
	}
	return category, nil
}

func (s *categoryService) ensureNameFree(ctx context.Context, name string, selfID uint) error {
	existing, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("check category name: %w", err)
	}
	if existing.ID != selfID {
		return apperrors.NewConflictError(msgCategoryNameTaken)
	}
	return nil
}

func normalizeCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.NewValidationError("name", msgCategoryNameBlank)
	}
	if len([]rune(name)) > maxCategoryNameLength {
		return "", apperrors.NewValidationError("name", fmt.Sprintf("Ensure this field has no more than %d characters.", maxCategoryNameLength))
	}
	return name, nil
}
