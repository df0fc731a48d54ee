package repository

import (
	"context"

	"gorm.io/gorm"

	"taskapi/internal/model"
)

// CategoryRepository defines task category persistence operations.
type CategoryRepository interface {
	Create(ctx context.Context, category *model.TaskCategory) error
	Update(ctx context.Context, category *model.TaskCategory) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.TaskCategory, error)
	FindByName(ctx context.Context, name string) (*model.TaskCategory, error)
	FindByOwner(ctx context.Context, ownerID, id uint) (*model.TaskCategory, error)
	FindByOwnerAndName(ctx context.Context, ownerID uint, name string) (*model.TaskCategory, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]model.TaskCategory, error)
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository.
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// Create creates a new category.
func (r *categoryRepository) Create(ctx context.Context, category *model.TaskCategory) error {
	return r.db.WithContext(ctx).Omit("User").Create(category).Error
}

// Update saves every column of an existing category.
func (r *categoryRepository) Update(ctx context.Context, category *model.TaskCategory) error {
	return r.db.WithContext(ctx).Omit("User").Save(category).Error
}

// Delete removes a category; tasks referencing it go with it through ON DELETE CASCADE.
func (r *categoryRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.TaskCategory{}, id).Error
}

// FindByID finds a category by ID regardless of owner.
func (r *categoryRepository) FindByID(ctx context.Context, id uint) (*model.TaskCategory, error) {
	var category model.TaskCategory
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// FindByName finds a category by its globally unique name.
func (r *categoryRepository) FindByName(ctx context.Context, name string) (*model.TaskCategory, error) {
	var category model.TaskCategory
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// FindByOwner finds a category by ID within the owner's categories.
func (r *categoryRepository) FindByOwner(ctx context.Context, ownerID, id uint) (*model.TaskCategory, error) {
	var category model.TaskCategory
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", ownerID, id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// FindByOwnerAndName finds a category by name within the owner's categories.
func (r *categoryRepository) FindByOwnerAndName(ctx context.Context, ownerID uint, name string) (*model.TaskCategory, error) {
	var category model.TaskCategory
	if err := r.db.WithContext(ctx).Where("user_id = ? AND name = ?", ownerID, name).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// ListByOwner lists the owner's categories.
func (r *categoryRepository) ListByOwner(ctx context.Context, ownerID uint) ([]model.TaskCategory, error) {
	var categories []model.TaskCategory
	if err := r.db.WithContext(ctx).Where("user_id = ?", ownerID).Order("id ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}
