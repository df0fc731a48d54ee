package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskapi/internal/model"
)

// taskSortColumns maps accepted sort_by values to columns. Every sort is ascending.
var taskSortColumns = map[string]string{
	"due_date":   "due_date",
	"priority":   "priority",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// IsTaskSortField reports whether field is an accepted sort_by value.
func IsTaskSortField(field string) bool {
	_, ok := taskSortColumns[field]
	return ok
}

// TaskQuery is a conjunctive task search within one owner's tasks.
// Nil fields do not constrain the result.
type TaskQuery struct {
	OwnerID     uint
	Status      *model.Status
	Priority    *model.Priority
	DueFrom     *time.Time // inclusive
	DueTo       *time.Time // exclusive
	CategoryID  *uint
	IsCompleted *bool
	SortBy      string
}

// TaskRepository defines task persistence operations. Everything except
// ListAll and DeleteAll is scoped to one owner.
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	Update(ctx context.Context, task *model.Task) error
	FindByOwner(ctx context.Context, ownerID, id uint) (*model.Task, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]model.Task, error)
	DeleteByOwner(ctx context.Context, ownerID, id uint) (int64, error)
	Search(ctx context.Context, q TaskQuery) ([]model.Task, error)
	ListAll(ctx context.Context) ([]model.Task, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

// Create creates a new task without touching its associations.
func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error
}

// Update saves every column of an existing task and refreshes updated_at.
func (r *taskRepository) Update(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(task).Error
}

// FindByOwner finds a task by ID within the owner's tasks.
func (r *taskRepository) FindByOwner(ctx context.Context, ownerID, id uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Preload("Category").
		Where("user_id = ? AND id = ?", ownerID, id).
		First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// ListByOwner lists the owner's tasks.
func (r *taskRepository) ListByOwner(ctx context.Context, ownerID uint) ([]model.Task, error) {
	return r.Search(ctx, TaskQuery{OwnerID: ownerID})
}

// DeleteByOwner deletes a task within the owner's tasks and reports how many rows went.
func (r *taskRepository) DeleteByOwner(ctx context.Context, ownerID, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", ownerID, id).Delete(&model.Task{})
	return res.RowsAffected, res.Error
}

// Search applies q's filters in order and sorts by q.SortBy, then id.
func (r *taskRepository) Search(ctx context.Context, q TaskQuery) ([]model.Task, error) {
	tx := r.db.WithContext(ctx).Preload("Category").Where("user_id = ?", q.OwnerID)

	if q.Status != nil {
		tx = tx.Where("status = ?", *q.Status)
	}
	if q.Priority != nil {
		tx = tx.Where("priority = ?", *q.Priority)
	}
	if q.DueFrom != nil {
		tx = tx.Where("due_date >= ?", *q.DueFrom)
	}
	if q.DueTo != nil {
		tx = tx.Where("due_date < ?", *q.DueTo)
	}
	if q.CategoryID != nil {
		tx = tx.Where("category_id = ?", *q.CategoryID)
	}
	if q.IsCompleted != nil {
		tx = tx.Where("is_completed = ?", *q.IsCompleted)
	}

	if column, ok := taskSortColumns[q.SortBy]; ok {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: column}})
	}
	tx = tx.Order("id ASC")

	var tasks []model.Task
	if err := tx.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListAll lists every task of every user.
func (r *taskRepository) ListAll(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Preload("Category").Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// DeleteAll removes every task of every user in one statement.
func (r *taskRepository) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Task{})
	return res.RowsAffected, res.Error
}
