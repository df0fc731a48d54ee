package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"taskapi/internal/auth"
	apperrors "taskapi/internal/errors"
	"taskapi/internal/model"
	"taskapi/internal/repository"
)

const (
	msgTaskNotFound   = "Task not found"
	msgFieldRequired  = "This field is required."
	msgFieldBlank     = "This field may not be blank."
	maxTaskTitleRunes = 255
)

// CategoryRef names a category either by primary key or by name.
type CategoryRef struct {
	ID   uint
	Name string
	ByID bool
}

// CategoryByID refers to a category by primary key.
func CategoryByID(id uint) CategoryRef {
	return CategoryRef{ID: id, ByID: true}
}

// CategoryByName refers to a category by its unique name.
func CategoryByName(name string) CategoryRef {
	return CategoryRef{Name: name}
}

func (r CategoryRef) empty() bool {
	return !r.ByID && strings.TrimSpace(r.Name) == ""
}

// CreateTaskInput carries the raw fields of a new task.
type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     string
	Priority    string
	Status      string
	IsCompleted *bool
	Category    CategoryRef
}

// UpdateTaskInput carries a partial task update. Nil fields are left untouched.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	DueDate     *string
	Priority    *string
	Status      *string
	IsCompleted *bool
	Category    *CategoryRef
}

// TaskService manages tasks. Every operation except ListAll and DeleteAll is
// scoped to the caller's own tasks.
type TaskService interface {
	List(ctx context.Context, caller auth.Identity) ([]model.Task, error)
	Get(ctx context.Context, caller auth.Identity, id uint) (*model.Task, error)
	Create(ctx context.Context, caller auth.Identity, input CreateTaskInput) (*model.Task, error)
	Update(ctx context.Context, caller auth.Identity, id uint, input UpdateTaskInput) (*model.Task, error)
	Delete(ctx context.Context, caller auth.Identity, id uint) (string, error)
	ToggleComplete(ctx context.Context, caller auth.Identity, id uint) (*model.Task, error)
	MarkIncomplete(ctx context.Context, caller auth.Identity, id uint) (*model.Task, error)
	Filter(ctx context.Context, caller auth.Identity, params TaskFilterParams) ([]model.Task, error)
	ListAll(ctx context.Context) ([]model.Task, error)
	DeleteAll(ctx context.Context) (int64, error)
	Location() *time.Location
}

type taskService struct {
	tasks      repository.TaskRepository
	categories repository.CategoryRepository
	validator  *TaskValidator
}

// NewTaskService creates a new task service.
func NewTaskService(tasks repository.TaskRepository, categories repository.CategoryRepository, validator *TaskValidator) TaskService {
	return &taskService{
		tasks:      tasks,
		categories: categories,
		validator:  validator,
	}
}

// Location is the time zone naive dates and rendered timestamps use.
func (s *taskService) Location() *time.Location {
	return s.validator.Location()
}

// List returns the caller's tasks.
func (s *taskService) List(ctx context.Context, caller auth.Identity) ([]model.Task, error) {
	tasks, err := s.tasks.ListByOwner(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Get returns one of the caller's tasks.
func (s *taskService) Get(ctx context.Context, caller auth.Identity, id uint) (*model.Task, error) {
	task, err := s.tasks.FindByOwner(ctx, caller.UserID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError(msgTaskNotFound)
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return task, nil
}

// Create validates input and stores a new task owned by the caller.
func (s *taskService) Create(ctx context.Context, caller auth.Identity, input CreateTaskInput) (*model.Task, error) {
	title, err := validateTitle(input.Title)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.DueDate) == "" {
		return nil, apperrors.NewValidationError("due_date", msgFieldRequired)
	}
	due, err := s.validator.ValidateDueDate(strings.TrimSpace(input.DueDate))
	if err != nil {
		return nil, err
	}

	priority := model.PriorityMedium
	if input.Priority != "" {
		if priority, err = model.ParsePriority(input.Priority); err != nil {
			return nil, err
		}
	}

	status := model.StatusPending
	if input.Status != "" {
		if status, err = model.ParseStatus(input.Status); err != nil {
			return nil, err
		}
	}

	if input.Category.empty() {
		return nil, apperrors.NewValidationError("category", msgFieldRequired)
	}
	category, err := s.resolveCategory(ctx, input.Category)
	if err != nil {
		return nil, err
	}

	task := &model.Task{
		Title:       title,
		Description: input.Description,
		DueDate:     due,
		Priority:    priority,
		Status:      status,
		UserID:      caller.UserID,
		CategoryID:  category.ID,
	}
	if input.IsCompleted != nil {
		task.IsCompleted = *input.IsCompleted
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	task.Category = category
	return task, nil
}

// Update applies a partial update to one of the caller's tasks. Status and
// is_completed are written as given; neither is derived from the other.
func (s *taskService) Update(ctx context.Context, caller auth.Identity, id uint, input UpdateTaskInput) (*model.Task, error) {
	task, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	patch, err := s.buildPatch(ctx, input)
	if err != nil {
		return nil, err
	}

	patch.Apply(task)
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.Get(ctx, caller, id)
}

func (s *taskService) buildPatch(ctx context.Context, input UpdateTaskInput) (model.TaskPatch, error) {
	var patch model.TaskPatch

	if input.Title != nil {
		title, err := validateTitle(*input.Title)
		if err != nil {
			return patch, err
		}
		patch.Title = &title
	}
	patch.Description = input.Description
	if input.DueDate != nil {
		due, err := s.validator.ValidateDueDate(strings.TrimSpace(*input.DueDate))
		if err != nil {
			return patch, err
		}
		patch.DueDate = &due
	}
	if input.Priority != nil {
		priority, err := model.ParsePriority(*input.Priority)
		if err != nil {
			return patch, err
		}
		patch.Priority = &priority
	}
	if input.Status != nil {
		status, err := model.ParseStatus(*input.Status)
		if err != nil {
			return patch, err
		}
		patch.Status = &status
	}
	patch.IsCompleted = input.IsCompleted
	if input.Category != nil {
		category, err := s.resolveCategory(ctx, *input.Category)
		if err != nil {
			return patch, err
		}
		patch.CategoryID = &category.ID
	}
	return patch, nil
}

// Delete removes one of the caller's tasks and returns its title.
func (s *taskService) Delete(ctx context.Context, caller auth.Identity, id uint) (string, error) {
	task, err := s.Get(ctx, caller, id)
	if err != nil {
		return "", err
	}

	n, err := s.tasks.DeleteByOwner(ctx, caller.UserID, task.ID)
	if err != nil {
		return "", fmt.Errorf("delete task: %w", err)
	}
	if n == 0 {
		return "", apperrors.NewNotFoundError(msgTaskNotFound)
	}
	return task.Title, nil
}

// ToggleComplete flips completion and sets status to match.
func (s *taskService) ToggleComplete(ctx context.Context, caller auth.Identity, id uint) (*model.Task, error) {
	return s.transition(ctx, caller, id, (*model.Task).ToggleComplete)
}

// MarkIncomplete forces a task back to pending. Repeating it changes nothing.
func (s *taskService) MarkIncomplete(ctx context.Context, caller auth.Identity, id uint) (*model.Task, error) {
	return s.transition(ctx, caller, id, (*model.Task).MarkIncomplete)
}

func (s *taskService) transition(ctx context.Context, caller auth.Identity, id uint, apply func(*model.Task)) (*model.Task, error) {
	task, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	apply(task)
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return task, nil
}

// ListAll returns every task of every user.
func (s *taskService) ListAll(ctx context.Context) ([]model.Task, error) {
	tasks, err := s.tasks.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all tasks: %w", err)
	}
	return tasks, nil
}

// DeleteAll removes every task of every user and reports how many went.
func (s *taskService) DeleteAll(ctx context.Context) (int64, error) {
	n, err := s.tasks.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete all tasks: %w", err)
	}
	return n, nil
}

// resolveCategory looks a category up by ID or by name, as ref says. The
// category may belong to any user.
func (s *taskService) resolveCategory(ctx context.Context, ref CategoryRef) (*model.TaskCategory, error) {
	if ref.ByID {
		category, err := s.categories.FindByID(ctx, ref.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NewValidationError("category", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", ref.ID))
			}
			return nil, fmt.Errorf("find category: %w", err)
		}
		return category, nil
	}

	name := strings.TrimSpace(ref.Name)
	category, err := s.categories.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewValidationError("category", fmt.Sprintf("Object with name=%s does not exist.", name))
		}
		return nil, fmt.Errorf("find category: %w", err)
	}
	return category, nil
}

func validateTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", apperrors.NewValidationError("title", msgFieldBlank)
	}
	if len([]rune(title)) > maxTaskTitleRunes {
		return "", apperrors.NewValidationError("title", fmt.Sprintf("Ensure this field has no more than %d characters.", maxTaskTitleRunes))
	}
	return title, nil
}
