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
	msgFilterStatus      = "Invalid status. Must be either 'Pending' or 'Completed'."
	msgFilterPriority    = "Invalid priority. Must be 'Low', 'Medium', or 'High'."
	msgFilterDueDate     = "Invalid due_date. Must be in YYYY-MM-DD format."
	msgFilterCategory    = "Category '%s' does not exist or does not belong to you."
	msgFilterIsCompleted = "Invalid is_completed. Must be 'true' or 'false'."
	msgFilterSortBy      = "Invalid sorting parameter. Must be 'due_date', 'priority', 'created_at', or 'updated_at'."
)

// TaskFilterParams are the raw query parameters of a task search. Empty
// values leave the corresponding filter off.
type TaskFilterParams struct {
	Status      string
	Priority    string
	DueDate     string
	Category    string
	IsCompleted string
	SortBy      string
}

// Filter searches the caller's tasks. Parameters are checked in a fixed order
// and the first invalid one fails the whole search.
func (s *taskService) Filter(ctx context.Context, caller auth.Identity, params TaskFilterParams) ([]model.Task, error) {
	q, err := s.buildQuery(ctx, caller, params)
	if err != nil {
		return nil, err
	}

	tasks, err := s.tasks.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search tasks: %w", err)
	}
	return tasks, nil
}

func (s *taskService) buildQuery(ctx context.Context, caller auth.Identity, params TaskFilterParams) (repository.TaskQuery, error) {
	q := repository.TaskQuery{OwnerID: caller.UserID}

	if params.Status != "" {
		status, err := model.ParseStatus(params.Status)
		if err != nil {
			return q, apperrors.NewValidationError("status", msgFilterStatus)
		}
		q.Status = &status
	}

	if params.Priority != "" {
		priority, err := model.ParsePriority(params.Priority)
		if err != nil {
			return q, apperrors.NewValidationError("priority", msgFilterPriority)
		}
		q.Priority = &priority
	}

	if params.DueDate != "" {
		from, to, ok := s.validator.ParseDay(params.DueDate)
		if !ok {
			return q, apperrors.NewValidationError("due_date", msgFilterDueDate)
		}
		q.DueFrom, q.DueTo = &from, &to
	}

	if params.Category != "" {
		category, err := s.categories.FindByOwnerAndName(ctx, caller.UserID, params.Category)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return q, apperrors.NewValidationError("category", fmt.Sprintf(msgFilterCategory, params.Category))
			}
			return q, fmt.Errorf("find category: %w", err)
		}
		q.CategoryID = &category.ID
	}

	if params.IsCompleted != "" {
		var completed bool
		switch strings.ToLower(params.IsCompleted) {
		case "true":
			completed = true
		case "false":
			completed = false
		default:
			return q, apperrors.NewValidationError("is_completed", msgFilterIsCompleted)
		}
		q.IsCompleted = &completed
	}

	if params.SortBy != "" {
		if !repository.IsTaskSortField(params.SortBy) {
			return q, apperrors.NewValidationError("sort_by", msgFilterSortBy)
		}
		q.SortBy = params.SortBy
	}

	return q, nil
}
