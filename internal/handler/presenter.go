package handler

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"taskapi/internal/model"
	"taskapi/internal/service"
)

const (
	dueDateLayout   = "January 02, 2006"
	timestampLayout = "2006-01-02 15:04:05"
)

// TaskResponse is the rendered form of a task. Dates are formatted in the
// default time zone and the category is shown by name.
type TaskResponse struct {
	ID          uint           `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	DueDate     string         `json:"due_date"`
	Priority    model.Priority `json:"priority"`
	Status      model.Status   `json:"status"`
	Category    string         `json:"category"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
	User        uint           `json:"user"`
	IsCompleted bool           `json:"is_completed"`
}

// CompletionResponse is the body of the complete and incomplete endpoints.
type CompletionResponse struct {
	ID          uint         `json:"id"`
	IsCompleted bool         `json:"is_completed"`
	Status      model.Status `json:"status"`
}

// NewTaskResponse renders t with timestamps in loc.
func NewTaskResponse(t *model.Task, loc *time.Location) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate.In(loc).Format(dueDateLayout),
		Priority:    t.Priority,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt.In(loc).Format(timestampLayout),
		UpdatedAt:   t.UpdatedAt.In(loc).Format(timestampLayout),
		User:        t.UserID,
		IsCompleted: t.IsCompleted,
	}
	if t.Category != nil {
		resp.Category = t.Category.Name
	}
	return resp
}

// NewTaskResponses renders a list of tasks.
func NewTaskResponses(tasks []model.Task, loc *time.Location) []TaskResponse {
	resp := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		resp = append(resp, NewTaskResponse(&tasks[i], loc))
	}
	return resp
}

// NewCompletionResponse renders the completion state of t.
func NewCompletionResponse(t *model.Task) CompletionResponse {
	return CompletionResponse{ID: t.ID, IsCompleted: t.IsCompleted, Status: t.Status}
}

// CategoryRef is a category given either as a JSON number (its ID) or as a
// JSON string (its name).
type CategoryRef struct {
	ID   *uint
	Name string
}

// UnmarshalJSON accepts a JSON number or string.
func (r *CategoryRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*r = CategoryRef{Name: name}
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	id, err := strconv.ParseUint(n.String(), 10, 64)
	if err != nil {
		return err
	}
	v := uint(id)
	*r = CategoryRef{ID: &v}
	return nil
}

func (r CategoryRef) ref() service.CategoryRef {
	if r.ID != nil {
		return service.CategoryByID(*r.ID)
	}
	return service.CategoryByName(r.Name)
}
