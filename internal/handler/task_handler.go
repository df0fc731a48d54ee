package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"taskapi/internal/service"
)

// TaskHandler serves task endpoints.
type TaskHandler struct {
	svc service.TaskService
	log logrus.FieldLogger
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(svc service.TaskService, log logrus.FieldLogger) *TaskHandler {
	return &TaskHandler{svc: svc, log: log}
}

// TaskRequest is the body of task create and update calls. Create and PUT
// require title, due_date and category; PATCH accepts any subset.
type TaskRequest struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	DueDate     *string      `json:"due_date" example:"31-12-2026"`
	Priority    *string      `json:"priority" enums:"Low,Medium,High"`
	Status      *string      `json:"status" enums:"Pending,Completed"`
	IsCompleted *bool        `json:"is_completed"`
	Category    *CategoryRef `json:"category" swaggertype:"string"`
}

func (r *TaskRequest) requireFull() error {
	switch {
	case r.Title == nil:
		return requiredField("title")
	case r.DueDate == nil:
		return requiredField("due_date")
	case r.Category == nil:
		return requiredField("category")
	}
	return nil
}

func (r *TaskRequest) createInput() service.CreateTaskInput {
	input := service.CreateTaskInput{
		Title:       *r.Title,
		DueDate:     *r.DueDate,
		Category:    r.Category.ref(),
		IsCompleted: r.IsCompleted,
	}
	if r.Description != nil {
		input.Description = *r.Description
	}
	if r.Priority != nil {
		input.Priority = *r.Priority
	}
	if r.Status != nil {
		input.Status = *r.Status
	}
	return input
}

func (r *TaskRequest) updateInput() service.UpdateTaskInput {
	input := service.UpdateTaskInput{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
		Priority:    r.Priority,
		Status:      r.Status,
		IsCompleted: r.IsCompleted,
	}
	if r.Category != nil {
		category := r.Category.ref()
		input.Category = &category
	}
	return input
}

// List godoc
// @Summary List own tasks
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Success 200 {array} TaskResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /tasks/ [get]
func (h *TaskHandler) List(c echo.Context) error {
	caller, err := identityFrom(c)
	if err != nil {
		return err
	}

	tasks, err := h.svc.List(c.Request().Context(), caller)
	if err != nil {
		return respondError(h.log, "task.List", err)
	}
	return c.JSON(http.StatusOK, NewTaskResponses(tasks, h.svc.Location()))
}

// Get godoc
// @Summary Get an own task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task ID"
// @Success 200 {object} TaskResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id}/ [get]
func (h *TaskHandler) Get(c echo.Context) error {
	caller, err := identityFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	task, err := h.svc.Get(c.Request().Context(), caller, id)
	if err != nil {
		return respondError(h.log, "task.Get", err)
	}
	return c.JSON(http.StatusOK, NewTaskResponse(task, h.svc.Location()))
}

// Create godoc
// @Summary Create a task
// @Description due_date accepts dd-mm-yyyy or ISO-8601 and may not be in the past. category is an ID or a name.
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TaskRequest true "Task"
// @Success 201 {object} TaskResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /tasks/ [post]
func (h *TaskHandler) Create(c echo.Context) error {
	caller, err := identityFrom(c)
	if err != nil {
		return err
	}

	var req TaskRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	if err := req.requireFull(); err != nil {
		return err
	}

	task, err := h.svc.Create(c.Request().Context(), caller, req.createInput())
	if err != nil {
		return respondError(h.log, "task.Create", err)
	}
	return c.JSON(http.StatusCreated, NewTaskResponse(task, h.svc.Location()))
}

// Update godoc
// @Summary Update an own task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task ID"
// @Param request body TaskRequest true "Task fields"
// @Success 200 {object} TaskResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id}/ [put]
// @Router /tasks/{id}/ [patch]
func (h *TaskHandler) Update(c echo.Context) error {
	caller, err := identityFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req TaskRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	if c.Request().Method == http.MethodPut {
		if err := req.requireFull(); err != nil {
			return err
		}
	}

	task, err := h.svc.Update(c.Request().Context(), caller, id, req.updateInput())
	if err != nil {
		return respondError(h.log, "task.Update", err)
	}
	return c.JSON(http.StatusOK, NewTaskResponse(task, h.svc.Location()))
}

// Delete godoc
// @Summary Delete an own task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id}/ [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	caller, err := identityFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	title, err := h.svc.Delete(c.Request().Context(), caller, id)
	if err != nil {
		return respondError(h.log, "task.Delete", err)
	}
	return c.JSON(http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Task '%s' has been successfully deleted.", title),
	})
}

// ToggleComplete godoc
// @Summary Toggle task completion
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task ID"
// @Success 200 {object} CompletionResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id}/complete/ [patch]
func (h *TaskHandler) ToggleComplete(c echo.Context) error {
	caller, err := identityFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	task, err := h.svc.ToggleComplete(c.Request().Context(), caller, id)
	if err != nil {
		return respondError(h.log, "task.ToggleComplete", err)
	}
	return c.JSON(http.StatusOK, NewCompletionResponse(task))
}

// MarkIncomplete godoc
// @Summary Mark a task incomplete
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task ID"
// @Success 200 {object} CompletionResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id}/incomplete/ [patch]
func (h *TaskHandler) MarkIncomplete(c echo.Context) error {
	caller, err := identityFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	task, err := h.svc.MarkIncomplete(c.Request().Context(), caller, id)
	if err != nil {
		return respondError(h.log, "task.MarkIncomplete", err)
	}
	return c.JSON(http.StatusOK, NewCompletionResponse(task))
}

// Filter godoc
// @Summary Filter and sort own tasks
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param status query string false "Pending or Completed"
// @Param priority query string false "Low, Medium or High"
// @Param due_date query string false "YYYY-MM-DD"
// @Param category query string false "Own category name"
// @Param is_completed query string false "true or false"
// @Param sort_by query string false "due_date, priority, created_at or updated_at"
// @Success 200 {array} TaskResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /tasks/filter/ [get]
func (h *TaskHandler) Filter(c echo.Context) error {
	caller, err := identityFrom(c)
	if err != nil {
		return err
	}

	tasks, err := h.svc.Filter(c.Request().Context(), caller, service.TaskFilterParams{
		Status:      c.QueryParam("status"),
		Priority:    c.QueryParam("priority"),
		DueDate:     c.QueryParam("due_date"),
		Category:    c.QueryParam("category"),
		IsCompleted: c.QueryParam("is_completed"),
		SortBy:      c.QueryParam("sort_by"),
	})
	if err != nil {
		return respondError(h.log, "task.Filter", err)
	}
	return c.JSON(http.StatusOK, NewTaskResponses(tasks, h.svc.Location()))
}

// ListAll godoc
// @Summary List every user's tasks
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} TaskResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/tasks/ [get]
func (h *TaskHandler) ListAll(c echo.Context) error {
	tasks, err := h.svc.ListAll(c.Request().Context())
	if err != nil {
		return respondError(h.log, "task.ListAll", err)
	}
	return c.JSON(http.StatusOK, NewTaskResponses(tasks, h.svc.Location()))
}

// DeleteAll godoc
// @Summary Delete every user's tasks
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/tasks/delete/all/ [delete]
func (h *TaskHandler) DeleteAll(c echo.Context) error {
	n, err := h.svc.DeleteAll(c.Request().Context())
	if err != nil {
		return respondError(h.log, "task.DeleteAll", err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: fmt.Sprintf("Successfully deleted %d tasks.", n)})
}
