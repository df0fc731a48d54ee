package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"taskapi/internal/model"
	"taskapi/internal/service"
)

// CategoryHandler serves task category endpoints.
type CategoryHandler struct {
	svc service.CategoryService
	log logrus.FieldLogger
}

// NewCategoryHandler creates a new category handler.
func NewCategoryHandler(svc service.CategoryService, log logrus.FieldLogger) *CategoryHandler {
	return &CategoryHandler{svc: svc, log: log}
}

// CategoryRequest carries a category name. PATCH may omit it.
type CategoryRequest struct {
	Name *string `json:"name" validate:"omitempty,max=100"`
}

// List godoc
// @Summary List own categories
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.TaskCategory
// @Failure 401 {object} errors.ErrorResponse
// @Router /categories/ [get]
func (h *CategoryHandler) List(c echo.Context) error {
	caller, err := identityFrom(c)
	if err != nil {
		return err
	}

	categories, err := h.svc.List(c.Request().Context(), caller)
	if err != nil {
		return respondError(h.log, "category.List", err)
	}
	return c.JSON(http.StatusOK, categories)
}

// Get godoc
// @Summary Get an own category
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 200 {object} model.TaskCategory
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /categories/{id}/ [get]
func (h *CategoryHandler) Get(c echo.Context) error {
	caller, err := identityFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	category, err := h.svc.Get(c.Request().Context(), caller, id)
	if err != nil {
		return respondError(h.log, "category.Get", err)
	}
	return c.JSON(http.StatusOK, category)
}

// Create godoc
// @Summary Create a category
// @Description Names are unique across all users.
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CategoryRequest true "Category"
// @Success 201 {object} model.TaskCategory
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /categories/ [post]
func (h *CategoryHandler) Create(c echo.Context) error {
	caller, err := identityFrom(c)
	if err != nil {
		return err
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	if err := c.Validate(&req); err != nil {
		return invalidRequest(err)
	}
	if req.Name == nil {
		return requiredField("name")
	}

	category, err := h.svc.Create(c.Request().Context(), caller, *req.Name)
	if err != nil {
		return respondError(h.log, "category.Create", err)
	}
	return c.JSON(http.StatusCreated, category)
}

// Update godoc
// @Summary Rename a category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Param request body CategoryRequest true "Category"
// @Success 200 {object} model.TaskCategory
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /categories/{id}/ [put]
// @Router /categories/{id}/ [patch]
func (h *CategoryHandler) Update(c echo.Context) error {
	caller, err := identityFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	if err := c.Validate(&req); err != nil {
		return invalidRequest(err)
	}
	if c.Request().Method == http.MethodPut && req.Name == nil {
		return requiredField("name")
	}

	category, err := h.svc.Update(c.Request().Context(), caller, id, model.CategoryPatch{Name: req.Name})
	if err != nil {
		return respondError(h.log, "category.Update", err)
	}
	return c.JSON(http.StatusOK, category)
}

// Delete godoc
// @Summary Delete a category and its tasks
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /categories/{id}/ [delete]
func (h *CategoryHandler) Delete(c echo.Context) error {
	caller, err := identityFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	name, err := h.svc.Delete(c.Request().Context(), caller, id)
	if err != nil {
		return respondError(h.log, "category.Delete", err)
	}
	return c.JSON(http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Category '%s' has been successfully deleted.", name),
	})
}
