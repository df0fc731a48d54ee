package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"taskapi/internal/service"
)

// UserHandler serves profile and user administration endpoints.
type UserHandler struct {
	svc service.UserService
	log logrus.FieldLogger
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{svc: svc, log: log}
}

// ProfileRequest is a profile update. PUT requires username and email; PATCH
// accepts any subset.
type ProfileRequest struct {
	Username *string `json:"username" validate:"omitempty,max=150"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password"`
}

// GetProfile godoc
// @Summary Get own profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} UserResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/profile/{id}/ [get]
func (h *UserHandler) GetProfile(c echo.Context) error {
	caller, err := identityFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	user, err := h.svc.GetProfile(c.Request().Context(), caller, id)
	if err != nil {
		return respondError(h.log, "user.GetProfile", err)
	}
	return c.JSON(http.StatusOK, NewUserResponse(user))
}

// UpdateProfile godoc
// @Summary Update own profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body ProfileRequest true "Profile fields"
// @Success 200 {object} UserResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /users/profile/{id}/ [put]
// @Router /users/profile/{id}/ [patch]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	caller, err := identityFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req ProfileRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	if err := c.Validate(&req); err != nil {
		return invalidRequest(err)
	}
	if c.Request().Method == http.MethodPut {
		if req.Username == nil {
			return requiredField("username")
		}
		if req.Email == nil {
			return requiredField("email")
		}
	}

	user, err := h.svc.UpdateProfile(c.Request().Context(), caller, id, service.ProfileUpdate{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondError(h.log, "user.UpdateProfile", err)
	}
	return c.JSON(http.StatusOK, NewUserResponse(user))
}

// DeleteUser godoc
// @Summary Delete a user
// @Description Staff may delete any user; everyone else only their own account.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id}/delete/ [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	caller, err := identityFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.svc.DeleteUser(c.Request().Context(), caller, id); err != nil {
		return respondError(h.log, "user.DeleteUser", err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "User deleted successfully"})
}

// ListUsers godoc
// @Summary List all users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/users/ [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context())
	if err != nil {
		return respondError(h.log, "user.ListUsers", err)
	}

	resp := make([]UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, NewUserResponse(&users[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

// DeleteAllUsers godoc
// @Summary Delete every user except superusers
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/users/delete/all/ [delete]
func (h *UserHandler) DeleteAllUsers(c echo.Context) error {
	n, err := h.svc.DeleteAllUsers(c.Request().Context())
	if err != nil {
		return respondError(h.log, "user.DeleteAllUsers", err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: fmt.Sprintf("Successfully deleted %d users", n)})
}
