package handler

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"taskapi/internal/auth"
	"taskapi/internal/errors"
)

// Context keys set by the authentication middleware.
const (
	ClaimsKey   = "user"
	identityKey = "identity"
)

// MessageResponse is the body of endpoints that only report an outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// SetIdentity stores the authenticated caller on the request context.
func SetIdentity(c echo.Context, identity auth.Identity) {
	c.Set(identityKey, identity)
}

// ClaimsFrom returns the validated access token claims, if any.
func ClaimsFrom(c echo.Context) (*auth.Claims, bool) {
	claims, ok := c.Get(ClaimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}

// IdentityFrom returns the authenticated caller, if any.
func IdentityFrom(c echo.Context) (auth.Identity, bool) {
	identity, ok := c.Get(identityKey).(auth.Identity)
	return identity, ok
}

func identityFrom(c echo.Context) (auth.Identity, error) {
	identity, ok := IdentityFrom(c)
	if !ok {
		return auth.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
			Error: "authentication credentials were not provided",
			Code:  "UNAUTHORIZED",
		})
	}
	return identity, nil
}

// respondError converts a service error into an echo HTTP error. Unexpected
// failures are logged and hidden behind a generic message.
func respondError(log logrus.FieldLogger, op string, err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	if httpErr.IsInternal() {
		log.WithField("operation", op).WithError(err).Error("request failed")
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func invalidBody() error {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: "invalid request body",
		Code:  "INVALID_REQUEST",
	})
}

// invalidRequest reports the first failed struct validation rule as a field error.
func invalidRequest(err error) error {
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		})
	}

	fe := fieldErrs[0]
	var msg string
	switch fe.Tag() {
	case "required":
		msg = "This field is required."
	case "email":
		msg = "Enter a valid email address."
	case "min":
		msg = fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "max":
		msg = fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	default:
		msg = "Invalid value."
	}
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: msg,
		Code:  "VALIDATION_ERROR",
		Field: fe.Field(),
	})
}

func requiredField(field string) error {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: "This field is required.",
		Code:  "VALIDATION_ERROR",
		Field: field,
	})
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, errors.ErrorResponse{
			Error: "Not found.",
			Code:  "NOT_FOUND",
		})
	}
	return uint(id), nil
}
