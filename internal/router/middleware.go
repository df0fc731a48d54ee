package router

import (
	stderrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"taskapi/internal/auth"
	"taskapi/internal/errors"
	"taskapi/internal/handler"
	"taskapi/internal/service"
)

func unauthorized(message string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
		Error: message,
		Code:  "UNAUTHORIZED",
	})
}

// parseAccessToken adapts JWTService to echo-jwt's ParseTokenFunc.
func parseAccessToken(jwtService *auth.JWTService) func(echo.Context, string) (interface{}, error) {
	return func(_ echo.Context, token string) (interface{}, error) {
		claims, err := jwtService.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return claims, nil
	}
}

// authenticate resolves the caller behind validated token claims. Revoked
// tokens and deleted accounts are rejected. A failed blacklist lookup is
// logged and the token is accepted.
func authenticate(users service.UserService, tokens auth.TokenStoreInterface, log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := handler.ClaimsFrom(c)
			if !ok {
				return unauthorized("authentication credentials were not provided")
			}

			ctx := c.Request().Context()
			revoked, err := tokens.IsAccessTokenBlacklisted(ctx, claims.ID)
			if err != nil {
				log.WithField("operation", "router.authenticate").WithError(err).Warn("access token blacklist unavailable")
			}
			if revoked {
				return unauthorized("token has been revoked")
			}

			user, err := users.GetUser(ctx, claims.UserID)
			if err != nil {
				var notFound *errors.NotFoundError
				if stderrors.As(err, &notFound) {
					return unauthorized("user not found")
				}
				log.WithField("operation", "router.authenticate").WithError(err).Error("load user")
				return echo.NewHTTPError(http.StatusInternalServerError, errors.ErrorResponse{
					Error: "internal server error",
					Code:  "INTERNAL_ERROR",
				})
			}

			handler.SetIdentity(c, auth.IdentityOf(user))
			return next(c)
		}
	}
}

// requireStaff lets only staff users through.
func requireStaff(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, ok := handler.IdentityFrom(c)
		if !ok || !identity.IsStaff {
			return echo.NewHTTPError(http.StatusForbidden, errors.ErrorResponse{
				Error: "You do not have permission to perform this action.",
				Code:  "PERMISSION_DENIED",
			})
		}
		return next(c)
	}
}

// requestLogger writes one logrus entry per request.
func requestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			entry := log.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"request_id": v.RequestID,
			})
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			switch {
			case v.Status >= http.StatusInternalServerError:
				entry.Error("request")
			case v.Status >= http.StatusBadRequest:
				entry.Warn("request")
			default:
				entry.Info("request")
			}
			return nil
		},
	})
}
