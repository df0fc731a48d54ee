package router

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	echoSwagger "github.com/swaggo/echo-swagger"

	"taskapi/internal/auth"
	"taskapi/internal/handler"
	"taskapi/internal/service"
)

// Register wires routes and middleware. Every route is served with and
// without a trailing slash.
func Register(
	e *echo.Echo,
	log *logrus.Logger,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	userService service.UserService,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	categoryHandler *handler.CategoryHandler,
	taskHandler *handler.TaskHandler,
) {
	e.Pre(middleware.AddTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/swagger")
		},
	}))
	e.Use(middleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(middleware.Recover())

	e.Validator = NewValidator()

	e.GET("/healthz/", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/users/register/", authHandler.Register)
	api.POST("/users/login/", authHandler.Login)
	api.POST("/users/token/refresh/", authHandler.Refresh)

	// Secured routes (require JWT authentication)
	secured := api.Group("",
		echojwt.WithConfig(echojwt.Config{
			ContextKey:     handler.ClaimsKey,
			TokenLookup:    "header:" + echo.HeaderAuthorization + ":Bearer ",
			ParseTokenFunc: parseAccessToken(jwtService),
			ErrorHandler: func(c echo.Context, err error) error {
				return unauthorized("given token not valid for any token type")
			},
		}),
		authenticate(userService, tokenStore, log),
	)

	// User routes
	secured.POST("/users/logout/", authHandler.Logout)
	secured.GET("/users/profile/:id/", userHandler.GetProfile)
	secured.PUT("/users/profile/:id/", userHandler.UpdateProfile)
	secured.PATCH("/users/profile/:id/", userHandler.UpdateProfile)
	secured.DELETE("/users/:id/delete/", userHandler.DeleteUser)

	// Category routes
	secured.GET("/categories/", categoryHandler.List)
	secured.POST("/categories/", categoryHandler.Create)
	secured.GET("/categories/:id/", categoryHandler.Get)
	secured.PUT("/categories/:id/", categoryHandler.Update)
	secured.PATCH("/categories/:id/", categoryHandler.Update)
	secured.DELETE("/categories/:id/", categoryHandler.Delete)

	// Task routes
	secured.GET("/tasks/", taskHandler.List)
	secured.POST("/tasks/", taskHandler.Create)
	secured.GET("/tasks/filter/", taskHandler.Filter)
	secured.GET("/tasks/:id/", taskHandler.Get)
	secured.PUT("/tasks/:id/", taskHandler.Update)
	secured.PATCH("/tasks/:id/", taskHandler.Update)
	secured.DELETE("/tasks/:id/", taskHandler.Delete)
	secured.PATCH("/tasks/:id/complete/", taskHandler.ToggleComplete)
	secured.PATCH("/tasks/:id/incomplete/", taskHandler.MarkIncomplete)

	// Admin routes
	admin := secured.Group("/admin", requireStaff)
	admin.GET("/users/", userHandler.ListUsers)
	admin.DELETE("/users/delete/all/", userHandler.DeleteAllUsers)
	admin.GET("/tasks/", taskHandler.ListAll)
	admin.DELETE("/tasks/delete/all/", taskHandler.DeleteAll)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

var _ echo.Validator = (*CustomValidator)(nil)
