package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskapi/internal/auth"
	"taskapi/internal/db/dbtest"
	"taskapi/internal/handler"
	"taskapi/internal/repository"
	"taskapi/internal/service"
)

// memTokenStore keeps tokens in memory for tests.
type memTokenStore struct {
	mu        sync.Mutex
	refresh   map[string]uint
	blacklist map[string]bool
	lookupErr error
}

func (s *memTokenStore) failLookups(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookupErr = err
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{refresh: map[string]uint{}, blacklist: map[string]bool{}}
}

func (s *memTokenStore) StoreRefreshToken(_ context.Context, tokenID string, userID uint, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh[tokenID] = userID
	return nil
}

func (s *memTokenStore) GetRefreshToken(_ context.Context, tokenID string) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.refresh[tokenID]
	if !ok {
		return 0, auth.ErrRefreshTokenNotFound
	}
	return userID, nil
}

func (s *memTokenStore) DeleteRefreshToken(_ context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.refresh, tokenID)
	return nil
}

func (s *memTokenStore) BlacklistAccessToken(_ context.Context, tokenID string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blacklist[tokenID] = true
	return nil
}

func (s *memTokenStore) IsAccessTokenBlacklisted(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookupErr != nil {
		return false, s.lookupErr
	}
	return s.blacklist[tokenID], nil
}

type testServer struct {
	e      *echo.Echo
	auth   service.AuthService
	tokens *memTokenStore
	logs   *test.Hook
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log, logs := test.NewNullLogger()

	gormDB := dbtest.New(t)
	userRepo := repository.NewUserRepository(gormDB)
	categoryRepo := repository.NewCategoryRepository(gormDB)
	taskRepo := repository.NewTaskRepository(gormDB)

	jwtService := auth.NewJWTService("test-secret", time.Minute, time.Hour)
	tokenStore := newMemTokenStore()

	authService := service.NewAuthService(userRepo, jwtService, tokenStore)
	userService := service.NewUserService(userRepo, nil)
	categoryService := service.NewCategoryService(categoryRepo)
	taskService := service.NewTaskService(taskRepo, categoryRepo, service.NewTaskValidator(time.UTC))

	e := echo.New()
	Register(
		e,
		log,
		jwtService,
		tokenStore,
		userService,
		handler.NewAuthHandler(authService, log),
		handler.NewUserHandler(userService, log),
		handler.NewCategoryHandler(categoryService, log),
		handler.NewTaskHandler(taskService, log),
	)
	return &testServer{e: e, auth: authService, tokens: tokenStore, logs: logs}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var out map[string]interface{}
	if rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func (s *testServer) list(t *testing.T, path, token string) (int, []map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var out []map[string]interface{}
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func (s *testServer) register(t *testing.T, username string) {
	t.Helper()
	code, body := s.do(t, http.MethodPost, "/api/users/register/", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "pa55word",
	})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, username, body["username"])
	assert.NotContains(t, body, "password")
}

func (s *testServer) login(t *testing.T, username string) (access, refresh string) {
	t.Helper()
	code, body := s.do(t, http.MethodPost, "/api/users/login/", "", map[string]string{
		"username": username,
		"password": "pa55word",
	})
	require.Equal(t, http.StatusOK, code, body)
	return body["access_token"].(string), body["refresh_token"].(string)
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice")
	alice, _ := s.login(t, "alice")

	code, body := s.do(t, http.MethodPost, "/api/categories/", alice, map[string]string{"name": "Home"})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, "Home", body["name"])

	tomorrow := time.Now().UTC().AddDate(0, 0, 1)
	code, body = s.do(t, http.MethodPost, "/api/tasks", alice, map[string]string{
		"title":    "Clean",
		"due_date": tomorrow.Format("02-01-2006"),
		"category": "Home",
	})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, "Pending", body["status"])
	assert.Equal(t, false, body["is_completed"])
	assert.Equal(t, "Medium", body["priority"])
	assert.Equal(t, "Home", body["category"])
	assert.Equal(t, tomorrow.Format("January 02, 2006"), body["due_date"])
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`, body["created_at"])
	taskPath := fmt.Sprintf("/api/tasks/%d/", int(body["id"].(float64)))

	code, body = s.do(t, http.MethodPatch, taskPath+"complete/", alice, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Completed", body["status"])
	assert.Equal(t, true, body["is_completed"])

	code, body = s.do(t, http.MethodPatch, taskPath+"incomplete", alice, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Pending", body["status"])
	assert.Equal(t, false, body["is_completed"])

	code, body = s.do(t, http.MethodPatch, taskPath, alice, map[string]string{"priority": "High"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "High", body["priority"])
	assert.Equal(t, "Clean", body["title"])

	code, tasks := s.list(t, "/api/tasks/filter/?priority=High&sort_by=due_date", alice)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, tasks, 1)

	code, body = s.do(t, http.MethodGet, "/api/tasks/filter/?status=Bogus", alice, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid status. Must be either 'Pending' or 'Completed'.", body["error"])

	code, body = s.do(t, http.MethodDelete, taskPath, alice, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Task 'Clean' has been successfully deleted.", body["message"])
}

func TestOwnershipOverHTTP(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice")
	s.register(t, "bob")
	alice, _ := s.login(t, "alice")
	bob, _ := s.login(t, "bob")

	code, body := s.do(t, http.MethodPost, "/api/categories/", alice, map[string]string{"name": "Work"})
	require.Equal(t, http.StatusCreated, code, body)
	categoryPath := fmt.Sprintf("/api/categories/%d/", int(body["id"].(float64)))

	code, body = s.do(t, http.MethodPost, "/api/categories/", bob, map[string]string{"name": "Work"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "task category with this name already exists.", body["error"])

	code, body = s.do(t, http.MethodPut, categoryPath, bob, map[string]string{"name": "Mine"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "You do not have permission to edit this category.", body["error"])

	code, body = s.do(t, http.MethodPost, "/api/tasks/", alice, map[string]interface{}{
		"title":    "Report",
		"due_date": "2099-01-01",
		"category": "Work",
	})
	require.Equal(t, http.StatusCreated, code, body)
	taskPath := fmt.Sprintf("/api/tasks/%d/", int(body["id"].(float64)))

	code, body = s.do(t, http.MethodGet, taskPath, bob, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Task not found", body["error"])

	code, _ = s.do(t, http.MethodGet, taskPath, "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, http.MethodGet, "/api/admin/tasks/", alice, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = s.do(t, http.MethodDelete, categoryPath, alice, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Category 'Work' has been successfully deleted.", body["message"])

	code, _ = s.do(t, http.MethodGet, taskPath, alice, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAdminDeleteAllUsersKeepsSuperusers(t *testing.T) {
	s := newTestServer(t)
	_, err := s.auth.CreateSuperuser(context.Background(), "root", "root@example.com", "pa55word")
	require.NoError(t, err)
	for _, name := range []string{"alice", "bob", "carol"} {
		s.register(t, name)
	}
	root, _ := s.login(t, "root")

	code, users := s.list(t, "/api/admin/users/", root)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, users, 4)

	code, body := s.do(t, http.MethodDelete, "/api/admin/users/delete/all/", root, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Successfully deleted 3 users", body["message"])

	code, users = s.list(t, "/api/admin/users/", root)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, users, 1)
	assert.Equal(t, "root", users[0]["username"])
}

func TestProfileAndAccountDeletion(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice")
	s.register(t, "bob")
	alice, _ := s.login(t, "alice")

	code, me := s.do(t, http.MethodGet, "/api/users/profile/1/", alice, nil)
	require.Equal(t, http.StatusOK, code, me)
	assert.Equal(t, "alice", me["username"])

	code, _ = s.do(t, http.MethodGet, "/api/users/profile/2/", alice, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, body := s.do(t, http.MethodPatch, "/api/users/profile/1/", alice, map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "email", body["field"])

	code, _ = s.do(t, http.MethodDelete, "/api/users/2/delete/", alice, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = s.do(t, http.MethodDelete, "/api/users/1/delete/", alice, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "User deleted successfully", body["message"])

	code, _ = s.do(t, http.MethodGet, "/api/tasks/", alice, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRefreshAndLogout(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice")
	access, refresh := s.login(t, "alice")

	code, body := s.do(t, http.MethodPost, "/api/users/token/refresh/", "", map[string]string{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, code, body)
	assert.NotEmpty(t, body["access_token"])

	code, body = s.do(t, http.MethodPost, "/api/users/logout/", access, map[string]string{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, code, body)

	code, _ = s.do(t, http.MethodGet, "/api/categories/", access, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, http.MethodPost, "/api/users/token/refresh/", "", map[string]string{"refresh_token": refresh})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = s.do(t, http.MethodPost, "/api/users/login/", "", map[string]string{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "INVALID_CREDENTIALS", body["code"])
}

func TestBlacklistLookupFailureIsLogged(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice")
	access, _ := s.login(t, "alice")

	s.tokens.failLookups(errors.New("redis: connection refused"))
	code, _ := s.list(t, "/api/tasks/", access)
	assert.Equal(t, http.StatusOK, code)

	var warned *logrus.Entry
	for _, entry := range s.logs.AllEntries() {
		if entry.Data["operation"] == "router.authenticate" {
			warned = entry
		}
	}
	require.NotNil(t, warned)
	assert.Equal(t, logrus.WarnLevel, warned.Level)
	assert.EqualError(t, warned.Data[logrus.ErrorKey].(error), "redis: connection refused")
}

func TestTaskCategoryByNumberOrNameOverHTTP(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice")
	alice, _ := s.login(t, "alice")

	code, body := s.do(t, http.MethodPost, "/api/categories/", alice, map[string]string{"name": "Home"})
	require.Equal(t, http.StatusCreated, code, body)
	homeID := body["id"].(float64)
	code, body = s.do(t, http.MethodPost, "/api/categories/", alice, map[string]string{"name": "2026"})
	require.Equal(t, http.StatusCreated, code, body)

	due := time.Now().UTC().AddDate(0, 0, 1).Format("02-01-2006")
	code, body = s.do(t, http.MethodPost, "/api/tasks/", alice, map[string]interface{}{
		"title": "File taxes", "due_date": due, "category": "2026",
	})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, "2026", body["category"])

	code, body = s.do(t, http.MethodPost, "/api/tasks/", alice, map[string]interface{}{
		"title": "Sweep", "due_date": due, "category": homeID,
	})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, "Home", body["category"])

	code, body = s.do(t, http.MethodPost, "/api/tasks/", alice, map[string]interface{}{
		"title": "Sweep", "due_date": due, "category": fmt.Sprintf("%d", int(homeID)),
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "category", body["field"])
}
