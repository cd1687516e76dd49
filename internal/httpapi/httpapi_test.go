package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"worktime/internal/apperr"
	"worktime/internal/auth"
	"worktime/internal/repository"
	"worktime/internal/service"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type testServer struct {
	app   *fiber.App
	clock *fixedClock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := repository.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repository.Close(db) })

	store := repository.NewStore(db)
	clock := &fixedClock{now: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)}
	policy := service.DayPolicy{Location: time.UTC, CutoffHour: 19}

	svc := Services{
		Auth:   service.NewAuthService(store.Users, auth.NewPasswordHasher(bcrypt.MinCost), auth.NewTokenManager("test-secret", time.Hour), nil),
		Ledger: service.NewLedgerService(store, service.NewCoordinator(nil), nil, clock, policy, nil),
		Tasks:  service.NewTaskService(store, clock, policy, nil),
		Ping:   store.Ping,
	}
	return &testServer{app: NewApp(svc, Options{}), clock: clock}
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Path       string          `json:"path"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func (s *testServer) signUpAndLogin(t *testing.T, email string) string {
	t.Helper()
	status, _ := s.do(t, http.MethodPost, "/auth/sign-up", "", map[string]any{
		"name": "Grace", "email": email, "mobile": 5550199, "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, status)

	status, env := s.do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": email, "password": "secret1"})
	require.Equal(t, http.StatusOK, status)
	var res service.LoginResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.NotEmpty(t, res.Token)
	return res.Token
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t)
	token := s.signUpAndLogin(t, "grace@example.com")

	status, env := s.do(t, http.MethodPost, "/auth/sign-up", "", map[string]any{
		"name": "Grace", "email": "grace@example.com", "mobile": 5550199, "password": "secret1",
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.False(t, env.Success)
	assert.Equal(t, "Email is already taken.", env.Message)
	assert.Equal(t, "/auth/sign-up", env.Path)

	status, env = s.do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": "grace@example.com", "password": "nope12"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Email address or password you entered is incorrect.", env.Message)

	status, env = s.do(t, http.MethodGet, "/auth/users?page=1&limit=5", token, nil)
	assert.Equal(t, http.StatusOK, status)
	var list service.UserList
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.EqualValues(t, 1, list.TotalUsers)
	assert.NotContains(t, string(env.Data), "password")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodPost, "/attendance/record", "", map[string]any{"action": "dayIn"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Token not provided.", env.Message)

	status, env = s.do(t, http.MethodGet, "/tasks/task-history", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid or expired token", env.Message)
}

func TestAttendanceFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.signUpAndLogin(t, "worker@example.com")

	status, env := s.do(t, http.MethodPost, "/attendance/record", token, map[string]any{"action": "dayIn"})
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Day In recorded successfully!", env.Message)

	status, env = s.do(t, http.MethodPost, "/attendance/record", token, map[string]any{"action": "dayIn"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "You have already checked in for today.", env.Message)

	status, env = s.do(t, http.MethodPost, "/attendance/record", token, map[string]any{"action": "clockIn"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "You must clock out before clocking in again.", env.Message)

	status, _ = s.do(t, http.MethodPost, "/attendance/record", token, map[string]any{"action": "nap"})
	assert.Equal(t, http.StatusBadRequest, status)

	s.clock.now = s.clock.now.Add(8 * time.Hour)
	status, env = s.do(t, http.MethodPost, "/attendance/record", token, map[string]any{"action": "dayOut"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Day Out recorded successfully!", env.Message)

	status, env = s.do(t, http.MethodPost, "/attendance/record", token, map[string]any{"action": "dayOut"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "No active Day In record found.", env.Message)

	status, env = s.do(t, http.MethodGet, "/attendance/log-history?startDate=2024-03-04&endDate=2024-03-05", token, nil)
	assert.Equal(t, http.StatusOK, status)
	var hist service.DayHistory
	require.NoError(t, json.Unmarshal(env.Data, &hist))
	assert.EqualValues(t, 1, hist.TotalRecords)
	require.Len(t, hist.Records, 1)
	assert.True(t, hist.Records[0].IsCompleted)

	status, _ = s.do(t, http.MethodGet, "/attendance/log-history?startDate=yesterday", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = s.do(t, http.MethodGet, "/attendance/log-history?page=0", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestTaskFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.signUpAndLogin(t, "tasks@example.com")

	status, env := s.do(t, http.MethodPost, "/tasks/create-task", token, map[string]any{"title": "Ship it", "description": "v1"})
	require.Equal(t, http.StatusOK, status)
	var task struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &task))
	assert.Equal(t, "pending", task.Status)

	status, env = s.do(t, http.MethodPatch, "/tasks/update-task-status/"+task.ID, token, map[string]any{"status": "in-progress"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Task status updated successfully!.", env.Message)

	status, _ = s.do(t, http.MethodPatch, "/tasks/update-task-status/"+task.ID, token, map[string]any{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodPut, "/tasks/update-task/"+task.ID, token, map[string]any{"title": "Ship it now"})
	assert.Equal(t, http.StatusOK, status)

	status, env = s.do(t, http.MethodGet, "/tasks/task-history", token, nil)
	require.Equal(t, http.StatusOK, status)
	var summaries []service.TaskSummary
	require.NoError(t, json.Unmarshal(env.Data, &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "Ship it now", summaries[0].Title)
	assert.True(t, summaries[0].IsRunning)
	assert.Equal(t, "--", summaries[0].Duration)

	otherToken := s.signUpAndLogin(t, "other@example.com")
	status, env = s.do(t, http.MethodDelete, "/tasks/delete-task/"+task.ID, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Task not found.", env.Message)

	status, _ = s.do(t, http.MethodDelete, "/tasks/delete-task/"+task.ID, token, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestErrorHandlerHidesInternalCause(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler(discardLogger())})
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("sqlite: disk I/O error") })
	app.Get("/conflict", func(c *fiber.Ctx) error { return apperr.ErrConflict })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom?x=1", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.NotContains(t, string(body), "disk")
	assert.Contains(t, string(body), `"path":"/boom?x=1"`)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/conflict", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("startDate", "2024-03-04")
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC).Equal(*got))

	got, err = parseDate("startDate", "2024-03-04T10:00:00+02:00")
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC).Equal(*got))

	got, err = parseDate("startDate", "")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parseDate("startDate", "04/03/2024")
	assert.ErrorIs(t, err, apperr.Validation(""))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
