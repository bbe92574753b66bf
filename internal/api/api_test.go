package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"eventhub/internal/logger"
	"eventhub/internal/model"
	"eventhub/internal/monitoring"
	"eventhub/internal/service"
	"eventhub/internal/storage"
	"eventhub/internal/testutil"
	"eventhub/internal/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.SilenceLogger(io.Discard)
	os.Exit(m.Run())
}

type testServer struct {
	app    *fiber.App
	repo   *testutil.MemoryRepository
	tokens *service.TokenService
	source *testutil.MockEventSource
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := testutil.TestConfig()
	repo := testutil.NewMemoryRepository()
	v := validator.New()
	tel := monitoring.Noop()
	tokens := service.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	source := &testutil.MockEventSource{}

	store, err := storage.NewLocalStorage(t.TempDir(), "/api/files")
	require.NoError(t, err)

	handler := NewHandler(cfg, repo, Services{
		Auth:          service.NewAuthService(repo, tokens, service.NewRateLimiter(nil, cfg.Redis), v, tel, cfg.Auth.BcryptCost),
		GitHub:        service.NewGitHubService(cfg.GitHub, repo, tokens, tel),
		Tokens:        tokens,
		Events:        service.NewEventService(repo, v),
		Registrations: service.NewRegistrationService(repo, tel),
		Bookmarks:     service.NewBookmarkService(repo, tel),
		Reviews:       service.NewReviewService(repo, v, tel),
		Users:         service.NewUserService(repo, v),
		Admin:         service.NewAdminService(repo),
		Export:        service.NewExportService(repo),
		Sync:          service.NewSyncService(repo, source, v, tel),
		Banners:       service.NewBannerService(store, cfg.Storage.MaxFileSize, cfg.Storage.URLTTL),
	})

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	handler.Register(app)

	return &testServer{app: app, repo: repo, tokens: tokens, source: source}
}

func (s *testServer) do(t *testing.T, method, path, body string, user *model.User) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		raw, err := s.tokens.Issue(*user)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+raw)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", decode(t, resp)["status"])

	s.repo.HealthErr = errors.New("connection refused")
	resp = s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "unhealthy", decode(t, resp)["status"])
}

func TestSignupSetsCookie(t *testing.T) {
	s := newTestServer(t)

	body := `{"full_name":"Asha Patil","email":"asha@example.com","password":"secret1","student_id":"S1","department":"CS","phone":"555"}`
	resp := s.do(t, http.MethodPost, "/api/auth/signup", body, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "token" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)

	out := decode(t, resp)
	assert.Equal(t, "User created", out["message"])
	user := out["user"].(map[string]any)
	assert.Equal(t, "student", user["role"])
	assert.NotContains(t, user, "password_hash")

	resp = s.do(t, http.MethodPost, "/api/auth/signup", body, nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/auth/signup", `{"email":`, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid request body", decode(t, resp)["error"])
}

func TestBindRejectsUnknownShapes(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodPost, "/api/auth/login", `{"email":"asha@example.com","password":"secret1","role":"admin"}`, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, `unknown field "role"`, decode(t, resp)["error"])

	resp = s.do(t, http.MethodPost, "/api/auth/login", `{"email":"asha@example.com","password":"secret1"} {}`, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid request body", decode(t, resp)["error"])

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("email=asha%40example.com&password=secret1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "request body must be JSON", decode(t, resp)["error"])
}

func TestLoginWrongPassword(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodPost, "/api/auth/login", `{"email":"nobody@example.com","password":"x"}`, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid credentials", decode(t, resp)["error"])
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t)
	student := testutil.CreateUser(t, s.repo, model.RoleStudent)
	admin := testutil.CreateUser(t, s.repo, model.RoleAdmin)

	resp := s.do(t, http.MethodGet, "/api/admin/stats", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/admin/stats", "", &student)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/admin/stats", "", &admin)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestEventLifecycle(t *testing.T) {
	s := newTestServer(t)
	admin := testutil.CreateUser(t, s.repo, model.RoleAdmin)
	student := testutil.CreateUser(t, s.repo, model.RoleStudent)

	startsAt := time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339)
	body := `{"title":"Hackathon","description":"24h build","category":"Technical","starts_at":"` + startsAt + `",` +
		`"venue":"Lab 1","location_text":"Campus, Pune","banner_url":"https://example.com/b.png"}`

	resp := s.do(t, http.MethodPost, "/api/events", body, &student)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/events", body, &admin)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	eventID := decode(t, resp)["id"].(string)

	resp = s.do(t, http.MethodGet, "/api/events?category=all&upcoming=true", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	page := decode(t, resp)
	assert.Len(t, page["events"], 1)

	resp = s.do(t, http.MethodGet, "/api/events?category=Cooking", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/events/"+eventID+"/register", "", &student)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/events/"+eventID+"/register", "", &student)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = s.do(t, http.MethodDelete, "/api/events/"+eventID+"/register", "", &student)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/events/missing-id", "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = s.do(t, http.MethodDelete, "/api/events/"+eventID, "", &admin)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, s.repo.EventCount())
}

func TestToggleBookmark(t *testing.T) {
	s := newTestServer(t)
	student := testutil.CreateUser(t, s.repo, model.RoleStudent)
	event := testutil.CreateEvent(t, s.repo, "Fest", time.Now().Add(24*time.Hour))

	resp := s.do(t, http.MethodPut, "/api/auth/bookmark/"+event.ID, "", &student)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Event Saved", decode(t, resp)["message"])

	resp = s.do(t, http.MethodPut, "/api/auth/bookmark/"+event.ID, "", &student)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Event Removed", decode(t, resp)["message"])
}

func TestExportRegistrations(t *testing.T) {
	s := newTestServer(t)
	admin := testutil.CreateUser(t, s.repo, model.RoleAdmin)

	resp := s.do(t, http.MethodGet, "/api/admin/export", "", &admin)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "registrations.csv")
}

func TestAdminCannotDemoteSelf(t *testing.T) {
	s := newTestServer(t)
	admin := testutil.CreateUser(t, s.repo, model.RoleAdmin)

	resp := s.do(t, http.MethodPatch, "/api/users/"+admin.ID, `{"role":"student"}`, &admin)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestGitHubDisabled(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodPost, "/api/auth/github", `{"code":"abc"}`, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{model.NewValidationError("bad"), fiber.StatusBadRequest},
		{model.NewUnauthenticatedError("who"), fiber.StatusUnauthorized},
		{model.NewForbiddenError("no"), fiber.StatusForbidden},
		{model.NewNotFoundError("gone"), fiber.StatusNotFound},
		{model.NewConflictError("dup"), fiber.StatusConflict},
		{model.NewRateLimitedError("slow down"), fiber.StatusTooManyRequests},
		{model.NewUpstreamError("down", nil), fiber.StatusBadGateway},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusOf(tt.err), tt.err.Error())
	}
}
