package service_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eventhub/internal/config"
	"eventhub/internal/model"
	"eventhub/internal/monitoring"
	"eventhub/internal/service"
	"eventhub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeGitHub struct {
	user   map[string]any
	emails []map[string]any
}

func (f *fakeGitHub) server(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"access_token": "gho_test", "token_type": "bearer"})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer gho_test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(f.user)
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(f.emails)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newGitHubService(t *testing.T, repo *testutil.MemoryRepository, gh *fakeGitHub) (*service.GitHubService, *service.TokenService) {
	t.Helper()

	srv := gh.server(t)
	tokens := service.NewTokenService(testutil.TestJWTSecret, time.Hour)
	cfg := config.GitHubConfig{ClientID: "client", ClientSecret: "secret", Scopes: []string{"read:user"}}
	endpoint := oauth2.Endpoint{
		AuthURL:   srv.URL + "/login/oauth/authorize",
		TokenURL:  srv.URL + "/login/oauth/access_token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	return service.NewGitHubService(cfg, repo, tokens, monitoring.Noop(), service.WithGitHubEndpoints(endpoint, srv.URL)), tokens
}

func TestGitHubService_FirstLoginCreatesStudent(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewMemoryRepository()
	gh := &fakeGitHub{
		user: map[string]any{"id": 4242, "login": "octocat", "name": ""},
		emails: []map[string]any{
			{"email": "old@example.com", "primary": false, "verified": true},
			{"email": "Octo@Example.com", "primary": true, "verified": true},
		},
	}
	github, tokens := newGitHubService(t, repo, gh)

	session, err := github.Login(ctx, "code-1")
	require.NoError(t, err)
	assert.Equal(t, "octocat", session.User.FullName)
	assert.Equal(t, "octo@example.com", session.User.Email)
	assert.Equal(t, "GH-4242", session.User.StudentID)
	assert.Equal(t, model.RoleStudent, session.User.Role)

	claims, err := tokens.Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.Subject)

	again, err := github.Login(ctx, "code-2")
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, again.User.ID)

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestGitHubService_MatchesExistingEmail(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewMemoryRepository()
	existing := testutil.CreateUser(t, repo, model.RoleAdmin)

	gh := &fakeGitHub{user: map[string]any{"id": 7, "login": "admin", "email": existing.Email}}
	github, _ := newGitHubService(t, repo, gh)

	session, err := github.Login(ctx, "code")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, session.User.ID)
	assert.Equal(t, model.RoleAdmin, session.User.Role)
}

func TestGitHubService_NoVerifiedEmail(t *testing.T) {
	repo := testutil.NewMemoryRepository()
	gh := &fakeGitHub{
		user:   map[string]any{"id": 9, "login": "ghost"},
		emails: []map[string]any{{"email": "ghost@example.com", "primary": true, "verified": false}},
	}
	github, _ := newGitHubService(t, repo, gh)

	_, err := github.Login(context.Background(), "code")
	assert.ErrorIs(t, err, service.ErrGitHubEmailRequired)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestGitHubService_Disabled(t *testing.T) {
	repo := testutil.NewMemoryRepository()
	tokens := service.NewTokenService(testutil.TestJWTSecret, time.Hour)
	github := service.NewGitHubService(config.GitHubConfig{}, repo, tokens, monitoring.Noop())

	assert.False(t, github.Enabled())
	_, err := github.Login(context.Background(), "code")
	assert.ErrorIs(t, err, service.ErrGitHubDisabled)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestGitHubService_MissingCode(t *testing.T) {
	repo := testutil.NewMemoryRepository()
	github, _ := newGitHubService(t, repo, &fakeGitHub{})

	_, err := github.Login(context.Background(), "  ")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestGitHubService_AuthCodeURL(t *testing.T) {
	repo := testutil.NewMemoryRepository()
	github, _ := newGitHubService(t, repo, &fakeGitHub{})

	url := github.AuthCodeURL("state-123")
	assert.Contains(t, url, "/login/oauth/authorize")
	assert.Contains(t, url, "state=state-123")
	assert.Contains(t, url, "client_id=client")
}
