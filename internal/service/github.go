package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"eventhub/internal/config"
	"eventhub/internal/model"
	"eventhub/internal/monitoring"
	"eventhub/internal/repository"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

var (
	ErrGitHubDisabled      = model.NewNotFoundError("GitHub login is not configured")
	ErrGitHubAuthFailed    = model.NewUnauthenticatedError("GitHub login failed")
	ErrGitHubEmailRequired = model.NewValidationError("GitHub account has no verified email address")
)

const defaultGitHubAPIURL = "https://api.github.com"

type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// GitHubService signs users in with the GitHub OAuth web flow. First-time
// users are created as students.
type GitHubService struct {
	oauth     *oauth2.Config
	apiURL    string
	repo      repository.Repository
	tokens    *TokenService
	telemetry monitoring.Telemetry
}

type GitHubServiceOpt func(*GitHubService)

// WithGitHubEndpoints points the OAuth exchange and the REST API at other hosts.
func WithGitHubEndpoints(endpoint oauth2.Endpoint, apiURL string) GitHubServiceOpt {
	return func(s *GitHubService) {
		s.oauth.Endpoint = endpoint
		s.apiURL = strings.TrimRight(apiURL, "/")
	}
}

func NewGitHubService(cfg config.GitHubConfig, repo repository.Repository, tokens *TokenService, telemetry monitoring.Telemetry, opts ...GitHubServiceOpt) *GitHubService {
	s := &GitHubService{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     github.Endpoint,
		},
		apiURL:    defaultGitHubAPIURL,
		repo:      repo,
		tokens:    tokens,
		telemetry: telemetry,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *GitHubService) Enabled() bool {
	return s.oauth.ClientID != "" && s.oauth.ClientSecret != ""
}

// AuthCodeURL returns the GitHub consent page URL carrying state.
func (s *GitHubService) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

// Login exchanges an authorization code and returns a session for the
// matching local user, creating one on first login.
func (s *GitHubService) Login(ctx context.Context, code string) (Session, error) {
	if !s.Enabled() {
		return Session{}, ErrGitHubDisabled
	}
	if strings.TrimSpace(code) == "" {
		return Session{}, model.NewValidationError("authorization code is required")
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		slog.WarnContext(ctx, "GitHub code exchange failed", "error", err)
		return Session{}, ErrGitHubAuthFailed
	}
	client := s.oauth.Client(ctx, token)

	var profile githubUser
	if err := s.getJSON(ctx, client, "/user", &profile); err != nil {
		return Session{}, err
	}
	if profile.ID == 0 {
		return Session{}, ErrGitHubAuthFailed
	}

	email := profile.Email
	if email == "" {
		var emails []githubEmail
		if err := s.getJSON(ctx, client, "/user/emails", &emails); err != nil {
			return Session{}, err
		}
		email = primaryEmail(emails)
	}
	if email == "" {
		return Session{}, ErrGitHubEmailRequired
	}

	user, err := s.findOrCreate(ctx, profile, normalizeEmail(email))
	if err != nil {
		return Session{}, err
	}

	accessToken, err := s.tokens.Issue(user)
	if err != nil {
		return Session{}, err
	}
	return Session{User: user, Token: accessToken}, nil
}

func (s *GitHubService) findOrCreate(ctx context.Context, profile githubUser, email string) (model.User, error) {
	githubID := strconv.FormatInt(profile.ID, 10)

	user, err := s.repo.GetUserByGitHubID(ctx, githubID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.User{}, err
	}

	user, err = s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.User{}, err
	}

	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = profile.Login
	}
	user, err = s.repo.CreateUser(ctx, model.User{
		FullName:  name,
		Email:     email,
		StudentID: "GH-" + githubID,
		Role:      model.RoleStudent,
		GitHubID:  githubID,
	})
	if err != nil {
		s.telemetry.RecordSignup(ctx, "github", false)
		return model.User{}, err
	}
	s.telemetry.RecordSignup(ctx, "github", true)

	slog.InfoContext(ctx, "User signed up with GitHub", "user_id", user.ID, "github_id", githubID)
	return user, nil
}

func (s *GitHubService) getJSON(ctx context.Context, client *http.Client, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build GitHub request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return model.NewUpstreamError("GitHub API unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.NewUpstreamError(fmt.Sprintf("GitHub API returned %d", resp.StatusCode), nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode GitHub response: %w", err)
	}
	return nil
}

func primaryEmail(emails []githubEmail) string {
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	return ""
}
