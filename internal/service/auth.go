package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"eventhub/internal/model"
	"eventhub/internal/monitoring"
	"eventhub/internal/repository"
	"eventhub/internal/validator"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = model.NewUnauthenticatedError("Invalid credentials")

type SignupRequest struct {
	FullName   string `json:"full_name" validate:"required,notblank,max=100"`
	Email      string `json:"email" validate:"required,email,max=254,no_disposable_email"`
	Password   string `json:"password" validate:"required,min=6,max=72"`
	StudentID  string `json:"student_id" validate:"required,notblank,max=50"`
	Department string `json:"department" validate:"required,notblank,max=100"`
	Phone      string `json:"phone" validate:"required,notblank,max=20"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProfileRequest carries the self-editable profile fields. Omitted fields are left unchanged.
type ProfileRequest struct {
	FullName   string `json:"full_name" validate:"omitempty,notblank,max=100"`
	StudentID  string `json:"student_id" validate:"omitempty,notblank,max=50"`
	Department string `json:"department" validate:"omitempty,notblank,max=100"`
	Phone      string `json:"phone" validate:"omitempty,notblank,max=20"`
}

// Session is an authenticated user together with a freshly issued token.
type Session struct {
	User  model.User
	Token string
}

// Profile is the current user with their bookmarked events resolved.
type Profile struct {
	model.User
	BookmarkedEvents []model.Event `json:"bookmarked_events"`
}

type AuthService struct {
	repo       repository.Repository
	tokens     *TokenService
	limiter    *RateLimiter
	validator  *validator.Validator
	telemetry  monitoring.Telemetry
	bcryptCost int
}

func NewAuthService(repo repository.Repository, tokens *TokenService, limiter *RateLimiter, v *validator.Validator, telemetry monitoring.Telemetry, bcryptCost int) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		repo:       repo,
		tokens:     tokens,
		limiter:    limiter,
		validator:  v,
		telemetry:  telemetry,
		bcryptCost: bcryptCost,
	}
}

func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (Session, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return Session{}, err
	}

	email := req.Email
	if err := s.limiter.CheckSignup(ctx, email); err != nil {
		return Session{}, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return Session{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, model.User{
		FullName:     strings.TrimSpace(req.FullName),
		Email:        email,
		PasswordHash: string(hashedPassword),
		StudentID:    strings.TrimSpace(req.StudentID),
		Department:   strings.TrimSpace(req.Department),
		Phone:        strings.TrimSpace(req.Phone),
		Role:         model.RoleStudent,
	})
	if err != nil {
		s.telemetry.RecordSignup(ctx, "password", false)
		return Session{}, err
	}
	s.telemetry.RecordSignup(ctx, "password", true)

	slog.InfoContext(ctx, "User signed up", "user_id", user.ID)
	return s.newSession(user)
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (Session, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return Session{}, err
	}

	email := req.Email
	if err := s.limiter.CheckLogin(ctx, email); err != nil {
		return Session{}, err
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}

	// GitHub-only accounts have no password
	if user.PasswordHash == "" {
		return Session{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	if err := s.limiter.ResetAttempts(ctx, "login", email); err != nil {
		slog.WarnContext(ctx, "Failed to reset login attempts", "error", err)
	}
	return s.newSession(user)
}

// Me returns the user identified by userID with bookmarks resolved to events.
// Bookmarks of deleted events are omitted.
func (s *AuthService) Me(ctx context.Context, userID string) (Profile, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return Profile{}, err
	}

	events, err := s.repo.GetEventsByIDs(ctx, user.Bookmarks)
	if err != nil {
		return Profile{}, err
	}
	return Profile{User: user, BookmarkedEvents: events}, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, req ProfileRequest) (model.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return model.User{}, err
	}

	return s.repo.UpdateUserProfile(ctx, userID, model.ProfileUpdate{
		FullName:   strings.TrimSpace(req.FullName),
		StudentID:  strings.TrimSpace(req.StudentID),
		Department: strings.TrimSpace(req.Department),
		Phone:      strings.TrimSpace(req.Phone),
	})
}

func (s *AuthService) newSession(user model.User) (Session, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return Session{}, err
	}
	return Session{User: user, Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
