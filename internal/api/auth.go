package api

import (
	"log/slog"
	"net/url"
	"time"

	"eventhub/internal/middleware"
	"eventhub/internal/model"
	"eventhub/internal/service"
	"eventhub/internal/util"

	"github.com/gofiber/fiber/v2"
)

const githubStateCookie = "github_oauth_state"

func (h *Handler) Signup(c *fiber.Ctx) error {
	var req service.SignupRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	session, err := h.services.Auth.Signup(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	h.setTokenCookie(c, session.Token)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created",
		"user":    session.User,
		"token":   session.Token,
	})
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req service.LoginRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	session, err := h.services.Auth.Login(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	h.setTokenCookie(c, session.Token)
	return c.JSON(fiber.Map{
		"message": "Logged in",
		"user":    session.User,
		"token":   session.Token,
	})
}

func (h *Handler) Logout(c *fiber.Ctx) error {
	h.clearCookie(c, h.cfg.Auth.CookieName)
	return c.JSON(fiber.Map{
		"message": "Logged out",
	})
}

func (h *Handler) Me(c *fiber.Ctx) error {
	profile, err := h.services.Auth.Me(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	var req service.ProfileRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	user, err := h.services.Auth.UpdateProfile(c.UserContext(), middleware.UserID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

func (h *Handler) ToggleBookmark(c *fiber.Ctx) error {
	result, err := h.services.Bookmarks.Toggle(c.UserContext(), middleware.UserID(c), c.Params("eventId"))
	if err != nil {
		return respondError(c, err)
	}

	message := "Event Saved"
	if result.Action == model.BookmarkRemoved {
		message = "Event Removed"
	}
	return c.JSON(fiber.Map{
		"message":   message,
		"action":    result.Action,
		"bookmarks": result.Bookmarks,
	})
}

func (h *Handler) ListBookmarks(c *fiber.Ctx) error {
	events, err := h.services.Bookmarks.Bookmarks(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(events)
}

// GitHubRedirect starts the OAuth web flow. The state is kept in a short
// lived cookie and checked on callback.
func (h *Handler) GitHubRedirect(c *fiber.Ctx) error {
	if !h.services.GitHub.Enabled() {
		return respondError(c, service.ErrGitHubDisabled)
	}

	state, err := util.RandomToken(32)
	if err != nil {
		return respondError(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     githubStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HTTPOnly: true,
		Secure:   h.cfg.SecureCookie(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(h.services.GitHub.AuthCodeURL(state), fiber.StatusTemporaryRedirect)
}

// GitHubCallback completes the web flow and sends the browser back to the
// frontend with the session cookie set.
func (h *Handler) GitHubCallback(c *fiber.Ctx) error {
	state := c.Query("state")
	expected := c.Cookies(githubStateCookie)
	h.clearCookie(c, githubStateCookie)

	if state == "" || state != expected {
		slog.WarnContext(c.UserContext(), "GitHub OAuth state mismatch")
		return c.Redirect(h.frontendURL("github_state_mismatch"), fiber.StatusTemporaryRedirect)
	}
	if c.Query("error") != "" {
		return c.Redirect(h.frontendURL(c.Query("error")), fiber.StatusTemporaryRedirect)
	}

	session, err := h.services.GitHub.Login(c.UserContext(), c.Query("code"))
	if err != nil {
		slog.WarnContext(c.UserContext(), "GitHub login failed", "error", err)
		return c.Redirect(h.frontendURL("github_login_failed"), fiber.StatusTemporaryRedirect)
	}

	h.setTokenCookie(c, session.Token)
	return c.Redirect(h.frontendURL(""), fiber.StatusTemporaryRedirect)
}

type githubCodeRequest struct {
	Code string `json:"code"`
}

// GitHubLogin exchanges a code obtained by a client that ran the consent step itself.
func (h *Handler) GitHubLogin(c *fiber.Ctx) error {
	var req githubCodeRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	session, err := h.services.GitHub.Login(c.UserContext(), req.Code)
	if err != nil {
		return respondError(c, err)
	}

	h.setTokenCookie(c, session.Token)
	return c.JSON(fiber.Map{
		"message": "Logged in",
		"user":    session.User,
		"token":   session.Token,
	})
}

func (h *Handler) setTokenCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.Auth.CookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.cfg.Auth.CookieDomain,
		MaxAge:   int(h.services.Tokens.TTL().Seconds()),
		HTTPOnly: true,
		Secure:   h.cfg.SecureCookie(),
		SameSite: h.cfg.Auth.CookieSameSite,
	})
}

func (h *Handler) clearCookie(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.cfg.Auth.CookieDomain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   h.cfg.SecureCookie(),
		SameSite: h.cfg.Auth.CookieSameSite,
	})
}

func (h *Handler) frontendURL(authError string) string {
	if authError == "" {
		return h.cfg.Server.FrontendURL
	}
	return h.cfg.Server.FrontendURL + "/login?error=" + url.QueryEscape(authError)
}
