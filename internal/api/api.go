package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"eventhub/internal/config"
	"eventhub/internal/middleware"
	"eventhub/internal/model"
	"eventhub/internal/repository"
	"eventhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Services bundles the domain services the HTTP layer calls into.
type Services struct {
	Auth          *service.AuthService
	GitHub        *service.GitHubService
	Tokens        *service.TokenService
	Events        *service.EventService
	Registrations *service.RegistrationService
	Bookmarks     *service.BookmarkService
	Reviews       *service.ReviewService
	Users         *service.UserService
	Admin         *service.AdminService
	Export        *service.ExportService
	Sync          *service.SyncService
	Banners       *service.BannerService
}

type Handler struct {
	cfg      config.Config
	repo     repository.Repository
	services Services
}

func NewHandler(cfg config.Config, repo repository.Repository, services Services) *Handler {
	return &Handler{cfg: cfg, repo: repo, services: services}
}

// Register mounts every route under /api.
func (h *Handler) Register(app fiber.Router) {
	authenticated := middleware.Authenticated(h.services.Tokens, h.cfg.Auth.CookieName)
	admin := middleware.RequireRole(model.RoleAdmin)

	api := app.Group("/api")
	api.Get("/health", h.Health)
	api.Get("/files/*", h.GetFile)

	auth := api.Group("/auth")
	auth.Post("/signup", h.Signup)
	auth.Post("/login", h.Login)
	auth.Post("/logout", h.Logout)
	auth.Get("/me", authenticated, h.Me)
	auth.Put("/profile", authenticated, h.UpdateProfile)
	auth.Put("/bookmark/:eventId", authenticated, h.ToggleBookmark)
	auth.Get("/bookmarks", authenticated, h.ListBookmarks)
	auth.Get("/github", h.GitHubRedirect)
	auth.Get("/github/callback", h.GitHubCallback)
	auth.Post("/github", h.GitHubLogin)

	events := api.Group("/events")
	events.Get("", h.ListEvents)
	events.Post("", authenticated, admin, h.CreateEvent)
	events.Get("/:id", h.GetEvent)
	events.Put("/:id", authenticated, admin, h.UpdateEvent)
	events.Delete("/:id", authenticated, admin, h.DeleteEvent)
	events.Post("/:id/register", authenticated, h.RegisterForEvent)
	events.Delete("/:id/register", authenticated, h.CancelRegistration)
	events.Get("/:id/registration", authenticated, h.RegistrationStatus)
	events.Get("/:id/registrations", authenticated, admin, h.ListEventRegistrations)
	events.Get("/:id/reviews", h.ListReviews)
	events.Post("/:id/reviews", authenticated, h.AddReview)

	users := api.Group("/users", authenticated)
	users.Get("/me/registrations", h.MyRegistrations)
	users.Get("", admin, h.ListUsers)
	users.Patch("/:id", admin, h.UpdateUserRole)
	users.Delete("/:id", admin, h.DeleteUser)

	adminGroup := api.Group("/admin", authenticated, admin)
	adminGroup.Get("/stats", h.Stats)
	adminGroup.Get("/registrations", h.ListAllRegistrations)
	adminGroup.Get("/export", h.ExportRegistrations)
	adminGroup.Post("/sync-ticketmaster", h.SyncTicketmaster)
	adminGroup.Post("/uploads/banner", h.UploadBanner)
}

// Health reports whether the database is reachable
func (h *Handler) Health(c *fiber.Ctx) error {
	if err := h.repo.HealthCheck(c.UserContext()); err != nil {
		slog.ErrorContext(c.UserContext(), "Database health check failed", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  "database connection failed",
		})
	}

	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"driver":    h.cfg.Database.Driver,
	})
}

// statusOf maps a domain error kind to its HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, model.ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, model.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, model.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, model.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, model.ErrRateLimited):
		return fiber.StatusTooManyRequests
	case errors.Is(err, model.ErrUpstream):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// respondError writes err as {"error": message}. Unexpected errors are logged
// and hidden behind a generic message.
func respondError(c *fiber.Ctx, err error) error {
	status := statusOf(err)
	message := model.Message(err)
	if status == fiber.StatusInternalServerError || message == "" {
		slog.ErrorContext(c.UserContext(), "Request failed",
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
		status = fiber.StatusInternalServerError
		message = "Internal server error"
	} else if status == fiber.StatusBadGateway {
		slog.WarnContext(c.UserContext(), "Upstream failure", "path", c.Path(), "error", err)
	}

	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

// ErrorHandler is the fiber error handler for errors no handler dealt with.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"error": fe.Message,
		})
	}
	return respondError(c, err)
}

// bind decodes the JSON body into dst. Fields dst does not declare and
// trailing data are rejected.
func bind(c *fiber.Ctx, dst any) error {
	body := c.Body()
	if len(body) == 0 {
		return nil
	}
	if !strings.HasPrefix(strings.ToLower(string(c.Request().Header.ContentType())), fiber.MIMEApplicationJSON) {
		return model.NewValidationError("request body must be JSON")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if field, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
			return model.NewValidationError("unknown field %s", field)
		}
		return model.NewValidationError("invalid request body")
	}
	if err := dec.Decode(&json.RawMessage{}); !errors.Is(err, io.EOF) {
		return model.NewValidationError("invalid request body")
	}
	return nil
}
