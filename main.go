package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"eventhub/internal/api"
	"eventhub/internal/config"
	"eventhub/internal/daemon"
	"eventhub/internal/database"
	"eventhub/internal/logger"
	"eventhub/internal/middleware"
	"eventhub/internal/monitoring"
	"eventhub/internal/repository"
	"eventhub/internal/service"
	"eventhub/internal/storage"
	"eventhub/internal/telemetry"
	"eventhub/internal/ticketmaster"
	"eventhub/internal/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/storage/postgres/v3"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) (err error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	tel, err := monitoring.NewOpenTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		err = errors.Join(err, closeWithTimeout(cfg.Server.ShutdownTimeout, "telemetry", tel.Shutdown))
	}()
	logger.New(cfg)

	repo, closeRepo, err := repository.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, closeWithTimeout(cfg.Server.ShutdownTimeout, "database", closeRepo))
	}()

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = database.NewRedisClient(cfg.Redis)
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, closeWithTimeout(cfg.Server.ShutdownTimeout, "redis", func(context.Context) error {
				return redisClient.Close()
			}))
		}()
	} else {
		slog.Warn("REDIS_URL not set, auth attempt limiting is disabled")
	}

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	v := validator.New()
	tokens := service.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	syncService := service.NewSyncService(repo, ticketmaster.NewClient(cfg.Ticketmaster), v, tel)

	handler := api.NewHandler(cfg, repo, api.Services{
		Auth:          service.NewAuthService(repo, tokens, service.NewRateLimiter(redisClient, cfg.Redis), v, tel, cfg.Auth.BcryptCost),
		GitHub:        service.NewGitHubService(cfg.GitHub, repo, tokens, tel),
		Tokens:        tokens,
		Events:        service.NewEventService(repo, v),
		Registrations: service.NewRegistrationService(repo, tel),
		Bookmarks:     service.NewBookmarkService(repo, tel),
		Reviews:       service.NewReviewService(repo, v, tel),
		Users:         service.NewUserService(repo, v),
		Admin:         service.NewAdminService(repo),
		Export:        service.NewExportService(repo),
		Sync:          syncService,
		Banners:       service.NewBannerService(store, cfg.Storage.MaxFileSize, cfg.Storage.URLTTL),
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.Telemetry.ServiceName,
		ErrorHandler: api.ErrorHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BodyLimit:    int(cfg.Storage.MaxFileSize) + 1<<20,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: !cfg.Server.IsProduction()}))
	app.Use(requestid.New())
	app.Use(telemetry.FiberMiddleware(cfg.Telemetry.ServiceName))
	app.Use(middleware.Logger())
	app.Use(middleware.SecurityHeaders())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.Server.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: true,
	}))
	app.Use(limiter.New(limiterConfig(cfg)))

	handler.Register(app)

	manager := daemon.NewDaemonManager()
	if cfg.Ticketmaster.SyncInterval > 0 {
		manager.Add("ticketmaster-sync", daemon.SyncTask(syncService, cfg.Ticketmaster.SyncInterval))
	}
	manager.Start(ctx)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "addr", cfg.Server.Addr(), "driver", cfg.Database.Driver)
		serverErr <- app.Listen(cfg.Server.Addr())
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			slog.Error("HTTP server stopped", "error", err)
		}
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	shutdownErr := app.ShutdownWithContext(shutdownCtx)
	manager.Wait()

	slog.Info("Server stopped")
	if shutdownErr != nil {
		return fmt.Errorf("shutdown http server: %w", shutdownErr)
	}
	return nil
}

// closeWithTimeout runs a release func under its own deadline so it still
// gets time after the run context is cancelled.
func closeWithTimeout(timeout time.Duration, name string, release func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := release(ctx); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	return nil
}

// limiterConfig keeps counters in postgres when that is the primary store so
// limits hold across instances.
func limiterConfig(cfg config.Config) limiter.Config {
	lc := limiter.Config{
		Max:        cfg.Server.RateLimitMax,
		Expiration: cfg.Server.RateLimitWindow,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/api/health"
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later",
			})
		},
	}
	if cfg.Database.Driver == config.DriverPostgres {
		lc.Storage = postgres.New(postgres.Config{
			ConnectionURI: cfg.Database.PostgresURL,
			Table:         cfg.Database.LimiterTable,
			GCInterval:    10 * time.Minute,
		})
	}
	return lc
}
