package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/bootstrap"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/docstore"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// Structured logging (JSON to stdout)
	stdout := logging.Setup()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	store, stopStore := openStore(ctx, cfg, stdout)

	// Token revocation: Redis when configured, otherwise in-process
	var revoker identity.Revoker
	if cfg.RedisURL != "" {
		rdb, err := database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			slog.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		revoker = identity.NewRedisRevoker(rdb)
	}

	// Services
	accounts := identity.NewService(store, identity.Options{
		Secret:   cfg.JWTSecret,
		TokenTTL: cfg.JWTAccessExpiry,
	}, revoker)
	userService := services.NewUserService(store, accounts)
	jobService := services.NewJobService(store)
	applicantService := services.NewApplicantService(store, jobService)
	departmentService := services.NewDepartmentService(store)

	// Seed departments and the bootstrap administrator
	if cfg.DepartmentsSeedPath != "" {
		seeds, err := bootstrap.LoadDepartments(cfg.DepartmentsSeedPath)
		if err != nil {
			slog.Error("failed to load department seed", "path", cfg.DepartmentsSeedPath, "error", err)
			os.Exit(1)
		}
		if err := bootstrap.SeedDepartments(ctx, store, seeds); err != nil {
			slog.Error("department seed failed", "error", err)
			os.Exit(1)
		}
		slog.Info("departments seeded", "count", len(seeds))
	}
	if cfg.AdminEmail != "" {
		admin := bootstrap.Admin{Email: cfg.AdminEmail, Password: cfg.AdminPassword, Name: cfg.AdminName}
		if err := bootstrap.SeedAdmin(ctx, accounts, userService, admin); err != nil {
			slog.Error("admin seed failed", "error", err)
			os.Exit(1)
		}
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	// Routes
	routes.Setup(app, cfg, accounts, userService, routes.Handlers{
		Auth:        handlers.NewAuthHandler(accounts, userService),
		Health:      handlers.NewHealthHandler(store),
		Users:       handlers.NewUserHandler(userService),
		Departments: handlers.NewDepartmentHandler(departmentService),
		Jobs:        handlers.NewJobHandler(jobService, applicantService),
		Applicants:  handlers.NewApplicantHandler(applicantService),
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "store", cfg.StoreDriver)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	sentry.Flush(2 * time.Second)

	stopStore()

	slog.Info("server stopped")
}

// openStore connects the configured document store backend. The returned
// func releases it along with any background log workers.
func openStore(ctx context.Context, cfg *config.Config, stdout slog.Handler) (docstore.Store, func()) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, db, err := database.ConnectMongo(ctx, cfg)
		if err != nil {
			slog.Error("mongodb connection failed", "error", err)
			os.Exit(1)
		}
		store := docstore.NewMongo(client, db)
		if err := bootstrap.EnsureMongoIndexes(ctx, store); err != nil {
			slog.Error("mongodb index creation failed", "error", err)
			os.Exit(1)
		}
		return store, func() { closeStore(store) }

	case config.DriverMemory:
		slog.Warn("using in-memory document store; data is lost on restart")
		store := docstore.NewMemory()
		return store, func() {}

	default:
		if err := database.Connect(cfg); err != nil {
			slog.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		if err := database.MigrateShared(); err != nil {
			slog.Error("shared migration failed", "error", err)
			os.Exit(1)
		}

		// PostgreSQL log handler (ERROR+ async batch)
		pgLogHandler := logging.NewPGHandler(database.DB)
		slog.SetDefault(slog.New(logging.NewMultiHandler(stdout, pgLogHandler)))

		// Log cleanup (30-day retention)
		cleanupDone := make(chan struct{})
		logging.StartCleanup(database.DB, cleanupDone)

		store := docstore.NewPostgres(database.DB)
		return store, func() {
			close(cleanupDone)
			pgLogHandler.Stop()
			closeStore(store)
		}
	}
}

func closeStore(store docstore.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Close(ctx); err != nil {
		slog.Error("store close error", "error", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
