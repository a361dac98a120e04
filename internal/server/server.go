// Package server contains the HTTP handlers and middleware chain of the job board.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"jobboard/internal/cache"
	"jobboard/internal/config"
	"jobboard/internal/database"
	"jobboard/internal/middleware"
	"jobboard/internal/repository"
	"jobboard/internal/service"
	"jobboard/internal/session"
	"jobboard/internal/views"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const csrfContextKey = "csrf"

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	store          repository.Store
	auth           *service.AuthService
	jobs           *service.JobService
	sessions       *session.Manager
	views          *views.Engine
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := database.ApplySchema(context.Background(), db, cfg); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return NewServerWithDeps(cfg, db, cache.Connect(cfg.RedisURL))
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; sessions then cannot be revoked server-side and
// caching and rate limiting are disabled.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, fmt.Errorf("server requires a config and a database")
	}

	store := repository.NewStore(db)

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("jobboard"),
		store:          store,
		auth:           service.NewAuthService(store, service.NewPasswordHasher(cfg.PasswordHasher), cache.New(redisClient, "user")),
		jobs:           service.NewJobService(store),
		sessions: session.NewManager(session.Options{
			Secret:      cfg.SecretKey,
			CookieName:  cfg.SessionCookieName,
			SessionTTL:  cfg.SessionTTL,
			RememberTTL: cfg.RememberTTL,
			Secure:      cfg.CookieSecure,
			Redis:       redisClient,
		}),
		views: views.New(),
	}, nil
}

// App builds the Fiber application with middleware and routes mounted.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	app := fiber.New(fiber.Config{
		AppName:      "Job Board",
		Views:        s.views,
		ErrorHandler: s.ErrorHandler,
		BodyLimit:    1 * 1024 * 1024,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Resolve the session before the context middleware so user_id reaches the logs
	app.Use(s.LoadSession())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	app.Use(middleware.StructuredLogger())

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return isOperationalPath(c.Path())
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests, please try again later.")
		},
	}))

	// Forms carry the token as _csrf; test runs post forms without it
	if s.config.Env != "test" {
		app.Use(csrf.New(csrf.Config{
			KeyLookup:      "form:_csrf",
			CookieName:     "jobboard_csrf",
			CookieSameSite: "Lax",
			CookieSecure:   s.config.CookieSecure,
			CookieHTTPOnly: true,
			Expiration:     1 * time.Hour,
			ContextKey:     csrfContextKey,
			Next: func(c *fiber.Ctx) bool {
				return isOperationalPath(c.Path())
			},
		}))
	}
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Get("/", s.Home)
	app.Get("/home", s.Home)

	guest := s.RedirectIfAuthenticated()
	app.Get("/register", guest, s.RegisterForm)
	app.Post("/register", guest, middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "register"), s.Register)
	app.Get("/login", guest, s.LoginForm)
	app.Post("/login", guest, middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)

	app.Get("/logout", s.AuthRequired(), s.Logout)

	job := app.Group("/job")
	// Define /new BEFORE the generic /:id route
	job.Get("/new", s.AuthRequired(), s.NewJobForm)
	job.Post("/new", s.AuthRequired(), middleware.RateLimit(
		s.redis, 10, time.Minute, "create_job"), s.CreateJob)
	job.Get("/:id/update", s.AuthRequired(), s.UpdateJobForm)
	job.Post("/:id/update", s.AuthRequired(), s.UpdateJob)
	job.Post("/:id/delete", s.AuthRequired(), s.DeleteJob)
	job.Get("/:id", s.JobDetail)
}

func isOperationalPath(path string) bool {
	return path == "/metrics" || path == "/health/live" || path == "/health/ready"
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   nowUTC(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: its
// absence is reported but does not fail readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": nowUTC(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port), slog.String("env", s.config.Env))
	return app.Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests and releases the database pool and Redis client.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := database.Close(s.db); err != nil {
		middleware.Logger.Error("error closing database", slog.String("error", err.Error()))
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
