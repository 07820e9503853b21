package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-portal/internal/api/http/handlers"
	"github.com/spec-kit/grievance-portal/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Auth            *handlers.AuthHandler
	Complaints      *handlers.ComplaintsHandler
	AdminComplaints *handlers.AdminComplaintsHandler
	AuthMiddleware  *auth.Middleware
	RedisClient     *redis.Client
	Logger          *zap.Logger
	OTPRateLimit    int
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	throttled := RateLimit(cfg.RedisClient, cfg.Logger, "auth", cfg.OTPRateLimit, time.Minute)

	authGroup := app.Group("/auth")
	authGroup.Post("/send-otp", throttled, cfg.Auth.SendOTP)
	authGroup.Post("/verify-otp", throttled, cfg.Auth.VerifyOTP)
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", throttled, cfg.Auth.Login)
	authGroup.Get("/validate-token", cfg.AuthMiddleware.Handle, cfg.Auth.ValidateToken)

	complaints := app.Group("/complaints")
	complaints.Post("/", cfg.AuthMiddleware.HandleOptional, cfg.Complaints.Create)
	complaints.Post("/anonymous", cfg.Complaints.CreateAnonymous)
	complaints.Get("/track/:id", cfg.Complaints.Track)
	complaints.Get("/", cfg.AuthMiddleware.Handle, cfg.Complaints.ListMine)
	complaints.Put("/:id/status", cfg.AuthMiddleware.Handle, auth.RequireAdmin(), cfg.AdminComplaints.UpdateStatus)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Get("/complaints", cfg.AdminComplaints.List)
	admin.Get("/complaints/:id", cfg.AdminComplaints.Get)
}
