package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/ajarin-go-api/internal/config"
	"github.com/noah-isme/ajarin-go-api/internal/handler"
	"github.com/noah-isme/ajarin-go-api/internal/middleware"
	"github.com/noah-isme/ajarin-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler          *handler.AuthHandler
	CourseHandler        *handler.CourseHandler
	ProgressHandler      *handler.ProgressHandler
	AssignmentHandler    *handler.AssignmentHandler
	SubmissionHandler    *handler.SubmissionHandler
	CertificateHandler   *handler.CertificateHandler
	DiscussionHandler    *handler.DiscussionHandler
	NotificationHandler  *handler.NotificationHandler
	UploadHandler        *handler.UploadHandler
	AdminActivityHandler *handler.AdminActivityHandler
	JWTMiddleware        fiber.Handler
	AuthLimiter          fiber.Handler
	HealthProbes         []handler.HealthProbe
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes...))

	if deps.AuthHandler != nil {
		var guards []fiber.Handler
		if deps.AuthLimiter != nil {
			guards = append(guards, deps.AuthLimiter)
		}
		deps.AuthHandler.RegisterPublic(api, guards...)
	}
	if deps.CertificateHandler != nil {
		deps.CertificateHandler.RegisterPublic(api)
	}

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Admin routes are registered before the catch-all protected group so
	// role checks run ahead of the shared handlers.
	if deps.AdminActivityHandler != nil {
		admin := api.Group("/admin", jwtMiddleware, middleware.RequireRole("admin"))
		deps.AdminActivityHandler.Register(admin)
	}

	protected := api.Group("", jwtMiddleware)

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(protected)
	}
	if deps.CourseHandler != nil {
		deps.CourseHandler.Register(protected)
	}
	if deps.ProgressHandler != nil {
		deps.ProgressHandler.Register(protected)
	}
	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.Register(protected)
	}
	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.Register(protected)
	}
	if deps.CertificateHandler != nil {
		deps.CertificateHandler.Register(protected)
	}
	if deps.DiscussionHandler != nil {
		deps.DiscussionHandler.Register(protected)
	}
	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(protected)
	}
	if deps.UploadHandler != nil {
		deps.UploadHandler.Register(protected)
	}
}
