package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/classly/classly-api/internal/config"
	"github.com/classly/classly-api/internal/handler"
	"github.com/classly/classly-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler             *handler.AuthHandler
	ClassHandler            *handler.ClassHandler
	AssignmentHandler       *handler.AssignmentHandler
	SubmissionHandler       *handler.SubmissionHandler
	GradingHandler          *handler.GradingHandler
	StudentDashboardHandler *handler.StudentDashboardHandler
	JWTMiddleware           fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		auth := api.Group("/auth")
		deps.AuthHandler.Register(auth)
		deps.AuthHandler.RegisterProtected(api.Group("/auth", jwtMiddleware))
	}

	if deps.ClassHandler != nil {
		classes := api.Group("/classes", jwtMiddleware)
		deps.ClassHandler.Register(classes)

		if deps.AssignmentHandler != nil {
			deps.AssignmentHandler.RegisterClassRoutes(classes)
		}
	}

	if deps.AssignmentHandler != nil {
		assignments := api.Group("/assignments", jwtMiddleware)
		deps.AssignmentHandler.Register(assignments)

		if deps.SubmissionHandler != nil {
			deps.SubmissionHandler.RegisterAssignmentRoutes(assignments)
		}
		if deps.GradingHandler != nil {
			deps.GradingHandler.RegisterAssignmentRoutes(assignments)
		}
	}

	if deps.SubmissionHandler != nil {
		submissions := api.Group("/submissions", jwtMiddleware)
		deps.SubmissionHandler.Register(submissions)
	}

	if deps.StudentDashboardHandler != nil {
		dashboard := api.Group("/student/dashboard", jwtMiddleware)
		deps.StudentDashboardHandler.Register(dashboard)
	}
}
