package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/akademik-api/internal/config"
	"github.com/noah-isme/akademik-api/internal/handler"
	"github.com/noah-isme/akademik-api/internal/observability"
)

// Dependencies groups router dependencies for registration. Nil handlers are skipped.
type Dependencies struct {
	StudentHandler    *handler.StudentHandler
	CourseHandler     *handler.CourseHandler
	EnrollmentHandler *handler.EnrollmentHandler
	NIMHandler        *handler.NIMHandler
	ActivityHandler   *handler.ActivityHandler
	HealthProbes      map[string]handler.HealthProbe
	// WriteGuard protects POST, PATCH and DELETE routes, typically JWT plus role checks.
	WriteGuard []fiber.Handler
	// RegistrationLimiter throttles POST /students.
	RegistrationLimiter fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.Handler())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": cfg.AppName,
			"health":  "/api/v1/health",
		})
	})

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	write := deps.WriteGuard

	if deps.NIMHandler != nil {
		deps.NIMHandler.Register(api)
	}

	if deps.StudentHandler != nil {
		students := api.Group("/students")
		if deps.RegistrationLimiter != nil {
			limiter := deps.RegistrationLimiter
			students.Use(func(c *fiber.Ctx) error {
				if c.Method() == fiber.MethodPost {
					return limiter(c)
				}
				return c.Next()
			})
		}
		deps.StudentHandler.Register(students, write...)
	}

	if deps.CourseHandler != nil {
		deps.CourseHandler.Register(api.Group("/courses"), write...)
	}

	if deps.EnrollmentHandler != nil {
		deps.EnrollmentHandler.Register(api.Group("/enrollments"), write...)
	}

	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(api.Group("/activity"))
	}
}
