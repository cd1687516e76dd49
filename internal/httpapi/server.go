// Package httpapi exposes the attendance, task and identity services over HTTP.
package httpapi

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"worktime/internal/service"
)

// Services the routes delegate to.
type Services struct {
	Auth   *service.AuthService
	Ledger *service.LedgerService
	Tasks  *service.TaskService
	// Ping reports storage health. Optional.
	Ping func(ctx context.Context) error
}

// Options tune the HTTP stack.
type Options struct {
	// AuthLimiter guards sign-up and login when set.
	AuthLimiter    fiber.Handler
	RequestLogging bool
	Logger         *slog.Logger
}

// NewApp builds the Fiber application with every route registered.
func NewApp(svc Services, opts Options) *fiber.App {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	app := fiber.New(fiber.Config{
		AppName:               "worktime",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(log),
	})
	app.Use(recover.New())
	if opts.RequestLogging {
		app.Use(logger.New())
	}
	app.Use(cors.New())

	h := &handlers{svc: svc, log: log}

	app.Get("/health", h.health)

	limited := func(handler fiber.Handler) []fiber.Handler {
		if opts.AuthLimiter == nil {
			return []fiber.Handler{handler}
		}
		return []fiber.Handler{opts.AuthLimiter, handler}
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/sign-up", limited(h.signUp)...)
	authGroup.Post("/login", limited(h.login)...)
	authGroup.Get("/users", authenticate(svc.Auth), h.listUsers)

	attendance := app.Group("/attendance", authenticate(svc.Auth))
	attendance.Post("/record", h.recordAttendance)
	attendance.Get("/log-history", h.attendanceHistory)

	tasks := app.Group("/tasks", authenticate(svc.Auth))
	tasks.Post("/create-task", h.createTask)
	tasks.Put("/update-task/:taskId", h.updateTask)
	tasks.Delete("/delete-task/:taskId", h.deleteTask)
	tasks.Get("/task-history", h.taskHistory)
	tasks.Patch("/update-task-status/:taskId", h.updateTaskStatus)

	return app
}

type handlers struct {
	svc Services
	log *slog.Logger
}

func (h *handlers) health(c *fiber.Ctx) error {
	if h.svc.Ping != nil {
		if err := h.svc.Ping(c.UserContext()); err != nil {
			h.log.Warn("health check failed", "err", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
