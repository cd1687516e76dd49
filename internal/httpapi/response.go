package httpapi

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"worktime/internal/apperr"
)

// Envelope wraps every successful response.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
}

// ErrorEnvelope is the body of every failed response.
type ErrorEnvelope struct {
	StatusCode int    `json:"statusCode"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Path       string `json:"path"`
}

func respond(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Envelope{StatusCode: status, Success: true, Message: message, Data: data})
}

// errorHandler renders errors returned by handlers and middleware.
func errorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var status int
		var message string
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status, message = fe.Code, fe.Message
		} else {
			e := apperr.From(err)
			status, message = e.Status, e.Message
		}

		if status >= fiber.StatusInternalServerError {
			log.Error("request failed", "method", c.Method(), "path", c.Path(), "err", err)
		}

		return c.Status(status).JSON(ErrorEnvelope{
			StatusCode: status,
			Success:    false,
			Message:    message,
			Path:       c.OriginalURL(),
		})
	}
}
