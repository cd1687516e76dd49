package httpapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"worktime/internal/apperr"
)

// parseDate accepts YYYY-MM-DD (UTC midnight) or RFC 3339. Empty yields nil.
func parseDate(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperr.Validation("%s must be a date (YYYY-MM-DD) or an RFC 3339 timestamp.", field)
	}
	t = t.UTC()
	return &t, nil
}

func dateRange(c *fiber.Ctx) (start, end *time.Time, err error) {
	if start, err = parseDate("startDate", c.Query("startDate")); err != nil {
		return nil, nil, err
	}
	if end, err = parseDate("endDate", c.Query("endDate")); err != nil {
		return nil, nil, err
	}
	return start, end, nil
}

// queryInt reads a positive integer query parameter; zero when absent.
func queryInt(c *fiber.Ctx, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperr.Validation("%s must be a positive integer.", name)
	}
	return n, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperr.Validation("Invalid request body.")
	}
	return nil
}
