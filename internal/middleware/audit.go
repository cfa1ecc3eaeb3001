package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Audit emits one structured log line per request with status, latency and
// the request identifier.
func Audit(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		requestID, _ := c.Locals(requestIDHeader).(string)
		attrs := []any{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", c.Response().StatusCode()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", requestID),
		}
		if err != nil {
			logger.Error("request completed", append(attrs, slog.Any("error", err))...)
			return err
		}
		logger.Info("request completed", attrs...)
		return nil
	}
}
