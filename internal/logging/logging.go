package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// New builds the JSON logger every component writes to and installs it as
// the slog default.
func New(service, level string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	hostname, _ := os.Hostname()

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})
	l := slog.New(h).With("service", service, "hostname", hostname)
	slog.SetDefault(l)
	return l
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RequestIDKey is the fiber Locals key set by the requestid middleware.
const RequestIDKey = "requestid"

// Middleware writes one line per request. userKey names the Locals entry
// holding the authenticated user id, if any.
func Middleware(l *slog.Logger, userKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		attrs := []any{
			"request_id", c.Locals(RequestIDKey),
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
		}
		if uid := c.Locals(userKey); uid != nil {
			attrs = append(attrs, "user_id", uid)
		}

		switch {
		case status >= 500:
			l.Error("request", append(attrs, "error", err)...)
		case status >= 400:
			l.Warn("request", attrs...)
		default:
			l.Info("request", attrs...)
		}
		return err
	}
}

// FromCtx returns a logger tagged with the request id.
func FromCtx(c *fiber.Ctx) *slog.Logger {
	return slog.Default().With("request_id", c.Locals(RequestIDKey))
}
