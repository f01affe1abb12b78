package middleware

import (
	"time"

	"studyquiz/internal/logger"
	"studyquiz/internal/util"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

const RequestIDHeader = fiber.HeaderXRequestID

// RequestIDKey is the fiber Locals key holding the request id.
const RequestIDKey = "requestid"

// NewRequestID tags every request with a ULID unless the caller sent one.
func NewRequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     RequestIDHeader,
		Generator:  util.NewULID,
		ContextKey: RequestIDKey,
	})
}

// RequestID returns the id assigned by NewRequestID, or "".
func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(RequestIDKey).(string)
	return id
}

// RequestLogger logs method, path, status and latency of every request.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// Run the error handler now so the logged status is the one sent.
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		fields := []zap.Field{
			zap.String("request_id", RequestID(c)),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
		}
		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Get().Error("Request failed", fields...)
		case status >= fiber.StatusBadRequest:
			logger.Get().Warn("Request rejected", fields...)
		default:
			logger.Get().Info("Request handled", fields...)
		}
		return nil
	}
}
