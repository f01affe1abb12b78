package handler

import (
	"context"
	"time"

	"studyquiz/internal/dto"

	"github.com/gofiber/fiber/v2"
)

// PingFunc checks one dependency.
type PingFunc func(ctx context.Context) error

// HealthHandler reports liveness and dependency reachability.
type HealthHandler struct {
	checks   map[string]PingFunc
	provider string
}

func NewHealthHandler(provider string, checks map[string]PingFunc) *HealthHandler {
	return &HealthHandler{checks: checks, provider: provider}
}

// Health godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	resp := dto.HealthResponse{Status: "ok", Provider: h.provider}
	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
	}
	status := fiber.StatusOK
	for name, ping := range h.checks {
		if err := ping(ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = fiber.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	return c.Status(status).JSON(resp)
}
