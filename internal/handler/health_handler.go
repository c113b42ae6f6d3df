package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/classly/classly-api/internal/config"
	"github.com/classly/classly-api/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status          string    `json:"status"`
	Timestamp       time.Time `json:"timestamp"`
	Service         string    `json:"service"`
	Environment     string    `json:"environment"`
	GradingProvider string    `json:"grading_provider"`
}

// HealthCheck returns a handler that reports application health information,
// including which model provider the grading pipeline is wired to.
func HealthCheck(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:          "ok",
			Timestamp:       time.Now().UTC(),
			Service:         cfg.AppName,
			Environment:     cfg.AppEnv,
			GradingProvider: cfg.GradingProvider,
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
