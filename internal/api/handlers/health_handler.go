package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/afs-framework/backend/internal/cache/redis"
	"github.com/afs-framework/backend/internal/storage"
	"github.com/afs-framework/backend/pkg/logger"
)

type HealthHandler struct {
	repo  storage.Repository
	cache *redis.Client
}

func NewHealthHandler(repo storage.Repository, cache *redis.Client) *HealthHandler {
	return &HealthHandler{
		repo:  repo,
		cache: cache,
	}
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// Ready verifies the database. The cache is reported but optional, so a
// down Redis never fails readiness.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	if err := h.repo.Ping(c.Context()); err != nil {
		logger.Error("Readiness check failed", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "unavailable",
			"database": "down",
		})
	}

	cacheStatus := "disabled"
	if h.cache != nil {
		cacheStatus = "up"
		if err := h.cache.Ping(c.Context()); err != nil {
			cacheStatus = "down"
		}
	}

	return c.JSON(fiber.Map{
		"status":   "ready",
		"database": "up",
		"cache":    cacheStatus,
	})
}
