package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/afs-framework/backend/internal/assessment"
)

type StatsHandler struct {
	service *assessment.Service
}

func NewStatsHandler(service *assessment.Service) *StatsHandler {
	return &StatsHandler{
		service: service,
	}
}

func (h *StatsHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.Context())
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(stats)
}
