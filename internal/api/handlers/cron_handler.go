package handlers

import (
	"log/slog"

	"github.com/boothlabs/igpublisher/internal/queue"
	"github.com/gofiber/fiber/v2"
)

type CronHandler struct {
	sweeper queue.Sweeper
}

func NewCronHandler(sweeper queue.Sweeper) *CronHandler {
	return &CronHandler{sweeper: sweeper}
}

func (h *CronHandler) ProcessScheduledPosts(c *fiber.Ctx) error {
	summary, err := h.sweeper.Run(c.Context())
	if err != nil {
		slog.Error("scheduled post sweep failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(summary)
}
