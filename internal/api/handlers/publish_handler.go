package handlers

import (
	"log/slog"

	"github.com/boothlabs/igpublisher/internal/service"
	"github.com/boothlabs/igpublisher/internal/transfer"
	"github.com/boothlabs/igpublisher/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type PublishHandler struct {
	cs service.CredentialsService
	ps service.PublishService
}

func NewPublishHandler(cs service.CredentialsService, ps service.PublishService) *PublishHandler {
	return &PublishHandler{cs: cs, ps: ps}
}

// Publish posts one image to Instagram right away. With a scheduledId the
// stored post is claimed first and its row records the outcome.
func (h *PublishHandler) Publish(c *fiber.Ctx) error {
	var req transfer.PublishRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(transfer.PublishResponse{
			Error: "Invalid request body",
			Code:  service.ErrorCode(service.ErrInvalidInput),
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(transfer.PublishResponse{
			Error: err.Error(),
			Code:  service.ErrorCode(service.ErrInvalidInput),
		})
	}

	creds, err := h.cs.Resolve(c.Context())
	if err != nil {
		return publishFailure(c, err)
	}

	outcome, err := h.ps.PublishNow(c.Context(), creds, req.ScheduledID, service.PublishInput{
		ImageURL: req.ImageURL,
		Caption:  req.Caption,
	})
	if err != nil {
		return publishFailure(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(transfer.PublishResponse{
		Success:         true,
		InstagramPostID: outcome.InstagramPostID,
	})
}

func publishFailure(c *fiber.Ctx, err error) error {
	status := service.HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		slog.Error("publish failed", "error", err)
	} else {
		slog.Info("publish failed", "error", err)
	}

	return c.Status(status).JSON(transfer.PublishResponse{
		Error: err.Error(),
		Code:  service.ErrorCode(err),
	})
}
