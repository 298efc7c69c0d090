package handlers

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"strings"

	"github.com/boothlabs/igpublisher/internal/models"
	"github.com/boothlabs/igpublisher/internal/service"
	"github.com/boothlabs/igpublisher/internal/transfer"
	"github.com/boothlabs/igpublisher/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

var listableStatuses = map[string]struct{}{
	models.PostStatusPending:    {},
	models.PostStatusInProgress: {},
	models.PostStatusPublished:  {},
	models.PostStatusFailed:     {},
}

type PostHandler struct {
	s service.PostService
}

func NewPostHandler(service service.PostService) *PostHandler {
	return &PostHandler{s: service}
}

// CreatePost accepts JSON with an imageUrl, or a multipart form carrying the
// image itself in a "file" field.
func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var pc transfer.PostCreation
	if err := c.BodyParser(&pc); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	var file *multipart.FileHeader
	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil && !errors.Is(err, fasthttp.ErrMissingFile) {
			slog.Error(err.Error())
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unable to parse form",
			})
		}
		file = fh
	}

	if err := utils.ValidateStruct(pc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	post, err := h.s.CreatePost(c.Context(), userID, &pc, file)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to schedule post",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	userID := GetUserID(c)
	status := c.Query("status")

	if status != "" {
		if _, ok := listableStatuses[status]; !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unknown status filter",
			})
		}
	}

	posts, err := h.s.List(c.Context(), userID, status)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list posts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	post, err := h.s.PostInfo(c.Context(), c.Params("id"), userID)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Post not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to get post",
		})
	}

	return c.Status(fiber.StatusOK).JSON(post)
}
