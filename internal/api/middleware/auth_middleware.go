package middleware

import (
	"crypto/subtle"
	"log/slog"
	"strings"

	config "github.com/boothlabs/igpublisher/configs"
	"github.com/boothlabs/igpublisher/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

// Supabase stores the session access token in this cookie for browser clients.
const accessTokenCookie = "sb-access-token"

type AuthMiddleware struct {
	cfg config.Config
}

func NewAuthMiddleware(cfg config.Config) *AuthMiddleware {
	return &AuthMiddleware{cfg: cfg}
}

func (m *AuthMiddleware) AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			tokenString = c.Cookies(accessTokenCookie)
		}

		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing access token",
			})
		}

		claims, err := utils.ValidateToken(m.cfg.JWTSecret, tokenString)
		if err != nil {
			slog.Info("token validation failed", "error", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("user_id", claims.Subject)
		return c.Next()
	}
}

// CronAuth guards the batch entry point with the shared cron secret.
func (m *AuthMiddleware) CronAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m.cfg.CronSecret == "" {
			slog.Error("CRON_SECRET is not set, refusing cron request")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		token := bearerToken(c)
		if subtle.ConstantTimeCompare([]byte(token), []byte(m.cfg.CronSecret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
