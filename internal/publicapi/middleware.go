package publicapi

import (
	"time"

	"stocktide-backend/internal/database"
	"stocktide-backend/internal/logging"
	"stocktide-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	HeaderAPIKey    = "X-Api-Key"
	HeaderAPISecret = "X-Api-Secret"

	CtxAPIKey = "api_key"
)

// KeyAuth authenticates the key/secret pair, runs the handler, and then
// records the call (caller, endpoint, status, latency) in the request log.
func KeyAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		keyID := c.Get(HeaderAPIKey)
		secret := c.Get(HeaderAPISecret)
		if keyID == "" || secret == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "X-Api-Key and X-Api-Secret headers are required")
		}

		var key models.APIKey
		if err := database.DB.Where("key_id = ?", keyID).First(&key).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "unknown API key")
		}
		if !key.Active() {
			return fiber.NewError(fiber.StatusUnauthorized, "API key has been revoked")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(key.SecretHash), []byte(secret)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "wrong API secret")
		}

		c.Locals(CtxAPIKey, key)

		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		latency := time.Since(start)

		entry := models.APIRequestLog{
			APIKeyID:       key.ID,
			OrganizationID: key.OrganizationID,
			Method:         c.Method(),
			Path:           c.Path(),
			StatusCode:     status,
			LatencyMs:      latency.Milliseconds(),
		}
		if dbErr := database.DB.Create(&entry).Error; dbErr != nil {
			logging.Logger().WithFields(logrus.Fields{
				"module": "publicapi",
				"key_id": key.KeyID,
			}).Errorf("request log could not be written: %v", dbErr)
		}

		logging.Logger().WithFields(logrus.Fields{
			"module":     "publicapi",
			"key_id":     key.KeyID,
			"org_id":     key.OrganizationID,
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency_ms": latency.Milliseconds(),
		}).Info("api request")

		return err
	}
}

// RequirePermission gates an endpoint on the key's coarse read/write flags.
func RequirePermission(write bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, ok := c.Locals(CtxAPIKey).(models.APIKey)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "API key not resolved")
		}
		if write && !key.CanWrite {
			return fiber.NewError(fiber.StatusForbidden, "API key has no write permission")
		}
		if !write && !key.CanRead {
			return fiber.NewError(fiber.StatusForbidden, "API key has no read permission")
		}
		return c.Next()
	}
}
