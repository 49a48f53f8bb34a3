package admin

import (
	"strings"
	"time"

	"stocktide-backend/internal/audit"
	"stocktide-backend/internal/auth"
	"stocktide-backend/internal/database"
	"stocktide-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type CreateAPIKeyRequest struct {
	Label    string `json:"label"`
	CanRead  bool   `json:"can_read"`
	CanWrite bool   `json:"can_write"`
}

type APIKeyResponse struct {
	ID        uint   `json:"id"`
	KeyID     string `json:"key_id"`
	Label     string `json:"label"`
	CanRead   bool   `json:"can_read"`
	CanWrite  bool   `json:"can_write"`
	CreatedAt string `json:"created_at"`
	RevokedAt string `json:"revoked_at,omitempty"`
}

// POST /api/api-keys
// The secret is returned exactly once; only its hash is stored.
func CreateAPIKeyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.PrincipalFromCtx(c)
		if err != nil {
			return err
		}

		var body CreateAPIKeyRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if !body.CanRead && !body.CanWrite {
			return fiber.NewError(fiber.StatusBadRequest, "key needs at least one of can_read, can_write")
		}

		secret := uuid.NewString()
		hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "secret could not be hashed")
		}

		key := models.APIKey{
			OrganizationID: p.OrganizationID,
			KeyID:          uuid.NewString(),
			SecretHash:     string(hash),
			Label:          strings.TrimSpace(body.Label),
			CanRead:        body.CanRead,
			CanWrite:       body.CanWrite,
		}

		if err := database.DB.Create(&key).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "API key could not be created")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: p.OrganizationID,
			UserID:         p.UserID,
			UserName:       p.Name,
			EntityType:     "api_key",
			EntityID:       key.ID,
			Action:         models.AuditActionCreate,
			Description:    "API key created: " + key.Label,
		})

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":       key.ID,
			"key_id":   key.KeyID,
			"secret":   secret, // shown once
			"label":    key.Label,
			"can_read": key.CanRead,
			"can_write": key.CanWrite,
		})
	}
}

// GET /api/api-keys
func ListAPIKeysHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.PrincipalFromCtx(c)
		if err != nil {
			return err
		}

		var keys []models.APIKey
		if err := database.DB.Where("organization_id = ?", p.OrganizationID).
			Order("created_at DESC").Find(&keys).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "API keys could not be listed")
		}

		res := make([]APIKeyResponse, 0, len(keys))
		for _, k := range keys {
			item := APIKeyResponse{
				ID:        k.ID,
				KeyID:     k.KeyID,
				Label:     k.Label,
				CanRead:   k.CanRead,
				CanWrite:  k.CanWrite,
				CreatedAt: k.CreatedAt.Format("2006-01-02 15:04:05"),
			}
			if k.RevokedAt != nil {
				item.RevokedAt = k.RevokedAt.Format("2006-01-02 15:04:05")
			}
			res = append(res, item)
		}
		return c.JSON(res)
	}
}

// DELETE /api/api-keys/:id
// Revocation, not deletion: the key stays for the request log's sake.
func RevokeAPIKeyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.PrincipalFromCtx(c)
		if err != nil {
			return err
		}

		var key models.APIKey
		if err := database.DB.Where("id = ? AND organization_id = ?", c.Params("id"), p.OrganizationID).
			First(&key).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "API key not found")
		}

		if key.RevokedAt != nil {
			return fiber.NewError(fiber.StatusConflict, "API key is already revoked")
		}

		now := time.Now()
		if err := database.DB.Model(&key).Update("revoked_at", &now).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "API key could not be revoked")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: p.OrganizationID,
			UserID:         p.UserID,
			UserName:       p.Name,
			EntityType:     "api_key",
			EntityID:       key.ID,
			Action:         models.AuditActionUpdate,
			Description:    "API key revoked: " + key.Label,
		})

		return c.JSON(fiber.Map{"revoked": true})
	}
}
