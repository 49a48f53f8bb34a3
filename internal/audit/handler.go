package audit

import (
	"strconv"

	"stocktide-backend/internal/auth"
	"stocktide-backend/internal/database"
	"stocktide-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/audit-logs?entity_type=&entity_id=&limit=
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.PrincipalFromCtx(c)
		if err != nil {
			return err
		}

		query := database.DB.
			Where("organization_id = ?", p.OrganizationID).
			Order("created_at DESC")

		if entityType := c.Query("entity_type"); entityType != "" {
			query = query.Where("entity_type = ?", entityType)
		}
		if entityIDStr := c.Query("entity_id"); entityIDStr != "" {
			entityID, convErr := strconv.ParseUint(entityIDStr, 10, 32)
			if convErr != nil {
				return fiber.NewError(fiber.StatusBadRequest, "entity_id must be a number")
			}
			query = query.Where("entity_id = ?", uint(entityID))
		}

		limit := 100
		if limitStr := c.Query("limit"); limitStr != "" {
			if l, convErr := strconv.Atoi(limitStr); convErr == nil && l > 0 && l <= 500 {
				limit = l
			}
		}

		var logs []models.AuditLog
		if err := query.Limit(limit).Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "audit logs could not be listed")
		}

		return c.JSON(logs)
	}
}
