package admin

import (
	"strings"

	"stocktide-backend/internal/auth"
	"stocktide-backend/internal/database"
	"stocktide-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type BranchResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	IsMain    bool   `json:"is_main"`
	CreatedAt string `json:"created_at"`
}

type CreateBranchRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	IsMain  bool   `json:"is_main"`
}

type UpdateBranchRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	IsMain  *bool   `json:"is_main"`
}

func branchResponse(b *models.Branch) BranchResponse {
	return BranchResponse{
		ID:        b.ID,
		Name:      b.Name,
		Address:   b.Address,
		IsMain:    b.IsMain,
		CreatedAt: b.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// POST /api/branches
func CreateBranchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.PrincipalFromCtx(c)
		if err != nil {
			return err
		}

		var body CreateBranchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "branch name cannot be empty")
		}

		// First branch of an organization becomes main regardless.
		var count int64
		database.DB.Model(&models.Branch{}).
			Where("organization_id = ?", p.OrganizationID).Count(&count)

		branch := models.Branch{
			OrganizationID: p.OrganizationID,
			Name:           body.Name,
			Address:        body.Address,
			IsMain:         body.IsMain || count == 0,
		}

		if err := database.DB.Create(&branch).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "branch could not be created")
		}

		return c.Status(fiber.StatusCreated).JSON(branchResponse(&branch))
	}
}

// GET /api/branches
func ListBranchesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.PrincipalFromCtx(c)
		if err != nil {
			return err
		}

		var branches []models.Branch
		if err := database.DB.Where("organization_id = ?", p.OrganizationID).
			Order("created_at ASC").Find(&branches).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "branches could not be listed")
		}

		res := make([]BranchResponse, 0, len(branches))
		for i := range branches {
			res = append(res, branchResponse(&branches[i]))
		}
		return c.JSON(res)
	}
}

// GET /api/branches/:id
func GetBranchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.PrincipalFromCtx(c)
		if err != nil {
			return err
		}

		var branch models.Branch
		if err := database.DB.Where("id = ? AND organization_id = ?", c.Params("id"), p.OrganizationID).
			First(&branch).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "branch not found")
		}

		return c.JSON(branchResponse(&branch))
	}
}

// PUT /api/branches/:id
func UpdateBranchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.PrincipalFromCtx(c)
		if err != nil {
			return err
		}

		var branch models.Branch
		if err := database.DB.Where("id = ? AND organization_id = ?", c.Params("id"), p.OrganizationID).
			First(&branch).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "branch not found")
		}

		var body UpdateBranchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "branch name cannot be empty")
			}
			branch.Name = name
		}
		if body.Address != nil {
			branch.Address = *body.Address
		}
		if body.IsMain != nil {
			branch.IsMain = *body.IsMain
		}

		if err := database.DB.Save(&branch).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "branch could not be updated")
		}

		return c.JSON(branchResponse(&branch))
	}
}
