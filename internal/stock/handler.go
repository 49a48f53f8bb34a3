package stock

import (
	"errors"
	"fmt"
	"strconv"

	"stocktide-backend/internal/audit"
	"stocktide-backend/internal/auth"
	"stocktide-backend/internal/authz"
	"stocktide-backend/internal/database"
	"stocktide-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InventoryRow struct {
	ProductID   uint            `json:"product_id"`
	Name        string          `json:"name"`
	SKU         string          `json:"sku"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	MinQuantity int             `json:"min_quantity"`
	Level       Level           `json:"level"`
}

type AdjustStockRequest struct {
	ProductID uint   `json:"product_id"`
	BranchID  uint   `json:"branch_id"`
	Op        string `json:"op"` // add | subtract | set
	Quantity  int    `json:"quantity"`
}

// MainBranch returns the organization's default branch: the earliest
// created is_main row, falling back to the earliest branch of any kind.
func MainBranch(db *gorm.DB, orgID uint) (*models.Branch, error) {
	var branch models.Branch
	err := db.Where("organization_id = ? AND is_main = true", orgID).
		Order("created_at ASC, id ASC").First(&branch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = db.Where("organization_id = ?", orgID).
			Order("created_at ASC, id ASC").First(&branch).Error
	}
	if err != nil {
		return nil, err
	}
	return &branch, nil
}

// GET /api/inventory?branch_id=
// Branch-switchable view: every product of the organization with its
// quantity at the selected branch (0 when no record exists).
func InventoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.PrincipalFromCtx(c)
		if err != nil {
			return err
		}

		var branchID uint
		if branchIDStr := c.Query("branch_id"); branchIDStr != "" {
			id, convErr := strconv.ParseUint(branchIDStr, 10, 32)
			if convErr != nil {
				return fiber.NewError(fiber.StatusBadRequest, "branch_id must be a number")
			}
			branchID = uint(id)

			var branch models.Branch
			if err := database.DB.Where("id = ? AND organization_id = ?", branchID, p.OrganizationID).
				First(&branch).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("branch not found (ID: %d)", branchID))
			}
		} else {
			branch, mbErr := MainBranch(database.DB, p.OrganizationID)
			if mbErr != nil {
				return fiber.NewError(fiber.StatusNotFound, "organization has no branches yet")
			}
			branchID = branch.ID
		}

		var rows []struct {
			ProductID   uint
			Name        string
			SKU         string
			Price       decimal.Decimal
			Quantity    int
			MinQuantity *int
		}
		err = database.DB.Table("products").
			Select("products.id AS product_id, products.name, products.sku, products.price, "+
				"COALESCE(stock_records.quantity, 0) AS quantity, stock_records.min_quantity").
			Joins("LEFT JOIN stock_records ON stock_records.product_id = products.id AND stock_records.branch_id = ?", branchID).
			Where("products.organization_id = ?", p.OrganizationID).
			Order("products.name ASC").
			Scan(&rows).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "inventory could not be loaded")
		}

		res := make([]InventoryRow, 0, len(rows))
		for _, r := range rows {
			min := DefaultMinQuantity
			if r.MinQuantity != nil {
				min = *r.MinQuantity
			}
			res = append(res, InventoryRow{
				ProductID:   r.ProductID,
				Name:        r.Name,
				SKU:         r.SKU,
				Price:       r.Price,
				Quantity:    r.Quantity,
				MinQuantity: min,
				Level:       Classify(r.Quantity, r.MinQuantity),
			})
		}

		return c.JSON(fiber.Map{
			"branch_id": branchID,
			"items":     res,
		})
	}
}

// POST /api/stock/adjust
// Direct quantity change for receiving, corrections and POS deduction.
// Subtractions clamp at zero.
func AdjustStockHandler(store Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.PrincipalFromCtx(c)
		if err != nil {
			return err
		}

		var body AdjustStockRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if body.ProductID == 0 || body.BranchID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "product_id and branch_id are required")
		}

		if !authz.For(p).AdjustStock {
			return fiber.NewError(fiber.StatusForbidden, "you are not allowed to adjust stock")
		}
		if !authz.CanOriginateFrom(p, body.BranchID) {
			return fiber.NewError(fiber.StatusForbidden, "you can only adjust stock of your own branch")
		}

		var branch models.Branch
		if err := database.DB.Where("id = ? AND organization_id = ?", body.BranchID, p.OrganizationID).
			First(&branch).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("branch not found (ID: %d)", body.BranchID))
		}
		var product models.Product
		if err := database.DB.Where("id = ? AND organization_id = ?", body.ProductID, p.OrganizationID).
			First(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "product not found")
		}

		before, err := store.Quantity(p.OrganizationID, body.ProductID, body.BranchID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "stock could not be read")
		}

		after, err := ApplyOp(store, p.OrganizationID, body.ProductID, body.BranchID, body.Op, body.Quantity)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidOp), errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrNegativeQuantity):
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			default:
				return fiber.NewError(fiber.StatusInternalServerError, "stock could not be adjusted")
			}
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: p.OrganizationID,
			BranchID:       &body.BranchID,
			UserID:         p.UserID,
			UserName:       p.Name,
			EntityType:     "stock_record",
			EntityID:       body.ProductID,
			Action:         models.AuditActionUpdate,
			Description:    fmt.Sprintf("%s %d (%s, branch %d)", body.Op, body.Quantity, product.Name, body.BranchID),
			Before:         fiber.Map{"quantity": before},
			After:          fiber.Map{"quantity": after},
		})

		return c.JSON(fiber.Map{
			"product_id": body.ProductID,
			"branch_id":  body.BranchID,
			"quantity":   after,
		})
	}
}
