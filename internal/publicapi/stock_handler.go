package publicapi

import (
	"errors"
	"strconv"

	"stocktide-backend/internal/database"
	"stocktide-backend/internal/models"
	"stocktide-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
)

type StockItem struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	SKU         string `json:"sku"`
	BranchID    uint   `json:"branch_id"`
	BranchName  string `json:"branch_name"`
	Quantity    int    `json:"quantity"`
	MinQuantity int    `json:"min_quantity"`
}

type PatchStockRequest struct {
	ProductID uint   `json:"product_id"`
	BranchID  uint   `json:"branch_id"`
	Op        string `json:"op"` // add | subtract | set
	Quantity  int    `json:"quantity"`
}

// GET /api/v1/stock?page=&page_size=&low_stock=true
func ListStockHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, ok := c.Locals(CtxAPIKey).(models.APIKey)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "API key not resolved")
		}

		page := 1
		if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
			page = v
		}
		pageSize := 20
		if v, err := strconv.Atoi(c.Query("page_size")); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}

		query := database.DB.Table("stock_records").
			Select("stock_records.product_id, products.name AS product_name, products.sku, "+
				"stock_records.branch_id, branches.name AS branch_name, "+
				"stock_records.quantity, COALESCE(stock_records.min_quantity, ?) AS min_quantity",
				stock.DefaultMinQuantity).
			Joins("JOIN products ON products.id = stock_records.product_id").
			Joins("JOIN branches ON branches.id = stock_records.branch_id").
			Where("stock_records.organization_id = ?", key.OrganizationID)

		if c.Query("low_stock") == "true" {
			query = query.Where("stock_records.quantity <= COALESCE(stock_records.min_quantity, ?)",
				stock.DefaultMinQuantity)
		}

		var total int64
		if err := query.Count(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "stock could not be counted")
		}

		var items []StockItem
		if err := query.Order("products.name ASC, branches.name ASC").
			Offset((page - 1) * pageSize).Limit(pageSize).
			Scan(&items).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "stock could not be listed")
		}

		return c.JSON(fiber.Map{
			"page":      page,
			"page_size": pageSize,
			"total":     total,
			"items":     items,
		})
	}
}

// PATCH /api/v1/stock
func PatchStockHandler(store stock.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, ok := c.Locals(CtxAPIKey).(models.APIKey)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "API key not resolved")
		}

		var body PatchStockRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.ProductID == 0 || body.BranchID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "product_id and branch_id are required")
		}

		var product models.Product
		if err := database.DB.Where("id = ? AND organization_id = ?", body.ProductID, key.OrganizationID).
			First(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "product not found")
		}
		var branch models.Branch
		if err := database.DB.Where("id = ? AND organization_id = ?", body.BranchID, key.OrganizationID).
			First(&branch).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "branch not found")
		}

		quantity, err := stock.ApplyOp(store, key.OrganizationID, body.ProductID, body.BranchID, body.Op, body.Quantity)
		if err != nil {
			switch {
			case errors.Is(err, stock.ErrInvalidOp),
				errors.Is(err, stock.ErrInvalidQuantity),
				errors.Is(err, stock.ErrNegativeQuantity):
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			default:
				return fiber.NewError(fiber.StatusInternalServerError, "stock could not be adjusted")
			}
		}

		return c.JSON(fiber.Map{
			"product_id": body.ProductID,
			"branch_id":  body.BranchID,
			"quantity":   quantity,
		})
	}
}
