package catalog

import (
	"strings"

	"stocktide-backend/internal/auth"
	"stocktide-backend/internal/database"
	"stocktide-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CreateProductRequest struct {
	Name    string          `json:"name"`
	SKU     string          `json:"sku"`
	Barcode string          `json:"barcode"`
	Price   decimal.Decimal `json:"price"`
}

type UpdateProductRequest struct {
	Name    *string          `json:"name"`
	SKU     *string          `json:"sku"`
	Barcode *string          `json:"barcode"`
	Price   *decimal.Decimal `json:"price"`
}

type ProductResponse struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Barcode   string          `json:"barcode"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt string          `json:"created_at"`
}

func productResponse(p *models.Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		Name:      p.Name,
		SKU:       p.SKU,
		Barcode:   p.Barcode,
		Price:     p.Price,
		CreatedAt: p.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// POST /api/products
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.PrincipalFromCtx(c)
		if err != nil {
			return err
		}

		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "product name cannot be empty")
		}
		if body.Price.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "price cannot be negative")
		}

		product := models.Product{
			OrganizationID: p.OrganizationID,
			Name:           body.Name,
			SKU:            strings.TrimSpace(body.SKU),
			Barcode:        strings.TrimSpace(body.Barcode),
			Price:          body.Price,
		}

		if err := database.DB.Create(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "product could not be created")
		}

		return c.Status(fiber.StatusCreated).JSON(productResponse(&product))
	}
}

// GET /api/products
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.PrincipalFromCtx(c)
		if err != nil {
			return err
		}

		query := database.DB.Where("organization_id = ?", p.OrganizationID)
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			like := "%" + search + "%"
			query = query.Where("name ILIKE ? OR sku ILIKE ? OR barcode ILIKE ?", like, like, like)
		}

		var products []models.Product
		if err := query.Order("name ASC").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "products could not be listed")
		}

		res := make([]ProductResponse, 0, len(products))
		for i := range products {
			res = append(res, productResponse(&products[i]))
		}
		return c.JSON(res)
	}
}

// PUT /api/products/:id
// Identity is immutable once stock references the product; only the
// descriptive fields change here.
func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.PrincipalFromCtx(c)
		if err != nil {
			return err
		}

		var product models.Product
		if err := database.DB.Where("id = ? AND organization_id = ?", c.Params("id"), p.OrganizationID).
			First(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}

		var body UpdateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "product name cannot be empty")
			}
			product.Name = name
		}
		if body.SKU != nil {
			product.SKU = strings.TrimSpace(*body.SKU)
		}
		if body.Barcode != nil {
			product.Barcode = strings.TrimSpace(*body.Barcode)
		}
		if body.Price != nil {
			if body.Price.IsNegative() {
				return fiber.NewError(fiber.StatusBadRequest, "price cannot be negative")
			}
			product.Price = *body.Price
		}

		if err := database.DB.Save(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "product could not be updated")
		}

		return c.JSON(productResponse(&product))
	}
}
