package dashboard

import (
	"stocktide-backend/internal/auth"
	"stocktide-backend/internal/database"
	"stocktide-backend/internal/models"
	"stocktide-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
)

type BranchStockSummary struct {
	BranchID        uint   `json:"branch_id"`
	BranchName      string `json:"branch_name"`
	IsMain          bool   `json:"is_main"`
	ProductsStocked int    `json:"products_stocked"`
	TotalUnits      int    `json:"total_units"`
	LowStockCount   int    `json:"low_stock_count"`
}

type StockOverviewResponse struct {
	Branches         []BranchStockSummary `json:"branches"`
	PendingTransfers int64                `json:"pending_transfers"`
}

// GET /api/dashboard/stock-overview
// Per-branch totals plus the count of transfers still waiting for action.
func StockOverviewHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.PrincipalFromCtx(c)
		if err != nil {
			return err
		}

		var rows []BranchStockSummary
		err = database.DB.Table("branches").
			Select("branches.id AS branch_id, branches.name AS branch_name, branches.is_main, "+
				"COUNT(stock_records.id) AS products_stocked, "+
				"COALESCE(SUM(stock_records.quantity), 0) AS total_units, "+
				"COALESCE(SUM(CASE WHEN stock_records.quantity <= COALESCE(stock_records.min_quantity, ?) THEN 1 ELSE 0 END), 0) AS low_stock_count",
				stock.DefaultMinQuantity).
			Joins("LEFT JOIN stock_records ON stock_records.branch_id = branches.id").
			Where("branches.organization_id = ?", p.OrganizationID).
			Group("branches.id, branches.name, branches.is_main").
			Order("branches.created_at ASC").
			Scan(&rows).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "stock overview could not be loaded")
		}

		var pending int64
		database.DB.Model(&models.Transfer{}).
			Where("organization_id = ? AND status IN ?", p.OrganizationID,
				[]models.TransferStatus{models.TransferPending, models.TransferApproved}).
			Count(&pending)

		return c.JSON(StockOverviewResponse{
			Branches:         rows,
			PendingTransfers: pending,
		})
	}
}
