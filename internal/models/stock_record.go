package models

import "time"

// StockRecord holds the on-hand quantity of one product at one branch.
// At most one row exists per (product, branch) pair; the row is created
// lazily on the first adjustment and is never deleted, a quantity of 0
// stays behind as a placeholder.
type StockRecord struct {
	ID             uint `gorm:"primaryKey"`
	OrganizationID uint `gorm:"index;not null"`
	ProductID      uint `gorm:"not null;uniqueIndex:idx_stock_product_branch"`
	Product        Product
	BranchID       uint `gorm:"not null;uniqueIndex:idx_stock_product_branch"`
	Branch         Branch
	Quantity       int `gorm:"not null;default:0;check:quantity >= 0"`
	// MinQuantity is the reorder threshold; nil means the default of 10.
	MinQuantity *int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
