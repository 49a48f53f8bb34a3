package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID             uint `gorm:"primaryKey"`
	OrganizationID uint `gorm:"index;not null"`
	Organization   Organization
	Name           string          `gorm:"size:100;not null"`
	SKU            string          `gorm:"size:50;index"`
	Barcode        string          `gorm:"size:50;index"`
	Price          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
