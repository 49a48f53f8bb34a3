package models

import "time"

// APIRequestLog records one call against the programmatic API for audit.
type APIRequestLog struct {
	ID             uint      `gorm:"primaryKey"`
	APIKeyID       uint      `gorm:"index;not null"`
	OrganizationID uint      `gorm:"index;not null"`
	Method         string    `gorm:"size:10;not null"`
	Path           string    `gorm:"size:255;not null"`
	StatusCode     int       `gorm:"not null"`
	LatencyMs      int64     `gorm:"not null"`
	CreatedAt      time.Time `gorm:"index"`
}
