package models

import "time"

// APIKey is a scoped credential for the programmatic API. The secret is
// shown once at creation time and only its bcrypt hash is stored.
type APIKey struct {
	ID             uint   `gorm:"primaryKey"`
	OrganizationID uint   `gorm:"index;not null"`
	KeyID          string `gorm:"size:64;uniqueIndex;not null"`
	SecretHash     string `gorm:"size:255;not null"`
	Label          string `gorm:"size:100"`
	CanRead        bool   `gorm:"default:true"`
	CanWrite       bool   `gorm:"default:false"`
	CreatedAt      time.Time
	RevokedAt      *time.Time
}

// Active reports whether the key may still be used.
func (k *APIKey) Active() bool {
	return k.RevokedAt == nil
}
