package models

import "time"

type UserRole string

const (
	RoleOwner   UserRole = "owner"
	RoleManager UserRole = "manager"
	RoleStaff   UserRole = "staff"
)

type User struct {
	ID             uint `gorm:"primaryKey"`
	OrganizationID uint `gorm:"index;not null"`
	Organization   Organization
	BranchID       *uint // nil for owners working across branches
	Branch         *Branch
	Name           string   `gorm:"size:100;not null"`
	Email          string   `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash   string   `gorm:"size:255;not null"`
	Role           UserRole `gorm:"size:20;not null"`
	// IsPlatformAdmin marks an operator account that may act on behalf of
	// another organization via the acting-org override header.
	IsPlatformAdmin bool `gorm:"default:false"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
