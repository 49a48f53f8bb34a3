package models

import "time"

type Branch struct {
	ID             uint `gorm:"primaryKey"`
	OrganizationID uint `gorm:"index;not null"`
	Organization   Organization
	Name           string `gorm:"size:100;not null"`
	Address        string `gorm:"size:255"`
	// IsMain marks the default branch used when no branch is selected.
	// Uniqueness per organization is not enforced at the store level;
	// MainBranch picks the earliest-created flagged row.
	IsMain    bool `gorm:"default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Users []User
}
