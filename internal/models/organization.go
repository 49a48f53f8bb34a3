package models

import "time"

// Organization is the tenant boundary. Every row in this system carries an
// OrganizationID and queries never cross it.
type Organization struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Branches []Branch
	Users    []User
}
