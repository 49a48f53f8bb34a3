package models

import "time"

type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferApproved  TransferStatus = "approved"
	TransferRejected  TransferStatus = "rejected"
	TransferCompleted TransferStatus = "completed"
	TransferCancelled TransferStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed from s.
func (s TransferStatus) Terminal() bool {
	switch s {
	case TransferRejected, TransferCompleted, TransferCancelled:
		return true
	}
	return false
}

// Transfer is one requested movement of stock between two branches.
// Rows are never deleted; cancellation is a status, not a removal.
// Only Status and CompletedAt change after creation.
type Transfer struct {
	ID                  uint   `gorm:"primaryKey"`
	OrganizationID      uint   `gorm:"index;not null"`
	SourceBranchID      uint   `gorm:"index;not null"`
	SourceBranch        Branch `gorm:"foreignKey:SourceBranchID"`
	DestinationBranchID uint   `gorm:"index;not null"`
	DestinationBranch   Branch `gorm:"foreignKey:DestinationBranchID"`
	ProductID           uint   `gorm:"index;not null"`
	Product             Product
	Quantity            int            `gorm:"not null;check:quantity > 0"`
	Status              TransferStatus `gorm:"size:20;not null;default:'pending';index"`
	Notes               string         `gorm:"size:255"`
	RequestedBy         uint           `gorm:"not null"`
	RequesterName       string         `gorm:"size:100"` // denormalized for the history view
	CreatedAt           time.Time
	UpdatedAt           time.Time
	CompletedAt         *time.Time
}
