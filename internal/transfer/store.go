package transfer

import (
	"errors"
	"time"

	"stocktide-backend/internal/models"
	"stocktide-backend/internal/stock"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is everything the transfer workflow needs from the data store.
// InTx hands out a transaction-scoped Store; inside it Get takes a row
// lock and stock adjustments join the same transaction, so the COMPLETED
// debit-credit-status triple commits or rolls back as one unit.
type Store interface {
	InTx(fn func(Store) error) error
	Create(t *models.Transfer) error
	Get(orgID, id uint) (*models.Transfer, error)
	// AdvanceStatus moves the transfer from one status to another as a
	// compare-and-swap; it returns false when the row was no longer in
	// the expected status.
	AdvanceStatus(orgID, id uint, from, to models.TransferStatus, completedAt *time.Time) (bool, error)
	List(orgID uint, status *models.TransferStatus) ([]models.Transfer, error)
	BranchExists(orgID, branchID uint) (bool, error)
	ProductExists(orgID, productID uint) (bool, error)
	StockQuantity(orgID, productID, branchID uint) (int, error)
	AdjustStock(orgID, productID, branchID uint, delta int, mode stock.AdjustMode) (int, error)
}

type GormStore struct {
	db   *gorm.DB
	inTx bool
}

func NewStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) InTx(fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, inTx: true})
	})
}

func (s *GormStore) Create(t *models.Transfer) error {
	return s.db.Create(t).Error
}

func (s *GormStore) Get(orgID, id uint) (*models.Transfer, error) {
	query := s.db
	if s.inTx {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var t models.Transfer
	err := query.Where("organization_id = ?", orgID).First(&t, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *GormStore) AdvanceStatus(orgID, id uint, from, to models.TransferStatus, completedAt *time.Time) (bool, error) {
	updates := map[string]any{"status": to}
	if completedAt != nil {
		updates["completed_at"] = completedAt
	}

	result := s.db.Model(&models.Transfer{}).
		Where("id = ? AND organization_id = ? AND status = ?", id, orgID, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (s *GormStore) List(orgID uint, status *models.TransferStatus) ([]models.Transfer, error) {
	query := s.db.
		Preload("SourceBranch").
		Preload("DestinationBranch").
		Preload("Product").
		Where("organization_id = ?", orgID).
		Order("created_at DESC, id DESC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var transfers []models.Transfer
	if err := query.Find(&transfers).Error; err != nil {
		return nil, err
	}
	return transfers, nil
}

func (s *GormStore) BranchExists(orgID, branchID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.Branch{}).
		Where("id = ? AND organization_id = ?", branchID, orgID).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) ProductExists(orgID, productID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.Product{}).
		Where("id = ? AND organization_id = ?", productID, orgID).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) StockQuantity(orgID, productID, branchID uint) (int, error) {
	return stock.QuantityTx(s.db, orgID, productID, branchID)
}

func (s *GormStore) AdjustStock(orgID, productID, branchID uint, delta int, mode stock.AdjustMode) (int, error) {
	return stock.AdjustTx(s.db, orgID, productID, branchID, delta, mode)
}
