package stock

import (
	"errors"

	"stocktide-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the stock record store plus adjustment service: one quantity
// per (product, branch), absence reads as zero, writes never leave a
// negative quantity behind.
type Store interface {
	Quantity(orgID, productID, branchID uint) (int, error)
	SetQuantity(orgID, productID, branchID uint, quantity int) error
	Adjust(orgID, productID, branchID uint, delta int, mode AdjustMode) (int, error)
}

type GormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Quantity returns the on-hand quantity, 0 when no record exists yet.
// Absence is not an error: records are created lazily on first write.
func (s *GormStore) Quantity(orgID, productID, branchID uint) (int, error) {
	return QuantityTx(s.db, orgID, productID, branchID)
}

func (s *GormStore) SetQuantity(orgID, productID, branchID uint, quantity int) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return SetTx(tx, orgID, productID, branchID, quantity)
	})
}

func (s *GormStore) Adjust(orgID, productID, branchID uint, delta int, mode AdjustMode) (int, error) {
	var next int
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		next, txErr = AdjustTx(tx, orgID, productID, branchID, delta, mode)
		return txErr
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// QuantityTx reads the on-hand quantity without taking a lock.
func QuantityTx(tx *gorm.DB, orgID, productID, branchID uint) (int, error) {
	var rec models.StockRecord
	err := tx.Where("organization_id = ? AND product_id = ? AND branch_id = ?",
		orgID, productID, branchID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rec.Quantity, nil
}

// lockRecord loads the (product, branch) record under FOR UPDATE, creating
// it with quantity 0 when it does not exist yet. The unique index on the
// pair keeps concurrent creators down to one row.
func lockRecord(tx *gorm.DB, orgID, productID, branchID uint) (*models.StockRecord, error) {
	rec := models.StockRecord{
		OrganizationID: orgID,
		ProductID:      productID,
		BranchID:       branchID,
	}
	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("organization_id = ? AND product_id = ? AND branch_id = ?",
			orgID, productID, branchID).
		FirstOrCreate(&rec)
	if result.Error != nil {
		return nil, result.Error
	}
	return &rec, nil
}

// AdjustTx applies delta to the record inside the caller's transaction and
// returns the new quantity. The transfer workflow uses this directly so the
// debit, credit and status write share one transaction.
func AdjustTx(tx *gorm.DB, orgID, productID, branchID uint, delta int, mode AdjustMode) (int, error) {
	rec, err := lockRecord(tx, orgID, productID, branchID)
	if err != nil {
		return 0, err
	}

	next, err := ApplyDelta(rec.Quantity, delta, mode)
	if err != nil {
		return 0, err
	}

	if err := tx.Model(&models.StockRecord{}).Where("id = ?", rec.ID).
		Update("quantity", next).Error; err != nil {
		return 0, err
	}
	return next, nil
}

// SetTx overwrites the quantity inside the caller's transaction.
func SetTx(tx *gorm.DB, orgID, productID, branchID uint, quantity int) error {
	if quantity < 0 {
		return ErrNegativeQuantity
	}
	rec, err := lockRecord(tx, orgID, productID, branchID)
	if err != nil {
		return err
	}
	return tx.Model(&models.StockRecord{}).Where("id = ?", rec.ID).
		Update("quantity", quantity).Error
}
