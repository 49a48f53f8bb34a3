package stock

import (
	"errors"
	"fmt"
)

// AdjustMode decides what happens when a negative delta would push a
// quantity below zero.
type AdjustMode int

const (
	// ClampAtZero floors the result at 0. Used for manual corrections and
	// point-of-sale deductions.
	ClampAtZero AdjustMode = iota
	// RejectNegative fails the adjustment and leaves the record unchanged.
	// Used by the transfer workflow.
	RejectNegative
)

// DefaultMinQuantity is the reorder threshold applied when a stock record
// has none of its own.
const DefaultMinQuantity = 10

// InsufficientStockError is returned when a RejectNegative adjustment
// would cross zero.
type InsufficientStockError struct {
	Available int
	Requested int
}

func (e InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: available %d, requested %d", e.Available, e.Requested)
}

// ApplyDelta computes the quantity after applying delta to current.
// The result never goes below zero: depending on mode the adjustment is
// either clamped or rejected.
func ApplyDelta(current, delta int, mode AdjustMode) (int, error) {
	next := current + delta
	if next < 0 {
		if mode == RejectNegative {
			return 0, InsufficientStockError{Available: current, Requested: -delta}
		}
		next = 0
	}
	return next, nil
}

// Adjustment operations accepted by the session and programmatic APIs.
const (
	OpAdd      = "add"
	OpSubtract = "subtract"
	OpSet      = "set"
)

var (
	ErrInvalidOp        = errors.New("op must be add, subtract or set")
	ErrInvalidQuantity  = errors.New("quantity must be a positive integer")
	ErrNegativeQuantity = errors.New("quantity cannot be negative")
)

// ApplyOp runs one named adjustment operation against the store. Both the
// session API and the programmatic API funnel through here so the two
// surfaces cannot drift apart.
func ApplyOp(store Store, orgID, productID, branchID uint, op string, quantity int) (int, error) {
	switch op {
	case OpAdd:
		if quantity <= 0 {
			return 0, ErrInvalidQuantity
		}
		return store.Adjust(orgID, productID, branchID, quantity, ClampAtZero)
	case OpSubtract:
		if quantity <= 0 {
			return 0, ErrInvalidQuantity
		}
		return store.Adjust(orgID, productID, branchID, -quantity, ClampAtZero)
	case OpSet:
		if quantity < 0 {
			return 0, ErrNegativeQuantity
		}
		if err := store.SetQuantity(orgID, productID, branchID, quantity); err != nil {
			return 0, err
		}
		return quantity, nil
	default:
		return 0, ErrInvalidOp
	}
}

// Level classifies a quantity against its reorder threshold for display.
type Level string

const (
	LevelLow     Level = "low"
	LevelMedium  Level = "medium"
	LevelHealthy Level = "healthy"
)

// Classify buckets a quantity: at or below the threshold is low, up to
// twice the threshold is medium, anything above is healthy.
func Classify(quantity int, minQuantity *int) Level {
	min := DefaultMinQuantity
	if minQuantity != nil {
		min = *minQuantity
	}
	switch {
	case quantity <= min:
		return LevelLow
	case quantity <= 2*min:
		return LevelMedium
	default:
		return LevelHealthy
	}
}
