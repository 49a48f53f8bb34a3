package transfer

import (
	"errors"
	"fmt"
	"time"

	"stocktide-backend/internal/auth"
	"stocktide-backend/internal/authz"
	"stocktide-backend/internal/models"
	"stocktide-backend/internal/stock"
)

var (
	ErrNotFound        = errors.New("transfer not found")
	ErrSameBranch      = errors.New("source and destination branch must differ")
	ErrInvalidQuantity = errors.New("transfer quantity must be a positive integer")
	ErrUnknownBranch   = errors.New("branch not found in this organization")
	ErrUnknownProduct  = errors.New("product not found in this organization")
	ErrNotAllowed      = errors.New("you are not allowed to perform this transfer action")
)

// StatusConflictError reports an illegal transition attempt, e.g.
// completing a transfer that was already completed or cancelled.
type StatusConflictError struct {
	Current models.TransferStatus
	Action  string
}

func (e StatusConflictError) Error() string {
	return fmt.Sprintf("transfer cannot be %s while in status %q", e.Action, e.Current)
}

type CreateParams struct {
	SourceBranchID      uint
	DestinationBranchID uint
	ProductID           uint
	Quantity            int
	Notes               string
}

// Service drives the transfer lifecycle:
//
//	PENDING -> APPROVED -> COMPLETED
//	PENDING -> REJECTED
//	any non-terminal -> CANCELLED
//
// Only the COMPLETED transition moves stock, atomically with the status
// write. The stock check at creation time is optimistic: nothing is
// reserved, completion re-validates against the then-current quantity.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create validates and records a new PENDING transfer. Validation and
// authorization run before any store access.
func (s *Service) Create(p auth.Principal, params CreateParams) (*models.Transfer, error) {
	if params.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if params.SourceBranchID == params.DestinationBranchID {
		return nil, ErrSameBranch
	}
	if params.SourceBranchID == 0 || params.DestinationBranchID == 0 || params.ProductID == 0 {
		return nil, ErrUnknownBranch
	}

	caps := authz.For(p)
	if !caps.CreateTransfer {
		return nil, ErrNotAllowed
	}
	if !authz.CanOriginateFrom(p, params.SourceBranchID) {
		return nil, ErrNotAllowed
	}

	for _, branchID := range []uint{params.SourceBranchID, params.DestinationBranchID} {
		ok, err := s.store.BranchExists(p.OrganizationID, branchID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrUnknownBranch
		}
	}
	ok, err := s.store.ProductExists(p.OrganizationID, params.ProductID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnknownProduct
	}

	available, err := s.store.StockQuantity(p.OrganizationID, params.ProductID, params.SourceBranchID)
	if err != nil {
		return nil, err
	}
	if available < params.Quantity {
		return nil, stock.InsufficientStockError{Available: available, Requested: params.Quantity}
	}

	t := &models.Transfer{
		OrganizationID:      p.OrganizationID,
		SourceBranchID:      params.SourceBranchID,
		DestinationBranchID: params.DestinationBranchID,
		ProductID:           params.ProductID,
		Quantity:            params.Quantity,
		Status:              models.TransferPending,
		Notes:               params.Notes,
		RequestedBy:         p.UserID,
		RequesterName:       p.Name,
	}
	if err := s.store.Create(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Approve authorizes the destination to expect goods. No stock moves.
func (s *Service) Approve(p auth.Principal, id uint) (*models.Transfer, error) {
	if !authz.For(p).ApproveTransfer {
		return nil, ErrNotAllowed
	}
	return s.advance(p.OrganizationID, id, models.TransferPending, models.TransferApproved, "approved")
}

// Reject closes a pending transfer without stock effect.
func (s *Service) Reject(p auth.Principal, id uint) (*models.Transfer, error) {
	if !authz.For(p).ApproveTransfer {
		return nil, ErrNotAllowed
	}
	return s.advance(p.OrganizationID, id, models.TransferPending, models.TransferRejected, "rejected")
}

// Complete confirms receipt at the destination. In one transaction the
// source record is debited (rejecting if stock has since run short), the
// destination credited and the status advanced; two concurrent attempts
// cannot both succeed.
func (s *Service) Complete(p auth.Principal, id uint) (*models.Transfer, error) {
	if !authz.For(p).CompleteTransfer {
		return nil, ErrNotAllowed
	}

	var completed *models.Transfer
	err := s.store.InTx(func(tx Store) error {
		t, err := tx.Get(p.OrganizationID, id)
		if err != nil {
			return err
		}
		if t.Status != models.TransferApproved {
			return StatusConflictError{Current: t.Status, Action: "completed"}
		}

		if _, err := tx.AdjustStock(p.OrganizationID, t.ProductID, t.SourceBranchID,
			-t.Quantity, stock.RejectNegative); err != nil {
			return err
		}
		if _, err := tx.AdjustStock(p.OrganizationID, t.ProductID, t.DestinationBranchID,
			t.Quantity, stock.ClampAtZero); err != nil {
			return err
		}

		now := time.Now()
		ok, err := tx.AdvanceStatus(p.OrganizationID, id, models.TransferApproved, models.TransferCompleted, &now)
		if err != nil {
			return err
		}
		if !ok {
			return StatusConflictError{Current: models.TransferCompleted, Action: "completed"}
		}

		t.Status = models.TransferCompleted
		t.CompletedAt = &now
		completed = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

// Cancel closes a non-terminal transfer without stock effect. The
// requester may cancel their own transfer; approvers may cancel any.
func (s *Service) Cancel(p auth.Principal, id uint) (*models.Transfer, error) {
	var cancelled *models.Transfer
	err := s.store.InTx(func(tx Store) error {
		t, err := tx.Get(p.OrganizationID, id)
		if err != nil {
			return err
		}
		if t.RequestedBy != p.UserID && !authz.For(p).ApproveTransfer {
			return ErrNotAllowed
		}
		if t.Status.Terminal() {
			return StatusConflictError{Current: t.Status, Action: "cancelled"}
		}

		ok, err := tx.AdvanceStatus(p.OrganizationID, id, t.Status, models.TransferCancelled, nil)
		if err != nil {
			return err
		}
		if !ok {
			return StatusConflictError{Current: t.Status, Action: "cancelled"}
		}

		t.Status = models.TransferCancelled
		cancelled = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// List returns the organization's transfers, newest first.
func (s *Service) List(p auth.Principal, status *models.TransferStatus) ([]models.Transfer, error) {
	return s.store.List(p.OrganizationID, status)
}

func (s *Service) advance(orgID, id uint, from, to models.TransferStatus, action string) (*models.Transfer, error) {
	var result *models.Transfer
	err := s.store.InTx(func(tx Store) error {
		t, err := tx.Get(orgID, id)
		if err != nil {
			return err
		}
		if t.Status != from {
			return StatusConflictError{Current: t.Status, Action: action}
		}

		ok, err := tx.AdvanceStatus(orgID, id, from, to, nil)
		if err != nil {
			return err
		}
		if !ok {
			return StatusConflictError{Current: t.Status, Action: action}
		}

		t.Status = to
		result = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
