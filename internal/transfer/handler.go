package transfer

import (
	"errors"
	"fmt"
	"strconv"

	"stocktide-backend/internal/audit"
	"stocktide-backend/internal/auth"
	"stocktide-backend/internal/models"
	"stocktide-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
)

type CreateTransferRequest struct {
	SourceBranchID      uint   `json:"source_branch_id"`
	DestinationBranchID uint   `json:"destination_branch_id"`
	ProductID           uint   `json:"product_id"`
	Quantity            int    `json:"quantity"`
	Notes               string `json:"notes"`
}

type TransferResponse struct {
	ID                    uint   `json:"id"`
	SourceBranchID        uint   `json:"source_branch_id"`
	SourceBranchName      string `json:"source_branch_name,omitempty"`
	DestinationBranchID   uint   `json:"destination_branch_id"`
	DestinationBranchName string `json:"destination_branch_name,omitempty"`
	ProductID             uint   `json:"product_id"`
	ProductName           string `json:"product_name,omitempty"`
	Quantity              int    `json:"quantity"`
	Status                string `json:"status"`
	Notes                 string `json:"notes"`
	RequestedBy           uint   `json:"requested_by"`
	RequesterName         string `json:"requester_name"`
	CreatedAt             string `json:"created_at"`
	CompletedAt           string `json:"completed_at,omitempty"`
}

func toResponse(t *models.Transfer) TransferResponse {
	res := TransferResponse{
		ID:                    t.ID,
		SourceBranchID:        t.SourceBranchID,
		SourceBranchName:      t.SourceBranch.Name,
		DestinationBranchID:   t.DestinationBranchID,
		DestinationBranchName: t.DestinationBranch.Name,
		ProductID:             t.ProductID,
		ProductName:           t.Product.Name,
		Quantity:              t.Quantity,
		Status:                string(t.Status),
		Notes:                 t.Notes,
		RequestedBy:           t.RequestedBy,
		RequesterName:         t.RequesterName,
		CreatedAt:             t.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if t.CompletedAt != nil {
		res.CompletedAt = t.CompletedAt.Format("2006-01-02 15:04:05")
	}
	return res
}

// toHTTPError translates service errors into the error taxonomy:
// validation 400, authorization 403, not found 404, conflict 409.
func toHTTPError(err error) error {
	var insufficient stock.InsufficientStockError
	var conflict StatusConflictError
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotAllowed):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, ErrSameBranch),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrUnknownBranch),
		errors.Is(err, ErrUnknownProduct):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.As(err, &insufficient):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.As(err, &conflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "transfer operation failed")
	}
}

// POST /api/transfers
func CreateTransferHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.PrincipalFromCtx(c)
		if err != nil {
			return err
		}

		var body CreateTransferRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		t, err := svc.Create(p, CreateParams{
			SourceBranchID:      body.SourceBranchID,
			DestinationBranchID: body.DestinationBranchID,
			ProductID:           body.ProductID,
			Quantity:            body.Quantity,
			Notes:               body.Notes,
		})
		if err != nil {
			return toHTTPError(err)
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: p.OrganizationID,
			BranchID:       &t.SourceBranchID,
			UserID:         p.UserID,
			UserName:       p.Name,
			EntityType:     "transfer",
			EntityID:       t.ID,
			Action:         models.AuditActionCreate,
			Description:    fmt.Sprintf("transfer of %d x product %d, branch %d -> %d", t.Quantity, t.ProductID, t.SourceBranchID, t.DestinationBranchID),
			After:          t,
		})

		return c.Status(fiber.StatusCreated).JSON(toResponse(t))
	}
}

// GET /api/transfers?status=
func ListTransfersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.PrincipalFromCtx(c)
		if err != nil {
			return err
		}

		var status *models.TransferStatus
		if statusStr := c.Query("status"); statusStr != "" {
			st := models.TransferStatus(statusStr)
			switch st {
			case models.TransferPending, models.TransferApproved, models.TransferRejected,
				models.TransferCompleted, models.TransferCancelled:
				status = &st
			default:
				return fiber.NewError(fiber.StatusBadRequest, "unknown transfer status")
			}
		}

		transfers, err := svc.List(p, status)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "transfers could not be listed")
		}

		res := make([]TransferResponse, 0, len(transfers))
		for i := range transfers {
			res = append(res, toResponse(&transfers[i]))
		}
		return c.JSON(res)
	}
}

// POST /api/transfers/:id/approve
func ApproveTransferHandler(svc *Service) fiber.Handler {
	return transitionHandler(svc.Approve, "approve")
}

// POST /api/transfers/:id/reject
func RejectTransferHandler(svc *Service) fiber.Handler {
	return transitionHandler(svc.Reject, "reject")
}

// POST /api/transfers/:id/complete
func CompleteTransferHandler(svc *Service) fiber.Handler {
	return transitionHandler(svc.Complete, "complete")
}

// POST /api/transfers/:id/cancel
func CancelTransferHandler(svc *Service) fiber.Handler {
	return transitionHandler(svc.Cancel, "cancel")
}

func transitionHandler(fn func(auth.Principal, uint) (*models.Transfer, error), action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.PrincipalFromCtx(c)
		if err != nil {
			return err
		}

		id, err := strconv.ParseUint(c.Params("id"), 10, 32)
		if err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "transfer id must be a number")
		}

		t, err := fn(p, uint(id))
		if err != nil {
			return toHTTPError(err)
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: p.OrganizationID,
			BranchID:       &t.SourceBranchID,
			UserID:         p.UserID,
			UserName:       p.Name,
			EntityType:     "transfer",
			EntityID:       t.ID,
			Action:         models.AuditActionUpdate,
			Description:    fmt.Sprintf("transfer %d %s", t.ID, t.Status),
			After:          fiber.Map{"status": t.Status},
		})

		return c.JSON(toResponse(t))
	}
}
