package authz

import (
	"stocktide-backend/internal/auth"
	"stocktide-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type BranchScope string

const (
	// ScopeAllBranches: may originate transfers from any branch of the
	// organization.
	ScopeAllBranches BranchScope = "all"
	// ScopeOwnBranch: limited to the principal's assigned branch.
	ScopeOwnBranch BranchScope = "own"
)

// Capability is the closed set of actions a role may perform. Roles map to
// capabilities here and nowhere else; call sites never compare role strings.
type Capability struct {
	CreateTransfer   bool
	ApproveTransfer  bool // also covers reject
	CompleteTransfer bool
	AdjustStock      bool
	ManageBranches   bool
	ManageUsers      bool
	ManageProducts   bool
	ManageAPIKeys    bool
	BranchScope      BranchScope
}

var capabilities = map[models.UserRole]Capability{
	models.RoleOwner: {
		CreateTransfer:   true,
		ApproveTransfer:  true,
		CompleteTransfer: true,
		AdjustStock:      true,
		ManageBranches:   true,
		ManageUsers:      true,
		ManageProducts:   true,
		ManageAPIKeys:    true,
		BranchScope:      ScopeAllBranches,
	},
	models.RoleManager: {
		CreateTransfer:   true,
		ApproveTransfer:  true,
		CompleteTransfer: true,
		AdjustStock:      true,
		ManageBranches:   true,
		ManageProducts:   true,
		BranchScope:      ScopeAllBranches,
	},
	models.RoleStaff: {
		CreateTransfer: true,
		AdjustStock:    true,
		BranchScope:    ScopeOwnBranch,
	},
}

// For returns the capability set of the principal. A platform admin acting
// on behalf of an organization gets owner-level capability within it.
func For(p auth.Principal) Capability {
	if p.IsPlatformAdmin {
		return capabilities[models.RoleOwner]
	}
	return capabilities[p.Role]
}

// CanOriginateFrom reports whether the principal may use branchID as the
// source of a transfer or the target of a direct stock adjustment.
func CanOriginateFrom(p auth.Principal, branchID uint) bool {
	caps := For(p)
	if caps.BranchScope == ScopeAllBranches {
		return true
	}
	return p.BranchID != nil && *p.BranchID == branchID
}

// Require guards a route group with a capability check.
func Require(allowed func(Capability) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.PrincipalFromCtx(c)
		if err != nil {
			return err
		}
		if !allowed(For(p)) {
			return fiber.NewError(fiber.StatusForbidden, "you are not allowed to perform this action")
		}
		return c.Next()
	}
}
