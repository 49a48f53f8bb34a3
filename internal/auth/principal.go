package auth

import (
	"errors"
	"strconv"

	"stocktide-backend/internal/models"
)

// Principal is the acting identity for one request. OrganizationID is the
// effective tenant: it is resolved exactly once at the request boundary
// (including the acting-org override for platform admins) and threaded
// explicitly from there. Nothing deeper in the stack re-reads headers.
type Principal struct {
	UserID          uint
	Name            string
	OrganizationID  uint
	BranchID        *uint
	Role            models.UserRole
	IsPlatformAdmin bool
}

var ErrOverrideNotAllowed = errors.New("acting-org override requires a platform admin account")

// ResolveEffectiveOrg returns the organization the principal acts for.
// override is the raw header value; empty means the principal's own
// organization. Only platform admins may act for another organization.
func ResolveEffectiveOrg(claims *JWTCustomClaims, override string) (uint, error) {
	if override == "" {
		return claims.OrganizationID, nil
	}
	if !claims.IsPlatformAdmin {
		return 0, ErrOverrideNotAllowed
	}
	orgID, err := strconv.ParseUint(override, 10, 32)
	if err != nil || orgID == 0 {
		return 0, errors.New("acting-org override must be a valid organization id")
	}
	return uint(orgID), nil
}
