package auth

import (
	"time"

	"stocktide-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

type JWTCustomClaims struct {
	UserID          uint            `json:"user_id"`
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	OrganizationID  uint            `json:"organization_id"`
	BranchID        *uint           `json:"branch_id"`
	Role            models.UserRole `json:"role"`
	IsPlatformAdmin bool            `json:"is_platform_admin"`
	jwt.RegisteredClaims
}

func GenerateToken(secret string, user *models.User) (string, error) {
	claims := &JWTCustomClaims{
		UserID:          user.ID,
		Name:            user.Name,
		Email:           user.Email,
		OrganizationID:  user.OrganizationID,
		BranchID:        user.BranchID,
		Role:            user.Role,
		IsPlatformAdmin: user.IsPlatformAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
