package auth

import (
	"fmt"
	"strings"

	"stocktide-backend/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	CtxPrincipalKey = "principal"

	// ActingOrgHeader lets a platform admin act on behalf of another
	// organization for the duration of one request.
	ActingOrgHeader = "X-Acting-Org"
)

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header missing")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header must be 'Bearer <token>'")
		}

		token, err := jwt.ParseWithClaims(parts[1], &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		claims, ok := token.Claims.(*JWTCustomClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "token claims could not be parsed")
		}

		orgID, err := ResolveEffectiveOrg(claims, c.Get(ActingOrgHeader))
		if err != nil {
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		}

		c.Locals(CtxPrincipalKey, Principal{
			UserID:          claims.UserID,
			Name:            claims.Name,
			OrganizationID:  orgID,
			BranchID:        claims.BranchID,
			Role:            claims.Role,
			IsPlatformAdmin: claims.IsPlatformAdmin,
		})

		return c.Next()
	}
}

// PrincipalFromCtx returns the principal stored by JWTMiddleware.
func PrincipalFromCtx(c *fiber.Ctx) (Principal, error) {
	p, ok := c.Locals(CtxPrincipalKey).(Principal)
	if !ok {
		return Principal{}, fiber.NewError(fiber.StatusForbidden, "principal not resolved")
	}
	return p, nil
}
