package auth

import (
	"strings"

	"stocktide-backend/internal/config"
	"stocktide-backend/internal/database"
	"stocktide-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterOwnerRequest struct {
	OrganizationName string `json:"organization_name"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/register-owner
// Creates the organization, its default main branch and the owner account
// in one transaction.
func RegisterOwnerHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterOwnerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		body.Name = strings.TrimSpace(body.Name)
		body.OrganizationName = strings.TrimSpace(body.OrganizationName)

		if body.OrganizationName == "" || body.Name == "" || body.Email == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "organization_name, name, email and password are required")
		}

		var count int64
		database.DB.Model(&models.User{}).Where("email = ?", body.Email).Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "email is already registered")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "password could not be hashed")
		}

		var owner models.User
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			org := models.Organization{Name: body.OrganizationName}
			if err := tx.Create(&org).Error; err != nil {
				return err
			}

			branch := models.Branch{
				OrganizationID: org.ID,
				Name:           "Main Branch",
				IsMain:         true,
			}
			if err := tx.Create(&branch).Error; err != nil {
				return err
			}

			owner = models.User{
				OrganizationID: org.ID,
				Name:           body.Name,
				Email:          body.Email,
				PasswordHash:   string(hash),
				Role:           models.RoleOwner,
			}
			return tx.Create(&owner).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "account could not be created")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":              owner.ID,
			"email":           owner.Email,
			"role":            owner.Role,
			"organization_id": owner.OrganizationID,
		})
	}
}

// POST /api/auth/login
func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var user models.User
		if err := database.DB.Where("email = ?", body.Email).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "wrong email or password")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "wrong email or password")
		}

		token, err := GenerateToken(cfg.JWTSecret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "token could not be generated")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user": fiber.Map{
				"id":              user.ID,
				"name":            user.Name,
				"email":           user.Email,
				"role":            user.Role,
				"organization_id": user.OrganizationID,
				"branch_id":       user.BranchID,
			},
		})
	}
}

// GET /api/auth/me
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := PrincipalFromCtx(c)
		if err != nil {
			return err
		}

		var user models.User
		if err := database.DB.First(&user, p.UserID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}

		response := fiber.Map{
			"user_id":         user.ID,
			"name":            user.Name,
			"email":           user.Email,
			"role":            user.Role,
			"organization_id": p.OrganizationID,
			"branch_id":       user.BranchID,
		}

		if user.BranchID != nil {
			var branch models.Branch
			if err := database.DB.First(&branch, *user.BranchID).Error; err == nil {
				response["branch"] = fiber.Map{
					"id":      branch.ID,
					"name":    branch.Name,
					"address": branch.Address,
					"is_main": branch.IsMain,
				}
			}
		}

		return c.JSON(response)
	}
}
