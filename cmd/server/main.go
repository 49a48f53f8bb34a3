package main

import (
	"strings"

	"stocktide-backend/internal/admin"
	"stocktide-backend/internal/audit"
	"stocktide-backend/internal/auth"
	"stocktide-backend/internal/authz"
	"stocktide-backend/internal/catalog"
	"stocktide-backend/internal/config"
	"stocktide-backend/internal/dashboard"
	"stocktide-backend/internal/database"
	"stocktide-backend/internal/logging"
	"stocktide-backend/internal/publicapi"
	"stocktide-backend/internal/stock"
	"stocktide-backend/internal/transfer"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg := config.Load()
	logging.SetLevel(cfg.LogLevel)
	log := logging.Logger()

	database.Init(cfg)

	stockStore := stock.NewStore(database.DB)
	transferSvc := transfer.NewService(transfer.NewStore(database.DB))

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Errorf("unexpected error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "unexpected server error",
			})
		},
	})

	app.Use(recover.New())

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + auth.ActingOrgHeader,
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-owner", auth.RegisterOwnerHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Session-authenticated routes
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Branch management
	branches := protected.Group("/branches")
	branches.Get("/", admin.ListBranchesHandler())
	branches.Get("/:id", admin.GetBranchHandler())
	branches.Post("/", authz.Require(func(c authz.Capability) bool { return c.ManageBranches }), admin.CreateBranchHandler())
	branches.Put("/:id", authz.Require(func(c authz.Capability) bool { return c.ManageBranches }), admin.UpdateBranchHandler())

	// Users
	protected.Post("/users", authz.Require(func(c authz.Capability) bool { return c.ManageUsers }), admin.CreateUserHandler())
	protected.Get("/users", authz.Require(func(c authz.Capability) bool { return c.ManageUsers }), admin.ListUsersHandler())

	// Product catalog
	protected.Get("/products", catalog.ListProductsHandler())
	protected.Post("/products", authz.Require(func(c authz.Capability) bool { return c.ManageProducts }), catalog.CreateProductHandler())
	protected.Put("/products/:id", authz.Require(func(c authz.Capability) bool { return c.ManageProducts }), catalog.UpdateProductHandler())

	// Inventory views & direct adjustments
	protected.Get("/inventory", stock.InventoryHandler())
	protected.Post("/stock/adjust", stock.AdjustStockHandler(stockStore))

	// Transfer workflow
	protected.Post("/transfers", transfer.CreateTransferHandler(transferSvc))
	protected.Get("/transfers", transfer.ListTransfersHandler(transferSvc))
	protected.Post("/transfers/:id/approve", transfer.ApproveTransferHandler(transferSvc))
	protected.Post("/transfers/:id/reject", transfer.RejectTransferHandler(transferSvc))
	protected.Post("/transfers/:id/complete", transfer.CompleteTransferHandler(transferSvc))
	protected.Post("/transfers/:id/cancel", transfer.CancelTransferHandler(transferSvc))

	// Dashboard
	protected.Get("/dashboard/stock-overview", dashboard.StockOverviewHandler())

	// API keys for the programmatic surface
	keys := protected.Group("/api-keys", authz.Require(func(c authz.Capability) bool { return c.ManageAPIKeys }))
	keys.Post("/", admin.CreateAPIKeyHandler())
	keys.Get("/", admin.ListAPIKeysHandler())
	keys.Delete("/:id", admin.RevokeAPIKeyHandler())

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())

	// Programmatic API (key/secret authenticated, request-logged)
	v1 := app.Group("/api/v1", publicapi.KeyAuth())
	v1.Get("/stock", publicapi.RequirePermission(false), publicapi.ListStockHandler())
	v1.Patch("/stock", publicapi.RequirePermission(true), publicapi.PatchStockHandler(stockStore))

	log.Infof("server listening on port %s", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
