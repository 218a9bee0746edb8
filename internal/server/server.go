// Package server assembles the fiber application: middleware, services and
// the route table.
package server

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"restoran-web/internal/addresses"
	"restoran-web/internal/admin"
	"restoran-web/internal/audit"
	"restoran-web/internal/auth"
	"restoran-web/internal/config"
	"restoran-web/internal/inventory"
	"restoran-web/internal/logging"
	"restoran-web/internal/menu"
	"restoran-web/internal/models"
	"restoran-web/internal/orders"
	"restoran-web/internal/rider"
	"restoran-web/internal/vouchers"
	"restoran-web/internal/web"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// New builds the application. Nothing is global: every handler receives
// its dependencies here.
func New(cfg *config.Config, db *gorm.DB, logger *slog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "restoran",
		Views:        web.Engine(),
		ErrorHandler: errorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: logging.RequestIDKey,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.CORSOriginList(), ","),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Csrf-Token",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowCredentials: true,
	}))
	app.Use(logging.Middleware(logger, auth.CtxUserIDKey))

	authSvc := auth.NewService(db, cfg)
	app.Use(auth.Authenticate(cfg, authSvc))
	app.Use(csrf.New(csrf.Config{
		Next:           skipCSRF,
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   cfg.CookieSecure,
		Expiration:     cfg.SessionTTL,
		ContextKey:     web.CSRFKey,
		Extractor: func(c *fiber.Ctx) (string, error) {
			if token := c.Get(csrf.HeaderName); token != "" {
				return token, nil
			}
			return csrf.CsrfFromForm("_csrf")(c)
		},
	}))

	registerRoutes(app, cfg, db, authSvc)
	return app
}

// skipCSRF exempts bearer clients, which carry no ambient credentials, and
// the endpoint that issues their tokens.
func skipCSRF(c *fiber.Ctx) bool {
	return auth.IsBearer(c) || strings.TrimSuffix(c.Path(), "/") == "/api/auth/token"
}

func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}
		logger.Error("unexpected error",
			"request_id", c.Locals(logging.RequestIDKey),
			"path", c.Path(),
			"error", err,
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Unexpected server error"})
	}
}

func registerRoutes(app *fiber.App, cfg *config.Config, db *gorm.DB, authSvc *auth.Service) {
	now := time.Now
	rec := audit.NewRecorder(db)

	stockSvc := inventory.NewService(db, rec)
	voucherRepo := vouchers.NewRepository(db)
	orderSvc := orders.NewService(db, orders.NewRepository(db), voucherRepo, stockSvc, now)
	riderSvc := rider.NewService(db, now)
	menuSvc := menu.NewService(db)
	addressSvc := addresses.NewService(db)
	console := admin.NewConsole(db, rec, admin.Resources())

	requireAPI := auth.RequireAPIAuth()
	requirePage := auth.RequirePageAuth()
	kitchen := auth.RequireRole(models.RoleStaff, models.RoleChef, models.RoleAdmin)
	cashier := auth.RequireRole(models.RoleStaff, models.RoleAdmin)

	// Pages
	app.Get("/", func(c *fiber.Ctx) error { return c.Redirect("/login/", fiber.StatusFound) })
	app.Get("/login", web.LoginPageHandler(cfg))
	app.Post("/login", web.LoginSubmitHandler(cfg, authSvc))
	app.Get("/login/demo/:role", web.DemoLoginHandler(cfg, authSvc))
	app.Get("/login/:role", web.LoginRoleHandler(cfg))
	app.Get("/auth/register", func(c *fiber.Ctx) error { return c.Redirect("/login/", fiber.StatusFound) })
	app.Post("/auth/register", web.RegisterHandler(cfg, authSvc))
	app.Get("/auth/logout", web.LogoutHandler(cfg))
	app.Get("/home", web.HomeHandler())
	for _, role := range models.Roles {
		app.Get("/"+string(role), requirePage, web.DashboardHandler(role))
	}

	api := app.Group("/api")

	// Auth
	api.Post("/auth/token", auth.TokenHandler(authSvc))
	api.Get("/auth/me", requireAPI, auth.MeHandler())

	// Menu
	api.Get("/menu", menu.Handler(menuSvc))

	// Orders
	api.Post("/orders", requireAPI, orders.CreateHandler(orderSvc))
	api.Get("/orders/my", requireAPI, orders.MyOrdersHandler(orderSvc))
	api.Get("/orders/queue", kitchen, orders.QueueHandler(orderSvc))
	api.Get("/orders/:id", requireAPI, orders.GetHandler(orderSvc))
	api.Post("/orders/:id/status", kitchen, orders.UpdateStatusHandler(orderSvc))
	api.Post("/orders/:id/pay", cashier, orders.PayHandler(orderSvc))

	// Vouchers
	api.Post("/vouchers/validate", requireAPI, vouchers.ValidateHandler(voucherRepo, now))

	// Rider jobs
	jobs := api.Group("/rider/jobs", auth.RequireRole(models.RoleRider))
	jobs.Get("/available", rider.AvailableHandler(riderSvc))
	jobs.Get("/mine", rider.MineHandler(riderSvc))
	jobs.Post("/:id/accept", rider.AcceptHandler(riderSvc))
	jobs.Post("/:id/picked", rider.PickedHandler(riderSvc))
	jobs.Post("/:id/complete", rider.CompleteHandler(riderSvc))

	// Inventory
	inv := api.Group("/inventory", kitchen)
	inv.Get("/ingredients", inventory.ListIngredientsHandler(stockSvc))
	inv.Get("/low-stock", inventory.LowStockHandler(stockSvc))
	inv.Get("/movements", inventory.ListMovementsHandler(stockSvc))
	inv.Post("/movements", inventory.CreateMovementHandler(stockSvc))

	// Address book
	api.Get("/addresses", requireAPI, addresses.ListHandler(addressSvc))
	api.Post("/addresses", requireAPI, addresses.CreateHandler(addressSvc))
	api.Delete("/addresses/:id", requireAPI, addresses.DeleteHandler(addressSvc))

	// Admin console; fixed paths before the generic resource routes
	adm := app.Group("/admin/api", auth.RequireRole(models.RoleAdmin))
	adm.Get("/summary", admin.SummaryHandler(db, now))
	adm.Get("/resources", console.IndexHandler())
	adm.Get("/audit-logs", audit.ListHandler(rec))
	adm.Post("/audit-logs/:id/undo", audit.UndoHandler(rec, audit.Chain(stockSvc.Reverter, console.Reverter)))
	adm.Get("/:resource", console.ListHandler())
	adm.Post("/:resource", console.CreateHandler())
	adm.Get("/:resource/export.xlsx", console.ExportHandler())
	adm.Get("/:resource/:id", console.GetHandler())
	adm.Put("/:resource/:id", console.UpdateHandler())
	adm.Delete("/:resource/:id", console.DeleteHandler())
}
