package main

import (
	"log"
	"strings"

	"mutfak-backend/internal/audit"
	"mutfak-backend/internal/auth"
	"mutfak-backend/internal/billing"
	"mutfak-backend/internal/config"
	"mutfak-backend/internal/dashboard"
	"mutfak-backend/internal/database"
	"mutfak-backend/internal/dispute"
	"mutfak-backend/internal/inventory"
	"mutfak-backend/internal/ledger"
	"mutfak-backend/internal/menu"
	"mutfak-backend/internal/models"
	"mutfak-backend/internal/sales"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Admin routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	// Personel yönetimi
	adminRoutes.Post("/staff", auth.CreateStaffHandler())

	// Ürün yönetimi
	adminRoutes.Post("/products", inventory.CreateProductHandler())
	adminRoutes.Put("/products/:id", inventory.UpdateProductHandler())
	adminRoutes.Delete("/products/:id", inventory.DeleteProductHandler())

	// Ürünler ve stok durumu
	protected.Get("/products", inventory.ListProductsHandler())
	protected.Get("/products/low-stock", inventory.LowStockHandler())
	protected.Get("/products/:id", inventory.GetProductHandler())
	protected.Get("/products/:id/movements", ledger.ListMovementsHandler())

	// Faturalar (taslak girişi + onay = stok defteri girişi)
	protected.Post("/bills", billing.CreateBillHandler())
	protected.Get("/bills", billing.ListBillsHandler())
	protected.Get("/bills/:id", billing.GetBillHandler())
	protected.Post("/bills/:id/confirm", billing.ConfirmBillHandler())
	protected.Delete("/bills/:id", billing.DeleteBillHandler())

	// İtirazlar (çözüm = stok düzeltmesi)
	protected.Post("/disputes", dispute.CreateDisputeHandler())
	protected.Get("/disputes", dispute.ListDisputesHandler())
	protected.Post("/disputes/:id/resolve", dispute.ResolveDisputeHandler())

	// Yemekler ve reçeteler
	protected.Post("/dishes", menu.CreateDishHandler())
	protected.Get("/dishes", menu.ListDishesHandler())
	protected.Get("/dishes/:id", menu.GetDishHandler())
	protected.Put("/dishes/:id", menu.UpdateDishHandler())
	protected.Delete("/dishes/:id", menu.DeleteDishHandler())
	protected.Get("/dishes/:id/cost", menu.GetDishCostHandler())

	// Menüler
	protected.Post("/menus", menu.CreateMenuHandler())
	protected.Get("/menus", menu.ListMenusHandler())
	protected.Get("/menus/:id", menu.GetMenuHandler())
	protected.Put("/menus/:id", menu.UpdateMenuHandler())
	protected.Delete("/menus/:id", menu.DeleteMenuHandler())
	protected.Get("/menus/:id/cost", menu.GetMenuCostHandler())

	// Satışlar (reçete üzerinden stok düşümü)
	protected.Post("/sales", sales.CreateSaleHandler())
	protected.Get("/sales", sales.ListSalesHandler())

	// Dashboard ve raporlar
	protected.Get("/dashboard/stock-summary", dashboard.StockSummaryHandler())
	protected.Get("/dashboard/stock-chart", dashboard.StockChartHandler())
	protected.Get("/reports/stock-excel", inventory.ExportStockExcelHandler())

	// Audit logs
	adminRoutes.Get("/audit-logs", audit.ListAuditLogsHandler())

	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
