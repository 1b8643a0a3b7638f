package inventory

import (
	"fmt"
	"strings"

	"mutfak-backend/internal/audit"
	"mutfak-backend/internal/auth"
	"mutfak-backend/internal/database"
	"mutfak-backend/internal/ledger"
	"mutfak-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ProductResponse struct {
	ID         uint     `json:"id"`
	Name       string   `json:"name"`
	Unit       string   `json:"unit"`
	Quantity   float64  `json:"quantity"`
	UnitPrice  *float64 `json:"unit_price"`
	TotalValue *float64 `json:"total_value"`
	Trackable  bool     `json:"trackable"`
	ParLevel   *float64 `json:"par_level"`
	Category   string   `json:"category"`
}

type CreateProductRequest struct {
	Name            string   `json:"name"`
	Unit            string   `json:"unit"`
	Category        string   `json:"category"`
	Trackable       *bool    `json:"trackable"` // nil ise true
	ParLevel        *float64 `json:"par_level"`
	InitialQuantity float64  `json:"initial_quantity"` // > 0 ise açılış hareketi yazılır
	UnitPrice       *float64 `json:"unit_price"`
}

type UpdateProductRequest struct {
	Name      *string  `json:"name"`
	Unit      *string  `json:"unit"`
	Category  *string  `json:"category"`
	Trackable *bool    `json:"trackable"`
	ParLevel  *float64 `json:"par_level"`
}

func toProductResponse(p *models.Product) ProductResponse {
	return ProductResponse{
		ID:         p.ID,
		Name:       p.Name,
		Unit:       p.Unit,
		Quantity:   p.Quantity,
		UnitPrice:  p.UnitPrice,
		TotalValue: p.TotalValue,
		Trackable:  p.Trackable,
		ParLevel:   p.ParLevel,
		Category:   p.Category,
	}
}

// GET /api/products (tüm authenticated kullanıcılar görebilir)
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Product{})

		if category := c.Query("category"); category != "" {
			dbq = dbq.Where("category = ?", category)
		}

		var products []models.Product
		if err := dbq.Order("name asc").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürünler listelenemedi")
		}

		res := make([]ProductResponse, 0, len(products))
		for i := range products {
			res = append(res, toProductResponse(&products[i]))
		}
		return c.JSON(res)
	}
}

// GET /api/products/:id
func GetProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
		}

		var product models.Product
		if err := database.DB.First(&product, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		return c.JSON(toProductResponse(&product))
	}
}

// POST /api/admin/products (sadece admin)
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Name = strings.TrimSpace(body.Name)
		body.Unit = strings.TrimSpace(body.Unit)

		if body.Name == "" || body.Unit == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name ve unit zorunlu")
		}
		if !models.IsValidUnit(body.Unit) {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Geçersiz birim '%s'", body.Unit))
		}
		if body.InitialQuantity < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "initial_quantity negatif olamaz")
		}
		if body.UnitPrice != nil && *body.UnitPrice < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "unit_price negatif olamaz")
		}

		trackable := true
		if body.Trackable != nil {
			trackable = *body.Trackable
		}

		product := models.Product{
			Name:      body.Name,
			Unit:      body.Unit,
			Category:  strings.TrimSpace(body.Category),
			Trackable: trackable,
			ParLevel:  body.ParLevel,
			UnitPrice: body.UnitPrice,
		}

		// Transaction başlat - ürün + açılış hareketi atomik
		tx := database.DB.Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Transaction başlatılamadı")
		}

		if err := tx.Create(&product).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusBadRequest, "Ürün oluşturulamadı (isim kullanımda olabilir)")
		}

		if body.InitialQuantity > 0 {
			if _, err := ledger.ApplyOpening(tx, product.ID, body.InitialQuantity, body.UnitPrice); err != nil {
				tx.Rollback()
				return fiber.NewError(fiber.StatusInternalServerError, fmt.Sprintf("Açılış stoku yazılamadı: %v", err))
			}
			// appendMovement ürünü güncelledi, cevap için tekrar oku
			if err := tx.First(&product, "id = ?", product.ID).Error; err != nil {
				tx.Rollback()
				return fiber.NewError(fiber.StatusInternalServerError, "Ürün okunamadı")
			}
		}

		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kayıt tamamlanamadı")
		}

		// Audit log
		if user, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  "product",
				EntityID:    product.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Ürün oluşturuldu: %s (%s)", product.Name, product.Unit),
				Before:      nil,
				After:       product,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(toProductResponse(&product))
	}
}

// PUT /api/admin/products/:id (sadece admin)
// Quantity/UnitPrice/TotalValue buradan DEĞİŞTİRİLEMEZ; onlar sadece stok
// hareketleriyle güncellenir.
func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
		}

		var body UpdateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		var product models.Product
		if err := database.DB.First(&product, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}
		before := product

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Name boş olamaz")
			}
			product.Name = name
		}
		if body.Unit != nil {
			unit := strings.TrimSpace(*body.Unit)
			if !models.IsValidUnit(unit) {
				return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Geçersiz birim '%s'", unit))
			}
			product.Unit = unit
		}
		if body.Category != nil {
			product.Category = strings.TrimSpace(*body.Category)
		}
		if body.Trackable != nil {
			product.Trackable = *body.Trackable
		}
		if body.ParLevel != nil {
			product.ParLevel = body.ParLevel
		}

		if err := database.DB.Save(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün güncellenemedi")
		}

		// Audit log
		if user, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  "product",
				EntityID:    product.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Ürün güncellendi: %s", product.Name),
				Before:      before,
				After:       product,
			})
		}

		return c.JSON(toProductResponse(&product))
	}
}

// DELETE /api/admin/products/:id (sadece admin, soft delete)
func DeleteProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
		}

		var product models.Product
		if err := database.DB.First(&product, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		// Reçetelerde kullanılıyorsa silme
		var count int64
		database.DB.Model(&models.RecipeLine{}).Where("product_id = ?", product.ID).Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Bu ürün reçetelerde kullanılıyor, önce reçetelerden çıkarın")
		}

		if err := database.DB.Delete(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün silinemedi")
		}

		// Audit log
		if user, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  "product",
				EntityID:    product.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Ürün silindi: %s", product.Name),
				Before:      product,
				After:       nil,
			})
		}

		return c.JSON(fiber.Map{"message": "Ürün silindi"})
	}
}

// GET /api/products/low-stock
// Kritik seviye raporu: par_level tanımlı ve takipteki ürünlerden miktarı
// par_level'ın altına (veya eşitine) düşenler.
func LowStockHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var products []models.Product
		if err := database.DB.
			Where("trackable = ? AND par_level IS NOT NULL AND quantity <= par_level", true).
			Order("name asc").
			Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Düşük stok raporu alınamadı")
		}

		type LowStockRow struct {
			ProductID uint    `json:"product_id"`
			Name      string  `json:"name"`
			Unit      string  `json:"unit"`
			Quantity  float64 `json:"quantity"`
			ParLevel  float64 `json:"par_level"`
			Missing   float64 `json:"missing"` // par_level - quantity
		}

		rows := make([]LowStockRow, 0, len(products))
		for _, p := range products {
			rows = append(rows, LowStockRow{
				ProductID: p.ID,
				Name:      p.Name,
				Unit:      p.Unit,
				Quantity:  p.Quantity,
				ParLevel:  *p.ParLevel,
				Missing:   *p.ParLevel - p.Quantity,
			})
		}

		return c.JSON(rows)
	}
}
