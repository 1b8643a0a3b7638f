package dispute

import (
	"fmt"
	"strings"
	"time"

	"mutfak-backend/internal/audit"
	"mutfak-backend/internal/auth"
	"mutfak-backend/internal/database"
	"mutfak-backend/internal/ledger"
	"mutfak-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm/clause"
)

type CreateDisputeRequest struct {
	ProductID   uint   `json:"product_id"`
	Supplier    string `json:"supplier"`
	Description string `json:"description"`
}

type ResolveDisputeRequest struct {
	QuantityDelta float64 `json:"quantity_delta"` // işaretli: iade için negatif
	Resolution    string  `json:"resolution"`
}

type DisputeResponse struct {
	ID            uint     `json:"id"`
	ProductID     uint     `json:"product_id"`
	ProductName   string   `json:"product_name"`
	Supplier      string   `json:"supplier"`
	Description   string   `json:"description"`
	Status        string   `json:"status"`
	QuantityDelta *float64 `json:"quantity_delta"`
	Resolution    string   `json:"resolution"`
	ResolvedAt    string   `json:"resolved_at"`
	CreatedAt     string   `json:"created_at"`
}

func toDisputeResponse(d *models.Dispute) DisputeResponse {
	resp := DisputeResponse{
		ID:            d.ID,
		ProductID:     d.ProductID,
		ProductName:   d.Product.Name,
		Supplier:      d.Supplier,
		Description:   d.Description,
		Status:        string(d.Status),
		QuantityDelta: d.QuantityDelta,
		Resolution:    d.Resolution,
		CreatedAt:     d.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if d.ResolvedAt != nil {
		resp.ResolvedAt = d.ResolvedAt.Format("2006-01-02 15:04:05")
	}
	return resp
}

// POST /api/disputes
func CreateDisputeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateDisputeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Description = strings.TrimSpace(body.Description)
		if body.ProductID == 0 || body.Description == "" {
			return fiber.NewError(fiber.StatusBadRequest, "product_id ve description zorunlu")
		}

		var product models.Product
		if err := database.DB.First(&product, "id = ?", body.ProductID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Ürün bulunamadı")
		}

		d := models.Dispute{
			ProductID:   body.ProductID,
			Supplier:    strings.TrimSpace(body.Supplier),
			Description: body.Description,
			Status:      models.DisputeOpen,
		}

		if err := database.DB.Create(&d).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İtiraz kaydı oluşturulamadı")
		}
		d.Product = product

		// Audit log
		if user, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  "dispute",
				EntityID:    d.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("İtiraz açıldı: %s - %s", product.Name, d.Supplier),
				Before:      nil,
				After:       d,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(toDisputeResponse(&d))
	}
}

// GET /api/disputes?status=open
func ListDisputesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Preload("Product")

		if status := c.Query("status"); status != "" {
			dbq = dbq.Where("status = ?", status)
		}

		var disputes []models.Dispute
		if err := dbq.Order("created_at DESC").Find(&disputes).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İtirazlar listelenemedi")
		}

		resp := make([]DisputeResponse, 0, len(disputes))
		for i := range disputes {
			resp = append(resp, toDisputeResponse(&disputes[i]))
		}
		return c.JSON(resp)
	}
}

// POST /api/disputes/:id/resolve
// İtirazı çözer: stoka işaretli düzeltme hareketi uygulanır ve itiraz aynı
// transaction içinde çözüldü olarak damgalanır.
func ResolveDisputeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz itiraz ID")
		}

		var body ResolveDisputeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Resolution = strings.TrimSpace(body.Resolution)
		if body.QuantityDelta == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "quantity_delta 0 olamaz")
		}
		if body.Resolution == "" {
			return fiber.NewError(fiber.StatusBadRequest, "resolution zorunlu")
		}

		var d models.Dispute
		if err := database.DB.Preload("Product").First(&d, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "İtiraz bulunamadı")
		}

		if d.Status == models.DisputeResolved {
			return fiber.NewError(fiber.StatusBadRequest, "İtiraz zaten çözülmüş")
		}

		// Transaction başlat - düzeltme + damga atomik
		tx := database.DB.Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Transaction başlatılamadı")
		}

		// Durum kontrolünü kilitli satır üzerinde tekrarla: eşzamanlı çözümler
		// sıraya girer, ikincisi burada "zaten çözülmüş" görür
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&d, "id = ?", d.ID).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusNotFound, "İtiraz bulunamadı")
		}
		if d.Status == models.DisputeResolved {
			tx.Rollback()
			return fiber.NewError(fiber.StatusBadRequest, "İtiraz zaten çözülmüş")
		}

		reason := fmt.Sprintf("İtiraz çözümü: %s", body.Resolution)
		if _, err := ledger.ApplyAdjustment(tx, d.ProductID, body.QuantityDelta, reason, &d.ID); err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Düzeltme uygulanamadı: %v", err))
		}

		now := time.Now()
		d.Status = models.DisputeResolved
		d.QuantityDelta = &body.QuantityDelta
		d.Resolution = body.Resolution
		d.ResolvedAt = &now
		if err := tx.Save(&d).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "İtiraz güncellenemedi")
		}

		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Çözüm tamamlanamadı")
		}

		// Audit log
		if user, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  "dispute",
				EntityID:    d.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("İtiraz çözüldü: %s, delta %.2f", d.Product.Name, body.QuantityDelta),
				Before:      nil,
				After:       d,
			})
		}

		return c.JSON(toDisputeResponse(&d))
	}
}
