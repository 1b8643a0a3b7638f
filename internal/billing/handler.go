package billing

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
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BillLineRequest struct {
	ProductID *uint   `json:"product_id"` // nil ise onayda yeni ürün oluşturulur
	ItemName  string  `json:"item_name"`
	Unit      string  `json:"unit"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type CreateBillRequest struct {
	Supplier string            `json:"supplier"`
	Date     string            `json:"date"` // "2025-12-09"
	Note     string            `json:"note"`
	Lines    []BillLineRequest `json:"lines"`
}

type ConfirmBillRequest struct {
	Supplier string `json:"supplier"` // boşsa fatura üzerindeki kalır
	Date     string `json:"date"`     // boşsa fatura üzerindeki kalır
}

type BillLineResponse struct {
	ID        uint    `json:"id"`
	ProductID *uint   `json:"product_id"`
	ItemName  string  `json:"item_name"`
	Unit      string  `json:"unit"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"`
}

type BillResponse struct {
	ID          uint               `json:"id"`
	Supplier    string             `json:"supplier"`
	Date        string             `json:"date"`
	TotalAmount float64            `json:"total_amount"`
	Status      string             `json:"status"`
	Note        string             `json:"note"`
	ConfirmedAt string             `json:"confirmed_at"`
	Lines       []BillLineResponse `json:"lines"`
	CreatedAt   string             `json:"created_at"`
}

func toBillResponse(b *models.Bill) BillResponse {
	resp := BillResponse{
		ID:          b.ID,
		Supplier:    b.Supplier,
		TotalAmount: b.TotalAmount,
		Status:      string(b.Status),
		Note:        b.Note,
		CreatedAt:   b.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if b.Date != nil {
		resp.Date = b.Date.Format("2006-01-02")
	}
	if b.ConfirmedAt != nil {
		resp.ConfirmedAt = b.ConfirmedAt.Format("2006-01-02 15:04:05")
	}
	resp.Lines = make([]BillLineResponse, 0, len(b.Lines))
	for _, l := range b.Lines {
		resp.Lines = append(resp.Lines, BillLineResponse{
			ID:        l.ID,
			ProductID: l.ProductID,
			ItemName:  l.ItemName,
			Unit:      l.Unit,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Total:     l.Quantity * l.UnitPrice,
		})
	}
	return resp
}

// POST /api/bills
// Taslak fatura oluşturur. Stok bu aşamada DEĞİŞMEZ; onay ayrı adımdır.
func CreateBillHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateBillRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if len(body.Lines) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "En az bir fatura satırı eklenmelidir")
		}

		var date *time.Time
		if body.Date != "" {
			d, err := time.Parse("2006-01-02", body.Date)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
			}
			date = &d
		}

		// Satırları transaction öncesi doğrula
		lines := make([]models.BillLine, 0, len(body.Lines))
		var total float64
		for i, lr := range body.Lines {
			lr.ItemName = strings.TrimSpace(lr.ItemName)
			lr.Unit = strings.TrimSpace(lr.Unit)

			if lr.Quantity <= 0 || lr.UnitPrice <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Satır %d: quantity ve unit_price 0'dan büyük olmalı", i+1))
			}

			if lr.ProductID != nil {
				var product models.Product
				if err := database.DB.First(&product, "id = ?", *lr.ProductID).Error; err != nil {
					return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Satır %d: ürün bulunamadı (ID: %d)", i+1, *lr.ProductID))
				}
				if lr.ItemName == "" {
					lr.ItemName = product.Name
				}
				if lr.Unit == "" {
					lr.Unit = product.Unit
				}
			} else {
				if lr.ItemName == "" || lr.Unit == "" {
					return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Satır %d: yeni ürün için item_name ve unit zorunlu", i+1))
				}
				if !models.IsValidUnit(lr.Unit) {
					return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Satır %d: geçersiz birim '%s'", i+1, lr.Unit))
				}
			}

			lines = append(lines, models.BillLine{
				ProductID: lr.ProductID,
				ItemName:  lr.ItemName,
				Unit:      lr.Unit,
				Quantity:  lr.Quantity,
				UnitPrice: lr.UnitPrice,
			})
			total += lr.Quantity * lr.UnitPrice
		}

		bill := models.Bill{
			Supplier:    strings.TrimSpace(body.Supplier),
			Date:        date,
			TotalAmount: total,
			Status:      models.BillDraft,
			Note:        body.Note,
			Lines:       lines,
		}

		if err := database.DB.Create(&bill).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fatura oluşturulamadı")
		}

		// Audit log
		if user, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  "bill",
				EntityID:    bill.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Taslak fatura: %s - %.2f ₺ (%d satır)", bill.Supplier, bill.TotalAmount, len(bill.Lines)),
				Before:      nil,
				After:       bill,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(toBillResponse(&bill))
	}
}

// GET /api/bills?status=draft
func ListBillsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Preload("Lines")

		if status := c.Query("status"); status != "" {
			dbq = dbq.Where("status = ?", status)
		}

		var bills []models.Bill
		if err := dbq.Order("created_at DESC").Find(&bills).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Faturalar listelenemedi")
		}

		resp := make([]BillResponse, 0, len(bills))
		for i := range bills {
			resp = append(resp, toBillResponse(&bills[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/bills/:id
func GetBillHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz fatura ID")
		}

		var bill models.Bill
		if err := database.DB.Preload("Lines").First(&bill, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Fatura bulunamadı")
		}

		return c.JSON(toBillResponse(&bill))
	}
}

// POST /api/bills/:id/confirm
// Faturayı onaylar: her satır için stok girişi yapılır, yeni ürünler
// oluşturulur, fatura metadata'sı damgalanır. TEK transaction: herhangi bir
// satır hata verirse hiçbir hareket kalıcı olmaz.
func ConfirmBillHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz fatura ID")
		}

		var body ConfirmBillRequest
		// Gövde opsiyonel; parse hatasını yoksay
		_ = c.BodyParser(&body)

		var bill models.Bill
		if err := database.DB.Preload("Lines").First(&bill, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Fatura bulunamadı")
		}

		if bill.Status == models.BillConfirmed {
			return fiber.NewError(fiber.StatusBadRequest, "Fatura zaten onaylanmış")
		}
		if len(bill.Lines) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Faturada satır yok")
		}

		// Transaction başlat - tüm satır girişlerini atomik yap
		tx := database.DB.Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Transaction başlatılamadı")
		}

		// Durum kontrolünü kilitli satır üzerinde tekrarla: eşzamanlı onaylar
		// sıraya girer, ikincisi burada "zaten onaylanmış" görür
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&bill, "id = ?", bill.ID).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusNotFound, "Fatura bulunamadı")
		}
		if bill.Status == models.BillConfirmed {
			tx.Rollback()
			return fiber.NewError(fiber.StatusBadRequest, "Fatura zaten onaylanmış")
		}

		var total float64
		for i := range bill.Lines {
			line := &bill.Lines[i]

			// Ürün yoksa oluştur (aynı isimli ürün varsa onu kullan)
			if line.ProductID == nil {
				var product models.Product
				if err := tx.Where("name = ?", line.ItemName).First(&product).Error; err != nil {
					price := line.UnitPrice
					// Aynı isimli soft-delete edilmiş ürün unique index'i tutuyor
					// olabilir; yenisini yaratmak yerine onu geri getir
					if err := tx.Unscoped().Where("name = ?", line.ItemName).First(&product).Error; err == nil {
						product.DeletedAt = gorm.DeletedAt{}
						product.Unit = line.Unit
						product.UnitPrice = &price
						product.Trackable = true
						if err := tx.Unscoped().Save(&product).Error; err != nil {
							tx.Rollback()
							return fiber.NewError(fiber.StatusInternalServerError, fmt.Sprintf("Ürün geri getirilemedi: %s", line.ItemName))
						}
					} else {
						product = models.Product{
							Name:      line.ItemName,
							Unit:      line.Unit,
							Quantity:  0,
							UnitPrice: &price,
							Trackable: true,
						}
						if err := tx.Create(&product).Error; err != nil {
							tx.Rollback()
							return fiber.NewError(fiber.StatusInternalServerError, fmt.Sprintf("Ürün oluşturulamadı: %s", line.ItemName))
						}
					}
				}
				line.ProductID = &product.ID
				if err := tx.Save(line).Error; err != nil {
					tx.Rollback()
					return fiber.NewError(fiber.StatusInternalServerError, "Fatura satırı güncellenemedi")
				}
			}

			if _, err := ledger.ApplyDelivery(tx, *line.ProductID, line.Quantity, line.UnitPrice, bill.ID); err != nil {
				tx.Rollback()
				return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Satır %d işlenemedi: %v", i+1, err))
			}

			total += line.Quantity * line.UnitPrice
		}

		// Fatura metadata'sını aynı transaction içinde damgala
		now := time.Now()
		bill.Status = models.BillConfirmed
		bill.ConfirmedAt = &now
		bill.TotalAmount = total
		if s := strings.TrimSpace(body.Supplier); s != "" {
			bill.Supplier = s
		}
		if body.Date != "" {
			d, err := time.Parse("2006-01-02", body.Date)
			if err != nil {
				tx.Rollback()
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
			}
			bill.Date = &d
		}
		if err := tx.Save(&bill).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Fatura güncellenemedi")
		}

		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Onay tamamlanamadı")
		}

		// Audit log (transaction dışında; onay başarılı)
		if user, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  "bill",
				EntityID:    bill.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Fatura onaylandı: %s - %.2f ₺ (%d satır)", bill.Supplier, bill.TotalAmount, len(bill.Lines)),
				Before:      nil,
				After:       bill,
			})
		}

		return c.JSON(toBillResponse(&bill))
	}
}

// DELETE /api/bills/:id (sadece taslak)
func DeleteBillHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz fatura ID")
		}

		var bill models.Bill
		if err := database.DB.Preload("Lines").First(&bill, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Fatura bulunamadı")
		}

		if bill.Status == models.BillConfirmed {
			return fiber.NewError(fiber.StatusBadRequest, "Onaylanmış fatura silinemez, stok hareketleri kalıcıdır")
		}

		// Transaction başlat - satırlarla birlikte sil
		tx := database.DB.Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Transaction başlatılamadı")
		}
		if err := tx.Where("bill_id = ?", bill.ID).Delete(&models.BillLine{}).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Fatura satırları silinemedi")
		}
		if err := tx.Delete(&bill).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Fatura silinemedi")
		}
		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Silme tamamlanamadı")
		}

		// Audit log
		if user, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  "bill",
				EntityID:    bill.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Taslak fatura silindi: %s", bill.Supplier),
				Before:      bill,
				After:       nil,
			})
		}

		return c.JSON(fiber.Map{"message": "Fatura silindi"})
	}
}
