package inventory

import (
	"fmt"
	"log"
	"time"

	"mutfak-backend/internal/database"
	"mutfak-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

// GET /api/reports/stock-excel
// Envanter durumu + hareket geçmişini Excel dosyası olarak indirir.
// Sayfa 1: ürünler (miktar, fiyat, toplam değer), Sayfa 2: hareketler.
func ExportStockExcelHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var products []models.Product
		if err := database.DB.Order("name asc").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürünler listelenemedi")
		}

		var movements []models.StockMovement
		if err := database.DB.
			Preload("Product").
			Order("created_at DESC, id DESC").
			Limit(5000).
			Find(&movements).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Hareketler listelenemedi")
		}

		f := excelize.NewFile()
		defer func() {
			if err := f.Close(); err != nil {
				log.Printf("Excel dosyası kapatılamadı: %v", err)
			}
		}()

		// Sayfa 1: Stok
		stockSheet := "Stok"
		if err := f.SetSheetName("Sheet1", stockSheet); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Excel oluşturulamadı")
		}

		stockHeaders := []string{"ID", "Ürün", "Birim", "Miktar", "Birim Fiyat", "Toplam Değer", "Kritik Seviye", "Kategori"}
		for i, h := range stockHeaders {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			_ = f.SetCellValue(stockSheet, cell, h)
		}

		for row, p := range products {
			values := []any{p.ID, p.Name, p.Unit, p.Quantity, nilFloat(p.UnitPrice), nilFloat(p.TotalValue), nilFloat(p.ParLevel), p.Category}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
				_ = f.SetCellValue(stockSheet, cell, v)
			}
		}

		// Sayfa 2: Hareketler
		moveSheet := "Hareketler"
		if _, err := f.NewSheet(moveSheet); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Excel oluşturulamadı")
		}

		moveHeaders := []string{"ID", "Ürün", "Tür", "Miktar", "Bakiye", "Birim Fiyat", "Tutar", "Açıklama", "Tarih"}
		for i, h := range moveHeaders {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			_ = f.SetCellValue(moveSheet, cell, h)
		}

		for row, m := range movements {
			values := []any{
				m.ID, m.Product.Name, string(m.Kind), m.Quantity, m.BalanceAfter,
				nilFloat(m.UnitPrice), nilFloat(m.TotalValue), m.Reason,
				m.CreatedAt.Format("2006-01-02 15:04:05"),
			}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
				_ = f.SetCellValue(moveSheet, cell, v)
			}
		}

		buf, err := f.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Excel dosyası yazılamadı")
		}

		fileName := fmt.Sprintf("stok-raporu-%s.xlsx", time.Now().Format("2006-01-02"))
		c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
		return c.Send(buf.Bytes())
	}
}

// Excel hücresi için nil fiyat/değer boş kalsın
func nilFloat(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
