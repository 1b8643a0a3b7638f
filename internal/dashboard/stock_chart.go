package dashboard

import (
	"time"

	"mutfak-backend/internal/database"
	"mutfak-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type StockSummaryResponse struct {
	ProductCount  int     `json:"product_count"`
	TrackedCount  int     `json:"tracked_count"`
	TotalValue    float64 `json:"total_value"`    // değeri bilinen ürünlerin toplamı
	UnknownValue  int     `json:"unknown_value"`  // fiyatı bilinmeyen ürün sayısı
	LowStockCount int     `json:"low_stock_count"`
	OpenDisputes  int64   `json:"open_disputes"`
	DraftBills    int64   `json:"draft_bills"`
}

type StockChartPoint struct {
	Label    string  `json:"label"` // ay başlangıcı ("2025-12")
	Inbound  float64 `json:"inbound"`  // giren tutar (fatura girişleri)
	Outbound float64 `json:"outbound"` // çıkan tutar (satış düşümleri)
}

type StockChartResponse struct {
	From   string            `json:"from"`
	To     string            `json:"to"`
	Points []StockChartPoint `json:"points"`
}

// GET /api/dashboard/stock-summary
func StockSummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var products []models.Product
		if err := database.DB.Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürünler listelenemedi")
		}

		resp := StockSummaryResponse{ProductCount: len(products)}
		for _, p := range products {
			if p.Trackable {
				resp.TrackedCount++
			}
			if p.TotalValue != nil {
				resp.TotalValue += *p.TotalValue
			} else {
				resp.UnknownValue++
			}
			if p.Trackable && p.ParLevel != nil && p.Quantity <= *p.ParLevel {
				resp.LowStockCount++
			}
		}

		database.DB.Model(&models.Dispute{}).Where("status = ?", models.DisputeOpen).Count(&resp.OpenDisputes)
		database.DB.Model(&models.Bill{}).Where("status = ?", models.BillDraft).Count(&resp.DraftBills)

		return c.JSON(resp)
	}
}

// GET /api/dashboard/stock-chart?months=6
// Aylık giren/çıkan tutar grafiği (hareket snapshot'larından)
func StockChartHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		months := c.QueryInt("months", 6)
		if months < 1 || months > 24 {
			months = 6
		}

		loc := time.Now().Location()
		now := time.Now()
		firstMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, -(months - 1), 0)

		var movements []models.StockMovement
		if err := database.DB.
			Where("created_at >= ?", firstMonth).
			Find(&movements).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Hareketler listelenemedi")
		}

		// Ay bazında topla
		points := make([]StockChartPoint, months)
		index := make(map[string]int, months)
		for i := 0; i < months; i++ {
			label := firstMonth.AddDate(0, i, 0).Format("2006-01")
			points[i] = StockChartPoint{Label: label}
			index[label] = i
		}

		for _, m := range movements {
			if m.TotalValue == nil {
				continue
			}
			label := m.CreatedAt.Format("2006-01")
			i, ok := index[label]
			if !ok {
				continue
			}
			switch m.Kind {
			case models.MovementIn, models.MovementInitial:
				points[i].Inbound += *m.TotalValue
			case models.MovementOut:
				points[i].Outbound += *m.TotalValue
			case models.MovementAdjust:
				// Düzeltmeler işaretlidir; negatifse çıkan, pozitifse giren tarafa yaz
				if *m.TotalValue < 0 {
					points[i].Outbound += -*m.TotalValue
				} else {
					points[i].Inbound += *m.TotalValue
				}
			}
		}

		return c.JSON(StockChartResponse{
			From:   firstMonth.Format("2006-01-02"),
			To:     now.Format("2006-01-02"),
			Points: points,
		})
	}
}
