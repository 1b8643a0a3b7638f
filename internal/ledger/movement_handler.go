package ledger

import (
	"mutfak-backend/internal/database"
	"mutfak-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type MovementResponse struct {
	ID           uint     `json:"id"`
	ProductID    uint     `json:"product_id"`
	Kind         string   `json:"kind"`
	Quantity     float64  `json:"quantity"`
	BalanceAfter float64  `json:"balance_after"`
	UnitPrice    *float64 `json:"unit_price"`
	TotalValue   *float64 `json:"total_value"`
	Reason       string   `json:"reason"`
	BillID       *uint    `json:"bill_id"`
	DisputeID    *uint    `json:"dispute_id"`
	SaleID       *uint    `json:"sale_id"`
	CreatedAt    string   `json:"created_at"`
}

// GET /api/products/:id/movements
// Hareket geçmişi, en yeniden eskiye
func ListMovementsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
		}

		var product models.Product
		if err := database.DB.First(&product, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		var movements []models.StockMovement
		if err := database.DB.
			Where("product_id = ?", product.ID).
			Order("created_at DESC, id DESC").
			Find(&movements).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Hareketler listelenemedi")
		}

		resp := make([]MovementResponse, 0, len(movements))
		for _, m := range movements {
			resp = append(resp, MovementResponse{
				ID:           m.ID,
				ProductID:    m.ProductID,
				Kind:         string(m.Kind),
				Quantity:     m.Quantity,
				BalanceAfter: m.BalanceAfter,
				UnitPrice:    m.UnitPrice,
				TotalValue:   m.TotalValue,
				Reason:       m.Reason,
				BillID:       m.BillID,
				DisputeID:    m.DisputeID,
				SaleID:       m.SaleID,
				CreatedAt:    m.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}

		return c.JSON(resp)
	}
}
