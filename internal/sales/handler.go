package sales

import (
	"fmt"
	"time"

	"mutfak-backend/internal/audit"
	"mutfak-backend/internal/auth"
	"mutfak-backend/internal/database"
	"mutfak-backend/internal/ledger"
	"mutfak-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateSaleRequest struct {
	DishID   uint    `json:"dish_id"`
	Quantity float64 `json:"quantity"`
	Date     string  `json:"date"` // boşsa bugün
	Note     string  `json:"note"`
}

type SaleResponse struct {
	ID       uint    `json:"id"`
	DishID   uint    `json:"dish_id"`
	DishName string  `json:"dish_name"`
	Quantity float64 `json:"quantity"`
	Date     string  `json:"date"`
	Note     string  `json:"note"`
}

// POST /api/sales
// Satış kaydeder: yemeğin TÜM reçete satırları için stoktan düşüm yapılır.
// Tek transaction: bir malzeme bile işlenemezse satış kaydedilmez.
func CreateSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSaleRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if body.DishID == 0 || body.Quantity <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "dish_id zorunlu, quantity 0'dan büyük olmalı")
		}

		saleDate := time.Now()
		if body.Date != "" {
			d, err := time.Parse("2006-01-02", body.Date)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
			}
			saleDate = d
		}

		var dish models.Dish
		if err := database.DB.Preload("RecipeLines").First(&dish, "id = ?", body.DishID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Yemek bulunamadı")
		}

		// Transaction başlat - satış + tüm düşümler atomik
		tx := database.DB.Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Transaction başlatılamadı")
		}

		sale := models.Sale{
			DishID:   dish.ID,
			Quantity: body.Quantity,
			Date:     saleDate,
			Note:     body.Note,
		}
		if err := tx.Create(&sale).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Satış kaydedilemedi")
		}

		for _, line := range dish.RecipeLines {
			consumed := line.Quantity * body.Quantity
			if _, err := ledger.ApplyConsumption(tx, line.ProductID, consumed, &sale.ID); err != nil {
				tx.Rollback()
				return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Stok düşülemedi (ürün ID %d): %v", line.ProductID, err))
			}
		}

		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satış tamamlanamadı")
		}

		// Audit log
		if user, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  "sale",
				EntityID:    sale.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Satış: %s x %.2f", dish.Name, sale.Quantity),
				Before:      nil,
				After:       sale,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(SaleResponse{
			ID:       sale.ID,
			DishID:   sale.DishID,
			DishName: dish.Name,
			Quantity: sale.Quantity,
			Date:     sale.Date.Format("2006-01-02"),
			Note:     sale.Note,
		})
	}
}

// GET /api/sales
func ListSalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var sales []models.Sale
		if err := database.DB.
			Preload("Dish").
			Order("date DESC, created_at DESC").
			Find(&sales).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satışlar listelenemedi")
		}

		resp := make([]SaleResponse, 0, len(sales))
		for _, s := range sales {
			resp = append(resp, SaleResponse{
				ID:       s.ID,
				DishID:   s.DishID,
				DishName: s.Dish.Name,
				Quantity: s.Quantity,
				Date:     s.Date.Format("2006-01-02"),
				Note:     s.Note,
			})
		}
		return c.JSON(resp)
	}
}
