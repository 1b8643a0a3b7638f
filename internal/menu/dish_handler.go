package menu

import (
	"fmt"
	"strings"

	"mutfak-backend/internal/audit"
	"mutfak-backend/internal/auth"
	"mutfak-backend/internal/database"
	"mutfak-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type RecipeLineRequest struct {
	ProductID uint    `json:"product_id"`
	Quantity  float64 `json:"quantity"`
	Unit      string  `json:"unit"`
}

type CreateDishRequest struct {
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	SellingPrice *float64            `json:"selling_price"`
	Active       *bool               `json:"active"` // nil ise true
	RecipeLines  []RecipeLineRequest `json:"recipe_lines"`
}

type UpdateDishRequest struct {
	Name         *string              `json:"name"`
	Description  *string              `json:"description"`
	SellingPrice *float64             `json:"selling_price"`
	Active       *bool                `json:"active"`
	RecipeLines  *[]RecipeLineRequest `json:"recipe_lines"` // nil: dokunma, boş liste: hepsini sil
}

type RecipeLineResponse struct {
	ID          uint    `json:"id"`
	ProductID   uint    `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
}

type DishResponse struct {
	ID           uint                 `json:"id"`
	Name         string               `json:"name"`
	Description  string               `json:"description"`
	Active       bool                 `json:"active"`
	SellingPrice *float64             `json:"selling_price"`
	RecipeLines  []RecipeLineResponse `json:"recipe_lines"`
}

func toDishResponse(d *models.Dish) DishResponse {
	resp := DishResponse{
		ID:           d.ID,
		Name:         d.Name,
		Description:  d.Description,
		Active:       d.Active,
		SellingPrice: d.SellingPrice,
	}
	resp.RecipeLines = make([]RecipeLineResponse, 0, len(d.RecipeLines))
	for _, l := range d.RecipeLines {
		resp.RecipeLines = append(resp.RecipeLines, RecipeLineResponse{
			ID:          l.ID,
			ProductID:   l.ProductID,
			ProductName: l.Product.Name,
			Quantity:    l.Quantity,
			Unit:        l.Unit,
		})
	}
	return resp
}

// Reçete satırlarını doğrula ve modele çevir
func buildRecipeLines(lines []RecipeLineRequest) ([]models.RecipeLine, error) {
	out := make([]models.RecipeLine, 0, len(lines))
	for i, lr := range lines {
		lr.Unit = strings.TrimSpace(lr.Unit)
		if lr.ProductID == 0 || lr.Quantity <= 0 {
			return nil, fmt.Errorf("reçete satırı %d: product_id zorunlu, quantity 0'dan büyük olmalı", i+1)
		}
		if !models.IsValidUnit(lr.Unit) {
			return nil, fmt.Errorf("reçete satırı %d: geçersiz birim '%s'", i+1, lr.Unit)
		}

		var product models.Product
		if err := database.DB.First(&product, "id = ?", lr.ProductID).Error; err != nil {
			return nil, fmt.Errorf("reçete satırı %d: ürün bulunamadı (ID: %d)", i+1, lr.ProductID)
		}

		out = append(out, models.RecipeLine{
			ProductID: lr.ProductID,
			Quantity:  lr.Quantity,
			Unit:      lr.Unit,
		})
	}
	return out, nil
}

// POST /api/dishes
func CreateDishHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateDishRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name zorunlu")
		}
		if body.SellingPrice != nil && *body.SellingPrice < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "selling_price negatif olamaz")
		}

		lines, err := buildRecipeLines(body.RecipeLines)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		active := true
		if body.Active != nil {
			active = *body.Active
		}

		dish := models.Dish{
			Name:         body.Name,
			Description:  body.Description,
			Active:       active,
			SellingPrice: body.SellingPrice,
			RecipeLines:  lines,
		}

		if err := database.DB.Create(&dish).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Yemek oluşturulamadı")
		}

		// Cevap için ürün adlarıyla tekrar yükle
		if err := database.DB.Preload("RecipeLines.Product").First(&dish, "id = ?", dish.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Yemek okunamadı")
		}

		// Audit log
		if user, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  "dish",
				EntityID:    dish.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Yemek oluşturuldu: %s (%d malzeme)", dish.Name, len(dish.RecipeLines)),
				Before:      nil,
				After:       dish,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(toDishResponse(&dish))
	}
}

// GET /api/dishes?active=true
func ListDishesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Preload("RecipeLines.Product")

		if activeStr := c.Query("active"); activeStr == "true" {
			dbq = dbq.Where("active = ?", true)
		}

		var dishes []models.Dish
		if err := dbq.Order("name asc").Find(&dishes).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Yemekler listelenemedi")
		}

		resp := make([]DishResponse, 0, len(dishes))
		for i := range dishes {
			resp = append(resp, toDishResponse(&dishes[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/dishes/:id
func GetDishHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz yemek ID")
		}

		var dish models.Dish
		if err := database.DB.Preload("RecipeLines.Product").First(&dish, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Yemek bulunamadı")
		}

		return c.JSON(toDishResponse(&dish))
	}
}

// PUT /api/dishes/:id
// recipe_lines gönderilirse reçete komple değiştirilir (tek transaction)
func UpdateDishHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz yemek ID")
		}

		var body UpdateDishRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		var dish models.Dish
		if err := database.DB.Preload("RecipeLines").First(&dish, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Yemek bulunamadı")
		}
		before := dish

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Name boş olamaz")
			}
			dish.Name = name
		}
		if body.Description != nil {
			dish.Description = *body.Description
		}
		if body.SellingPrice != nil {
			if *body.SellingPrice < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "selling_price negatif olamaz")
			}
			dish.SellingPrice = body.SellingPrice
		}
		if body.Active != nil {
			dish.Active = *body.Active
		}

		var newLines []models.RecipeLine
		if body.RecipeLines != nil {
			newLines, err = buildRecipeLines(*body.RecipeLines)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}

		// Transaction başlat - yemek + reçete değişimi atomik
		tx := database.DB.Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Transaction başlatılamadı")
		}

		dish.RecipeLines = nil
		if err := tx.Save(&dish).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Yemek güncellenemedi")
		}

		if body.RecipeLines != nil {
			if err := tx.Where("dish_id = ?", dish.ID).Delete(&models.RecipeLine{}).Error; err != nil {
				tx.Rollback()
				return fiber.NewError(fiber.StatusInternalServerError, "Eski reçete silinemedi")
			}
			for i := range newLines {
				newLines[i].DishID = dish.ID
				if err := tx.Create(&newLines[i]).Error; err != nil {
					tx.Rollback()
					return fiber.NewError(fiber.StatusInternalServerError, "Reçete satırı kaydedilemedi")
				}
			}
		}

		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Güncelleme tamamlanamadı")
		}

		if err := database.DB.Preload("RecipeLines.Product").First(&dish, "id = ?", dish.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Yemek okunamadı")
		}

		// Audit log
		if user, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  "dish",
				EntityID:    dish.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Yemek güncellendi: %s", dish.Name),
				Before:      before,
				After:       dish,
			})
		}

		return c.JSON(toDishResponse(&dish))
	}
}

// DELETE /api/dishes/:id (soft delete, reçete satırları temizlenir)
func DeleteDishHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz yemek ID")
		}

		var dish models.Dish
		if err := database.DB.First(&dish, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Yemek bulunamadı")
		}

		// Transaction başlat - reçete + menü bağları + yemek birlikte
		tx := database.DB.Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Transaction başlatılamadı")
		}
		if err := tx.Where("dish_id = ?", dish.ID).Delete(&models.RecipeLine{}).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Reçete silinemedi")
		}
		if err := tx.Where("dish_id = ?", dish.ID).Delete(&models.MenuDish{}).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Menü bağları silinemedi")
		}
		if err := tx.Delete(&dish).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Yemek silinemedi")
		}
		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Silme tamamlanamadı")
		}

		// Audit log
		if user, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  "dish",
				EntityID:    dish.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Yemek silindi: %s", dish.Name),
				Before:      dish,
				After:       nil,
			})
		}

		return c.JSON(fiber.Map{"message": "Yemek silindi"})
	}
}
