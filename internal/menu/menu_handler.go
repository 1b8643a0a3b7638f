package menu

import (
	"fmt"
	"strings"

	"mutfak-backend/internal/audit"
	"mutfak-backend/internal/auth"
	"mutfak-backend/internal/database"
	"mutfak-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type MenuDishRequest struct {
	DishID        uint     `json:"dish_id"`
	PriceOverride *float64 `json:"price_override"`
	DisplayOrder  int      `json:"display_order"`
	Note          string   `json:"note"`
}

type MenuSectionRequest struct {
	Name         string            `json:"name"`
	DisplayOrder int               `json:"display_order"`
	Required     *bool             `json:"required"` // nil ise true
	Dishes       []MenuDishRequest `json:"dishes"`
}

type CreateMenuRequest struct {
	Name        string               `json:"name"`
	Active      *bool                `json:"active"` // nil ise true
	PricingMode string               `json:"pricing_mode"`
	FixedPrice  *float64             `json:"fixed_price"`
	MinCourses  *int                 `json:"min_courses"`
	MaxCourses  *int                 `json:"max_courses"`
	Sections    []MenuSectionRequest `json:"sections"`
}

type UpdateMenuRequest struct {
	Name        *string               `json:"name"`
	Active      *bool                 `json:"active"`
	PricingMode *string               `json:"pricing_mode"`
	FixedPrice  *float64              `json:"fixed_price"`
	MinCourses  *int                  `json:"min_courses"`
	MaxCourses  *int                  `json:"max_courses"`
	Sections    *[]MenuSectionRequest `json:"sections"` // nil: dokunma, liste: komple değiştir
}

type MenuDishEntryResponse struct {
	ID            uint     `json:"id"`
	DishID        uint     `json:"dish_id"`
	DishName      string   `json:"dish_name"`
	PriceOverride *float64 `json:"price_override"`
	DisplayOrder  int      `json:"display_order"`
	Note          string   `json:"note"`
}

type MenuSectionResponse struct {
	ID           uint                    `json:"id"`
	Name         string                  `json:"name"`
	DisplayOrder int                     `json:"display_order"`
	Required     bool                    `json:"required"`
	Dishes       []MenuDishEntryResponse `json:"dishes"`
}

type MenuResponse struct {
	ID           uint                  `json:"id"`
	Name         string                `json:"name"`
	Active       bool                  `json:"active"`
	PricingMode  string                `json:"pricing_mode"`
	FixedPrice   *float64              `json:"fixed_price"`
	MinCourses   *int                  `json:"min_courses"`
	MaxCourses   *int                  `json:"max_courses"`
	DisplayPrice string                `json:"display_price"`
	Sections     []MenuSectionResponse `json:"sections"`
}

func toMenuResponse(m *models.Menu) MenuResponse {
	resp := MenuResponse{
		ID:           m.ID,
		Name:         m.Name,
		Active:       m.Active,
		PricingMode:  string(m.PricingMode),
		FixedPrice:   m.FixedPrice,
		MinCourses:   m.MinCourses,
		MaxCourses:   m.MaxCourses,
		DisplayPrice: MenuDisplayPrice(m.FixedPrice, m.MinCourses, m.MaxCourses),
	}
	resp.Sections = make([]MenuSectionResponse, 0, len(m.Sections))
	for _, s := range m.Sections {
		sr := MenuSectionResponse{
			ID:           s.ID,
			Name:         s.Name,
			DisplayOrder: s.DisplayOrder,
			Required:     s.Required,
			Dishes:       make([]MenuDishEntryResponse, 0, len(s.Dishes)),
		}
		for _, md := range s.Dishes {
			sr.Dishes = append(sr.Dishes, MenuDishEntryResponse{
				ID:            md.ID,
				DishID:        md.DishID,
				DishName:      md.Dish.Name,
				PriceOverride: md.PriceOverride,
				DisplayOrder:  md.DisplayOrder,
				Note:          md.Note,
			})
		}
		resp.Sections = append(resp.Sections, sr)
	}
	return resp
}

func isValidPricingMode(m string) bool {
	switch models.PricingMode(m) {
	case models.PricingALaCarte, models.PricingFixed, models.PricingChoice:
		return true
	}
	return false
}

// Bölüm isteklerini doğrula ve modele çevir
func buildSections(sections []MenuSectionRequest) ([]models.MenuSection, error) {
	out := make([]models.MenuSection, 0, len(sections))
	for i, sr := range sections {
		sr.Name = strings.TrimSpace(sr.Name)
		if sr.Name == "" {
			return nil, fmt.Errorf("bölüm %d: name zorunlu", i+1)
		}

		required := true
		if sr.Required != nil {
			required = *sr.Required
		}

		section := models.MenuSection{
			Name:         sr.Name,
			DisplayOrder: sr.DisplayOrder,
			Required:     required,
		}

		for j, dr := range sr.Dishes {
			if dr.DishID == 0 {
				return nil, fmt.Errorf("bölüm %d, yemek %d: dish_id zorunlu", i+1, j+1)
			}
			var dish models.Dish
			if err := database.DB.First(&dish, "id = ?", dr.DishID).Error; err != nil {
				return nil, fmt.Errorf("bölüm %d, yemek %d: yemek bulunamadı (ID: %d)", i+1, j+1, dr.DishID)
			}
			if dr.PriceOverride != nil && *dr.PriceOverride < 0 {
				return nil, fmt.Errorf("bölüm %d, yemek %d: price_override negatif olamaz", i+1, j+1)
			}
			section.Dishes = append(section.Dishes, models.MenuDish{
				DishID:        dr.DishID,
				PriceOverride: dr.PriceOverride,
				DisplayOrder:  dr.DisplayOrder,
				Note:          dr.Note,
			})
		}

		out = append(out, section)
	}
	return out, nil
}

func loadMenu(id uint) (*models.Menu, error) {
	var m models.Menu
	err := database.DB.
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order asc, id asc")
		}).
		Preload("Sections.Dishes", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order asc, id asc")
		}).
		Preload("Sections.Dishes.Dish").
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// POST /api/menus
func CreateMenuHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateMenuRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name zorunlu")
		}
		if body.PricingMode == "" {
			body.PricingMode = string(models.PricingALaCarte)
		}
		if !isValidPricingMode(body.PricingMode) {
			return fiber.NewError(fiber.StatusBadRequest, "pricing_mode 'a_la_carte', 'fixed' veya 'choice' olmalı")
		}
		if body.FixedPrice != nil && *body.FixedPrice < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "fixed_price negatif olamaz")
		}
		if body.MinCourses != nil && body.MaxCourses != nil && *body.MinCourses > *body.MaxCourses {
			return fiber.NewError(fiber.StatusBadRequest, "min_courses max_courses'dan büyük olamaz")
		}

		sections, err := buildSections(body.Sections)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		active := true
		if body.Active != nil {
			active = *body.Active
		}

		m := models.Menu{
			Name:        body.Name,
			Active:      active,
			PricingMode: models.PricingMode(body.PricingMode),
			FixedPrice:  body.FixedPrice,
			MinCourses:  body.MinCourses,
			MaxCourses:  body.MaxCourses,
			Sections:    sections,
		}

		if err := database.DB.Create(&m).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Menü oluşturulamadı")
		}

		loaded, err := loadMenu(m.ID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Menü okunamadı")
		}

		// Audit log
		if user, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  "menu",
				EntityID:    m.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Menü oluşturuldu: %s (%s)", m.Name, m.PricingMode),
				Before:      nil,
				After:       loaded,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(toMenuResponse(loaded))
	}
}

// GET /api/menus?active=true
func ListMenusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.
			Preload("Sections", func(db *gorm.DB) *gorm.DB {
				return db.Order("display_order asc, id asc")
			}).
			Preload("Sections.Dishes", func(db *gorm.DB) *gorm.DB {
				return db.Order("display_order asc, id asc")
			}).
			Preload("Sections.Dishes.Dish")

		if activeStr := c.Query("active"); activeStr == "true" {
			dbq = dbq.Where("active = ?", true)
		}

		var menus []models.Menu
		if err := dbq.Order("name asc").Find(&menus).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Menüler listelenemedi")
		}

		resp := make([]MenuResponse, 0, len(menus))
		for i := range menus {
			resp = append(resp, toMenuResponse(&menus[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/menus/:id
func GetMenuHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz menü ID")
		}

		m, err := loadMenu(uint(id))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Menü bulunamadı")
		}

		return c.JSON(toMenuResponse(m))
	}
}

// PUT /api/menus/:id
// sections gönderilirse bölümler komple değiştirilir (tek transaction)
func UpdateMenuHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz menü ID")
		}

		var body UpdateMenuRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		var m models.Menu
		if err := database.DB.Preload("Sections").First(&m, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Menü bulunamadı")
		}
		before := m

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Name boş olamaz")
			}
			m.Name = name
		}
		if body.Active != nil {
			m.Active = *body.Active
		}
		if body.PricingMode != nil {
			if !isValidPricingMode(*body.PricingMode) {
				return fiber.NewError(fiber.StatusBadRequest, "pricing_mode 'a_la_carte', 'fixed' veya 'choice' olmalı")
			}
			m.PricingMode = models.PricingMode(*body.PricingMode)
		}
		if body.FixedPrice != nil {
			if *body.FixedPrice < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "fixed_price negatif olamaz")
			}
			m.FixedPrice = body.FixedPrice
		}
		if body.MinCourses != nil {
			m.MinCourses = body.MinCourses
		}
		if body.MaxCourses != nil {
			m.MaxCourses = body.MaxCourses
		}
		if m.MinCourses != nil && m.MaxCourses != nil && *m.MinCourses > *m.MaxCourses {
			return fiber.NewError(fiber.StatusBadRequest, "min_courses max_courses'dan büyük olamaz")
		}

		var newSections []models.MenuSection
		if body.Sections != nil {
			newSections, err = buildSections(*body.Sections)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}

		// Transaction başlat - menü + bölüm değişimi atomik
		tx := database.DB.Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Transaction başlatılamadı")
		}

		oldSectionIDs := make([]uint, 0, len(m.Sections))
		for _, s := range m.Sections {
			oldSectionIDs = append(oldSectionIDs, s.ID)
		}

		m.Sections = nil
		if err := tx.Save(&m).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Menü güncellenemedi")
		}

		if body.Sections != nil {
			if len(oldSectionIDs) > 0 {
				if err := tx.Where("section_id IN ?", oldSectionIDs).Delete(&models.MenuDish{}).Error; err != nil {
					tx.Rollback()
					return fiber.NewError(fiber.StatusInternalServerError, "Eski menü bağları silinemedi")
				}
				if err := tx.Where("menu_id = ?", m.ID).Delete(&models.MenuSection{}).Error; err != nil {
					tx.Rollback()
					return fiber.NewError(fiber.StatusInternalServerError, "Eski bölümler silinemedi")
				}
			}
			for i := range newSections {
				newSections[i].MenuID = m.ID
				if err := tx.Create(&newSections[i]).Error; err != nil {
					tx.Rollback()
					return fiber.NewError(fiber.StatusInternalServerError, "Bölüm kaydedilemedi")
				}
			}
		}

		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Güncelleme tamamlanamadı")
		}

		loaded, err := loadMenu(m.ID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Menü okunamadı")
		}

		// Audit log
		if user, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  "menu",
				EntityID:    m.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Menü güncellendi: %s", m.Name),
				Before:      before,
				After:       loaded,
			})
		}

		return c.JSON(toMenuResponse(loaded))
	}
}

// DELETE /api/menus/:id (soft delete, bölümler ve bağlar temizlenir)
func DeleteMenuHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz menü ID")
		}

		var m models.Menu
		if err := database.DB.Preload("Sections").First(&m, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Menü bulunamadı")
		}

		// Transaction başlat
		tx := database.DB.Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Transaction başlatılamadı")
		}
		sectionIDs := make([]uint, 0, len(m.Sections))
		for _, s := range m.Sections {
			sectionIDs = append(sectionIDs, s.ID)
		}
		if len(sectionIDs) > 0 {
			if err := tx.Where("section_id IN ?", sectionIDs).Delete(&models.MenuDish{}).Error; err != nil {
				tx.Rollback()
				return fiber.NewError(fiber.StatusInternalServerError, "Menü bağları silinemedi")
			}
			if err := tx.Where("menu_id = ?", m.ID).Delete(&models.MenuSection{}).Error; err != nil {
				tx.Rollback()
				return fiber.NewError(fiber.StatusInternalServerError, "Bölümler silinemedi")
			}
		}
		if err := tx.Delete(&m).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Menü silinemedi")
		}
		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Silme tamamlanamadı")
		}

		// Audit log
		if user, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  "menu",
				EntityID:    m.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Menü silindi: %s", m.Name),
				Before:      m,
				After:       nil,
			})
		}

		return c.JSON(fiber.Map{"message": "Menü silindi"})
	}
}
