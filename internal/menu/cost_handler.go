package menu

import (
	"mutfak-backend/internal/database"
	"mutfak-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DishCostResponse struct {
	DishID       uint     `json:"dish_id"`
	Name         string   `json:"name"`
	SellingPrice *float64 `json:"selling_price"`
	Cost         *float64 `json:"cost"`   // null = hesaplanamadı (fiyatsız malzeme var)
	Margin       *float64 `json:"margin"` // yüzde; null = tanımsız
}

type MenuCostDishRow struct {
	DishID         uint     `json:"dish_id"`
	Name           string   `json:"name"`
	EffectivePrice *float64 `json:"effective_price"` // override > yemek fiyatı > null
	Cost           *float64 `json:"cost"`
	Margin         *float64 `json:"margin"`
}

type MenuCostSectionRow struct {
	SectionID uint              `json:"section_id"`
	Name      string            `json:"name"`
	Required  bool              `json:"required"`
	Dishes    []MenuCostDishRow `json:"dishes"`
}

type MenuCostResponse struct {
	MenuID       uint                 `json:"menu_id"`
	Name         string               `json:"name"`
	PricingMode  string               `json:"pricing_mode"`
	FixedPrice   *float64             `json:"fixed_price"`
	DisplayPrice string               `json:"display_price"`
	DishCount    int                  `json:"dish_count"`
	MinCost      *float64             `json:"min_cost"` // a_la_carte için null
	MaxCost      *float64             `json:"max_cost"`
	AvgCost      *float64             `json:"avg_cost"`
	WorstMargin  *float64             `json:"worst_margin"` // (fiyat - maxCost) / fiyat
	BestMargin   *float64             `json:"best_margin"`  // (fiyat - minCost) / fiyat
	Sections     []MenuCostSectionRow `json:"sections"`
}

func decToFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

// Yemeğin reçetesini maliyet motoru girdisine çevir (read-model assembly:
// motor veritabanını bilmez, handler açıkça yükler)
func ingredientCosts(d *models.Dish) []IngredientCost {
	lines := make([]IngredientCost, 0, len(d.RecipeLines))
	for _, l := range d.RecipeLines {
		lines = append(lines, IngredientCost{
			Quantity:  l.Quantity,
			UnitPrice: l.Product.UnitPrice,
		})
	}
	return lines
}

// GET /api/dishes/:id/cost
func GetDishCostHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz yemek ID")
		}

		var dish models.Dish
		if err := database.DB.Preload("RecipeLines.Product").First(&dish, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Yemek bulunamadı")
		}

		cost := DishCost(ingredientCosts(&dish))
		margin := DishMargin(cost, dish.SellingPrice)

		return c.JSON(DishCostResponse{
			DishID:       dish.ID,
			Name:         dish.Name,
			SellingPrice: dish.SellingPrice,
			Cost:         decToFloat(cost),
			Margin:       decToFloat(margin),
		})
	}
}

// GET /api/menus/:id/cost
// Menünün tamamı için maliyet aralığı, marj bandı ve gösterim fiyatı.
// Tek okuma turunda yüklenir; hesaplama saf fonksiyonlarda yapılır.
func GetMenuCostHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz menü ID")
		}

		var m models.Menu
		if err := database.DB.
			Preload("Sections", func(db *gorm.DB) *gorm.DB {
				return db.Order("display_order asc, id asc")
			}).
			Preload("Sections.Dishes", func(db *gorm.DB) *gorm.DB {
				return db.Order("display_order asc, id asc")
			}).
			Preload("Sections.Dishes.Dish.RecipeLines.Product").
			First(&m, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Menü bulunamadı")
		}

		resp := MenuCostResponse{
			MenuID:       m.ID,
			Name:         m.Name,
			PricingMode:  string(m.PricingMode),
			FixedPrice:   m.FixedPrice,
			DisplayPrice: MenuDisplayPrice(m.FixedPrice, m.MinCourses, m.MaxCourses),
			Sections:     make([]MenuCostSectionRow, 0, len(m.Sections)),
		}

		sections := make([]SectionCosts, 0, len(m.Sections))
		for _, s := range m.Sections {
			sc := SectionCosts{Required: s.Required}
			row := MenuCostSectionRow{
				SectionID: s.ID,
				Name:      s.Name,
				Required:  s.Required,
				Dishes:    make([]MenuCostDishRow, 0, len(s.Dishes)),
			}

			for _, md := range s.Dishes {
				cost := DishCost(ingredientCosts(&md.Dish))
				effective := EffectivePrice(md.PriceOverride, md.Dish.SellingPrice)
				margin := DishMargin(cost, effective)

				sc.DishCosts = append(sc.DishCosts, cost)
				row.Dishes = append(row.Dishes, MenuCostDishRow{
					DishID:         md.DishID,
					Name:           md.Dish.Name,
					EffectivePrice: effective,
					Cost:           decToFloat(cost),
					Margin:         decToFloat(margin),
				})
			}

			sections = append(sections, sc)
			resp.Sections = append(resp.Sections, row)
		}

		if r := MenuCostRange(m.PricingMode, sections); r != nil {
			resp.DishCount = r.DishCount
			resp.MinCost = decToFloat(&r.Min)
			resp.MaxCost = decToFloat(&r.Max)
			resp.AvgCost = decToFloat(&r.Avg)

			worst, best := MenuMarginBand(m.FixedPrice, r)
			resp.WorstMargin = decToFloat(worst)
			resp.BestMargin = decToFloat(best)
		}

		return c.JSON(resp)
	}
}
