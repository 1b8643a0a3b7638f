package menu

import (
	"fmt"

	"mutfak-backend/internal/models"

	"github.com/shopspring/decimal"
)

// Maliyet motoru: reçete grafiği ve menü yapısından maliyet/marj türetir.
// Saf hesaplama: veritabanına dokunmaz, girdiyi doğrulamaz (doğrulama
// entity katmanının işi). Hesaplanamayan sonuç nil'dir, asla yanıltıcı 0
// döndürülmez: 0 yalnızca kanıtlanabilir sıfır maliyet demektir.

// IngredientCost: Bir reçete satırının maliyet hesabı için okunmuş hali.
type IngredientCost struct {
	Quantity  float64
	UnitPrice *float64 // ürünün güncel birim fiyatı (hiç teslimat yoksa nil)
}

// DishCost: Reçete maliyeti = Σ (miktar × birim fiyat).
// Reçete boşsa veya herhangi bir malzemenin fiyatı bilinmiyorsa maliyet
// hesaplanamaz → nil.
func DishCost(lines []IngredientCost) *decimal.Decimal {
	if len(lines) == 0 {
		return nil
	}

	total := decimal.Zero
	for _, l := range lines {
		if l.UnitPrice == nil {
			return nil
		}
		total = total.Add(decimal.NewFromFloat(l.Quantity).Mul(decimal.NewFromFloat(*l.UnitPrice)))
	}
	return &total
}

// DishMargin: (satış fiyatı − maliyet) / satış fiyatı × 100.
// Yalnızca pozitif maliyet VE pozitif satış fiyatı varken tanımlı.
func DishMargin(cost *decimal.Decimal, sellingPrice *float64) *decimal.Decimal {
	if cost == nil || sellingPrice == nil {
		return nil
	}
	if !cost.IsPositive() || *sellingPrice <= 0 {
		return nil
	}

	price := decimal.NewFromFloat(*sellingPrice)
	m := price.Sub(*cost).Div(price).Mul(decimal.NewFromInt(100))
	return &m
}

// EffectivePrice: Menü içi etkin fiyat. Önce menü-yemek fiyat override'ı,
// yoksa yemeğin kendi satış fiyatı, o da yoksa nil.
func EffectivePrice(override, dishPrice *float64) *float64 {
	if override != nil {
		return override
	}
	return dishPrice
}

// SectionCosts: Bir menü bölümündeki yemeklerin maliyetleri.
// nil maliyet (hesaplanamayan) aralık hesabında 0 sayılır, kaynak sistemle
// uyumlu muhafazakâr sadeleştirme.
type SectionCosts struct {
	Required  bool
	DishCosts []*decimal.Decimal
}

type CostRange struct {
	Min       decimal.Decimal
	Max       decimal.Decimal
	Avg       decimal.Decimal
	DishCount int
}

func costOrZero(c *decimal.Decimal) decimal.Decimal {
	if c == nil {
		return decimal.Zero
	}
	return *c
}

// MenuCostRange: Menünün fiyatlandırma moduna göre maliyet aralığı.
//   - fixed: her yemek bir kez sayılır, min = max = toplam; avg = toplam / adet
//     (seçim olmadığı için dejenere durum, choice moduyla API simetrisi için).
//   - choice: min = zorunlu bölümlerin en ucuz yemekleri; max = zorunlu
//     bölümlerin en pahalısı + opsiyonel bölümlerin en pahalısı (muhafazakâr
//     üst sınır, kap sayısı kombinasyonları numaralandırılmaz); avg = tüm
//     yemek maliyetlerinin aritmetik ortalaması.
//   - a_la_carte: menü seviyesinde aralık yok → nil.
func MenuCostRange(mode models.PricingMode, sections []SectionCosts) *CostRange {
	switch mode {
	case models.PricingFixed:
		total := decimal.Zero
		count := 0
		for _, s := range sections {
			for _, c := range s.DishCosts {
				total = total.Add(costOrZero(c))
				count++
			}
		}
		avg := decimal.Zero
		if count > 0 {
			avg = total.Div(decimal.NewFromInt(int64(count)))
		}
		return &CostRange{Min: total, Max: total, Avg: avg, DishCount: count}

	case models.PricingChoice:
		minTotal := decimal.Zero
		maxTotal := decimal.Zero
		sum := decimal.Zero
		count := 0

		for _, s := range sections {
			if len(s.DishCosts) == 0 {
				continue // boş bölüm katkı yapmaz
			}

			cheapest := costOrZero(s.DishCosts[0])
			dearest := cheapest
			for _, c := range s.DishCosts {
				v := costOrZero(c)
				if v.LessThan(cheapest) {
					cheapest = v
				}
				if v.GreaterThan(dearest) {
					dearest = v
				}
				sum = sum.Add(v)
				count++
			}

			if s.Required {
				minTotal = minTotal.Add(cheapest)
				maxTotal = maxTotal.Add(dearest)
			} else {
				// Opsiyonel bölüm: en kötü durumda müşterinin en pahalıyı
				// seçtiği varsayılır, en iyi durumda hiç seçmediği
				maxTotal = maxTotal.Add(dearest)
			}
		}

		avg := decimal.Zero
		if count > 0 {
			avg = sum.Div(decimal.NewFromInt(int64(count)))
		}
		return &CostRange{Min: minTotal, Max: maxTotal, Avg: avg, DishCount: count}

	default: // a_la_carte
		return nil
	}
}

// MenuMarginBand: Sabit fiyat ile maliyet aralığından marj bandı.
// worst = (fiyat − maxCost) / fiyat × 100, best = (fiyat − minCost) / fiyat × 100.
// Her ikisi de yalnızca fiyat > 0 ve ilgili maliyet > 0 iken tanımlı.
func MenuMarginBand(fixedPrice *float64, r *CostRange) (worst, best *decimal.Decimal) {
	if fixedPrice == nil || *fixedPrice <= 0 || r == nil {
		return nil, nil
	}

	price := decimal.NewFromFloat(*fixedPrice)
	hundred := decimal.NewFromInt(100)

	if r.Max.IsPositive() {
		w := price.Sub(r.Max).Div(price).Mul(hundred)
		worst = &w
	}
	if r.Min.IsPositive() {
		b := price.Sub(r.Min).Div(price).Mul(hundred)
		best = &b
	}
	return worst, best
}

// MenuDisplayPrice: Menünün gösterim fiyatı. Sabit fiyat yoksa
// "Fiyat belirtilmedi"; min/max kap sayısı farklıysa aralık eklenir.
func MenuDisplayPrice(fixedPrice *float64, minCourses, maxCourses *int) string {
	if fixedPrice == nil {
		return "Fiyat belirtilmedi"
	}

	s := fmt.Sprintf("%.2f ₺", *fixedPrice)
	if minCourses != nil && maxCourses != nil && *minCourses != *maxCourses {
		s += fmt.Sprintf(" (%d-%d kap)", *minCourses, *maxCourses)
	}
	return s
}
