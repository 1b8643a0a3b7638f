package menu

import (
	"testing"

	"mutfak-backend/internal/models"

	"github.com/shopspring/decimal"
)

func fp(v float64) *float64 { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestDishCost_Additive(t *testing.T) {
	// 0.2 kg x 18.00 + 3 adet x 2.50 = 3.60 + 7.50 = 11.10
	cost := DishCost([]IngredientCost{
		{Quantity: 0.2, UnitPrice: fp(18.00)},
		{Quantity: 3, UnitPrice: fp(2.50)},
	})
	if cost == nil {
		t.Fatal("maliyet hesaplanabilmeliydi")
	}
	if !cost.Equal(dec("11.1")) {
		t.Fatalf("beklenen 11.1, gelen %s", cost)
	}
}

func TestDishCost_AllZeroPricesIsRealZero(t *testing.T) {
	cost := DishCost([]IngredientCost{
		{Quantity: 1, UnitPrice: fp(0)},
		{Quantity: 2, UnitPrice: fp(0)},
	})
	if cost == nil {
		t.Fatal("tüm fiyatlar 0 ise maliyet kanıtlanabilir 0'dır, nil değil")
	}
	if !cost.IsZero() {
		t.Fatalf("beklenen 0, gelen %s", cost)
	}
}

func TestDishCost_MissingPriceNotComputable(t *testing.T) {
	// Herhangi bir malzemenin fiyatı bilinmiyorsa maliyet nil olmalı, 0 değil
	cost := DishCost([]IngredientCost{
		{Quantity: 1, UnitPrice: fp(4.00)},
		{Quantity: 2, UnitPrice: nil},
	})
	if cost != nil {
		t.Fatalf("fiyatsız malzeme varken maliyet nil olmalı, gelen %s", cost)
	}
}

func TestDishCost_EmptyRecipeNotComputable(t *testing.T) {
	if cost := DishCost(nil); cost != nil {
		t.Fatalf("boş reçetede maliyet nil olmalı, gelen %s", cost)
	}
}

func TestDishCost_Idempotent(t *testing.T) {
	lines := []IngredientCost{
		{Quantity: 0.5, UnitPrice: fp(7.20)},
		{Quantity: 1.5, UnitPrice: fp(3.10)},
	}
	first := DishCost(lines)
	second := DishCost(lines)
	if first == nil || second == nil || !first.Equal(*second) {
		t.Fatalf("aynı girdiyle iki hesap aynı sonucu vermeli: %v / %v", first, second)
	}
}

func TestDishMargin(t *testing.T) {
	tests := []struct {
		name  string
		cost  *decimal.Decimal
		price *float64
		want  *decimal.Decimal
	}{
		{"normal", decPtr("10.5"), fp(25), decPtr("58")},
		{"maliyet nil", nil, fp(25), nil},
		{"maliyet 0", decPtr("0"), fp(25), nil},
		{"fiyat nil", decPtr("10"), nil, nil},
		{"fiyat 0", decPtr("10"), fp(0), nil},
	}

	for _, tc := range tests {
		got := DishMargin(tc.cost, tc.price)
		if tc.want == nil {
			if got != nil {
				t.Fatalf("%s: marj tanımsız olmalı, gelen %s", tc.name, got)
			}
			continue
		}
		if got == nil || !got.Equal(*tc.want) {
			t.Fatalf("%s: beklenen %s, gelen %v", tc.name, tc.want, got)
		}
	}
}

func TestEffectivePrice(t *testing.T) {
	override := fp(12)
	dishPrice := fp(9)

	if got := EffectivePrice(override, dishPrice); got != override {
		t.Fatal("override varsa o kullanılmalı")
	}
	if got := EffectivePrice(nil, dishPrice); got != dishPrice {
		t.Fatal("override yoksa yemek fiyatı kullanılmalı")
	}
	if got := EffectivePrice(nil, nil); got != nil {
		t.Fatal("ikisi de yoksa nil olmalı")
	}
}

func TestMenuCostRange_FixedDegenerate(t *testing.T) {
	// Sabit fiyatlı menüde seçim yok: min = max = toplam, avg = toplam / adet
	r := MenuCostRange(models.PricingFixed, []SectionCosts{
		{Required: true, DishCosts: []*decimal.Decimal{decPtr("4")}},
		{Required: true, DishCosts: []*decimal.Decimal{decPtr("6.5")}},
	})
	if r == nil {
		t.Fatal("sabit modda aralık hesaplanmalı")
	}
	if !r.Min.Equal(dec("10.5")) || !r.Max.Equal(dec("10.5")) {
		t.Fatalf("min/max toplam olmalı: min=%s max=%s", r.Min, r.Max)
	}
	if !r.Avg.Equal(dec("5.25")) {
		t.Fatalf("avg 5.25 olmalı, gelen %s", r.Avg)
	}
	if r.DishCount != 2 {
		t.Fatalf("yemek sayısı 2 olmalı, gelen %d", r.DishCount)
	}
}

func TestMenuCostRange_Choice(t *testing.T) {
	// Zorunlu bölüm {3, 5, 8}, opsiyonel bölüm {2, 10}:
	// min = 3 (zorunlunun en ucuzu), max = 8 + 10 = 18
	r := MenuCostRange(models.PricingChoice, []SectionCosts{
		{Required: true, DishCosts: []*decimal.Decimal{decPtr("3"), decPtr("5"), decPtr("8")}},
		{Required: false, DishCosts: []*decimal.Decimal{decPtr("2"), decPtr("10")}},
	})
	if r == nil {
		t.Fatal("choice modda aralık hesaplanmalı")
	}
	if !r.Min.Equal(dec("3")) {
		t.Fatalf("min 3 olmalı, gelen %s", r.Min)
	}
	if !r.Max.Equal(dec("18")) {
		t.Fatalf("max 18 olmalı, gelen %s", r.Max)
	}
	// avg = (3+5+8+2+10) / 5 = 5.6
	if !r.Avg.Equal(dec("5.6")) {
		t.Fatalf("avg 5.6 olmalı, gelen %s", r.Avg)
	}
}

func TestMenuCostRange_ChoiceEmptySectionContributesZero(t *testing.T) {
	r := MenuCostRange(models.PricingChoice, []SectionCosts{
		{Required: true, DishCosts: []*decimal.Decimal{decPtr("7")}},
		{Required: true, DishCosts: nil}, // boş bölüm
	})
	if r == nil {
		t.Fatal("aralık hesaplanmalı")
	}
	if !r.Min.Equal(dec("7")) || !r.Max.Equal(dec("7")) {
		t.Fatalf("boş bölüm katkı yapmamalı: min=%s max=%s", r.Min, r.Max)
	}
}

func TestMenuCostRange_ALaCarteHasNoRange(t *testing.T) {
	r := MenuCostRange(models.PricingALaCarte, []SectionCosts{
		{Required: true, DishCosts: []*decimal.Decimal{decPtr("5")}},
	})
	if r != nil {
		t.Fatal("alakart menüde menü seviyesi aralık olmamalı")
	}
}

func TestMenuMarginBand_FixedExample(t *testing.T) {
	// Maliyetler {4.00, 6.50}, sabit fiyat 25.00:
	// worst = best = (25 - 10.5) / 25 x 100 = 58
	r := MenuCostRange(models.PricingFixed, []SectionCosts{
		{Required: true, DishCosts: []*decimal.Decimal{decPtr("4"), decPtr("6.5")}},
	})
	worst, best := MenuMarginBand(fp(25), r)
	if worst == nil || best == nil {
		t.Fatal("marj bandı tanımlı olmalı")
	}
	if !worst.Equal(dec("58")) || !best.Equal(dec("58")) {
		t.Fatalf("beklenen 58/58, gelen %s/%s", worst, best)
	}
}

func TestMenuMarginBand_Undefined(t *testing.T) {
	r := &CostRange{Min: dec("0"), Max: dec("12")}

	worst, best := MenuMarginBand(nil, r)
	if worst != nil || best != nil {
		t.Fatal("fiyat yokken marj tanımsız olmalı")
	}

	worst, best = MenuMarginBand(fp(20), r)
	if worst == nil {
		t.Fatal("maxCost > 0 olduğundan worst tanımlı olmalı")
	}
	if best != nil {
		t.Fatal("minCost 0 olduğundan best tanımsız olmalı")
	}
	if !worst.Equal(dec("40")) {
		t.Fatalf("worst (20-12)/20x100 = 40 olmalı, gelen %s", worst)
	}
}

func TestMenuDisplayPrice(t *testing.T) {
	if got := MenuDisplayPrice(nil, nil, nil); got != "Fiyat belirtilmedi" {
		t.Fatalf("fiyatsız menü: %q", got)
	}

	min, max := 2, 4
	if got := MenuDisplayPrice(fp(149.9), &min, &max); got != "149.90 ₺ (2-4 kap)" {
		t.Fatalf("kap aralıklı fiyat: %q", got)
	}

	same := 3
	if got := MenuDisplayPrice(fp(99), &same, &same); got != "99.00 ₺" {
		t.Fatalf("eşit kap sayısında aralık eklenmemeli: %q", got)
	}
}
