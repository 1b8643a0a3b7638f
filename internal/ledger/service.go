package ledger

import (
	"errors"
	"fmt"

	"mutfak-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Stok defteri: ürün miktarını değiştiren her olay buradan geçer.
// Tüm Apply* fonksiyonları çağıranın açtığı transaction (tx) içinde çalışır;
// atomiklik çağıranın sorumluluğudur. Bir fatura onayı / itiraz çözümü /
// satış kaydı ya bütün satırlarıyla işlenir ya da hiç işlenmez.

var (
	ErrProductNotFound = errors.New("ürün bulunamadı")
	ErrInvalidQuantity = errors.New("miktar 0'dan büyük olmalı")
	ErrZeroDelta       = errors.New("değişim miktarı 0 olamaz")
)

// RecomputeValue: Türetilmiş toplam değer. Fiyat bilinmiyorsa değer de
// bilinmiyor demektir (0 değil, nil).
func RecomputeValue(quantity float64, unitPrice *float64) *float64 {
	if unitPrice == nil {
		return nil
	}
	v := quantity * *unitPrice
	return &v
}

// Ürün satırı FOR UPDATE ile okunur: aynı ürüne eşzamanlı hareketler
// sıraya girer, bakiye zinciri bozulmaz.
func loadProduct(tx *gorm.DB, productID uint) (*models.Product, error) {
	var p models.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w (ID: %d)", ErrProductNotFound, productID)
		}
		return nil, fmt.Errorf("ürün okunamadı: %w", err)
	}
	return &p, nil
}

// appendMovement: Hareketi yazar ve ürünün cache alanlarını günceller.
// Takip dışı (Trackable=false) ürünlerde sadece cache güncellenir,
// hareket satırı yazılmaz.
func appendMovement(tx *gorm.DB, p *models.Product, mv *models.StockMovement, newQty float64, newPrice *float64) (*models.StockMovement, error) {
	p.Quantity = newQty
	p.UnitPrice = newPrice
	p.TotalValue = RecomputeValue(newQty, newPrice)

	if err := tx.Save(p).Error; err != nil {
		return nil, fmt.Errorf("ürün güncellenemedi: %w", err)
	}

	if !p.Trackable {
		return nil, nil
	}

	mv.ProductID = p.ID
	mv.BalanceAfter = newQty
	if err := tx.Create(mv).Error; err != nil {
		return nil, fmt.Errorf("stok hareketi kaydedilemedi: %w", err)
	}
	return mv, nil
}

// ApplyDelivery: Fatura onayında bir satırın girişi. Ürünün birim fiyatı son
// teslimat fiyatıyla değiştirilir.
func ApplyDelivery(tx *gorm.DB, productID uint, quantity, unitPrice float64, billID uint) (*models.StockMovement, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	p, err := loadProduct(tx, productID)
	if err != nil {
		return nil, err
	}

	newQty := p.Quantity + quantity
	price := unitPrice
	lineTotal := quantity * unitPrice
	bid := billID

	return appendMovement(tx, p, &models.StockMovement{
		Kind:       models.MovementIn,
		Quantity:   quantity,
		UnitPrice:  &price,
		TotalValue: &lineTotal,
		Reason:     "Fatura onayı",
		BillID:     &bid,
	}, newQty, &price)
}

// ApplyOpening: Ürün ilk kez stoka girerken açılış hareketi.
func ApplyOpening(tx *gorm.DB, productID uint, quantity float64, unitPrice *float64) (*models.StockMovement, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	p, err := loadProduct(tx, productID)
	if err != nil {
		return nil, err
	}

	newQty := p.Quantity + quantity
	return appendMovement(tx, p, &models.StockMovement{
		Kind:       models.MovementInitial,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		TotalValue: RecomputeValue(quantity, unitPrice),
		Reason:     "Açılış stoku",
	}, newQty, unitPrice)
}

// ApplyAdjustment: İtiraz çözümü / manuel düzeltme. Delta işaretlidir
// (iade için negatif). Birim fiyat değişmez, toplam değer yeni miktardan
// yeniden hesaplanır.
func ApplyAdjustment(tx *gorm.DB, productID uint, delta float64, reason string, disputeID *uint) (*models.StockMovement, error) {
	if delta == 0 {
		return nil, ErrZeroDelta
	}

	p, err := loadProduct(tx, productID)
	if err != nil {
		return nil, err
	}

	newQty := p.Quantity + delta
	return appendMovement(tx, p, &models.StockMovement{
		Kind:       models.MovementAdjust,
		Quantity:   delta,
		UnitPrice:  p.UnitPrice,
		TotalValue: RecomputeValue(delta, p.UnitPrice),
		Reason:     reason,
		DisputeID:  disputeID,
	}, newQty, p.UnitPrice)
}

// ApplyConsumption: Satışta reçete satırı başına stok düşümü.
// Negatif bakiyeye izin verilir; eksi stok bir defter hatası değil,
// raporlama konusudur (düşük stok uyarısı).
func ApplyConsumption(tx *gorm.DB, productID uint, quantity float64, saleID *uint) (*models.StockMovement, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	p, err := loadProduct(tx, productID)
	if err != nil {
		return nil, err
	}

	newQty := p.Quantity - quantity
	return appendMovement(tx, p, &models.StockMovement{
		Kind:       models.MovementOut,
		Quantity:   quantity,
		UnitPrice:  p.UnitPrice,
		TotalValue: RecomputeValue(quantity, p.UnitPrice),
		Reason:     "Satış",
		SaleID:     saleID,
	}, newQty, p.UnitPrice)
}
