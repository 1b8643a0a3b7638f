package models

import (
	"time"

	"gorm.io/gorm"
)

// Geçerli ölçü birimleri (kütle, hacim ve adet bazlı)
var ValidUnits = []string{"kg", "gr", "lt", "ml", "adet", "paket", "koli"}

func IsValidUnit(u string) bool {
	for _, v := range ValidUnits {
		if v == u {
			return true
		}
	}
	return false
}

// Product: Envanterde takip edilen ürün.
// TotalValue türetilmiş bir alandır (Quantity * UnitPrice), her stok
// hareketinde yeniden hesaplanır, asla elle güncellenmez.
type Product struct {
	ID         uint     `gorm:"primaryKey"`
	Name       string   `gorm:"size:100;not null;unique"`
	Unit       string   `gorm:"size:20;not null"` // kg, lt, adet vs.
	Quantity   float64  `gorm:"not null;default:0"`
	UnitPrice  *float64 // son teslimat fiyatı (hiç teslimat yoksa nil)
	TotalValue *float64 // Quantity * UnitPrice (fiyat bilinmiyorsa nil)
	Trackable  bool     `gorm:"not null;default:true"` // false ise hareket kaydı tutulmaz
	ParLevel   *float64 // kritik stok seviyesi (düşük stok uyarısı için)
	Category   string   `gorm:"size:50"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}
