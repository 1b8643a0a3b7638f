package models

import "time"

type MovementKind string

const (
	MovementIn      MovementKind = "in"      // teslimat girişi
	MovementOut     MovementKind = "out"     // satış/tüketim çıkışı
	MovementAdjust  MovementKind = "adjust"  // manuel düzeltme (itiraz çözümü)
	MovementInitial MovementKind = "initial" // açılış stoku
)

// StockMovement: Bir ürünün miktarını değiştiren değişmez (append-only) kayıt.
// Oluşturulduktan sonra asla güncellenmez veya silinmez.
// BalanceAfter o anki bakiye fotoğrafıdır: hareket uygulandıktan hemen sonra
// ürünün Quantity değerine eşit olmak zorundadır.
type StockMovement struct {
	ID           uint         `gorm:"primaryKey"`
	ProductID    uint         `gorm:"index;not null"`
	Product      Product
	Kind         MovementKind `gorm:"size:20;not null"`
	Quantity     float64      `gorm:"not null"` // in/out/initial: büyüklük; adjust: işaretli delta
	BalanceAfter float64      `gorm:"not null"`
	UnitPrice    *float64     // hareket anındaki birim fiyat
	TotalValue   *float64     // hareket anındaki toplam değer
	Reason       string       `gorm:"size:255"`
	BillID       *uint        `gorm:"index"` // girişse kaynak fatura
	DisputeID    *uint        `gorm:"index"` // düzeltmeyse kaynak itiraz
	SaleID       *uint        `gorm:"index"` // çıkışsa kaynak satış
	CreatedAt    time.Time    `gorm:"index"`
}
