package models

import "time"

type BillStatus string

const (
	BillDraft     BillStatus = "draft"
	BillConfirmed BillStatus = "confirmed"
)

// Bill: Tedarikçi faturası. Taslak olarak girilir, onaylandığında tüm
// satırları tek transaction içinde stoka işlenir.
type Bill struct {
	ID          uint       `gorm:"primaryKey"`
	Supplier    string     `gorm:"size:150"`
	Date        *time.Time `gorm:"index"`
	TotalAmount float64    `gorm:"not null;default:0"`
	Status      BillStatus `gorm:"size:20;not null;default:'draft'"`
	Note        string     `gorm:"size:500"`
	ConfirmedAt *time.Time
	Lines       []BillLine `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BillLine: Fatura satırı. ProductID nil ise onay sırasında ItemName/Unit
// bilgisiyle yeni ürün oluşturulur.
type BillLine struct {
	ID        uint    `gorm:"primaryKey"`
	BillID    uint    `gorm:"index;not null"`
	ProductID *uint   `gorm:"index"`
	ItemName  string  `gorm:"size:100;not null"`
	Unit      string  `gorm:"size:20;not null"`
	Quantity  float64 `gorm:"not null"`
	UnitPrice float64 `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
