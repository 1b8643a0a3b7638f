package models

import "time"

type DisputeStatus string

const (
	DisputeOpen     DisputeStatus = "open"
	DisputeResolved DisputeStatus = "resolved"
)

// Dispute: Tedarikçiyle yaşanan sorun kaydı (eksik/bozuk teslimat, iade).
// Çözüldüğünde stoka işaretli bir düzeltme hareketi uygulanır.
type Dispute struct {
	ID          uint          `gorm:"primaryKey"`
	ProductID   uint          `gorm:"index;not null"`
	Product     Product
	Supplier    string        `gorm:"size:150"`
	Description string        `gorm:"size:500;not null"`
	Status      DisputeStatus `gorm:"size:20;not null;default:'open'"`
	// Çözüm bilgileri
	QuantityDelta *float64 // işaretli miktar değişimi (iade için negatif)
	Resolution    string   `gorm:"size:500"`
	ResolvedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
