package models

import "time"

// Sale: Satış kaydı. Kaydedildiğinde yemeğin tüm reçete satırları için
// stoktan düşüm yapılır (tek transaction).
type Sale struct {
	ID        uint      `gorm:"primaryKey"`
	DishID    uint      `gorm:"index;not null"`
	Dish      Dish
	Quantity  float64   `gorm:"not null"`
	Date      time.Time `gorm:"index;not null"`
	Note      string    `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
