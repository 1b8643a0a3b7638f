package models

import (
	"time"

	"gorm.io/gorm"
)

// Dish: Reçetesi olan yemek. Maliyeti reçete satırlarından hesaplanır.
type Dish struct {
	ID           uint    `gorm:"primaryKey"`
	Name         string  `gorm:"size:150;not null"`
	Description  string  `gorm:"size:500"`
	Active       bool    `gorm:"not null;default:true"`
	SellingPrice *float64
	RecipeLines  []RecipeLine `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

// RecipeLine: Yemeğin bir malzemesi (ürün + gerekli miktar).
type RecipeLine struct {
	ID        uint    `gorm:"primaryKey"`
	DishID    uint    `gorm:"index;not null"`
	ProductID uint    `gorm:"index;not null"`
	Product   Product
	Quantity  float64 `gorm:"not null"`
	Unit      string  `gorm:"size:20;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
