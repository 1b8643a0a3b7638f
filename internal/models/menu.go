package models

import (
	"time"

	"gorm.io/gorm"
)

type PricingMode string

const (
	PricingALaCarte PricingMode = "a_la_carte" // yemekler tek tek fiyatlandırılır
	PricingFixed    PricingMode = "fixed"      // tüm menü tek fiyat
	PricingChoice   PricingMode = "choice"     // bölümlerden sınırlı sayıda seçim
)

type Menu struct {
	ID          uint        `gorm:"primaryKey"`
	Name        string      `gorm:"size:150;not null"`
	Active      bool        `gorm:"not null;default:true"`
	PricingMode PricingMode `gorm:"size:20;not null;default:'a_la_carte'"`
	FixedPrice  *float64
	MinCourses  *int
	MaxCourses  *int
	Sections    []MenuSection `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

type MenuSection struct {
	ID           uint   `gorm:"primaryKey"`
	MenuID       uint   `gorm:"index;not null"`
	Name         string `gorm:"size:100;not null"`
	DisplayOrder int    `gorm:"not null;default:0"`
	Required     bool   `gorm:"not null;default:true"`
	Dishes       []MenuDish `gorm:"foreignKey:SectionID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MenuDish: Bölüm ile yemek arasındaki bağ. PriceOverride set edilmişse bu
// menü içinde yemeğin kendi satış fiyatının yerine geçer.
type MenuDish struct {
	ID            uint  `gorm:"primaryKey"`
	SectionID     uint  `gorm:"index;not null"`
	DishID        uint  `gorm:"index;not null"`
	Dish          Dish
	PriceOverride *float64
	DisplayOrder  int    `gorm:"not null;default:0"`
	Note          string `gorm:"size:255"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
