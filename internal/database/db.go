package database

import (
	"log"

	"mutfak-backend/internal/config"
	"mutfak-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	Migrate(DB)
}

// Migrate: Tüm tabloları oluşturur/günceller. Entegrasyon testleri de aynı
// şemayı kurabilsin diye ayrı fonksiyon.
func Migrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.StockMovement{},
		&models.Bill{},
		&models.BillLine{},
		&models.Dispute{},
		&models.Dish{},
		&models.RecipeLine{},
		&models.Menu{},
		&models.MenuSection{},
		&models.MenuDish{},
		&models.Sale{},
		&models.AuditLog{},
	)
	if err != nil {
		log.Fatalf("Migration başarısız: %v", err)
	}
}
