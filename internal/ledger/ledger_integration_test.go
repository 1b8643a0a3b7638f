package ledger_test

import (
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"mutfak-backend/internal/database"
	"mutfak-backend/internal/ledger"
	"mutfak-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Defter invariant'ları gerçek Postgres üzerinde doğrulanır:
// balance-after zinciri, toplam değer cache'i ve transaction atomikliği.

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	name, port := startPostgresContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(name) })

	dsn := fmt.Sprintf("host=127.0.0.1 user=postgres password=testpw dbname=mutfak_test port=%s sslmode=disable", port)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("postgres bağlantısı: %v", err)
	}
	database.Migrate(db)
	return db
}

func createProduct(t *testing.T, db *gorm.DB, name string, trackable bool) *models.Product {
	t.Helper()
	p := models.Product{Name: name, Unit: "kg", Trackable: trackable}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("ürün oluşturulamadı: %v", err)
	}
	return &p
}

func createBill(t *testing.T, db *gorm.DB) *models.Bill {
	t.Helper()
	b := models.Bill{Supplier: "Test Tedarikçi", Status: models.BillDraft}
	if err := db.Create(&b).Error; err != nil {
		t.Fatalf("fatura oluşturulamadı: %v", err)
	}
	return &b
}

func reload(t *testing.T, db *gorm.DB, id uint) *models.Product {
	t.Helper()
	var p models.Product
	if err := db.First(&p, "id = ?", id).Error; err != nil {
		t.Fatalf("ürün okunamadı: %v", err)
	}
	return &p
}

func TestDeliveryRoundTrip(t *testing.T) {
	db := setupDB(t)
	p := createProduct(t, db, "Domates", true)
	bill := createBill(t, db)

	// Miktar 5, fiyat 2.00 ile giriş
	tx := db.Begin()
	if _, err := ledger.ApplyDelivery(tx, p.ID, 5, 2.00, bill.ID); err != nil {
		t.Fatalf("ApplyDelivery: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("commit: %v", err)
	}

	got := reload(t, db, p.ID)
	if got.Quantity != 5 {
		t.Fatalf("miktar 5 olmalı, gelen %v", got.Quantity)
	}
	if got.UnitPrice == nil || *got.UnitPrice != 2.00 {
		t.Fatalf("birim fiyat 2.00 olmalı, gelen %v", got.UnitPrice)
	}
	if got.TotalValue == nil || *got.TotalValue != 10.00 {
		t.Fatalf("toplam değer 10.00 olmalı, gelen %v", got.TotalValue)
	}

	var movements []models.StockMovement
	if err := db.Where("product_id = ?", p.ID).Find(&movements).Error; err != nil {
		t.Fatalf("hareketler okunamadı: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("tam olarak 1 hareket olmalı, gelen %d", len(movements))
	}
	m := movements[0]
	if m.Kind != models.MovementIn || m.BalanceAfter != 5 {
		t.Fatalf("beklenen in/5, gelen %s/%v", m.Kind, m.BalanceAfter)
	}
	if m.BillID == nil || *m.BillID != bill.ID {
		t.Fatalf("hareket faturaya bağlı olmalı")
	}
}

func TestBalanceChainAndValueCache(t *testing.T) {
	db := setupDB(t)
	p := createProduct(t, db, "Zeytinyağı", true)
	bill := createBill(t, db)
	dispute := models.Dispute{ProductID: p.ID, Description: "eksik teslimat", Status: models.DisputeOpen}
	if err := db.Create(&dispute).Error; err != nil {
		t.Fatalf("itiraz oluşturulamadı: %v", err)
	}

	// Giriş 10 x 3.00, düzeltme -2, çıkış 3
	ops := []func(tx *gorm.DB) error{
		func(tx *gorm.DB) error {
			_, err := ledger.ApplyDelivery(tx, p.ID, 10, 3.00, bill.ID)
			return err
		},
		func(tx *gorm.DB) error {
			_, err := ledger.ApplyAdjustment(tx, p.ID, -2, "İtiraz çözümü: eksik teslimat", &dispute.ID)
			return err
		},
		func(tx *gorm.DB) error {
			_, err := ledger.ApplyConsumption(tx, p.ID, 3, nil)
			return err
		},
	}

	for i, op := range ops {
		tx := db.Begin()
		if err := op(tx); err != nil {
			t.Fatalf("op %d: %v", i, err)
		}
		if err := tx.Commit().Error; err != nil {
			t.Fatalf("op %d commit: %v", i, err)
		}

		// Her işlemden sonra: miktar == son hareketin balance_after değeri
		got := reload(t, db, p.ID)
		var last models.StockMovement
		if err := db.Where("product_id = ?", p.ID).Order("created_at DESC, id DESC").First(&last).Error; err != nil {
			t.Fatalf("op %d: son hareket okunamadı: %v", i, err)
		}
		if got.Quantity != last.BalanceAfter {
			t.Fatalf("op %d: miktar (%v) son hareketin bakiyesine (%v) eşit olmalı", i, got.Quantity, last.BalanceAfter)
		}
		// Fiyat biliniyorsa toplam değer = miktar x fiyat
		if got.UnitPrice != nil {
			want := got.Quantity * *got.UnitPrice
			if got.TotalValue == nil || *got.TotalValue != want {
				t.Fatalf("op %d: toplam değer %v olmalı, gelen %v", i, want, got.TotalValue)
			}
		}
	}

	final := reload(t, db, p.ID)
	if final.Quantity != 5 { // 10 - 2 - 3
		t.Fatalf("son miktar 5 olmalı, gelen %v", final.Quantity)
	}
}

func TestConcurrentDeliveriesDoNotLoseUpdates(t *testing.T) {
	db := setupDB(t)
	p := createProduct(t, db, "Pirinç", true)
	bill := createBill(t, db)

	// İki eşzamanlı giriş: satır kilidi sayesinde ikisi de kalıcı olmalı,
	// sonradan gelen öncekinin bakiyesini ezmemeli
	var wg sync.WaitGroup
	apply := func(qty float64) {
		defer wg.Done()
		tx := db.Begin()
		if _, err := ledger.ApplyDelivery(tx, p.ID, qty, 2.00, bill.ID); err != nil {
			tx.Rollback()
			t.Errorf("ApplyDelivery(%v): %v", qty, err)
			return
		}
		if err := tx.Commit().Error; err != nil {
			t.Errorf("commit(%v): %v", qty, err)
		}
	}
	wg.Add(2)
	go apply(5)
	go apply(3)
	wg.Wait()

	got := reload(t, db, p.ID)
	if got.Quantity != 8 {
		t.Fatalf("eşzamanlı girişlerden biri kaybolmamalı: miktar 8 olmalı, gelen %v", got.Quantity)
	}

	var movements []models.StockMovement
	if err := db.Where("product_id = ?", p.ID).Order("created_at ASC, id ASC").Find(&movements).Error; err != nil {
		t.Fatalf("hareketler okunamadı: %v", err)
	}
	if len(movements) != 2 {
		t.Fatalf("2 hareket olmalı, gelen %d", len(movements))
	}
	if movements[1].BalanceAfter != 8 {
		t.Fatalf("son hareketin bakiyesi 8 olmalı, gelen %v", movements[1].BalanceAfter)
	}
}

func TestMultiLineAtomicity(t *testing.T) {
	db := setupDB(t)
	p := createProduct(t, db, "Un", true)
	bill := createBill(t, db)

	// İkinci satır var olmayan ürüne işaret ediyor: tüm transaction geri alınmalı
	tx := db.Begin()
	if _, err := ledger.ApplyDelivery(tx, p.ID, 4, 1.50, bill.ID); err != nil {
		t.Fatalf("ilk satır: %v", err)
	}
	if _, err := ledger.ApplyDelivery(tx, 999999, 2, 5.00, bill.ID); err == nil {
		t.Fatal("var olmayan ürün hata vermeliydi")
	}
	tx.Rollback()

	got := reload(t, db, p.ID)
	if got.Quantity != 0 {
		t.Fatalf("rollback sonrası miktar 0 olmalı, gelen %v", got.Quantity)
	}
	var count int64
	db.Model(&models.StockMovement{}).Where("bill_id = ?", bill.ID).Count(&count)
	if count != 0 {
		t.Fatalf("rollback sonrası faturaya ait hiç hareket kalmamalı, gelen %d", count)
	}
}

func TestConsumptionAllowsNegative(t *testing.T) {
	db := setupDB(t)
	p := createProduct(t, db, "Limon", true)

	// Stok 0'ken 2 birim düşüm: negatif bakiyeye izin var
	tx := db.Begin()
	mv, err := ledger.ApplyConsumption(tx, p.ID, 2, nil)
	if err != nil {
		t.Fatalf("ApplyConsumption: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("commit: %v", err)
	}

	if mv.BalanceAfter != -2 {
		t.Fatalf("bakiye -2 olmalı, gelen %v", mv.BalanceAfter)
	}
	if got := reload(t, db, p.ID); got.Quantity != -2 {
		t.Fatalf("miktar -2 olmalı, gelen %v", got.Quantity)
	}
}

func TestUntrackedProductSkipsMovement(t *testing.T) {
	db := setupDB(t)
	p := createProduct(t, db, "Peçete", false)
	bill := createBill(t, db)

	tx := db.Begin()
	mv, err := ledger.ApplyDelivery(tx, p.ID, 10, 0.50, bill.ID)
	if err != nil {
		t.Fatalf("ApplyDelivery: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("commit: %v", err)
	}

	if mv != nil {
		t.Fatal("takip dışı üründe hareket yazılmamalı")
	}
	got := reload(t, db, p.ID)
	if got.Quantity != 10 {
		t.Fatalf("cache miktarı yine de güncellenmeli, gelen %v", got.Quantity)
	}
	var count int64
	db.Model(&models.StockMovement{}).Where("product_id = ?", p.ID).Count(&count)
	if count != 0 {
		t.Fatalf("hareket sayısı 0 olmalı, gelen %d", count)
	}
}

func startPostgresContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("mutfak-test-postgres-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "POSTGRES_PASSWORD=testpw",
		"-e", "POSTGRES_DB=mutfak_test",
		"-p", "127.0.0.1:0:5432",
		"postgres:16-alpine",
	)
	if err != nil {
		t.Fatalf("start postgres container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "5432/tcp")
	if err != nil {
		t.Fatalf("postgres docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "pg_isready", "-U", "postgres")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("postgres did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Örnek çıktı: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
