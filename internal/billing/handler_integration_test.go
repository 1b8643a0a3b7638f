package billing_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"mutfak-backend/internal/billing"
	"mutfak-backend/internal/database"
	"mutfak-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Fatura onayının transaction disiplini gerçek Postgres üzerinde doğrulanır:
// eşzamanlı onaylar stok girişini tekrarlamamalı.

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
	database.DB = db
	return db
}

func newTestApp() *fiber.App {
	app := fiber.New()
	app.Post("/bills/:id/confirm", billing.ConfirmBillHandler())
	return app
}

func confirmRequest(billID uint) *http.Request {
	return httptest.NewRequest("POST", fmt.Sprintf("/bills/%d/confirm", billID), nil)
}

func TestConcurrentConfirmAppliesOnce(t *testing.T) {
	db := setupDB(t)
	app := newTestApp()

	product := models.Product{Name: "Süt", Unit: "lt", Trackable: true}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("ürün oluşturulamadı: %v", err)
	}
	bill := models.Bill{
		Supplier: "Test Tedarikçi",
		Status:   models.BillDraft,
		Lines: []models.BillLine{
			{ProductID: &product.ID, ItemName: "Süt", Unit: "lt", Quantity: 5, UnitPrice: 2.00},
		},
	}
	if err := db.Create(&bill).Error; err != nil {
		t.Fatalf("fatura oluşturulamadı: %v", err)
	}

	// İki eşzamanlı onay: sadece biri kabul edilmeli
	var wg sync.WaitGroup
	statuses := make([]int, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := app.Test(confirmRequest(bill.ID), 60000)
			if err != nil {
				t.Errorf("onay isteği %d: %v", i, err)
				return
			}
			statuses[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	okCount, rejectedCount := 0, 0
	for _, s := range statuses {
		switch s {
		case http.StatusOK:
			okCount++
		case http.StatusBadRequest:
			rejectedCount++
		}
	}
	if okCount != 1 || rejectedCount != 1 {
		t.Fatalf("bir onay kabul, bir onay red olmalı; status'lar: %v", statuses)
	}

	// Stok girişi sadece bir kez uygulanmış olmalı
	var got models.Product
	if err := db.First(&got, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("ürün okunamadı: %v", err)
	}
	if got.Quantity != 5 {
		t.Fatalf("miktar 5 olmalı (çift sayım yok), gelen %v", got.Quantity)
	}
	var count int64
	db.Model(&models.StockMovement{}).Where("bill_id = ?", bill.ID).Count(&count)
	if count != 1 {
		t.Fatalf("faturaya ait 1 hareket olmalı, gelen %d", count)
	}
}

func TestConfirmRestoresSoftDeletedProduct(t *testing.T) {
	db := setupDB(t)
	app := newTestApp()

	// "Tereyağı" soft-delete edilmiş; unique index ismi hâlâ tutuyor
	old := models.Product{Name: "Tereyağı", Unit: "kg", Trackable: true}
	if err := db.Create(&old).Error; err != nil {
		t.Fatalf("ürün oluşturulamadı: %v", err)
	}
	if err := db.Delete(&old).Error; err != nil {
		t.Fatalf("ürün silinemedi: %v", err)
	}

	bill := models.Bill{
		Supplier: "Test Tedarikçi",
		Status:   models.BillDraft,
		Lines: []models.BillLine{
			{ProductID: nil, ItemName: "Tereyağı", Unit: "kg", Quantity: 2, UnitPrice: 10.00},
		},
	}
	if err := db.Create(&bill).Error; err != nil {
		t.Fatalf("fatura oluşturulamadı: %v", err)
	}

	resp, err := app.Test(confirmRequest(bill.ID), 60000)
	if err != nil {
		t.Fatalf("onay isteği: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("onay başarılı olmalı, gelen status %d", resp.StatusCode)
	}

	// Eski satır geri gelmiş ve giriş uygulanmış olmalı
	var got models.Product
	if err := db.First(&got, "name = ?", "Tereyağı").Error; err != nil {
		t.Fatalf("ürün geri getirilmiş olmalı: %v", err)
	}
	if got.ID != old.ID {
		t.Fatalf("yeni satır açılmamalı, eski satır (%d) kullanılmalı, gelen %d", old.ID, got.ID)
	}
	if got.Quantity != 2 {
		t.Fatalf("miktar 2 olmalı, gelen %v", got.Quantity)
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
