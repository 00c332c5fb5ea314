package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/restobar/pos/models"
	"github.com/restobar/pos/printing"
	"github.com/restobar/pos/router"
	"github.com/restobar/pos/services"
	"github.com/restobar/pos/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	utils.InitLogger()
	os.Exit(m.Run())
}

// captureSink keeps the tickets that would have gone to the printers.
type captureSink struct {
	tickets []printing.Ticket
}

func (s *captureSink) Print(addr string, t printing.Ticket) error {
	s.tickets = append(s.tickets, t)
	return nil
}

// TestFullOrderLifecycleOverHTTP drives the main floor flow end to end:
// 0. Seed admin + catalog, login -> token
// 1. Create order on a free table
// 2. Facture -> bill-printed
// 3. Pay -> closed bill with change
// 4. Read the bill back from the cashier endpoint
func TestFullOrderLifecycleOverHTTP(t *testing.T) {
	db := setupIntegrationDB()
	sink := &captureSink{}
	orderSvc := services.NewOrderService(db, printing.NewDispatcher(sink, utils.ErrorLogger))
	r := router.SetupRouter(db, orderSvc, sink)

	token := loginIntegration(t, r)

	orderID := createOrderIntegration(t, r, token)

	factureIntegration(t, r, orderID, token)

	billID := payOrderIntegration(t, r, orderID, token)

	checkBillIntegration(t, r, billID, orderID, token)

	// The order ticket plus the facture went through the sink.
	if len(sink.tickets) < 2 {
		t.Fatalf("expected at least 2 tickets printed, got %d", len(sink.tickets))
	}
}

// setupIntegrationDB -> in-memory SQLite, migrated and seeded with an admin,
// one product behind a bar printer and one free table.
func setupIntegrationDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file:integration?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open in-memory sqlite: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.UserActivity{},
		&models.LoginEntry{},
		&models.Table{},
		&models.Category{},
		&models.Supplier{},
		&models.Printer{},
		&models.Store{},
		&models.Item{},
		&models.ItemActivity{},
		&models.Order{},
		&models.OrderItem{},
		&models.RemovedItem{},
		&models.ClosedBill{},
		&models.ClosedBillItem{},
		&models.Company{},
	)
	if err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	hashedPin, _ := bcrypt.GenerateFromPassword([]byte("1234"), bcrypt.DefaultCost)
	db.Create(&models.User{
		Name:     "Test Admin",
		Email:    "admin@example.com",
		Username: "admin",
		Pin:      string(hashedPin),
		Phone:    "0000",
		Address:  "Comptoir",
		Role:     models.RoleAdmin,
	})

	category := models.Category{Name: "Boissons"}
	db.Create(&category)
	supplier := models.Supplier{Name: "Bralima"}
	db.Create(&supplier)
	printer := models.Printer{Name: "Bar", IPAddress: "192.168.1.50"}
	db.Create(&printer)
	store := models.Store{Name: "Bar", PrinterID: printer.ID}
	db.Create(&store)
	db.Create(&models.Item{
		Name:          "Primus 72cl",
		Description:   "Bière blonde",
		BarCode:       "PRM-72",
		CategoryID:    category.ID,
		StoreID:       store.ID,
		SupplierID:    supplier.ID,
		PurchasePrice: 1000,
		SellingPrice:  1500,
		PackageSize:   12,
		Stock:         40,
	})

	db.Create(&models.Table{Number: "1", Status: models.TableAvailable})

	return db
}

func loginIntegration(t *testing.T, r *gin.Engine) string {
	body, _ := json.Marshal(map[string]string{
		"username": "admin",
		"pin":      "1234",
	})

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Status bool `json:"status"`
		Data   struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Status || resp.Data.Token == "" {
		t.Fatalf("login: no token in response %s", w.Body.String())
	}

	return resp.Data.Token
}

func doAuthorized(r *gin.Engine, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if payload != nil {
		json.NewEncoder(&buf).Encode(payload)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// createOrderIntegration -> POST /api/orders => 201, order pending with the
// right total
func createOrderIntegration(t *testing.T, r *gin.Engine, token string) uint {
	w := doAuthorized(r, http.MethodPost, "/api/orders", token, map[string]interface{}{
		"table": 1,
		"items": []map[string]interface{}{
			{"product": 1, "quantity": 2},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create order: expected 201, got %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Status bool `json:"status"`
		Data   struct {
			ID         uint    `json:"id"`
			Status     string  `json:"status"`
			TotalPrice float64 `json:"total_price"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.Status != models.OrderPending {
		t.Fatalf("create order: expected status %q, got %q", models.OrderPending, resp.Data.Status)
	}
	if resp.Data.TotalPrice != 3000 {
		t.Fatalf("create order: expected total 3000, got %v", resp.Data.TotalPrice)
	}

	return resp.Data.ID
}

// factureIntegration -> POST /api/orders/:id/facture => bill-printed
func factureIntegration(t *testing.T, r *gin.Engine, orderID uint, token string) {
	w := doAuthorized(r, http.MethodPost, fmt.Sprintf("/api/orders/%d/facture", orderID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("facture: expected 200, got %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.Status != models.OrderBillPrinted {
		t.Fatalf("facture: expected status %q, got %q", models.OrderBillPrinted, resp.Data.Status)
	}
}

// payOrderIntegration -> POST /api/orders/:id/pay => closed bill, the order
// is gone and its table is free again
func payOrderIntegration(t *testing.T, r *gin.Engine, orderID uint, token string) uint {
	w := doAuthorized(r, http.MethodPost, fmt.Sprintf("/api/orders/%d/pay", orderID), token, map[string]interface{}{
		"payment_method":  "cash",
		"amount_received": 5000,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("pay: expected 200, got %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			ID            uint    `json:"id"`
			InvoiceNumber string  `json:"invoice_number"`
			TotalPrice    float64 `json:"total_price"`
			Change        float64 `json:"change"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.InvoiceNumber == "" {
		t.Fatalf("pay: empty invoice number, body=%s", w.Body.String())
	}
	if resp.Data.Change != 2000 {
		t.Fatalf("pay: expected change 2000, got %v", resp.Data.Change)
	}

	if w := doAuthorized(r, http.MethodGet, fmt.Sprintf("/api/orders/%d", orderID), token, nil); w.Code != http.StatusNotFound {
		t.Fatalf("paid order should be gone, got %d", w.Code)
	}

	return resp.Data.ID
}

// checkBillIntegration -> GET /api/bills/:id returns the snapshot with its
// sold lines
func checkBillIntegration(t *testing.T, r *gin.Engine, billID, orderID uint, token string) {
	w := doAuthorized(r, http.MethodGet, fmt.Sprintf("/api/bills/%d", billID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("bill: expected 200, got %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			OrderRef   uint    `json:"order_ref"`
			TotalPrice float64 `json:"total_price"`
			Items      []struct {
				Name     string `json:"name"`
				Quantity int    `json:"quantity"`
			} `json:"items"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.OrderRef != orderID {
		t.Fatalf("bill: expected order ref %d, got %d", orderID, resp.Data.OrderRef)
	}
	if resp.Data.TotalPrice != 3000 {
		t.Fatalf("bill: expected total 3000, got %v", resp.Data.TotalPrice)
	}
	if len(resp.Data.Items) != 1 || resp.Data.Items[0].Quantity != 2 {
		t.Fatalf("bill: expected one line of 2, got %+v", resp.Data.Items)
	}
}
