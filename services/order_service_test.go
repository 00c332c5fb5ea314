package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/restobar/pos/apperr"
	"github.com/restobar/pos/models"
	"github.com/restobar/pos/printing"
	"github.com/restobar/pos/utils"
)

// fakeDispatcher records jobs and fakes per-department outcomes. Stores in
// failStores report a failed print, everything else succeeds.
type fakeDispatcher struct {
	jobs       []printing.Job
	failStores map[uint]bool
}

func (f *fakeDispatcher) Dispatch(job printing.Job) []printing.Result {
	f.jobs = append(f.jobs, job)

	var order []uint
	byStore := make(map[uint][]uint)
	for _, l := range job.Lines {
		if _, ok := byStore[l.StoreID]; !ok {
			order = append(order, l.StoreID)
		}
		byStore[l.StoreID] = append(byStore[l.StoreID], l.LineID)
	}

	var results []printing.Result
	for _, storeID := range order {
		results = append(results, printing.Result{
			LineIDs: byStore[storeID],
			OK:      !f.failStores[storeID],
		})
	}
	return results
}

func (f *fakeDispatcher) lastJob() printing.Job {
	return f.jobs[len(f.jobs)-1]
}

func setupOrderTestDB(t *testing.T) *gorm.DB {
	utils.InitLogger()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{}, &models.UserActivity{},
		&models.Table{},
		&models.Category{}, &models.Supplier{},
		&models.Printer{}, &models.Store{},
		&models.Item{}, &models.ItemActivity{},
		&models.Order{}, &models.OrderItem{}, &models.RemovedItem{},
		&models.ClosedBill{}, &models.ClosedBillItem{},
		&models.Company{},
	)
	require.NoError(t, err)
	return db
}

// seedCatalog creates one attendant, two tables and two products split over
// a bar and a kitchen department, each with its own printer.
func seedCatalog(t *testing.T, db *gorm.DB) (attendant models.User, beer, brochette models.Item) {
	attendant = models.User{
		Name: "Alice", Email: "alice@example.com", Username: "alice",
		Pin: "hashed", Phone: "000", Address: "here", Role: models.RoleAttendant,
	}
	require.NoError(t, db.Create(&attendant).Error)

	require.NoError(t, db.Create(&models.Table{Number: "1"}).Error)
	require.NoError(t, db.Create(&models.Table{Number: "2"}).Error)

	category := models.Category{Name: "Boissons"}
	require.NoError(t, db.Create(&category).Error)
	supplier := models.Supplier{Name: "Bralima"}
	require.NoError(t, db.Create(&supplier).Error)

	barPrinter := models.Printer{Name: "bar-printer", IPAddress: "10.0.0.11"}
	kitchenPrinter := models.Printer{Name: "kitchen-printer", IPAddress: "10.0.0.12"}
	require.NoError(t, db.Create(&barPrinter).Error)
	require.NoError(t, db.Create(&kitchenPrinter).Error)

	bar := models.Store{Name: "Bar", PrinterID: barPrinter.ID}
	kitchen := models.Store{Name: "Cuisine", PrinterID: kitchenPrinter.ID}
	require.NoError(t, db.Create(&bar).Error)
	require.NoError(t, db.Create(&kitchen).Error)

	beer = models.Item{
		Name: "Primus 72cl", Description: "biere", BarCode: "B-001",
		CategoryID: category.ID, StoreID: bar.ID, SupplierID: supplier.ID,
		PurchasePrice: 300, SellingPrice: 500, Stock: 50, MinStock: 5,
	}
	brochette = models.Item{
		Name: "Brochette chevre", Description: "grillade", BarCode: "K-001",
		CategoryID: category.ID, StoreID: kitchen.ID, SupplierID: supplier.ID,
		PurchasePrice: 800, SellingPrice: 1500, Stock: 20, MinStock: 3,
	}
	require.NoError(t, db.Create(&beer).Error)
	require.NoError(t, db.Create(&brochette).Error)
	return attendant, beer, brochette
}

func TestCreateOrderClaimsTableAndDecrementsStock(t *testing.T) {
	db := setupOrderTestDB(t)
	attendant, beer, brochette := seedCatalog(t, db)
	disp := &fakeDispatcher{}
	svc := NewOrderService(db, disp)

	order, err := svc.CreateOrder(1, []ItemRequest{
		{ItemID: beer.ID, Quantity: 4},
		{ItemID: brochette.ID, Quantity: 2},
	}, &attendant)
	require.NoError(t, err)

	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, 4*500.0+2*1500.0, order.TotalPrice)
	assert.Len(t, order.Items, 2)

	var table models.Table
	require.NoError(t, db.First(&table, 1).Error)
	assert.Equal(t, models.TableOccupied, table.Status)
	require.NotNil(t, table.OrderID)
	assert.Equal(t, order.ID, *table.OrderID)
	require.NotNil(t, table.AttendantID)
	assert.Equal(t, attendant.ID, *table.AttendantID)

	var after models.Item
	require.NoError(t, db.First(&after, beer.ID).Error)
	assert.Equal(t, 46, after.Stock)
	after = models.Item{}
	require.NoError(t, db.First(&after, brochette.ID).Error)
	assert.Equal(t, 18, after.Stock)

	// One order ticket went out, split over both departments.
	require.Len(t, disp.jobs, 1)
	assert.Equal(t, printing.KindOrder, disp.jobs[0].Kind)
	assert.Len(t, disp.jobs[0].Lines, 2)

	// Both departments confirmed, so both lines are marked printed.
	var lines []models.OrderItem
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&lines).Error)
	for _, l := range lines {
		assert.True(t, l.Printed)
	}
}

func TestCreateOrderOnOccupiedTableFails(t *testing.T) {
	db := setupOrderTestDB(t)
	attendant, beer, _ := seedCatalog(t, db)
	svc := NewOrderService(db, &fakeDispatcher{})

	_, err := svc.CreateOrder(1, []ItemRequest{{ItemID: beer.ID, Quantity: 1}}, &attendant)
	require.NoError(t, err)

	_, err = svc.CreateOrder(1, []ItemRequest{{ItemID: beer.ID, Quantity: 1}}, &attendant)
	require.Error(t, err)
	var verr *apperr.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestCreateOrderInsufficientStockLeavesNothingBehind(t *testing.T) {
	db := setupOrderTestDB(t)
	attendant, beer, brochette := seedCatalog(t, db)
	svc := NewOrderService(db, &fakeDispatcher{})

	_, err := svc.CreateOrder(1, []ItemRequest{
		{ItemID: beer.ID, Quantity: 2},
		{ItemID: brochette.ID, Quantity: 999},
	}, &attendant)
	require.Error(t, err)
	var verr *apperr.ValidationError
	assert.True(t, errors.As(err, &verr))

	// The valid first line must not have been decremented.
	var after models.Item
	require.NoError(t, db.First(&after, beer.ID).Error)
	assert.Equal(t, 50, after.Stock)

	var table models.Table
	require.NoError(t, db.First(&table, 1).Error)
	assert.Equal(t, models.TableAvailable, table.Status)
}

func TestCreateOrderMergesDuplicateProductEntries(t *testing.T) {
	db := setupOrderTestDB(t)
	attendant, beer, _ := seedCatalog(t, db)
	svc := NewOrderService(db, &fakeDispatcher{})

	order, err := svc.CreateOrder(1, []ItemRequest{
		{ItemID: beer.ID, Quantity: 2},
		{ItemID: beer.ID, Quantity: 3},
	}, &attendant)
	require.NoError(t, err)

	// One merged line, one summed decrement.
	require.Len(t, order.Items, 1)
	assert.Equal(t, 5, order.Items[0].Quantity)
	assert.Equal(t, 5*500.0, order.TotalPrice)

	var after models.Item
	require.NoError(t, db.First(&after, beer.ID).Error)
	assert.Equal(t, 45, after.Stock)

	// The activity ledger nets to the same value.
	var entries []models.ItemActivity
	require.NoError(t, db.Where("item_id = ? AND action = ?", beer.ID, models.ActivitySold).
		Find(&entries).Error)
	sold := 0
	for _, e := range entries {
		sold += e.Quantity
	}
	assert.Equal(t, 50-after.Stock, sold)
}

func TestCreateOrderDuplicateEntriesExceedingStockFails(t *testing.T) {
	db := setupOrderTestDB(t)
	attendant, beer, _ := seedCatalog(t, db)
	svc := NewOrderService(db, &fakeDispatcher{})

	// 30+30 exceeds the 50 in stock even though each entry alone fits.
	_, err := svc.CreateOrder(1, []ItemRequest{
		{ItemID: beer.ID, Quantity: 30},
		{ItemID: beer.ID, Quantity: 30},
	}, &attendant)
	require.Error(t, err)
	var verr *apperr.ValidationError
	assert.True(t, errors.As(err, &verr))

	var after models.Item
	require.NoError(t, db.First(&after, beer.ID).Error)
	assert.Equal(t, 50, after.Stock)
}

func TestAddItemsDispatchesOnlyNewLines(t *testing.T) {
	db := setupOrderTestDB(t)
	attendant, beer, brochette := seedCatalog(t, db)
	disp := &fakeDispatcher{}
	svc := NewOrderService(db, disp)

	order, err := svc.CreateOrder(1, []ItemRequest{{ItemID: beer.ID, Quantity: 2}}, &attendant)
	require.NoError(t, err)

	updated, err := svc.AddItems(order.ID, []ItemRequest{{ItemID: brochette.ID, Quantity: 1}}, &attendant)
	require.NoError(t, err)
	assert.Equal(t, 2*500.0+1500.0, updated.TotalPrice)

	require.Len(t, disp.jobs, 2)
	addition := disp.lastJob()
	assert.Equal(t, printing.KindAddition, addition.Kind)
	require.Len(t, addition.Lines, 1)
	assert.Equal(t, brochette.ID, addition.Lines[0].ItemID)
}

func TestRemoveItemsOverRemovalFails(t *testing.T) {
	db := setupOrderTestDB(t)
	attendant, beer, _ := seedCatalog(t, db)
	svc := NewOrderService(db, &fakeDispatcher{})

	order, err := svc.CreateOrder(1, []ItemRequest{{ItemID: beer.ID, Quantity: 2}}, &attendant)
	require.NoError(t, err)

	_, _, err = svc.RemoveItems(order.ID, []RemovalRequest{{ItemID: beer.ID, Quantity: 3}}, &attendant)
	require.Error(t, err)
	var verr *apperr.ValidationError
	assert.True(t, errors.As(err, &verr))

	// Nothing changed.
	var after models.Order
	require.NoError(t, db.First(&after, order.ID).Error)
	assert.Equal(t, 1000.0, after.TotalPrice)
}

func TestRemoveItemsRestocksAndRecomputesTotal(t *testing.T) {
	db := setupOrderTestDB(t)
	attendant, beer, brochette := seedCatalog(t, db)
	disp := &fakeDispatcher{}
	svc := NewOrderService(db, disp)

	order, err := svc.CreateOrder(1, []ItemRequest{
		{ItemID: beer.ID, Quantity: 4},
		{ItemID: brochette.ID, Quantity: 2},
	}, &attendant)
	require.NoError(t, err)

	updated, deleted, err := svc.RemoveItems(order.ID,
		[]RemovalRequest{{ItemID: beer.ID, Quantity: 3}}, &attendant)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, 500.0+2*1500.0, updated.TotalPrice)

	var after models.Item
	require.NoError(t, db.First(&after, beer.ID).Error)
	assert.Equal(t, 49, after.Stock)

	var removed []models.RemovedItem
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&removed).Error)
	require.Len(t, removed, 1)
	assert.Equal(t, 3, removed[0].Quantity)

	// The cancellation ticket only carries the removed quantity.
	cancel := disp.lastJob()
	assert.Equal(t, printing.KindRemoval, cancel.Kind)
	require.Len(t, cancel.Lines, 1)
	assert.Equal(t, 3, cancel.Lines[0].Quantity)
}

func TestRemovingEverythingDeletesOrderAndFreesTable(t *testing.T) {
	db := setupOrderTestDB(t)
	attendant, beer, _ := seedCatalog(t, db)
	svc := NewOrderService(db, &fakeDispatcher{})

	order, err := svc.CreateOrder(1, []ItemRequest{{ItemID: beer.ID, Quantity: 2}}, &attendant)
	require.NoError(t, err)

	_, deleted, err := svc.RemoveItems(order.ID,
		[]RemovalRequest{{ItemID: beer.ID, Quantity: 2}}, &attendant)
	require.NoError(t, err)
	assert.True(t, deleted)

	var count int64
	db.Model(&models.Order{}).Where("id = ?", order.ID).Count(&count)
	assert.Zero(t, count)

	var table models.Table
	require.NoError(t, db.First(&table, 1).Error)
	assert.Equal(t, models.TableAvailable, table.Status)
	assert.Nil(t, table.OrderID)

	var after models.Item
	require.NoError(t, db.First(&after, beer.ID).Error)
	assert.Equal(t, 50, after.Stock)
}

func TestApplyDiscountCompounds(t *testing.T) {
	db := setupOrderTestDB(t)
	attendant, beer, _ := seedCatalog(t, db)
	svc := NewOrderService(db, &fakeDispatcher{})

	order, err := svc.CreateOrder(1, []ItemRequest{{ItemID: beer.ID, Quantity: 2}}, &attendant)
	require.NoError(t, err)
	require.Equal(t, 1000.0, order.TotalPrice)

	order, err = svc.ApplyDiscount(order.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, 800.0, order.TotalPrice)

	order, err = svc.ApplyDiscount(order.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, 400.0, order.TotalPrice)

	_, err = svc.ApplyDiscount(order.ID, 33)
	require.Error(t, err)
	var verr *apperr.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestFacturePrintLimitPerRole(t *testing.T) {
	db := setupOrderTestDB(t)
	attendant, beer, _ := seedCatalog(t, db)
	disp := &fakeDispatcher{}
	svc := NewOrderService(db, disp)

	order, err := svc.CreateOrder(1, []ItemRequest{{ItemID: beer.ID, Quantity: 2}}, &attendant)
	require.NoError(t, err)

	// Attendants get one facture print.
	order, err = svc.Facture(order.ID, &attendant)
	require.NoError(t, err)
	assert.Equal(t, models.OrderBillPrinted, order.Status)
	assert.Equal(t, printing.KindInvoice, disp.lastJob().Kind)
	assert.NotEmpty(t, disp.lastJob().InvoiceNumber)

	_, err = svc.Facture(order.ID, &attendant)
	require.Error(t, err)
	var perr *apperr.PermissionError
	assert.True(t, errors.As(err, &perr))

	// The counter stayed at the ceiling.
	var user models.User
	require.NoError(t, db.First(&user, attendant.ID).Error)
	assert.Equal(t, 1, user.BillPrintCount)
}

func TestPayRejectsInsufficientAmount(t *testing.T) {
	db := setupOrderTestDB(t)
	attendant, beer, _ := seedCatalog(t, db)
	svc := NewOrderService(db, &fakeDispatcher{})

	order, err := svc.CreateOrder(1, []ItemRequest{{ItemID: beer.ID, Quantity: 2}}, &attendant)
	require.NoError(t, err)

	_, err = svc.Pay(order.ID, models.PaymentCash, 999, &attendant)
	require.Error(t, err)
	var verr *apperr.ValidationError
	assert.True(t, errors.As(err, &verr))

	// The order survived the failed payment.
	var count int64
	db.Model(&models.Order{}).Where("id = ?", order.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestPayClosesOrderAndSnapshotsBill(t *testing.T) {
	db := setupOrderTestDB(t)
	attendant, beer, brochette := seedCatalog(t, db)
	disp := &fakeDispatcher{}
	svc := NewOrderService(db, disp)

	order, err := svc.CreateOrder(1, []ItemRequest{
		{ItemID: beer.ID, Quantity: 2},
		{ItemID: brochette.ID, Quantity: 1},
	}, &attendant)
	require.NoError(t, err)
	require.Equal(t, 2500.0, order.TotalPrice)

	bill, err := svc.Pay(order.ID, models.PaymentCash, 3000, &attendant)
	require.NoError(t, err)

	assert.Equal(t, order.ID, bill.OrderRef)
	assert.Equal(t, 2500.0, bill.TotalPrice)
	assert.Equal(t, 500.0, bill.Change)
	assert.Regexp(t, `^\d{8}-\d{4}$`, bill.InvoiceNumber)
	require.Len(t, bill.Items, 2)

	// Order and lines are gone, the bill is the only remaining record.
	var count int64
	db.Model(&models.Order{}).Where("id = ?", order.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Count(&count)
	assert.Zero(t, count)

	var table models.Table
	require.NoError(t, db.First(&table, 1).Error)
	assert.Equal(t, models.TableAvailable, table.Status)

	receipt := disp.lastJob()
	assert.Equal(t, printing.KindReceipt, receipt.Kind)
	require.NotNil(t, receipt.Payment)
	assert.Equal(t, 500.0, receipt.Payment.Change)
}

func TestPayExactAmountZeroChange(t *testing.T) {
	db := setupOrderTestDB(t)
	attendant, beer, _ := seedCatalog(t, db)
	svc := NewOrderService(db, &fakeDispatcher{})

	order, err := svc.CreateOrder(1, []ItemRequest{{ItemID: beer.ID, Quantity: 2}}, &attendant)
	require.NoError(t, err)

	bill, err := svc.Pay(order.ID, models.PaymentMobileMoney, 1000, &attendant)
	require.NoError(t, err)
	assert.Zero(t, bill.Change)
}

func TestPayRejectsUnknownMethod(t *testing.T) {
	db := setupOrderTestDB(t)
	attendant, beer, _ := seedCatalog(t, db)
	svc := NewOrderService(db, &fakeDispatcher{})

	order, err := svc.CreateOrder(1, []ItemRequest{{ItemID: beer.ID, Quantity: 1}}, &attendant)
	require.NoError(t, err)

	_, err = svc.Pay(order.ID, "cheque", 9999, &attendant)
	require.Error(t, err)
	var verr *apperr.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestPartialPrinterFailureLeavesLinesUnprinted(t *testing.T) {
	db := setupOrderTestDB(t)
	attendant, beer, brochette := seedCatalog(t, db)

	// The kitchen printer is down; the bar still confirms.
	disp := &fakeDispatcher{failStores: map[uint]bool{brochette.StoreID: true}}
	svc := NewOrderService(db, disp)

	order, err := svc.CreateOrder(1, []ItemRequest{
		{ItemID: beer.ID, Quantity: 1},
		{ItemID: brochette.ID, Quantity: 1},
	}, &attendant)
	require.NoError(t, err)

	var lines []models.OrderItem
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&lines).Error)
	require.Len(t, lines, 2)
	for _, l := range lines {
		if l.ItemID == beer.ID {
			assert.True(t, l.Printed)
		} else {
			assert.False(t, l.Printed)
		}
	}
}

func TestOrderByTable(t *testing.T) {
	db := setupOrderTestDB(t)
	attendant, beer, _ := seedCatalog(t, db)
	svc := NewOrderService(db, &fakeDispatcher{})

	order, err := svc.CreateOrder(1, []ItemRequest{{ItemID: beer.ID, Quantity: 1}}, &attendant)
	require.NoError(t, err)

	found, err := svc.OrderByTable(1)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	_, err = svc.OrderByTable(2)
	require.Error(t, err)
	var nferr *apperr.NotFoundError
	assert.True(t, errors.As(err, &nferr))
}
