package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/officina/distinta/internal/entity"
	"github.com/officina/distinta/internal/repository"
	"github.com/officina/distinta/internal/testutil"
	"gorm.io/gorm"
)

func setupOrderTest(t *testing.T) (*gorm.DB, *repository.Repositories, *OrderService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewOrderService(repos.Order, repos.BOM, repos.Component, repos.Price, repos.Supplier, db)
	return db, repos, svc
}

func seedSupplier(t *testing.T, db *gorm.DB, name string) *entity.Supplier {
	t.Helper()
	s := &entity.Supplier{ID: uuid.New().String(), Name: name, Email: name + "@example.com"}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("Failed to seed supplier: %v", err)
	}
	return s
}

func seedPrice(t *testing.T, db *gorm.DB, componentID, supplierID string, price float64) {
	t.Helper()
	p := &entity.SupplierPrice{ID: uuid.New().String(), ComponentID: componentID, SupplierID: supplierID, Price: price}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("Failed to seed price: %v", err)
	}
}

func TestGenerateConsolidatesBySupplier(t *testing.T) {
	db, _, svc := setupOrderTest(t)
	bom := seedBOM(t, db, "DST-010")

	base := time.Now().Add(-time.Hour)
	c1 := seedComponent(t, db, bom.ID, "Telaio", "Montante", 2, 10, base)
	c2 := seedComponent(t, db, bom.ID, "Telaio", "Traversa", 1.5, 5, base.Add(time.Second))
	c3 := seedComponent(t, db, bom.ID, "Vetri", "Pannello", 3, 2, base.Add(2*time.Second))

	supA := seedSupplier(t, db, "Metalmeccanica A")
	supB := seedSupplier(t, db, "Vetreria B")

	// supplier A is cheapest for the two frame parts, B for the glass
	seedPrice(t, db, c1.ID, supA.ID, 4.00)
	seedPrice(t, db, c1.ID, supB.ID, 6.00)
	seedPrice(t, db, c2.ID, supA.ID, 1.50)
	seedPrice(t, db, c3.ID, supB.ID, 8.00)
	seedPrice(t, db, c3.ID, supA.ID, 9.00)

	result, err := svc.Generate(bom.ID, 10)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(result.Orders) != 2 {
		t.Fatalf("got %d orders, want 2 (one per supplier)", len(result.Orders))
	}
	if len(result.SkippedComponents) != 0 {
		t.Errorf("SkippedComponents = %v, want none", result.SkippedComponents)
	}

	byName := map[string]GeneratedOrder{}
	for _, o := range result.Orders {
		byName[o.SupplierName] = o
	}
	if byName["Metalmeccanica A"].LineCount != 2 {
		t.Errorf("supplier A line count = %d, want 2", byName["Metalmeccanica A"].LineCount)
	}
	if byName["Vetreria B"].LineCount != 1 {
		t.Errorf("supplier B line count = %d, want 1", byName["Vetreria B"].LineCount)
	}

	// quantities are per-unit usage times production qty, rounded up
	var lines []entity.OrderLine
	if err := db.Where("order_id = ?", byName["Metalmeccanica A"].OrderID).Order("created_at ASC").Find(&lines).Error; err != nil {
		t.Fatalf("load lines: %v", err)
	}
	want := map[string]int{c1.ID: 20, c2.ID: 15}
	for _, l := range lines {
		if want[l.ComponentID] != l.Quantity {
			t.Errorf("component %s quantity = %d, want %d", l.ComponentID, l.Quantity, want[l.ComponentID])
		}
		if l.ConfirmedDate != nil || l.DeliveredDate != nil {
			t.Errorf("new line must start unconfirmed and undelivered")
		}
	}

	for _, o := range result.Orders {
		if !strings.HasPrefix(o.OrderNumber, "ORD-") {
			t.Errorf("order number %q missing ORD- prefix", o.OrderNumber)
		}
		order, err := svc.GetByID(o.OrderID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if order.Reference != "OC-"+bom.ID[:8] {
			t.Errorf("reference = %q, want OC-%s", order.Reference, bom.ID[:8])
		}
	}
}

func TestGenerateSkipsUnpricedComponents(t *testing.T) {
	db, _, svc := setupOrderTest(t)
	bom := seedBOM(t, db, "DST-011")

	base := time.Now().Add(-time.Hour)
	priced := seedComponent(t, db, bom.ID, "Telaio", "Montante", 1, 10, base)
	seedComponent(t, db, bom.ID, "Vetri", "Pannello", 1, 2, base.Add(time.Second))

	sup := seedSupplier(t, db, "Metalmeccanica A")
	seedPrice(t, db, priced.ID, sup.ID, 4.00)

	result, err := svc.Generate(bom.ID, 5)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(result.Orders) != 1 {
		t.Fatalf("got %d orders, want 1", len(result.Orders))
	}
	if len(result.SkippedComponents) != 1 || result.SkippedComponents[0] != "Pannello" {
		t.Errorf("SkippedComponents = %v, want [Pannello]", result.SkippedComponents)
	}

	var count int64
	db.Model(&entity.OrderLine{}).Count(&count)
	if count != 1 {
		t.Errorf("got %d order lines, want 1 (skipped component must not produce a line)", count)
	}
}

func TestGenerateChoosesCheapestSupplier(t *testing.T) {
	db, _, svc := setupOrderTest(t)
	bom := seedBOM(t, db, "DST-012")

	c := seedComponent(t, db, bom.ID, "Telaio", "Montante", 1, 10, time.Now().Add(-time.Hour))
	expensive := seedSupplier(t, db, "Cara SRL")
	cheap := seedSupplier(t, db, "Conveniente SRL")
	seedPrice(t, db, c.ID, expensive.ID, 5.00)
	seedPrice(t, db, c.ID, cheap.ID, 3.00)

	result, err := svc.Generate(bom.ID, 1)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(result.Orders) != 1 {
		t.Fatalf("got %d orders, want 1", len(result.Orders))
	}
	if result.Orders[0].SupplierID != cheap.ID {
		t.Errorf("order assigned to %s, want cheapest supplier %s", result.Orders[0].SupplierName, cheap.Name)
	}
}

// A failure partway through a run must leave no orders behind: the second
// component's cheapest price points at a supplier row that does not exist,
// which fails after the first supplier's order was already created inside
// the transaction.
func TestGenerateRollsBackWholeRun(t *testing.T) {
	db, _, svc := setupOrderTest(t)
	bom := seedBOM(t, db, "DST-022")

	base := time.Now().Add(-time.Hour)
	c1 := seedComponent(t, db, bom.ID, "Telaio", "Montante", 1, 10, base)
	c2 := seedComponent(t, db, bom.ID, "Vetri", "Pannello", 1, 2, base.Add(time.Second))

	sup := seedSupplier(t, db, "Metalmeccanica A")
	seedPrice(t, db, c1.ID, sup.ID, 4.00)
	seedPrice(t, db, c2.ID, uuid.New().String(), 1.00) // dangling supplier id

	_, err := svc.Generate(bom.ID, 3)
	if err == nil {
		t.Fatal("Generate should fail when a price row references a missing supplier")
	}
	// an inconsistent price row is not a caller-facing not-found
	if errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("err = %v, should not classify as record-not-found", err)
	}

	var orderCount, lineCount int64
	db.Model(&entity.PurchaseOrder{}).Count(&orderCount)
	db.Model(&entity.OrderLine{}).Count(&lineCount)
	if orderCount != 0 || lineCount != 0 {
		t.Errorf("got %d orders and %d lines after rollback, want 0 and 0", orderCount, lineCount)
	}
}

// Order dates must be midnight of the local calendar day, not UTC midnight,
// which shifts to the previous day for positive offsets.
func TestDateOnlyUsesLocalCalendarDay(t *testing.T) {
	cet := time.FixedZone("CET", 3600)
	at := time.Date(2026, time.January, 1, 0, 30, 0, 0, cet)

	got := dateOnly(at)
	want := time.Date(2026, time.January, 1, 0, 0, 0, 0, cet)
	if !got.Equal(want) {
		t.Errorf("dateOnly() = %v, want %v", got, want)
	}
	if got.Day() != 1 || got.Month() != time.January {
		t.Errorf("dateOnly() landed on %v, want January 1", got)
	}
}

func TestGenerateRejectsNonPositiveQty(t *testing.T) {
	_, _, svc := setupOrderTest(t)
	if _, err := svc.Generate(uuid.New().String(), 0); err == nil {
		t.Error("Generate(qty=0) should fail")
	}
}

func TestGenerateBOMNotFound(t *testing.T) {
	_, _, svc := setupOrderTest(t)
	_, err := svc.Generate(uuid.New().String(), 1)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestCreateManualUpsertsPrice(t *testing.T) {
	db, repos, svc := setupOrderTest(t)
	bom := seedBOM(t, db, "DST-013")
	c := seedComponent(t, db, bom.ID, "Telaio", "Montante", 1, 10, time.Now().Add(-time.Hour))
	sup := seedSupplier(t, db, "Metalmeccanica A")

	order, err := svc.CreateManual(CreateManualOrderRequest{
		SupplierID: sup.ID,
		Reference:  "commessa 42",
		Lines: []ManualOrderLine{
			{ComponentID: c.ID, Quantity: 8, Price: 12.50},
			{ComponentID: "", Quantity: 3, Price: 1},   // no component, skipped
			{ComponentID: c.ID, Quantity: 0, Price: 1}, // no quantity, skipped
		},
	})
	if err != nil {
		t.Fatalf("CreateManual failed: %v", err)
	}
	if len(order.Lines) != 1 {
		t.Fatalf("got %d lines, want 1 (invalid lines skipped)", len(order.Lines))
	}
	if order.Lines[0].Quantity != 8 {
		t.Errorf("line quantity = %d, want 8", order.Lines[0].Quantity)
	}

	// the manual entry seeds the price store used by the consolidation engine
	price, err := repos.Price.GetCheapest(c.ID)
	if err != nil {
		t.Fatalf("GetCheapest failed: %v", err)
	}
	if price.SupplierID != sup.ID || price.Price != 12.50 {
		t.Errorf("recorded price = %+v, want supplier %s at 12.50", price, sup.ID)
	}
}

func TestCreateManualReplacesExistingPrice(t *testing.T) {
	db, repos, svc := setupOrderTest(t)
	bom := seedBOM(t, db, "DST-014")
	c := seedComponent(t, db, bom.ID, "Telaio", "Montante", 1, 10, time.Now().Add(-time.Hour))
	sup := seedSupplier(t, db, "Metalmeccanica A")
	seedPrice(t, db, c.ID, sup.ID, 20.00)

	_, err := svc.CreateManual(CreateManualOrderRequest{
		SupplierID: sup.ID,
		Lines:      []ManualOrderLine{{ComponentID: c.ID, Quantity: 1, Price: 15.00}},
	})
	if err != nil {
		t.Fatalf("CreateManual failed: %v", err)
	}

	price, err := repos.Price.GetForPair(c.ID, sup.ID)
	if err != nil {
		t.Fatalf("GetForPair failed: %v", err)
	}
	if price.Price != 15.00 {
		t.Errorf("price = %v, want 15.00 (replaced, not duplicated)", price.Price)
	}

	var count int64
	db.Model(&entity.SupplierPrice{}).Where("component_id = ?", c.ID).Count(&count)
	if count != 1 {
		t.Errorf("got %d price rows, want 1", count)
	}
}

func TestCreateManualInlineSupplier(t *testing.T) {
	db, repos, svc := setupOrderTest(t)
	bom := seedBOM(t, db, "DST-015")
	c := seedComponent(t, db, bom.ID, "Telaio", "Montante", 1, 10, time.Now().Add(-time.Hour))

	order, err := svc.CreateManual(CreateManualOrderRequest{
		NewSupplier: &CreateSupplierRequest{Name: "Nuovo Fornitore", Email: "nuovo@example.com"},
		Lines:       []ManualOrderLine{{ComponentID: c.ID, Quantity: 2, Price: 3.00}},
	})
	if err != nil {
		t.Fatalf("CreateManual failed: %v", err)
	}
	if order.Supplier == nil || order.Supplier.Name != "Nuovo Fornitore" {
		t.Fatalf("order supplier = %+v, want inline-created Nuovo Fornitore", order.Supplier)
	}
	if _, err := repos.Supplier.GetByID(order.SupplierID); err != nil {
		t.Errorf("inline supplier not persisted: %v", err)
	}
}

func TestCreateManualRequiresSupplier(t *testing.T) {
	_, _, svc := setupOrderTest(t)
	_, err := svc.CreateManual(CreateManualOrderRequest{
		Lines: []ManualOrderLine{{ComponentID: uuid.New().String(), Quantity: 1, Price: 1}},
	})
	if err == nil {
		t.Error("CreateManual without supplier should fail")
	}
}

func TestStatusLifecycle(t *testing.T) {
	db, _, svc := setupOrderTest(t)
	bom := seedBOM(t, db, "DST-016")
	c := seedComponent(t, db, bom.ID, "Telaio", "Montante", 1, 10, time.Now().Add(-time.Hour))
	sup := seedSupplier(t, db, "Metalmeccanica A")

	order, err := svc.CreateManual(CreateManualOrderRequest{
		SupplierID: sup.ID,
		Lines:      []ManualOrderLine{{ComponentID: c.ID, Quantity: 4, Price: 2.00}},
	})
	if err != nil {
		t.Fatalf("CreateManual failed: %v", err)
	}

	status, err := svc.Status(order.ID)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status != entity.OrderStatusPending {
		t.Errorf("status = %q, want PENDING", status)
	}

	lineID := order.Lines[0].ID
	if err := svc.Update(order.ID, UpdateOrderRequest{
		Lines: []UpdateOrderLineRequest{{ID: lineID, Quantity: 4, ConfirmedDate: "2026-09-01"}},
	}); err != nil {
		t.Fatalf("Update (confirm) failed: %v", err)
	}
	if status, _ = svc.Status(order.ID); status != entity.OrderStatusConfirmed {
		t.Errorf("status = %q, want CONFIRMED", status)
	}

	if err := svc.Update(order.ID, UpdateOrderRequest{
		Lines: []UpdateOrderLineRequest{{ID: lineID, Quantity: 4, ConfirmedDate: "2026-09-01", DeliveredDate: "2026-09-10"}},
	}); err != nil {
		t.Fatalf("Update (deliver) failed: %v", err)
	}
	if status, _ = svc.Status(order.ID); status != entity.OrderStatusDelivered {
		t.Errorf("status = %q, want DELIVERED", status)
	}

	// clearing the dates drops the order back to pending
	if err := svc.Update(order.ID, UpdateOrderRequest{
		Lines: []UpdateOrderLineRequest{{ID: lineID, Quantity: 4}},
	}); err != nil {
		t.Fatalf("Update (clear dates) failed: %v", err)
	}
	if status, _ = svc.Status(order.ID); status != entity.OrderStatusPending {
		t.Errorf("status = %q, want PENDING after clearing dates", status)
	}
}

func TestSummaryTotals(t *testing.T) {
	db, _, svc := setupOrderTest(t)
	bom := seedBOM(t, db, "DST-017")
	base := time.Now().Add(-time.Hour)
	c1 := seedComponent(t, db, bom.ID, "Telaio", "Montante", 1, 10, base)
	c2 := seedComponent(t, db, bom.ID, "Vetri", "Pannello", 1, 2, base.Add(time.Second))
	sup := seedSupplier(t, db, "Metalmeccanica A")

	order, err := svc.CreateManual(CreateManualOrderRequest{
		SupplierID: sup.ID,
		Lines: []ManualOrderLine{
			{ComponentID: c1.ID, Quantity: 3, Price: 2.50},
			{ComponentID: c2.ID, Quantity: 2, Price: 1.25},
		},
	})
	if err != nil {
		t.Fatalf("CreateManual failed: %v", err)
	}

	summary, err := svc.Summary(order.ID)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.SupplierName != "Metalmeccanica A" {
		t.Errorf("SupplierName = %q", summary.SupplierName)
	}
	if len(summary.Lines) != 2 {
		t.Fatalf("got %d summary lines, want 2", len(summary.Lines))
	}
	if summary.Total != 10.00 { // 3*2.50 + 2*1.25
		t.Errorf("Total = %v, want 10.00", summary.Total)
	}
}

func TestSummaryUnpricedLineCountsZero(t *testing.T) {
	db, _, svc := setupOrderTest(t)
	bom := seedBOM(t, db, "DST-018")
	c := seedComponent(t, db, bom.ID, "Telaio", "Montante", 1, 10, time.Now().Add(-time.Hour))
	sup := seedSupplier(t, db, "Metalmeccanica A")

	order, err := svc.CreateManual(CreateManualOrderRequest{
		SupplierID: sup.ID,
		Lines:      []ManualOrderLine{{ComponentID: c.ID, Quantity: 5, Price: 2.00}},
	})
	if err != nil {
		t.Fatalf("CreateManual failed: %v", err)
	}

	// drop the price row: the summary must fall back to a zero unit price
	if err := db.Where("component_id = ?", c.ID).Delete(&entity.SupplierPrice{}).Error; err != nil {
		t.Fatalf("delete price: %v", err)
	}

	summary, err := svc.Summary(order.ID)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.Lines[0].UnitPrice != 0 || summary.Total != 0 {
		t.Errorf("unit price %v total %v, want both 0", summary.Lines[0].UnitPrice, summary.Total)
	}
}

func TestDeleteLineValidatesOwnership(t *testing.T) {
	db, _, svc := setupOrderTest(t)
	bom := seedBOM(t, db, "DST-019")
	c := seedComponent(t, db, bom.ID, "Telaio", "Montante", 1, 10, time.Now().Add(-time.Hour))
	sup := seedSupplier(t, db, "Metalmeccanica A")

	order, err := svc.CreateManual(CreateManualOrderRequest{
		SupplierID: sup.ID,
		Lines:      []ManualOrderLine{{ComponentID: c.ID, Quantity: 1, Price: 1.00}},
	})
	if err != nil {
		t.Fatalf("CreateManual failed: %v", err)
	}
	lineID := order.Lines[0].ID

	if err := svc.DeleteLine(uuid.New().String(), lineID); err == nil {
		t.Error("DeleteLine with mismatched order id should fail")
	}
	if err := svc.DeleteLine(order.ID, lineID); err != nil {
		t.Fatalf("DeleteLine failed: %v", err)
	}

	if status, _ := svc.Status(order.ID); status != entity.OrderStatusEmpty {
		t.Errorf("status after removing the only line = %q, want EMPTY", status)
	}
}

func TestDeleteOrderRemovesLines(t *testing.T) {
	db, _, svc := setupOrderTest(t)
	bom := seedBOM(t, db, "DST-020")
	c := seedComponent(t, db, bom.ID, "Telaio", "Montante", 1, 10, time.Now().Add(-time.Hour))
	sup := seedSupplier(t, db, "Metalmeccanica A")

	order, err := svc.CreateManual(CreateManualOrderRequest{
		SupplierID: sup.ID,
		Lines:      []ManualOrderLine{{ComponentID: c.ID, Quantity: 2, Price: 1.00}},
	})
	if err != nil {
		t.Fatalf("CreateManual failed: %v", err)
	}

	if err := svc.Delete(order.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.GetByID(order.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("order still readable after delete: %v", err)
	}
	var count int64
	db.Model(&entity.OrderLine{}).Where("order_id = ?", order.ID).Count(&count)
	if count != 0 {
		t.Errorf("got %d surviving lines, want 0", count)
	}
}

func TestListCarriesDerivedStatus(t *testing.T) {
	db, _, svc := setupOrderTest(t)
	bom := seedBOM(t, db, "DST-021")
	c := seedComponent(t, db, bom.ID, "Telaio", "Montante", 1, 10, time.Now().Add(-time.Hour))
	sup := seedSupplier(t, db, "Metalmeccanica A")

	if _, err := svc.CreateManual(CreateManualOrderRequest{
		SupplierID: sup.ID,
		Lines:      []ManualOrderLine{{ComponentID: c.ID, Quantity: 2, Price: 1.00}},
	}); err != nil {
		t.Fatalf("CreateManual failed: %v", err)
	}

	orders, err := svc.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("got %d orders, want 1", len(orders))
	}
	if orders[0].Status != entity.OrderStatusPending {
		t.Errorf("status = %q, want PENDING", orders[0].Status)
	}
}
