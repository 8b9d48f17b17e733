package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/officina/distinta/internal/entity"
	"github.com/officina/distinta/internal/repository"
	"github.com/officina/distinta/internal/testutil"
	"gorm.io/gorm"
)

func setupCostingTest(t *testing.T) (*gorm.DB, *repository.Repositories, *CostingService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewCostingService(repos.BOM, repos.Component, nil)
	return db, repos, svc
}

func seedBOM(t *testing.T, db *gorm.DB, code string) *entity.BOM {
	t.Helper()
	bom := &entity.BOM{ID: uuid.New().String(), Code: code, Description: "test"}
	if err := db.Create(bom).Error; err != nil {
		t.Fatalf("Failed to seed BOM: %v", err)
	}
	return bom
}

func seedComponent(t *testing.T, db *gorm.DB, bomID, category, name string, qty, cost float64, at time.Time) *entity.Component {
	t.Helper()
	c := &entity.Component{
		ID:        uuid.New().String(),
		BOMID:     bomID,
		Category:  category,
		Name:      name,
		Code:      entity.ComponentCode(category, name),
		Quantity:  qty,
		UnitCost:  cost,
		CreatedAt: at,
		UpdatedAt: at,
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("Failed to seed component: %v", err)
	}
	return c
}

func TestRollup(t *testing.T) {
	db, _, svc := setupCostingTest(t)
	bom := seedBOM(t, db, "DST-001")

	base := time.Now().Add(-time.Hour)
	seedComponent(t, db, bom.ID, "Telaio", "Montante", 2, 10, base)
	seedComponent(t, db, bom.ID, "Telaio", "Traversa", 1, 5, base.Add(time.Second))
	seedComponent(t, db, bom.ID, "Vetri", "Pannello", 4, 2.5, base.Add(2*time.Second))

	summary, err := svc.Rollup(context.Background(), bom.ID)
	if err != nil {
		t.Fatalf("Rollup failed: %v", err)
	}

	if summary.TotalCost != 35.00 {
		t.Errorf("TotalCost = %v, want 35.00", summary.TotalCost)
	}
	if len(summary.Categories) != 2 {
		t.Fatalf("got %d categories, want 2", len(summary.Categories))
	}
	telaio := summary.Categories[0]
	if telaio.Category != "Telaio" || telaio.Cost != 25.00 || telaio.IncidencePct != 71.4 {
		t.Errorf("Telaio = %+v, want cost 25.00 incidence 71.4", telaio)
	}
	vetri := summary.Categories[1]
	if vetri.Category != "Vetri" || vetri.Cost != 10.00 || vetri.IncidencePct != 28.6 {
		t.Errorf("Vetri = %+v, want cost 10.00 incidence 28.6", vetri)
	}

	var incidenceSum float64
	for _, c := range summary.Categories {
		incidenceSum += c.IncidencePct
	}
	if math.Abs(incidenceSum-100.0) > 0.05 {
		t.Errorf("incidence sum = %v, want ~100.0", incidenceSum)
	}
}

func TestRollupZeroTotal(t *testing.T) {
	db, _, svc := setupCostingTest(t)
	bom := seedBOM(t, db, "DST-002")

	base := time.Now().Add(-time.Hour)
	seedComponent(t, db, bom.ID, "Telaio", "Montante", 2, 0, base)
	seedComponent(t, db, bom.ID, "Vetri", "Pannello", 4, 0, base.Add(time.Second))

	summary, err := svc.Rollup(context.Background(), bom.ID)
	if err != nil {
		t.Fatalf("Rollup failed: %v", err)
	}
	if summary.TotalCost != 0 {
		t.Errorf("TotalCost = %v, want 0", summary.TotalCost)
	}
	for _, c := range summary.Categories {
		if c.IncidencePct != 0 {
			t.Errorf("category %s incidence = %v, want 0", c.Category, c.IncidencePct)
		}
	}
}

func TestRollupNotFound(t *testing.T) {
	_, _, svc := setupCostingTest(t)
	_, err := svc.Rollup(context.Background(), uuid.New().String())
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestSimulate(t *testing.T) {
	db, _, svc := setupCostingTest(t)
	bom := seedBOM(t, db, "DST-003")

	base := time.Now().Add(-time.Hour)
	seedComponent(t, db, bom.ID, "Telaio", "Montante", 2, 10, base)
	seedComponent(t, db, bom.ID, "Vetri", "Pannello", 1.5, 4, base.Add(time.Second))

	result, err := svc.Simulate(context.Background(), bom.ID, 10)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if result.Quantity != 10 {
		t.Errorf("Quantity = %d, want 10", result.Quantity)
	}
	if len(result.Lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(result.Lines))
	}

	first := result.Lines[0]
	if first.ComponentName != "Montante" || first.QuantityTotal != 20 || first.LineCost != 200.00 {
		t.Errorf("first line = %+v, want Montante qty_total 20 cost 200.00", first)
	}
	second := result.Lines[1]
	if second.QuantityTotal != 15 || second.LineCost != 60.00 {
		t.Errorf("second line = %+v, want qty_total 15 cost 60.00", second)
	}
	if result.TotalCost != 260.00 {
		t.Errorf("TotalCost = %v, want 260.00", result.TotalCost)
	}
}

// The simulator at quantity 1 must reproduce the rollup total.
func TestSimulateQtyOneMatchesRollup(t *testing.T) {
	db, _, svc := setupCostingTest(t)
	bom := seedBOM(t, db, "DST-004")

	base := time.Now().Add(-time.Hour)
	seedComponent(t, db, bom.ID, "Telaio", "Montante", 2, 10.50, base)
	seedComponent(t, db, bom.ID, "Telaio", "Traversa", 3, 1.25, base.Add(time.Second))
	seedComponent(t, db, bom.ID, "Vetri", "Pannello", 4, 2.50, base.Add(2*time.Second))

	summary, err := svc.Rollup(context.Background(), bom.ID)
	if err != nil {
		t.Fatalf("Rollup failed: %v", err)
	}
	result, err := svc.Simulate(context.Background(), bom.ID, 1)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if result.TotalCost != summary.TotalCost {
		t.Errorf("Simulate total %v != Rollup total %v", result.TotalCost, summary.TotalCost)
	}
}

func TestSimulateNotFound(t *testing.T) {
	_, _, svc := setupCostingTest(t)
	_, err := svc.Simulate(context.Background(), uuid.New().String(), 1)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("err = %v, want ErrRecordNotFound", err)
	}
}
