package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/officina/distinta/internal/metrics"
	"github.com/officina/distinta/internal/repository"
	"github.com/redis/go-redis/v9"
)

const rollupCacheTTL = 5 * time.Minute

// CostingService rolls up BOM costs by macro-zone and simulates production
// runs. Pure reads; the redis cache is best-effort and a nil client just
// means every call recomputes.
type CostingService struct {
	bomRepo       *repository.BOMRepository
	componentRepo *repository.ComponentRepository
	rdb           *redis.Client
}

func NewCostingService(bomRepo *repository.BOMRepository, componentRepo *repository.ComponentRepository, rdb *redis.Client) *CostingService {
	return &CostingService{
		bomRepo:       bomRepo,
		componentRepo: componentRepo,
		rdb:           rdb,
	}
}

// CategoryCost cost and incidence of one macro-zone within a BOM.
type CategoryCost struct {
	Category     string  `json:"category"`
	Cost         float64 `json:"cost"`
	IncidencePct float64 `json:"incidence_pct"`
}

// CostSummary BOM-level rollup.
type CostSummary struct {
	BOMID      string         `json:"bom_id"`
	BOMCode    string         `json:"bom_code"`
	TotalCost  float64        `json:"total_cost"`
	Categories []CategoryCost `json:"categories"`
}

// Rollup computes the BOM's total cost and per-category incidence.
// Categories appear in first-component order. Incidence is 0 for every
// category when the total is 0.
func (s *CostingService) Rollup(ctx context.Context, bomID string) (*CostSummary, error) {
	if cached := s.cachedRollup(ctx, bomID); cached != nil {
		metrics.RollupCacheHits.Inc()
		return cached, nil
	}

	bom, err := s.bomRepo.GetByID(bomID)
	if err != nil {
		return nil, fmt.Errorf("bom not found: %w", err)
	}

	components, err := s.componentRepo.ListByBOM(bomID)
	if err != nil {
		return nil, fmt.Errorf("list components: %w", err)
	}

	var total float64
	byCategory := make(map[string]float64)
	var order []string
	for _, c := range components {
		cost := c.Quantity * c.UnitCost
		total += cost
		if _, seen := byCategory[c.Category]; !seen {
			order = append(order, c.Category)
		}
		byCategory[c.Category] += cost
	}

	summary := &CostSummary{
		BOMID:     bom.ID,
		BOMCode:   bom.Code,
		TotalCost: round2(total),
	}
	for _, category := range order {
		cost := byCategory[category]
		incidence := 0.0
		if total != 0 {
			incidence = round1(cost / total * 100)
		}
		summary.Categories = append(summary.Categories, CategoryCost{
			Category:     category,
			Cost:         round2(cost),
			IncidencePct: incidence,
		})
	}

	s.storeRollup(ctx, bomID, summary)
	return summary, nil
}

// SimulationLine projected quantities and cost for one component.
type SimulationLine struct {
	ComponentName string  `json:"component_name"`
	QuantityPer   float64 `json:"quantity_per"`
	QuantityTotal float64 `json:"quantity_total"`
	UnitCost      float64 `json:"unit_cost"`
	LineCost      float64 `json:"line_cost"`
}

// SimulationResult projected cost of producing Quantity assemblies.
type SimulationResult struct {
	BOMID     string           `json:"bom_id"`
	BOMCode   string           `json:"bom_code"`
	Quantity  int              `json:"quantity"`
	Lines     []SimulationLine `json:"lines"`
	TotalCost float64          `json:"total_cost"`
}

// Simulate projects component quantities and cost for a production run of
// qty assemblies. Side-effect free.
func (s *CostingService) Simulate(ctx context.Context, bomID string, qty int) (*SimulationResult, error) {
	bom, err := s.bomRepo.GetByID(bomID)
	if err != nil {
		return nil, fmt.Errorf("bom not found: %w", err)
	}

	components, err := s.componentRepo.ListByBOM(bomID)
	if err != nil {
		return nil, fmt.Errorf("list components: %w", err)
	}

	result := &SimulationResult{
		BOMID:    bom.ID,
		BOMCode:  bom.Code,
		Quantity: qty,
	}
	var total float64
	for _, c := range components {
		qtyTotal := c.Quantity * float64(qty)
		lineCost := round2(c.UnitCost * qtyTotal)
		total += lineCost
		result.Lines = append(result.Lines, SimulationLine{
			ComponentName: c.Name,
			QuantityPer:   c.Quantity,
			QuantityTotal: qtyTotal,
			UnitCost:      c.UnitCost,
			LineCost:      lineCost,
		})
	}
	result.TotalCost = round2(total)
	return result, nil
}

// InvalidateRollup drops the cached rollup for a BOM. Called after any
// component mutation.
func (s *CostingService) InvalidateRollup(ctx context.Context, bomID string) {
	if s.rdb == nil {
		return
	}
	s.rdb.Del(ctx, rollupCacheKey(bomID))
}

func (s *CostingService) cachedRollup(ctx context.Context, bomID string) *CostSummary {
	if s.rdb == nil {
		return nil
	}
	raw, err := s.rdb.Get(ctx, rollupCacheKey(bomID)).Bytes()
	if err != nil {
		return nil
	}
	var summary CostSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil
	}
	return &summary
}

func (s *CostingService) storeRollup(ctx context.Context, bomID string, summary *CostSummary) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}
	s.rdb.Set(ctx, rollupCacheKey(bomID), raw, rollupCacheTTL)
}

func rollupCacheKey(bomID string) string {
	return "distinta:rollup:" + bomID
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
