package service

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/officina/distinta/internal/entity"
	"github.com/officina/distinta/internal/metrics"
	"github.com/officina/distinta/internal/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderService creates consolidated supplier orders from a BOM, records
// manual orders, and tracks fulfillment status. Multi-row writes run inside
// a single transaction: an order header is never committed without its lines.
type OrderService struct {
	orderRepo     *repository.OrderRepository
	bomRepo       *repository.BOMRepository
	componentRepo *repository.ComponentRepository
	priceRepo     *repository.PriceRepository
	supplierRepo  *repository.SupplierRepository
	db            *gorm.DB
}

func NewOrderService(
	orderRepo *repository.OrderRepository,
	bomRepo *repository.BOMRepository,
	componentRepo *repository.ComponentRepository,
	priceRepo *repository.PriceRepository,
	supplierRepo *repository.SupplierRepository,
	db *gorm.DB,
) *OrderService {
	return &OrderService{
		orderRepo:     orderRepo,
		bomRepo:       bomRepo,
		componentRepo: componentRepo,
		priceRepo:     priceRepo,
		supplierRepo:  supplierRepo,
		db:            db,
	}
}

// GeneratedOrder one order emitted by a consolidation run.
type GeneratedOrder struct {
	OrderID      string `json:"order_id"`
	OrderNumber  string `json:"order_number"`
	SupplierID   string `json:"supplier_id"`
	SupplierName string `json:"supplier_name"`
	LineCount    int    `json:"line_count"`
}

// GenerateResult outcome of a consolidation run. SkippedComponents lists
// components excluded because no supplier has priced them.
type GenerateResult struct {
	BOMID             string           `json:"bom_id"`
	ProductionQty     int              `json:"production_qty"`
	Orders            []GeneratedOrder `json:"orders"`
	SkippedComponents []string         `json:"skipped_components"`
}

type pendingLine struct {
	componentID string
	quantity    int
}

// Generate consolidates the BOM's requirements for a production run into
// one purchase order per cheapest-known supplier. All headers and lines are
// written in one transaction; any store failure rolls back the whole run.
func (s *OrderService) Generate(bomID string, productionQty int) (*GenerateResult, error) {
	if productionQty <= 0 {
		return nil, fmt.Errorf("production quantity must be positive")
	}

	bom, err := s.bomRepo.GetByID(bomID)
	if err != nil {
		return nil, fmt.Errorf("bom not found: %w", err)
	}

	components, err := s.componentRepo.ListByBOM(bomID)
	if err != nil {
		return nil, fmt.Errorf("list components: %w", err)
	}

	result := &GenerateResult{BOMID: bom.ID, ProductionQty: productionQty}

	// Partition required quantities by cheapest supplier, preserving the
	// order suppliers are first seen in.
	bySupplier := make(map[string][]pendingLine)
	var supplierOrder []string
	for _, c := range components {
		qtyNeeded := int(math.Ceil(c.Quantity * float64(productionQty)))
		if qtyNeeded <= 0 {
			continue
		}
		cheapest, err := s.priceRepo.GetCheapest(c.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				result.SkippedComponents = append(result.SkippedComponents, c.Name)
				metrics.ComponentsSkipped.Inc()
				continue
			}
			return nil, fmt.Errorf("lookup cheapest supplier: %w", err)
		}
		if _, seen := bySupplier[cheapest.SupplierID]; !seen {
			supplierOrder = append(supplierOrder, cheapest.SupplierID)
		}
		bySupplier[cheapest.SupplierID] = append(bySupplier[cheapest.SupplierID], pendingLine{
			componentID: c.ID,
			quantity:    qtyNeeded,
		})
	}

	now := time.Now()
	orderDate := dateOnly(now)
	reference := fmt.Sprintf("OC-%s", shortID(bom.ID))

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, supplierID := range supplierOrder {
			pending := bySupplier[supplierID]

			// A price row pointing at a vanished supplier is a data
			// inconsistency, not a caller error.
			var supplier entity.Supplier
			if err := tx.Where("id = ? AND deleted_at IS NULL", supplierID).First(&supplier).Error; err != nil {
				return fmt.Errorf("supplier %s no longer exists", shortID(supplierID))
			}

			order := &entity.PurchaseOrder{
				ID:          uuid.New().String(),
				OrderNumber: generateOrderNumber(now, supplierID),
				SupplierID:  supplierID,
				OrderDate:   orderDate,
				Reference:   reference,
			}
			if err := tx.Create(order).Error; err != nil {
				return fmt.Errorf("create order header: %w", err)
			}

			lines := make([]entity.OrderLine, 0, len(pending))
			for _, p := range pending {
				lines = append(lines, entity.OrderLine{
					ID:            uuid.New().String(),
					OrderID:       order.ID,
					ComponentID:   p.componentID,
					Quantity:      p.quantity,
					RequestedDate: orderDate,
				})
			}
			if err := tx.Create(&lines).Error; err != nil {
				return fmt.Errorf("create order lines: %w", err)
			}

			result.Orders = append(result.Orders, GeneratedOrder{
				OrderID:      order.ID,
				OrderNumber:  order.OrderNumber,
				SupplierID:   supplierID,
				SupplierName: supplier.Name,
				LineCount:    len(lines),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, o := range result.Orders {
		metrics.OrdersGenerated.Inc()
		metrics.OrderLinesGenerated.Add(float64(o.LineCount))
	}
	return result, nil
}

// ManualOrderLine one requested line of a manual order.
type ManualOrderLine struct {
	ComponentID string  `json:"component_id"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price" binding:"gte=0"`
}

// CreateManualOrderRequest manual order entry. Either SupplierID references
// an existing supplier or NewSupplier is created inline.
type CreateManualOrderRequest struct {
	SupplierID  string                 `json:"supplier_id"`
	NewSupplier *CreateSupplierRequest `json:"new_supplier"`
	Reference   string                 `json:"reference"`
	Lines       []ManualOrderLine      `json:"lines" binding:"required"`
}

// CreateManual records a manually entered order. Lines with an empty
// component id or non-positive quantity are skipped. Every accepted line
// also upserts the supplier's price for that component, which is how
// prices enter the store for later automatic consolidation.
func (s *OrderService) CreateManual(req CreateManualOrderRequest) (*entity.PurchaseOrder, error) {
	now := time.Now()
	orderDate := dateOnly(now)

	var order *entity.PurchaseOrder
	err := s.db.Transaction(func(tx *gorm.DB) error {
		supplierID := req.SupplierID
		if supplierID == "" {
			if req.NewSupplier == nil || req.NewSupplier.Name == "" {
				return fmt.Errorf("supplier is required")
			}
			supplier := &entity.Supplier{
				ID:           uuid.New().String(),
				Name:         req.NewSupplier.Name,
				Address:      req.NewSupplier.Address,
				VATNumber:    req.NewSupplier.VATNumber,
				Email:        req.NewSupplier.Email,
				Phone:        req.NewSupplier.Phone,
				IBAN:         req.NewSupplier.IBAN,
				Capabilities: req.NewSupplier.Capabilities,
			}
			if err := tx.Create(supplier).Error; err != nil {
				return fmt.Errorf("create supplier: %w", err)
			}
			supplierID = supplier.ID
		} else {
			var supplier entity.Supplier
			if err := tx.Where("id = ? AND deleted_at IS NULL", supplierID).First(&supplier).Error; err != nil {
				return fmt.Errorf("supplier not found: %w", err)
			}
		}

		order = &entity.PurchaseOrder{
			ID:          uuid.New().String(),
			OrderNumber: fmt.Sprintf("ORD-%s%04d", now.Format("20060102150405"), now.UnixNano()%10000),
			SupplierID:  supplierID,
			OrderDate:   orderDate,
			Reference:   req.Reference,
		}
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("create order header: %w", err)
		}

		for _, l := range req.Lines {
			if l.ComponentID == "" || l.Quantity <= 0 {
				continue
			}
			line := &entity.OrderLine{
				ID:            uuid.New().String(),
				OrderID:       order.ID,
				ComponentID:   l.ComponentID,
				Quantity:      l.Quantity,
				RequestedDate: orderDate,
			}
			if err := tx.Create(line).Error; err != nil {
				return fmt.Errorf("create order line: %w", err)
			}
			price := &entity.SupplierPrice{
				ID:          uuid.New().String(),
				ComponentID: l.ComponentID,
				SupplierID:  supplierID,
				Price:       l.Price,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "component_id"}, {Name: "supplier_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"price", "updated_at"}),
			}).Create(price).Error; err != nil {
				return fmt.Errorf("upsert supplier price: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.orderRepo.GetByID(order.ID)
}

// Status derives the fulfillment indicator for an order from its lines
// with quantity > 0.
func (s *OrderService) Status(orderID string) (string, error) {
	if _, err := s.orderRepo.GetByID(orderID); err != nil {
		return "", fmt.Errorf("order not found: %w", err)
	}
	lines, err := s.orderRepo.QualifyingLines(orderID)
	if err != nil {
		return "", fmt.Errorf("list order lines: %w", err)
	}
	return entity.ClassifyLines(lines), nil
}

// OrderWithStatus list row: order header plus derived status.
type OrderWithStatus struct {
	entity.PurchaseOrder
	Status string `json:"status"`
}

// List returns all orders newest first, each with its derived status.
func (s *OrderService) List() ([]OrderWithStatus, error) {
	orders, err := s.orderRepo.List()
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	out := make([]OrderWithStatus, 0, len(orders))
	for _, o := range orders {
		status := o.Status()
		o.Lines = nil // the list view carries only the derived status
		out = append(out, OrderWithStatus{PurchaseOrder: o, Status: status})
	}
	return out, nil
}

func (s *OrderService) GetByID(orderID string) (*entity.PurchaseOrder, error) {
	return s.orderRepo.GetByID(orderID)
}

// SummaryLine printable order line with the supplier's recorded price.
type SummaryLine struct {
	ComponentName string     `json:"component_name"`
	Quantity      int        `json:"quantity"`
	RequestedDate time.Time  `json:"requested_date"`
	ConfirmedDate *time.Time `json:"confirmed_date"`
	DeliveredDate *time.Time `json:"delivered_date"`
	FileName      string     `json:"file_name"`
	UnitPrice     float64    `json:"unit_price"`
	LineTotal     float64    `json:"line_total"`
}

// OrderSummary printable order: header, supplier contact, priced lines and
// grand total.
type OrderSummary struct {
	OrderID       string        `json:"order_id"`
	OrderNumber   string        `json:"order_number"`
	SupplierName  string        `json:"supplier_name"`
	SupplierEmail string        `json:"supplier_email"`
	SupplierPhone string        `json:"supplier_phone"`
	OrderDate     time.Time     `json:"order_date"`
	Reference     string        `json:"reference"`
	Status        string        `json:"status"`
	Lines         []SummaryLine `json:"lines"`
	Total         float64       `json:"total"`
}

// Summary assembles the printable view of an order. A line's unit price is
// the order supplier's recorded price for the component, 0 when absent.
func (s *OrderService) Summary(orderID string) (*OrderSummary, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, fmt.Errorf("order not found: %w", err)
	}

	summary := &OrderSummary{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		OrderDate:   order.OrderDate,
		Reference:   order.Reference,
		Status:      order.Status(),
	}
	if order.Supplier != nil {
		summary.SupplierName = order.Supplier.Name
		summary.SupplierEmail = order.Supplier.Email
		summary.SupplierPhone = order.Supplier.Phone
	}

	var total float64
	for _, line := range order.Lines {
		if line.Quantity <= 0 {
			continue
		}
		var unitPrice float64
		if price, err := s.priceRepo.GetForPair(line.ComponentID, order.SupplierID); err == nil {
			unitPrice = price.Price
		}
		lineTotal := round2(unitPrice * float64(line.Quantity))
		total += lineTotal

		sl := SummaryLine{
			Quantity:      line.Quantity,
			RequestedDate: line.RequestedDate,
			ConfirmedDate: line.ConfirmedDate,
			DeliveredDate: line.DeliveredDate,
			UnitPrice:     unitPrice,
			LineTotal:     lineTotal,
		}
		if line.Component != nil {
			sl.ComponentName = line.Component.Name
			sl.FileName = line.Component.FileName
		}
		summary.Lines = append(summary.Lines, sl)
	}
	summary.Total = round2(total)
	return summary, nil
}

// UpdateOrderLineRequest bulk line replacement keyed by line id.
type UpdateOrderLineRequest struct {
	ID            string `json:"id" binding:"required"`
	Quantity      int    `json:"quantity"`
	RequestedDate string `json:"requested_date"` // YYYY-MM-DD
	ConfirmedDate string `json:"confirmed_date"` // empty clears the date
	DeliveredDate string `json:"delivered_date"`
}

// UpdateOrderRequest order edit: header fields plus bulk line replace.
type UpdateOrderRequest struct {
	OrderNumber string                   `json:"order_number"`
	Reference   string                   `json:"reference"`
	OrderDate   string                   `json:"order_date"` // YYYY-MM-DD
	Lines       []UpdateOrderLineRequest `json:"lines"`
}

// Update replaces the order header fields and each listed line's fields in
// one transaction.
func (s *OrderService) Update(orderID string, req UpdateOrderRequest) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return fmt.Errorf("order not found: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if req.OrderNumber != "" {
			order.OrderNumber = req.OrderNumber
		}
		order.Reference = req.Reference
		if req.OrderDate != "" {
			if t, err := time.Parse("2006-01-02", req.OrderDate); err == nil {
				order.OrderDate = t
			}
		}
		order.Supplier = nil
		order.Lines = nil
		if err := tx.Save(order).Error; err != nil {
			return fmt.Errorf("update order header: %w", err)
		}

		for _, lr := range req.Lines {
			var line entity.OrderLine
			if err := tx.Where("id = ? AND order_id = ?", lr.ID, orderID).First(&line).Error; err != nil {
				return fmt.Errorf("order line not found: %w", err)
			}
			line.Quantity = lr.Quantity
			line.RequestedDate = parseDateOr(lr.RequestedDate, line.RequestedDate)
			line.ConfirmedDate = parseOptionalDate(lr.ConfirmedDate)
			line.DeliveredDate = parseOptionalDate(lr.DeliveredDate)
			if err := tx.Save(&line).Error; err != nil {
				return fmt.Errorf("update order line: %w", err)
			}
		}
		return nil
	})
}

// DeleteLine removes one line from an order.
func (s *OrderService) DeleteLine(orderID, lineID string) error {
	line, err := s.orderRepo.GetLineByID(lineID)
	if err != nil {
		return fmt.Errorf("order line not found: %w", err)
	}
	if line.OrderID != orderID {
		return fmt.Errorf("order line does not belong to order")
	}
	return s.orderRepo.DeleteLine(lineID)
}

// Delete removes an order and all its lines in one transaction.
func (s *OrderService) Delete(orderID string) error {
	if _, err := s.orderRepo.GetByID(orderID); err != nil {
		return fmt.Errorf("order not found: %w", err)
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", orderID).Delete(&entity.OrderLine{}).Error; err != nil {
			return fmt.Errorf("delete order lines: %w", err)
		}
		if err := tx.Model(&entity.PurchaseOrder{}).
			Where("id = ?", orderID).Update("deleted_at", time.Now()).Error; err != nil {
			return fmt.Errorf("delete order: %w", err)
		}
		return nil
	})
}

func generateOrderNumber(now time.Time, supplierID string) string {
	return fmt.Sprintf("ORD-%s%04d-%s", now.Format("20060102150405"), now.UnixNano()%10000, shortID(supplierID))
}

// dateOnly returns midnight of t's calendar day in t's location. Truncate
// would cut to UTC midnight, which can land on the previous local day.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func parseOptionalDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

func parseDateOr(s string, fallback time.Time) time.Time {
	if t := parseOptionalDate(s); t != nil {
		return *t
	}
	return fallback
}
