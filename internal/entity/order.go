package entity

import (
	"time"
)

// OrderStatus fulfillment indicator derived from the order's lines.
const (
	OrderStatusPending   = "PENDING"   // at least one line neither confirmed nor delivered
	OrderStatusConfirmed = "CONFIRMED" // every line confirmed, not all delivered
	OrderStatusDelivered = "DELIVERED" // every line delivered
	OrderStatusEmpty     = "EMPTY"     // no lines with quantity > 0
)

// PurchaseOrder ordine fornitore header. Orders are created by the
// consolidation engine or the manual order path, never directly.
type PurchaseOrder struct {
	ID          string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	OrderNumber string     `json:"order_number" gorm:"size:50;not null;uniqueIndex"`
	SupplierID  string     `json:"supplier_id" gorm:"type:uuid;not null;index"`
	OrderDate   time.Time  `json:"order_date" gorm:"not null"`
	Reference   string     `json:"reference" gorm:"size:50"` // riferimento OC, source BOM for generated orders
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at" gorm:"index"`

	Supplier *Supplier   `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
	Lines    []OrderLine `json:"lines,omitempty" gorm:"foreignKey:OrderID"`
}

func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// OrderLine riga ordine. The consolidation engine never persists a line
// with Quantity <= 0.
type OrderLine struct {
	ID            string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	OrderID       string     `json:"order_id" gorm:"type:uuid;not null;index"`
	ComponentID   string     `json:"component_id" gorm:"type:uuid;not null;index"`
	Quantity      int        `json:"quantity" gorm:"not null"`
	RequestedDate time.Time  `json:"requested_date" gorm:"not null"`
	ConfirmedDate *time.Time `json:"confirmed_date"`
	DeliveredDate *time.Time `json:"delivered_date"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Component *Component `json:"component,omitempty" gorm:"foreignKey:ComponentID"`
}

func (OrderLine) TableName() string {
	return "order_lines"
}

// Status classifies the order from its qualifying lines (quantity > 0).
// Delivered wins over confirmed; an order with no qualifying lines is its
// own explicit state instead of trivially counting as delivered.
func (o *PurchaseOrder) Status() string {
	return ClassifyLines(o.Lines)
}

// ClassifyLines derives the three-state indicator (plus EMPTY) from a set
// of order lines. Lines with quantity <= 0 are ignored.
func ClassifyLines(lines []OrderLine) string {
	qualifying := 0
	confirmed := 0
	delivered := 0
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		qualifying++
		if l.ConfirmedDate != nil {
			confirmed++
		}
		if l.DeliveredDate != nil {
			delivered++
		}
	}
	switch {
	case qualifying == 0:
		return OrderStatusEmpty
	case delivered == qualifying:
		return OrderStatusDelivered
	case confirmed == qualifying:
		return OrderStatusConfirmed
	default:
		return OrderStatusPending
	}
}
