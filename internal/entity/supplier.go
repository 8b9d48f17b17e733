package entity

import (
	"time"
)

// Supplier fornitore master record.
type Supplier struct {
	ID           string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name         string     `json:"name" gorm:"size:200;not null"`
	Address      string     `json:"address" gorm:"size:500"`
	VATNumber    string     `json:"vat_number" gorm:"size:50"`
	Email        string     `json:"email" gorm:"size:100"`
	Phone        string     `json:"phone" gorm:"size:20"`
	IBAN         string     `json:"iban" gorm:"size:50"`
	Capabilities string     `json:"capabilities" gorm:"type:text"` // lavorazioni the supplier can perform
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at" gorm:"index"`
}

func (Supplier) TableName() string {
	return "suppliers"
}

// SupplierPrice unit price quoted by one supplier for one component.
// At most one row per (component, supplier) pair; writes replace on conflict.
type SupplierPrice struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ComponentID string    `json:"component_id" gorm:"type:uuid;not null;uniqueIndex:idx_component_supplier"`
	SupplierID  string    `json:"supplier_id" gorm:"type:uuid;not null;uniqueIndex:idx_component_supplier"`
	Price       float64   `json:"price" gorm:"type:decimal(12,4);not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Supplier *Supplier `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
}

func (SupplierPrice) TableName() string {
	return "supplier_prices"
}
