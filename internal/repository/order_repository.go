package repository

import (
	"github.com/officina/distinta/internal/entity"
	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) GetByID(id string) (*entity.PurchaseOrder, error) {
	var order entity.PurchaseOrder
	err := r.db.Preload("Supplier").Preload("Lines").Preload("Lines.Component").
		Where("id = ? AND deleted_at IS NULL", id).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns all orders newest first with supplier and lines preloaded,
// so the caller can derive each order's fulfillment status.
func (r *OrderRepository) List() ([]entity.PurchaseOrder, error) {
	var orders []entity.PurchaseOrder
	err := r.db.Preload("Supplier").Preload("Lines").
		Where("deleted_at IS NULL").
		Order("order_date DESC").Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *OrderRepository) Update(order *entity.PurchaseOrder) error {
	return r.db.Save(order).Error
}

// QualifyingLines returns the order's lines with quantity > 0, the set the
// status tracker classifies on.
func (r *OrderRepository) QualifyingLines(orderID string) ([]entity.OrderLine, error) {
	var lines []entity.OrderLine
	err := r.db.Where("order_id = ? AND quantity > 0", orderID).Find(&lines).Error
	return lines, err
}

func (r *OrderRepository) GetLineByID(id string) (*entity.OrderLine, error) {
	var line entity.OrderLine
	err := r.db.Where("id = ?", id).First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *OrderRepository) UpdateLine(line *entity.OrderLine) error {
	return r.db.Save(line).Error
}

func (r *OrderRepository) DeleteLine(id string) error {
	return r.db.Where("id = ?", id).Delete(&entity.OrderLine{}).Error
}
