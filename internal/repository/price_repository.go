package repository

import (
	"github.com/officina/distinta/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PriceRepository struct {
	db *gorm.DB
}

func NewPriceRepository(db *gorm.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// Upsert records a supplier's price for a component, replacing the prior
// value when the (component, supplier) pair already exists.
func (r *PriceRepository) Upsert(price *entity.SupplierPrice) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "component_id"}, {Name: "supplier_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "updated_at"}),
	}).Create(price).Error
}

// ListByComponent returns every recorded price for a component with the
// supplier preloaded.
func (r *PriceRepository) ListByComponent(componentID string) ([]entity.SupplierPrice, error) {
	var prices []entity.SupplierPrice
	err := r.db.Preload("Supplier").
		Where("component_id = ?", componentID).
		Order("price ASC").Find(&prices).Error
	return prices, err
}

// GetCheapest returns the lowest-priced row for a component. Equal prices
// tie-break deterministically on supplier id. gorm.ErrRecordNotFound when
// no supplier has priced the component.
func (r *PriceRepository) GetCheapest(componentID string) (*entity.SupplierPrice, error) {
	var price entity.SupplierPrice
	err := r.db.Where("component_id = ?", componentID).
		Order("price ASC").Order("supplier_id ASC").
		First(&price).Error
	if err != nil {
		return nil, err
	}
	return &price, nil
}

// GetForPair returns the price a given supplier quoted for a component.
func (r *PriceRepository) GetForPair(componentID, supplierID string) (*entity.SupplierPrice, error) {
	var price entity.SupplierPrice
	err := r.db.Where("component_id = ? AND supplier_id = ?", componentID, supplierID).
		First(&price).Error
	if err != nil {
		return nil, err
	}
	return &price, nil
}

func (r *PriceRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&entity.SupplierPrice{}).Error
}

// DeleteBySupplier drops every price quoted by a supplier, so a removed
// supplier can no longer win a consolidation run.
func (r *PriceRepository) DeleteBySupplier(supplierID string) error {
	return r.db.Where("supplier_id = ?", supplierID).Delete(&entity.SupplierPrice{}).Error
}
