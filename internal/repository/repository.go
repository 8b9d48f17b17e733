package repository

import "gorm.io/gorm"

// Repositories collection injected into the service layer.
type Repositories struct {
	BOM       *BOMRepository
	Component *ComponentRepository
	Supplier  *SupplierRepository
	Price     *PriceRepository
	Order     *OrderRepository
	Client    *ClientRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		BOM:       NewBOMRepository(db),
		Component: NewComponentRepository(db),
		Supplier:  NewSupplierRepository(db),
		Price:     NewPriceRepository(db),
		Order:     NewOrderRepository(db),
		Client:    NewClientRepository(db),
	}
}
