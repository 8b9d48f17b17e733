package handler

import "github.com/officina/distinta/internal/service"

// Handlers HTTP handler collection.
type Handlers struct {
	BOM      *BOMHandler
	Costing  *CostingHandler
	Supplier *SupplierHandler
	Order    *OrderHandler
	Client   *ClientHandler
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		BOM:      NewBOMHandler(services.BOM),
		Costing:  NewCostingHandler(services.Costing),
		Supplier: NewSupplierHandler(services.Supplier),
		Order:    NewOrderHandler(services.Order),
		Client:   NewClientHandler(services.Client),
	}
}
